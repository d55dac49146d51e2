package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	mu sync.RWMutex `yaml:"-"`

	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	Web       WebConfig       `yaml:"web"`
	Engines   EnginesConfig   `yaml:"engines"`
	Messaging MessagingConfig `yaml:"messaging"`
	Log       LogConfig       `yaml:"log"`
}

// StoreConfig selects the table backend. "csv" keeps one delimited file per
// record kind under DataDir; "sqlite" and "postgres" keep one SQL table per kind.
type StoreConfig struct {
	Driver   string         `yaml:"driver"`
	DataDir  string         `yaml:"data_dir"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type WebConfig struct {
	Host              string   `yaml:"host"`
	Port              int      `yaml:"port"`
	SessionSecret     string   `yaml:"session_secret"`
	AdminUser         string   `yaml:"admin_user"`
	AdminPasswordHash string   `yaml:"admin_password_hash"`
	CORSOrigins       []string `yaml:"cors_origins"`
}

// EnginesConfig points at the external prediction and optimization services.
type EnginesConfig struct {
	PredictionURL   string        `yaml:"prediction_url"`
	OptimizerURL    string        `yaml:"optimizer_url"`
	Timeout         time.Duration `yaml:"timeout"`
	ParallelWorkers int           `yaml:"parallel_workers"`
	VehicleCapacity float64       `yaml:"vehicle_capacity"`
}

type MessagingConfig struct {
	Backend             string        `yaml:"backend"` // "none", "mqtt" or "kafka"
	MQTT                MQTTConfig    `yaml:"mqtt"`
	Kafka               KafkaConfig   `yaml:"kafka"`
	RecordsTopic        string        `yaml:"records_topic"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
	OutboxCapacity      int           `yaml:"outbox_capacity"`
	StationID           string        `yaml:"station_id"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

func Defaults() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:  "csv",
			DataDir: "data",
			SQLite:  SQLiteConfig{Path: "scmcore.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "scmcore",
				User:     "scmcore",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
			DB:      0,
			TTL:     30 * time.Second,
		},
		Web: WebConfig{
			Host:          "0.0.0.0",
			Port:          8000,
			SessionSecret: "change-me-in-production",
			AdminUser:     "admin",
			CORSOrigins:   []string{"*"},
		},
		Engines: EnginesConfig{
			PredictionURL:   "http://localhost:8090",
			OptimizerURL:    "http://localhost:8091",
			Timeout:         30 * time.Second,
			ParallelWorkers: 4,
			VehicleCapacity: 1000,
		},
		Messaging: MessagingConfig{
			Backend: "none",
			MQTT: MQTTConfig{
				Broker:   "localhost",
				Port:     1883,
				ClientID: "scmcore",
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
			},
			RecordsTopic:        "scm.records",
			OutboxDrainInterval: 5 * time.Second,
			OutboxCapacity:      1024,
			StationID:           "scmcore",
		},
		Log: LogConfig{Mode: "development"},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// AuthEnabled reports whether mutating HTTP routes require an admin session.
func (c *Config) AuthEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Web.AdminPasswordHash != ""
}

func (c *Config) Lock()   { c.mu.Lock() }
func (c *Config) Unlock() { c.mu.Unlock() }
