package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	kafkago "github.com/segmentio/kafka-go"

	"scmcore/config"
)

const publishTimeout = 10 * time.Second

var errNotConnected = errors.New("not connected")

// Publisher sends raw bytes to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
	IsConnected() bool
}

// transport is one broker connection.
type transport interface {
	publish(topic string, payload []byte) error
	connected() bool
	close()
}

type mqttTransport struct{ conn mqtt.Client }

func dialMQTT(cfg *config.MQTTConfig) (*mqttTransport, error) {
	broker := fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	conn := mqtt.NewClient(opts)
	token := conn.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("mqtt connect: timed out reaching %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &mqttTransport{conn: conn}, nil
}

// publish uses QoS 1; record changes must arrive at least once.
func (t *mqttTransport) publish(topic string, payload []byte) error {
	if !t.conn.IsConnected() {
		return fmt.Errorf("mqtt: %w", errNotConnected)
	}
	token := t.conn.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish %s: timed out", topic)
	}
	return token.Error()
}

func (t *mqttTransport) connected() bool { return t.conn.IsConnected() }
func (t *mqttTransport) close()          { t.conn.Disconnect(1000) }

type kafkaTransport struct{ w *kafkago.Writer }

// newKafka builds a writer; kafka-go dials lazily on the first write.
func newKafka(cfg *config.KafkaConfig) (*kafkaTransport, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	return &kafkaTransport{w: &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}}, nil
}

// publish keys each message by topic so one table's changes stay ordered on
// a single partition.
func (t *kafkaTransport) publish(topic string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return t.w.WriteMessages(ctx, kafkago.Message{Topic: topic, Key: []byte(topic), Value: payload})
}

func (t *kafkaTransport) connected() bool { return true }
func (t *kafkaTransport) close()          { t.w.Close() }

// Client publishes over whichever broker messaging.backend selects.
type Client struct {
	mu      sync.RWMutex
	cfg     *config.MessagingConfig
	backend string
	tr      transport
}

func NewClient(cfg *config.MessagingConfig) *Client {
	return &Client{cfg: cfg, backend: cfg.Backend}
}

func (c *Client) Connect() error {
	var (
		tr  transport
		err error
	)
	switch c.backend {
	case "mqtt":
		tr, err = dialMQTT(&c.cfg.MQTT)
	case "kafka":
		tr, err = newKafka(&c.cfg.Kafka)
	default:
		return fmt.Errorf("unknown messaging backend: %s", c.backend)
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tr != nil {
		c.tr.close()
	}
	c.tr = tr
	return nil
}

func (c *Client) Publish(topic string, payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tr == nil {
		return fmt.Errorf("%s: %w", c.backend, errNotConnected)
	}
	return c.tr.publish(topic, payload)
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tr != nil && c.tr.connected()
}

func (c *Client) Backend() string { return c.backend }

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tr != nil {
		c.tr.close()
		c.tr = nil
	}
}
