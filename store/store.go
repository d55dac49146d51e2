package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"scmcore/config"
	"scmcore/logger"
)

// Store owns the five record tables. Build one at startup and hand it to
// every consumer; tests open their own over a temp directory.
type Store struct {
	be     backend
	tables map[Kind]*Table
	lg     *logger.Logger
	newID  func() string
	clock  *clock
}

type Option func(*Store)

func WithLogger(lg *logger.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// WithClock replaces time.Now for created_at stamps and statistics.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.clock.now = now }
}

// WithIDGenerator replaces the random UUID identifiers.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func Open(cfg *config.StoreConfig, opts ...Option) (*Store, error) {
	var (
		be  backend
		err error
	)
	switch cfg.Driver {
	case "", "csv":
		be, err = newCSVBackend(cfg.DataDir)
	case "sqlite":
		be, err = openSQLite(cfg.SQLite.Path)
	case "postgres":
		be, err = openPostgres(&cfg.Postgres)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	s := &Store{
		be:     be,
		tables: make(map[Kind]*Table, len(Kinds)),
		lg:     logger.Nop(),
		newID:  func() string { return uuid.New().String() },
		clock:  &clock{now: time.Now},
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, k := range Kinds {
		t := newTable(schemas[k], be)
		if err := t.Ensure(); err != nil {
			be.close()
			return nil, err
		}
		s.tables[k] = t
	}
	return s, nil
}

func (s *Store) Close() error   { return s.be.close() }
func (s *Store) Driver() string { return s.be.name() }

// Table returns the table for k.
func (s *Store) Table(k Kind) (*Table, error) {
	t, ok := s.tables[k]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	return t, nil
}

// TableStatus is the load result of one table.
type TableStatus struct {
	Kind  Kind   `json:"kind"`
	Table string `json:"table"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

// Check loads every table and reports its row count or failure.
func (s *Store) Check() []TableStatus {
	out := make([]TableStatus, 0, len(Kinds))
	for _, k := range Kinds {
		t := s.tables[k]
		st := TableStatus{Kind: k, Table: t.schema.Table}
		n, err := t.Count()
		if err != nil {
			st.Error = err.Error()
		} else {
			st.Rows = n
		}
		out = append(out, st)
	}
	return out
}

// clock hands out created_at stamps that never go backwards, even if the
// wall clock does.
type clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func (c *clock) stamp() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}

// headLimit returns the first limit rows that pass keep. keep may be nil.
func headLimit(rows []Row, limit int, keep func(Row) bool) []Row {
	if limit <= 0 {
		return nil
	}
	out := make([]Row, 0, min(limit, len(rows)))
	for _, r := range rows {
		if keep != nil && !keep(r) {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}
