package store

import (
	"errors"
	"fmt"
	"sync"
)

// errUnchanged lets a Mutate callback skip the rewrite.
var errUnchanged = errors.New("unchanged")

// Table is the persistent ordered row set of one record kind. Writers hold
// the table lock across load, mutate and rewrite, so concurrent writers in
// this process cannot lose each other's updates.
type Table struct {
	schema *Schema
	be     backend
	mu     sync.RWMutex
}

func newTable(s *Schema, be backend) *Table {
	return &Table{schema: s, be: be}
}

func (t *Table) Schema() *Schema { return t.schema }

// Ensure creates the table, header only, if it does not exist. Idempotent.
func (t *Table) Ensure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.be.ensure(t.schema); err != nil {
		return fmt.Errorf("ensure %s: %w: %w", t.schema.Table, ErrStoreUnavailable, err)
	}
	return nil
}

// LoadAll returns every row in table order. Errors wrap ErrStoreUnavailable.
func (t *Table) LoadAll() ([]Row, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.load()
}

func (t *Table) load() ([]Row, error) {
	rows, err := t.be.load(t.schema)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", t.schema.Table, ErrStoreUnavailable, err)
	}
	return rows, nil
}

// RewriteAll replaces the table content with rows.
func (t *Table) RewriteAll(rows []Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rewrite(rows)
}

func (t *Table) rewrite(rows []Row) error {
	for i, r := range rows {
		if len(r) != len(t.schema.Columns) {
			return fmt.Errorf("rewrite %s: row %d has %d cells, schema has %d", t.schema.Table, i+1, len(r), len(t.schema.Columns))
		}
	}
	if err := t.be.rewrite(t.schema, rows); err != nil {
		return fmt.Errorf("rewrite %s: %w: %w", t.schema.Table, ErrStoreUnavailable, err)
	}
	return nil
}

// Mutate runs load, fn and rewrite as one critical section. If fn returns
// an error nothing is written and the error is returned, except errUnchanged
// which skips the write and reports success.
func (t *Table) Mutate(fn func(rows []Row) ([]Row, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.load()
	if err != nil {
		return err
	}
	next, err := fn(rows)
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	return t.rewrite(next)
}

// Count returns the number of rows.
func (t *Table) Count() (int, error) {
	rows, err := t.LoadAll()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
