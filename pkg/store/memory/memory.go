// Package memory implements an in-process store.Gateway, loadable from YAML
// fixtures.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-formportal/pkg/model"
	"github.com/goliatone/go-formportal/pkg/store"
)

// Store keeps tables in memory. Reads and writes copy, so callers never share
// rows with the store.
type Store struct {
	mu     sync.RWMutex
	tables map[string]model.Table
}

var _ store.Gateway = (*Store)(nil)

// New returns a store seeded with tables, keyed by Table.Name.
func New(tables ...model.Table) *Store {
	s := &Store{tables: make(map[string]model.Table, len(tables))}
	for _, table := range tables {
		s.tables[table.Name] = table.Clone()
	}
	return s
}

// ReadTable implements store.Gateway.
func (s *Store) ReadTable(ctx context.Context, name string) (model.Table, error) {
	if err := ctx.Err(); err != nil {
		return model.Table{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	table, ok := s.tables[name]
	if !ok {
		return model.Table{}, fmt.Errorf("memory: %q: %w", name, store.ErrTableNotFound)
	}
	return table.Clone(), nil
}

// WriteTable implements store.Gateway.
func (s *Store) WriteTable(ctx context.Context, name string, table model.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clone := table.Clone()
	clone.Name = name
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = clone
	return nil
}

// Names lists the stored table names.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	return names
}
