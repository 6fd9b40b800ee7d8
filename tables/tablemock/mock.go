// Package tablemock provides a deterministic in-memory implementation of
// tables.Store for tests. It enforces the same batch constraints as the live
// service (atomicity, single partition key, operation ceiling) and records
// every committed batch so grouping behavior can be asserted without a
// storage account.
package tablemock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/eazure-dev/eazure/tables"
)

// CommittedBatch records one SubmitBatch call as observed by the store.
type CommittedBatch struct {
	Table        string
	PartitionKey string
	Ops          []tables.Operation
}

// Store is an in-memory tables.Store. Entities are keyed by
// (PartitionKey, RowKey) per table; scan order is the lexicographic key
// order the real service uses. The zero value is not usable; call New.
type Store struct {
	mu      sync.Mutex
	data    map[string]map[string]tables.Entity // table -> "pk\x00rk" -> entity
	commits []CommittedBatch

	// FailNextBatch, when set, makes the next SubmitBatch call return this
	// error without applying any operation. Used for propagation tests.
	FailNextBatch error
}

var _ tables.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{data: make(map[string]map[string]tables.Entity)}
}

func key(pk, rk string) string { return pk + "\x00" + rk }

// Commits returns every batch committed so far, in commit order.
func (s *Store) Commits() []CommittedBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CommittedBatch, len(s.commits))
	copy(out, s.commits)
	return out
}

// Len returns the number of entities currently stored in the table.
func (s *Store) Len(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[table])
}

// Exists reports whether the table exists.
func (s *Store) Exists(ctx context.Context, table string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[table]
	return ok, nil
}

// CreateTable creates the table; creating an existing table is an error,
// matching the service.
func (s *Store) CreateTable(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[table]; ok {
		return fmt.Errorf("table %s already exists", table)
	}
	s.data[table] = make(map[string]tables.Entity)
	return nil
}

// DeleteTable removes the table. Absent tables are a no-op.
func (s *Store) DeleteTable(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, table)
	return nil
}

func (s *Store) tableOf(table string) (map[string]tables.Entity, error) {
	t, ok := s.data[table]
	if !ok {
		return nil, fmt.Errorf("table %s: %w", table, tables.ErrNotFound)
	}
	return t, nil
}

// Scan streams every stored entity to fn in key order. The filter expression
// is ignored; the mock has no OData evaluator and the core only scans
// unfiltered.
func (s *Store) Scan(ctx context.Context, table, filter string, fn func(tables.Entity) error) error {
	s.mu.Lock()
	t, err := s.tableOf(table)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	snapshot := make([]tables.Entity, len(keys))
	for i, k := range keys {
		snapshot[i] = t[k].Clone()
	}
	s.mu.Unlock()

	for _, e := range snapshot {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// GetEntity retrieves one entity by key.
func (s *Store) GetEntity(ctx context.Context, table, pk, rk string) (tables.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.tableOf(table)
	if err != nil {
		return nil, err
	}
	e, ok := t[key(pk, rk)]
	if !ok {
		return nil, fmt.Errorf("entity %s/%s: %w", pk, rk, tables.ErrNotFound)
	}
	return e.Clone(), nil
}

// InsertEntity adds an entity; inserting an existing key is an error,
// matching the service.
func (s *Store) InsertEntity(ctx context.Context, table string, e tables.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.tableOf(table)
	if err != nil {
		return err
	}
	k := key(e.PartitionKey(), e.RowKey())
	if _, ok := t[k]; ok {
		return fmt.Errorf("entity %s/%s already exists", e.PartitionKey(), e.RowKey())
	}
	t[k] = e.Clone()
	return nil
}

// UpdateEntity replaces an existing entity wholesale, including removed
// columns.
func (s *Store) UpdateEntity(ctx context.Context, table string, e tables.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.tableOf(table)
	if err != nil {
		return err
	}
	k := key(e.PartitionKey(), e.RowKey())
	if _, ok := t[k]; !ok {
		return fmt.Errorf("entity %s/%s: %w", e.PartitionKey(), e.RowKey(), tables.ErrNotFound)
	}
	t[k] = e.Clone()
	return nil
}

// DeleteEntity removes one entity by key.
func (s *Store) DeleteEntity(ctx context.Context, table, pk, rk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.tableOf(table)
	if err != nil {
		return err
	}
	k := key(pk, rk)
	if _, ok := t[k]; !ok {
		return fmt.Errorf("entity %s/%s: %w", pk, rk, tables.ErrNotFound)
	}
	delete(t, k)
	return nil
}

// SubmitBatch applies the batch atomically: the operations are validated
// against the current state first and nothing is applied unless every
// operation can succeed.
func (s *Store) SubmitBatch(ctx context.Context, table string, batch *tables.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailNextBatch; err != nil {
		s.FailNextBatch = nil
		return err
	}

	t, err := s.tableOf(table)
	if err != nil {
		return err
	}
	ops := batch.Operations()
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > tables.MaxBatchSize {
		return tables.ErrBatchTooLarge
	}
	for _, op := range ops {
		if op.PartitionKey != batch.PartitionKey() {
			return tables.ErrMixedPartitionKeys
		}
	}

	// Validate all before applying any.
	for _, op := range ops {
		k := key(op.PartitionKey, op.RowKey)
		switch op.Kind {
		case tables.OpInsert:
			if _, ok := t[k]; ok {
				return fmt.Errorf("batch insert %s/%s: entity already exists", op.PartitionKey, op.RowKey)
			}
		case tables.OpDelete:
			if _, ok := t[k]; !ok {
				return fmt.Errorf("batch delete %s/%s: %w", op.PartitionKey, op.RowKey, tables.ErrNotFound)
			}
		}
	}
	for _, op := range ops {
		k := key(op.PartitionKey, op.RowKey)
		switch op.Kind {
		case tables.OpInsert:
			t[k] = op.Entity.Clone()
		case tables.OpDelete:
			delete(t, k)
		}
	}

	recorded := make([]tables.Operation, len(ops))
	copy(recorded, ops)
	s.commits = append(s.commits, CommittedBatch{
		Table:        table,
		PartitionKey: batch.PartitionKey(),
		Ops:          recorded,
	})
	return nil
}
