package tables

import (
	"context"
	"fmt"
)

// MaxBatchSize is the maximum number of operations allowed in one atomic
// batch. The table service rejects larger transactions.
const MaxBatchSize = 100

// OpKind identifies a batch operation type.
type OpKind int

const (
	// OpInsert adds a new entity.
	OpInsert OpKind = iota
	// OpDelete removes an entity by key.
	OpDelete
)

// Operation is one entry in a batch: an insert carrying a full entity, or a
// delete carrying only the identifying keys.
type Operation struct {
	Kind         OpKind
	Entity       Entity // set for OpInsert
	PartitionKey string
	RowKey       string
}

// Store is the tabular entity store contract the core depends on. Both the
// live Azure Tables binding (aztable) and the in-memory test store
// (tablemock) implement it.
//
// Scan streams entities to fn in store order; returning a non-nil error from
// fn stops the scan and propagates. SubmitBatch commits atomically: either
// every operation applies or none does. DeleteTable is idempotent (absent
// table is not an error).
type Store interface {
	Exists(ctx context.Context, table string) (bool, error)
	CreateTable(ctx context.Context, table string) error
	DeleteTable(ctx context.Context, table string) error
	Scan(ctx context.Context, table, filter string, fn func(Entity) error) error
	GetEntity(ctx context.Context, table, partitionKey, rowKey string) (Entity, error)
	InsertEntity(ctx context.Context, table string, entity Entity) error
	UpdateEntity(ctx context.Context, table string, entity Entity) error
	DeleteEntity(ctx context.Context, table, partitionKey, rowKey string) error
	SubmitBatch(ctx context.Context, table string, batch *Batch) error
}

// Batch accumulates operations for one atomic commit. All operations must
// share a single partition key and the batch holds at most MaxBatchSize
// operations; both limits are enforced at add time so a violation surfaces
// at the buggy call site, not at commit.
type Batch struct {
	partitionKey string
	ops          []Operation
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Len returns the number of operations in the batch.
func (b *Batch) Len() int { return len(b.ops) }

// PartitionKey returns the partition key shared by the batch's operations,
// or "" if the batch is empty.
func (b *Batch) PartitionKey() string { return b.partitionKey }

// Operations returns the batch's operations in insertion order.
func (b *Batch) Operations() []Operation { return b.ops }

func (b *Batch) admit(partitionKey string) error {
	if len(b.ops) >= MaxBatchSize {
		return fmt.Errorf("%w: limit %d", ErrBatchTooLarge, MaxBatchSize)
	}
	if len(b.ops) == 0 {
		b.partitionKey = partitionKey
		return nil
	}
	if partitionKey != b.partitionKey {
		return fmt.Errorf("%w: batch key %q, entity key %q", ErrMixedPartitionKeys, b.partitionKey, partitionKey)
	}
	return nil
}

// Insert appends an insert operation for the entity.
func (b *Batch) Insert(entity Entity) error {
	if err := entity.Validate(); err != nil {
		return err
	}
	if err := b.admit(entity.PartitionKey()); err != nil {
		return err
	}
	b.ops = append(b.ops, Operation{
		Kind:         OpInsert,
		Entity:       entity,
		PartitionKey: entity.PartitionKey(),
		RowKey:       entity.RowKey(),
	})
	return nil
}

// Delete appends a delete operation for the keyed entity.
func (b *Batch) Delete(partitionKey, rowKey string) error {
	if partitionKey == "" || rowKey == "" {
		return fmt.Errorf("%w: empty key in delete", ErrInvalidEntity)
	}
	if err := b.admit(partitionKey); err != nil {
		return err
	}
	b.ops = append(b.ops, Operation{
		Kind:         OpDelete,
		PartitionKey: partitionKey,
		RowKey:       rowKey,
	})
	return nil
}
