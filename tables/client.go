// Package tables provides batched writes and client-side schema edits for an
// Azure-style tabular entity store.
//
// The store itself (see Store) offers only primitive operations: point
// reads/writes, full scans, and atomic batches scoped to one partition key
// with at most MaxBatchSize operations. This package layers the two pieces
// of real logic on top: a greedy batch writer/deleter that groups an ordered
// entity stream into the fewest batches the store's constraints allow, and a
// schema rewriter that performs column- and table-level edits by streaming
// every entity through a transform (the service has no native ALTER or DROP
// COLUMN).
//
// The client is stateless between calls and issues store calls strictly
// sequentially. It never retries and never rolls back: any store failure
// aborts the current operation and propagates with table and partition
// context, leaving prior completed steps in place.
package tables

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Client wraps a Store with batched write/delete and schema-edit operations.
type Client struct {
	store Store
	log   zerolog.Logger
}

// NewClient creates a client over the given store. Pass zerolog.Nop() to
// disable logging.
func NewClient(store Store, log zerolog.Logger) *Client {
	return &Client{store: store, log: log}
}

// Store returns the underlying entity store.
func (c *Client) Store() Store { return c.store }

// Exists reports whether the named table exists.
func (c *Client) Exists(ctx context.Context, table string) (bool, error) {
	return c.store.Exists(ctx, table)
}

// Create creates the named table. If it already exists, Create logs and does
// nothing.
func (c *Client) Create(ctx context.Context, table string) error {
	exists, err := c.store.Exists(ctx, table)
	if err != nil {
		return fmt.Errorf("table %s: check existence: %w", table, err)
	}
	if exists {
		c.log.Info().Str("table", table).Msg("table already exists, nothing to create")
		return nil
	}
	if err := c.store.CreateTable(ctx, table); err != nil {
		return fmt.Errorf("table %s: create: %w", table, err)
	}
	return nil
}

// DeleteIfExists deletes the named table. Absent tables are not an error.
func (c *Client) DeleteIfExists(ctx context.Context, table string) error {
	if err := c.store.DeleteTable(ctx, table); err != nil {
		return fmt.Errorf("table %s: delete: %w", table, err)
	}
	return nil
}

// Get retrieves one entity by its partition and row key.
func (c *Client) Get(ctx context.Context, table, partitionKey, rowKey string) (Entity, error) {
	e, err := c.store.GetEntity(ctx, table, partitionKey, rowKey)
	if err != nil {
		return nil, fmt.Errorf("table %s: get %s/%s: %w", table, partitionKey, rowKey, err)
	}
	return e, nil
}

// Query returns all entities matching the optional OData filter expression,
// collected in store order. An empty filter returns every entity.
func (c *Client) Query(ctx context.Context, table, filter string) ([]Entity, error) {
	var out []Entity
	err := c.store.Scan(ctx, table, filter, func(e Entity) error {
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("table %s: scan: %w", table, err)
	}
	return out, nil
}

// Write inserts entities one by one, creating the table first if it does not
// exist and truncating it first if requested. Suitable for small datasets;
// WriteBatched is the fast path.
func (c *Client) Write(ctx context.Context, table string, entities []Entity, truncate bool) error {
	if err := c.prepareWrite(ctx, table, entities, truncate); err != nil {
		return err
	}
	for i, e := range entities {
		if err := c.store.InsertEntity(ctx, table, e); err != nil {
			return fmt.Errorf("table %s: insert row %d (%s/%s): %w", table, i, e.PartitionKey(), e.RowKey(), err)
		}
	}
	c.log.Debug().Str("table", table).Int("rows", len(entities)).Msg("wrote entities pointwise")
	return nil
}

// WriteBatched inserts entities using atomic batches, creating the table
// first if it does not exist and truncating it first if requested.
//
// Batches are formed by a streaming greedy grouping: an entity joins the
// current batch while its partition key matches the batch's and the batch
// holds fewer than MaxBatchSize operations; otherwise the batch is committed
// and a new one started. Input order is preserved and batches commit in
// formation order. Non-adjacent runs of the same partition key are NOT
// coalesced; callers wanting optimal batching must pre-sort by partition key.
func (c *Client) WriteBatched(ctx context.Context, table string, entities []Entity, truncate bool) error {
	if err := c.prepareWrite(ctx, table, entities, truncate); err != nil {
		return err
	}
	batch := NewBatch()
	for _, e := range entities {
		if batch.Len() > 0 && (e.PartitionKey() != batch.PartitionKey() || batch.Len() == MaxBatchSize) {
			if err := c.commit(ctx, table, batch); err != nil {
				return err
			}
			batch = NewBatch()
		}
		if err := batch.Insert(e); err != nil {
			return fmt.Errorf("table %s: %w", table, err)
		}
	}
	if batch.Len() > 0 {
		if err := c.commit(ctx, table, batch); err != nil {
			return err
		}
	}
	return nil
}

// prepareWrite validates every entity up front, ensures the destination
// table exists and optionally truncates it. Validation happens before any
// store call so a bad row cannot leave a half-written table behind.
func (c *Client) prepareWrite(ctx context.Context, table string, entities []Entity, truncate bool) error {
	for i, e := range entities {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("table %s: row %d: %w", table, i, err)
		}
	}
	exists, err := c.store.Exists(ctx, table)
	if err != nil {
		return fmt.Errorf("table %s: check existence: %w", table, err)
	}
	if !exists {
		if err := c.store.CreateTable(ctx, table); err != nil {
			return fmt.Errorf("table %s: create: %w", table, err)
		}
	} else if truncate {
		if err := c.DeleteAllBatched(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) commit(ctx context.Context, table string, batch *Batch) error {
	if err := c.store.SubmitBatch(ctx, table, batch); err != nil {
		return fmt.Errorf("table %s: commit batch (partition %q, %d ops): %w",
			table, batch.PartitionKey(), batch.Len(), err)
	}
	c.log.Debug().Str("table", table).Str("partition", batch.PartitionKey()).
		Int("ops", batch.Len()).Msg("committed batch")
	return nil
}

// DeleteAllRows deletes every entity in the table one by one. Only suitable
// for small tables; DeleteAllBatched is the fast path.
func (c *Client) DeleteAllRows(ctx context.Context, table string) error {
	err := c.store.Scan(ctx, table, "", func(e Entity) error {
		return c.store.DeleteEntity(ctx, table, e.PartitionKey(), e.RowKey())
	})
	if err != nil {
		return fmt.Errorf("table %s: delete all rows: %w", table, err)
	}
	return nil
}

// DeleteAllBatched deletes every entity in the table using atomic batches,
// grouped with the same adjacency rule as WriteBatched over the entities'
// existing partition keys. An empty table is a successful no-op.
func (c *Client) DeleteAllBatched(ctx context.Context, table string) error {
	batch := NewBatch()
	err := c.store.Scan(ctx, table, "", func(e Entity) error {
		if batch.Len() > 0 && (e.PartitionKey() != batch.PartitionKey() || batch.Len() == MaxBatchSize) {
			if err := c.commit(ctx, table, batch); err != nil {
				return err
			}
			batch = NewBatch()
		}
		return batch.Delete(e.PartitionKey(), e.RowKey())
	})
	if err != nil {
		return fmt.Errorf("table %s: delete all batched: %w", table, err)
	}
	if batch.Len() > 0 {
		return c.commit(ctx, table, batch)
	}
	return nil
}

// CopyColumn sets dst to the value of src on every entity that has src,
// writing each modified entity back via a point update. Entities without src
// are left untouched; a heterogeneous schema is expected, not an error.
// Batching is not used because the edit is unrelated to partition grouping.
func (c *Client) CopyColumn(ctx context.Context, table, src, dst string) error {
	n := 0
	err := c.store.Scan(ctx, table, "", func(e Entity) error {
		v, ok := e[src]
		if !ok {
			return nil
		}
		updated := e.Clone()
		updated[dst] = v
		n++
		return c.store.UpdateEntity(ctx, table, updated)
	})
	if err != nil {
		return fmt.Errorf("table %s: copy column %s -> %s: %w", table, src, dst, err)
	}
	c.log.Debug().Str("table", table).Str("from", src).Str("to", dst).
		Int("entities", n).Msg("copied column")
	return nil
}

// DeleteColumn removes the named column from every entity that has it,
// writing each modified entity back via a full-replace point update.
func (c *Client) DeleteColumn(ctx context.Context, table, column string) error {
	n := 0
	err := c.store.Scan(ctx, table, "", func(e Entity) error {
		if _, ok := e[column]; !ok {
			return nil
		}
		n++
		return c.store.UpdateEntity(ctx, table, e.Without(column))
	})
	if err != nil {
		return fmt.Errorf("table %s: delete column %s: %w", table, column, err)
	}
	c.log.Debug().Str("table", table).Str("column", column).
		Int("entities", n).Msg("deleted column")
	return nil
}

// RenameColumn renames a column by copying it and then deleting the
// original, as two full passes over the table. The pair is not atomic: a
// failure between the passes leaves both columns present, which is a valid
// intermediate state a rerun repairs.
func (c *Client) RenameColumn(ctx context.Context, table, oldColumn, newColumn string) error {
	if err := c.CopyColumn(ctx, table, oldColumn, newColumn); err != nil {
		return err
	}
	return c.DeleteColumn(ctx, table, oldColumn)
}

// RenameTable moves every entity from oldName into a table named newName and
// deletes oldName. Any pre-existing table named newName is deleted first.
// The service-managed Timestamp column is stripped before reinsertion (the
// destination regenerates it); partition and row keys are preserved, so the
// copy pass is batchable.
//
// The sequence delete-dest, create-dest, copy, delete-source is not
// transactional: a failure mid-way leaves the state produced by the completed
// steps (possibly both tables populated). Rerunning the operation overwrites
// newName cleanly, so interrupted renames are retried, not repaired by hand.
func (c *Client) RenameTable(ctx context.Context, oldName, newName string) error {
	if err := c.DeleteIfExists(ctx, newName); err != nil {
		return err
	}
	if err := c.Create(ctx, newName); err != nil {
		return err
	}
	entities, err := c.Query(ctx, oldName, "")
	if err != nil {
		return err
	}
	for i, e := range entities {
		entities[i] = e.Without(TimestampColumn)
	}
	if err := c.WriteBatched(ctx, newName, entities, true); err != nil {
		return err
	}
	if err := c.DeleteIfExists(ctx, oldName); err != nil {
		return err
	}
	c.log.Info().Str("from", oldName).Str("to", newName).
		Int("entities", len(entities)).Msg("renamed table")
	return nil
}
