// Package aztable binds tables.Store to the Azure Tables service via the
// official data/aztables SDK client.
package aztable

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/eazure-dev/eazure/tables"
)

// Store implements tables.Store against a live table service endpoint.
// All calls are synchronous; retries and timeouts are the service client's
// concern (configure them on its transport), never re-implemented here.
type Store struct {
	svc *aztables.ServiceClient
}

var _ tables.Store = (*Store)(nil)

// NewStore wraps an existing service client.
func NewStore(svc *aztables.ServiceClient) *Store {
	return &Store{svc: svc}
}

// NewStoreFromConnectionString creates a store from a storage account
// connection string.
func NewStoreFromConnectionString(connectionString string, options *aztables.ClientOptions) (*Store, error) {
	svc, err := aztables.NewServiceClientFromConnectionString(connectionString, options)
	if err != nil {
		return nil, fmt.Errorf("create table service client: %w", err)
	}
	return &Store{svc: svc}, nil
}

// Exists reports whether the named table exists, using a filtered table
// listing (the service has no cheaper existence probe).
func (s *Store) Exists(ctx context.Context, table string) (bool, error) {
	filter := tableNameFilter(table)
	pager := s.svc.NewListTablesPager(&aztables.ListTablesOptions{Filter: &filter})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return false, fmt.Errorf("list tables: %w", err)
		}
		for _, t := range page.Tables {
			if t.Name != nil && *t.Name == table {
				return true, nil
			}
		}
	}
	return false, nil
}

// CreateTable creates the named table.
func (s *Store) CreateTable(ctx context.Context, table string) error {
	_, err := s.svc.CreateTable(ctx, table, nil)
	return err
}

// DeleteTable deletes the named table. Absent tables are swallowed so the
// operation is idempotent.
func (s *Store) DeleteTable(ctx context.Context, table string) error {
	_, err := s.svc.DeleteTable(ctx, table, nil)
	if err != nil && tables.IsNotFound(err) {
		return nil
	}
	return err
}

// Scan streams entities to fn page by page. filter is an OData expression;
// empty means every entity.
func (s *Store) Scan(ctx context.Context, table, filter string, fn func(tables.Entity) error) error {
	opts := &aztables.ListEntitiesOptions{}
	if filter != "" {
		opts.Filter = &filter
	}
	pager := s.svc.NewClient(table).NewListEntitiesPager(opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list entities: %w", err)
		}
		for _, raw := range page.Entities {
			e, err := unmarshalEntity(raw)
			if err != nil {
				return err
			}
			if err := fn(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetEntity retrieves one entity by key.
func (s *Store) GetEntity(ctx context.Context, table, pk, rk string) (tables.Entity, error) {
	resp, err := s.svc.NewClient(table).GetEntity(ctx, pk, rk, nil)
	if err != nil {
		return nil, err
	}
	return unmarshalEntity(resp.Value)
}

// InsertEntity adds a new entity; an existing (PartitionKey, RowKey) is a
// conflict error from the service.
func (s *Store) InsertEntity(ctx context.Context, table string, e tables.Entity) error {
	raw, err := marshalEntity(e)
	if err != nil {
		return err
	}
	_, err = s.svc.NewClient(table).AddEntity(ctx, raw, nil)
	return err
}

// UpdateEntity replaces the stored entity wholesale, including column
// removal. The unconditional ETag matches the Python table SDK's
// update_entity semantics.
func (s *Store) UpdateEntity(ctx context.Context, table string, e tables.Entity) error {
	raw, err := marshalEntity(e)
	if err != nil {
		return err
	}
	etag := azcore.ETagAny
	_, err = s.svc.NewClient(table).UpdateEntity(ctx, raw, &aztables.UpdateEntityOptions{
		IfMatch:    &etag,
		UpdateMode: aztables.UpdateModeReplace,
	})
	return err
}

// DeleteEntity removes one entity by key.
func (s *Store) DeleteEntity(ctx context.Context, table, pk, rk string) error {
	etag := azcore.ETagAny
	_, err := s.svc.NewClient(table).DeleteEntity(ctx, pk, rk, &aztables.DeleteEntityOptions{
		IfMatch: &etag,
	})
	return err
}

// SubmitBatch commits the batch as one transaction. The service enforces
// atomicity; the batch type has already enforced the size and partition-key
// constraints.
func (s *Store) SubmitBatch(ctx context.Context, table string, batch *tables.Batch) error {
	ops := batch.Operations()
	if len(ops) == 0 {
		return nil
	}
	actions := make([]aztables.TransactionAction, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case tables.OpInsert:
			raw, err := marshalEntity(op.Entity)
			if err != nil {
				return err
			}
			actions = append(actions, aztables.TransactionAction{
				ActionType: aztables.TransactionTypeAdd,
				Entity:     raw,
			})
		case tables.OpDelete:
			raw, err := json.Marshal(map[string]string{
				tables.PartitionKeyColumn: op.PartitionKey,
				tables.RowKeyColumn:       op.RowKey,
			})
			if err != nil {
				return err
			}
			actions = append(actions, aztables.TransactionAction{
				ActionType: aztables.TransactionTypeDelete,
				Entity:     raw,
			})
		}
	}
	_, err := s.svc.NewClient(table).SubmitTransaction(ctx, actions, nil)
	return err
}

// tableNameFilter builds the OData expression matching exactly one table
// name. Single quotes in string literals are escaped by doubling them.
func tableNameFilter(table string) string {
	return fmt.Sprintf("TableName eq '%s'", strings.ReplaceAll(table, "'", "''"))
}

func marshalEntity(e tables.Entity) ([]byte, error) {
	raw, err := json.Marshal(map[string]any(e))
	if err != nil {
		return nil, fmt.Errorf("marshal entity %s/%s: %w", e.PartitionKey(), e.RowKey(), err)
	}
	return raw, nil
}

// unmarshalEntity decodes the service's JSON representation, dropping OData
// annotation properties ("odata.etag" and per-column "@odata.type" hints)
// that are transport metadata, not columns.
func unmarshalEntity(raw []byte) (tables.Entity, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal entity: %w", err)
	}
	e := make(tables.Entity, len(m))
	for k, v := range m {
		if strings.HasPrefix(k, "odata.") || strings.Contains(k, "@odata.") {
			continue
		}
		e[k] = v
	}
	return e, nil
}
