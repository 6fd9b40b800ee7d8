package tables

import (
	"fmt"
	"sort"
)

// Reserved column names every stored entity carries.
const (
	PartitionKeyColumn = "PartitionKey"
	RowKeyColumn       = "RowKey"

	// TimestampColumn is maintained by the table service and regenerated on
	// every write. It is stripped before entities are copied between tables.
	TimestampColumn = "Timestamp"
)

// Entity is one row-equivalent record in a table: an open mapping from
// column name to scalar value. Columns are not a fixed schema; two entities
// in the same table may carry different column sets. The only mandatory
// columns are PartitionKey and RowKey, which together identify the entity.
type Entity map[string]any

// PartitionKey returns the entity's partition key, or "" if unset or not a string.
func (e Entity) PartitionKey() string {
	s, _ := e[PartitionKeyColumn].(string)
	return s
}

// RowKey returns the entity's row key, or "" if unset or not a string.
func (e Entity) RowKey() string {
	s, _ := e[RowKeyColumn].(string)
	return s
}

// Validate checks that both reserved keys are present and non-empty strings.
// Entities failing validation must be rejected before any write is attempted.
func (e Entity) Validate() error {
	if e.PartitionKey() == "" {
		return fmt.Errorf("%w: missing %s", ErrInvalidEntity, PartitionKeyColumn)
	}
	if e.RowKey() == "" {
		return fmt.Errorf("%w: missing %s", ErrInvalidEntity, RowKeyColumn)
	}
	return nil
}

// Clone returns a shallow copy of the entity. Column values are shared;
// callers mutating values (rather than the column set) need a deeper copy.
func (e Entity) Clone() Entity {
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Without returns a copy of the entity with the named column removed.
func (e Entity) Without(column string) Entity {
	out := make(Entity, len(e))
	for k, v := range e {
		if k != column {
			out[k] = v
		}
	}
	return out
}

// Columns returns the entity's column names in sorted order.
func (e Entity) Columns() []string {
	cols := make([]string, 0, len(e))
	for k := range e {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// AssignKeys sets PartitionKey and RowKey on every entity in order. The
// partition value is applied as-is; row keys are derived as
// "<partition>-<index>" with the index zero-padded to the digit count of
// len(entities), so row keys sort lexicographically in input order for any
// dataset that fits the padding width. The input slice is modified in place
// and returned for chaining.
func AssignKeys(entities []Entity, partitionValue string) []Entity {
	width := len(fmt.Sprintf("%d", len(entities)))
	for i, e := range entities {
		e[PartitionKeyColumn] = partitionValue
		e[RowKeyColumn] = fmt.Sprintf("%s-%0*d", partitionValue, width, i)
	}
	return entities
}
