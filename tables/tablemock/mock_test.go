package tablemock

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eazure-dev/eazure/tables"
)

func TestSubmitBatchAtomicity(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateTable(ctx, "t"))
	require.NoError(t, s.InsertEntity(ctx, "t", tables.Entity{
		"PartitionKey": "p", "RowKey": "existing",
	}))

	// Batch whose second op must fail: nothing from it may apply.
	b := tables.NewBatch()
	require.NoError(t, b.Insert(tables.Entity{"PartitionKey": "p", "RowKey": "fresh"}))
	require.NoError(t, b.Insert(tables.Entity{"PartitionKey": "p", "RowKey": "existing"}))

	err := s.SubmitBatch(ctx, "t", b)
	require.Error(t, err)

	_, err = s.GetEntity(ctx, "t", "p", "fresh")
	assert.True(t, tables.IsNotFound(err), "partial batch application: fresh entity exists")
	assert.Equal(t, 1, s.Len("t"))
	assert.Empty(t, s.Commits(), "failed batch must not be recorded")
}

func TestScanSnapshotOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateTable(ctx, "t"))
	for _, rk := range []string{"c", "a", "b"} {
		require.NoError(t, s.InsertEntity(ctx, "t", tables.Entity{
			"PartitionKey": "p", "RowKey": rk,
		}))
	}

	var got []string
	require.NoError(t, s.Scan(ctx, "t", "", func(e tables.Entity) error {
		got = append(got, e.RowKey())
		return nil
	}))
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestScanAllowsMutationMidIteration(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateTable(ctx, "t"))
	for i := 0; i < 5; i++ {
		require.NoError(t, s.InsertEntity(ctx, "t", tables.Entity{
			"PartitionKey": "p", "RowKey": fmt.Sprintf("r%d", i),
		}))
	}

	// Deleting while scanning must not deadlock or skip; the scan iterates
	// a snapshot.
	n := 0
	require.NoError(t, s.Scan(ctx, "t", "", func(e tables.Entity) error {
		n++
		return s.DeleteEntity(ctx, "t", e.PartitionKey(), e.RowKey())
	}))
	assert.Equal(t, 5, n)
	assert.Equal(t, 0, s.Len("t"))
}

func TestGetReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateTable(ctx, "t"))
	require.NoError(t, s.InsertEntity(ctx, "t", tables.Entity{
		"PartitionKey": "p", "RowKey": "r", "v": "original",
	}))

	e, err := s.GetEntity(ctx, "t", "p", "r")
	require.NoError(t, err)
	e["v"] = "mutated"

	again, err := s.GetEntity(ctx, "t", "p", "r")
	require.NoError(t, err)
	assert.Equal(t, "original", again["v"])
}

func TestOperationsOnMissingTable(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Scan(ctx, "nope", "", func(tables.Entity) error { return nil })
	assert.True(t, tables.IsNotFound(err))

	err = s.InsertEntity(ctx, "nope", tables.Entity{"PartitionKey": "p", "RowKey": "r"})
	assert.True(t, tables.IsNotFound(err))

	// Deleting a missing table is a no-op per the Store contract.
	assert.NoError(t, s.DeleteTable(ctx, "nope"))
}
