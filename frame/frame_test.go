package frame

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eazure-dev/eazure/tables"
)

func TestReadCSV(t *testing.T) {
	src := "name,age\nalice,30\nbob,25\n"
	f, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age"}, f.Columns())
	require.Equal(t, 2, f.Len())
	assert.Equal(t, "alice", f.Row(0)["name"])
	assert.Equal(t, "25", f.Row(1)["age"])
}

func TestReadCSVEmpty(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
}

func TestWriteCSVPreservesColumnOrder(t *testing.T) {
	f := New("b", "a")
	f.Append(map[string]any{"a": 1, "b": 2})

	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf))
	assert.Equal(t, "b,a\n2,1\n", buf.String())
}

func TestJSONRecords(t *testing.T) {
	f := New()
	f.Append(map[string]any{"name": "alice", "age": 30})
	f.Append(map[string]any{"name": "bob"})

	var buf bytes.Buffer
	require.NoError(t, f.WriteJSON(&buf))

	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, back.Len())
	assert.Equal(t, "alice", back.Row(0)["name"])
	_, hasAge := back.Row(1)["age"]
	assert.False(t, hasAge, "missing column must stay missing, not become empty")
}

func TestConcatMergesColumns(t *testing.T) {
	a := New("x")
	a.Append(map[string]any{"x": 1})
	b := New("y")
	b.Append(map[string]any{"y": 2})

	a.Concat(b)
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, []string{"x", "y"}, a.Columns())
}

func TestDropDuplicates(t *testing.T) {
	f := New("id", "v")
	f.Append(map[string]any{"id": "1", "v": "new"})
	f.Append(map[string]any{"id": "2", "v": "new"})
	f.Append(map[string]any{"id": "1", "v": "old"})

	f.DropDuplicates([]string{"id"})
	require.Equal(t, 2, f.Len())
	// First occurrence wins: the incoming row's value survives.
	assert.Equal(t, "new", f.Row(0)["v"])
	assert.Equal(t, "2", f.Row(1)["id"])
}

func TestDropDuplicatesAllColumns(t *testing.T) {
	f := New("a")
	f.Append(map[string]any{"a": "x"})
	f.Append(map[string]any{"a": "x"})
	f.Append(map[string]any{"a": "y"})

	f.DropDuplicates(nil)
	assert.Equal(t, 2, f.Len())
}

func TestFilter(t *testing.T) {
	f := New("region", "v")
	f.Append(map[string]any{"region": "eu", "v": 1})
	f.Append(map[string]any{"region": "us", "v": 2})
	f.Append(map[string]any{"v": 3}) // no region column
	f.Append(map[string]any{"region": "eu", "v": 4})

	f.Filter("region", []string{"eu"})
	require.Equal(t, 2, f.Len())
	assert.Equal(t, 1, f.Row(0)["v"])
	assert.Equal(t, 4, f.Row(1)["v"])
}

func TestDrop(t *testing.T) {
	f := New("keep", "gone")
	f.Append(map[string]any{"keep": 1, "gone": 2})

	f.Drop("gone")
	assert.Equal(t, []string{"keep"}, f.Columns())
	_, ok := f.Row(0)["gone"]
	assert.False(t, ok)
}

func TestEntitiesRoundTrip(t *testing.T) {
	f := New("v")
	f.Append(map[string]any{"v": "a"})
	f.Append(map[string]any{"v": "b"})

	entities := tables.AssignKeys(f.Entities(), "2024-01-15")
	require.Len(t, entities, 2)
	assert.Equal(t, "2024-01-15", entities[0].PartitionKey())
	assert.Equal(t, "2024-01-15-0", entities[0].RowKey())

	back := FromEntities(entities)
	assert.Equal(t, 2, back.Len())
	assert.Contains(t, back.Columns(), "PartitionKey")
}
