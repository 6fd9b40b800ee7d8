package blobs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eazure-dev/eazure/frame"
)

// memBlobAPI is an in-memory BlobAPI for tests.
type memBlobAPI struct {
	data map[string][]byte
}

func newMemBlobAPI() *memBlobAPI {
	return &memBlobAPI{data: make(map[string][]byte)}
}

func blobKey(container, name string) string { return container + "/" + name }

func (m *memBlobAPI) Download(ctx context.Context, container, name string) ([]byte, error) {
	data, ok := m.data[blobKey(container, name)]
	if !ok {
		return nil, fmt.Errorf("blob %s/%s not found", container, name)
	}
	return data, nil
}

func (m *memBlobAPI) Upload(ctx context.Context, container, name string, data []byte, overwrite bool) error {
	k := blobKey(container, name)
	if _, ok := m.data[k]; ok && !overwrite {
		return errors.New("blob already exists")
	}
	m.data[k] = data
	return nil
}

func (m *memBlobAPI) Delete(ctx context.Context, container, name string) error {
	k := blobKey(container, name)
	if _, ok := m.data[k]; !ok {
		return fmt.Errorf("blob %s/%s not found", container, name)
	}
	delete(m.data, k)
	return nil
}

func (m *memBlobAPI) Exists(ctx context.Context, container, name string) (bool, error) {
	_, ok := m.data[blobKey(container, name)]
	return ok, nil
}

func newTestClient() (*Client, *memBlobAPI) {
	api := newMemBlobAPI()
	return NewClient(api, zerolog.Nop()), api
}

func TestWriteReadText(t *testing.T) {
	client, _ := newTestClient()
	ctx := context.Background()

	require.NoError(t, client.Write(ctx, "hello world", "c", "notes.txt", true))
	obj, err := client.Read(ctx, "c", "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", obj)
}

func TestWriteReadJSON(t *testing.T) {
	client, _ := newTestClient()
	ctx := context.Background()

	payload := map[string]any{"enabled": true, "count": float64(3)}
	require.NoError(t, client.Write(ctx, payload, "c", "settings.json", true))

	obj, err := client.Read(ctx, "c", "settings.json")
	require.NoError(t, err)
	assert.Equal(t, payload, obj)
}

func TestWriteReadJSONFrame(t *testing.T) {
	client, _ := newTestClient()
	ctx := context.Background()

	f := frame.New("name", "age")
	f.Append(map[string]any{"name": "alice", "age": float64(30)})
	f.Append(map[string]any{"name": "bob", "age": float64(41)})
	require.NoError(t, client.Write(ctx, f, "c", "people.json", true))

	// A .json blob written from a frame reads back as one.
	back, err := client.ReadFrame(ctx, "c", "people.json")
	require.NoError(t, err)
	require.Equal(t, 2, back.Len())
	assert.Equal(t, "alice", back.Row(0)["name"])
	assert.Equal(t, float64(41), back.Row(1)["age"])
}

func TestAppendJSONBlob(t *testing.T) {
	client, _ := newTestClient()
	ctx := context.Background()

	existing := frame.New("id", "v")
	existing.Append(map[string]any{"id": "1", "v": "old"})
	require.NoError(t, client.Write(ctx, existing, "c", "rows.json", true))

	incoming := frame.New("id", "v")
	incoming.Append(map[string]any{"id": "1", "v": "new"})
	require.NoError(t, client.Append(ctx, incoming, "c", "rows.json", []string{"id"}))

	back, err := client.ReadFrame(ctx, "c", "rows.json")
	require.NoError(t, err)
	require.Equal(t, 1, back.Len())
	assert.Equal(t, "new", back.Row(0)["v"])
}

func TestReadJSONScalarArrayStaysGeneric(t *testing.T) {
	client, api := newTestClient()
	ctx := context.Background()

	api.data[blobKey("c", "ids.json")] = []byte(`["a","b","c"]`)
	obj, err := client.Read(ctx, "c", "ids.json")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, obj)
}

func TestWriteReadCSVFrame(t *testing.T) {
	client, _ := newTestClient()
	ctx := context.Background()

	f := frame.New("name", "age")
	f.Append(map[string]any{"name": "alice", "age": "30"})
	require.NoError(t, client.Write(ctx, f, "c", "people.csv", true))

	back, err := client.ReadFrame(ctx, "c", "people.csv")
	require.NoError(t, err)
	require.Equal(t, 1, back.Len())
	assert.Equal(t, "alice", back.Row(0)["name"])
	assert.Equal(t, "30", back.Row(0)["age"])
}

func TestWriteReadGob(t *testing.T) {
	client, _ := newTestClient()
	ctx := context.Background()

	payload := map[string]any{"k": "v"}
	require.NoError(t, client.Write(ctx, payload, "c", "state.gob", true))

	obj, err := client.Read(ctx, "c", "state.gob")
	require.NoError(t, err)
	assert.Equal(t, payload, obj)
}

func TestUnsupportedExtension(t *testing.T) {
	client, api := newTestClient()
	ctx := context.Background()

	err := client.Write(ctx, "x", "c", "file.parquet", true)
	assert.ErrorIs(t, err, ErrUnsupportedExtension)

	api.data[blobKey("c", "file.parquet")] = []byte("raw")
	_, err = client.Read(ctx, "c", "file.parquet")
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestWriteNoOverwrite(t *testing.T) {
	client, _ := newTestClient()
	ctx := context.Background()

	require.NoError(t, client.Write(ctx, "first", "c", "f.txt", true))
	err := client.Write(ctx, "second", "c", "f.txt", false)
	require.Error(t, err)

	obj, err := client.Read(ctx, "c", "f.txt")
	require.NoError(t, err)
	assert.Equal(t, "first", obj)
}

func TestAppendCreatesWhenMissing(t *testing.T) {
	client, _ := newTestClient()
	ctx := context.Background()

	f := frame.New("id")
	f.Append(map[string]any{"id": "1"})
	require.NoError(t, client.Append(ctx, f, "c", "rows.csv", nil))

	back, err := client.ReadFrame(ctx, "c", "rows.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, back.Len())
}

func TestAppendDeduplicatesOnIDVars(t *testing.T) {
	client, _ := newTestClient()
	ctx := context.Background()

	existing := frame.New("id", "v")
	existing.Append(map[string]any{"id": "1", "v": "old"})
	existing.Append(map[string]any{"id": "2", "v": "old"})
	require.NoError(t, client.Write(ctx, existing, "c", "rows.csv", true))

	incoming := frame.New("id", "v")
	incoming.Append(map[string]any{"id": "1", "v": "new"})
	incoming.Append(map[string]any{"id": "3", "v": "new"})
	require.NoError(t, client.Append(ctx, incoming, "c", "rows.csv", []string{"id"}))

	back, err := client.ReadFrame(ctx, "c", "rows.csv")
	require.NoError(t, err)
	require.Equal(t, 3, back.Len())

	byID := make(map[string]string)
	for i := 0; i < back.Len(); i++ {
		row := back.Row(i)
		byID[fmt.Sprint(row["id"])] = fmt.Sprint(row["v"])
	}
	// Incoming rows win on conflict.
	assert.Equal(t, "new", byID["1"])
	assert.Equal(t, "old", byID["2"])
	assert.Equal(t, "new", byID["3"])
}

func TestFilterBlob(t *testing.T) {
	client, _ := newTestClient()
	ctx := context.Background()

	f := frame.New("region", "v")
	f.Append(map[string]any{"region": "eu", "v": "1"})
	f.Append(map[string]any{"region": "us", "v": "2"})
	f.Append(map[string]any{"region": "eu", "v": "3"})
	require.NoError(t, client.Write(ctx, f, "c", "rows.csv", true))

	require.NoError(t, client.Filter(ctx, "c", "rows.csv", map[string][]string{
		"region": {"eu"},
	}))

	back, err := client.ReadFrame(ctx, "c", "rows.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, back.Len())
}

func TestFilterMissingBlobIsNoOp(t *testing.T) {
	client, _ := newTestClient()
	require.NoError(t, client.Filter(context.Background(), "c", "absent.csv", nil))
}

func TestDeleteIfExists(t *testing.T) {
	client, api := newTestClient()
	ctx := context.Background()

	require.NoError(t, client.Write(ctx, "x", "c", "f.txt", true))
	require.NoError(t, client.DeleteIfExists(ctx, "c", "f.txt"))
	assert.Empty(t, api.data)

	// Second delete is a no-op, not an error.
	require.NoError(t, client.DeleteIfExists(ctx, "c", "f.txt"))
}
