// Package blobs reads and writes typed objects to a blob store, choosing the
// serialization codec from the blob name's file extension. It also carries
// the frame-level conveniences the library's original consumers rely on:
// append-with-dedup and in-place filtering of a stored tabular blob.
package blobs

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/rs/zerolog"

	"github.com/eazure-dev/eazure/frame"
)

// Client wraps a BlobAPI with extension-keyed object I/O.
type Client struct {
	api BlobAPI
	log zerolog.Logger
}

// NewClient creates a client over the given blob API. Pass zerolog.Nop() to
// disable logging.
func NewClient(api BlobAPI, log zerolog.Logger) *Client {
	return &Client{api: api, log: log}
}

// NewClientFromConnectionString creates a client backed by the Azure blob
// service.
func NewClientFromConnectionString(connectionString string, options *azblob.ClientOptions, log zerolog.Logger) (*Client, error) {
	azc, err := azblob.NewClientFromConnectionString(connectionString, options)
	if err != nil {
		return nil, fmt.Errorf("create blob service client: %w", err)
	}
	return NewClient(NewAzureBlobAPI(azc), log), nil
}

// Read downloads a blob and decodes it by extension: .csv yields a
// *frame.Frame, .txt a string, .json a *frame.Frame for a records array or
// a generic value otherwise, .gob a registered Go value.
func (c *Client) Read(ctx context.Context, container, name string) (any, error) {
	data, err := c.api.Download(ctx, container, name)
	if err != nil {
		return nil, err
	}
	return decode(name, data)
}

// ReadFrame is Read for callers expecting tabular content.
func (c *Client) ReadFrame(ctx context.Context, container, name string) (*frame.Frame, error) {
	obj, err := c.Read(ctx, container, name)
	if err != nil {
		return nil, err
	}
	f, ok := obj.(*frame.Frame)
	if !ok {
		return nil, fmt.Errorf("blob %s/%s: expected tabular content, got %T", container, name, obj)
	}
	return f, nil
}

// Write encodes the object by the blob name's extension and uploads it. With
// overwrite false, writing over an existing blob fails.
func (c *Client) Write(ctx context.Context, obj any, container, name string, overwrite bool) error {
	data, err := encode(name, obj)
	if err != nil {
		return err
	}
	if err := c.api.Upload(ctx, container, name, data, overwrite); err != nil {
		return err
	}
	c.log.Debug().Str("container", container).Str("blob", name).
		Int("bytes", len(data)).Msg("wrote blob")
	return nil
}

// Append merges f with the tabular blob's current content and re-uploads the
// result. Existing rows are appended after f's rows and duplicates are
// dropped on the idVars columns, keeping first occurrence (so incoming rows
// win). A missing blob is created from f alone. With empty idVars no
// de-duplication happens.
func (c *Client) Append(ctx context.Context, f *frame.Frame, container, name string, idVars []string) error {
	exists, err := c.api.Exists(ctx, container, name)
	if err != nil {
		return err
	}
	if exists {
		old, err := c.ReadFrame(ctx, container, name)
		if err != nil {
			return err
		}
		f.Concat(old)
		if len(idVars) > 0 {
			f.DropDuplicates(idVars)
		}
	}
	return c.Write(ctx, f, container, name, true)
}

// Filter downloads a tabular blob, keeps only rows whose values appear in
// the per-column allowed sets, and re-uploads it. A missing blob is logged
// and skipped, not an error.
func (c *Client) Filter(ctx context.Context, container, name string, filters map[string][]string) error {
	exists, err := c.api.Exists(ctx, container, name)
	if err != nil {
		return err
	}
	if !exists {
		c.log.Warn().Str("container", container).Str("blob", name).
			Msg("blob does not exist, nothing to filter")
		return nil
	}
	f, err := c.ReadFrame(ctx, container, name)
	if err != nil {
		return err
	}
	for column, allowed := range filters {
		f.Filter(column, allowed)
	}
	return c.Write(ctx, f, container, name, true)
}

// DeleteIfExists removes the blob. A missing blob is logged and skipped.
func (c *Client) DeleteIfExists(ctx context.Context, container, name string) error {
	exists, err := c.api.Exists(ctx, container, name)
	if err != nil {
		return err
	}
	if !exists {
		c.log.Info().Str("container", container).Str("blob", name).
			Msg("blob does not exist, no action taken")
		return nil
	}
	if err := c.api.Delete(ctx, container, name); err != nil {
		return err
	}
	c.log.Info().Str("container", container).Str("blob", name).Msg("blob deleted")
	return nil
}
