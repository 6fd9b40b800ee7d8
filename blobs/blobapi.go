package blobs

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// BlobAPI is the narrow slice of blob-store behavior the client needs:
// whole-object download, upload with an overwrite flag, delete, and an
// existence probe. The production implementation wraps the Azure SDK client;
// tests substitute an in-memory map.
type BlobAPI interface {
	Download(ctx context.Context, container, name string) ([]byte, error)
	Upload(ctx context.Context, container, name string, data []byte, overwrite bool) error
	Delete(ctx context.Context, container, name string) error
	Exists(ctx context.Context, container, name string) (bool, error)
}

// AzureBlobAPI implements BlobAPI over an azblob.Client.
type AzureBlobAPI struct {
	client *azblob.Client
}

var _ BlobAPI = (*AzureBlobAPI)(nil)

// NewAzureBlobAPI wraps an existing azblob client.
func NewAzureBlobAPI(client *azblob.Client) *AzureBlobAPI {
	return &AzureBlobAPI{client: client}
}

// Download fetches the whole blob into memory.
func (a *AzureBlobAPI) Download(ctx context.Context, container, name string) ([]byte, error) {
	resp, err := a.client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		return nil, fmt.Errorf("download blob %s/%s: %w", container, name, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob %s/%s: %w", container, name, err)
	}
	return data, nil
}

// Upload writes the blob. With overwrite false, an existing blob fails the
// upload via an If-None-Match condition rather than a racy pre-check.
func (a *AzureBlobAPI) Upload(ctx context.Context, container, name string, data []byte, overwrite bool) error {
	opts := &azblob.UploadBufferOptions{}
	if !overwrite {
		opts.AccessConditions = &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{
				IfNoneMatch: to.Ptr(azcore.ETagAny),
			},
		}
	}
	if _, err := a.client.UploadBuffer(ctx, container, name, data, opts); err != nil {
		return fmt.Errorf("upload blob %s/%s: %w", container, name, err)
	}
	return nil
}

// Delete removes the blob.
func (a *AzureBlobAPI) Delete(ctx context.Context, container, name string) error {
	if _, err := a.client.DeleteBlob(ctx, container, name, nil); err != nil {
		return fmt.Errorf("delete blob %s/%s: %w", container, name, err)
	}
	return nil
}

// Exists probes the blob's properties and maps BlobNotFound to false.
func (a *AzureBlobAPI) Exists(ctx context.Context, container, name string) (bool, error) {
	blobClient := a.client.ServiceClient().NewContainerClient(container).NewBlobClient(name)
	_, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("probe blob %s/%s: %w", container, name, err)
	}
	return true, nil
}
