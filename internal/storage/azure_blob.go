package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"go.uber.org/zap"
)

// uploadBlockSize is the block size used when streaming uploads of
// unknown length
const uploadBlockSize = 4 << 20

// AzureBlobStorage keeps uploads in one blob container
type AzureBlobStorage struct {
	container *container.Client
	logger    *zap.Logger
}

// NewAzureBlobStorage connects to containerName and creates it when missing
func NewAzureBlobStorage(connectionString, containerName string, logger *zap.Logger) (*AzureBlobStorage, error) {
	client, err := container.NewClientFromConnectionString(connectionString, containerName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create container client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := client.Create(ctx, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("failed to create container %s: %w", containerName, err)
	}

	logger.Info("blob storage ready", zap.String("container", containerName))
	return &AzureBlobStorage{container: client, logger: logger}, nil
}

// Upload streams data into a new block blob and returns its name and size
func (s *AzureBlobStorage) Upload(ctx context.Context, folder, filename, contentType string, data io.Reader) (string, int64, error) {
	name := objectName(folder, filename)
	counted := &countingReader{r: data}

	_, err := s.container.NewBlockBlobClient(name).UploadStream(ctx, counted, &blockblob.UploadStreamOptions{
		BlockSize: uploadBlockSize,
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr(contentType),
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to upload blob %s: %w", name, err)
	}

	s.logger.Debug("blob uploaded",
		zap.String("blob", name),
		zap.String("file_name", filename),
		zap.Int64("size", counted.n),
	)
	return name, counted.n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Download opens a blob for reading. A missing blob returns ErrNotFound.
func (s *AzureBlobStorage) Download(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	resp, err := s.container.NewBlobClient(storagePath).DownloadStream(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, storagePath)
		}
		return nil, fmt.Errorf("failed to download blob %s: %w", storagePath, err)
	}
	return resp.Body, nil
}

// Delete removes a blob with its snapshots. A missing blob is not an error.
func (s *AzureBlobStorage) Delete(ctx context.Context, storagePath string) error {
	_, err := s.container.NewBlobClient(storagePath).Delete(ctx, &blob.DeleteOptions{
		DeleteSnapshots: to.Ptr(blob.DeleteSnapshotsOptionTypeInclude),
	})
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("failed to delete blob %s: %w", storagePath, err)
	}
	return nil
}
