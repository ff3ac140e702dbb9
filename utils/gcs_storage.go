package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSBlobStore struct {
	client *storage.Client
	bucket string
}

// NewGCSBlobStore prefers explicit credentials JSON and otherwise uses
// application default credentials.
func NewGCSBlobStore(ctx context.Context, bucket, credentialsJSON string) (*GCSBlobStore, error) {
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("gcs bucket %q not found or not accessible: %w", bucket, err)
	}

	return &GCSBlobStore{client: client, bucket: bucket}, nil
}

func (g *GCSBlobStore) Upload(ctx context.Context, src io.Reader, objectName, contentType string) (BlobLocator, error) {
	wc := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := io.Copy(wc, src); err != nil {
		wc.Close()
		return BlobLocator{}, fmt.Errorf("write gcs object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return BlobLocator{}, fmt.Errorf("finalize gcs object: %w", err)
	}

	return BlobLocator{
		PublicID: objectName,
		URL:      fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, objectName),
	}, nil
}

func (g *GCSBlobStore) Download(ctx context.Context, publicID string) ([]byte, error) {
	rc, err := g.client.Bucket(g.bucket).Object(publicID).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, publicID)
	}
	if err != nil {
		return nil, fmt.Errorf("open gcs object: %w", err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func (g *GCSBlobStore) Delete(ctx context.Context, publicID string) error {
	err := g.client.Bucket(g.bucket).Object(publicID).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete gcs object: %w", err)
	}
	return nil
}

func (g *GCSBlobStore) Close() error {
	return g.client.Close()
}
