package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSCatalog mirrors a bucket prefix of placeholder images into the local
// catalog directory. Objects already present locally are skipped, so repeated
// syncs only transfer new images.
type GCSCatalog struct {
	client *storage.Client
	bucket string
	prefix string
	local  *LocalCatalog
}

func NewGCSCatalog(ctx context.Context, bucket, prefix string, local *LocalCatalog) (*GCSCatalog, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSCatalog{
		client: client,
		bucket: bucket,
		prefix: prefix,
		local:  local,
	}, nil
}

func (c *GCSCatalog) Close() error {
	return c.client.Close()
}

// Sync downloads placeholder images that are missing locally and returns the
// number transferred.
func (c *GCSCatalog) Sync(ctx context.Context) (int, error) {
	if err := c.local.EnsureDir(); err != nil {
		return 0, err
	}

	objects, err := c.listImages(ctx)
	if err != nil {
		return 0, err
	}

	downloaded := 0
	for _, name := range objects {
		rel, err := filepath.Rel(c.prefix, name)
		if err != nil || rel == "." {
			continue
		}
		localPath := filepath.Join(c.local.Dir(), rel)

		if _, err := os.Stat(localPath); err == nil {
			continue
		}

		if err := c.downloadObject(ctx, name, localPath); err != nil {
			return downloaded, fmt.Errorf("download %s: %w", name, err)
		}
		downloaded++
	}

	slog.Info("Placeholder catalog synced",
		"bucket", c.bucket,
		"objects", len(objects),
		"downloaded", downloaded)
	return downloaded, nil
}

func (c *GCSCatalog) listImages(ctx context.Context) ([]string, error) {
	bkt := c.client.Bucket(c.bucket)
	query := &storage.Query{Prefix: c.prefix}

	var names []string
	it := bkt.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		if isImageName(attrs.Name) {
			names = append(names, attrs.Name)
		}
	}

	return names, nil
}

func (c *GCSCatalog) downloadObject(ctx context.Context, remotePath, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	obj := c.client.Bucket(c.bucket).Object(remotePath)
	r, err := obj.NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}
	defer func() { _ = r.Close() }()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}

	return nil
}
