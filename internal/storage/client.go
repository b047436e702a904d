// Package storage wraps the S3-compatible object store holding source
// recordings: one bucket, one prefix per teaching event, one object per
// track. Grounded on grafana-tempo's tempodb/backend/s3 package, the only
// minio-go consumer in the retrieved example pack.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"teachings-archive/internal/trackparse"
)

// Client wraps a minio-go client bound to one bucket.
type Client struct {
	mc     *minio.Client
	bucket string
}

// Config holds the connection details needed to reach the object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// New dials the S3-compatible endpoint described by cfg.
func New(cfg Config) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: dial %s: %w", cfg.Endpoint, err)
	}
	return &Client{mc: mc, bucket: cfg.Bucket}, nil
}

// ObjectInfo is the subset of object metadata the ingest pipeline needs.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// List enumerates every object under prefix, in the order the object store
// lists them; no sorting is applied here.
func (c *Client) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("storage: list %s: %w", prefix, obj.Err)
		}
		out = append(out, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

// Upload streams r into key, returning once the object is durably stored.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := c.mc.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("storage: upload %s: %w", key, err)
	}
	return nil
}

// PresignGet returns a time-limited URL for streaming/downloading key
// directly from the object store, bypassing the application server.
func (c *Client) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := c.mc.PresignedGetObject(ctx, c.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", key, err)
	}
	return u.String(), nil
}

// ObjectKey builds a stable, collision-resistant key for a parsed track
// within an event's prefix: <eventSlug>/<trackNumber>-<sanitized filename>.
func ObjectKey(eventSlug string, track trackparse.ParsedTrack) string {
	base := path.Base(track.OriginalFilename)
	base = strings.ReplaceAll(base, "/", "_")
	return fmt.Sprintf("%s/%04d-%s", eventSlug, track.TrackNumber, base)
}
