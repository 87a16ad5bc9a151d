// Package minio archives Gamma exports in MinIO.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("minio-client")

// Client stores exported files in MinIO
type Client struct {
	client    *minio.Client
	endpoint  string
	useSSL    bool
	publicURL string
}

// NewClient creates a MinIO client. No request is made until the first upload.
func NewClient(endpoint, accessKey, secretKey string, useSSL bool) (*Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Client{
		client:   client,
		endpoint: endpoint,
		useSSL:   useSSL,
	}, nil
}

// SetPublicURL sets the base used for object URLs reported in status, for
// when MinIO is reached through an ingress rather than its service address.
func (c *Client) SetPublicURL(publicURL string) {
	c.publicURL = strings.TrimRight(publicURL, "/")
}

// ObjectURL returns the URL of an object.
func (c *Client) ObjectURL(bucket, key string) string {
	base := c.publicURL
	if base == "" {
		scheme := "http"
		if c.useSSL {
			scheme = "https"
		}
		base = scheme + "://" + c.endpoint
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, key)
}

// EnsureBucket creates a bucket if it doesn't exist
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	ctx, span := tracer.Start(ctx, "minio_ensure_bucket")
	defer span.End()
	span.SetAttributes(attribute.String("minio.bucket", bucket))

	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Upload stores data under key and returns its URL
func (c *Client) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	ctx, span := tracer.Start(ctx, "minio_upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("minio.bucket", bucket),
		attribute.String("minio.key", key),
		attribute.Int("minio.size", len(data)),
	)

	if err := c.EnsureBucket(ctx, bucket); err != nil {
		return "", err
	}

	_, err := c.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to upload to MinIO: %w", err)
	}

	return c.ObjectURL(bucket, key), nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	ctx, span := tracer.Start(ctx, "minio_delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("minio.bucket", bucket),
		attribute.String("minio.key", key),
	)

	if err := c.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete object from MinIO: %w", err)
	}

	return nil
}

// ContentType returns the MIME type for an export format
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "pdf":
		return "application/pdf"
	case "pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	default:
		return "application/octet-stream"
	}
}
