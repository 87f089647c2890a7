// Package s3 implements the object store contract on any S3-compatible
// bucket using path-style addressing.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/feirinha/feirinha-backend/pkg/config"
	"github.com/feirinha/feirinha-backend/pkg/logger"
	"github.com/feirinha/feirinha-backend/pkg/storage"
)

const pingTimeout = 5 * time.Second

// permanentCodes are S3 error codes that no retry can fix.
var permanentCodes = map[string]bool{
	"AccessDenied":          true,
	"InvalidAccessKeyId":    true,
	"SignatureDoesNotMatch": true,
	"NoSuchBucket":          true,
	"InvalidBucketName":     true,
	"KeyTooLongError":       true,
	"EntityTooLarge":        true,
	"InvalidArgument":       true,
}

type Client struct {
	api        *minio.Client
	bucket     string
	publicBase string
	opTimeout  time.Duration
}

// New builds a client for cfg and, when configured, creates the bucket.
func New(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	endpoint := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://"), "/")
	if endpoint == "" {
		return nil, errors.New("storage endpoint is required")
	}

	api, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 client for %s: %w", endpoint, err)
	}

	c := &Client{
		api:       api,
		bucket:    cfg.Bucket,
		opTimeout: cfg.OpTimeout,
	}
	c.publicBase = strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if c.publicBase == "" {
		c.publicBase = fmt.Sprintf("%s/%s", strings.TrimSuffix(api.EndpointURL().String(), "/"), cfg.Bucket)
	}

	if cfg.CreateBucket {
		if err := c.ensureBucket(ctx, cfg.Region); err != nil {
			return nil, err
		}
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"bucket": cfg.Bucket, "endpoint": endpoint})
		logg.Info(ctx, "object store client initialized")
	}
	return c, nil
}

func (c *Client) ensureBucket(ctx context.Context, region string) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return classify(storage.OpPing, "", err)
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "BucketAlreadyOwnedByYou" || resp.Code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("make bucket %s: %w", c.bucket, err)
	}
	return nil
}

// Put uploads data under key and returns the public URL.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.api.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", classify(storage.OpPut, key, err)
	}
	return c.PublicURL(key), nil
}

// Delete removes key; an already missing object counts as deleted.
func (c *Client) Delete(ctx context.Context, key string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	err := c.api.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
	if err == nil {
		return nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil
	}
	return classify(storage.OpDelete, key, err)
}

// PublicURL joins the public base with the escaped key.
func (c *Client) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return c.publicBase + "/" + strings.Join(segments, "/")
}

// Ping verifies the bucket is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return classify(storage.OpPing, "", err)
	}
	if !exists {
		return &storage.Error{Op: storage.OpPing, Err: fmt.Errorf("bucket %s does not exist", c.bucket)}
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opTimeout)
}

func classify(op storage.Op, key string, err error) error {
	return &storage.Error{Op: op, Key: key, Transient: isTransient(err), Err: err}
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	resp := minio.ToErrorResponse(err)
	if permanentCodes[resp.Code] {
		return false
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return true
	case resp.StatusCode >= http.StatusInternalServerError:
		return true
	case resp.StatusCode == 0:
		return true
	default:
		return false
	}
}
