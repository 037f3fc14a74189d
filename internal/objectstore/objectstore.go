// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package objectstore is the Object Store Gateway: a thin, retrying
// wrapper around an S3-compatible blob store, grounded on the trace
// archival gateway's use of aws-sdk-go-v2/service/s3 (PutObject,
// DeleteObject, presigned GetObject) and generalized from trace
// archival to content-addressed document blobs.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/the-hive/internal/apperr"
	"github.com/the-hive/internal/config"
	"github.com/the-hive/internal/retry"
)

// Gateway is the Object Store Gateway described by the upload and
// deletion paths: put/get/delete/presign_get/list/ensure_bucket, every
// call wrapped in the blob retry policy.
type Gateway struct {
	client *s3.Client
	presig *s3.PresignClient
	bucket string
}

// New builds a Gateway against an S3-compatible endpoint. A custom
// Endpoint in cfg (MinIO in development) is honoured via path-style
// addressing; an empty Endpoint lets the SDK resolve AWS S3 normally.
func New(ctx context.Context, cfg config.BlobConfig) (*Gateway, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	gw := &Gateway{
		client: client,
		presig: s3.NewPresignClient(client),
		bucket: cfg.Bucket,
	}

	if err := gw.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return gw, nil
}

// Key builds the {owner_id}/{filename} blob key the Resource Service
// writes and the indexing worker reads back.
func Key(ownerID, filename string) string {
	return ownerID + "/" + filename
}

// EnsureBucket creates the bucket if it doesn't already exist.
// Idempotent: a BucketAlreadyOwnedByYou response is treated as success.
func (g *Gateway) EnsureBucket(ctx context.Context) error {
	return retry.Do(ctx, retry.Blob, func() error {
		_, err := g.client.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: aws.String(g.bucket),
		})
		if err == nil {
			return nil
		}
		if bucketAlreadyOwned(err) {
			return nil
		}
		return err
	})
}

// Put uploads content under key, retrying transient failures.
func (g *Gateway) Put(ctx context.Context, key string, content []byte, contentType string) error {
	return retry.Do(ctx, retry.Blob, func() error {
		_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(g.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(content),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return apperr.Wrap(apperr.ExternalUnavailable, "blob put failed", err)
		}
		return nil
	})
}

// Get downloads the content stored under key.
func (g *Gateway) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, retry.Blob, func() error {
		out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(g.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isNotFound(err) {
				return apperr.NotFoundf("blob %s not found", key)
			}
			return apperr.Wrap(apperr.ExternalUnavailable, "blob get failed", err)
		}
		defer out.Body.Close()
		body, err = io.ReadAll(out.Body)
		return err
	})
	return body, err
}

// Delete removes the object at key. A missing object is not an error:
// deletion is idempotent, matching the cascade-delete invariant that
// callers may retry a partially-completed delete.
func (g *Gateway) Delete(ctx context.Context, key string) error {
	return retry.Do(ctx, retry.Blob, func() error {
		_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(g.bucket),
			Key:    aws.String(key),
		})
		if err != nil && !isNotFound(err) {
			return apperr.Wrap(apperr.ExternalUnavailable, "blob delete failed", err)
		}
		return nil
	})
}

// PresignGet returns a time-limited download URL for key.
func (g *Gateway) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	var url string
	err := retry.Do(ctx, retry.Blob, func() error {
		req, err := g.presig.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(g.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(ttl))
		if err != nil {
			return apperr.Wrap(apperr.ExternalUnavailable, "presign failed", err)
		}
		url = req.URL
		return nil
	})
	return url, err
}

// Exists reports whether key is present, used by the reconciliation
// sweep to detect document rows whose blob has gone missing.
func (g *Gateway) Exists(ctx context.Context, key string) (bool, error) {
	var found bool
	err := retry.Do(ctx, retry.Blob, func() error {
		_, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(g.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isNotFound(err) {
				found = false
				return nil
			}
			return apperr.Wrap(apperr.ExternalUnavailable, "blob head failed", err)
		}
		found = true
		return nil
	})
	return found, err
}

// List enumerates every blob under the given owner prefix.
func (g *Gateway) List(ctx context.Context, ownerPrefix string) ([]string, error) {
	var keys []string
	err := retry.Do(ctx, retry.Blob, func() error {
		keys = keys[:0]
		paginator := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(g.bucket),
			Prefix: aws.String(ownerPrefix),
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return apperr.Wrap(apperr.ExternalUnavailable, "blob list failed", err)
			}
			for _, obj := range page.Contents {
				keys = append(keys, aws.ToString(obj.Key))
			}
		}
		return nil
	})
	return keys, err
}

type codedError interface{ ErrorCode() string }

func isNotFound(err error) bool {
	var ce codedError
	if errors.As(err, &ce) {
		code := ce.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}

func bucketAlreadyOwned(err error) bool {
	var ce codedError
	if errors.As(err, &ce) {
		code := ce.ErrorCode()
		return code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists"
	}
	return false
}
