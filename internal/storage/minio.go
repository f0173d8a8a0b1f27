// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

// Package storage uploads rendered card artifacts to S3-compatible object
// storage and hands out time-limited links to them.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tomtom215/loyaltylite/internal/config"
)

// DefaultURLExpiry is used when no expiry is configured.
const DefaultURLExpiry = 24 * time.Hour

// Artifact is one rendered object.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// objectAPI is the subset of *minio.Client the store uses.
type objectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, params url.Values) (*url.URL, error)
}

var _ objectAPI = (*minio.Client)(nil)

// MinIOStore stores artifacts in one bucket.
type MinIOStore struct {
	client objectAPI
	bucket string
	expiry time.Duration
	prefix string
}

// NewMinIOStore connects to the endpoint in cfg. It does not contact the
// server; call EnsureBucket for that.
func NewMinIOStore(cfg *config.ArtifactsConfig) (*MinIOStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("storage: endpoint and bucket are required")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return newMinIOStore(mc, cfg.Bucket, cfg.URLExpiry), nil
}

func newMinIOStore(client objectAPI, bucket string, expiry time.Duration) *MinIOStore {
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}
	return &MinIOStore{client: client, bucket: bucket, expiry: expiry, prefix: "cards"}
}

// EnsureBucket creates the bucket when it does not exist.
func (s *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Save uploads a and returns a presigned GET URL for it.
func (s *MinIOStore) Save(ctx context.Context, a Artifact) (string, error) {
	if a.Name == "" || len(a.Data) == 0 {
		return "", errors.New("storage: artifact name and data are required")
	}
	object := ObjectPath(s.prefix, a.Name)
	_, err := s.client.PutObject(ctx, s.bucket, object, bytes.NewReader(a.Data), int64(len(a.Data)), minio.PutObjectOptions{
		ContentType: a.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", object, err)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, object, s.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", object, err)
	}
	return u.String(), nil
}

// Bucket returns the bucket name.
func (s *MinIOStore) Bucket() string { return s.bucket }

// ObjectPath joins prefix and name into an object key.
func ObjectPath(prefix, name string) string {
	return path.Join(prefix, path.Clean("/"+name)[1:])
}
