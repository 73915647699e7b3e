package server

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/discograf/discograf/config"
	"github.com/discograf/discograf/errors"
)

// CoverStorage stores cover image binaries and resolves their public URLs
type CoverStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	URL(key string) string
}

// NewCoverStorage builds the configured cover storage backend
func NewCoverStorage(cfg config.Covers) (CoverStorage, error) {
	switch cfg.Backend {
	case "fs":
		return newFSCoverStorage(cfg.Dir)
	case "minio":
		return newMinioCoverStorage(cfg.Minio)
	default:
		return nil, errors.BadRequest("unsupported covers backend: %s", cfg.Backend)
	}
}

// contentTypeFor infers a content type from the file extension
func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

type fsCoverStorage struct {
	dir string
}

func newFSCoverStorage(dir string) (*fsCoverStorage, error) {
	if dir == "" {
		dir = "covers"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, 500, "create covers directory")
	}
	return &fsCoverStorage{dir: dir}, nil
}

func (f *fsCoverStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path := filepath.Join(f.dir, key)

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, 500, "store cover file")
	}
	defer file.Close()

	if _, err := io.Copy(file, r); err != nil {
		os.Remove(path)
		return errors.Wrap(err, 500, "store cover file")
	}

	return nil
}

func (f *fsCoverStorage) Remove(ctx context.Context, key string) error {
	if err := os.Remove(filepath.Join(f.dir, key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, 500, "remove cover file")
	}
	return nil
}

func (f *fsCoverStorage) URL(key string) string {
	return "/covers/" + key
}

type minioCoverStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func newMinioCoverStorage(cfg config.Minio) (*minioCoverStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, 500, "create minio client")
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, 500, "check covers bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, 500, "create covers bucket")
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	return &minioCoverStorage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (m *minioCoverStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return errors.Wrap(err, 500, "upload cover object")
	}
	return nil
}

func (m *minioCoverStorage) Remove(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, 500, "remove cover object")
	}
	return nil
}

func (m *minioCoverStorage) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, key)
}
