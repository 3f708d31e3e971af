package attachment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	minioSDK "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/frahmantamala/issue-tracker/internal"
)

const keyPrefix = "attachments/"

// Uploader stores one file and returns the URL recorded on the issue.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
}

type MinioUploader struct {
	client     *minioSDK.Client
	bucket     string
	publicBase string
	logger     *slog.Logger
	newID      func() string
}

// NewMinioUploader connects to S3 or MinIO and creates the bucket when it is
// missing.
func NewMinioUploader(ctx context.Context, cfg internal.AttachmentsConfig, logger *slog.Logger) (*MinioUploader, error) {
	client, err := minioSDK.New(cfg.Endpoint, &minioSDK.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minioSDK.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("attachment bucket created", "bucket", cfg.Bucket)
	}

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicBase = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}

	return &MinioUploader{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: publicBase,
		logger:     logger,
		newID:      uuid.NewString,
	}, nil
}

func (u *MinioUploader) Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	key := ObjectKey(name, u.newID())
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := u.client.PutObject(ctx, u.bucket, key, r, size, minioSDK.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"original-name": filepath.Base(name)},
	})
	if err != nil {
		u.logger.Error("attachment upload failed", "bucket", u.bucket, "key", key, "error", err)
		return "", internal.ErrUploadFailed.WithCause(err)
	}

	u.logger.Info("attachment uploaded", "bucket", u.bucket, "key", key, "size", info.Size)
	return PublicURL(u.publicBase, key), nil
}

// Ping checks that the bucket is reachable.
func (u *MinioUploader) Ping(ctx context.Context) error {
	ok, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s is missing", u.bucket)
	}
	return nil
}

// ObjectKey is attachments/<id><ext>, keeping only the lowercased extension
// of the uploaded name.
func ObjectKey(name, id string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) > 16 || strings.ContainsAny(ext, " /\\?#%") {
		ext = ""
	}
	return keyPrefix + id + ext
}

func PublicURL(base, key string) string {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + key
	}
	u.Path = path.Join(u.Path, key)
	return u.String()
}
