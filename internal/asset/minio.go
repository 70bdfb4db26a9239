package asset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sakif/portfolio/internal/apperror"
)

// MinIOConfig configures the S3-compatible provider.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Region          string
	Bucket          string
	// PublicBaseURL is prefixed to object keys to form the returned URL,
	// e.g. "https://cdn.example.com/portfolio-assets".
	PublicBaseURL    string
	AutoCreateBucket bool
	Folder           string
}

type objectPutter interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinIO stores assets as objects in a bucket that is served publicly.
type MinIO struct {
	client  objectPutter
	bucket  string
	baseURL string
	folder  string
	logger  *slog.Logger
	newKey  func() string
}

var _ Uploader = (*MinIO)(nil)

// NewMinIO connects to the endpoint and makes sure the bucket exists.
func NewMinIO(cfg MinIOConfig, logger *slog.Logger) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("asset: init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("asset: check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if !cfg.AutoCreateBucket {
			return nil, fmt.Errorf("asset: bucket %q does not exist (auto create disabled)", cfg.Bucket)
		}
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("asset: make bucket %q: %w", cfg.Bucket, err)
		}
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return newMinIO(client, cfg.Bucket, baseURL, cfg.Folder, logger), nil
}

func newMinIO(client objectPutter, bucket, baseURL, folder string, logger *slog.Logger) *MinIO {
	if folder == "" {
		folder = DefaultFolder
	}
	return &MinIO{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		folder:  strings.Trim(folder, "/"),
		logger:  logger,
		newKey:  func() string { return uuid.NewString() },
	}
}

// Upload writes the file to <folder>/<kind>/<uuid><ext>.
func (m *MinIO) Upload(ctx context.Context, file io.Reader, info FileInfo, kind Kind) (*Result, error) {
	if file == nil {
		return nil, apperror.UploadFailed("No file provided", nil)
	}

	rawExt := path.Ext(info.Name)
	ext := strings.ToLower(rawExt)
	resourceType := resolveKind(kind, info.ContentType)
	key := path.Join(m.folder, resourceType, m.newKey()+ext)

	contentType := info.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	size := info.Size
	if size <= 0 {
		size = -1
	}

	up, err := m.client.PutObject(ctx, m.bucket, key, file, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		m.logger.Error("minio upload failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, apperror.UploadFailed("Upload failed", fmt.Errorf("put object %q: %w", key, err))
	}

	url := m.baseURL + "/" + key
	m.logger.Info("asset uploaded",
		slog.String("provider", "minio"),
		slog.String("key", key),
		slog.Int64("bytes", up.Size),
	)

	return &Result{
		SecureURL:        url,
		URL:              url,
		PublicID:         strings.TrimSuffix(key, ext),
		Format:           strings.TrimPrefix(ext, "."),
		ResourceType:     resourceType,
		Bytes:            up.Size,
		OriginalFilename: strings.TrimSuffix(path.Base(info.Name), rawExt),
	}, nil
}

// resolveKind turns "auto" into a concrete resource type using the
// uploaded content type.
func resolveKind(kind Kind, contentType string) string {
	if kind != KindAuto && kind != "" {
		return string(kind)
	}
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return string(KindImage)
	case strings.HasPrefix(contentType, "video/"):
		return string(KindVideo)
	default:
		return string(KindRaw)
	}
}
