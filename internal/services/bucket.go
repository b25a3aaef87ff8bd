package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/utils"
)

// BucketService stores generated audio assets and hands out the URLs the
// client plays from. Keys are slash-separated paths like
// "audio/<lesson_id>.mp3" or "audio/<lesson_id>/chunk_0.mp3".
type BucketService interface {
	UploadFile(ctx context.Context, key string, file io.Reader) error
	ReadFile(ctx context.Context, key string) ([]byte, error)
	DeleteFile(ctx context.Context, key string) error
	GetPublicURL(key string) string
	// SourceURI is the provider-native address for server-side consumers
	// (gs:// for GCS); empty when the backend has none.
	SourceURI(key string) string
}

// NewBucketService picks GCS when GCS_BUCKET_NAME is set and a local
// static-dir store otherwise, so dev machines run without cloud credentials.
func NewBucketService(log *logger.Logger) (BucketService, error) {
	if os.Getenv("GCS_BUCKET_NAME") != "" {
		return NewGCSBucketService(log)
	}
	return NewLocalBucketService(log)
}

type gcsBucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
	cdnDomain     string
}

func NewGCSBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")
	bucket := os.Getenv("GCS_BUCKET_NAME")
	if bucket == "" {
		return nil, fmt.Errorf("missing env var GCS_BUCKET_NAME")
	}
	cdnDomain := os.Getenv("CDN_DOMAIN")
	saPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")

	ctx := context.Background()
	var stClient *storage.Client
	var err error
	if saPath != "" {
		stClient, err = storage.NewClient(ctx, option.WithCredentialsFile(saPath), option.WithScopes(storage.ScopeReadWrite))
	} else {
		stClient, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	}
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &gcsBucketService{
		log:           serviceLog,
		storageClient: stClient,
		bucketName:    bucket,
		cdnDomain:     cdnDomain,
	}, nil
}

func (bs *gcsBucketService) UploadFile(ctx context.Context, key string, file io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	w := bs.storageClient.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close GCS writer: %w", err)
	}
	return nil
}

func (bs *gcsBucketService) ReadFile(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	r, err := bs.storageClient.Bucket(bs.bucketName).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object %q: %w", key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (bs *gcsBucketService) DeleteFile(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := bs.storageClient.Bucket(bs.bucketName).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete GCS object %q: %w", key, err)
	}
	return nil
}

func (bs *gcsBucketService) GetPublicURL(key string) string {
	if bs.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, key)
}

func (bs *gcsBucketService) SourceURI(key string) string {
	return fmt.Sprintf("gs://%s/%s", bs.bucketName, key)
}

// localBucketService keeps assets on disk under STATIC_DIR, served by the
// router at /static. Dev fallback; the key layout matches GCS exactly.
type localBucketService struct {
	log     *logger.Logger
	dir     string
	baseURL string
}

func NewLocalBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")
	dir := utils.GetEnv("STATIC_DIR", "static", serviceLog)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create static dir: %w", err)
	}
	base := strings.TrimRight(utils.GetEnv("STATIC_BASE_URL", "http://localhost:8080/static", serviceLog), "/")
	serviceLog.Info("Using local asset storage", "dir", dir)
	return &localBucketService{log: serviceLog, dir: dir, baseURL: base}, nil
}

func (bs *localBucketService) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid asset key %q", key)
	}
	return filepath.Join(bs.dir, clean), nil
}

func (bs *localBucketService) UploadFile(ctx context.Context, key string, file io.Reader) error {
	p, err := bs.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return fmt.Errorf("read asset: %w", err)
	}
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write asset %q: %w", key, err)
	}
	return nil
}

func (bs *localBucketService) ReadFile(ctx context.Context, key string) ([]byte, error) {
	p, err := bs.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read asset %q: %w", key, err)
	}
	return data, nil
}

func (bs *localBucketService) DeleteFile(ctx context.Context, key string) error {
	p, err := bs.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete asset %q: %w", key, err)
	}
	return nil
}

func (bs *localBucketService) GetPublicURL(key string) string {
	return bs.baseURL + "/" + strings.TrimLeft(key, "/")
}

func (bs *localBucketService) SourceURI(key string) string { return "" }
