package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
)

// FileStore persists uploaded files under opaque keys
type FileStore interface {
	Save(ctx context.Context, folder, ext, contentType string, r io.Reader) (key string, err error)
	Delete(ctx context.Context, key string) error
}

func newFileKey(folder, ext string) string {
	return fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.New().String(), ext)
}

// LocalFileStore writes files below a root directory
type LocalFileStore struct {
	root string
}

func NewLocalFileStore(root string) (*LocalFileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalFileStore{root: root}, nil
}

func (s *LocalFileStore) Save(_ context.Context, folder, ext, _ string, r io.Reader) (string, error) {
	key := newFileKey(folder, ext)
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return key, nil
}

func (s *LocalFileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// BucketFileStore writes to the Firebase default Cloud Storage bucket
type BucketFileStore struct {
	app *firebase.App
}

func NewBucketFileStore(app *firebase.App) *BucketFileStore {
	return &BucketFileStore{app: app}
}

func (s *BucketFileStore) Save(ctx context.Context, folder, ext, contentType string, r io.Reader) (string, error) {
	client, err := s.app.Storage(ctx)
	if err != nil {
		return "", err
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		return "", err
	}

	key := newFileKey(folder, ext)
	w := bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return key, nil
}

func (s *BucketFileStore) Delete(ctx context.Context, key string) error {
	client, err := s.app.Storage(ctx)
	if err != nil {
		return err
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		return err
	}
	return bucket.Object(key).Delete(ctx)
}
