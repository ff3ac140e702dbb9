package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobLocator identifies a stored document.
type BlobLocator struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// BlobStore is the durable document storage used by the invoice pipeline.
type BlobStore interface {
	Upload(ctx context.Context, src io.Reader, objectName, contentType string) (BlobLocator, error)
	Download(ctx context.Context, publicID string) ([]byte, error)
	Delete(ctx context.Context, publicID string) error
}

type LocalFileStorage struct {
	uploadPath string
	baseURL    string
}

func NewLocalFileStorage(uploadPath, baseURL string) *LocalFileStorage {
	return &LocalFileStorage{uploadPath: uploadPath, baseURL: baseURL}
}

// resolve keeps public ids inside the upload directory.
func (s *LocalFileStorage) resolve(publicID string) (string, error) {
	clean := filepath.Clean("/" + publicID)
	if clean == "/" {
		return "", fmt.Errorf("empty public id")
	}
	return filepath.Join(s.uploadPath, strings.TrimPrefix(clean, "/")), nil
}

func (s *LocalFileStorage) Upload(ctx context.Context, src io.Reader, objectName, contentType string) (BlobLocator, error) {
	filePath, err := s.resolve(objectName)
	if err != nil {
		return BlobLocator{}, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return BlobLocator{}, fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(filePath)
	if err != nil {
		return BlobLocator{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filePath)
		return BlobLocator{}, fmt.Errorf("failed to copy file content: %w", err)
	}

	return BlobLocator{
		PublicID: objectName,
		URL:      JoinURL(s.baseURL, "uploads", objectName),
	}, nil
}

func (s *LocalFileStorage) Download(ctx context.Context, publicID string) ([]byte, error) {
	fullPath, err := s.resolve(publicID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, publicID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (s *LocalFileStorage) Delete(ctx context.Context, publicID string) error {
	fullPath, err := s.resolve(publicID)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// ReadAllLimited reads at most limit bytes and reports whether the source was larger.
func ReadAllLimited(src io.Reader, limit int64) ([]byte, bool, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(src, limit+1))
	if err != nil {
		return nil, false, err
	}
	if n > limit {
		return nil, true, nil
	}
	return buf.Bytes(), false, nil
}
