package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"reelgram/models"
)

// BlobStore - внешнее хранилище медиа. Принимает локальный файл, возвращает
// постоянный URL. Детали загрузки/транскодинга снаружи, ошибки оборачиваются
// в UploadError на вызывающей стороне.
type BlobStore interface {
	Upload(ctx context.Context, localPath string, kind models.MediaKind) (string, error)
}

// BlobStoreInstance - активное хранилище процесса, задается при старте
var BlobStoreInstance BlobStore

// DiskBlobStore - реализация поверх локальной директории, отдаваемой как
// статика. Для продакшена заменяется на CDN-хранилище с тем же интерфейсом.
type DiskBlobStore struct {
	BaseDir string
	BaseURL string
}

func NewDiskBlobStore(baseDir, baseURL string) (*DiskBlobStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskBlobStore{BaseDir: baseDir, BaseURL: baseURL}, nil
}

func (s *DiskBlobStore) Upload(ctx context.Context, localPath string, kind models.MediaKind) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open staged file: %w", err)
	}
	defer src.Close()

	nameBytes := make([]byte, 16)
	if _, err := rand.Read(nameBytes); err != nil {
		return "", err
	}
	name := hex.EncodeToString(nameBytes) + filepath.Ext(localPath)

	dstPath := filepath.Join(s.BaseDir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create blob file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("failed to write blob file: %w", err)
	}

	return s.BaseURL + "/" + name, nil
}
