package storage

import (
	"context"
	"io"
	"time"
)

// StorageInterface is a receipt image store. The mock implementation keeps
// files on local disk; cloud backends hand out presigned URLs.
type StorageInterface interface {
	// GeneratePresignedUploadURL returns a URL the client PUTs the file to.
	GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, expiresIn time.Duration) (string, error)

	GeneratePresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// FileExists checks if a file exists and returns its size
	FileExists(ctx context.Context, key string) (exists bool, size int64, err error)

	DeleteFile(ctx context.Context, key string) error

	// SaveFile and ReadFile back the mock upload/download HTTP routes.
	SaveFile(key string, reader io.Reader) error
	ReadFile(key string) (io.ReadCloser, error)
}
