package storage

import (
	"fmt"

	"loyalty-ledger-backend/internal/config"
)

// New builds the storage backend selected by storage.type.
func New(cfg config.StorageConfig) (StorageInterface, error) {
	switch cfg.Type {
	case "", "mock":
		return NewMockStorageService(cfg.BaseURL, cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
