package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"loyalty-ledger-backend/internal/config"
	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/storage"
)

// ReceiptUpload tells the client where to PUT a receipt image and how to
// reference it at checkout.
type ReceiptUpload struct {
	Key         string    `json:"key"`
	UploadURL   string    `json:"upload_url"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type receiptService struct {
	storage      storage.StorageInterface
	allowedTypes map[string]bool
	urlTTL       time.Duration
	settings
}

func NewReceiptService(store storage.StorageInterface, cfg config.StorageConfig, opts ...Option) ReceiptService {
	allowed := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(t)] = true
	}
	ttl := time.Duration(cfg.UploadURLTTLMins) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &receiptService{storage: store, allowedTypes: allowed, urlTTL: ttl, settings: newSettings(opts)}
}

func (s *receiptService) GetUploadUrl(ctx context.Context, restaurantID int32, filename, contentType string) (*ReceiptUpload, error) {
	logger.EnterMethod("receiptService.GetUploadUrl", "restaurantID", restaurantID, "contentType", contentType)
	if restaurantID <= 0 {
		return nil, fmt.Errorf("%w: restaurant is required", domain.ErrValidation)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if len(s.allowedTypes) > 0 && !s.allowedTypes[contentType] {
		return nil, fmt.Errorf("%w: content type %q is not allowed", domain.ErrValidation, contentType)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	key := fmt.Sprintf("restaurants/%d/receipts/%s%s", restaurantID, uuid.New().String(), ext)

	uploadURL, err := s.storage.GeneratePresignedUploadURL(ctx, key, contentType, s.urlTTL)
	if err != nil {
		logger.ExitMethodWithError("receiptService.GetUploadUrl", err)
		return nil, fmt.Errorf("failed to generate upload url: %w", err)
	}
	downloadURL, err := s.storage.GeneratePresignedDownloadURL(ctx, key, s.urlTTL)
	if err != nil {
		logger.ExitMethodWithError("receiptService.GetUploadUrl", err)
		return nil, fmt.Errorf("failed to generate download url: %w", err)
	}

	logger.ExitMethod("receiptService.GetUploadUrl", "key", key)
	return &ReceiptUpload{
		Key:         key,
		UploadURL:   uploadURL,
		DownloadURL: downloadURL,
		ExpiresAt:   s.now().Add(s.urlTTL),
	}, nil
}

func (s *receiptService) ReceiptExists(ctx context.Context, ref string) (bool, error) {
	logger.ExternalServiceCall("storage", "FileExists", "key", ref)
	exists, _, err := s.storage.FileExists(ctx, ref)
	logger.ExternalServiceResult("storage", "FileExists", err, "exists", exists)
	if err != nil {
		return false, fmt.Errorf("failed to check receipt %q: %w", ref, err)
	}
	return exists, nil
}
