package http

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"loyalty-ledger-backend/internal/config"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/storage"
)

// ReceiptHandler serves the mock presigned URLs handed out by the receipt
// service, so clients can PUT and GET receipt images without cloud storage.
type ReceiptHandler struct {
	files        storage.StorageInterface
	allowedTypes map[string]bool
	maxBytes     int64
}

func NewReceiptHandler(files storage.StorageInterface, cfg config.StorageConfig) *ReceiptHandler {
	allowed := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(t)] = true
	}
	maxBytes := cfg.MaxFileSize << 20
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &ReceiptHandler{files: files, allowedTypes: allowed, maxBytes: maxBytes}
}

// HandleUpload handles HTTP PUT requests to mock presigned URLs
func (h *ReceiptHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing key parameter", http.StatusBadRequest)
		return
	}

	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	if !h.allowedTypes[contentType] {
		http.Error(w, "Invalid content type", http.StatusBadRequest)
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := h.files.SaveFile(key, body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = h.files.DeleteFile(r.Context(), key)
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		logger.Error("Failed to save receipt", "key", key, "error", err)
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	// Return success (mimic S3 response)
	w.Header().Set("ETag", `"mock-etag-success"`)
	w.WriteHeader(http.StatusOK)
}

// HandleDownload handles HTTP GET requests for receipt images
func (h *ReceiptHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing key parameter", http.StatusBadRequest)
		return
	}

	file, err := h.files.ReadFile(key)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	contentType := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(key)) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".pdf":
		contentType = "application/pdf"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, file); err != nil {
		logger.Warn("Receipt download interrupted", "key", key, "error", err)
	}
}
