package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-ledger-backend/internal/config"
	"loyalty-ledger-backend/internal/storage"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, pingErr error) (http.Handler, *storage.MockStorageService) {
	t.Helper()
	files, err := storage.NewMockStorageService("http://localhost:8081", t.TempDir())
	require.NoError(t, err)
	cfg := &config.Config{
		Storage: config.StorageConfig{
			MaxFileSize:  1,
			AllowedTypes: []string{"image/jpeg", "image/png"},
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	return NewRouter(cfg, files, fakePinger{err: pingErr}), files
}

func do(h http.Handler, method, target, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestReceiptUploadAndDownload(t *testing.T) {
	h, files := newTestRouter(t, nil)
	key := "restaurants/1/receipts/abc.jpg"

	rec := do(h, http.MethodPut, "/api/v1/upload/tok?key="+key, "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	exists, size, err := files.FileExists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(10), size)

	rec = do(h, http.MethodGet, "/api/v1/download/tok?key="+key, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "jpeg-bytes", rec.Body.String())
}

func TestReceiptUploadRejects(t *testing.T) {
	h, files := newTestRouter(t, nil)

	tests := []struct {
		name        string
		target      string
		contentType string
		body        io.Reader
		code        int
	}{
		{"missing key", "/api/v1/upload/tok", "image/jpeg", strings.NewReader("x"), http.StatusBadRequest},
		{"disallowed type", "/api/v1/upload/tok?key=r/a.gif", "image/gif", strings.NewReader("x"), http.StatusBadRequest},
		{"too large", "/api/v1/upload/tok?key=r/big.png", "image/png", bytes.NewReader(make([]byte, 2<<20)), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPut, tt.target, tt.contentType, tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	exists, _, err := files.FileExists(context.Background(), "r/big.png")
	require.NoError(t, err)
	assert.False(t, exists)

	rec := do(h, http.MethodGet, "/api/v1/download/tok?key=r/missing.png", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/api/v1/upload/tok?key=r/a.png", "image/png", strings.NewReader("x"))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rec := do(h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	h, _ = newTestRouter(t, errors.New("connection refused"))
	rec = do(h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsRoute(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rec := do(h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
