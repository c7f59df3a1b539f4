package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loyalty-ledger-backend/internal/config"
	"loyalty-ledger-backend/internal/storage"
)

// Pinger reports whether the ledger store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterReceiptRoutes registers the mock storage HTTP endpoints
func RegisterReceiptRoutes(router *mux.Router, files storage.StorageInterface, cfg config.StorageConfig) {
	handler := NewReceiptHandler(files, cfg)
	router.HandleFunc("/api/v1/upload/{token}", handler.HandleUpload).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/download/{token}", handler.HandleDownload).Methods(http.MethodGet)
}

// RegisterHealthRoute serves /healthz, returning 503 when the store is down.
func RegisterHealthRoute(router *mux.Router, store Pinger) {
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
}

// RegisterMetricsRoute exposes the default Prometheus registry.
func RegisterMetricsRoute(router *mux.Router, path string) {
	router.Handle(path, promhttp.Handler()).Methods(http.MethodGet)
}

// NewRouter wires every HTTP route the server exposes.
func NewRouter(cfg *config.Config, files storage.StorageInterface, store Pinger) *mux.Router {
	router := mux.NewRouter()
	RegisterHealthRoute(router, store)
	if files != nil {
		RegisterReceiptRoutes(router, files, cfg.Storage)
	}
	if cfg.Metrics.Enabled {
		RegisterMetricsRoute(router, cfg.Metrics.Path)
	}
	return router
}
