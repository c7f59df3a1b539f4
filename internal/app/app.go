// Package app assembles the store and services shared by the server and
// cronjob binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"loyalty-ledger-backend/internal/cache"
	"loyalty-ledger-backend/internal/config"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/metrics"
	"loyalty-ledger-backend/internal/repository"
	"loyalty-ledger-backend/internal/repository/memory"
	"loyalty-ledger-backend/internal/repository/postgres"
	"loyalty-ledger-backend/internal/service"
	"loyalty-ledger-backend/internal/storage"
)

// OpenStore connects the ledger store selected by database.driver and
// applies the schema. The returned func releases the connection pool.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, func() error, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory ledger store; data is lost on exit")
		return memory.NewStore(cfg.LockTimeout()), func() error { return nil }, nil
	}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db, cfg.LockTimeout())
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return store, db.Close, nil
}

// Services bundles the ledger services of one process.
type Services struct {
	Checkout   service.CheckoutService
	Ledger     service.LedgerService
	Referral   service.ReferralService
	Expiry     service.ExpiryService
	Restaurant service.RestaurantService
	Receipt    service.ReceiptService
}

// NewServices builds every service over the same store and balance cache.
// files may be nil, in which case receipt references are not checked.
func NewServices(cfg *config.Config, store repository.Store, balances cache.BalanceCache, files storage.StorageInterface, m *metrics.LedgerMetrics) *Services {
	opts := []service.Option{
		service.WithMetrics(m),
		service.WithMaxPageSize(cfg.Ledger.MaxPageSize),
		service.WithBatchSize(cfg.Ledger.ExpiryBatchSize),
	}

	var receipts service.ReceiptService
	if files != nil {
		receipts = service.NewReceiptService(files, cfg.Storage, opts...)
	}

	return &Services{
		Checkout:   service.NewCheckoutService(store, balances, receipts, opts...),
		Ledger:     service.NewLedgerService(store, balances, opts...),
		Referral:   service.NewReferralService(store, opts...),
		Expiry:     service.NewExpiryService(store, balances, opts...),
		Restaurant: service.NewRestaurantService(store, opts...),
		Receipt:    receipts,
	}
}
