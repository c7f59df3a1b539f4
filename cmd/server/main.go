package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	pb "loyalty-ledger-backend/api/v1"
	api "loyalty-ledger-backend/internal/api/grpc"
	"loyalty-ledger-backend/internal/api/grpc/interceptor"
	httpapi "loyalty-ledger-backend/internal/api/http"
	"loyalty-ledger-backend/internal/app"
	"loyalty-ledger-backend/internal/cache"
	"loyalty-ledger-backend/internal/config"
	"loyalty-ledger-backend/internal/jobs"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/metrics"
	"loyalty-ledger-backend/internal/scheduler"
	"loyalty-ledger-backend/internal/security"
	"loyalty-ledger-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	logger.Info("Starting loyalty ledger backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "grpc_address", cfg.GetServerAddress(), "http_address", cfg.GetHTTPAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open ledger store", "error", err)
		log.Fatalf("Failed to open ledger store: %v", err)
	}
	defer closeStore()

	rdb := cache.InitRedis(ctx, cfg)
	if rdb != nil {
		defer rdb.Close()
	}
	balances := cache.New(rdb, cfg.BalanceCacheTTL())

	files, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Error("Failed to initialize receipt storage", "error", err)
		log.Fatalf("Failed to initialize receipt storage: %v", err)
	}
	logger.Info("Receipt storage ready", "type", cfg.Storage.Type, "upload_dir", cfg.Storage.UploadDir)

	var m *metrics.LedgerMetrics
	if cfg.Metrics.Enabled {
		m = metrics.Ledger()
	}
	svcs := app.NewServices(cfg, store, balances, files, m)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	authInterceptor := interceptor.NewAuthInterceptor(tokenManager)

	// Set up gRPC server
	lis, err := net.Listen("tcp", cfg.GetServerAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetServerAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	s := grpc.NewServer(
		grpc.UnaryInterceptor(authInterceptor.Unary()),
	)
	pb.RegisterCheckoutServiceServer(s, api.NewCheckoutHandler(svcs.Checkout))
	pb.RegisterWalletServiceServer(s, api.NewWalletHandler(svcs.Ledger))
	pb.RegisterReferralServiceServer(s, api.NewReferralHandler(svcs.Referral))
	pb.RegisterRestaurantServiceServer(s, api.NewRestaurantHandler(svcs.Restaurant))
	pb.RegisterReceiptServiceServer(s, api.NewReceiptHandler(svcs.Receipt))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(s, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// HTTP side server for receipt storage, metrics and health
	httpSrv := &http.Server{
		Addr:              cfg.GetHTTPAddress(),
		Handler:           httpapi.NewRouter(cfg, files, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var cron *scheduler.Scheduler
	if cfg.Scheduler.Embedded {
		jobRunner := jobs.NewJobRunner(&jobs.Services{Expiry: svcs.Expiry, Ledger: svcs.Ledger}, cfg, m)
		cron, err = scheduler.NewScheduler(jobRunner)
		if err != nil {
			logger.Error("Failed to create scheduler", "error", err)
			log.Fatalf("Failed to create scheduler: %v", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gRPC server listening", "address", cfg.GetServerAddress())
		return s.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("HTTP server listening", "address", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cron != nil {
		cron.Start()
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		healthSrv.Shutdown()
		if cron != nil {
			cron.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown error", "error", err)
		}
		s.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped. Goodbye!")
}
