// Package app initializes and runs the main application service.
// It configures logging, storage, authentication, caching, and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/miniblog/internal/auth"
	"github.com/patric-chuzhbe/miniblog/internal/config"
	"github.com/patric-chuzhbe/miniblog/internal/db/jsondb"
	"github.com/patric-chuzhbe/miniblog/internal/db/memorystorage"
	"github.com/patric-chuzhbe/miniblog/internal/db/postgresdb"
	"github.com/patric-chuzhbe/miniblog/internal/db/storage"
	"github.com/patric-chuzhbe/miniblog/internal/grpcserver"
	"github.com/patric-chuzhbe/miniblog/internal/ipchecker"
	"github.com/patric-chuzhbe/miniblog/internal/logger"
	"github.com/patric-chuzhbe/miniblog/internal/postscache"
	"github.com/patric-chuzhbe/miniblog/internal/router"
	"github.com/patric-chuzhbe/miniblog/internal/service"
)

const (
	storageTypeUnknown = iota
	storageTypePostgresql
	storageTypeFile
	storageTypeMemory
)

// App encapsulates the configuration, HTTP handler, storage backend,
// and background services (such as the posts cache janitor) needed to run
// the blog service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	stopJanitor context.CancelFunc
	httpHandler http.Handler
	grpcServer  *grpc.Server
	grpcLis     net.Listener
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - setting up the posts cache and its background janitor
// - setting up the router and middleware
// - optionally setting up the gRPC health server
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	JWTSigningSecretKey, err := base64.URLEncoding.DecodeString(app.cfg.JWTSigningSecretKey)
	if err != nil {
		return nil, err
	}

	postsCache := postscache.New(app.cfg.PostsCacheTTL)
	janitorRunCtx, stopJanitor := context.WithCancel(context.Background())
	app.stopJanitor = stopJanitor
	postsCache.Run(janitorRunCtx, app.cfg.PostsCacheCleanupInterval)

	ipChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	svc := service.New(app.db, postsCache)
	authn := auth.New(app.db, JWTSigningSecretKey, app.cfg.TokenTTL)

	app.httpHandler = router.New(svc, authn, authn, ipChecker)

	if app.cfg.GRPCRunAddr != "" {
		app.grpcServer, app.grpcLis, err = grpcserver.New(
			context.Background(),
			app.cfg.GRPCRunAddr,
			app.db,
		)
		if err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Run starts the HTTP server (and the gRPC health server when configured)
// with graceful shutdown support. It listens for system signals and cleans
// up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	if a.grpcServer != nil {
		logger.Log.Infoln("gRPC health server running", "GRPCRunAddr", a.cfg.GRPCRunAddr)
		go func() {
			if err := a.grpcServer.Serve(a.grpcLis); err != nil {
				logger.Log.Errorln("gRPC server error", zap.Error(err))
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Saving database and exiting...")
		a.stopJanitor()
		if a.grpcServer != nil {
			a.grpcServer.GracefulStop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return storageTypePostgresql
	}

	if cfg.FileStoragePath != "" {
		return storageTypeFile
	}

	return storageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case storageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case storageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case storageTypeFile:
		return jsondb.New(cfg.FileStoragePath)
	}

	return memorystorage.New()
}
