package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"cartvault/internal/config"
	"cartvault/internal/db"
	"cartvault/internal/domain"
	"cartvault/internal/httpserver"
	ledgerrepo "cartvault/internal/repository/ledger"
	cartsvc "cartvault/internal/service/cart"
	checkoutsvc "cartvault/internal/service/checkout"
	"cartvault/internal/service/migration"
	"cartvault/internal/storeselect"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()

	var (
		pool *pgxpool.Pool
		ldg  ledgerrepo.Ledger
	)
	if cfg.DBConnString != "" {
		var err error
		pool, err = db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer pool.Close()
		ldg = ledgerrepo.NewPostgres(pool, cfg.LedgerNamespace)
	} else {
		ldg = ledgerrepo.NewMemory(cfg.LedgerNamespace)
	}

	selection, err := storeselect.Open(ctx, storeselect.Options{
		Preference:  storeselect.Preference(cfg.StoragePreference),
		Policy:      storeselect.Policy(cfg.MigrationPolicy),
		MigrationID: domain.MigrationID(cfg.MigrationID),
		Pool:        pool,
		Ledger:      ldg,
		Strategy:    migration.Strategy(cfg.MigrationStrategy),
		Logger:      logger,
	})
	if err != nil {
		logger.Fatalf("open cart storage: %v", err)
	}
	logger.Printf("cart storage backend: %s", selection.Resolved)

	deps := httpserver.Deps{
		Carts:    cartsvc.New(selection.Store, logger),
		Checkout: checkoutsvc.New(selection.Store, logger),
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, pool, deps, cfg.CORSAllowedOrigins)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
