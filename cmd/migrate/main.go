package main

import (
	"context"
	"flag"
	"log"
	"os"

	"cartvault/internal/config"
	"cartvault/internal/db"
	"cartvault/internal/domain"
	"cartvault/internal/migrate"
	ledgerrepo "cartvault/internal/repository/ledger"
	"cartvault/internal/service/migration"
	"cartvault/internal/storeselect"
)

func main() {
	var (
		cartData bool
		reset    bool
	)
	flag.BoolVar(&cartData, "cart-data", false, "also copy legacy carts into the selected backend")
	flag.BoolVar(&reset, "reset", false, "clear the cart migration completion mark first (implies -cart-data)")
	flag.Parse()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}
	logger.Println("migrations applied")

	if !cartData && !reset {
		return
	}

	selection, err := storeselect.Open(ctx, storeselect.Options{
		Preference:  storeselect.Preference(cfg.StoragePreference),
		Policy:      storeselect.PolicyManual,
		MigrationID: domain.MigrationID(cfg.MigrationID),
		Pool:        pool,
		Ledger:      ledgerrepo.NewPostgres(pool, cfg.LedgerNamespace),
		Strategy:    migration.Strategy(cfg.MigrationStrategy),
		Logger:      logger,
	})
	if err != nil {
		logger.Fatalf("open cart storage: %v", err)
	}

	if reset {
		if err := selection.ResetMigration(ctx); err != nil {
			logger.Fatalf("reset cart migration: %v", err)
		}
		logger.Println("cart migration mark cleared")
	}

	if err := selection.EnsureMigrated(ctx); err != nil {
		logger.Fatalf("cart data migration: %v", err)
	}
	logger.Println("cart data migrated")
}
