package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"cartvault/internal/config"
	"cartvault/internal/db"
	"cartvault/internal/importer"
	ledgerrepo "cartvault/internal/repository/ledger"
	"cartvault/internal/storeselect"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to a JSON cart export")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	if cfg.DBConnString == "" {
		log.Fatalf("DB_DSN is required for imports")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	// Imports never trigger the legacy data migration; that stays with
	// cmd/migrate and the api startup policy.
	selection, err := storeselect.Open(ctx, storeselect.Options{
		Preference: storeselect.Preference(cfg.StoragePreference),
		Policy:     storeselect.PolicyDisabled,
		Pool:       pool,
		Ledger:     ledgerrepo.NewPostgres(pool, cfg.LedgerNamespace),
	})
	if err != nil {
		log.Fatalf("open cart storage: %v", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.New(f, selection.Store)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		log.Fatalf("import failed after %d carts: %v", count, err)
	}

	fmt.Printf("Imported %d carts into the %s backend in %s\n", count, selection.Resolved, time.Since(start).Truncate(time.Millisecond))
}
