package storeselect_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cartvault/internal/domain"
	"cartvault/internal/migrate"
	cartrepo "cartvault/internal/repository/cart"
	"cartvault/internal/repository/ledger"
	"cartvault/internal/service/migration"
	"cartvault/internal/storeselect"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(ctx context.Context) (string, error) {
	container, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", fmt.Errorf("container.ConnectionString: %w", err)
	}

	return connStr, nil
}

func migratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	connStr, err := startPostgres(ctx)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}

func seedLegacyCarts(t *testing.T, pool *pgxpool.Pool, n int) {
	t.Helper()
	ctx := context.Background()
	legacy := cartrepo.NewLegacy(pool)
	now := time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := domain.NewCart("store-main", nil, now.Add(time.Duration(i)*time.Second))
		c.Items = []domain.CartItem{
			domain.NewCartItem("sku-1", i+1, domain.MustMoney("9.99", "EUR")),
		}
		if err := legacy.Save(ctx, c); err != nil {
			t.Fatalf("seed legacy cart: %v", err)
		}
	}
}

func TestOpenMigratesLegacyData_Integration(t *testing.T) {
	ctx := context.Background()
	pool := migratedPool(t)
	seedLegacyCarts(t, pool, 3)

	led := ledger.NewPostgres(pool, "")
	opts := storeselect.Options{
		Preference:  storeselect.PreferenceDocument,
		Policy:      storeselect.PolicyAuto,
		MigrationID: "carts-2026",
		Pool:        pool,
		Ledger:      led,
		Strategy:    migration.StrategyAbort,
	}

	sel, err := storeselect.Open(ctx, opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if sel.Resolved != storeselect.PreferenceDocument {
		t.Fatalf("resolved %s, want document", sel.Resolved)
	}

	docs, err := cartrepo.NewPostgres(pool, nil).FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch migrated carts: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("document store holds %d carts, want 3", len(docs))
	}

	done, err := led.IsCompleted(ctx, "carts-2026")
	if err != nil {
		t.Fatalf("ledger check: %v", err)
	}
	if !done {
		t.Fatal("ledger unmarked after auto migration")
	}

	// A later launch must not copy again, even when legacy grows.
	seedLegacyCarts(t, pool, 4)
	if _, err := storeselect.Open(ctx, opts); err != nil {
		t.Fatalf("re-open: %v", err)
	}
	docs, err = cartrepo.NewPostgres(pool, nil).FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch after re-open: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("completed migration copied again: %d carts", len(docs))
	}
}

func TestOpenManualPolicyDefersMigration_Integration(t *testing.T) {
	ctx := context.Background()
	pool := migratedPool(t)
	seedLegacyCarts(t, pool, 2)

	sel, err := storeselect.Open(ctx, storeselect.Options{
		Preference:  storeselect.PreferenceDocument,
		Policy:      storeselect.PolicyManual,
		MigrationID: "carts-2026",
		Pool:        pool,
		Ledger:      ledger.NewPostgres(pool, ""),
		Strategy:    migration.StrategyAbort,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	docs, err := cartrepo.NewPostgres(pool, nil).FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("manual policy migrated at open: %d carts", len(docs))
	}

	if err := sel.EnsureMigrated(ctx); err != nil {
		t.Fatalf("ensure migrated: %v", err)
	}
	docs, err = cartrepo.NewPostgres(pool, nil).FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch after ensure: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("document store holds %d carts, want 2", len(docs))
	}
}

func TestOpenFailureStrategies_Integration(t *testing.T) {
	ctx := context.Background()
	pool := migratedPool(t)
	seedLegacyCarts(t, pool, 2)

	// Break the migration target while the source stays readable.
	if _, err := pool.Exec(ctx, "DROP TABLE carts"); err != nil {
		t.Fatalf("drop carts: %v", err)
	}

	led := ledger.NewPostgres(pool, "")
	opts := storeselect.Options{
		Preference:  storeselect.PreferenceDocument,
		Policy:      storeselect.PolicyAuto,
		MigrationID: "carts-2026",
		Pool:        pool,
		Ledger:      led,
		Strategy:    migration.StrategyAbort,
	}

	_, err := storeselect.Open(ctx, opts)
	if err == nil {
		t.Fatal("abort strategy succeeded against a broken target")
	}
	if !domain.IsStorageFailure(err) {
		t.Fatalf("abort error %v does not wrap the storage failure", err)
	}

	done, err := led.IsCompleted(ctx, "carts-2026")
	if err != nil {
		t.Fatalf("ledger check: %v", err)
	}
	if done {
		t.Fatal("ledger marked despite failed copy")
	}

	opts.Strategy = migration.StrategyDegrade
	sel, err := storeselect.Open(ctx, opts)
	if err != nil {
		t.Fatalf("degrade strategy failed construction: %v", err)
	}
	if sel == nil || sel.Store == nil {
		t.Fatal("degrade returned no usable selection")
	}

	done, err = led.IsCompleted(ctx, "carts-2026")
	if err != nil {
		t.Fatalf("ledger check: %v", err)
	}
	if done {
		t.Fatal("ledger marked under degrade despite failed copy")
	}
}
