package storeselect_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cartvault/internal/domain"
	"cartvault/internal/storeselect"
)

func TestOpenDefaultsToMemory(t *testing.T) {
	ctx := context.Background()

	sel, err := storeselect.Open(ctx, storeselect.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if sel.Resolved != storeselect.PreferenceMemory {
		t.Fatalf("resolved %s, want memory", sel.Resolved)
	}

	// Without a database there is nothing to migrate.
	if err := sel.EnsureMigrated(ctx); err != nil {
		t.Fatalf("ensure migrated: %v", err)
	}

	c := domain.NewCart("store-main", nil, time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC))
	if err := sel.Store.Save(ctx, c); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := sel.Store.Load(ctx, c.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.ID != c.ID {
		t.Fatalf("loaded %+v", got)
	}
}

func TestOpenExplicitMemoryIgnoresMigration(t *testing.T) {
	ctx := context.Background()

	sel, err := storeselect.Open(ctx, storeselect.Options{
		Preference:  storeselect.PreferenceMemory,
		Policy:      storeselect.PolicyAuto,
		MigrationID: "carts-2026",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := sel.EnsureMigrated(ctx); err != nil {
		t.Fatalf("ensure migrated: %v", err)
	}
	if err := sel.ResetMigration(ctx); err != nil {
		t.Fatalf("reset migration: %v", err)
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	ctx := context.Background()

	isValidation := func(err error) bool {
		var v *domain.ValidationError
		return errors.As(err, &v)
	}

	if _, err := storeselect.Open(ctx, storeselect.Options{Preference: "punchcards"}); !isValidation(err) {
		t.Fatalf("bad preference: got %v", err)
	}
	if _, err := storeselect.Open(ctx, storeselect.Options{Policy: "sometimes"}); !isValidation(err) {
		t.Fatalf("bad policy: got %v", err)
	}
	if _, err := storeselect.Open(ctx, storeselect.Options{Strategy: "hope"}); !isValidation(err) {
		t.Fatalf("bad strategy: got %v", err)
	}

	_, err := storeselect.Open(ctx, storeselect.Options{Preference: storeselect.PreferenceDocument})
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("document without database: got %v", err)
	}
	_, err = storeselect.Open(ctx, storeselect.Options{Preference: storeselect.PreferenceLegacy})
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("legacy without database: got %v", err)
	}
}
