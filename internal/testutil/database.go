// Package testutil provides shared test helpers for packages that need a
// migrated plate catalog database.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/service"
	"github.com/Veraticus/flexoplate-iq/internal/storage"
	"github.com/Veraticus/flexoplate-iq/internal/testutil/plates"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
	Plates  plates.Fixture
}

// SetupTestDB creates a new in-memory test database seeded with the given
// plates. It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t, plates.Catalog()...)
func SetupTestDB(t *testing.T, seed ...model.Plate) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Plates: seed})
}

// MustGetPlate returns the stored plate with the given id or fails the test.
func (db *TestDB) MustGetPlate(id string) model.Plate {
	db.t.Helper()
	p, err := db.Storage.GetPlate(context.Background(), id)
	if err != nil {
		db.t.Fatalf("plate %q not found: %v", id, err)
	}
	return *p
}

// MustSaveOverride stores an override rule or fails the test.
func (db *TestDB) MustSaveOverride(rule model.OverrideRule) model.OverrideRule {
	db.t.Helper()
	if err := db.Storage.SaveOverrideRule(context.Background(), &rule); err != nil {
		db.t.Fatalf("failed to save override %s->%s: %v", rule.SourcePlateID, rule.TargetPlateID, err)
	}
	return rule
}

// WithTransaction executes the given function within a database transaction.
// The transaction is automatically rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}

// SeedEquipment stores plates.Equipment. It fits TestDBOptions.CustomSetup.
func SeedEquipment(ctx context.Context, store service.Storage) error {
	for _, e := range plates.Equipment() {
		if err := store.SaveEquipmentModel(ctx, &e); err != nil {
			return fmt.Errorf("failed to seed equipment %q: %w", e.ModelName, err)
		}
	}
	return nil
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Plates         []model.Plate
	Overrides      []model.OverrideRule
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for _, p := range opts.Plates {
		p := p
		if err := store.SavePlate(ctx, &p); err != nil {
			t.Fatalf("failed to seed plate %q: %v", p.ID, err)
		}
	}

	for _, r := range opts.Overrides {
		r := r
		if err := store.SaveOverrideRule(ctx, &r); err != nil {
			t.Fatalf("failed to seed override %s->%s: %v", r.SourcePlateID, r.TargetPlateID, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		Plates:  plates.Fixture(opts.Plates),
		t:       t,
	}
}
