package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// TestMigration2_SeedsStandardProfile checks the global default profile.
func TestMigration2_SeedsStandardProfile(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	profile, err := store.GetDefaultWeightProfile(ctx, nil)
	if err != nil {
		t.Fatalf("GetDefaultWeightProfile() error = %v", err)
	}

	want := model.DefaultWeightProfile()
	if profile.Name != want.Name {
		t.Errorf("Name = %q, want %q", profile.Name, want.Name)
	}
	if profile.OrganizationID != nil {
		t.Errorf("OrganizationID = %q, want nil", *profile.OrganizationID)
	}
	for _, attr := range model.Attributes {
		if profile.Weight(attr) != want.Weight(attr) {
			t.Errorf("weight[%s] = %v, want %v", attr, profile.Weight(attr), want.Weight(attr))
		}
	}
	if profile.HardnessTolerance != 2.0 || profile.ThicknessToleranceMM != 0.05 {
		t.Errorf("tolerances = %v/%v, want 2.0/0.05", profile.HardnessTolerance, profile.ThicknessToleranceMM)
	}
}

func TestMigrations_SchemaVersion(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	version, err := store.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("SchemaVersion() = %d, want %d", version, ExpectedSchemaVersion)
	}

	// Verify the tables and indexes exist
	for _, name := range []string{"suppliers", "plate_families", "plates", "weight_profiles", "override_rules",
		"equipment_models", "idx_weight_profiles_default", "idx_override_rules_source", "idx_equipment_models_type"} {
		var count int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = ?`, name).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check %s: %v", name, err)
		}
		if count != 1 {
			t.Errorf("%s was not created", name)
		}
	}
}

// TestMigration3_Constraints checks the constraints the schema enforces
// beneath the Go validation.
func TestMigration3_Constraints(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	seedCatalog(t, store)

	tests := []struct {
		name  string
		query string
		args  []any
	}{
		{
			name:  "self paired override",
			query: `INSERT INTO override_rules (id, source_plate_id, target_plate_id, similarity_score) VALUES ('r1', ?, ?, 80)`,
			args:  []any{"ftf-114", "ftf-114"},
		},
		{
			name:  "override score above range",
			query: `INSERT INTO override_rules (id, source_plate_id, target_plate_id, similarity_score) VALUES ('r1', ?, ?, 101)`,
			args:  []any{"ftf-114", "dsp-114"},
		},
		{
			name:  "override for unknown plate",
			query: `INSERT INTO override_rules (id, source_plate_id, target_plate_id, similarity_score) VALUES ('r1', ?, ?, 80)`,
			args:  []any{"ftf-114", "missing"},
		},
		{
			name:  "second global default profile",
			query: `INSERT INTO weight_profiles (id, name, weights, hardness_tolerance, thickness_tolerance_mm, is_default) VALUES ('p2', 'Other', '{}', 1, 1, 1)`,
		},
		{
			name:  "non positive thickness",
			query: `UPDATE plates SET thickness_mm = 0 WHERE id = ?`,
			args:  []any{"ftf-114"},
		},
		{
			name:  "hardness out of range",
			query: `UPDATE plates SET hardness_shore = 120 WHERE id = ?`,
			args:  []any{"ftf-114"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.db.Exec(tt.query, tt.args...); err == nil {
				t.Errorf("expected constraint violation for %s", tt.name)
			}
		})
	}
}

// TestMigration3_OverrideCascade checks that deleting a plate removes its
// override rules.
func TestMigration3_OverrideCascade(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	seedCatalog(t, store)

	rule := &model.OverrideRule{SourcePlateID: "ftf-114", TargetPlateID: "dsp-114", SimilarityScore: 90}
	if err := store.SaveOverrideRule(ctx, rule); err != nil {
		t.Fatalf("SaveOverrideRule() error = %v", err)
	}

	if _, err := store.db.Exec(`DELETE FROM plates WHERE id = ?`, "dsp-114"); err != nil {
		t.Fatalf("Failed to delete plate: %v", err)
	}

	rules, err := store.GetOverrideRules(ctx)
	if err != nil {
		t.Fatalf("GetOverrideRules() error = %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("expected cascade to remove rule, got %d rules", len(rules))
	}
}
