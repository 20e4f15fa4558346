package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Plate catalog",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS suppliers (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL UNIQUE COLLATE NOCASE,
					website_url TEXT,
					country TEXT,
					notes TEXT,
					is_plate_supplier INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS plate_families (
					id TEXT PRIMARY KEY,
					supplier_id TEXT NOT NULL REFERENCES suppliers(id) ON DELETE CASCADE,
					family_name TEXT NOT NULL,
					process_type TEXT,
					technology_tags TEXT,
					description TEXT,
					UNIQUE(supplier_id, family_name)
				)`,

				`CREATE TABLE IF NOT EXISTS plates (
					id TEXT PRIMARY KEY,
					plate_family_id TEXT NOT NULL REFERENCES plate_families(id) ON DELETE CASCADE,
					sku_code TEXT,
					display_name TEXT,
					process_type TEXT,
					thickness_mm REAL NOT NULL CHECK (thickness_mm > 0),
					hardness_shore REAL CHECK (hardness_shore IS NULL OR hardness_shore BETWEEN 0 AND 100),
					imaging_type TEXT,
					surface_type TEXT,
					min_lpi INTEGER,
					max_lpi INTEGER,
					ink_compatibility TEXT,
					substrate_categories TEXT,
					applications TEXT,
					main_exposure_energy_min_mj_cm2 REAL,
					main_exposure_energy_max_mj_cm2 REAL,
					back_exposure_energy_min_mj_cm2 REAL,
					back_exposure_energy_max_mj_cm2 REAL,
					post_exposure_energy_mj_cm2 REAL,
					detack_energy_mj_cm2 REAL,
					relief_recommended_mm REAL,
					notes TEXT,
					organization_id TEXT,
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_plates_family ON plates(plate_family_id)`,
				`CREATE INDEX idx_plates_thickness ON plates(thickness_mm)`,
				`CREATE INDEX idx_plates_organization ON plates(organization_id)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Weight profiles with standard default",
		Up: func(tx *sql.Tx) error {
			if err := execAll(tx,
				`CREATE TABLE IF NOT EXISTS weight_profiles (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					organization_id TEXT,
					weights TEXT NOT NULL,
					hardness_tolerance REAL NOT NULL CHECK (hardness_tolerance > 0),
					thickness_tolerance_mm REAL NOT NULL CHECK (thickness_tolerance_mm > 0),
					is_default INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				// One default per scope; NULL organization is the global scope.
				`CREATE UNIQUE INDEX idx_weight_profiles_default
					ON weight_profiles(COALESCE(organization_id, ''))
					WHERE is_default = 1`,
			); err != nil {
				return err
			}

			standard := model.DefaultWeightProfile()
			weights, err := json.Marshal(standard.Weights)
			if err != nil {
				return fmt.Errorf("failed to marshal default weights: %w", err)
			}
			_, err = tx.Exec(`
				INSERT INTO weight_profiles (id, name, weights, hardness_tolerance, thickness_tolerance_mm, is_default)
				VALUES (?, ?, ?, ?, ?, 1)`,
				uuid.NewString(), standard.Name, string(weights),
				standard.HardnessTolerance, standard.ThicknessToleranceMM)
			if err != nil {
				return fmt.Errorf("failed to seed default profile: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Override rules",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS override_rules (
					id TEXT PRIMARY KEY,
					source_plate_id TEXT NOT NULL REFERENCES plates(id) ON DELETE CASCADE,
					target_plate_id TEXT NOT NULL REFERENCES plates(id) ON DELETE CASCADE,
					similarity_score INTEGER NOT NULL CHECK (similarity_score BETWEEN 0 AND 100),
					confidence_level TEXT,
					adjustment_notes TEXT,
					created_by TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(source_plate_id, target_plate_id),
					CHECK (source_plate_id <> target_plate_id)
				)`,
				`CREATE INDEX idx_override_rules_source ON override_rules(source_plate_id)`,
			)
		},
	},
	{
		Version:     4,
		Description: "Equipment models",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS equipment_models (
					id TEXT PRIMARY KEY,
					supplier_id TEXT NOT NULL REFERENCES suppliers(id) ON DELETE CASCADE,
					model_name TEXT NOT NULL,
					equipment_type TEXT NOT NULL,
					technology TEXT,
					uv_source_type TEXT,
					nominal_intensity_mw_cm2 REAL CHECK (nominal_intensity_mw_cm2 IS NULL OR nominal_intensity_mw_cm2 > 0),
					has_integrated_back_exposure INTEGER NOT NULL DEFAULT 0,
					supports_digital_plates INTEGER NOT NULL DEFAULT 1,
					supports_analog_plates INTEGER NOT NULL DEFAULT 1,
					data_source_url TEXT,
					notes TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(supplier_id, model_name)
				)`,
				`CREATE INDEX idx_equipment_models_type ON equipment_models(equipment_type)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the applied schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
