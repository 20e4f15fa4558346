package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Veraticus/flexoplate-iq/internal/common"
	"github.com/Veraticus/flexoplate-iq/internal/model"
)

const profileColumns = `id, name, organization_id, weights, hardness_tolerance,
	thickness_tolerance_mm, is_default, created_at`

func scanProfile(row scanner) (model.WeightProfile, error) {
	var (
		p       model.WeightProfile
		org     sql.NullString
		weights string
	)
	if err := row.Scan(&p.ID, &p.Name, &org, &weights, &p.HardnessTolerance,
		&p.ThicknessToleranceMM, &p.IsDefault, &p.CreatedAt); err != nil {
		return model.WeightProfile{}, err
	}
	p.OrganizationID = stringPtr(org)
	if err := json.Unmarshal([]byte(weights), &p.Weights); err != nil {
		return model.WeightProfile{}, fmt.Errorf("failed to unmarshal weights for profile %s: %w", p.ID, err)
	}
	return p, nil
}

// SaveWeightProfile inserts or updates a profile. Saving a default profile
// clears the previous default in the same scope.
func (s *SQLiteStorage) SaveWeightProfile(ctx context.Context, profile *model.WeightProfile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateWeightProfile(profile); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.saveWeightProfileTx(ctx, tx, profile)
	})
}

func (s *SQLiteStorage) saveWeightProfileTx(ctx context.Context, q queryable, profile *model.WeightProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	weights, err := json.Marshal(profile.Weights)
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}

	if profile.IsDefault {
		if err := clearDefault(ctx, q, profile.OrganizationID); err != nil {
			return err
		}
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO weight_profiles (id, name, organization_id, weights, hardness_tolerance,
			thickness_tolerance_mm, is_default)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			organization_id = excluded.organization_id,
			weights = excluded.weights,
			hardness_tolerance = excluded.hardness_tolerance,
			thickness_tolerance_mm = excluded.thickness_tolerance_mm,
			is_default = excluded.is_default
	`, profile.ID, profile.Name, nullString(profile.OrganizationID), string(weights),
		profile.HardnessTolerance, profile.ThicknessToleranceMM, profile.IsDefault)
	if err != nil {
		return fmt.Errorf("failed to save weight profile: %w", err)
	}
	return nil
}

func clearDefault(ctx context.Context, q queryable, organizationID *string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE weight_profiles SET is_default = 0
		WHERE is_default = 1 AND COALESCE(organization_id, '') = ?`,
		scopeKey(organizationID))
	if err != nil {
		return fmt.Errorf("failed to clear default profile: %w", err)
	}
	return nil
}

func scopeKey(organizationID *string) string {
	if organizationID == nil {
		return ""
	}
	return *organizationID
}

// GetWeightProfile retrieves a profile by id.
func (s *SQLiteStorage) GetWeightProfile(ctx context.Context, id string) (*model.WeightProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getWeightProfileTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getWeightProfileTx(ctx context.Context, q queryable, id string) (*model.WeightProfile, error) {
	row := q.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM weight_profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("weight profile %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weight profile: %w", err)
	}
	return &p, nil
}

// GetDefaultWeightProfile returns the default profile for exactly the given
// scope. A nil organization means the global scope.
func (s *SQLiteStorage) GetDefaultWeightProfile(ctx context.Context, organizationID *string) (*model.WeightProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getDefaultWeightProfileTx(ctx, s.db, organizationID)
}

func (s *SQLiteStorage) getDefaultWeightProfileTx(ctx context.Context, q queryable, organizationID *string) (*model.WeightProfile, error) {
	row := q.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM weight_profiles
		WHERE is_default = 1 AND COALESCE(organization_id, '') = ?`, scopeKey(organizationID))
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("default weight profile for %q: %w", scopeKey(organizationID), common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default weight profile: %w", err)
	}
	return &p, nil
}

// GetWeightProfiles lists global profiles plus the organization's own.
func (s *SQLiteStorage) GetWeightProfiles(ctx context.Context, organizationID *string) ([]model.WeightProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getWeightProfilesTx(ctx, s.db, organizationID)
}

func (s *SQLiteStorage) getWeightProfilesTx(ctx context.Context, q queryable, organizationID *string) ([]model.WeightProfile, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+profileColumns+` FROM weight_profiles
		WHERE organization_id IS NULL OR organization_id = ?
		ORDER BY organization_id IS NOT NULL, name, id`, scopeKey(organizationID))
	if err != nil {
		return nil, fmt.Errorf("failed to query weight profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.WeightProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weight profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weight profiles: %w", err)
	}
	return profiles, nil
}

// SetDefaultWeightProfile makes the profile the default for its scope.
func (s *SQLiteStorage) SetDefaultWeightProfile(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.setDefaultWeightProfileTx(ctx, tx, id)
	})
}

func (s *SQLiteStorage) setDefaultWeightProfileTx(ctx context.Context, q queryable, id string) error {
	profile, err := s.getWeightProfileTx(ctx, q, id)
	if err != nil {
		return err
	}
	if err := clearDefault(ctx, q, profile.OrganizationID); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, `UPDATE weight_profiles SET is_default = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to set default profile: %w", err)
	}
	return nil
}
