package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Veraticus/flexoplate-iq/internal/common"
	"github.com/Veraticus/flexoplate-iq/internal/model"
)

const overrideColumns = `id, source_plate_id, target_plate_id, similarity_score,
	COALESCE(confidence_level, ''), COALESCE(adjustment_notes, ''), COALESCE(created_by, ''),
	created_at, updated_at`

func scanOverride(row scanner) (model.OverrideRule, error) {
	var (
		r          model.OverrideRule
		confidence string
	)
	if err := row.Scan(&r.ID, &r.SourcePlateID, &r.TargetPlateID, &r.SimilarityScore,
		&confidence, &r.AdjustmentNotes, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return model.OverrideRule{}, err
	}
	r.ConfidenceLevel = model.ConfidenceLevel(confidence)
	return r, nil
}

// SaveOverrideRule creates the rule for its plate pair or replaces the
// existing one. The stored id is written back to rule.
func (s *SQLiteStorage) SaveOverrideRule(ctx context.Context, rule *model.OverrideRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOverrideRule(rule); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.saveOverrideRuleTx(ctx, tx, rule)
	})
}

func (s *SQLiteStorage) saveOverrideRuleTx(ctx context.Context, q queryable, rule *model.OverrideRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	confidence := string(rule.ConfidenceLevel)

	_, err := q.ExecContext(ctx, `
		INSERT INTO override_rules (id, source_plate_id, target_plate_id, similarity_score,
			confidence_level, adjustment_notes, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_plate_id, target_plate_id) DO UPDATE SET
			similarity_score = excluded.similarity_score,
			confidence_level = excluded.confidence_level,
			adjustment_notes = excluded.adjustment_notes,
			created_by = COALESCE(excluded.created_by, created_by),
			updated_at = CURRENT_TIMESTAMP
	`, rule.ID, rule.SourcePlateID, rule.TargetPlateID, rule.SimilarityScore,
		nullString(&confidence), nullString(&rule.AdjustmentNotes), nullString(&rule.CreatedBy))
	if err != nil {
		return fmt.Errorf("failed to save override rule: %w", err)
	}

	row := q.QueryRowContext(ctx, `SELECT `+overrideColumns+` FROM override_rules
		WHERE source_plate_id = ? AND target_plate_id = ?`, rule.SourcePlateID, rule.TargetPlateID)
	stored, err := scanOverride(row)
	if err != nil {
		return fmt.Errorf("failed to read back override rule: %w", err)
	}
	*rule = stored
	return nil
}

// GetOverrideRule retrieves a rule by id.
func (s *SQLiteStorage) GetOverrideRule(ctx context.Context, id string) (*model.OverrideRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getOverrideRuleTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getOverrideRuleTx(ctx context.Context, q queryable, id string) (*model.OverrideRule, error) {
	row := q.QueryRowContext(ctx, `SELECT `+overrideColumns+` FROM override_rules WHERE id = ?`, id)
	r, err := scanOverride(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("override rule %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get override rule: %w", err)
	}
	return &r, nil
}

// GetOverrideRulesForSource returns the rules whose source is the given plate.
func (s *SQLiteStorage) GetOverrideRulesForSource(ctx context.Context, sourcePlateID string) ([]model.OverrideRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sourcePlateID, "sourcePlateID"); err != nil {
		return nil, err
	}
	return s.getOverrideRulesTx(ctx, s.db, sourcePlateID)
}

// GetOverrideRules returns every rule.
func (s *SQLiteStorage) GetOverrideRules(ctx context.Context) ([]model.OverrideRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getOverrideRulesTx(ctx, s.db, "")
}

func (s *SQLiteStorage) getOverrideRulesTx(ctx context.Context, q queryable, sourcePlateID string) ([]model.OverrideRule, error) {
	query := `SELECT ` + overrideColumns + ` FROM override_rules`
	var args []any
	if sourcePlateID != "" {
		query += ` WHERE source_plate_id = ?`
		args = append(args, sourcePlateID)
	}
	query += ` ORDER BY source_plate_id, target_plate_id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query override rules: %w", err)
	}
	defer rows.Close()

	var rules []model.OverrideRule
	for rows.Next() {
		r, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan override rule: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating override rules: %w", err)
	}
	return rules, nil
}

// DeleteOverrideRule removes a rule by id.
func (s *SQLiteStorage) DeleteOverrideRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.deleteOverrideRuleTx(ctx, s.db, id)
}

func (s *SQLiteStorage) deleteOverrideRuleTx(ctx context.Context, q queryable, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM override_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete override rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("override rule %s: %w", id, common.ErrNotFound)
	}
	return nil
}
