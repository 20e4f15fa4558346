package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/flexoplate-iq/internal/common"
	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/service"
)

const plateColumns = `
	p.id, p.plate_family_id, COALESCE(p.sku_code, ''), COALESCE(p.display_name, ''),
	COALESCE(p.process_type, f.process_type, ''), p.thickness_mm, p.hardness_shore,
	COALESCE(p.imaging_type, ''), p.surface_type, p.min_lpi, p.max_lpi,
	p.ink_compatibility, p.substrate_categories, p.applications,
	p.main_exposure_energy_min_mj_cm2, p.main_exposure_energy_max_mj_cm2,
	p.back_exposure_energy_min_mj_cm2, p.back_exposure_energy_max_mj_cm2,
	p.post_exposure_energy_mj_cm2, p.detack_energy_mj_cm2, p.relief_recommended_mm,
	COALESCE(p.notes, ''), p.organization_id, p.is_active, p.created_at, p.updated_at,
	f.family_name, s.name`

const plateJoins = `
	FROM plates p
	JOIN plate_families f ON p.plate_family_id = f.id
	JOIN suppliers s ON f.supplier_id = s.id`

// maxPlateListLimit caps catalog listings.
const maxPlateListLimit = 200

type scanner interface {
	Scan(dest ...any) error
}

func scanPlate(row scanner) (model.Plate, error) {
	var (
		p                    model.Plate
		process              string
		surface, org         sql.NullString
		inks, subs, apps     sql.NullString
		hardness             sql.NullFloat64
		mainMin, mainMax     sql.NullFloat64
		backMin, backMax     sql.NullFloat64
		post, detack, relief sql.NullFloat64
		minLPI, maxLPI       sql.NullInt64
	)
	err := row.Scan(
		&p.ID, &p.FamilyID, &p.SKU, &p.DisplayName,
		&process, &p.ThicknessMM, &hardness,
		&p.ImagingType, &surface, &minLPI, &maxLPI,
		&inks, &subs, &apps,
		&mainMin, &mainMax,
		&backMin, &backMax,
		&post, &detack, &relief,
		&p.Notes, &org, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		&p.FamilyName, &p.SupplierName,
	)
	if err != nil {
		return model.Plate{}, err
	}

	p.ProcessType = model.ProcessType(process)
	p.HardnessShore = floatPtr(hardness)
	p.SurfaceType = stringPtr(surface)
	p.OrganizationID = stringPtr(org)
	if minLPI.Valid && maxLPI.Valid {
		p.LPI = &model.LPIRange{Min: int(minLPI.Int64), Max: int(maxLPI.Int64)}
	}
	if p.InkCompatibility, err = decodeTags(inks); err != nil {
		return model.Plate{}, err
	}
	if p.Substrates, err = decodeTags(subs); err != nil {
		return model.Plate{}, err
	}
	if p.Applications, err = decodeTags(apps); err != nil {
		return model.Plate{}, err
	}
	p.Exposure = model.ExposureEnergies{
		MainMin:             floatPtr(mainMin),
		MainMax:             floatPtr(mainMax),
		BackMin:             floatPtr(backMin),
		BackMax:             floatPtr(backMax),
		Post:                floatPtr(post),
		Detack:              floatPtr(detack),
		ReliefRecommendedMM: floatPtr(relief),
	}
	return p, nil
}

// SavePlate inserts or updates a plate. The family and supplier are created
// from the plate's names when FamilyID is empty.
func (s *SQLiteStorage) SavePlate(ctx context.Context, plate *model.Plate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePlate(plate); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.savePlateTx(ctx, tx, plate)
	})
}

func (s *SQLiteStorage) savePlateTx(ctx context.Context, q queryable, plate *model.Plate) error {
	if plate.FamilyID == "" {
		family := &model.PlateFamily{
			SupplierName: plate.SupplierName,
			Name:         plate.FamilyName,
			ProcessType:  plate.ProcessType,
		}
		if err := s.savePlateFamilyTx(ctx, q, family); err != nil {
			return err
		}
		plate.FamilyID = family.ID
	}
	if plate.ID == "" {
		plate.ID = uuid.NewString()
	}

	inks, err := encodeTags(plate.InkCompatibility)
	if err != nil {
		return err
	}
	subs, err := encodeTags(plate.Substrates)
	if err != nil {
		return err
	}
	apps, err := encodeTags(plate.Applications)
	if err != nil {
		return err
	}

	var minLPI, maxLPI sql.NullInt64
	if plate.LPI != nil {
		minLPI = sql.NullInt64{Int64: int64(plate.LPI.Min), Valid: true}
		maxLPI = sql.NullInt64{Int64: int64(plate.LPI.Max), Valid: true}
	}
	process := string(plate.ProcessType)
	e := plate.Exposure

	_, err = q.ExecContext(ctx, `
		INSERT INTO plates (
			id, plate_family_id, sku_code, display_name, process_type, thickness_mm, hardness_shore,
			imaging_type, surface_type, min_lpi, max_lpi, ink_compatibility, substrate_categories,
			applications, main_exposure_energy_min_mj_cm2, main_exposure_energy_max_mj_cm2,
			back_exposure_energy_min_mj_cm2, back_exposure_energy_max_mj_cm2,
			post_exposure_energy_mj_cm2, detack_energy_mj_cm2, relief_recommended_mm,
			notes, organization_id, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			plate_family_id = excluded.plate_family_id,
			sku_code = excluded.sku_code,
			display_name = excluded.display_name,
			process_type = excluded.process_type,
			thickness_mm = excluded.thickness_mm,
			hardness_shore = excluded.hardness_shore,
			imaging_type = excluded.imaging_type,
			surface_type = excluded.surface_type,
			min_lpi = excluded.min_lpi,
			max_lpi = excluded.max_lpi,
			ink_compatibility = excluded.ink_compatibility,
			substrate_categories = excluded.substrate_categories,
			applications = excluded.applications,
			main_exposure_energy_min_mj_cm2 = excluded.main_exposure_energy_min_mj_cm2,
			main_exposure_energy_max_mj_cm2 = excluded.main_exposure_energy_max_mj_cm2,
			back_exposure_energy_min_mj_cm2 = excluded.back_exposure_energy_min_mj_cm2,
			back_exposure_energy_max_mj_cm2 = excluded.back_exposure_energy_max_mj_cm2,
			post_exposure_energy_mj_cm2 = excluded.post_exposure_energy_mj_cm2,
			detack_energy_mj_cm2 = excluded.detack_energy_mj_cm2,
			relief_recommended_mm = excluded.relief_recommended_mm,
			notes = excluded.notes,
			organization_id = excluded.organization_id,
			is_active = excluded.is_active,
			updated_at = CURRENT_TIMESTAMP
	`,
		plate.ID, plate.FamilyID, nullString(&plate.SKU), nullString(&plate.DisplayName),
		nullString(&process), plate.ThicknessMM, nullFloat(plate.HardnessShore),
		nullString(&plate.ImagingType), nullString(plate.SurfaceType), minLPI, maxLPI,
		inks, subs, apps,
		nullFloat(e.MainMin), nullFloat(e.MainMax),
		nullFloat(e.BackMin), nullFloat(e.BackMax),
		nullFloat(e.Post), nullFloat(e.Detack), nullFloat(e.ReliefRecommendedMM),
		nullString(&plate.Notes), nullString(plate.OrganizationID), plate.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to save plate: %w", err)
	}
	return nil
}

// GetPlate retrieves one plate by id.
func (s *SQLiteStorage) GetPlate(ctx context.Context, id string) (*model.Plate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getPlateTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getPlateTx(ctx context.Context, q queryable, id string) (*model.Plate, error) {
	row := q.QueryRowContext(ctx, `SELECT `+plateColumns+plateJoins+` WHERE p.id = ?`, id)
	plate, err := scanPlate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plate %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plate: %w", err)
	}
	return &plate, nil
}

// GetPlates lists catalog plates matching the filter.
func (s *SQLiteStorage) GetPlates(ctx context.Context, filter service.PlateFilter) ([]model.Plate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getPlatesTx(ctx, s.db, filter)
}

// GetCandidatePlates returns every active plate the organization can see.
func (s *SQLiteStorage) GetCandidatePlates(ctx context.Context, organizationID *string) ([]model.Plate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getPlatesTx(ctx, s.db, service.PlateFilter{OrganizationID: organizationID})
}

func (s *SQLiteStorage) getPlatesTx(ctx context.Context, q queryable, filter service.PlateFilter) ([]model.Plate, error) {
	var (
		where []string
		args  []any
	)

	if !filter.IncludeInactive {
		where = append(where, "p.is_active = 1")
	}
	if filter.OrganizationID != nil && *filter.OrganizationID != "" {
		where = append(where, "(p.organization_id IS NULL OR p.organization_id = ?)")
		args = append(args, *filter.OrganizationID)
	} else {
		where = append(where, "p.organization_id IS NULL")
	}
	if v := strings.TrimSpace(filter.Supplier); v != "" {
		where = append(where, "s.name = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(filter.Family); v != "" {
		where = append(where, "f.family_name = ? COLLATE NOCASE")
		args = append(args, v)
	}
	if filter.ProcessType != "" {
		where = append(where, "COALESCE(p.process_type, f.process_type) = ?")
		args = append(args, string(filter.ProcessType))
	}
	if filter.ThicknessMM != nil {
		// Thickness is compared with a small band to absorb float noise.
		where = append(where, "ABS(p.thickness_mm - ?) < 0.005")
		args = append(args, *filter.ThicknessMM)
	}
	if v := strings.TrimSpace(filter.Search); v != "" {
		where = append(where, "(p.display_name LIKE ? OR p.sku_code LIKE ? OR f.family_name LIKE ?)")
		pattern := "%" + v + "%"
		args = append(args, pattern, pattern, pattern)
	}

	query := `SELECT ` + plateColumns + plateJoins
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY s.name, f.family_name, p.thickness_mm, p.id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, min(filter.Limit, maxPlateListLimit))
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plates: %w", err)
	}
	defer rows.Close()

	var plates []model.Plate
	for rows.Next() {
		plate, err := scanPlate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plate: %w", err)
		}
		plates = append(plates, plate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plates: %w", err)
	}

	slog.Debug("retrieved plates", "count", len(plates))
	return plates, nil
}
