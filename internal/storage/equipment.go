package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/flexoplate-iq/internal/common"
	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/service"
)

const equipmentColumns = `
	e.id, e.supplier_id, s.name, e.model_name, e.equipment_type,
	COALESCE(e.technology, ''), COALESCE(e.uv_source_type, ''), e.nominal_intensity_mw_cm2,
	e.has_integrated_back_exposure, e.supports_digital_plates, e.supports_analog_plates,
	COALESCE(e.data_source_url, ''), COALESCE(e.notes, ''), e.created_at`

// SaveEquipmentModel inserts an equipment model or updates the supplier's
// model with the same name.
func (s *SQLiteStorage) SaveEquipmentModel(ctx context.Context, equipment *model.EquipmentModel) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEquipmentModel(equipment); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.saveEquipmentModelTx(ctx, tx, equipment)
	})
}

func (s *SQLiteStorage) saveEquipmentModelTx(ctx context.Context, q queryable, equipment *model.EquipmentModel) error {
	if equipment.SupplierID == "" {
		id, err := s.ensureSupplier(ctx, q, equipment.SupplierName)
		if err != nil {
			return err
		}
		equipment.SupplierID = id
	}
	if equipment.ID == "" {
		equipment.ID = uuid.NewString()
	}
	equipment.ModelName = strings.TrimSpace(equipment.ModelName)

	_, err := q.ExecContext(ctx, `
		INSERT INTO equipment_models (id, supplier_id, model_name, equipment_type, technology, uv_source_type,
			nominal_intensity_mw_cm2, has_integrated_back_exposure, supports_digital_plates,
			supports_analog_plates, data_source_url, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(supplier_id, model_name) DO UPDATE SET
			equipment_type = excluded.equipment_type,
			technology = excluded.technology,
			uv_source_type = excluded.uv_source_type,
			nominal_intensity_mw_cm2 = excluded.nominal_intensity_mw_cm2,
			has_integrated_back_exposure = excluded.has_integrated_back_exposure,
			supports_digital_plates = excluded.supports_digital_plates,
			supports_analog_plates = excluded.supports_analog_plates,
			data_source_url = excluded.data_source_url,
			notes = excluded.notes
	`, equipment.ID, equipment.SupplierID, equipment.ModelName, string(equipment.EquipmentType),
		nullString(&equipment.Technology), nullString(&equipment.UVSourceType),
		nullFloat(equipment.NominalIntensityMWCm2), equipment.HasIntegratedBackExposure,
		equipment.SupportsDigitalPlates, equipment.SupportsAnalogPlates,
		nullString(&equipment.DataSourceURL), nullString(&equipment.Notes))
	if err != nil {
		return fmt.Errorf("failed to save equipment model: %w", err)
	}

	if err := q.QueryRowContext(ctx, `
		SELECT e.id, s.name, e.created_at
		FROM equipment_models e
		JOIN suppliers s ON e.supplier_id = s.id
		WHERE e.supplier_id = ? AND e.model_name = ?`,
		equipment.SupplierID, equipment.ModelName).
		Scan(&equipment.ID, &equipment.SupplierName, &equipment.CreatedAt); err != nil {
		return fmt.Errorf("failed to read back equipment model: %w", err)
	}
	return nil
}

// GetEquipmentModel returns one equipment model by id.
func (s *SQLiteStorage) GetEquipmentModel(ctx context.Context, id string) (*model.EquipmentModel, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getEquipmentModelTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getEquipmentModelTx(ctx context.Context, q queryable, id string) (*model.EquipmentModel, error) {
	row := q.QueryRowContext(ctx, `SELECT `+equipmentColumns+`
		FROM equipment_models e
		JOIN suppliers s ON e.supplier_id = s.id
		WHERE e.id = ?`, id)
	equipment, err := scanEquipmentModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("equipment model %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return equipment, nil
}

// GetEquipmentModels lists equipment models ordered by supplier then model
// name.
func (s *SQLiteStorage) GetEquipmentModels(ctx context.Context, filter service.EquipmentFilter) ([]model.EquipmentModel, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getEquipmentModelsTx(ctx, s.db, filter)
}

func (s *SQLiteStorage) getEquipmentModelsTx(ctx context.Context, q queryable, filter service.EquipmentFilter) ([]model.EquipmentModel, error) {
	var (
		where []string
		args  []any
	)
	if len(filter.Types) > 0 {
		marks := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			marks[i] = "?"
			args = append(args, string(t))
		}
		where = append(where, "e.equipment_type IN ("+strings.Join(marks, ", ")+")")
	}
	if supplier := strings.TrimSpace(filter.Supplier); supplier != "" {
		// suppliers.name is NOCASE.
		where = append(where, "s.name = ?")
		args = append(args, supplier)
	}

	query := `SELECT ` + equipmentColumns + `
		FROM equipment_models e
		JOIN suppliers s ON e.supplier_id = s.id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.name, e.model_name"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query equipment models: %w", err)
	}
	defer rows.Close()

	var models []model.EquipmentModel
	for rows.Next() {
		equipment, err := scanEquipmentModel(rows)
		if err != nil {
			return nil, err
		}
		models = append(models, *equipment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating equipment models: %w", err)
	}
	return models, nil
}

func scanEquipmentModel(row scanner) (*model.EquipmentModel, error) {
	var (
		e         model.EquipmentModel
		kind      string
		intensity sql.NullFloat64
	)
	err := row.Scan(&e.ID, &e.SupplierID, &e.SupplierName, &e.ModelName, &kind,
		&e.Technology, &e.UVSourceType, &intensity,
		&e.HasIntegratedBackExposure, &e.SupportsDigitalPlates, &e.SupportsAnalogPlates,
		&e.DataSourceURL, &e.Notes, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan equipment model: %w", err)
	}
	e.EquipmentType = model.EquipmentType(kind)
	e.NominalIntensityMWCm2 = floatPtr(intensity)
	return &e, nil
}
