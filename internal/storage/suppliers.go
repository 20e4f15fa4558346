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
)

// SaveSupplier inserts a supplier or updates the one with the same name.
func (s *SQLiteStorage) SaveSupplier(ctx context.Context, supplier *model.Supplier) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSupplier(supplier); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.saveSupplierTx(ctx, tx, supplier)
	})
}

func (s *SQLiteStorage) saveSupplierTx(ctx context.Context, q queryable, supplier *model.Supplier) error {
	if supplier.ID == "" {
		supplier.ID = uuid.NewString()
	}
	supplier.Name = strings.TrimSpace(supplier.Name)

	_, err := q.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, website_url, country, notes, is_plate_supplier)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			website_url = COALESCE(excluded.website_url, website_url),
			country = COALESCE(excluded.country, country),
			notes = COALESCE(excluded.notes, notes),
			is_plate_supplier = excluded.is_plate_supplier
	`, supplier.ID, supplier.Name,
		nullString(&supplier.WebsiteURL), nullString(&supplier.Country), nullString(&supplier.Notes),
		supplier.IsPlateSupplier)
	if err != nil {
		return fmt.Errorf("failed to save supplier: %w", err)
	}

	// The row may predate this call; report the stored id.
	if err := q.QueryRowContext(ctx, `SELECT id, created_at FROM suppliers WHERE name = ?`, supplier.Name).
		Scan(&supplier.ID, &supplier.CreatedAt); err != nil {
		return fmt.Errorf("failed to read back supplier: %w", err)
	}
	return nil
}

// ensureSupplier returns the id of the named supplier, creating it if needed.
func (s *SQLiteStorage) ensureSupplier(ctx context.Context, q queryable, name string) (string, error) {
	existing, err := s.getSupplierByNameTx(ctx, q, name)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return "", err
	}

	supplier := &model.Supplier{Name: name, IsPlateSupplier: true}
	if err := s.saveSupplierTx(ctx, q, supplier); err != nil {
		return "", err
	}
	slog.Debug("created supplier", "name", name, "id", supplier.ID)
	return supplier.ID, nil
}

// GetSuppliers returns all suppliers ordered by name.
func (s *SQLiteStorage) GetSuppliers(ctx context.Context) ([]model.Supplier, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getSuppliersTx(ctx, s.db)
}

func (s *SQLiteStorage) getSuppliersTx(ctx context.Context, q queryable) ([]model.Supplier, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, COALESCE(website_url, ''), COALESCE(country, ''), COALESCE(notes, ''),
			is_plate_supplier, created_at
		FROM suppliers
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []model.Supplier
	for rows.Next() {
		var sup model.Supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.WebsiteURL, &sup.Country, &sup.Notes,
			&sup.IsPlateSupplier, &sup.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, sup)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suppliers: %w", err)
	}
	return suppliers, nil
}

// GetSupplierByName looks a supplier up case-insensitively.
func (s *SQLiteStorage) GetSupplierByName(ctx context.Context, name string) (*model.Supplier, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return s.getSupplierByNameTx(ctx, s.db, name)
}

func (s *SQLiteStorage) getSupplierByNameTx(ctx context.Context, q queryable, name string) (*model.Supplier, error) {
	var sup model.Supplier
	err := q.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(website_url, ''), COALESCE(country, ''), COALESCE(notes, ''),
			is_plate_supplier, created_at
		FROM suppliers
		WHERE name = ?`, strings.TrimSpace(name)).Scan(
		&sup.ID, &sup.Name, &sup.WebsiteURL, &sup.Country, &sup.Notes,
		&sup.IsPlateSupplier, &sup.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("supplier %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return &sup, nil
}

// SavePlateFamily inserts or updates a family, creating its supplier when
// only the supplier name is known.
func (s *SQLiteStorage) SavePlateFamily(ctx context.Context, family *model.PlateFamily) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePlateFamily(family); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.savePlateFamilyTx(ctx, tx, family)
	})
}

func (s *SQLiteStorage) savePlateFamilyTx(ctx context.Context, q queryable, family *model.PlateFamily) error {
	if family.SupplierID == "" {
		id, err := s.ensureSupplier(ctx, q, family.SupplierName)
		if err != nil {
			return err
		}
		family.SupplierID = id
	}
	if family.ID == "" {
		family.ID = uuid.NewString()
	}

	tags, err := encodeTags(family.TechnologyTags)
	if err != nil {
		return err
	}
	process := string(family.ProcessType)

	_, err = q.ExecContext(ctx, `
		INSERT INTO plate_families (id, supplier_id, family_name, process_type, technology_tags, description)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(supplier_id, family_name) DO UPDATE SET
			process_type = COALESCE(excluded.process_type, process_type),
			technology_tags = COALESCE(excluded.technology_tags, technology_tags),
			description = COALESCE(excluded.description, description)
	`, family.ID, family.SupplierID, strings.TrimSpace(family.Name),
		nullString(&process), tags, nullString(&family.Description))
	if err != nil {
		return fmt.Errorf("failed to save plate family: %w", err)
	}

	if err := q.QueryRowContext(ctx, `
		SELECT id FROM plate_families WHERE supplier_id = ? AND family_name = ?`,
		family.SupplierID, strings.TrimSpace(family.Name)).Scan(&family.ID); err != nil {
		return fmt.Errorf("failed to read back plate family: %w", err)
	}
	return nil
}

// GetPlateFamilies lists families with their plate counts, optionally for
// one supplier.
func (s *SQLiteStorage) GetPlateFamilies(ctx context.Context, supplier string) ([]model.PlateFamily, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getPlateFamiliesTx(ctx, s.db, supplier)
}

func (s *SQLiteStorage) getPlateFamiliesTx(ctx context.Context, q queryable, supplier string) ([]model.PlateFamily, error) {
	query := `
		SELECT f.id, f.supplier_id, s.name, f.family_name, COALESCE(f.process_type, ''),
			COALESCE(f.description, ''), f.technology_tags, COUNT(p.id)
		FROM plate_families f
		JOIN suppliers s ON f.supplier_id = s.id
		LEFT JOIN plates p ON p.plate_family_id = f.id AND p.is_active = 1`
	var args []any
	if supplier = strings.TrimSpace(supplier); supplier != "" {
		query += ` WHERE s.name = ?`
		args = append(args, supplier)
	}
	query += ` GROUP BY f.id ORDER BY s.name, f.family_name`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plate families: %w", err)
	}
	defer rows.Close()

	var families []model.PlateFamily
	for rows.Next() {
		var (
			fam     model.PlateFamily
			process string
			tags    sql.NullString
		)
		if err := rows.Scan(&fam.ID, &fam.SupplierID, &fam.SupplierName, &fam.Name, &process,
			&fam.Description, &tags, &fam.PlateCount); err != nil {
			return nil, fmt.Errorf("failed to scan plate family: %w", err)
		}
		fam.ProcessType = model.ProcessType(process)
		if fam.TechnologyTags, err = decodeTags(tags); err != nil {
			return nil, err
		}
		families = append(families, fam)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plate families: %w", err)
	}
	return families, nil
}
