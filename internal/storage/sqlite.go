package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Validate input
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps :memory: databases alive and avoids writer contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

// Path returns the database location.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTransaction{
		tx:      tx,
		storage: s,
	}, nil
}

// withTx runs fn inside a transaction and commits when it succeeds.
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTransaction) SaveSupplier(ctx context.Context, supplier *model.Supplier) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSupplier(supplier); err != nil {
		return err
	}
	return t.storage.saveSupplierTx(ctx, t.tx, supplier)
}

func (t *sqliteTransaction) GetSuppliers(ctx context.Context) ([]model.Supplier, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getSuppliersTx(ctx, t.tx)
}

func (t *sqliteTransaction) GetSupplierByName(ctx context.Context, name string) (*model.Supplier, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return t.storage.getSupplierByNameTx(ctx, t.tx, name)
}

func (t *sqliteTransaction) SavePlateFamily(ctx context.Context, family *model.PlateFamily) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePlateFamily(family); err != nil {
		return err
	}
	return t.storage.savePlateFamilyTx(ctx, t.tx, family)
}

func (t *sqliteTransaction) GetPlateFamilies(ctx context.Context, supplier string) ([]model.PlateFamily, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getPlateFamiliesTx(ctx, t.tx, supplier)
}

func (t *sqliteTransaction) SavePlate(ctx context.Context, plate *model.Plate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePlate(plate); err != nil {
		return err
	}
	return t.storage.savePlateTx(ctx, t.tx, plate)
}

func (t *sqliteTransaction) GetPlate(ctx context.Context, id string) (*model.Plate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return t.storage.getPlateTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetPlates(ctx context.Context, filter service.PlateFilter) ([]model.Plate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getPlatesTx(ctx, t.tx, filter)
}

func (t *sqliteTransaction) GetCandidatePlates(ctx context.Context, organizationID *string) ([]model.Plate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getPlatesTx(ctx, t.tx, service.PlateFilter{OrganizationID: organizationID})
}

func (t *sqliteTransaction) SaveWeightProfile(ctx context.Context, profile *model.WeightProfile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateWeightProfile(profile); err != nil {
		return err
	}
	return t.storage.saveWeightProfileTx(ctx, t.tx, profile)
}

func (t *sqliteTransaction) GetWeightProfile(ctx context.Context, id string) (*model.WeightProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return t.storage.getWeightProfileTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetDefaultWeightProfile(ctx context.Context, organizationID *string) (*model.WeightProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getDefaultWeightProfileTx(ctx, t.tx, organizationID)
}

func (t *sqliteTransaction) GetWeightProfiles(ctx context.Context, organizationID *string) ([]model.WeightProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getWeightProfilesTx(ctx, t.tx, organizationID)
}

func (t *sqliteTransaction) SetDefaultWeightProfile(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return t.storage.setDefaultWeightProfileTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) SaveOverrideRule(ctx context.Context, rule *model.OverrideRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOverrideRule(rule); err != nil {
		return err
	}
	return t.storage.saveOverrideRuleTx(ctx, t.tx, rule)
}

func (t *sqliteTransaction) GetOverrideRule(ctx context.Context, id string) (*model.OverrideRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return t.storage.getOverrideRuleTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetOverrideRulesForSource(ctx context.Context, sourcePlateID string) ([]model.OverrideRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sourcePlateID, "sourcePlateID"); err != nil {
		return nil, err
	}
	return t.storage.getOverrideRulesTx(ctx, t.tx, sourcePlateID)
}

func (t *sqliteTransaction) GetOverrideRules(ctx context.Context) ([]model.OverrideRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getOverrideRulesTx(ctx, t.tx, "")
}

func (t *sqliteTransaction) DeleteOverrideRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return t.storage.deleteOverrideRuleTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) SaveEquipmentModel(ctx context.Context, equipment *model.EquipmentModel) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEquipmentModel(equipment); err != nil {
		return err
	}
	return t.storage.saveEquipmentModelTx(ctx, t.tx, equipment)
}

func (t *sqliteTransaction) GetEquipmentModel(ctx context.Context, id string) (*model.EquipmentModel, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return t.storage.getEquipmentModelTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetEquipmentModels(ctx context.Context, filter service.EquipmentFilter) ([]model.EquipmentModel, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getEquipmentModelsTx(ctx, t.tx, filter)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	// Nested transactions not supported
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	// Transactions should be committed or rolled back, not closed
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}

// encodeTags stores a tag list as a JSON array.
func encodeTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeTags(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(ns.String), &tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return tags, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
