// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// PlateFilter narrows catalog listings. Zero values mean no filter.
type PlateFilter struct {
	ThicknessMM     *float64
	OrganizationID  *string
	Supplier        string
	Family          string
	ProcessType     model.ProcessType
	Search          string
	Limit           int
	IncludeInactive bool
}

// EquipmentFilter narrows equipment listings. Zero values mean no filter.
type EquipmentFilter struct {
	Supplier string
	Types    []model.EquipmentType
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Supplier operations
	SaveSupplier(ctx context.Context, supplier *model.Supplier) error
	GetSuppliers(ctx context.Context) ([]model.Supplier, error)
	GetSupplierByName(ctx context.Context, name string) (*model.Supplier, error)

	// Plate family operations
	SavePlateFamily(ctx context.Context, family *model.PlateFamily) error
	GetPlateFamilies(ctx context.Context, supplier string) ([]model.PlateFamily, error)

	// Plate operations
	SavePlate(ctx context.Context, plate *model.Plate) error
	GetPlate(ctx context.Context, id string) (*model.Plate, error)
	GetPlates(ctx context.Context, filter PlateFilter) ([]model.Plate, error)
	// GetCandidatePlates returns active plates visible to the organization:
	// global plates plus the organization's private ones.
	GetCandidatePlates(ctx context.Context, organizationID *string) ([]model.Plate, error)

	// Weight profile operations
	SaveWeightProfile(ctx context.Context, profile *model.WeightProfile) error
	GetWeightProfile(ctx context.Context, id string) (*model.WeightProfile, error)
	GetDefaultWeightProfile(ctx context.Context, organizationID *string) (*model.WeightProfile, error)
	GetWeightProfiles(ctx context.Context, organizationID *string) ([]model.WeightProfile, error)
	SetDefaultWeightProfile(ctx context.Context, id string) error

	// Override rule operations
	SaveOverrideRule(ctx context.Context, rule *model.OverrideRule) error
	GetOverrideRule(ctx context.Context, id string) (*model.OverrideRule, error)
	GetOverrideRulesForSource(ctx context.Context, sourcePlateID string) ([]model.OverrideRule, error)
	GetOverrideRules(ctx context.Context) ([]model.OverrideRule, error)
	DeleteOverrideRule(ctx context.Context, id string) error

	// Equipment operations
	SaveEquipmentModel(ctx context.Context, equipment *model.EquipmentModel) error
	GetEquipmentModel(ctx context.Context, id string) (*model.EquipmentModel, error)
	GetEquipmentModels(ctx context.Context, filter EquipmentFilter) ([]model.EquipmentModel, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}
