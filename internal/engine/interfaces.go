package engine

import (
	"context"

	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// Catalog is the read side of storage the engine needs. service.Storage
// satisfies it.
type Catalog interface {
	GetPlate(ctx context.Context, id string) (*model.Plate, error)
	GetCandidatePlates(ctx context.Context, organizationID *string) ([]model.Plate, error)
	GetWeightProfile(ctx context.Context, id string) (*model.WeightProfile, error)
	GetDefaultWeightProfile(ctx context.Context, organizationID *string) (*model.WeightProfile, error)
	GetOverrideRulesForSource(ctx context.Context, sourcePlateID string) ([]model.OverrideRule, error)
	GetEquipmentModel(ctx context.Context, id string) (*model.EquipmentModel, error)
}
