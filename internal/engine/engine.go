// Package engine loads plates, weight profiles and override rules from the
// catalog and runs equivalency searches and exposure calculations on them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/flexoplate-iq/internal/common"
	"github.com/Veraticus/flexoplate-iq/internal/equivalency"
	"github.com/Veraticus/flexoplate-iq/internal/exposure"
	"github.com/Veraticus/flexoplate-iq/internal/model"
)

var (
	// ErrInvalidMinScore is returned for a score floor outside 0-100.
	ErrInvalidMinScore = errors.New("minimum score out of range")

	// ErrNoEquipmentIntensity is returned when an equipment model cannot
	// supply a lamp intensity.
	ErrNoEquipmentIntensity = errors.New("equipment has no exposure intensity")
)

// Service orchestrates equivalency searches against a catalog.
type Service struct {
	catalog Catalog
	config  Config
}

// Config holds configuration options for the engine.
type Config struct {
	DefaultLimit int
	// MinScore drops candidates below it unless a request sets its own.
	MinScore            int
	IncludeSameSupplier bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 10,
	}
}

// New creates a new engine with the default configuration.
func New(catalog Catalog) *Service {
	return NewWithConfig(catalog, DefaultConfig())
}

// NewWithConfig creates a new engine with custom configuration.
func NewWithConfig(catalog Catalog, config Config) *Service {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultConfig().DefaultLimit
	}
	return &Service{
		catalog: catalog,
		config:  config,
	}
}

// Request describes one equivalency search.
type Request struct {
	OrganizationID *string
	// IncludeSameSupplier overrides the configured default when set.
	IncludeSameSupplier *bool
	// MinScore overrides the configured score floor when set.
	MinScore       *int
	SourcePlateID  string
	TargetSupplier string
	ProfileID      string
	Preferences    equivalency.Preferences
	// Limit caps the returned candidates; zero or negative uses the default.
	Limit int
}

// Response is a ranked result plus the profile that produced it.
type Response struct {
	equivalency.Result
	Profile model.WeightProfile
}

// FindEquivalents ranks catalog plates against the requested source plate.
//
// The pool holds active plates visible to the organization. Plates from the
// source's own supplier are left out unless same-supplier matching is on or
// the request names a target supplier.
func (s *Service) FindEquivalents(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.SourcePlateID) == "" {
		return Response{}, common.NewUserError("a source plate id is required", equivalency.ErrSourceNotFound)
	}

	source, err := s.catalog.GetPlate(ctx, req.SourcePlateID)
	if err != nil {
		if common.IsNotFound(err) {
			return Response{}, fmt.Errorf("%w: %w", equivalency.ErrSourceNotFound, err)
		}
		return Response{}, fmt.Errorf("failed to load source plate: %w", err)
	}

	profile, err := s.ResolveProfile(ctx, req.ProfileID, req.OrganizationID)
	if err != nil {
		return Response{}, err
	}

	pool, err := s.catalog.GetCandidatePlates(ctx, req.OrganizationID)
	if err != nil {
		return Response{}, fmt.Errorf("failed to load candidate plates: %w", err)
	}

	includeSame := s.config.IncludeSameSupplier
	if req.IncludeSameSupplier != nil {
		includeSame = *req.IncludeSameSupplier
	}
	if !includeSame && strings.TrimSpace(req.TargetSupplier) == "" {
		pool = excludeSupplier(pool, source.SupplierName)
	}

	overrides, err := s.catalog.GetOverrideRulesForSource(ctx, source.ID)
	if err != nil {
		return Response{}, fmt.Errorf("failed to load override rules: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	minScore := s.config.MinScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}
	if minScore < 0 || minScore > 100 {
		return Response{}, common.NewUserError(
			fmt.Sprintf("Minimum score must be between 0 and 100, got %d", minScore), ErrInvalidMinScore)
	}

	slog.Debug("finding equivalents",
		"source_plate_id", source.ID,
		"pool_size", len(pool),
		"override_count", len(overrides),
		"profile", profile.Name,
		"target_supplier", req.TargetSupplier,
		"min_score", minScore)

	result, err := equivalency.FindEquivalents(equivalency.Query{
		Source:         source,
		TargetSupplier: req.TargetSupplier,
		Pool:           pool,
		Overrides:      overrides,
		Profile:        profile,
		Preferences:    req.Preferences,
		Limit:          limit,
		MinScore:       minScore,
	})
	if err != nil {
		return Response{}, err
	}

	slog.Debug("ranked equivalents",
		"source_plate_id", source.ID,
		"total_candidates", result.TotalCandidates,
		"returned", len(result.Candidates))

	return Response{Result: result, Profile: profile}, nil
}

// ResolveProfile picks the weight profile for a search: the named profile,
// else the organization's default, else the global default.
func (s *Service) ResolveProfile(ctx context.Context, profileID string, organizationID *string) (model.WeightProfile, error) {
	if profileID != "" {
		p, err := s.catalog.GetWeightProfile(ctx, profileID)
		if err != nil {
			return model.WeightProfile{}, fmt.Errorf("failed to load weight profile: %w", err)
		}
		return *p, nil
	}

	if organizationID != nil && *organizationID != "" {
		p, err := s.catalog.GetDefaultWeightProfile(ctx, organizationID)
		if err == nil {
			return *p, nil
		}
		if !common.IsNotFound(err) {
			return model.WeightProfile{}, fmt.Errorf("failed to load organization profile: %w", err)
		}
	}

	p, err := s.catalog.GetDefaultWeightProfile(ctx, nil)
	if err != nil {
		if common.IsNotFound(err) {
			return model.WeightProfile{}, fmt.Errorf("%w: no default weight profile, run migrations", common.ErrMissingConfig)
		}
		return model.WeightProfile{}, fmt.Errorf("failed to load default profile: %w", err)
	}
	return *p, nil
}

// CalculateExposure loads a plate and computes its exposure times.
func (s *Service) CalculateExposure(ctx context.Context, plateID string, intensity float64, targetFloorMM *float64) (exposure.Result, error) {
	plate, err := s.catalog.GetPlate(ctx, plateID)
	if err != nil {
		return exposure.Result{}, fmt.Errorf("failed to load plate: %w", err)
	}

	res, err := exposure.Calculate(*plate, intensity, targetFloorMM)
	if err != nil {
		return exposure.Result{}, err
	}

	slog.Debug("calculated exposure",
		"plate_id", plateID,
		"intensity", intensity,
		"notes", len(res.Notes))
	return res, nil
}

// EquipmentIntensity returns the nominal lamp intensity of an exposure unit.
func (s *Service) EquipmentIntensity(ctx context.Context, equipmentID string) (float64, error) {
	equipment, err := s.catalog.GetEquipmentModel(ctx, equipmentID)
	if err != nil {
		return 0, fmt.Errorf("failed to load equipment: %w", err)
	}
	if !equipment.IsExposureUnit() {
		return 0, common.NewUserError(
			fmt.Sprintf("%s %s is a %s, not an exposure unit", equipment.SupplierName, equipment.ModelName, equipment.EquipmentType),
			ErrNoEquipmentIntensity)
	}
	if equipment.NominalIntensityMWCm2 == nil {
		return 0, common.NewUserError(
			fmt.Sprintf("%s %s has no nominal intensity on record, pass the measured intensity", equipment.SupplierName, equipment.ModelName),
			ErrNoEquipmentIntensity)
	}
	return *equipment.NominalIntensityMWCm2, nil
}

// IsConfigError reports whether err stems from bad weights, tolerances or
// override data rather than from the request or storage.
func IsConfigError(err error) bool {
	return errors.Is(err, equivalency.ErrInvalidConfig) || errors.Is(err, common.ErrMissingConfig)
}

func excludeSupplier(pool []model.Plate, supplier string) []model.Plate {
	out := make([]model.Plate, 0, len(pool))
	for _, p := range pool {
		if strings.EqualFold(strings.TrimSpace(p.SupplierName), strings.TrimSpace(supplier)) {
			continue
		}
		out = append(out, p)
	}
	return out
}
