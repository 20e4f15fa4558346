package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Veraticus/flexoplate-iq/internal/common"
	"github.com/Veraticus/flexoplate-iq/internal/engine"
	"github.com/Veraticus/flexoplate-iq/internal/equivalency"
	"github.com/Veraticus/flexoplate-iq/internal/exposure"
	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/service"
)

const defaultPlateListLimit = 50

// FindRequest is the body of POST /api/equivalency/find.
type FindRequest struct {
	OrganizationID      *string `json:"organization_id"`
	IncludeSameSupplier *bool   `json:"include_same_supplier"`
	MinScore            *int    `json:"min_score" validate:"omitempty,gte=0,lte=100"`
	SourcePlateID       string  `json:"source_plate_id" validate:"required"`
	TargetSupplier      string  `json:"target_supplier"`
	ProfileID           string  `json:"profile_id"`
	Substrate           string  `json:"substrate"`
	InkSystem           string  `json:"ink_system"`
	Application         string  `json:"application"`
	Limit               int     `json:"limit" validate:"gte=0,lte=100"`
}

// QuickRequest is the query of GET /api/equivalency/quick. A zero
// min_score keeps the configured floor.
type QuickRequest struct {
	PlateID        string `query:"plate_id" validate:"required"`
	TargetSupplier string `query:"target_supplier"`
	OrganizationID string `query:"organization_id"`
	Substrate      string `query:"substrate"`
	InkSystem      string `query:"ink_system"`
	Application    string `query:"application"`
	Limit          int    `query:"limit" validate:"gte=0,lte=100"`
	MinScore       int    `query:"min_score" validate:"gte=0,lte=100"`
}

func (s *Server) findEquivalents(c echo.Context) error {
	req, err := BindRequest[FindRequest](c)
	if err != nil {
		return err
	}
	return s.search(c, engine.Request{
		OrganizationID:      nonEmpty(req.OrganizationID),
		IncludeSameSupplier: req.IncludeSameSupplier,
		SourcePlateID:       req.SourcePlateID,
		TargetSupplier:      req.TargetSupplier,
		ProfileID:           req.ProfileID,
		Limit:               req.Limit,
		MinScore:            req.MinScore,
		Preferences: equivalency.Preferences{
			Substrate:   req.Substrate,
			InkSystem:   req.InkSystem,
			Application: req.Application,
		},
	})
}

func (s *Server) quickEquivalents(c echo.Context) error {
	req, err := BindRequest[QuickRequest](c)
	if err != nil {
		return err
	}
	search := engine.Request{
		OrganizationID: nonEmpty(&req.OrganizationID),
		SourcePlateID:  req.PlateID,
		TargetSupplier: req.TargetSupplier,
		Limit:          req.Limit,
		Preferences: equivalency.Preferences{
			Substrate:   req.Substrate,
			InkSystem:   req.InkSystem,
			Application: req.Application,
		},
	}
	if req.MinScore > 0 {
		search.MinScore = &req.MinScore
	}
	return s.search(c, search)
}

func (s *Server) search(c echo.Context, req engine.Request) error {
	resp, err := s.engine.FindEquivalents(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, equivalency.ErrSourceNotFound):
			EquivalencySearches.WithLabelValues(outcomeNotFound).Inc()
		case engine.IsConfigError(err):
			EquivalencySearches.WithLabelValues(outcomeInvalid).Inc()
		default:
			EquivalencySearches.WithLabelValues(outcomeError).Inc()
		}
		return err
	}

	EquivalencySearches.WithLabelValues(outcomeOK).Inc()
	EquivalencyCandidates.Observe(float64(resp.TotalCandidates))
	for _, cand := range resp.Candidates {
		if cand.Overridden {
			OverriddenResults.Inc()
		}
	}
	return c.JSON(http.StatusOK, NewFindResponse(resp))
}

// PlateListRequest is the query of GET /api/plates.
type PlateListRequest struct {
	Supplier        string  `query:"supplier"`
	Family          string  `query:"family"`
	ProcessType     string  `query:"process_type" validate:"omitempty,oneof=solvent thermal water_wash"`
	Search          string  `query:"search"`
	OrganizationID  string  `query:"organization_id"`
	ThicknessMM     float64 `query:"thickness_mm" validate:"gte=0"`
	Limit           int     `query:"limit" validate:"gte=0,lte=200"`
	IncludeInactive bool    `query:"include_inactive"`
}

func (s *Server) listPlates(c echo.Context) error {
	req, err := BindRequest[PlateListRequest](c)
	if err != nil {
		return err
	}

	filter := service.PlateFilter{
		OrganizationID:  nonEmpty(&req.OrganizationID),
		Supplier:        req.Supplier,
		Family:          req.Family,
		ProcessType:     model.ProcessType(req.ProcessType),
		Search:          req.Search,
		Limit:           req.Limit,
		IncludeInactive: req.IncludeInactive,
	}
	if filter.Limit == 0 {
		filter.Limit = defaultPlateListLimit
	}
	if req.ThicknessMM > 0 {
		filter.ThicknessMM = &req.ThicknessMM
	}

	plates, err := s.store.GetPlates(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(plates))
}

func (s *Server) getPlate(c echo.Context) error {
	plate, err := s.store.GetPlate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plate)
}

func (s *Server) listSuppliers(c echo.Context) error {
	suppliers, err := s.store.GetSuppliers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(suppliers))
}

func (s *Server) listFamilies(c echo.Context) error {
	families, err := s.store.GetPlateFamilies(c.Request().Context(), c.QueryParam("supplier"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(families))
}

// EquipmentQuery is the query of GET /api/equipment/models. EquipmentType
// takes an exact type or a category such as "exposure".
type EquipmentQuery struct {
	EquipmentType string `query:"equipment_type"`
	Supplier      string `query:"supplier"`
}

func (s *Server) listEquipment(c echo.Context) error {
	req, err := BindRequest[EquipmentQuery](c)
	if err != nil {
		return err
	}
	types, err := model.ParseEquipmentTypes(req.EquipmentType)
	if err != nil {
		return err
	}
	equipment, err := s.store.GetEquipmentModels(c.Request().Context(), service.EquipmentFilter{
		Supplier: req.Supplier,
		Types:    types,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(equipment))
}

// ProfileRequest is the body of POST /api/profiles.
type ProfileRequest struct {
	OrganizationID       *string                     `json:"organization_id"`
	Weights              map[model.Attribute]float64 `json:"weights" validate:"required,min=1"`
	Name                 string                      `json:"name" validate:"required"`
	HardnessTolerance    float64                     `json:"hardness_tolerance" validate:"gt=0"`
	ThicknessToleranceMM float64                     `json:"thickness_tolerance_mm" validate:"gt=0"`
	IsDefault            bool                        `json:"is_default"`
}

func (s *Server) listProfiles(c echo.Context) error {
	org := c.QueryParam("organization_id")
	profiles, err := s.store.GetWeightProfiles(c.Request().Context(), nonEmpty(&org))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(profiles))
}

func (s *Server) createProfile(c echo.Context) error {
	req, err := BindRequest[ProfileRequest](c)
	if err != nil {
		return err
	}

	profile := model.WeightProfile{
		OrganizationID:       nonEmpty(req.OrganizationID),
		Weights:              req.Weights,
		Name:                 req.Name,
		HardnessTolerance:    req.HardnessTolerance,
		ThicknessToleranceMM: req.ThicknessToleranceMM,
		IsDefault:            req.IsDefault,
	}
	if err := s.store.SaveWeightProfile(c.Request().Context(), &profile); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, profile)
}

// OverrideRequest is the body of POST /api/overrides.
type OverrideRequest struct {
	SourcePlateID   string `json:"source_plate_id" validate:"required"`
	TargetPlateID   string `json:"target_plate_id" validate:"required"`
	ConfidenceLevel string `json:"confidence_level" validate:"omitempty,oneof=low medium high verified"`
	AdjustmentNotes string `json:"adjustment_notes"`
	CreatedBy       string `json:"created_by"`
	SimilarityScore int    `json:"similarity_score" validate:"gte=0,lte=100"`
}

func (s *Server) listOverrides(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		rules []model.OverrideRule
		err   error
	)
	if source := c.QueryParam("source_plate_id"); source != "" {
		rules, err = s.store.GetOverrideRulesForSource(ctx, source)
	} else {
		rules, err = s.store.GetOverrideRules(ctx)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(rules))
}

func (s *Server) createOverride(c echo.Context) error {
	req, err := BindRequest[OverrideRequest](c)
	if err != nil {
		return err
	}

	rule := model.OverrideRule{
		SourcePlateID:   req.SourcePlateID,
		TargetPlateID:   req.TargetPlateID,
		ConfidenceLevel: model.ConfidenceLevel(req.ConfidenceLevel),
		AdjustmentNotes: req.AdjustmentNotes,
		CreatedBy:       req.CreatedBy,
		SimilarityScore: req.SimilarityScore,
	}
	if rule.ConfidenceLevel == "" {
		rule.ConfidenceLevel = model.ConfidenceMedium
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	for _, id := range []string{rule.SourcePlateID, rule.TargetPlateID} {
		if _, err := s.store.GetPlate(ctx, id); err != nil {
			return err
		}
	}
	if err := s.store.SaveOverrideRule(ctx, &rule); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rule)
}

func (s *Server) deleteOverride(c echo.Context) error {
	if err := s.store.DeleteOverrideRule(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ExposureRequest is the body of POST /api/exposure/calculate. The lamp
// intensity comes from uv_intensity_mw_cm2 or from the nominal intensity of
// equipment_model_id.
type ExposureRequest struct {
	TargetFloorMM    *float64 `json:"target_floor_mm" validate:"omitempty,gt=0"`
	PlateID          string   `json:"plate_id" validate:"required"`
	EquipmentModelID string   `json:"equipment_model_id" validate:"required_without=IntensityMWCm2"`
	IntensityMWCm2   float64  `json:"uv_intensity_mw_cm2" validate:"omitempty,gt=0"`
}

// ScaleRequest is the query of GET /api/exposure/scale.
type ScaleRequest struct {
	ReferenceTimeS     float64 `query:"reference_time_s" validate:"gte=0"`
	ReferenceIntensity float64 `query:"reference_intensity" validate:"gt=0"`
	CurrentIntensity   float64 `query:"current_intensity" validate:"gt=0"`
}

func (s *Server) calculateExposure(c echo.Context) error {
	req, err := BindRequest[ExposureRequest](c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	intensity := req.IntensityMWCm2
	if intensity == 0 {
		if intensity, err = s.engine.EquipmentIntensity(ctx, req.EquipmentModelID); err != nil {
			return err
		}
	}
	res, err := s.engine.CalculateExposure(ctx, req.PlateID, intensity, req.TargetFloorMM)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) scaleExposure(c echo.Context) error {
	req, err := BindRequest[ScaleRequest](c)
	if err != nil {
		return err
	}
	res, err := exposure.Scale(req.ReferenceTimeS, req.ReferenceIntensity, req.CurrentIntensity)
	if err != nil {
		return common.NewUserError(err.Error(), err)
	}
	return c.JSON(http.StatusOK, res)
}

// nonEmpty drops blank organization ids so they mean "global only".
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
