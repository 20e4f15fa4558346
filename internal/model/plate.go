// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"time"
)

// ProcessType is the platemaking workflow a plate is processed with.
type ProcessType string

// Process type constants.
const (
	ProcessSolvent   ProcessType = "solvent"
	ProcessThermal   ProcessType = "thermal"
	ProcessWaterWash ProcessType = "water_wash"
)

// Surface type constants. Surface types are stored as free strings because
// suppliers keep inventing new screening surfaces.
const (
	SurfaceFlatTop   = "flat_top"
	SurfaceRoundTop  = "round_top"
	SurfaceMicrocell = "microcell"
	SurfaceTextured  = "textured"
)

// LPIRange is the screen ruling interval a plate is rated for.
type LPIRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Validate ensures the range is well formed.
func (r LPIRange) Validate() error {
	if r.Min < 0 || r.Max < 0 {
		return fmt.Errorf("lpi range must be non-negative, got %d-%d", r.Min, r.Max)
	}
	if r.Min > r.Max {
		return fmt.Errorf("lpi range min %d exceeds max %d", r.Min, r.Max)
	}
	return nil
}

// ExposureEnergies are the supplier-published UV energies in mJ/cm².
// Nil fields mean the datasheet did not publish the value.
type ExposureEnergies struct {
	MainMin             *float64 `json:"main_min_mj_cm2,omitempty" yaml:"main_min_mj_cm2"`
	MainMax             *float64 `json:"main_max_mj_cm2,omitempty" yaml:"main_max_mj_cm2"`
	BackMin             *float64 `json:"back_min_mj_cm2,omitempty" yaml:"back_min_mj_cm2"`
	BackMax             *float64 `json:"back_max_mj_cm2,omitempty" yaml:"back_max_mj_cm2"`
	Post                *float64 `json:"post_mj_cm2,omitempty" yaml:"post_mj_cm2"`
	Detack              *float64 `json:"detack_mj_cm2,omitempty" yaml:"detack_mj_cm2"`
	ReliefRecommendedMM *float64 `json:"relief_recommended_mm,omitempty" yaml:"relief_recommended_mm"`
}

// Supplier is a plate or equipment manufacturer.
type Supplier struct {
	CreatedAt       time.Time `json:"created_at"`
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	WebsiteURL      string    `json:"website_url,omitempty"`
	Country         string    `json:"country,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	IsPlateSupplier bool      `json:"is_plate_supplier"`
}

// PlateFamily groups plate variants sharing chemistry and process.
type PlateFamily struct {
	ID             string      `json:"id"`
	SupplierID     string      `json:"supplier_id"`
	SupplierName   string      `json:"supplier_name"`
	Name           string      `json:"family_name"`
	ProcessType    ProcessType `json:"process_type,omitempty"`
	Description    string      `json:"description,omitempty"`
	TechnologyTags []string    `json:"technology_tags,omitempty"`
	PlateCount     int         `json:"plate_count"`
}

// Plate is a specific plate product variant from the catalog.
type Plate struct {
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	HardnessShore    *float64         `json:"hardness_shore,omitempty"`
	SurfaceType      *string          `json:"surface_type,omitempty"`
	LPI              *LPIRange        `json:"lpi_range,omitempty"`
	OrganizationID   *string          `json:"organization_id,omitempty"`
	Exposure         ExposureEnergies `json:"exposure"`
	ID               string           `json:"id"`
	FamilyID         string           `json:"family_id,omitempty"`
	SKU              string           `json:"sku_code,omitempty"`
	DisplayName      string           `json:"display_name"`
	SupplierName     string           `json:"supplier_name"`
	FamilyName       string           `json:"family_name"`
	ProcessType      ProcessType      `json:"process_type,omitempty"`
	ImagingType      string           `json:"imaging_type,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	InkCompatibility []string         `json:"ink_compatibility,omitempty"`
	Applications     []string         `json:"applications,omitempty"`
	Substrates       []string         `json:"substrate_categories,omitempty"`
	ThicknessMM      float64          `json:"thickness_mm"`
	IsActive         bool             `json:"is_active"`
}

// Name returns the display name, falling back to family and thickness.
func (p Plate) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.FamilyName != "" {
		return fmt.Sprintf("%s %.2f", p.FamilyName, p.ThicknessMM)
	}
	return p.ID
}

// Validate ensures the plate carries the fields matching depends on.
func (p *Plate) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("plate id is required")
	}
	if p.SupplierName == "" {
		return fmt.Errorf("plate %s: supplier name is required", p.ID)
	}
	if p.ThicknessMM <= 0 {
		return fmt.Errorf("plate %s: thickness must be positive, got %.3f", p.ID, p.ThicknessMM)
	}
	if p.HardnessShore != nil && (*p.HardnessShore < 0 || *p.HardnessShore > 100) {
		return fmt.Errorf("plate %s: hardness must be between 0 and 100 Shore A, got %.1f", p.ID, *p.HardnessShore)
	}
	if p.LPI != nil {
		if err := p.LPI.Validate(); err != nil {
			return fmt.Errorf("plate %s: %w", p.ID, err)
		}
	}
	return nil
}
