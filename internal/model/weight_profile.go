package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Attribute names a plate property that takes part in equivalency scoring.
type Attribute string

// Scored attributes.
const (
	AttrThickness   Attribute = "thickness"
	AttrProcessType Attribute = "process_type"
	AttrHardness    Attribute = "hardness"
	AttrSurfaceType Attribute = "surface_type"
	AttrLPIRange    Attribute = "lpi_range"
	AttrApplication Attribute = "application"
	AttrInkCompat   Attribute = "ink_compat"
)

// Attributes lists every scored attribute in canonical order. Notes for
// attributes with equal weight follow this order.
var Attributes = []Attribute{
	AttrThickness,
	AttrProcessType,
	AttrHardness,
	AttrSurfaceType,
	AttrLPIRange,
	AttrApplication,
	AttrInkCompat,
}

// Label returns a human readable attribute name.
func (a Attribute) Label() string {
	switch a {
	case AttrThickness:
		return "Thickness"
	case AttrProcessType:
		return "Process type"
	case AttrHardness:
		return "Hardness"
	case AttrSurfaceType:
		return "Surface type"
	case AttrLPIRange:
		return "LPI range"
	case AttrApplication:
		return "Applications"
	case AttrInkCompat:
		return "Ink compatibility"
	default:
		return string(a)
	}
}

// IsKnown reports whether a is one of the scored attributes.
func (a Attribute) IsKnown() bool {
	for _, known := range Attributes {
		if a == known {
			return true
		}
	}
	return false
}

// Profile validation errors.
var (
	ErrZeroTotalWeight      = errors.New("weight profile has zero total weight")
	ErrNegativeWeight       = errors.New("weight profile has a negative weight")
	ErrUnknownAttribute     = errors.New("weight profile references an unknown attribute")
	ErrNonPositiveTolerance = errors.New("tolerance must be greater than zero")
	ErrNonFiniteWeight      = errors.New("weight profile has a weight that is not a finite number")
)

// WeightProfile is a named set of attribute weights and tolerance bands.
// Weights need not sum to 100; scoring normalizes by the total.
type WeightProfile struct {
	CreatedAt            time.Time             `json:"created_at" yaml:"-"`
	OrganizationID       *string               `json:"organization_id,omitempty" yaml:"organization_id,omitempty"`
	Weights              map[Attribute]float64 `json:"weights" yaml:"weights"`
	ID                   string                `json:"id" yaml:"id,omitempty"`
	Name                 string                `json:"name" yaml:"name"`
	HardnessTolerance    float64               `json:"hardness_tolerance" yaml:"hardness_tolerance"`
	ThicknessToleranceMM float64               `json:"thickness_tolerance_mm" yaml:"thickness_tolerance_mm"`
	IsDefault            bool                  `json:"is_default" yaml:"is_default"`
}

// DefaultWeightProfile returns the standard weighting used when an
// organization has not tuned its own.
func DefaultWeightProfile() WeightProfile {
	return WeightProfile{
		Name: "Standard",
		Weights: map[Attribute]float64{
			AttrThickness:   40,
			AttrProcessType: 20,
			AttrHardness:    15,
			AttrSurfaceType: 10,
			AttrLPIRange:    5,
			AttrApplication: 5,
			AttrInkCompat:   5,
		},
		HardnessTolerance:    2.0,
		ThicknessToleranceMM: 0.05,
		IsDefault:            true,
	}
}

// Weight returns the configured weight for an attribute, zero when unset.
func (p WeightProfile) Weight(a Attribute) float64 {
	return p.Weights[a]
}

// TotalWeight sums all attribute weights.
func (p WeightProfile) TotalWeight() float64 {
	var total float64
	for _, w := range p.Weights {
		total += w
	}
	return total
}

// WithWeight returns a copy of the profile with one weight replaced.
func (p WeightProfile) WithWeight(a Attribute, w float64) WeightProfile {
	weights := make(map[Attribute]float64, len(p.Weights)+1)
	for k, v := range p.Weights {
		weights[k] = v
	}
	weights[a] = w
	p.Weights = weights
	return p
}

// Validate checks weights and tolerances.
func (p WeightProfile) Validate() error {
	for attr, w := range p.Weights {
		if !attr.IsKnown() {
			return fmt.Errorf("%w: %q", ErrUnknownAttribute, attr)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: %s=%g", ErrNonFiniteWeight, attr, w)
		}
		if w < 0 {
			return fmt.Errorf("%w: %s=%g", ErrNegativeWeight, attr, w)
		}
	}
	total := p.TotalWeight()
	if math.IsInf(total, 0) {
		return fmt.Errorf("%w: total=%g", ErrNonFiniteWeight, total)
	}
	if !(total > 0) {
		return ErrZeroTotalWeight
	}
	// Written as !(x > 0) so NaN is rejected too.
	if !(p.HardnessTolerance > 0) || math.IsInf(p.HardnessTolerance, 0) {
		return fmt.Errorf("%w: hardness_tolerance=%g", ErrNonPositiveTolerance, p.HardnessTolerance)
	}
	if !(p.ThicknessToleranceMM > 0) || math.IsInf(p.ThicknessToleranceMM, 0) {
		return fmt.Errorf("%w: thickness_tolerance_mm=%g", ErrNonPositiveTolerance, p.ThicknessToleranceMM)
	}
	return nil
}
