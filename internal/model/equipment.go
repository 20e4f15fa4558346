package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// EquipmentType is the role a platemaking machine plays.
type EquipmentType string

// Equipment types.
const (
	EquipmentMainExposure     EquipmentType = "MAIN_EXPOSURE"
	EquipmentBackExposure     EquipmentType = "BACK_EXPOSURE"
	EquipmentCombinedExposure EquipmentType = "COMBINED_EXPOSURE"
	EquipmentProcessorSolvent EquipmentType = "PROCESSOR_SOLVENT"
	EquipmentProcessorThermal EquipmentType = "PROCESSOR_THERMAL"
	EquipmentProcessorWater   EquipmentType = "PROCESSOR_WATER"
	EquipmentImager           EquipmentType = "IMAGER"
	EquipmentDryer            EquipmentType = "DRYER"
	EquipmentLightFinisher    EquipmentType = "LIGHT_FINISHER"
)

// EquipmentTypes lists every known type.
var EquipmentTypes = []EquipmentType{
	EquipmentMainExposure,
	EquipmentBackExposure,
	EquipmentCombinedExposure,
	EquipmentProcessorSolvent,
	EquipmentProcessorThermal,
	EquipmentProcessorWater,
	EquipmentImager,
	EquipmentDryer,
	EquipmentLightFinisher,
}

// equipmentCategories groups types under the words people search with.
var equipmentCategories = map[string][]EquipmentType{
	"exposure":  {EquipmentMainExposure, EquipmentCombinedExposure, EquipmentBackExposure},
	"processor": {EquipmentProcessorSolvent, EquipmentProcessorThermal, EquipmentProcessorWater},
	"imager":    {EquipmentImager},
	"dryer":     {EquipmentDryer, EquipmentLightFinisher},
}

// ErrUnknownEquipmentType is returned for a type or category that is not
// recognized.
var ErrUnknownEquipmentType = errors.New("unknown equipment type")

// IsKnown reports whether t is one of EquipmentTypes.
func (t EquipmentType) IsKnown() bool {
	for _, known := range EquipmentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseEquipmentTypes resolves a filter value to equipment types. It accepts
// an exact type in any case or a category: exposure, processor, imager,
// dryer. Empty and "all" mean no filter and return nil.
func ParseEquipmentTypes(s string) ([]EquipmentType, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}
	if types, ok := equipmentCategories[strings.ToLower(s)]; ok {
		return append([]EquipmentType(nil), types...), nil
	}
	t := EquipmentType(strings.ToUpper(s))
	if !t.IsKnown() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEquipmentType, s)
	}
	return []EquipmentType{t}, nil
}

// EquipmentModel is a catalog entry for an exposure unit, processor, imager
// or finisher.
type EquipmentModel struct {
	CreatedAt                 time.Time     `json:"created_at"`
	NominalIntensityMWCm2     *float64      `json:"nominal_intensity_mw_cm2,omitempty"`
	ID                        string        `json:"id"`
	SupplierID                string        `json:"supplier_id,omitempty"`
	SupplierName              string        `json:"supplier_name"`
	ModelName                 string        `json:"model_name"`
	EquipmentType             EquipmentType `json:"equipment_type"`
	Technology                string        `json:"technology,omitempty"`
	UVSourceType              string        `json:"uv_source_type,omitempty"`
	DataSourceURL             string        `json:"data_source_url,omitempty"`
	Notes                     string        `json:"notes,omitempty"`
	HasIntegratedBackExposure bool          `json:"has_integrated_back_exposure"`
	SupportsDigitalPlates     bool          `json:"supports_digital_plates"`
	SupportsAnalogPlates      bool          `json:"supports_analog_plates"`
}

// Validate checks the model has a name, a supplier, a known type and a
// usable intensity.
func (e *EquipmentModel) Validate() error {
	if strings.TrimSpace(e.ModelName) == "" {
		return fmt.Errorf("model name is required")
	}
	if strings.TrimSpace(e.SupplierName) == "" && e.SupplierID == "" {
		return fmt.Errorf("supplier is required")
	}
	if !e.EquipmentType.IsKnown() {
		return fmt.Errorf("%w: %q", ErrUnknownEquipmentType, e.EquipmentType)
	}
	if v := e.NominalIntensityMWCm2; v != nil && (!(*v > 0) || math.IsInf(*v, 0)) {
		return fmt.Errorf("nominal intensity must be a positive number, got %g", *v)
	}
	return nil
}

// IsExposureUnit reports whether the model exposes plates to UV.
func (e *EquipmentModel) IsExposureUnit() bool {
	switch e.EquipmentType {
	case EquipmentMainExposure, EquipmentBackExposure, EquipmentCombinedExposure:
		return true
	default:
		return false
	}
}
