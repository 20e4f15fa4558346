// Package exposure converts supplier-published UV energies into exposure
// times for a measured lamp intensity.
//
// All times are seconds, energies mJ/cm² and intensities mW/cm², so a time
// is simply energy divided by intensity.
package exposure

import (
	"errors"
	"fmt"
	"math"

	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// Calculation errors.
var (
	ErrNonPositiveIntensity = errors.New("intensity must be positive")
	ErrInvalidFloor         = errors.New("target floor must be between zero and the plate thickness")
)

// defaultReliefRatio is the share of thickness assumed as relief when the
// datasheet gives no recommendation.
const defaultReliefRatio = 0.6

// floorAdjustmentGain scales how strongly a thicker floor lengthens back
// exposure.
const floorAdjustmentGain = 0.2

// Range is a min/max time pair in seconds.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Times holds the computed exposure steps. Nil means the plate has no
// published energy for that step.
type Times struct {
	BackS     *float64 `json:"back_exposure_time_s"`
	BackRange *Range   `json:"back_exposure_range_s"`
	MainS     *float64 `json:"main_exposure_time_s"`
	MainRange *Range   `json:"main_exposure_range_s"`
	PostS     *float64 `json:"post_exposure_time_s"`
	DetackS   *float64 `json:"detack_time_s"`
}

// Result is the outcome of Calculate.
type Result struct {
	TargetFloorMM  *float64 `json:"target_floor_mm,omitempty"`
	PlateID        string   `json:"plate_id"`
	PlateName      string   `json:"plate_name"`
	SupplierName   string   `json:"supplier_name"`
	ProcessType    string   `json:"process_type"`
	Notes          []string `json:"notes"`
	Exposure       Times    `json:"exposure"`
	ThicknessMM    float64  `json:"thickness_mm"`
	IntensityMWCm2 float64  `json:"intensity_mw_cm2"`
}

// Calculate derives exposure times for plate at the given intensity. When
// targetFloorMM is set and leaves less relief than recommended, back
// exposure is lengthened proportionally.
func Calculate(plate model.Plate, intensity float64, targetFloorMM *float64) (Result, error) {
	if intensity <= 0 || math.IsNaN(intensity) {
		return Result{}, fmt.Errorf("%w, got %g", ErrNonPositiveIntensity, intensity)
	}
	if targetFloorMM != nil && (*targetFloorMM <= 0 || *targetFloorMM >= plate.ThicknessMM) {
		return Result{}, fmt.Errorf("%w: %gmm for a %.2fmm plate", ErrInvalidFloor, *targetFloorMM, plate.ThicknessMM)
	}

	e := plate.Exposure
	res := Result{
		PlateID:        plate.ID,
		PlateName:      plate.Name(),
		SupplierName:   plate.SupplierName,
		ProcessType:    string(plate.ProcessType),
		ThicknessMM:    plate.ThicknessMM,
		IntensityMWCm2: intensity,
		TargetFloorMM:  targetFloorMM,
	}

	if mid, r, ok := timeRange(e.MainMin, e.MainMax, intensity); ok {
		res.Exposure.MainS = ptr(round1(mid))
		res.Exposure.MainRange = &r
		res.Notes = append(res.Notes, fmt.Sprintf("Main exposure based on %.0f-%.0f mJ/cm²", *e.MainMin, *e.MainMax))
	}

	if mid, r, ok := timeRange(e.BackMin, e.BackMax, intensity); ok {
		if targetFloorMM != nil {
			if factor := floorAdjustment(plate, *targetFloorMM); factor > 1 {
				mid *= factor
				res.Notes = append(res.Notes, fmt.Sprintf("Back exposure adjusted for %gmm floor target", *targetFloorMM))
			}
		}
		res.Exposure.BackS = ptr(round1(mid))
		res.Exposure.BackRange = &r
	}

	if e.Post != nil && *e.Post > 0 {
		res.Exposure.PostS = ptr(round1(*e.Post / intensity))
	}
	if e.Detack != nil && *e.Detack > 0 {
		res.Exposure.DetackS = ptr(round1(*e.Detack / intensity))
	}

	res.Notes = append(res.Notes, fmt.Sprintf("Calculated at %g mW/cm² measured intensity", intensity))
	if plate.ProcessType == model.ProcessThermal {
		res.Notes = append(res.Notes, "Thermal plate - no solvent washout required")
	}
	return res, nil
}

// timeRange returns the midpoint time and the rounded min/max range. It
// reports false unless both energies are published.
func timeRange(minE, maxE *float64, intensity float64) (float64, Range, bool) {
	if minE == nil || maxE == nil || *minE <= 0 || *maxE <= 0 {
		return 0, Range{}, false
	}
	lo := *minE / intensity
	hi := *maxE / intensity
	return (lo + hi) / 2, Range{Min: round1(lo), Max: round1(hi)}, true
}

// floorAdjustment returns the back exposure multiplier for a floor target.
func floorAdjustment(plate model.Plate, targetFloorMM float64) float64 {
	recommended := plate.ThicknessMM * defaultReliefRatio
	if r := plate.Exposure.ReliefRecommendedMM; r != nil && *r > 0 {
		recommended = *r
	}
	relief := plate.ThicknessMM - targetFloorMM
	if relief >= recommended {
		return 1
	}
	return 1 + (recommended-relief)/recommended*floorAdjustmentGain
}

// ScaleResult is the outcome of Scale.
type ScaleResult struct {
	ReferenceTimeS         float64 `json:"reference_time_s"`
	ReferenceIntensity     float64 `json:"reference_intensity_mw_cm2"`
	CurrentIntensity       float64 `json:"current_intensity_mw_cm2"`
	ScaledTimeS            float64 `json:"scaled_time_s"`
	IntensityChangePercent float64 `json:"intensity_change_percent"`
}

// Scale rescales a known-good exposure time to a new lamp intensity. Time
// is inversely proportional to intensity.
func Scale(referenceTimeS, referenceIntensity, currentIntensity float64) (ScaleResult, error) {
	if referenceIntensity <= 0 {
		return ScaleResult{}, fmt.Errorf("reference %w, got %g", ErrNonPositiveIntensity, referenceIntensity)
	}
	if currentIntensity <= 0 {
		return ScaleResult{}, fmt.Errorf("current %w, got %g", ErrNonPositiveIntensity, currentIntensity)
	}
	if referenceTimeS < 0 {
		return ScaleResult{}, fmt.Errorf("reference time must not be negative, got %g", referenceTimeS)
	}

	return ScaleResult{
		ReferenceTimeS:         referenceTimeS,
		ReferenceIntensity:     referenceIntensity,
		CurrentIntensity:       currentIntensity,
		ScaledTimeS:            round1(referenceTimeS * referenceIntensity / currentIntensity),
		IntensityChangePercent: round1((currentIntensity - referenceIntensity) / referenceIntensity * 100),
	}, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func ptr(v float64) *float64 {
	return &v
}
