package model

import (
	"errors"
	"fmt"
	"time"
)

// ConfidenceLevel describes how sure the reviewer is about an override.
type ConfidenceLevel string

// Confidence levels.
const (
	ConfidenceLow      ConfidenceLevel = "low"
	ConfidenceMedium   ConfidenceLevel = "medium"
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceVerified ConfidenceLevel = "verified"
)

// IsValid reports whether c is a known confidence level.
func (c ConfidenceLevel) IsValid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh, ConfidenceVerified:
		return true
	}
	return false
}

// Override validation errors.
var (
	ErrSelfPairedOverride   = errors.New("override pairs a plate with itself")
	ErrOverrideScoreRange   = errors.New("override score must be between 0 and 100")
	ErrOverrideMissingPlate = errors.New("override requires source and target plate ids")
)

// OverrideRule is a reviewer-authored similarity judgment for one ordered
// plate pair. It replaces the computed score for that pair.
type OverrideRule struct {
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ID              string          `json:"id"`
	SourcePlateID   string          `json:"source_plate_id"`
	TargetPlateID   string          `json:"target_plate_id"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	AdjustmentNotes string          `json:"adjustment_notes"`
	CreatedBy       string          `json:"created_by,omitempty"`
	SimilarityScore int             `json:"similarity_score"`
}

// Key returns the ordered pair the rule applies to.
func (r OverrideRule) Key() PlatePair {
	return PlatePair{Source: r.SourcePlateID, Target: r.TargetPlateID}
}

// Validate checks the pairing and score invariants.
func (r OverrideRule) Validate() error {
	if r.SourcePlateID == "" || r.TargetPlateID == "" {
		return ErrOverrideMissingPlate
	}
	if r.SourcePlateID == r.TargetPlateID {
		return fmt.Errorf("%w: %s", ErrSelfPairedOverride, r.SourcePlateID)
	}
	if r.SimilarityScore < 0 || r.SimilarityScore > 100 {
		return fmt.Errorf("%w, got %d", ErrOverrideScoreRange, r.SimilarityScore)
	}
	if r.ConfidenceLevel != "" && !r.ConfidenceLevel.IsValid() {
		return fmt.Errorf("unknown confidence level %q", r.ConfidenceLevel)
	}
	return nil
}

// PlatePair is an ordered (source, target) plate id pair.
type PlatePair struct {
	Source string
	Target string
}
