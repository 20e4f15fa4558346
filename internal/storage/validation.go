// Package storage provides the data persistence layer for the plate catalog.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidSupplier  = errors.New("invalid supplier")
	ErrInvalidFamily    = errors.New("invalid plate family")
	ErrInvalidPlate     = errors.New("invalid plate")
	ErrInvalidProfile   = errors.New("invalid weight profile")
	ErrInvalidOverride  = errors.New("invalid override rule")
	ErrInvalidEquipment = errors.New("invalid equipment model")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateSupplier(supplier *model.Supplier) error {
	if supplier == nil {
		return fmt.Errorf("%w: supplier", ErrNilParameter)
	}
	if strings.TrimSpace(supplier.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidSupplier)
	}
	return nil
}

func validatePlateFamily(family *model.PlateFamily) error {
	if family == nil {
		return fmt.Errorf("%w: family", ErrNilParameter)
	}
	if strings.TrimSpace(family.Name) == "" {
		return fmt.Errorf("%w: missing family name", ErrInvalidFamily)
	}
	if strings.TrimSpace(family.SupplierName) == "" && family.SupplierID == "" {
		return fmt.Errorf("%w: missing supplier", ErrInvalidFamily)
	}
	return nil
}

// validatePlate checks the plate invariants plus the family link storage
// needs. An empty ID is allowed; one is generated on save.
func validatePlate(plate *model.Plate) error {
	if plate == nil {
		return fmt.Errorf("%w: plate", ErrNilParameter)
	}
	check := *plate
	if check.ID == "" {
		check.ID = "new"
	}
	if err := check.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPlate, err)
	}
	if strings.TrimSpace(plate.FamilyName) == "" && plate.FamilyID == "" {
		return fmt.Errorf("%w: missing family", ErrInvalidPlate)
	}
	return nil
}

func validateWeightProfile(profile *model.WeightProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile", ErrNilParameter)
	}
	if strings.TrimSpace(profile.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProfile)
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return nil
}

func validateOverrideRule(rule *model.OverrideRule) error {
	if rule == nil {
		return fmt.Errorf("%w: override rule", ErrNilParameter)
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOverride, err)
	}
	return nil
}

func validateEquipmentModel(equipment *model.EquipmentModel) error {
	if equipment == nil {
		return fmt.Errorf("%w: equipment model", ErrNilParameter)
	}
	if err := equipment.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEquipment, err)
	}
	return nil
}
