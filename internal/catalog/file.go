// Package catalog reads plate catalog files and imports them into storage.
//
// A catalog file is YAML with optional suppliers, families, plates,
// profiles and overrides sections. Plates without an explicit id get a
// stable id derived from supplier, family and SKU, so importing the same
// file twice updates rows instead of duplicating them.
package catalog

import (
	_ "embed"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/flexoplate-iq/internal/common"
	"github.com/Veraticus/flexoplate-iq/internal/model"
)

//go:embed reference.yaml
var referenceCatalog []byte

// ErrInvalidCatalog wraps every parse and validation failure.
var ErrInvalidCatalog = errors.New("invalid catalog file")

// File is a parsed catalog document.
type File struct {
	Suppliers []SupplierRecord  `yaml:"suppliers" validate:"dive"`
	Families  []FamilyRecord    `yaml:"families" validate:"dive"`
	Plates    []PlateRecord     `yaml:"plates" validate:"dive"`
	Profiles  []ProfileRecord   `yaml:"profiles" validate:"dive"`
	Overrides []OverrideRecord  `yaml:"overrides" validate:"dive"`
	Equipment []EquipmentRecord `yaml:"equipment" validate:"dive"`
}

// Len is the total number of records.
func (f *File) Len() int {
	return len(f.Suppliers) + len(f.Families) + len(f.Plates) + len(f.Profiles) + len(f.Overrides) + len(f.Equipment)
}

// SupplierRecord describes a plate manufacturer.
type SupplierRecord struct {
	Name       string `yaml:"name" validate:"required"`
	WebsiteURL string `yaml:"website_url" validate:"omitempty,url"`
	Country    string `yaml:"country"`
	Notes      string `yaml:"notes"`
	// Equipment-only suppliers set this to false.
	PlateSupplier *bool `yaml:"plate_supplier"`
}

// FamilyRecord describes a plate family.
type FamilyRecord struct {
	Supplier       string   `yaml:"supplier" validate:"required"`
	Name           string   `yaml:"name" validate:"required"`
	ProcessType    string   `yaml:"process_type" validate:"omitempty,oneof=solvent thermal water_wash"`
	Description    string   `yaml:"description"`
	TechnologyTags []string `yaml:"technology_tags" validate:"dive,required"`
}

// LPIRecord is a screen ruling range.
type LPIRecord struct {
	Min int `yaml:"min" validate:"gte=0"`
	Max int `yaml:"max" validate:"gtefield=Min"`
}

// PlateRecord describes one plate variant.
type PlateRecord struct {
	HardnessShore *float64               `yaml:"hardness_shore" validate:"omitempty,gte=0,lte=100"`
	LPI           *LPIRecord             `yaml:"lpi" validate:"omitempty"`
	Active        *bool                  `yaml:"active"`
	Exposure      model.ExposureEnergies `yaml:"exposure"`
	ID            string                 `yaml:"id"`
	Supplier      string                 `yaml:"supplier" validate:"required"`
	Family        string                 `yaml:"family" validate:"required"`
	SKU           string                 `yaml:"sku"`
	DisplayName   string                 `yaml:"display_name"`
	ProcessType   string                 `yaml:"process_type" validate:"omitempty,oneof=solvent thermal water_wash"`
	ImagingType   string                 `yaml:"imaging_type"`
	SurfaceType   string                 `yaml:"surface_type"`
	Organization  string                 `yaml:"organization_id"`
	Notes         string                 `yaml:"notes"`
	Inks          []string               `yaml:"ink_compatibility" validate:"dive,required"`
	Substrates    []string               `yaml:"substrate_categories" validate:"dive,required"`
	Applications  []string               `yaml:"applications" validate:"dive,required"`
	ThicknessMM   float64                `yaml:"thickness_mm" validate:"gt=0"`
}

// Ref is the key other records use to point at this plate: the explicit
// id when set, otherwise the SKU.
func (p PlateRecord) Ref() string {
	if p.ID != "" {
		return p.ID
	}
	return p.SKU
}

// ProfileRecord describes a weight profile.
type ProfileRecord struct {
	Weights              map[model.Attribute]float64 `yaml:"weights" validate:"required,min=1"`
	Name                 string                      `yaml:"name" validate:"required"`
	Organization         string                      `yaml:"organization_id"`
	HardnessTolerance    float64                     `yaml:"hardness_tolerance" validate:"gt=0"`
	ThicknessToleranceMM float64                     `yaml:"thickness_tolerance_mm" validate:"gt=0"`
	Default              bool                        `yaml:"default"`
}

// Profile converts the record into a weight profile with its stable id.
func (r ProfileRecord) Profile() model.WeightProfile {
	wp := model.WeightProfile{
		ID:                   ProfileID(r.Organization, r.Name),
		Name:                 r.Name,
		Weights:              r.Weights,
		HardnessTolerance:    r.HardnessTolerance,
		ThicknessToleranceMM: r.ThicknessToleranceMM,
		IsDefault:            r.Default,
	}
	if r.Organization != "" {
		org := r.Organization
		wp.OrganizationID = &org
	}
	return wp
}

// OverrideRecord is a reviewer judgment for a plate pair. Source and
// target are plate ids, or SKUs of plates in the same file.
type OverrideRecord struct {
	Source     string `yaml:"source" validate:"required"`
	Target     string `yaml:"target" validate:"required,nefield=Source"`
	Score      int    `yaml:"similarity_score" validate:"gte=0,lte=100"`
	Confidence string `yaml:"confidence" validate:"omitempty,oneof=low medium high verified"`
	Notes      string `yaml:"notes"`
	CreatedBy  string `yaml:"created_by"`
}

// EquipmentRecord is a platemaking machine. Intensity is only meaningful
// for exposure units.
type EquipmentRecord struct {
	Intensity     *float64 `yaml:"nominal_intensity_mw_cm2" validate:"omitempty,gt=0"`
	Supplier      string   `yaml:"supplier" validate:"required"`
	Model         string   `yaml:"model" validate:"required"`
	EquipmentType string   `yaml:"equipment_type" validate:"required,oneof=MAIN_EXPOSURE BACK_EXPOSURE COMBINED_EXPOSURE PROCESSOR_SOLVENT PROCESSOR_THERMAL PROCESSOR_WATER IMAGER DRYER LIGHT_FINISHER"`
	Technology    string   `yaml:"technology"`
	UVSource      string   `yaml:"uv_source_type"`
	DataSourceURL string   `yaml:"data_source_url" validate:"omitempty,url"`
	Notes         string   `yaml:"notes"`
	BackExposure  bool     `yaml:"integrated_back_exposure"`
	Digital       bool     `yaml:"supports_digital_plates"`
	Analog        bool     `yaml:"supports_analog_plates"`
}

// EquipmentModel converts the record for storage.
func (r EquipmentRecord) EquipmentModel() model.EquipmentModel {
	return model.EquipmentModel{
		SupplierName:              r.Supplier,
		ModelName:                 r.Model,
		EquipmentType:             model.EquipmentType(r.EquipmentType),
		Technology:                r.Technology,
		UVSourceType:              r.UVSource,
		NominalIntensityMWCm2:     r.Intensity,
		DataSourceURL:             r.DataSourceURL,
		Notes:                     r.Notes,
		HasIntegratedBackExposure: r.BackExposure,
		SupportsDigitalPlates:     r.Digital,
		SupportsAnalogPlates:      r.Analog,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report yaml field names so errors point at the file.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Parse decodes and validates a catalog document. Unknown keys are
// rejected so typos do not silently drop data.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, common.ErrEmptyCatalog
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if f.Len() == 0 {
		return nil, common.ErrEmptyCatalog
	}
	if err := Validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ParseFile reads a catalog from disk.
func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path) // #nosec G304 -- operator supplied catalog path
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = fh.Close() }()

	f, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Reference returns the bundled reference catalog.
func Reference() (*File, error) {
	return Parse(bytes.NewReader(referenceCatalog))
}

// Validate checks field constraints and cross-record references.
func Validate(f *File) error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	refs := make(map[string]struct{}, len(f.Plates))
	for i, p := range f.Plates {
		ref := p.Ref()
		if ref == "" {
			continue
		}
		if _, dup := refs[ref]; dup {
			return fmt.Errorf("%w: plates[%d]: duplicate plate %q", ErrInvalidCatalog, i, ref)
		}
		refs[ref] = struct{}{}
	}

	for i, p := range f.Profiles {
		for attr := range p.Weights {
			if !attr.IsKnown() {
				return fmt.Errorf("%w: profiles[%d].weights: unknown attribute %q", ErrInvalidCatalog, i, attr)
			}
		}
		// YAML accepts .nan and .inf, which the struct tags let through.
		if err := p.Profile().Validate(); err != nil {
			return fmt.Errorf("%w: profiles[%d] %q: %w", ErrInvalidCatalog, i, p.Name, err)
		}
	}

	for i, e := range f.Equipment {
		m := e.EquipmentModel()
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%w: equipment[%d] %q: %w", ErrInvalidCatalog, i, e.Model, err)
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	// Namespace is File.plates[0].thickness_mm; drop the root type.
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "nefield":
		return field + " must differ from source"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
