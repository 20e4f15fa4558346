package plates

import (
	"testing"

	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// Builder constructs a model.Plate for tests.
type Builder struct {
	t     *testing.T
	plate model.Plate
}

// New starts a plate with the given id. It defaults to an active 1.14mm
// solvent plate so tests only set what they care about.
func New(t *testing.T, id string) *Builder {
	t.Helper()
	return &Builder{
		t: t,
		plate: model.Plate{
			ID:           id,
			DisplayName:  id,
			SupplierName: "Test Supplier",
			ProcessType:  model.ProcessSolvent,
			ThicknessMM:  1.14,
			IsActive:     true,
		},
	}
}

// From starts a builder from an existing plate.
func From(t *testing.T, p model.Plate) *Builder {
	t.Helper()
	return &Builder{t: t, plate: p}
}

// Supplier sets the supplier name.
func (b *Builder) Supplier(name string) *Builder {
	b.plate.SupplierName = name
	return b
}

// Name sets the display name.
func (b *Builder) Name(name string) *Builder {
	b.plate.DisplayName = name
	return b
}

// Family sets the family name.
func (b *Builder) Family(name string) *Builder {
	b.plate.FamilyName = name
	return b
}

// Thickness sets the thickness in millimetres.
func (b *Builder) Thickness(mm float64) *Builder {
	b.plate.ThicknessMM = mm
	return b
}

// Hardness sets the Shore A hardness.
func (b *Builder) Hardness(shore float64) *Builder {
	b.plate.HardnessShore = &shore
	return b
}

// NoHardness clears the hardness.
func (b *Builder) NoHardness() *Builder {
	b.plate.HardnessShore = nil
	return b
}

// Process sets the process type.
func (b *Builder) Process(p model.ProcessType) *Builder {
	b.plate.ProcessType = p
	return b
}

// Surface sets the surface type.
func (b *Builder) Surface(s string) *Builder {
	b.plate.SurfaceType = &s
	return b
}

// LPI sets the screen ruling range.
func (b *Builder) LPI(minLPI, maxLPI int) *Builder {
	b.plate.LPI = &model.LPIRange{Min: minLPI, Max: maxLPI}
	return b
}

// Applications sets the application tags.
func (b *Builder) Applications(apps ...string) *Builder {
	b.plate.Applications = apps
	return b
}

// Inks sets the ink compatibility tags.
func (b *Builder) Inks(inks ...string) *Builder {
	b.plate.InkCompatibility = inks
	return b
}

// Substrates sets the substrate categories.
func (b *Builder) Substrates(subs ...string) *Builder {
	b.plate.Substrates = subs
	return b
}

// Organization makes the plate private to an organization.
func (b *Builder) Organization(id string) *Builder {
	b.plate.OrganizationID = &id
	return b
}

// Inactive marks the plate discontinued.
func (b *Builder) Inactive() *Builder {
	b.plate.IsActive = false
	return b
}

// MainExposure sets the main exposure energy range in mJ/cm².
func (b *Builder) MainExposure(minE, maxE float64) *Builder {
	b.plate.Exposure.MainMin = &minE
	b.plate.Exposure.MainMax = &maxE
	return b
}

// BackExposure sets the back exposure energy range in mJ/cm².
func (b *Builder) BackExposure(minE, maxE float64) *Builder {
	b.plate.Exposure.BackMin = &minE
	b.plate.Exposure.BackMax = &maxE
	return b
}

// Build validates and returns the plate.
func (b *Builder) Build() model.Plate {
	b.t.Helper()
	if err := b.plate.Validate(); err != nil {
		b.t.Fatalf("invalid test plate: %v", err)
	}
	return b.plate
}
