package plates

import (
	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// Fixture ids for the reference catalog.
const (
	FTF114  = "ftf-114"
	FTF170  = "ftf-170"
	FAH284  = "fah-284"
	ACE114  = "ace-114"
	EASY114 = "easy-114"
	EASY170 = "easy-170"
	DFH284  = "dfh-284"
	DSP114  = "dsp-114"
	DSP170  = "dsp-170"
	NXH114  = "nxh-114"
	NXH170  = "nxh-170"
	NXC284  = "nxc-284"
)

// Fixture is a named set of plates.
type Fixture []model.Plate

// Plates returns a copy of the fixture plates.
func (f Fixture) Plates() []model.Plate {
	out := make([]model.Plate, len(f))
	copy(out, f)
	return out
}

// Find returns the plate with the given id.
func (f Fixture) Find(id string) (model.Plate, bool) {
	for _, p := range f {
		if p.ID == id {
			return p, true
		}
	}
	return model.Plate{}, false
}

// Catalog returns a small reference catalog of XSYS, DuPont and Miraclon
// plates with datasheet-like values.
func Catalog() Fixture {
	flexPack := []string{"flexible_packaging", "labels"}
	flexInks := []string{"solvent", "water", "UV"}
	corrInks := []string{"water", "solvent"}

	return Fixture{
		plate(FTF114, "XSYS", "nyloflex FTF", "nyloflex FTF 1.14", model.ProcessSolvent, 1.14, 69, model.SurfaceFlatTop, 133, 200, flexInks, flexPack, 800, 1200),
		plate(FTF170, "XSYS", "nyloflex FTF", "nyloflex FTF 1.70", model.ProcessSolvent, 1.70, 69, model.SurfaceFlatTop, 100, 175, flexInks, []string{"flexible_packaging"}, 900, 1400),
		plate(FAH284, "XSYS", "nyloflex FAH", "nyloflex FAH 2.84", model.ProcessSolvent, 2.84, 78, model.SurfaceRoundTop, 65, 133, corrInks, []string{"corrugated_postprint"}, 1000, 1600),
		plate(ACE114, "XSYS", "nyloflex ACE", "nyloflex ACE 1.14", model.ProcessThermal, 1.14, 67, model.SurfaceFlatTop, 133, 200, flexInks, flexPack, 700, 1100),
		plate(EASY114, "DuPont", "Cyrel EASY", "Cyrel EASY 1.14", model.ProcessThermal, 1.14, 68, model.SurfaceFlatTop, 150, 200, flexInks, flexPack, 750, 1100),
		plate(EASY170, "DuPont", "Cyrel EASY", "Cyrel EASY 1.70", model.ProcessThermal, 1.70, 66, model.SurfaceFlatTop, 100, 150, flexInks, []string{"flexible_packaging"}, 900, 1350),
		plate(DFH284, "DuPont", "Cyrel DFH", "Cyrel DFH 2.84", model.ProcessSolvent, 2.84, 76, model.SurfaceRoundTop, 65, 120, corrInks, []string{"corrugated_postprint"}, 1100, 1700),
		plate(DSP114, "DuPont", "Cyrel DSP", "Cyrel DSP 1.14", model.ProcessSolvent, 1.14, 70, model.SurfaceFlatTop, 133, 200, flexInks, flexPack, 780, 1180),
		plate(DSP170, "DuPont", "Cyrel DSP", "Cyrel DSP 1.70", model.ProcessSolvent, 1.70, 68, model.SurfaceFlatTop, 100, 175, flexInks, []string{"flexible_packaging"}, 880, 1380),
		plate(NXH114, "Miraclon", "FLEXCEL NXH", "FLEXCEL NXH 1.14", model.ProcessSolvent, 1.14, 70, model.SurfaceFlatTop, 150, 200, flexInks, flexPack, 700, 1050),
		plate(NXH170, "Miraclon", "FLEXCEL NXH", "FLEXCEL NXH 1.70", model.ProcessSolvent, 1.70, 70, model.SurfaceFlatTop, 120, 175, flexInks, []string{"flexible_packaging"}, 800, 1200),
		plate(NXC284, "Miraclon", "FLEXCEL NXC", "FLEXCEL NXC 2.84", model.ProcessSolvent, 2.84, 72, model.SurfaceFlatTop, 85, 150, corrInks, []string{"corrugated_preprint", "corrugated_postprint"}, 950, 1450),
	}
}

func plate(id, supplier, family, name string, process model.ProcessType, thickness, hardness float64,
	surface string, minLPI, maxLPI int, inks, apps []string, mainMin, mainMax float64,
) model.Plate {
	backMin, backMax := mainMin/2, mainMax/2
	return model.Plate{
		ID:               id,
		SKU:              id,
		DisplayName:      name,
		SupplierName:     supplier,
		FamilyName:       family,
		ProcessType:      process,
		ThicknessMM:      thickness,
		HardnessShore:    &hardness,
		SurfaceType:      &surface,
		ImagingType:      "digital",
		LPI:              &model.LPIRange{Min: minLPI, Max: maxLPI},
		InkCompatibility: inks,
		Applications:     apps,
		Substrates:       []string{"film", "coated_paper"},
		Exposure: model.ExposureEnergies{
			MainMin: &mainMin,
			MainMax: &mainMax,
			BackMin: &backMin,
			BackMax: &backMax,
		},
		IsActive: true,
	}
}
