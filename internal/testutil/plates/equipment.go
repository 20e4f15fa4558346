package plates

import "github.com/Veraticus/flexoplate-iq/internal/model"

// Equipment returns a small set of platemaking machines from the fixture
// suppliers, unsorted.
func Equipment() []model.EquipmentModel {
	intensity := func(v float64) *float64 { return &v }
	return []model.EquipmentModel{
		{
			SupplierName:              "XSYS",
			ModelName:                 "Catena-E 48",
			EquipmentType:             model.EquipmentCombinedExposure,
			Technology:                "LED",
			UVSourceType:              "UV-A LED",
			NominalIntensityMWCm2:     intensity(18),
			HasIntegratedBackExposure: true,
			SupportsDigitalPlates:     true,
			SupportsAnalogPlates:      true,
		},
		{
			SupplierName:          "XSYS",
			ModelName:             "Catena-W 48",
			EquipmentType:         model.EquipmentProcessorSolvent,
			SupportsDigitalPlates: true,
			SupportsAnalogPlates:  true,
		},
		{
			SupplierName:          "DuPont",
			ModelName:             "Cyrel 2000 ECLF",
			EquipmentType:         model.EquipmentMainExposure,
			Technology:            "fluorescent",
			UVSourceType:          "UV-A tubes",
			NominalIntensityMWCm2: intensity(16.5),
			SupportsDigitalPlates: true,
			SupportsAnalogPlates:  true,
		},
		{
			SupplierName:          "DuPont",
			ModelName:             "Cyrel FAST 2000TD",
			EquipmentType:         model.EquipmentProcessorThermal,
			SupportsDigitalPlates: true,
		},
		{
			SupplierName:          "Miraclon",
			ModelName:             "FLEXCEL NX Wide 5080",
			EquipmentType:         model.EquipmentImager,
			Technology:            "thermal imaging",
			SupportsDigitalPlates: true,
		},
	}
}
