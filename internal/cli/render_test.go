package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/flexoplate-iq/internal/catalog"
	"github.com/Veraticus/flexoplate-iq/internal/engine"
	"github.com/Veraticus/flexoplate-iq/internal/equivalency"
	"github.com/Veraticus/flexoplate-iq/internal/exposure"
	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/testutil/plates"
)

func mustFixture(t *testing.T, id string) model.Plate {
	t.Helper()
	p, ok := plates.Catalog().Find(id)
	require.True(t, ok, "fixture %s", id)
	return p
}

func sampleResponse(t *testing.T) engine.Response {
	t.Helper()
	return engine.Response{
		Result: equivalency.Result{
			Source: mustFixture(t, plates.FTF114),
			Candidates: model.ScoredCandidates{
				{
					Plate:      mustFixture(t, plates.DSP114),
					Score:      92,
					Overridden: true,
					Notes: []model.MatchNote{
						{Kind: model.NoteOverride, Text: "Press trial on film"},
						{Kind: model.NoteAffirmative, Attribute: model.AttrThickness, Text: "Thickness matches exactly"},
					},
				},
				{
					Plate: mustFixture(t, plates.EASY114),
					Score: 71,
					Notes: []model.MatchNote{
						{Kind: model.NoteCaution, Attribute: model.AttrProcessType, Text: "Different process: solvent vs thermal"},
					},
				},
			},
			TotalCandidates: 7,
		},
		Profile: model.DefaultWeightProfile(),
	}
}

func TestRenderEquivalents(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		expected    []string
		notExpected []string
	}{
		{
			name:        "compact",
			expected:    []string{"Equivalents for nyloflex FTF 1.14 (XSYS)", "Profile: Standard", "showing 2 of 7", "Cyrel DSP 1.14", "92 " + OverrideIcon, "71"},
			notExpected: []string{"Press trial on film"},
		},
		{
			name:     "verbose adds notes",
			verbose:  true,
			expected: []string{"1. Cyrel DSP 1.14", "Press trial on film", "Thickness matches exactly", "Different process: solvent vs thermal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, RenderEquivalents(&out, sampleResponse(t), tt.verbose))

			for _, s := range tt.expected {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tt.notExpected {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestRenderEquivalents_NoCandidates(t *testing.T) {
	resp := sampleResponse(t)
	resp.Candidates = nil
	resp.TotalCandidates = 0

	var out bytes.Buffer
	require.NoError(t, RenderEquivalents(&out, resp, false))
	assert.Contains(t, out.String(), "No equivalent plates found")
}

func TestRenderPlates(t *testing.T) {
	inactive := plates.From(t, mustFixture(t, plates.NXH170)).Inactive().Build()

	var out bytes.Buffer
	require.NoError(t, RenderPlates(&out, []model.Plate{mustFixture(t, plates.FTF114), inactive}))

	s := out.String()
	assert.Contains(t, s, plates.FTF114)
	assert.Contains(t, s, "nyloflex FTF 1.14")
	assert.Contains(t, s, "1.14mm · 69 Shore A · solvent · flat_top")
	assert.Contains(t, s, "FLEXCEL NXH 1.70 (inactive)")
	assert.Contains(t, s, "2 plates")

	out.Reset()
	require.NoError(t, RenderPlates(&out, nil))
	assert.Contains(t, out.String(), "No plates match")
}

func TestRenderPlate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RenderPlate(&out, mustFixture(t, plates.NXC284)))

	s := out.String()
	for _, want := range []string{"FLEXCEL NXC 2.84", "Miraclon", "2.84 mm", "72 Shore A", "85-150", "950-1450 mJ/cm²", "corrugated_preprint, corrugated_postprint"} {
		assert.Contains(t, s, want)
	}
	assert.NotContains(t, s, "Organization")
}

func TestPlateSummary(t *testing.T) {
	tests := []struct {
		name  string
		plate model.Plate
		want  string
	}{
		{
			name:  "full",
			plate: plates.New(t, "a").Hardness(70).Surface(model.SurfaceFlatTop).Build(),
			want:  "1.14mm · 70 Shore A · solvent · flat_top",
		},
		{
			name:  "thickness only",
			plate: plates.New(t, "b").NoHardness().Process("").Build(),
			want:  "1.14mm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlateSummary(tt.plate))
		})
	}
}

func TestRenderSuppliersAndProfiles(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RenderSuppliers(&out, []model.Supplier{
		{Name: "XSYS", Country: "DE", IsPlateSupplier: true},
		{Name: "Flint Group", Country: "LU"},
	}))
	assert.Contains(t, out.String(), "XSYS")
	assert.Contains(t, out.String(), "Flint Group")

	org := "acme"
	acme := model.DefaultWeightProfile()
	acme.ID = "acme-profile"
	acme.Name = "Acme Labels"
	acme.OrganizationID = &org
	acme.IsDefault = false

	out.Reset()
	require.NoError(t, RenderProfiles(&out, []model.WeightProfile{model.DefaultWeightProfile(), acme}))
	s := out.String()
	assert.Contains(t, s, "Standard")
	assert.Contains(t, s, "global")
	assert.Contains(t, s, "Acme Labels")
	assert.Contains(t, s, "acme")
	assert.Contains(t, s, "thickness=40 process_type=20 hardness=15")
}

func TestRenderFamilies(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RenderFamilies(&out, []model.PlateFamily{
		{Name: "nyloflex FTF", SupplierName: "XSYS", ProcessType: model.ProcessSolvent, PlateCount: 2, TechnologyTags: []string{"flat_top", "digital"}},
		{Name: "Cyrel EASY", SupplierName: "DuPont", ProcessType: model.ProcessThermal},
	}))

	s := out.String()
	assert.True(t, bytes.Contains(out.Bytes(), []byte("flat_top, digital")))
	assert.Contains(t, s, "Cyrel EASY")
	assert.Contains(t, s, "thermal")
}

func TestRenderEquipment(t *testing.T) {
	intensity := 18.0
	var out bytes.Buffer
	require.NoError(t, RenderEquipment(&out, []model.EquipmentModel{
		{ID: "e1", ModelName: "Catena-E 48", SupplierName: "XSYS", EquipmentType: model.EquipmentCombinedExposure, Technology: "LED", NominalIntensityMWCm2: &intensity},
		{ID: "e2", ModelName: "Cyrel FAST 2000TD", SupplierName: "DuPont", EquipmentType: model.EquipmentProcessorThermal},
	}))

	s := out.String()
	assert.Contains(t, s, "Catena-E 48")
	assert.Contains(t, s, "COMBINED_EXPOSURE")
	assert.Contains(t, s, "18 mW/cm²")
	assert.Contains(t, s, "PROCESSOR_THERMAL")
}

func TestRenderOverrides(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rules := []model.OverrideRule{
		{ID: "older", SourcePlateID: "a", TargetPlateID: "b", SimilarityScore: 40, ConfidenceLevel: model.ConfidenceLow, UpdatedAt: now},
		{ID: "newer", SourcePlateID: "a", TargetPlateID: "c", SimilarityScore: 95, ConfidenceLevel: model.ConfidenceVerified, UpdatedAt: now.Add(time.Hour)},
	}

	var out bytes.Buffer
	require.NoError(t, RenderOverrides(&out, rules))
	s := out.String()
	assert.Less(t, bytes.Index(out.Bytes(), []byte("newer")), bytes.Index(out.Bytes(), []byte("older")))
	assert.Contains(t, s, "verified")
	assert.Equal(t, "older", rules[0].ID, "input must not be reordered")

	out.Reset()
	require.NoError(t, RenderOverrides(&out, nil))
	assert.Contains(t, out.String(), "No override rules")
}

func TestRenderExposure(t *testing.T) {
	plate := mustFixture(t, plates.EASY114)
	res, err := exposure.Calculate(plate, 18, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, RenderExposure(&out, res))
	s := out.String()
	assert.Contains(t, s, "Cyrel EASY 1.14")
	assert.Contains(t, s, "Main exposure")
	assert.Contains(t, s, "Back exposure")
	assert.Contains(t, s, "18 mW/cm²")
	assert.Contains(t, s, "no solvent washout")
	assert.NotContains(t, s, "Detack")
}

func TestRenderScale(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		expected []string
	}{
		{name: "weaker lamp", current: 15, expected: []string{"New exposure time: 1m 12.0s", "25.0% weaker"}},
		{name: "stronger lamp", current: 24, expected: []string{"New exposure time: 45.0s", "20.0% stronger"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := exposure.Scale(54, 20, tt.current)
			require.NoError(t, err)

			var out bytes.Buffer
			require.NoError(t, RenderScale(&out, res))
			for _, s := range tt.expected {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func TestRenderImportSummary(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RenderImportSummary(&out, catalog.Summary{
		Suppliers: 5,
		Families:  8,
		Plates:    15,
		Equipment: 4,
		Duration:  1500 * time.Millisecond,
	}))

	s := out.String()
	assert.Contains(t, s, "Catalog Import Complete")
	assert.Contains(t, s, "Plates: 15")
	assert.Contains(t, s, "Equipment: 4")
	assert.Contains(t, s, "Time taken: 1.5s")
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		want string
		in   float64
	}{
		{in: 0, want: "0.0s"},
		{in: 45.4, want: "45.4s"},
		{in: 60, want: "1m 00.0s"},
		{in: 125.5, want: "2m 05.5s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSeconds(tt.in))
	}
}

func TestWriteJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteJSON(&out, map[string]int{"plates": 3}))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 3, decoded["plates"])
	assert.Contains(t, out.String(), "\n  \"plates\"")
}
