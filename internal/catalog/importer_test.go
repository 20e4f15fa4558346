package catalog

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/flexoplate-iq/internal/common"
	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/service"
	"github.com/Veraticus/flexoplate-iq/internal/testutil"
)

// allPlates lists every stored plate, including the acme private ones.
func allPlates(t *testing.T, store service.Storage) []model.Plate {
	t.Helper()
	org := "acme"
	got, err := store.GetPlates(context.Background(), service.PlateFilter{IncludeInactive: true, OrganizationID: &org})
	require.NoError(t, err)
	return got
}

func TestImporter_ImportSmallCatalog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	summary, err := NewImporter(db.Storage, nil).ImportFile(ctx, "testdata/small.yaml")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Suppliers)
	assert.Equal(t, 1, summary.Families)
	assert.Equal(t, 3, summary.Plates)
	assert.Equal(t, 2, summary.Profiles)
	assert.Equal(t, 2, summary.Overrides)
	assert.Equal(t, 2, summary.Equipment)

	ftfID := PlateID("XSYS", "nyloflex FTF", "FTF-114", 1.14)
	ftf := db.MustGetPlate(ftfID)
	assert.Equal(t, model.ProcessSolvent, ftf.ProcessType, "process type comes from the family")
	assert.True(t, ftf.IsActive)
	require.NotNil(t, ftf.SurfaceType)
	assert.Equal(t, model.SurfaceFlatTop, *ftf.SurfaceType)
	assert.Equal(t, []string{"labels"}, ftf.Applications)

	families, err := db.Storage.GetPlateFamilies(ctx, "XSYS")
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, families[0].ID, ftf.FamilyID)
	assert.Equal(t, 1, families[0].PlateCount, "inactive plates are not counted")

	dspID := PlateID("DuPont", "Cyrel DSP", "DSP-114", 1.14)
	dsp := db.MustGetPlate(dspID)
	assert.Equal(t, "DuPont", dsp.SupplierName)
	assert.Equal(t, "Cyrel DSP", dsp.FamilyName)

	private := db.MustGetPlate("acme-ftf")
	assert.False(t, private.IsActive)
	require.NotNil(t, private.OrganizationID)
	assert.Equal(t, "acme", *private.OrganizationID)

	flint, err := db.Storage.GetSupplierByName(ctx, "flint")
	require.NoError(t, err)
	assert.False(t, flint.IsPlateSupplier)

	rules, err := db.Storage.GetOverrideRulesForSource(ctx, ftfID)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, dspID, rules[0].TargetPlateID)
	assert.Equal(t, 92, rules[0].SimilarityScore)
	assert.Equal(t, model.ConfidenceVerified, rules[0].ConfidenceLevel)
	assert.Equal(t, "qa", rules[0].CreatedBy)

	rules, err = db.Storage.GetOverrideRulesForSource(ctx, dspID)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "acme-ftf", rules[0].TargetPlateID)
	assert.Equal(t, model.ConfidenceMedium, rules[0].ConfidenceLevel)

	global, err := db.Storage.GetDefaultWeightProfile(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "Packaging", global.Name)
	assert.Equal(t, ProfileID("", "Packaging"), global.ID)

	acme := "acme"
	scoped, err := db.Storage.GetDefaultWeightProfile(ctx, &acme)
	require.NoError(t, err)
	assert.Equal(t, "Acme", scoped.Name)
}

func TestImporter_ReimportIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	im := NewImporter(db.Storage, nil)

	for i := 0; i < 2; i++ {
		_, err := im.ImportFile(ctx, "testdata/small.yaml")
		require.NoError(t, err)
	}

	assert.Len(t, allPlates(t, db.Storage), 3)
	rules, err := db.Storage.GetOverrideRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 2)
	suppliers, err := db.Storage.GetSuppliers(ctx)
	require.NoError(t, err)
	assert.Len(t, suppliers, 3)
	equipment, err := db.Storage.GetEquipmentModels(ctx, service.EquipmentFilter{})
	require.NoError(t, err)
	assert.Len(t, equipment, 2)
}

func TestImporter_RequiresMigratedSchema(t *testing.T) {
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{SkipMigrations: true})
	ctx := context.Background()
	im := NewImporter(db.Storage, nil)

	_, err := im.ImportFile(ctx, "testdata/small.yaml")
	require.Error(t, err)

	require.NoError(t, db.Storage.Migrate(ctx))
	summary, err := im.ImportFile(ctx, "testdata/small.yaml")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Plates)
}

func TestImporter_FailureRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	_, err := NewImporter(db.Storage, nil).ImportFile(ctx, "testdata/dangling_override.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCatalog)
	assert.Contains(t, err.Error(), `unknown plate "NOPE-999"`)

	assert.Empty(t, allPlates(t, db.Storage))
}

func TestImporter_OverridesResolveStoredPlates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	im := NewImporter(db.Storage, nil)

	_, err := im.Seed(ctx)
	require.NoError(t, err)

	source := PlateID("XSYS", "nyloflex FTF", "FTF-114", 1.14)
	target := PlateID("Miraclon", "FLEXCEL NXH", "NXH-114", 1.14)
	doc := "overrides:\n  - {source: " + source + ", target: " + target + ", similarity_score: 77}\n"

	f, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	summary, err := im.Import(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Overrides)
	assert.Zero(t, summary.Plates)

	rules, err := db.Storage.GetOverrideRulesForSource(ctx, source)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, target, rules[0].TargetPlateID)
}

func TestImporter_Seed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	var progress bytes.Buffer
	summary, err := NewImporter(db.Storage, &progress).Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, summary.Plates)
	assert.Equal(t, 5, summary.Equipment)
	assert.NotEmpty(t, progress.String())

	all := allPlates(t, db.Storage)
	assert.Len(t, all, 15)

	xsys, err := db.Storage.GetPlates(ctx, service.PlateFilter{Supplier: "XSYS"})
	require.NoError(t, err)
	assert.Len(t, xsys, 5)

	thermal, err := db.Storage.GetPlates(ctx, service.PlateFilter{ProcessType: model.ProcessThermal})
	require.NoError(t, err)
	assert.Len(t, thermal, 3)

	// The seeded standard profile stays the global default.
	profile, err := db.Storage.GetDefaultWeightProfile(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "Standard", profile.Name)
}

func TestImporter_EmptyFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, err := NewImporter(db.Storage, nil).Import(context.Background(), &File{})
	assert.ErrorIs(t, err, common.ErrEmptyCatalog)
}

func TestPlateID(t *testing.T) {
	a := PlateID("XSYS", "nyloflex FTF", "FTF-114", 1.14)
	assert.Equal(t, a, PlateID(" xsys", "NYLOFLEX FTF ", "ftf-114", 2.0), "sku wins over thickness and case is ignored")
	assert.NotEqual(t, a, PlateID("XSYS", "nyloflex FTF", "FTF-170", 1.14))
	assert.Equal(t, PlateID("XSYS", "nyloflex FTF", "", 1.14), PlateID("XSYS", "nyloflex FTF", "", 1.140))
	assert.NotEqual(t, PlateID("XSYS", "nyloflex FTF", "", 1.14), PlateID("XSYS", "nyloflex FTF", "", 1.70))
	assert.NotEqual(t, ProfileID("", "Standard"), ProfileID("acme", "Standard"))
}
