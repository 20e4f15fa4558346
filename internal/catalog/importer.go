package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/flexoplate-iq/internal/common"
	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/service"
)

// idNamespace seeds derived ids. Changing it re-keys every imported plate.
var idNamespace = uuid.MustParse("6f1c2a4e-8b7d-4c1e-9a35-0f2d7e61b9c4")

// PlateID derives the stable id for a plate without an explicit one.
func PlateID(supplier, family, sku string, thicknessMM float64) string {
	key := sku
	if key == "" {
		key = strconv.FormatFloat(thicknessMM, 'f', 3, 64)
	}
	return uuid.NewSHA1(idNamespace, []byte("plate/"+fold(supplier)+"/"+fold(family)+"/"+fold(key))).String()
}

// ProfileID derives the stable id for a named profile in an organization.
func ProfileID(organization, name string) string {
	return uuid.NewSHA1(idNamespace, []byte("profile/"+fold(organization)+"/"+fold(name))).String()
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Summary counts the records written by an import.
type Summary struct {
	Duration  time.Duration
	Suppliers int
	Families  int
	Plates    int
	Profiles  int
	Overrides int
	Equipment int
}

// Importer writes catalog files into storage.
type Importer struct {
	store    service.Storage
	progress io.Writer
}

// NewImporter returns an importer. Progress is drawn to w; pass nil to
// import silently.
func NewImporter(store service.Storage, w io.Writer) *Importer {
	return &Importer{store: store, progress: w}
}

// Import writes every record of f in one transaction. Any failure rolls
// the whole file back.
func (im *Importer) Import(ctx context.Context, f *File) (Summary, error) {
	if f == nil || f.Len() == 0 {
		return Summary{}, common.ErrEmptyCatalog
	}
	start := time.Now()

	tx, err := im.store.BeginTx(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback()
	}()

	bar := im.newProgressBar(f.Len())
	run := importRun{tx: tx, bar: bar, families: make(map[string]familyInfo), plates: make(map[string]string)}

	if err := run.suppliers(ctx, f.Suppliers); err != nil {
		return Summary{}, err
	}
	if err := run.familiesFrom(ctx, f.Families); err != nil {
		return Summary{}, err
	}
	if err := run.platesFrom(ctx, f.Plates); err != nil {
		return Summary{}, err
	}
	if err := run.profiles(ctx, f.Profiles); err != nil {
		return Summary{}, err
	}
	if err := run.overrides(ctx, f.Overrides); err != nil {
		return Summary{}, err
	}
	if err := run.equipment(ctx, f.Equipment); err != nil {
		return Summary{}, err
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("failed to commit import: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	run.summary.Duration = time.Since(start)
	slog.Info("imported catalog",
		"suppliers", run.summary.Suppliers,
		"families", run.summary.Families,
		"plates", run.summary.Plates,
		"profiles", run.summary.Profiles,
		"overrides", run.summary.Overrides,
		"equipment", run.summary.Equipment,
		"duration", run.summary.Duration)
	return run.summary, nil
}

// ImportFile parses and imports the catalog at path.
func (im *Importer) ImportFile(ctx context.Context, path string) (Summary, error) {
	f, err := ParseFile(path)
	if err != nil {
		return Summary{}, err
	}
	return im.Import(ctx, f)
}

// Seed imports the bundled reference catalog.
func (im *Importer) Seed(ctx context.Context) (Summary, error) {
	f, err := Reference()
	if err != nil {
		return Summary{}, fmt.Errorf("reference catalog: %w", err)
	}
	return im.Import(ctx, f)
}

func (im *Importer) newProgressBar(total int) *progressbar.ProgressBar {
	if im.progress == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(im.progress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing catalog...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(im.progress); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

type familyInfo struct {
	id      string
	process model.ProcessType
}

type importRun struct {
	tx       service.Transaction
	bar      *progressbar.ProgressBar
	families map[string]familyInfo
	// plate refs (explicit id or SKU) to stored ids
	plates  map[string]string
	summary Summary
}

func (r *importRun) step() {
	if r.bar == nil {
		return
	}
	if err := r.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

func familyKey(supplier, family string) string {
	return fold(supplier) + "\x00" + fold(family)
}

func (r *importRun) suppliers(ctx context.Context, records []SupplierRecord) error {
	for i, rec := range records {
		s := &model.Supplier{
			Name:            rec.Name,
			WebsiteURL:      rec.WebsiteURL,
			Country:         rec.Country,
			Notes:           rec.Notes,
			IsPlateSupplier: rec.PlateSupplier == nil || *rec.PlateSupplier,
		}
		if err := r.tx.SaveSupplier(ctx, s); err != nil {
			return fmt.Errorf("suppliers[%d] %q: %w", i, rec.Name, err)
		}
		r.summary.Suppliers++
		r.step()
	}
	return nil
}

func (r *importRun) familiesFrom(ctx context.Context, records []FamilyRecord) error {
	for i, rec := range records {
		fam := &model.PlateFamily{
			SupplierName:   rec.Supplier,
			Name:           rec.Name,
			ProcessType:    model.ProcessType(rec.ProcessType),
			Description:    rec.Description,
			TechnologyTags: rec.TechnologyTags,
		}
		if err := r.tx.SavePlateFamily(ctx, fam); err != nil {
			return fmt.Errorf("families[%d] %q: %w", i, rec.Name, err)
		}
		r.families[familyKey(rec.Supplier, rec.Name)] = familyInfo{id: fam.ID, process: fam.ProcessType}
		r.summary.Families++
		r.step()
	}
	return nil
}

func (r *importRun) platesFrom(ctx context.Context, records []PlateRecord) error {
	for i, rec := range records {
		p := plateFromRecord(rec)
		if fam, ok := r.families[familyKey(rec.Supplier, rec.Family)]; ok {
			p.FamilyID = fam.id
			if p.ProcessType == "" {
				p.ProcessType = fam.process
			}
		}
		if err := r.tx.SavePlate(ctx, &p); err != nil {
			return fmt.Errorf("plates[%d] %q: %w", i, p.Name(), err)
		}
		if ref := rec.Ref(); ref != "" {
			r.plates[ref] = p.ID
		}
		r.summary.Plates++
		r.step()
	}
	return nil
}

func plateFromRecord(rec PlateRecord) model.Plate {
	p := model.Plate{
		ID:               rec.ID,
		SKU:              rec.SKU,
		DisplayName:      rec.DisplayName,
		SupplierName:     rec.Supplier,
		FamilyName:       rec.Family,
		ProcessType:      model.ProcessType(rec.ProcessType),
		ImagingType:      rec.ImagingType,
		Notes:            rec.Notes,
		InkCompatibility: rec.Inks,
		Applications:     rec.Applications,
		Substrates:       rec.Substrates,
		ThicknessMM:      rec.ThicknessMM,
		HardnessShore:    rec.HardnessShore,
		Exposure:         rec.Exposure,
		IsActive:         rec.Active == nil || *rec.Active,
	}
	if p.ID == "" {
		p.ID = PlateID(rec.Supplier, rec.Family, rec.SKU, rec.ThicknessMM)
	}
	if rec.SurfaceType != "" {
		surface := rec.SurfaceType
		p.SurfaceType = &surface
	}
	if rec.LPI != nil {
		p.LPI = &model.LPIRange{Min: rec.LPI.Min, Max: rec.LPI.Max}
	}
	if rec.Organization != "" {
		org := rec.Organization
		p.OrganizationID = &org
	}
	return p
}

func (r *importRun) profiles(ctx context.Context, records []ProfileRecord) error {
	for i, rec := range records {
		wp := rec.Profile()
		if err := r.tx.SaveWeightProfile(ctx, &wp); err != nil {
			return fmt.Errorf("profiles[%d] %q: %w", i, rec.Name, err)
		}
		r.summary.Profiles++
		r.step()
	}
	return nil
}

func (r *importRun) overrides(ctx context.Context, records []OverrideRecord) error {
	for i, rec := range records {
		source, err := r.resolvePlate(ctx, rec.Source)
		if err != nil {
			return fmt.Errorf("overrides[%d] source: %w", i, err)
		}
		target, err := r.resolvePlate(ctx, rec.Target)
		if err != nil {
			return fmt.Errorf("overrides[%d] target: %w", i, err)
		}
		confidence := model.ConfidenceLevel(rec.Confidence)
		if confidence == "" {
			confidence = model.ConfidenceMedium
		}
		rule := &model.OverrideRule{
			SourcePlateID:   source,
			TargetPlateID:   target,
			SimilarityScore: rec.Score,
			ConfidenceLevel: confidence,
			AdjustmentNotes: rec.Notes,
			CreatedBy:       rec.CreatedBy,
		}
		if err := r.tx.SaveOverrideRule(ctx, rule); err != nil {
			return fmt.Errorf("overrides[%d]: %w", i, err)
		}
		r.summary.Overrides++
		r.step()
	}
	return nil
}

// resolvePlate maps an override reference to a stored plate id. References
// to plates in the same file win over ids already in the catalog.
func (r *importRun) resolvePlate(ctx context.Context, ref string) (string, error) {
	if id, ok := r.plates[ref]; ok {
		return id, nil
	}
	p, err := r.tx.GetPlate(ctx, ref)
	if err != nil {
		if common.IsNotFound(err) {
			return "", fmt.Errorf("%w: unknown plate %q", ErrInvalidCatalog, ref)
		}
		return "", err
	}
	return p.ID, nil
}

func (r *importRun) equipment(ctx context.Context, records []EquipmentRecord) error {
	for i, rec := range records {
		e := rec.EquipmentModel()
		if err := r.tx.SaveEquipmentModel(ctx, &e); err != nil {
			return fmt.Errorf("equipment[%d] %q: %w", i, rec.Model, err)
		}
		r.summary.Equipment++
		r.step()
	}
	return nil
}
