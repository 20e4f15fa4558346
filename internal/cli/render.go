package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/flexoplate-iq/internal/catalog"
	"github.com/Veraticus/flexoplate-iq/internal/engine"
	"github.com/Veraticus/flexoplate-iq/internal/exposure"
	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

var tableHeaderCell = BoldStyle.Foreground(PrimaryColor).PaddingRight(2)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderLeft(false).
		BorderRight(false).
		BorderTop(false).
		BorderBottom(false).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderCell
			}
			return TableCellStyle
		})
}

// PlateSummary is a one-line plate description: thickness, hardness and
// process.
func PlateSummary(p model.Plate) string {
	parts := []string{fmt.Sprintf("%.2fmm", p.ThicknessMM)}
	if p.HardnessShore != nil {
		parts = append(parts, fmt.Sprintf("%.0f Shore A", *p.HardnessShore))
	}
	if p.ProcessType != "" {
		parts = append(parts, string(p.ProcessType))
	}
	if p.SurfaceType != nil && *p.SurfaceType != "" {
		parts = append(parts, *p.SurfaceType)
	}
	return strings.Join(parts, " · ")
}

// RenderEquivalents prints a ranked search result. Verbose output adds
// every match note under each candidate.
func RenderEquivalents(w io.Writer, resp engine.Response, verbose bool) error {
	var b strings.Builder

	b.WriteString(FormatTitle(fmt.Sprintf("Equivalents for %s (%s)", resp.Source.Name(), resp.Source.SupplierName)))
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(PlateSummary(resp.Source)))
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("Profile: %s · showing %d of %d candidates",
		resp.Profile.Name, len(resp.Candidates), resp.TotalCandidates)))
	b.WriteString("\n\n")

	if len(resp.Candidates) == 0 {
		b.WriteString(FormatWarning("No equivalent plates found"))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	t := newTable("#", "Score", "Plate", "Supplier", "Details")
	for i, c := range resp.Candidates {
		score := strconv.Itoa(c.Score)
		if c.Overridden {
			score += " " + OverrideIcon
		}
		t.Row(
			strconv.Itoa(i+1),
			ScoreStyle(c.Score, c.Overridden).Render(score),
			c.Plate.Name(),
			c.Plate.SupplierName,
			PlateSummary(c.Plate),
		)
	}
	b.WriteString(t.String())
	b.WriteString("\n")

	if verbose {
		for i, c := range resp.Candidates {
			b.WriteString("\n")
			b.WriteString(BoldStyle.Render(fmt.Sprintf("%d. %s", i+1, c.Plate.Name())))
			b.WriteString("\n")
			for _, n := range c.Notes {
				b.WriteString("   ")
				b.WriteString(renderNote(n))
				b.WriteString("\n")
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderNote(n model.MatchNote) string {
	switch n.Kind {
	case model.NoteOverride:
		return OverrideStyle.Render(OverrideIcon + " " + n.Text)
	case model.NoteAffirmative:
		return SuccessStyle.Render(SuccessIcon + " " + n.Text)
	case model.NoteCaution:
		return WarningStyle.Render("! " + n.Text)
	default:
		return SubtleStyle.Render("· " + n.Text)
	}
}

// RenderPlates prints a plate listing.
func RenderPlates(w io.Writer, plates []model.Plate) error {
	if len(plates) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No plates match"))
		return err
	}
	t := newTable("ID", "Plate", "Supplier", "Family", "Details")
	for _, p := range plates {
		name := p.Name()
		if !p.IsActive {
			name += SubtleStyle.Render(" (inactive)")
		}
		t.Row(p.ID, name, p.SupplierName, p.FamilyName, PlateSummary(p))
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", t.String(), SubtleStyle.Render(fmt.Sprintf("%d plates", len(plates))))
	return err
}

// RenderPlate prints every known attribute of one plate.
func RenderPlate(w io.Writer, p model.Plate) error {
	rows := [][2]string{
		{"ID", p.ID},
		{"Supplier", p.SupplierName},
		{"Family", p.FamilyName},
		{"SKU", p.SKU},
		{"Thickness", fmt.Sprintf("%.2f mm", p.ThicknessMM)},
	}
	if p.HardnessShore != nil {
		rows = append(rows, [2]string{"Hardness", fmt.Sprintf("%.0f Shore A", *p.HardnessShore)})
	}
	rows = append(rows,
		[2]string{"Process", string(p.ProcessType)},
		[2]string{"Imaging", p.ImagingType},
	)
	if p.SurfaceType != nil {
		rows = append(rows, [2]string{"Surface", *p.SurfaceType})
	}
	if p.LPI != nil {
		rows = append(rows, [2]string{"LPI", fmt.Sprintf("%d-%d", p.LPI.Min, p.LPI.Max)})
	}
	rows = append(rows,
		[2]string{"Inks", strings.Join(p.InkCompatibility, ", ")},
		[2]string{"Substrates", strings.Join(p.Substrates, ", ")},
		[2]string{"Applications", strings.Join(p.Applications, ", ")},
	)
	if e := p.Exposure; e.MainMin != nil && e.MainMax != nil {
		rows = append(rows, [2]string{"Main exposure", fmt.Sprintf("%.0f-%.0f mJ/cm²", *e.MainMin, *e.MainMax)})
	}
	if e := p.Exposure; e.BackMin != nil && e.BackMax != nil {
		rows = append(rows, [2]string{"Back exposure", fmt.Sprintf("%.0f-%.0f mJ/cm²", *e.BackMin, *e.BackMax)})
	}
	if p.OrganizationID != nil {
		rows = append(rows, [2]string{"Organization", *p.OrganizationID})
	}
	if p.Notes != "" {
		rows = append(rows, [2]string{"Notes", p.Notes})
	}

	var b strings.Builder
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Width(14).Render(r[0]), r[1])
	}
	_, err := fmt.Fprintln(w, RenderBox(p.Name(), strings.TrimRight(b.String(), "\n")))
	return err
}

// RenderSuppliers prints the supplier list.
func RenderSuppliers(w io.Writer, suppliers []model.Supplier) error {
	t := newTable("Supplier", "Country", "Website", "Plates")
	for _, s := range suppliers {
		plates := "yes"
		if !s.IsPlateSupplier {
			plates = "no"
		}
		t.Row(s.Name, s.Country, s.WebsiteURL, plates)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

// RenderFamilies prints plate families with their active plate counts.
func RenderFamilies(w io.Writer, families []model.PlateFamily) error {
	t := newTable("Family", "Supplier", "Process", "Plates", "Technology")
	for _, f := range families {
		t.Row(f.Name, f.SupplierName, string(f.ProcessType), strconv.Itoa(f.PlateCount), strings.Join(f.TechnologyTags, ", "))
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

// RenderEquipment prints equipment models. Intensity is blank for machines
// that do not expose plates.
func RenderEquipment(w io.Writer, equipment []model.EquipmentModel) error {
	t := newTable("ID", "Model", "Supplier", "Type", "Technology", "Intensity")
	for _, e := range equipment {
		intensity := ""
		if e.NominalIntensityMWCm2 != nil {
			intensity = fmt.Sprintf("%g mW/cm²", *e.NominalIntensityMWCm2)
		}
		t.Row(e.ID, e.ModelName, e.SupplierName, string(e.EquipmentType), e.Technology, intensity)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

// RenderProfiles prints weight profiles with their weights in canonical
// attribute order.
func RenderProfiles(w io.Writer, profiles []model.WeightProfile) error {
	t := newTable("ID", "Name", "Scope", "Default", "Weights", "Tolerances")
	for _, p := range profiles {
		scope := "global"
		if p.OrganizationID != nil {
			scope = *p.OrganizationID
		}
		def := ""
		if p.IsDefault {
			def = SuccessIcon
		}
		t.Row(p.ID, p.Name, scope, def, formatWeights(p),
			fmt.Sprintf("±%gmm ±%g Shore", p.ThicknessToleranceMM, p.HardnessTolerance))
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func formatWeights(p model.WeightProfile) string {
	parts := make([]string, 0, len(p.Weights))
	for _, a := range model.Attributes {
		if wt, ok := p.Weights[a]; ok && wt > 0 {
			parts = append(parts, fmt.Sprintf("%s=%g", a, wt))
		}
	}
	return strings.Join(parts, " ")
}

// RenderOverrides prints override rules, newest first.
func RenderOverrides(w io.Writer, rules []model.OverrideRule) error {
	if len(rules) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No override rules"))
		return err
	}
	sorted := make([]model.OverrideRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})

	t := newTable("ID", "Source", "Target", "Score", "Confidence", "Notes")
	for _, r := range sorted {
		t.Row(r.ID, r.SourcePlateID, r.TargetPlateID,
			OverrideStyle.Render(strconv.Itoa(r.SimilarityScore)),
			string(r.ConfidenceLevel), r.AdjustmentNotes)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

// RenderExposure prints calculated exposure times.
func RenderExposure(w io.Writer, res exposure.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", SubtleStyle.Render(fmt.Sprintf("%s · %.2fmm · %g mW/cm²",
		res.SupplierName, res.ThicknessMM, res.IntensityMWCm2)))

	steps := []struct {
		value *float64
		rng   *exposure.Range
		label string
	}{
		{label: "Back exposure", value: res.Exposure.BackS, rng: res.Exposure.BackRange},
		{label: "Main exposure", value: res.Exposure.MainS, rng: res.Exposure.MainRange},
		{label: "Post exposure", value: res.Exposure.PostS},
		{label: "Detack", value: res.Exposure.DetackS},
	}
	for _, s := range steps {
		if s.value == nil {
			continue
		}
		line := fmt.Sprintf("%s %s", BoldStyle.Width(14).Render(s.label), formatSeconds(*s.value))
		if s.rng != nil {
			line += SubtleStyle.Render(fmt.Sprintf("  (%s to %s)", formatSeconds(s.rng.Min), formatSeconds(s.rng.Max)))
		}
		b.WriteString(line + "\n")
	}
	for _, n := range res.Notes {
		b.WriteString(FormatInfo(n) + "\n")
	}

	_, err := fmt.Fprintln(w, RenderBox(LampIcon+" "+res.PlateName, strings.TrimRight(b.String(), "\n")))
	return err
}

// RenderScale prints a rescaled exposure time.
func RenderScale(w io.Writer, res exposure.ScaleResult) error {
	direction := "stronger"
	if res.IntensityChangePercent < 0 {
		direction = "weaker"
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n",
		FormatSuccess(fmt.Sprintf("New exposure time: %s", formatSeconds(res.ScaledTimeS))),
		SubtleStyle.Render(fmt.Sprintf("Lamp is %.1f%% %s than the reference (%g → %g mW/cm²)",
			abs(res.IntensityChangePercent), direction, res.ReferenceIntensity, res.CurrentIntensity)))
	return err
}

// RenderImportSummary prints the counts of an import.
func RenderImportSummary(w io.Writer, s catalog.Summary) error {
	summary := fmt.Sprintf("  • Suppliers: %d\n", s.Suppliers) +
		fmt.Sprintf("  • Families: %d\n", s.Families) +
		fmt.Sprintf("  • Plates: %d\n", s.Plates) +
		fmt.Sprintf("  • Profiles: %d\n", s.Profiles) +
		fmt.Sprintf("  • Overrides: %d\n", s.Overrides) +
		fmt.Sprintf("  • Equipment: %d\n", s.Equipment) +
		fmt.Sprintf("  • Time taken: %s", s.Duration.Round(time.Millisecond))
	_, err := fmt.Fprintln(w, RenderBox("Catalog Import Complete", summary))
	return err
}

// formatSeconds renders seconds as "45.5s" or "2m 05.0s".
func formatSeconds(s float64) string {
	if s < 60 {
		return fmt.Sprintf("%.1fs", s)
	}
	m := int(s) / 60
	return fmt.Sprintf("%dm %04.1fs", m, s-float64(m*60))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
