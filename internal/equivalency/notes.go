package equivalency

import (
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// evaluation is the score and note for a single attribute, produced in one
// pass so the justification cannot drift from the number.
type evaluation struct {
	note     model.MatchNote
	score    float64
	compared bool
}

func evaluate(attr model.Attribute, source, candidate *model.Plate, profile *model.WeightProfile) evaluation {
	switch attr {
	case model.AttrThickness:
		return evaluateThickness(source, candidate, profile.ThicknessToleranceMM)
	case model.AttrHardness:
		return evaluateHardness(source, candidate, profile.HardnessTolerance)
	case model.AttrProcessType:
		return evaluateCategorical(attr, string(source.ProcessType), string(candidate.ProcessType))
	case model.AttrSurfaceType:
		return evaluateCategorical(attr, deref(source.SurfaceType), deref(candidate.SurfaceType))
	case model.AttrLPIRange:
		return evaluateLPI(source.LPI, candidate.LPI)
	case model.AttrApplication:
		return evaluateSet(attr, source.Applications, candidate.Applications)
	case model.AttrInkCompat:
		return evaluateSet(attr, source.InkCompatibility, candidate.InkCompatibility)
	default:
		return notCompared(attr, "unknown attribute")
	}
}

func evaluateThickness(source, candidate *model.Plate, tol float64) evaluation {
	if source.ThicknessMM <= 0 || candidate.ThicknessMM <= 0 {
		return notCompared(model.AttrThickness, missingSide(source.ThicknessMM <= 0, candidate.ThicknessMM <= 0))
	}

	score := CompareWithTolerance(source.ThicknessMM, candidate.ThicknessMM, tol)
	delta := candidate.ThicknessMM - source.ThicknessMM
	if score == 1.0 {
		return affirmative(model.AttrThickness, score,
			fmt.Sprintf("Thickness within tolerance: %.2fmm vs %.2fmm (Δ%+.2fmm)",
				candidate.ThicknessMM, source.ThicknessMM, delta))
	}
	return caution(model.AttrThickness, score,
		fmt.Sprintf("Thickness difference (%.2fmm) exceeds %.2fmm tolerance: %.2fmm vs %.2fmm",
			math.Abs(delta), tol, candidate.ThicknessMM, source.ThicknessMM))
}

func evaluateHardness(source, candidate *model.Plate, tol float64) evaluation {
	if source.HardnessShore == nil || candidate.HardnessShore == nil {
		return notCompared(model.AttrHardness, missingSide(source.HardnessShore == nil, candidate.HardnessShore == nil))
	}

	s, c := *source.HardnessShore, *candidate.HardnessShore
	score := CompareWithTolerance(s, c, tol)
	if score == 1.0 {
		return affirmative(model.AttrHardness, score,
			fmt.Sprintf("Hardness within tolerance: %.1f vs %.1f Shore A (Δ%+.1f)", c, s, c-s))
	}

	direction := "softer"
	if c > s {
		direction = "harder"
	}
	return caution(model.AttrHardness, score,
		fmt.Sprintf("Significant hardness difference: %.1f Shore A %s (%.1f vs %.1f) - may affect ink transfer",
			math.Abs(c-s), direction, c, s))
}

func evaluateCategorical(attr model.Attribute, source, candidate string) evaluation {
	source, candidate = strings.TrimSpace(source), strings.TrimSpace(candidate)
	if source == "" || candidate == "" {
		return notCompared(attr, missingSide(source == "", candidate == ""))
	}

	label := strings.ToLower(attr.Label())
	if CompareCategorical(source, candidate) == 1.0 {
		return affirmative(attr, 1.0, fmt.Sprintf("Same %s: %s", label, candidate))
	}
	return caution(attr, 0.0, fmt.Sprintf("Different %s: %s vs %s", label, candidate, source))
}

func evaluateLPI(source, candidate *model.LPIRange) evaluation {
	if source == nil || candidate == nil {
		return notCompared(model.AttrLPIRange, missingSide(source == nil, candidate == nil))
	}

	score := CompareRange(source, candidate)
	ranges := fmt.Sprintf("%d-%d vs %d-%d", candidate.Min, candidate.Max, source.Min, source.Max)
	if score >= 0.5 {
		return affirmative(model.AttrLPIRange, score,
			fmt.Sprintf("LPI ranges overlap %.0f%%: %s", score*100, ranges))
	}
	return caution(model.AttrLPIRange, score,
		fmt.Sprintf("Limited LPI overlap (%.0f%%): %s - verify screen ruling compatibility", score*100, ranges))
}

func evaluateSet(attr model.Attribute, source, candidate []string) evaluation {
	score := CompareSets(source, candidate)
	label := strings.ToLower(attr.Label())

	sourceEmpty, candidateEmpty := len(tagSet(source)) == 0, len(tagSet(candidate)) == 0
	switch {
	case sourceEmpty && candidateEmpty:
		return affirmative(attr, score, fmt.Sprintf("No %s listed on either plate", label))
	case sourceEmpty:
		return caution(attr, score, fmt.Sprintf("No %s listed on source plate", label))
	case candidateEmpty:
		return caution(attr, score, fmt.Sprintf("No %s listed on candidate plate", label))
	}

	shared := SharedTags(source, candidate)
	if score >= 0.5 {
		return affirmative(attr, score,
			fmt.Sprintf("Shared %s (%.0f%%): %s", label, score*100, strings.Join(shared, ", ")))
	}
	if len(shared) == 0 {
		return caution(attr, score, fmt.Sprintf("No shared %s", label))
	}
	return caution(attr, score,
		fmt.Sprintf("Limited %s overlap (%.0f%%): %s", label, score*100, strings.Join(shared, ", ")))
}

func affirmative(attr model.Attribute, score float64, text string) evaluation {
	return evaluation{
		note:     model.MatchNote{Kind: model.NoteAffirmative, Attribute: attr, Text: text},
		score:    score,
		compared: true,
	}
}

func caution(attr model.Attribute, score float64, text string) evaluation {
	return evaluation{
		note:     model.MatchNote{Kind: model.NoteCaution, Attribute: attr, Text: text},
		score:    score,
		compared: true,
	}
}

func notCompared(attr model.Attribute, reason string) evaluation {
	return evaluation{
		note: model.MatchNote{
			Kind:      model.NoteNotCompared,
			Attribute: attr,
			Text:      fmt.Sprintf("%s not compared: %s", attr.Label(), reason),
		},
		score: Neutral,
	}
}

// overrideNote renders the reviewer's adjustment notes verbatim.
func overrideNote(rule model.OverrideRule) model.MatchNote {
	text := rule.AdjustmentNotes
	if strings.TrimSpace(text) == "" {
		text = "Manual override"
		if rule.ConfidenceLevel != "" {
			text = fmt.Sprintf("Manual override (%s confidence)", rule.ConfidenceLevel)
		}
	}
	return model.MatchNote{Kind: model.NoteOverride, Text: text}
}

func missingSide(source, candidate bool) string {
	switch {
	case source && candidate:
		return "missing on both plates"
	case source:
		return "missing on source plate"
	default:
		return "missing on candidate plate"
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
