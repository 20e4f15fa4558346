// Package equivalency scores and ranks flexographic plates against a source
// plate. Everything here is pure computation over caller-supplied data and is
// safe for concurrent use.
package equivalency

import (
	"math"
	"strings"

	"golang.org/x/text/cases"

	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// Neutral is the score given when one side of a comparison has no data.
const Neutral = 0.5

// snapScale is the resolution comparisons are rounded to. Catalog values
// are decimal millimetres and Shore A, so 1.70-1.65 must equal 0.05.
const snapScale = 1e9

// snap rounds v to 1/snapScale, absorbing binary float error.
func snap(v float64) float64 {
	return math.Round(v*snapScale) / snapScale
}

// CompareWithTolerance scores two continuous values. Deltas within tol score
// 1.0, then the score falls linearly to 0 at three times the tolerance.
func CompareWithTolerance(source, candidate, tol float64) float64 {
	d, tol := snap(math.Abs(source-candidate)), snap(tol)
	if d <= tol {
		return 1.0
	}
	return math.Max(0, snap(1-(d-tol)/(2*tol)))
}

// CompareCategorical returns 1.0 when both values are equal after trimming and
// case folding, 0.0 otherwise.
func CompareCategorical(a, b string) float64 {
	if normalize(a) == normalize(b) {
		return 1.0
	}
	return 0.0
}

// CompareRange scores two LPI ranges by overlap over union. A missing range
// on either side scores Neutral.
func CompareRange(source, candidate *model.LPIRange) float64 {
	if source == nil || candidate == nil {
		return Neutral
	}

	union := max(source.Max, candidate.Max) - min(source.Min, candidate.Min)
	if union == 0 {
		// Both ranges are the same single ruling.
		return 1.0
	}
	overlap := max(0, min(source.Max, candidate.Max)-max(source.Min, candidate.Min))
	return float64(overlap) / float64(union)
}

// CompareSets returns the Jaccard index of two tag sets. Two empty sets are
// vacuously compatible; exactly one empty set scores 0.
func CompareSets(a, b []string) float64 {
	sa, sb := tagSet(a), tagSet(b)
	switch {
	case len(sa) == 0 && len(sb) == 0:
		return 1.0
	case len(sa) == 0 || len(sb) == 0:
		return 0.0
	}

	intersection := 0
	for tag := range sa {
		if _, ok := sb[tag]; ok {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	return float64(intersection) / float64(union)
}

// SharedTags returns the normalized tags present in both sets, in the order
// they appear in a.
func SharedTags(a, b []string) []string {
	sb := tagSet(b)
	seen := make(map[string]struct{}, len(a))
	var shared []string
	for _, tag := range a {
		n := normalize(tag)
		if _, ok := sb[n]; !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		shared = append(shared, n)
	}
	return shared
}

// normalize trims and case folds a value. A new Caser is built per call
// because Casers carry state and must not be shared between goroutines.
func normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		n := normalize(tag)
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}
