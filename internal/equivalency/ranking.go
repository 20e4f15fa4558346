package equivalency

import (
	"fmt"

	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// Query describes one equivalency search.
type Query struct {
	// Source, when set, is used instead of looking SourceID up in Pool.
	Source         *model.Plate
	SourceID       string
	TargetSupplier string
	Pool           []model.Plate
	Overrides      []model.OverrideRule
	Profile        model.WeightProfile
	Preferences    Preferences
	// Limit caps the returned candidates. Zero or negative means no cap.
	Limit int
	// MinScore drops candidates scoring below it. Zero keeps everything.
	MinScore int
}

// Result is the ranked output of FindEquivalents.
type Result struct {
	Source     model.Plate
	Candidates model.ScoredCandidates
	// TotalCandidates counts candidates at or above MinScore, before Limit
	// was applied.
	TotalCandidates int
}

// FindEquivalents scores every plate in the pool against the source and
// returns them best first. Configuration errors abort the whole query.
func FindEquivalents(q Query) (Result, error) {
	overrides, err := NewOverrideIndex(q.Overrides)
	if err != nil {
		return Result{}, err
	}
	scorer, err := NewScorer(q.Profile, overrides)
	if err != nil {
		return Result{}, err
	}
	return Rank(scorer, q)
}

// Rank is FindEquivalents with a prebuilt scorer. q.Profile and q.Overrides
// are ignored.
func Rank(scorer *Scorer, q Query) (Result, error) {
	source, ok := resolveSource(q)
	if !ok {
		if len(q.Pool) == 0 {
			return Result{Candidates: model.ScoredCandidates{}}, nil
		}
		return Result{}, fmt.Errorf("%w: %s", ErrSourceNotFound, q.SourceID)
	}

	pool := filterPool(q.Pool, source.ID, q.TargetSupplier)
	candidates := make(model.ScoredCandidates, 0, len(pool))
	for i := range pool {
		candidates = append(candidates, scorer.ScoreFor(source, pool[i], q.Preferences))
	}
	candidates.Sort()
	if q.MinScore > 0 {
		candidates = candidates.AboveThreshold(q.MinScore)
	}

	result := Result{
		Source:          source,
		Candidates:      candidates,
		TotalCandidates: len(candidates),
	}
	if q.Limit > 0 && len(candidates) > q.Limit {
		result.Candidates = candidates.TopN(q.Limit)
	}
	return result, nil
}

func resolveSource(q Query) (model.Plate, bool) {
	if q.Source != nil {
		return *q.Source, true
	}
	for _, p := range q.Pool {
		if p.ID == q.SourceID {
			return p, true
		}
	}
	return model.Plate{}, false
}

// filterPool drops the source plate and, when supplier is set, every plate
// from another supplier.
func filterPool(pool []model.Plate, sourceID, supplier string) []model.Plate {
	supplier = normalize(supplier)
	filtered := make([]model.Plate, 0, len(pool))
	for _, p := range pool {
		if p.ID == sourceID {
			continue
		}
		if supplier != "" && normalize(p.SupplierName) != supplier {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}
