package equivalency

import (
	"fmt"
	"math"
	"sort"

	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// OverrideIndex is a read-only lookup of reviewer overrides keyed by ordered
// plate pair. A nil index has no overrides.
type OverrideIndex struct {
	rules map[model.PlatePair]model.OverrideRule
}

// NewOverrideIndex builds an index, rejecting self pairs, duplicate ordered
// pairs and out of range scores.
func NewOverrideIndex(rules []model.OverrideRule) (*OverrideIndex, error) {
	idx := &OverrideIndex{rules: make(map[model.PlatePair]model.OverrideRule, len(rules))}
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("%w: override %s->%s: %w", ErrInvalidConfig, rule.SourcePlateID, rule.TargetPlateID, err)
		}
		key := rule.Key()
		if _, dup := idx.rules[key]; dup {
			return nil, fmt.Errorf("%w: duplicate override for %s->%s", ErrInvalidConfig, key.Source, key.Target)
		}
		idx.rules[key] = rule
	}
	return idx, nil
}

// Lookup returns the override for the ordered pair, if any.
func (i *OverrideIndex) Lookup(sourceID, targetID string) (model.OverrideRule, bool) {
	if i == nil {
		return model.OverrideRule{}, false
	}
	rule, ok := i.rules[model.PlatePair{Source: sourceID, Target: targetID}]
	return rule, ok
}

// Len returns the number of indexed overrides.
func (i *OverrideIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.rules)
}

// weightedAttribute is an attribute taking part in scoring.
type weightedAttribute struct {
	attr   model.Attribute
	weight float64
}

// Scorer computes composite similarity for one profile and override set. It
// is immutable once built and may be shared between goroutines.
type Scorer struct {
	overrides  *OverrideIndex
	profile    model.WeightProfile
	attributes []weightedAttribute
	total      float64
}

// NewScorer validates the profile and fixes the attribute order used for
// notes: descending weight, ties in canonical attribute order.
func NewScorer(profile model.WeightProfile, overrides *OverrideIndex) (*Scorer, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: profile %q: %w", ErrInvalidConfig, profile.Name, err)
	}

	s := &Scorer{overrides: overrides, profile: profile}
	for _, attr := range model.Attributes {
		w := profile.Weight(attr)
		if w <= 0 {
			continue
		}
		s.attributes = append(s.attributes, weightedAttribute{attr: attr, weight: w})
		s.total += w
	}
	sort.SliceStable(s.attributes, func(i, j int) bool {
		return s.attributes[i].weight > s.attributes[j].weight
	})
	return s, nil
}

// Profile returns the profile the scorer was built with.
func (s *Scorer) Profile() model.WeightProfile {
	return s.profile
}

// Score compares candidate against source. An override for the pair replaces
// the composite score; attribute notes are still produced after the override
// note.
func (s *Scorer) Score(source, candidate model.Plate) model.ScoredCandidate {
	return s.ScoreFor(source, candidate, Preferences{})
}

// ScoreFor is Score with job preferences. Preference notes follow the
// attribute notes and leave the score untouched.
func (s *Scorer) ScoreFor(source, candidate model.Plate, prefs Preferences) model.ScoredCandidate {
	result := model.ScoredCandidate{
		Plate:      candidate,
		Notes:      make([]model.MatchNote, 0, len(s.attributes)+4),
		Attributes: make([]model.AttributeScore, 0, len(s.attributes)),
	}

	rule, overridden := s.overrides.Lookup(source.ID, candidate.ID)
	if overridden {
		result.Overridden = true
		result.Notes = append(result.Notes, overrideNote(rule))
	}

	var sum float64
	for _, wa := range s.attributes {
		ev := evaluate(wa.attr, &source, &candidate, &s.profile)
		sum += wa.weight * ev.score
		result.Notes = append(result.Notes, ev.note)
		result.Attributes = append(result.Attributes, model.AttributeScore{
			Attribute: wa.attr,
			Score:     ev.score,
			Weight:    wa.weight,
			Compared:  ev.compared,
		})
	}

	result.Notes = append(result.Notes, preferenceNotes(prefs, &candidate)...)

	if overridden {
		result.Score = rule.SimilarityScore
	} else {
		result.Score = composite(sum, s.total)
	}
	return result
}

// Score is a convenience wrapper that builds a Scorer for a single pair.
func Score(source, candidate model.Plate, profile model.WeightProfile, overrides *OverrideIndex) (model.ScoredCandidate, error) {
	s, err := NewScorer(profile, overrides)
	if err != nil {
		return model.ScoredCandidate{}, err
	}
	return s.Score(source, candidate), nil
}

func composite(sum, total float64) int {
	score := int(math.Round(100 * sum / total))
	return max(0, min(100, score))
}
