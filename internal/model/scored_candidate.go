package model

import "sort"

// NoteKind classifies a match note for rendering.
type NoteKind string

// Note kinds.
const (
	NoteOverride    NoteKind = "override"
	NoteAffirmative NoteKind = "affirmative"
	NoteCaution     NoteKind = "caution"
	NoteNotCompared NoteKind = "not_compared"
)

// MatchNote is one line of justification attached to a scored candidate.
type MatchNote struct {
	Kind      NoteKind  `json:"kind"`
	Attribute Attribute `json:"attribute,omitempty"`
	Text      string    `json:"text"`
}

// String returns the note text.
func (n MatchNote) String() string {
	return n.Text
}

// AttributeScore records how one attribute contributed to a composite score.
type AttributeScore struct {
	Attribute Attribute `json:"attribute"`
	Score     float64   `json:"score"`
	Weight    float64   `json:"weight"`
	Compared  bool      `json:"compared"`
}

// ScoredCandidate is a candidate plate with its composite score and notes.
type ScoredCandidate struct {
	Notes      []MatchNote      `json:"notes"`
	Attributes []AttributeScore `json:"attributes"`
	Plate      Plate            `json:"plate"`
	Score      int              `json:"similarity_score"`
	Overridden bool             `json:"overridden"`
}

// NoteTexts returns the note texts in order.
func (c ScoredCandidate) NoteTexts() []string {
	texts := make([]string, len(c.Notes))
	for i, n := range c.Notes {
		texts[i] = n.Text
	}
	return texts
}

// AttributeScore returns the recorded score for an attribute.
func (c ScoredCandidate) AttributeScore(a Attribute) (AttributeScore, bool) {
	for _, s := range c.Attributes {
		if s.Attribute == a {
			return s, true
		}
	}
	return AttributeScore{}, false
}

// ScoredCandidates is a slice of ScoredCandidate that sorts deterministically.
type ScoredCandidates []ScoredCandidate

// Len implements sort.Interface.
func (s ScoredCandidates) Len() int {
	return len(s)
}

// Less implements sort.Interface - higher scores come first, ties go to
// supplier name, then display name, then plate id.
func (s ScoredCandidates) Less(i, j int) bool {
	if s[i].Score != s[j].Score {
		return s[i].Score > s[j].Score
	}
	if s[i].Plate.SupplierName != s[j].Plate.SupplierName {
		return s[i].Plate.SupplierName < s[j].Plate.SupplierName
	}
	if s[i].Plate.Name() != s[j].Plate.Name() {
		return s[i].Plate.Name() < s[j].Plate.Name()
	}
	return s[i].Plate.ID < s[j].Plate.ID
}

// Swap implements sort.Interface.
func (s ScoredCandidates) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Sort orders the candidates best first.
func (s ScoredCandidates) Sort() {
	sort.Stable(s)
}

// TopN returns a copy of the first n candidates. The receiver must already
// be sorted.
func (s ScoredCandidates) TopN(n int) ScoredCandidates {
	n = max(0, min(n, len(s)))
	result := make(ScoredCandidates, n)
	copy(result, s[:n])
	return result
}

// AboveThreshold returns the candidates scoring at least threshold, keeping
// their order. The result is never nil.
func (s ScoredCandidates) AboveThreshold(threshold int) ScoredCandidates {
	result := make(ScoredCandidates, 0, len(s))
	for _, c := range s {
		if c.Score >= threshold {
			result = append(result, c)
		}
	}
	return result
}
