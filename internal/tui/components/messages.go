package components

import "github.com/Veraticus/flexoplate-iq/internal/model"

// CandidateSelectedMsg is sent when a candidate is opened from the list.
type CandidateSelectedMsg struct {
	Candidate model.ScoredCandidate
	Index     int
}

// BackToListMsg requests to go back to the candidate list.
type BackToListMsg struct{}
