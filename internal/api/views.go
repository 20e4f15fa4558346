package api

import (
	"github.com/Veraticus/flexoplate-iq/internal/engine"
	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// EquivalentView is one ranked candidate in a search reply.
type EquivalentView struct {
	HardnessShore   *float64               `json:"hardness_shore"`
	SurfaceType     *string                `json:"surface_type"`
	ID              string                 `json:"id"`
	DisplayName     string                 `json:"display_name"`
	SupplierName    string                 `json:"supplier_name"`
	FamilyName      string                 `json:"family_name"`
	ProcessType     model.ProcessType      `json:"process_type"`
	MatchNotes      []string               `json:"match_notes"`
	Attributes      []model.AttributeScore `json:"attribute_scores"`
	ThicknessMM     float64                `json:"thickness_mm"`
	SimilarityScore int                    `json:"similarity_score"`
	Overridden      bool                   `json:"overridden"`
}

// ProfileSummary names the profile a search was scored with.
type ProfileSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FindResponse is the reply of both equivalency endpoints.
type FindResponse struct {
	Profile         ProfileSummary   `json:"profile"`
	SourcePlate     model.Plate      `json:"source_plate"`
	Equivalents     []EquivalentView `json:"equivalents"`
	TotalCandidates int              `json:"total_candidates"`
}

// NewFindResponse flattens an engine response into the wire shape shared
// by the API and `flexo equivalents --json`.
func NewFindResponse(resp engine.Response) FindResponse {
	out := FindResponse{
		SourcePlate:     resp.Source,
		Equivalents:     make([]EquivalentView, 0, len(resp.Candidates)),
		TotalCandidates: resp.TotalCandidates,
		Profile:         ProfileSummary{ID: resp.Profile.ID, Name: resp.Profile.Name},
	}
	for _, c := range resp.Candidates {
		p := c.Plate
		out.Equivalents = append(out.Equivalents, EquivalentView{
			ID:              p.ID,
			DisplayName:     p.Name(),
			SupplierName:    p.SupplierName,
			FamilyName:      p.FamilyName,
			ThicknessMM:     p.ThicknessMM,
			HardnessShore:   p.HardnessShore,
			ProcessType:     p.ProcessType,
			SurfaceType:     p.SurfaceType,
			SimilarityScore: c.Score,
			MatchNotes:      c.NoteTexts(),
			Attributes:      c.Attributes,
			Overridden:      c.Overridden,
		})
	}
	return out
}

// ListResponse wraps collection replies.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}
