package equivalency

import (
	"fmt"
	"strings"

	"github.com/Veraticus/flexoplate-iq/internal/model"
)

// Preferences are optional details of the job a plate is wanted for. They
// add notes to candidates but never change a score.
type Preferences struct {
	Substrate   string `json:"substrate,omitempty"`
	InkSystem   string `json:"ink_system,omitempty"`
	Application string `json:"application,omitempty"`
}

// IsZero reports whether no preference is set.
func (p Preferences) IsZero() bool {
	return strings.TrimSpace(p.Substrate) == "" &&
		strings.TrimSpace(p.InkSystem) == "" &&
		strings.TrimSpace(p.Application) == ""
}

// preferenceNotes checks the candidate's listed substrates, inks and
// applications against the preferences. A candidate that lists nothing for
// a category gets no note for it.
func preferenceNotes(prefs Preferences, candidate *model.Plate) []model.MatchNote {
	if prefs.IsZero() {
		return nil
	}

	var notes []model.MatchNote
	add := func(want string, listed []string, match, miss string) {
		want = strings.TrimSpace(want)
		set := tagSet(listed)
		if want == "" || len(set) == 0 {
			return
		}
		if _, ok := set[normalize(want)]; ok {
			notes = append(notes, model.MatchNote{Kind: model.NoteAffirmative, Text: fmt.Sprintf(match, want)})
			return
		}
		notes = append(notes, model.MatchNote{Kind: model.NoteCaution, Text: fmt.Sprintf(miss, want)})
	}

	add(prefs.Substrate, candidate.Substrates, "Matches substrate: %s", "Not listed for substrate: %s")
	add(prefs.InkSystem, candidate.InkCompatibility, "Compatible with %s inks", "Not listed as compatible with %s inks")
	add(prefs.Application, candidate.Applications, "Suitable for %s", "Not listed as suitable for %s")
	return notes
}
