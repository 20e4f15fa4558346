package tui

import "github.com/Veraticus/flexoplate-iq/internal/engine"

// resultsLoadedMsg replaces the results being browsed.
type resultsLoadedMsg struct {
	response engine.Response
}

// errorMsg reports a failure to the status line.
type errorMsg struct {
	err error
}
