package equivalency

import "errors"

// Sentinel errors returned by the matching engine. Callers should match them
// with errors.Is; the wrapped message carries the detail.
var (
	// ErrInvalidConfig marks a weight profile or override set that cannot be
	// scored. No result accompanies it.
	ErrInvalidConfig = errors.New("invalid equivalency configuration")
	// ErrSourceNotFound is returned when the source plate is neither supplied
	// nor present in the candidate pool.
	ErrSourceNotFound = errors.New("source plate not found")
)
