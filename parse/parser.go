package parse

import "github.com/poiesic/measurit/core"

// Parser turns raw file bytes into canonical measurement sections.
// Implementations must be safe for concurrent use.
type Parser interface {
	// Parse extracts sections from the input. Sections failing domain
	// validation are dropped, never returned. A recoverable format mismatch
	// is reported via a sentinel error (ErrNotJSON) so the caller can select
	// another parser.
	Parse(data []byte) ([]*core.MeasurementSection, error)
}
