package transform

import (
	"github.com/PixPMusic/midit/internal/event"
	"github.com/PixPMusic/midit/internal/note"
)

// Handler defines the interface for applying and validating a transform
type Handler interface {
	// Apply rewrites the lists in place
	Apply(notes note.List, events *event.List, code string) (note.List, error)

	// Validate checks the argument of the transform
	Validate(code string) error
}
