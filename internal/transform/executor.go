package transform

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/PixPMusic/midit/internal/event"
	"github.com/PixPMusic/midit/internal/note"
)

// Executor applies transform chains
type Executor struct {
	handlers map[Type]Handler
	log      *logrus.Entry
}

// NewExecutor creates an executor knowing every built-in transform
func NewExecutor() *Executor {
	return &Executor{
		handlers: map[Type]Handler{
			TypeRetrograde: &RetrogradeHandler{},
			TypeTranspose:  &TransposeHandler{},
			TypeStretch:    &StretchHandler{},
			TypeVelocity:   &VelocityHandler{},
		},
		log: logrus.WithField("component", "transform"),
	}
}

// Validate checks every step of a chain before it is used
func (e *Executor) Validate(chain []Transform) error {
	for _, t := range chain {
		handler, ok := e.handlers[t.Type]
		if !ok {
			return fmt.Errorf("unknown transform type: %s", t.Type)
		}
		if err := handler.Validate(t.Code); err != nil {
			return fmt.Errorf("transform %s: %w", t, err)
		}
	}
	return nil
}

// Execute runs the chain on copies of the lists. The arguments are not
// modified.
func (e *Executor) Execute(notes note.List, events *event.List, chain []Transform) (note.List, *event.List, error) {
	notes = notes.Clone()
	if events == nil {
		events = event.NewList()
	} else {
		events = events.Clone()
	}

	for _, t := range chain {
		handler, ok := e.handlers[t.Type]
		if !ok {
			return nil, nil, fmt.Errorf("unknown transform type: %s", t.Type)
		}
		out, err := handler.Apply(notes, events, t.Code)
		if err != nil {
			return nil, nil, fmt.Errorf("transform %s: %w", t, err)
		}
		notes = out
		e.log.WithField("transform", t.String()).Debug("Applied")
	}
	return notes, events, nil
}
