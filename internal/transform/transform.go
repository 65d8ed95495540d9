// Package transform rewrites captured notes and events before they are
// played back.
package transform

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Type names a transform
type Type string

const (
	TypeRetrograde Type = "retrograde"
	TypeTranspose  Type = "transpose"
	TypeStretch    Type = "stretch"
	TypeVelocity   Type = "velocity"
)

// Transform is one step of a chain. Code holds the step's argument in the
// form its handler parses.
type Transform struct {
	ID   string `json:"id"`
	Type Type   `json:"type"`
	Code string `json:"code,omitempty"`
}

// New creates a transform with a generated ID
func New(t Type, code string) Transform {
	return Transform{
		ID:   uuid.New().String(),
		Type: t,
		Code: code,
	}
}

func (t Transform) String() string {
	if t.Code == "" {
		return string(t.Type)
	}
	return fmt.Sprintf("%s=%s", t.Type, t.Code)
}

// Parse reads a comma separated chain such as "retrograde,transpose=12".
// An empty string is an empty chain.
func Parse(chain string) ([]Transform, error) {
	var out []Transform
	for _, step := range strings.Split(chain, ",") {
		step = strings.TrimSpace(step)
		if step == "" {
			continue
		}
		name, code, _ := strings.Cut(step, "=")
		t := New(Type(strings.TrimSpace(name)), strings.TrimSpace(code))
		if t.Type == "" {
			return nil, fmt.Errorf("transform %q: missing name", step)
		}
		out = append(out, t)
	}
	return out, nil
}
