package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PixPMusic/midit/internal/event"
	"github.com/PixPMusic/midit/internal/message"
	"github.com/PixPMusic/midit/internal/note"
)

// RetrogradeHandler keeps the rhythm and plays the pitches backwards
type RetrogradeHandler struct{}

func (h *RetrogradeHandler) Apply(notes note.List, _ *event.List, _ string) (note.List, error) {
	return notes.RetrogradePitches(), nil
}

func (h *RetrogradeHandler) Validate(code string) error {
	if code != "" {
		return fmt.Errorf("retrograde takes no argument")
	}
	return nil
}

// TransposeHandler shifts every pitch by a number of semitones
type TransposeHandler struct{}

func (h *TransposeHandler) Apply(notes note.List, _ *event.List, code string) (note.List, error) {
	interval, err := h.parseInterval(code)
	if err != nil {
		return nil, err
	}
	notes.Transpose(interval)
	return notes, nil
}

func (h *TransposeHandler) Validate(code string) error {
	_, err := h.parseInterval(code)
	return err
}

func (h *TransposeHandler) parseInterval(code string) (int, error) {
	if code == "" {
		return 0, fmt.Errorf("empty interval")
	}
	val, err := strconv.Atoi(code)
	if err != nil {
		return 0, fmt.Errorf("invalid interval: %s", code)
	}
	if val < -message.MaxPitch || val > message.MaxPitch {
		return 0, fmt.Errorf("interval out of range: %d", val)
	}
	return val, nil
}

// StretchHandler scales onsets and durations by a factor, events included
type StretchHandler struct{}

func (h *StretchHandler) Apply(notes note.List, events *event.List, code string) (note.List, error) {
	factor, err := h.parseFactor(code)
	if err != nil {
		return nil, err
	}
	start := notes.StartTime()
	if err := notes.Transform(0, factor, 1); err != nil {
		return nil, err
	}
	if events != nil {
		events.Stretch(start, factor)
	}
	return notes, nil
}

func (h *StretchHandler) Validate(code string) error {
	_, err := h.parseFactor(code)
	return err
}

func (h *StretchHandler) parseFactor(code string) (float64, error) {
	if code == "" {
		return 0, fmt.Errorf("empty factor")
	}
	val, err := strconv.ParseFloat(code, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", code)
	}
	if val <= 0 {
		return 0, fmt.Errorf("factor must be positive")
	}
	return val, nil
}

// VelocityHandler compresses velocities into a min:max range
type VelocityHandler struct{}

func (h *VelocityHandler) Apply(notes note.List, _ *event.List, code string) (note.List, error) {
	lo, hi, err := h.parseRange(code)
	if err != nil {
		return nil, err
	}
	if err := notes.CompressVelocity(hi, lo); err != nil {
		return nil, err
	}
	return notes, nil
}

func (h *VelocityHandler) Validate(code string) error {
	_, _, err := h.parseRange(code)
	return err
}

func (h *VelocityHandler) parseRange(code string) (int, int, error) {
	a, b, ok := strings.Cut(code, ":")
	if !ok {
		return 0, 0, fmt.Errorf("expected min:max, got %q", code)
	}
	lo, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minimum: %s", a)
	}
	hi, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid maximum: %s", b)
	}
	if lo < 0 || hi > message.MaxValue || lo > hi {
		return 0, 0, fmt.Errorf("velocity range %d:%d out of bounds", lo, hi)
	}
	return lo, hi, nil
}
