package event

import (
	"fmt"

	"github.com/PixPMusic/midit/internal/message"
)

// Kind tags the payload carried by an Event
type Kind int

const (
	KindGeneric Kind = iota
	KindControlChange
	KindSustainPedal
)

func (k Kind) String() string {
	switch k {
	case KindControlChange:
		return "ControlChangeEvent"
	case KindSustainPedal:
		return "SustainPedalEvent"
	}
	return "MidiEvent"
}

// Event is a timed MIDI event. Control and Value are only meaningful for
// the control change kinds.
type Event struct {
	Kind     Kind
	Time     float64
	Duration float64
	Channel  int
	Control  int
	Value    int
}

// New returns a generic event. Negative times and durations become 0 and
// channels outside [0, 16) become 0.
func New(time, duration float64, channel int) Event {
	if time < 0 {
		time = 0
	}
	if duration < 0 {
		duration = 0
	}
	if channel < 0 || channel > message.MaxChannel {
		channel = 0
	}
	return Event{Kind: KindGeneric, Time: time, Duration: duration, Channel: channel}
}

// NewControlChange returns a control change held for duration
func NewControlChange(time, duration float64, channel, control, value int) Event {
	e := New(time, duration, channel)
	e.Kind = KindControlChange
	e.Control = control
	e.Value = value
	return e
}

// NewSustainPedal returns a sustain pedal span
func NewSustainPedal(time, duration float64, channel, value int) Event {
	e := NewControlChange(time, duration, channel, message.SustainPedal, value)
	e.Kind = KindSustainPedal
	return e
}

func (e Event) Onset() float64  { return e.Time }
func (e Event) Offset() float64 { return e.Time + e.Duration }

// SetOnset moves the start while keeping the duration
func (e *Event) SetOnset(t float64) {
	e.Time = t
}

// SetOffset changes the duration so that the event ends at t
func (e *Event) SetOffset(t float64) {
	e.Duration = t - e.Time
}

// IsControlChange reports whether the event carries a controller payload
func (e Event) IsControlChange() bool {
	return e.Kind == KindControlChange || e.Kind == KindSustainPedal
}

// Messages returns the control change on message at the onset and the
// value 0 message at the offset. ok is false for generic events.
func (e Event) Messages() (on, off message.Message, ok bool) {
	if !e.IsControlChange() {
		return on, off, false
	}
	on = message.Message{
		Type:    message.ControlChange,
		Time:    e.Time,
		Channel: e.Channel,
		Control: e.Control,
		Value:   e.Value,
	}
	off = on
	off.Time = e.Offset()
	off.Value = 0
	return on, off, true
}

func (e Event) String() string {
	if e.IsControlChange() {
		return fmt.Sprintf("%s: time=%g, duration=%g, channel=%d, control=%d, value=%d",
			e.Kind, e.Time, e.Duration, e.Channel, e.Control, e.Value)
	}
	return fmt.Sprintf("%s: time=%g, duration=%g, channel=%d", e.Kind, e.Time, e.Duration, e.Channel)
}
