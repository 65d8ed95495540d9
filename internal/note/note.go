package note

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"

	"github.com/PixPMusic/midit/internal/message"
)

const (
	// DurationFallback replaces non-positive durations given to SetDuration
	DurationFallback = 0.1

	// timeTolerance is the onset difference under which two otherwise equal notes match
	timeTolerance = 1e-4

	// heldFraction is the share of a window a note must cover to count as held into it
	heldFraction = 0.8
)

var (
	ErrPitchRange    = errors.New("note pitch must be an integer between 0 and 127")
	ErrVelocityRange = errors.New("note velocity must be an integer between 0 and 127")
	ErrChannelRange  = errors.New("note channel must be an integer between 0 and 15")
	ErrOnsetMessage  = errors.New("onset message must contain note, time and velocity fields")
	ErrOffsetMessage = errors.New("offset message must contain note and time fields")
	ErrPitchMismatch = errors.New("onset and offset messages must have the same pitch")
)

// Note is a timed pitch with velocity and channel. Times are in seconds.
type Note struct {
	pitch    int
	time     float64
	duration float64
	velocity int
	channel  int

	// Custom carries caller data through JSON round-trips. It is not part of
	// the note identity.
	Custom map[string]any
}

// New builds a note from explicit values. Time and duration are stored as
// given; out-of-range pitch, velocity or channel is rejected.
func New(pitch int, time, duration float64, velocity, channel int) (*Note, error) {
	if pitch < message.MinPitch || pitch > message.MaxPitch {
		return nil, fmt.Errorf("%w: %d", ErrPitchRange, pitch)
	}
	if velocity < 0 || velocity > message.MaxValue {
		return nil, fmt.Errorf("%w: %d", ErrVelocityRange, velocity)
	}
	if channel < 0 || channel > message.MaxChannel {
		return nil, fmt.Errorf("%w: %d", ErrChannelRange, channel)
	}
	return &Note{
		pitch:    pitch,
		time:     time,
		duration: duration,
		velocity: velocity,
		channel:  channel,
		Custom:   map[string]any{},
	}, nil
}

// FromMessages pairs an onset and an offset message into a note
func FromMessages(onset, offset message.Message) (*Note, error) {
	if onset.Type != message.NoteOn || !onset.HasTime() {
		return nil, fmt.Errorf("%w: %s", ErrOnsetMessage, onset)
	}
	if (offset.Type != message.NoteOn && offset.Type != message.NoteOff) || !offset.HasTime() {
		return nil, fmt.Errorf("%w: %s", ErrOffsetMessage, offset)
	}
	if onset.Note != offset.Note {
		return nil, fmt.Errorf("%w: %d != %d", ErrPitchMismatch, onset.Note, offset.Note)
	}
	return New(onset.Note, onset.Time, offset.Time-onset.Time, onset.Velocity, onset.Channel)
}

func (n *Note) Pitch() int        { return n.pitch }
func (n *Note) Time() float64     { return n.time }
func (n *Note) Duration() float64 { return n.duration }
func (n *Note) Velocity() int     { return n.velocity }
func (n *Note) Channel() int      { return n.channel }
func (n *Note) Onset() float64    { return n.time }
func (n *Note) Offset() float64   { return n.time + n.duration }

// PitchClass returns the pitch modulo 12
func (n *Note) PitchClass() int {
	return n.pitch % 12
}

// SetPitch clamps silently: an out-of-range value leaves the pitch unchanged
func (n *Note) SetPitch(pitch int) {
	if pitch >= message.MinPitch && pitch <= message.MaxPitch {
		n.pitch = pitch
	}
}

// SetVelocity rejects values outside [0, 127]
func (n *Note) SetVelocity(velocity int) error {
	if velocity < 0 || velocity > message.MaxValue {
		return fmt.Errorf("%w: %d", ErrVelocityRange, velocity)
	}
	n.velocity = velocity
	return nil
}

// SetChannel rejects values outside [0, 15]
func (n *Note) SetChannel(channel int) error {
	if channel < 0 || channel > message.MaxChannel {
		return fmt.Errorf("%w: %d", ErrChannelRange, channel)
	}
	n.channel = channel
	return nil
}

// SetTime snaps negative times to zero
func (n *Note) SetTime(t float64) {
	// Small negatives come from float rounding; larger ones are snapped too.
	if t < 0 {
		t = 0
	}
	n.time = t
}

// SetOnset is an alias of SetTime
func (n *Note) SetOnset(t float64) {
	n.SetTime(t)
}

// SetDuration replaces non-positive durations with DurationFallback
func (n *Note) SetDuration(d float64) {
	if d > 0 {
		n.duration = d
		return
	}
	n.duration = DurationFallback
}

// Transpose moves the pitch by interval semitones, subject to SetPitch clamping
func (n *Note) Transpose(interval int) {
	n.SetPitch(n.pitch + interval)
}

// ShiftTime moves the onset, snapping results below zero to zero
func (n *Note) ShiftTime(shift float64) {
	n.SetTime(n.time + shift)
}

// OnsetMessage returns the note_on message at the onset
func (n *Note) OnsetMessage() message.Message {
	return message.Message{
		Type:     message.NoteOn,
		Time:     n.time,
		Channel:  n.channel,
		Note:     n.pitch,
		Velocity: n.velocity,
	}
}

// OffsetMessage returns the note_off message at the offset
func (n *Note) OffsetMessage() message.Message {
	return message.Message{
		Type:    message.NoteOff,
		Time:    n.Offset(),
		Channel: n.channel,
		Note:    n.pitch,
	}
}

// description is the identity tuple of a note
type description struct {
	Pitch    int
	Time     float64
	Duration float64
	Velocity int
	Channel  int
}

func (n *Note) description() description {
	return description{n.pitch, n.time, n.duration, n.velocity, n.channel}
}

// Equal matches full field equality, or equal fields apart from onsets
// differing by less than 1e-4
func (n *Note) Equal(o *Note) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.description() == o.description() {
		return true
	}
	return n.pitch == o.pitch && n.duration == o.duration && n.velocity == o.velocity &&
		n.channel == o.channel && math.Abs(n.time-o.time) < timeTolerance
}

// IsHeldIntoSegment reports whether the note covers most of [start, end]:
// either the whole window or more than 80% of it.
func (n *Note) IsHeldIntoSegment(start, end float64) bool {
	if start > end {
		start, end = end, start
	}
	if start == end {
		return n.time <= start && start <= n.Offset()
	}
	if n.time <= start && n.Offset() >= end {
		return true
	}
	overlap := math.Min(end, n.Offset()) - math.Max(start, n.time)
	if overlap <= 0 {
		return false
	}
	return overlap/(end-start) > heldFraction
}

// IsSimultaneous reports whether the note spans the whole of ref
func (n *Note) IsSimultaneous(ref *Note) bool {
	return n.time <= ref.time && n.Offset() >= ref.Offset()
}

// Clone returns an independent copy including the custom payload
func (n *Note) Clone() *Note {
	c := *n
	c.Custom = maps.Clone(n.Custom)
	if c.Custom == nil {
		c.Custom = map[string]any{}
	}
	return &c
}

func (n *Note) String() string {
	return fmt.Sprintf("{pitch: %d, time: %g, duration: %g, velocity: %d, channel: %d}",
		n.pitch, n.time, n.duration, n.velocity, n.channel)
}

// jsonNote is the persisted form of a note
type jsonNote struct {
	Pitch    int            `json:"pitch"`
	Time     float64        `json:"time"`
	Duration float64        `json:"duration"`
	Velocity int            `json:"velocity"`
	Channel  int            `json:"channel"`
	Custom   map[string]any `json:"custom,omitempty"`
}

func (n *Note) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNote{
		Pitch:    n.pitch,
		Time:     n.time,
		Duration: n.duration,
		Velocity: n.velocity,
		Channel:  n.channel,
		Custom:   n.Custom,
	})
}

func (n *Note) UnmarshalJSON(data []byte) error {
	var j jsonNote
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	parsed, err := New(j.Pitch, j.Time, j.Duration, j.Velocity, j.Channel)
	if err != nil {
		return err
	}
	if j.Custom != nil {
		parsed.Custom = j.Custom
	}
	*n = *parsed
	return nil
}
