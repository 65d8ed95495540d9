package message

import (
	"errors"
	"fmt"
	"math"

	"gitlab.com/gomidi/midi/v2"
)

// Type names a raw MIDI message kind
type Type string

const (
	NoteOn        Type = "note_on"
	NoteOff       Type = "note_off"
	ControlChange Type = "control_change"
	ProgramChange Type = "program_change"
	PitchWheel    Type = "pitchwheel"
	AfterTouch    Type = "aftertouch"
	PolyTouch     Type = "polytouch"
	Unknown       Type = "unknown"
)

// MIDI value ranges
const (
	MaxChannel = 15
	MaxValue   = 127
	MinPitch   = 0
	MaxPitch   = 127

	// SustainPedal is the controller number of the damper pedal
	SustainPedal = 64
)

var ErrUnsupported = errors.New("unsupported message type")

// Message is a single timed MIDI message. Which of the value fields are
// meaningful depends on Type. Time is in seconds; NaN means the message was
// never stamped.
type Message struct {
	Type     Type    `json:"type"`
	Time     float64 `json:"time"`
	Channel  int     `json:"channel"`
	Note     int     `json:"note,omitempty"`
	Velocity int     `json:"velocity,omitempty"`
	Control  int     `json:"control,omitempty"`
	Value    int     `json:"value,omitempty"`
	Program  int     `json:"program,omitempty"`
	Pitch    int     `json:"pitch,omitempty"`

	// Raw holds the wire form description for unknown messages
	Raw string `json:"-"`
}

// Unstamped is the time value of a message that carries no timing information
var Unstamped = math.NaN()

// HasTime reports whether the message carries timing information
func (m Message) HasTime() bool {
	return !math.IsNaN(m.Time)
}

// IsNoteEnd reports whether the message releases a note, including the
// note_on with velocity 0 form
func (m Message) IsNoteEnd() bool {
	return m.Type == NoteOff || (m.Type == NoteOn && m.Velocity == 0)
}

// IsEvent reports whether the message belongs in an event list rather than a note list
func (m Message) IsEvent() bool {
	switch m.Type {
	case ControlChange, ProgramChange, AfterTouch, PitchWheel, PolyTouch:
		return true
	}
	return false
}

func (m Message) String() string {
	switch m.Type {
	case NoteOn, NoteOff:
		return fmt.Sprintf("%s channel=%d note=%d velocity=%d time=%g", m.Type, m.Channel, m.Note, m.Velocity, m.Time)
	case ControlChange:
		return fmt.Sprintf("%s channel=%d control=%d value=%d time=%g", m.Type, m.Channel, m.Control, m.Value, m.Time)
	case ProgramChange:
		return fmt.Sprintf("%s channel=%d program=%d time=%g", m.Type, m.Channel, m.Program, m.Time)
	case PitchWheel:
		return fmt.Sprintf("%s channel=%d pitch=%d time=%g", m.Type, m.Channel, m.Pitch, m.Time)
	case AfterTouch:
		return fmt.Sprintf("%s channel=%d value=%d time=%g", m.Type, m.Channel, m.Value, m.Time)
	case PolyTouch:
		return fmt.Sprintf("%s channel=%d note=%d value=%d time=%g", m.Type, m.Channel, m.Note, m.Value, m.Time)
	}
	return fmt.Sprintf("%s %s", m.Type, m.Raw)
}

// FromMIDI converts a wire message. The result has time 0 and must be
// stamped by the caller.
func FromMIDI(msg midi.Message) Message {
	var channel, key, velocity, program uint8
	var relative int16
	var absolute uint16

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		return Message{Type: NoteOn, Channel: int(channel), Note: int(key), Velocity: int(velocity)}
	case msg.GetNoteOff(&channel, &key, &velocity):
		return Message{Type: NoteOff, Channel: int(channel), Note: int(key), Velocity: int(velocity)}
	case msg.GetControlChange(&channel, &key, &velocity):
		return Message{Type: ControlChange, Channel: int(channel), Control: int(key), Value: int(velocity)}
	case msg.GetProgramChange(&channel, &program):
		return Message{Type: ProgramChange, Channel: int(channel), Program: int(program)}
	case msg.GetPitchBend(&channel, &relative, &absolute):
		return Message{Type: PitchWheel, Channel: int(channel), Pitch: int(relative)}
	case msg.GetPolyAfterTouch(&channel, &key, &velocity):
		return Message{Type: PolyTouch, Channel: int(channel), Note: int(key), Value: int(velocity)}
	case msg.GetAfterTouch(&channel, &velocity):
		return Message{Type: AfterTouch, Channel: int(channel), Value: int(velocity)}
	}
	return Message{Type: Unknown, Raw: msg.String()}
}

// MIDI builds the wire form of the message
func (m Message) MIDI() (midi.Message, error) {
	if m.Channel < 0 || m.Channel > MaxChannel {
		return nil, fmt.Errorf("channel %d out of range", m.Channel)
	}
	ch := uint8(m.Channel)

	switch m.Type {
	case NoteOn:
		return midi.NoteOn(ch, data(m.Note), data(m.Velocity)), nil
	case NoteOff:
		return midi.NoteOff(ch, data(m.Note)), nil
	case ControlChange:
		return midi.ControlChange(ch, data(m.Control), data(m.Value)), nil
	case ProgramChange:
		return midi.ProgramChange(ch, data(m.Program)), nil
	case PitchWheel:
		return midi.Pitchbend(ch, int16(m.Pitch)), nil
	case AfterTouch:
		return midi.AfterTouch(ch, data(m.Value)), nil
	case PolyTouch:
		return midi.PolyAfterTouch(ch, data(m.Note), data(m.Value)), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, m.Type)
}

// data clamps a value into the 7 bit data byte range
func data(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > MaxValue {
		return MaxValue
	}
	return uint8(v)
}
