package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"

	"github.com/PixPMusic/midit/internal/event"
	"github.com/PixPMusic/midit/internal/message"
	"github.com/PixPMusic/midit/internal/note"
)

const pitchCount = message.MaxPitch + 1

var ErrPitchRange = errors.New("note number out of range")

// Recorder turns a live message stream into a note list and an event list.
// It keeps one slot per pitch holding the note_on still waiting for its
// note_off. All methods are safe for concurrent use so several input ports
// can feed the same recorder.
type Recorder struct {
	mu sync.Mutex

	id     string
	log    *logrus.Entry
	now    func() time.Time
	notes  note.List
	events *event.List

	// slots holds the pending note_on per pitch, nil when the pitch is idle
	slots [pitchCount]*message.Message

	started bool
	first   time.Time
	last    time.Time

	// balance counts note_on minus note_off; non-zero means stuck notes
	balance int
}

// NewRecorder returns an empty recorder with a fresh session ID
func NewRecorder() *Recorder {
	id := uuid.New().String()
	return &Recorder{
		id:     id,
		log:    logrus.WithFields(logrus.Fields{"component": "capture", "session": id}),
		now:    time.Now,
		events: event.NewList(),
	}
}

// ID returns the session ID used in log output
func (r *Recorder) ID() string {
	return r.id
}

// HandleMIDI is the transport callback
func (r *Recorder) HandleMIDI(msg midi.Message, _ int32) {
	r.Handle(message.FromMIDI(msg))
}

// Handle stamps msg relative to the first message of the session and
// applies it. Failures are logged and never stop the session.
func (r *Recorder) Handle(msg message.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			r.log.WithField("message", msg.String()).Errorf("Error while handling message: %v", p)
		}
	}()

	if err := r.handle(msg); err != nil {
		r.log.WithField("message", msg.String()).Errorf("Error while handling message: %v", err)
	}
}

func (r *Recorder) handle(msg message.Message) error {
	now := r.now()
	if !r.started {
		r.started = true
		r.first = now
	}
	r.last = now
	msg.Time = now.Sub(r.first).Seconds()

	switch {
	case msg.Type == message.NoteOn && msg.Velocity > 0:
		return r.noteOn(msg)
	case msg.Type == message.NoteOff:
		return r.noteOff(msg)
	case msg.Type == message.NoteOn:
		if err := checkPitch(msg.Note); err != nil {
			return err
		}
		onset := r.slots[msg.Note]
		if onset == nil {
			r.log.WithField("message", msg.String()).Warn("Note is already off")
			return nil
		}
		msg.Type = message.NoteOff
		msg.Velocity = onset.Velocity
		return r.noteOff(msg)
	case msg.IsEvent():
		r.events.AddMessage(msg)
		return nil
	}
	r.log.WithField("type", msg.Type).Warnf("Unrecognized message type for message %s", msg)
	return nil
}

func (r *Recorder) noteOn(msg message.Message) error {
	if err := checkPitch(msg.Note); err != nil {
		return err
	}
	if r.slots[msg.Note] != nil {
		r.log.WithField("message", msg.String()).Warn("Note is already on")
		return nil
	}
	r.slots[msg.Note] = &msg
	r.balance++
	return nil
}

func (r *Recorder) noteOff(msg message.Message) error {
	if err := checkPitch(msg.Note); err != nil {
		return err
	}
	onset := r.slots[msg.Note]
	if onset == nil {
		r.log.WithField("message", msg.String()).Warn("Note is already off")
		return nil
	}
	r.slots[msg.Note] = nil
	r.balance--
	if !onset.HasTime() {
		r.log.WithField("message", msg.String()).Warn("Note is off before on")
		return nil
	}

	n, err := note.FromMessages(*onset, msg)
	if err != nil {
		return fmt.Errorf("pair note %d: %w", msg.Note, err)
	}
	r.notes.Add(n)
	return nil
}

func checkPitch(pitch int) error {
	if pitch < message.MinPitch || pitch > message.MaxPitch {
		return fmt.Errorf("%w: %d", ErrPitchRange, pitch)
	}
	return nil
}

// Snapshot releases any stuck notes at the time of the last message, then
// returns deep copies the caller owns, sorted and moved so the first note
// starts at zero. Events and a held pedal move by the same amount. The
// recorder keeps its own times until Reset.
func (r *Recorder) Snapshot() (note.List, *event.List) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.balance != 0 {
		r.log.WithField("balance", r.balance).Warn("Releasing stuck notes")
		at := r.last.Sub(r.first).Seconds()
		for pitch, onset := range r.slots {
			if onset == nil {
				continue
			}
			off := message.Message{Type: message.NoteOff, Note: pitch, Channel: onset.Channel, Time: at}
			if err := r.noteOff(off); err != nil {
				r.log.WithField("pitch", pitch).Errorf("Cannot release stuck note: %v", err)
			}
		}
	}

	notes, events := r.notes.Clone(), r.events.Clone()
	notes.Sort()
	shift := -notes.StartTime()
	if notes.IsEmpty() {
		if press, ok := events.Pending(); ok && events.IsEmpty() {
			shift = -press.Time
		} else {
			shift = -events.StartTime()
		}
	}
	notes.ShiftTime(shift)
	events.Shift(shift)
	return notes, events
}

// Reset empties the note list, the event list and the pitch slots. The
// session time anchor is kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notes = nil
	r.events = event.NewList()
	r.slots = [pitchCount]*message.Message{}
	r.balance = 0
}

// HasEvents reports whether anything was captured since the last reset
func (r *Recorder) HasEvents() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return !r.notes.IsEmpty() || !r.events.IsEmpty()
}

// Balance returns the count of note_on minus note_off messages seen
func (r *Recorder) Balance() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.balance
}
