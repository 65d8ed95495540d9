package event

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/PixPMusic/midit/internal/message"
)

var log = logrus.WithField("component", "events")

// List is an ordered sequence of events. It remembers the pedal press that
// is still waiting for its release so the pedal span can be measured.
type List struct {
	events  []Event
	pending *message.Message
}

// NewList returns an empty list
func NewList() *List {
	return &List{}
}

func (l *List) Add(e Event) {
	l.events = append(l.events, e)
}

// Events returns the stored events. The slice must not be modified.
func (l *List) Events() []Event {
	return l.events
}

func (l *List) Len() int      { return len(l.events) }
func (l *List) IsEmpty() bool { return len(l.events) == 0 }

// Pending returns the pedal press awaiting release, if any
func (l *List) Pending() (message.Message, bool) {
	if l.pending == nil {
		return message.Message{}, false
	}
	return *l.pending, true
}

// StartTime is the earliest event onset, 0 for an empty list
func (l *List) StartTime() float64 {
	if l.IsEmpty() {
		return 0
	}
	start := math.Inf(1)
	for _, e := range l.events {
		start = math.Min(start, e.Time)
	}
	return start
}

// EndTime is the latest event offset, 0 for an empty list
func (l *List) EndTime() float64 {
	if l.IsEmpty() {
		return 0
	}
	end := math.Inf(-1)
	for _, e := range l.events {
		end = math.Max(end, e.Offset())
	}
	return end
}

// BeforeTime returns a new list of the events starting strictly before t
func (l *List) BeforeTime(t float64) *List {
	out := NewList()
	for _, e := range l.events {
		if e.Time < t {
			out.Add(e)
		}
	}
	return out
}

// AfterTime returns a new list of the events starting strictly after t
func (l *List) AfterTime(t float64) *List {
	out := NewList()
	for _, e := range l.events {
		if e.Time > t {
			out.Add(e)
		}
	}
	return out
}

// PedalCount returns the number of sustain pedal events
func (l *List) PedalCount() int {
	count := 0
	for _, e := range l.events {
		if e.Kind == KindSustainPedal {
			count++
		}
	}
	return count
}

// AddPedalEvent appends a sustain pedal span and returns it
func (l *List) AddPedalEvent(time, duration float64, channel, value int) Event {
	e := NewSustainPedal(time, duration, channel, value)
	l.Add(e)
	return e
}

// AddMessage is the entry point for non-note messages. A sustain pedal
// message closes the pending span, if there is one, and starts a new one
// when its value is non-zero; the closed span is returned with ok true.
// Other controllers, program changes, pitch wheel and aftertouch produce a
// zero-duration placeholder that is returned but not stored.
func (l *List) AddMessage(msg message.Message) (e Event, ok bool) {
	if msg.Type == message.ControlChange && msg.Control == message.SustainPedal {
		if l.pending == nil {
			if msg.Value != 0 {
				l.pending = &msg
			} else {
				log.WithField("time", msg.Time).Debug("Pedal released without a press")
			}
			return Event{}, false
		}

		press := *l.pending
		e = l.AddPedalEvent(press.Time, msg.Time-press.Time, press.Channel, press.Value)
		if msg.Value == 0 {
			l.pending = nil
		} else {
			l.pending = &msg
		}
		return e, true
	}

	switch msg.Type {
	case message.ControlChange, message.ProgramChange, message.PitchWheel, message.AfterTouch, message.PolyTouch:
		// Only the sustain pedal is modelled so far.
		return New(msg.Time, 0, msg.Channel), true
	}
	log.WithField("type", msg.Type).Warn("Not an event message")
	return Event{}, false
}

// StopEvents closes a pedal span still held at lastTimestamp
func (l *List) StopEvents(lastTimestamp float64) {
	if l.pending == nil || l.pending.Value == 0 {
		return
	}
	if lastTimestamp-l.pending.Time <= 0 {
		return
	}
	l.AddPedalEvent(l.pending.Time, lastTimestamp-l.pending.Time, l.pending.Channel, l.pending.Value)
	l.pending = nil
}

// FilterCloseEvents keeps only the first and the last pedal event, after
// all other events, so playback does not chatter the pedal back and forth.
func (l *List) FilterCloseEvents() {
	var pedals, others []Event
	for _, e := range l.events {
		if e.Kind == KindSustainPedal {
			pedals = append(pedals, e)
		} else {
			others = append(others, e)
		}
	}
	if len(pedals) > 0 {
		others = append(others, pedals[0])
	}
	if len(pedals) > 1 {
		others = append(others, pedals[len(pedals)-1])
	}
	l.events = others
}

// Stretch scales every onset and duration by factor around origin. A
// pending pedal press moves with the events.
func (l *List) Stretch(origin, factor float64) {
	for i := range l.events {
		e := &l.events[i]
		e.SetOnset(origin + (e.Time-origin)*factor)
		e.Duration *= factor
	}
	if l.pending != nil {
		l.pending.Time = origin + (l.pending.Time-origin)*factor
	}
}

// Shift moves every event and a pending pedal press by shift seconds
func (l *List) Shift(shift float64) {
	for i := range l.events {
		l.events[i].SetOnset(l.events[i].Time + shift)
	}
	if l.pending != nil {
		l.pending.Time += shift
	}
}

// Clone returns an independent copy, including the pending pedal press
func (l *List) Clone() *List {
	c := &List{events: append([]Event(nil), l.events...)}
	if l.pending != nil {
		p := *l.pending
		c.pending = &p
	}
	return c
}
