// Package midifile converts Standard MIDI Files into note and event lists.
package midifile

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/PixPMusic/midit/internal/event"
	"github.com/PixPMusic/midit/internal/message"
	"github.com/PixPMusic/midit/internal/note"
)

// DefaultBPM is assumed when a file carries no tempo
const DefaultBPM = 120.0

var ErrTimeFormat = errors.New("unsupported time format")

var log = logrus.WithField("component", "midifile")

// ReadFile reads and converts the file at path
func ReadFile(path string) (note.List, *event.List, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Convert(s)
}

// Read reads and converts a file from r
func Read(r io.Reader) (note.List, *event.List, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read midi file: %w", err)
	}
	return Convert(s)
}

// ToNoteList returns the notes of every track, sorted by time
func ToNoteList(s *smf.SMF) (note.List, error) {
	notes, _, err := Convert(s)
	return notes, err
}

// Convert pairs the note_on and note_off messages of every track into notes
// and feeds controller messages into an event list. Times are in seconds at
// the first tempo of the file.
func Convert(s *smf.SMF) (note.List, *event.List, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %v", ErrTimeFormat, s.TimeFormat)
	}
	bpm := firstTempo(s)
	seconds := func(abs uint32) float64 {
		return ticks.Duration(bpm, abs).Seconds()
	}

	var notes note.List
	var controls []message.Message
	for i, track := range s.Tracks {
		entry := log.WithField("track", i)
		var slots [message.MaxPitch + 1]*message.Message
		var abs uint32

		for _, ev := range track {
			abs += ev.Delta
			msg := message.FromMIDI(midi.Message(ev.Message))
			msg.Time = seconds(abs)

			switch {
			case msg.Type == message.NoteOn && msg.Velocity > 0:
				if slots[msg.Note] != nil {
					entry.WithField("message", msg.String()).Warn("Note is already on")
					continue
				}
				slots[msg.Note] = &msg
			case msg.IsNoteEnd():
				onset := slots[msg.Note]
				if onset == nil {
					entry.WithField("message", msg.String()).Warn("Note is already off")
					continue
				}
				slots[msg.Note] = nil
				n, err := note.FromMessages(*onset, msg)
				if err != nil {
					entry.WithField("message", msg.String()).Errorf("Cannot pair note: %v", err)
					continue
				}
				notes.Add(n)
			case msg.IsEvent():
				controls = append(controls, msg)
			}
		}

		for _, onset := range slots {
			if onset != nil {
				entry.WithField("message", onset.String()).Warn("Note is still on at end of track")
			}
		}
	}

	// tracks are independent, so controller messages are merged by time
	sort.SliceStable(controls, func(i, j int) bool { return controls[i].Time < controls[j].Time })
	events := event.NewList()
	for _, msg := range controls {
		events.AddMessage(msg)
	}
	if !notes.IsEmpty() {
		events.StopEvents(notes.EndTime())
	}

	notes.Sort()
	log.WithFields(logrus.Fields{"notes": notes.Len(), "events": events.Len(), "bpm": bpm}).Debug("Converted midi file")
	return notes, events, nil
}

func firstTempo(s *smf.SMF) float64 {
	var (
		found bool
		at    uint32
		bpm   = DefaultBPM
	)
	for _, track := range s.Tracks {
		var abs uint32
		for _, ev := range track {
			abs += ev.Delta
			var tempo float64
			if ev.Message.GetMetaTempo(&tempo) && (!found || abs < at) {
				found, at, bpm = true, abs, tempo
				break
			}
		}
	}
	return bpm
}
