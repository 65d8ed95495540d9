package playback

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/PixPMusic/midit/internal/event"
	"github.com/PixPMusic/midit/internal/message"
	"github.com/PixPMusic/midit/internal/note"
)

var log = logrus.WithField("component", "output")

// Prepare turns a note list and an event list into the message sequence to
// play. The first message has time 0 and every later message carries the
// delay since the previous one. The arguments are not modified.
func Prepare(notes note.List, events *event.List) []message.Message {
	notes = notes.Clone()
	if events == nil {
		events = event.NewList()
	} else {
		events = events.Clone()
	}

	notes.FilterErroneous()
	if notes.IsEmpty() {
		log.Info("No notes to play")
	} else {
		events.StopEvents(notes.EndTime())
	}
	events.FilterCloseEvents()

	return DeltaTimes(AbsoluteMessages(notes, events))
}

// AbsoluteMessages lists the onset and offset of every playable note and
// the on and off messages of every sustain pedal event, sorted by absolute
// time. Notes with an out-of-range pitch, a negative onset or a
// non-positive duration are skipped.
func AbsoluteMessages(notes note.List, events *event.List) []message.Message {
	msgs := make([]message.Message, 0, 2*notes.Len())
	for _, n := range notes {
		entry := log.WithField("note", n.String())
		switch {
		case n.Pitch() < message.MinPitch || n.Pitch() > message.MaxPitch:
			entry.Warn("Note pitch is out of range, skipping note")
			continue
		case n.Time() < 0:
			entry.Warn("Note onset time is negative, skipping note")
			continue
		case n.Duration() <= 0:
			entry.Warn("Note duration is not positive, skipping note")
			continue
		}
		msgs = append(msgs, n.OnsetMessage(), n.OffsetMessage())
	}

	if events != nil {
		for _, e := range events.Events() {
			if e.Kind != event.KindSustainPedal {
				continue
			}
			on, off, _ := e.Messages()
			msgs = append(msgs, on, off)
		}
	}

	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Time < msgs[j].Time })
	return msgs
}

// DeltaTimes rewrites sorted absolute times as delays from the previous
// message. Deltas never go below zero.
func DeltaTimes(msgs []message.Message) []message.Message {
	for i := len(msgs) - 1; i > 0; i-- {
		msgs[i].Time = max(msgs[i].Time-msgs[i-1].Time, 0)
	}
	if len(msgs) > 0 {
		msgs[0].Time = 0
	}
	return msgs
}
