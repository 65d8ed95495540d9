package playback

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/PixPMusic/midit/internal/message"
)

const (
	ccResetControllers = 121
	ccAllSoundOff      = 120
	ccAllNotesOff      = 123
)

func perChannel(controls ...uint8) []midi.Message {
	msgs := make([]midi.Message, 0, (message.MaxChannel+1)*len(controls))
	for ch := uint8(0); ch <= message.MaxChannel; ch++ {
		for _, cc := range controls {
			msgs = append(msgs, midi.ControlChange(ch, cc, 0))
		}
	}
	return msgs
}

// PanicMessages silences every sounding note on all channels
func PanicMessages() []midi.Message {
	return perChannel(ccAllSoundOff, ccAllNotesOff)
}

// ResetMessages resets the controllers of all channels
func ResetMessages() []midi.Message {
	return perChannel(ccResetControllers)
}

// SustainOffMessages releases the sustain pedal on all channels
func SustainOffMessages() []midi.Message {
	msgs := make([]midi.Message, 0, message.MaxChannel+1)
	for ch := uint8(0); ch <= message.MaxChannel; ch++ {
		msgs = append(msgs, midi.ControlChange(ch, message.SustainPedal, 0))
	}
	return msgs
}
