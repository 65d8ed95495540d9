package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/PixPMusic/midit/internal/note"
)

type fakeOut struct {
	mu     sync.Mutex
	sent   []midi.Message
	failOn int
	calls  int
	closed bool
}

func (f *fakeOut) Send(msg midi.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls == f.failOn {
		return errors.New("device unplugged")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeOut) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeOut) messages() []midi.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]midi.Message(nil), f.sent...)
}

type fakeOutPorts map[string]*fakeOut

func (f fakeOutPorts) ListOutPorts() []string {
	var names []string
	for name := range f {
		names = append(names, name)
	}
	return names
}

func (f fakeOutPorts) OpenOut(name string) (OutPort, error) {
	out, ok := f[name]
	if !ok {
		return nil, errors.New("no such port")
	}
	return out, nil
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func countNoteMessages(msgs []midi.Message) (on, off int) {
	var ch, key, vel uint8
	for _, m := range msgs {
		switch {
		case m.GetNoteOn(&ch, &key, &vel):
			on++
		case m.GetNoteOff(&ch, &key, &vel):
			off++
		}
	}
	return on, off
}

func TestPlayerSend(t *testing.T) {
	out := &fakeOut{}
	p := NewPlayer(fakeOutPorts{"Synth": out}, time.Second)

	var slept []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	require.True(t, p.SetPort("Synth"))
	assert.Equal(t, "Synth", p.PortName())

	notes := note.List{mustNote(t, 60, 0, 1, 100)}
	require.NoError(t, p.Send(context.Background(), notes, nil))

	sent := out.messages()
	require.Len(t, sent, 2)
	var ch, key, vel uint8
	require.True(t, sent[0].GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(60), key)
	assert.Equal(t, uint8(100), vel)
	assert.Equal(t, []time.Duration{0, time.Second}, slept)
}

func TestPlayerSendWithoutPort(t *testing.T) {
	p := NewPlayer(fakeOutPorts{}, time.Second)
	p.sleep = noSleep

	assert.True(t, p.SetPort("Missing"))
	assert.Empty(t, p.PortName())
	assert.NoError(t, p.Send(context.Background(), note.List{mustNote(t, 60, 0, 1, 100)}, nil))
}

func TestPlayerContinuesAfterFailedSend(t *testing.T) {
	out := &fakeOut{failOn: 1}
	p := NewPlayer(fakeOutPorts{"Synth": out}, time.Second)
	p.sleep = noSleep
	require.True(t, p.SetPort("Synth"))

	notes := note.List{
		mustNote(t, 60, 0, 1, 100),
		mustNote(t, 62, 1, 1, 100),
	}
	require.NoError(t, p.Send(context.Background(), notes, nil))

	on, off := countNoteMessages(out.messages())
	assert.Equal(t, 1, on)
	assert.Equal(t, 2, off)
}

func TestPlayerSendCancelled(t *testing.T) {
	out := &fakeOut{}
	p := NewPlayer(fakeOutPorts{"Synth": out}, time.Second)
	require.True(t, p.SetPort("Synth"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	notes := note.List{mustNote(t, 60, 0, 1, 100)}
	err := p.Send(ctx, notes, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.messages())
}

func TestSetPortTimesOutDuringPlayback(t *testing.T) {
	out := &fakeOut{}
	p := NewPlayer(fakeOutPorts{"Synth": out, "Piano": &fakeOut{}}, 20*time.Millisecond)
	require.True(t, p.SetPort("Synth"))

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p.sleep = func(ctx context.Context, _ time.Duration) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	}

	done := make(chan error)
	go func() {
		done <- p.Send(context.Background(), note.List{mustNote(t, 60, 0, 1, 100)}, nil)
	}()
	<-started

	assert.False(t, p.SetPort("Piano"))
	assert.Equal(t, "Synth", p.PortName())

	close(release)
	require.NoError(t, <-done)

	assert.True(t, p.SetPort("Piano"))
	assert.Equal(t, "Piano", p.PortName())
}

func TestSetPortSilencesOldPort(t *testing.T) {
	synth := &fakeOut{}
	p := NewPlayer(fakeOutPorts{"Synth": synth, "Piano": &fakeOut{}}, time.Second)
	require.True(t, p.SetPort("Synth"))
	require.True(t, p.SetPort("Piano"))

	assert.True(t, synth.closed)
	assert.Len(t, synth.messages(), len(PanicMessages())+len(SustainOffMessages()))
}

func TestCloseAbruptly(t *testing.T) {
	out := &fakeOut{}
	p := NewPlayer(fakeOutPorts{"Synth": out}, time.Second)
	require.True(t, p.SetPort("Synth"))

	p.CloseAbruptly()
	assert.False(t, out.closed)
	assert.Len(t, out.messages(), len(PanicMessages())+len(ResetMessages())+len(SustainOffMessages()))

	p.Close()
	assert.True(t, out.closed)
	assert.Empty(t, p.PortName())
}

func TestCloseSilencesPort(t *testing.T) {
	out := &fakeOut{}
	p := NewPlayer(fakeOutPorts{"Synth": out}, time.Second)
	require.True(t, p.SetPort("Synth"))

	p.Close()
	require.True(t, out.closed)

	var ch, cc, val uint8
	channels := map[uint8]map[uint8]bool{}
	for _, m := range out.messages() {
		require.True(t, m.GetControlChange(&ch, &cc, &val))
		if channels[cc] == nil {
			channels[cc] = map[uint8]bool{}
		}
		channels[cc][ch] = true
	}
	for _, control := range []uint8{ccAllSoundOff, ccAllNotesOff, ccResetControllers, 64} {
		assert.Len(t, channels[control], 16, "controller %d", control)
	}
}

func TestPanicMessagesCoverAllChannels(t *testing.T) {
	var ch, cc, val uint8
	seen := map[uint8]bool{}
	for _, m := range SustainOffMessages() {
		require.True(t, m.GetControlChange(&ch, &cc, &val))
		assert.Equal(t, uint8(64), cc)
		assert.Equal(t, uint8(0), val)
		seen[ch] = true
	}
	assert.Len(t, seen, 16)
	assert.Len(t, PanicMessages(), 32)
	assert.Len(t, ResetMessages(), 16)
}
