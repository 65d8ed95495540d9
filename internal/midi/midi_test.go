package midi

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
)

func TestWithTimeout(t *testing.T) {
	v, err := withTimeout(time.Second, func() int { return 7 })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	block := make(chan struct{})
	defer close(block)
	_, err = withTimeout(10*time.Millisecond, func() []string {
		<-block
		return []string{"late"}
	})
	assert.ErrorIs(t, err, ErrEnumerationTimeout)
}

func TestUnknownPorts(t *testing.T) {
	m := NewManager()

	_, err := m.Listen("no such port", func(midi.Message, int32) {})
	assert.True(t, errors.Is(err, ErrPortNotFound) || errors.Is(err, ErrEnumerationTimeout))

	_, err = m.OpenOut("no such port")
	assert.True(t, errors.Is(err, ErrPortNotFound) || errors.Is(err, ErrEnumerationTimeout))
}

type fakeDriverOut struct {
	closed bool
}

func (f *fakeDriverOut) Close() error {
	f.closed = true
	return nil
}

func TestOutSendAndClose(t *testing.T) {
	var sent []midi.Message
	port := &fakeDriverOut{}
	o := &Out{name: "Synth", send: func(m midi.Message) error {
		sent = append(sent, m)
		return nil
	}}
	o.closer = port.Close

	require.NoError(t, o.Send(midi.NoteOn(0, 60, 100)))
	require.NoError(t, o.Close())
	assert.Equal(t, "Synth", o.Name())
	assert.Len(t, sent, 1)
	assert.True(t, port.closed)
}
