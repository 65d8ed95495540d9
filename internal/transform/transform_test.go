package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PixPMusic/midit/internal/event"
	"github.com/PixPMusic/midit/internal/note"
)

func phrase(t *testing.T) note.List {
	t.Helper()
	var l note.List
	for i, p := range []int{60, 64, 67} {
		n, err := note.New(p, float64(i), 0.5, 100, 0)
		require.NoError(t, err)
		l.Add(n)
	}
	return l
}

func TestParse(t *testing.T) {
	chain, err := Parse(" retrograde , transpose=-12,,stretch=0.5 ")
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, TypeRetrograde, chain[0].Type)
	assert.Equal(t, TypeTranspose, chain[1].Type)
	assert.Equal(t, "-12", chain[1].Code)
	assert.Equal(t, "stretch=0.5", chain[2].String())
	assert.NotEqual(t, chain[0].ID, chain[1].ID)

	chain, err = Parse("")
	require.NoError(t, err)
	assert.Empty(t, chain)

	_, err = Parse("=3")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	e := NewExecutor()

	tests := []struct {
		name  string
		chain string
		ok    bool
	}{
		{"retrograde", "retrograde", true},
		{"retrograde with argument", "retrograde=1", false},
		{"transpose", "transpose=7", true},
		{"transpose missing", "transpose", false},
		{"transpose too far", "transpose=300", false},
		{"stretch", "stretch=2", true},
		{"stretch zero", "stretch=0", false},
		{"velocity", "velocity=20:100", true},
		{"velocity inverted", "velocity=100:20", false},
		{"velocity malformed", "velocity=20", false},
		{"unknown", "invert", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := Parse(tt.chain)
			require.NoError(t, err)
			err = e.Validate(chain)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestExecuteChain(t *testing.T) {
	notes := phrase(t)
	events := event.NewList()
	events.AddPedalEvent(1, 1, 0, 127)

	chain, err := Parse("retrograde,transpose=12,stretch=2")
	require.NoError(t, err)

	out, outEvents, err := NewExecutor().Execute(notes, events, chain)
	require.NoError(t, err)

	assert.Equal(t, []int{79, 76, 72}, out.Pitches())
	assert.Equal(t, 2.0, out[1].Time())
	assert.Equal(t, 1.0, out[1].Duration())
	assert.Equal(t, 2.0, outEvents.Events()[0].Time)
	assert.Equal(t, 2.0, outEvents.Events()[0].Duration)

	assert.Equal(t, []int{60, 64, 67}, notes.Pitches())
	assert.Equal(t, 1.0, events.Events()[0].Time)
}

func TestExecuteVelocity(t *testing.T) {
	chain, err := Parse("velocity=0:127")
	require.NoError(t, err)

	out, _, err := NewExecutor().Execute(phrase(t), nil, chain)
	require.NoError(t, err)
	for _, n := range out {
		assert.Equal(t, 100, n.Velocity())
	}
}

func TestExecuteUnknown(t *testing.T) {
	_, _, err := NewExecutor().Execute(phrase(t), nil, []Transform{New("invert", "")})
	assert.Error(t, err)
}
