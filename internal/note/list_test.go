package note

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// melody is eight ascending quarter notes at half-second spacing
func melody(t *testing.T) List {
	t.Helper()
	var l List
	for i := 0; i < 8; i++ {
		l.Add(mustNote(t, 60+i, float64(i)*0.5, 0.25, 100))
	}
	return l
}

func withSafeMode(t *testing.T, on bool) {
	t.Helper()
	prev := SafeMode()
	SetSafeMode(on)
	t.Cleanup(func() { SetSafeMode(prev) })
}

func TestSpanQueries(t *testing.T) {
	l := melody(t)
	assert.Equal(t, 0.0, l.StartTime())
	assert.Equal(t, 3.75, l.EndTime())
	assert.Equal(t, 3.75, l.Duration())
	start, dur := l.SegmentSpan()
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 3.75, dur)
	assert.InDelta(t, 8/3.75, l.Density(), 1e-9)

	low, high := l.Ambitus()
	assert.Equal(t, 60, low)
	assert.Equal(t, 67, high)
	assert.Equal(t, 7, l.AmbitusDifference())
	assert.Len(t, l.PitchClassSet(), 8)

	var empty List
	assert.Equal(t, 0.0, empty.Duration())
	assert.Equal(t, 0.0, empty.Density())
}

func TestTranspose(t *testing.T) {
	l := melody(t)
	l.Transpose(12)
	assert.Equal(t, []int{72, 73, 74, 75, 76, 77, 78, 79}, l.Pitches())
	l.Transpose(0)
	assert.Equal(t, 72, l[0].Pitch())
}

func TestRetrogradePitches(t *testing.T) {
	l := melody(t)
	r := l.RetrogradePitches()

	assert.Equal(t, []int{67, 66, 65, 64, 63, 62, 61, 60}, r.Pitches())
	assert.Equal(t, 1.5, r[3].Time())
	assert.Equal(t, 60, l[0].Pitch())
	assert.Empty(t, List(nil).RetrogradePitches())
}

func TestShiftTimeIdempotentAtZero(t *testing.T) {
	withSafeMode(t, true)
	l := melody(t)
	l.Add(mustNote(t, 60, 0, 0.25, 100))

	l.ShiftTime(0)
	once := l.Clone()
	l.ShiftTime(0)
	assert.True(t, once.Equal(l))
	assert.Len(t, l, 8)
}

func TestSetBeginning(t *testing.T) {
	l := melody(t)
	l.SetBeginning(10)
	assert.Equal(t, 10.0, l.StartTime())
	l.SetBeginningToZero()
	assert.Equal(t, 0.0, l.StartTime())
	assert.Equal(t, 3.5, l[7].Time())
}

func TestTransform(t *testing.T) {
	l := melody(t)
	l.SetBeginning(2)

	require.NoError(t, l.Transform(2, 2, 0.5))
	assert.Equal(t, 2.0, l.StartTime())
	assert.Equal(t, 62, l[0].Pitch())
	assert.Equal(t, 3.0, l[1].Time())
	assert.Equal(t, 0.5, l[1].Duration())
	assert.Equal(t, 50, l[1].Velocity())

	assert.Error(t, l.Transform(0, 1, 3))
}

func TestTransformFailureLeavesListUntouched(t *testing.T) {
	l := melody(t)
	l.SetBeginning(2)
	before := l.Clone()

	err := l.Transform(5, 2, 3)
	assert.ErrorIs(t, err, ErrVelocityRange)
	assert.Equal(t, before, l)
}

func TestTransformTransposeOnly(t *testing.T) {
	l := melody(t)
	require.NoError(t, l.Transform(-12, 1, 1))
	assert.Equal(t, 48, l[0].Pitch())
	assert.Equal(t, 0.5, l[1].Time())
}

func TestSalamiCoversEveryNote(t *testing.T) {
	l := melody(t)
	l.SetBeginning(1.3)

	slices := l.Salami(1)
	require.Len(t, slices, 4)

	for _, n := range l {
		found := false
		for _, s := range slices {
			for _, m := range s {
				if m == n {
					found = true
				}
			}
		}
		assert.True(t, found, "note %s not in any slice", n)
	}

	assert.Nil(t, l.Salami(0))
}

func TestSalamiOverlapsRepeatNotes(t *testing.T) {
	var l List
	l.Add(mustNote(t, 60, 0, 3, 100))
	l.Add(mustNote(t, 62, 2.5, 0.5, 100))

	slices := l.Salami(1)
	require.Len(t, slices, 3)
	for _, s := range slices {
		assert.Contains(t, s, l[0])
	}
}

func TestMaxSilenceAndGroups(t *testing.T) {
	var l List
	l.Add(mustNote(t, 64, 5, 1, 100))
	l.Add(mustNote(t, 60, 0, 1, 100))
	l.Add(mustNote(t, 62, 1.5, 1, 100))

	gap, before, after := l.MaxSilenceAndGroups()
	assert.Equal(t, 2.5, gap)
	assert.Equal(t, []int{60, 62}, before.Pitches())
	assert.Equal(t, []int{64}, after.Pitches())

	before.Add(mustNote(t, 70, 9, 1, 100))
	assert.Equal(t, 64, after[0].Pitch())
}

func TestMaxSilenceDegenerate(t *testing.T) {
	var empty List
	gap, first, second := empty.MaxSilenceAndGroups()
	assert.Equal(t, 0.0, gap)
	assert.Empty(t, first)
	assert.Empty(t, second)

	single := List{mustNote(t, 60, 0, 1, 100)}
	gap, first, second = single.MaxSilenceAndGroups()
	assert.Equal(t, 0.0, gap)
	assert.Equal(t, single, first)
	assert.Empty(t, second)

	legato := List{mustNote(t, 60, 0, 1, 100), mustNote(t, 62, 0.5, 1, 100)}
	gap, first, _ = legato.MaxSilenceAndGroups()
	assert.Equal(t, 0.0, gap)
	assert.Len(t, first, 2)
}

func TestCompressVelocity(t *testing.T) {
	l := List{mustNote(t, 60, 0, 1, 127), mustNote(t, 62, 1, 1, 0), mustNote(t, 64, 2, 1, 64)}
	require.NoError(t, l.CompressVelocity(100, 20))
	assert.Equal(t, 100, l[0].Velocity())
	assert.Equal(t, 20, l[1].Velocity())
	assert.Equal(t, 60, l[2].Velocity())
}

func TestFilterErroneous(t *testing.T) {
	build := func() List {
		l := List{
			mustNote(t, 60, 0, 1, 100),
			mustNote(t, 60, 0, 1, 100),
			mustNote(t, 62, -1, 1, 100),
			mustNote(t, 64, 1, -0.5, 100),
			mustNote(t, 65, 2, 1, 100),
		}
		return l
	}

	withSafeMode(t, false)
	l := build()
	l.FilterErroneous()
	assert.Len(t, l, 5, "filter is a no-op outside safe mode")

	SetSafeMode(true)
	l = build()
	l.FilterErroneous()
	assert.Equal(t, []int{60, 65}, l.Pitches())
}

func TestSub(t *testing.T) {
	l := melody(t)
	removed := List{mustNote(t, 60, 0, 0.25, 100), mustNote(t, 61, 0.5, 0.25, 100)}
	rest := l.Sub(removed)
	assert.Len(t, rest, 6)
	assert.Equal(t, 62, rest[0].Pitch())
}

func TestChronologicalConcatenation(t *testing.T) {
	a := List{mustNote(t, 60, 0, 1, 100)}
	b := List{mustNote(t, 62, 0, 1, 100)}

	a.AppendChronologically(b)
	require.Len(t, a, 2)
	assert.Equal(t, 1.0, a[1].Time())
	assert.Equal(t, 0.0, b[0].Time(), "argument is not modified")

	c := List{mustNote(t, 64, 0, 2, 100)}
	c.PrependChronologically(List{mustNote(t, 65, 0, 0.5, 100)})
	assert.Equal(t, 0.5, c[0].Time())
	assert.Equal(t, 0.0, c[1].Time())

	var d List
	d.Concatenate(b)
	d.Overlay(b)
	assert.Len(t, d, 2)
}

func TestTimeQueries(t *testing.T) {
	l := melody(t)
	assert.Len(t, l.BeforeTime(1), 2)
	assert.Len(t, l.AfterTime(3), 1)
	assert.Len(t, l.SimultaneousNotes(0.6), 1)
	assert.Len(t, l.SimultaneousNotes(0.3), 0)
	assert.Len(t, l.CreateSlice(0.9, 2), 3)
}

func TestFilterAndMap(t *testing.T) {
	l := melody(t)
	even := l.Filter(func(n *Note) bool { return n.Pitch()%2 == 0 })
	assert.Len(t, even, 4)

	l.Map(func(n *Note) *Note {
		c := n.Clone()
		c.Transpose(1)
		return c
	})
	assert.Equal(t, 61, l[0].Pitch())
}

func TestEqualIgnoresOrder(t *testing.T) {
	a := melody(t)
	b := a.Clone()
	b[0], b[7] = b[7], b[0]
	assert.True(t, a.Equal(b))
	assert.Equal(t, 67, b[0].Pitch(), "Equal does not reorder")

	b[0].SetPitch(10)
	assert.False(t, a.Equal(b))
}

func TestListJSONRoundTrip(t *testing.T) {
	l := melody(t)
	l[3].Custom["accent"] = true

	data, err := l.ToJSON()
	require.NoError(t, err)
	got, err := FromJSON(data)
	require.NoError(t, err)
	assert.True(t, l.Equal(got))
	assert.Equal(t, true, got[3].Custom["accent"])

	data, err = List(nil).ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	_, err = FromJSON([]byte(`{"pitch":1}`))
	assert.Error(t, err)
}

func TestSaveLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.json")
	l := melody(t)
	require.NoError(t, l.SaveJSON(path))

	got, err := LoadJSON(path)
	require.NoError(t, err)
	assert.True(t, l.Equal(got))
}

func TestTable(t *testing.T) {
	assert.Equal(t, "NoteList is empty.", List{}.Table())
	out := melody(t).Table()
	assert.Contains(t, out, "velocity")
	assert.Contains(t, out, "67")
}
