package note

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
	"sort"
	"sync/atomic"

	"github.com/PixPMusic/midit/internal/message"
)

// safeMode gates FilterErroneous. It is off by default.
var safeMode atomic.Bool

// SetSafeMode turns erroneous-note filtering on or off for all lists
func SetSafeMode(on bool) {
	safeMode.Store(on)
}

// SafeMode reports whether erroneous-note filtering is enabled
func SafeMode() bool {
	return safeMode.Load()
}

// List is an ordered sequence of notes, conventionally sorted by time
type List []*Note

// Add appends a note
func (l *List) Add(n *Note) {
	*l = append(*l, n)
}

func (l List) Len() int      { return len(l) }
func (l List) IsEmpty() bool { return len(l) == 0 }

// Clone returns a deep copy
func (l List) Clone() List {
	out := make(List, len(l))
	for i, n := range l {
		out[i] = n.Clone()
	}
	return out
}

// Sort orders the notes by ascending time, keeping insertion order for ties
func (l List) Sort() List {
	sort.SliceStable(l, func(i, j int) bool { return l[i].time < l[j].time })
	return l
}

// Equal compares both lists sorted by time, note by note. Neither list is reordered.
func (l List) Equal(o List) bool {
	if len(l) != len(o) {
		return false
	}
	a, b := slices.Clone(l).Sort(), slices.Clone(o).Sort()
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Sub returns the notes of l that do not appear in o
func (l List) Sub(o List) List {
	drop := make(map[description]bool, len(o))
	for _, n := range o {
		drop[n.description()] = true
	}
	out := List{}
	for _, n := range l {
		if !drop[n.description()] {
			out = append(out, n)
		}
	}
	return out
}

// Concatenate appends the notes of o without changing their times
func (l *List) Concatenate(o List) {
	*l = append(*l, o...)
}

// Overlay lays o on top of l; it is the same as Concatenate
func (l *List) Overlay(o List) {
	l.Concatenate(o)
}

// AppendChronologically appends a copy of o shifted to start at the end of l
func (l *List) AppendChronologically(o List) {
	if l.IsEmpty() {
		l.Concatenate(o)
		return
	}
	shifted := o.Clone()
	shifted.ShiftTime(l.EndTime())
	l.Concatenate(shifted)
}

// PrependChronologically shifts l to start at the end of o, then adds o
func (l *List) PrependChronologically(o List) {
	if l.IsEmpty() {
		l.Concatenate(o)
		return
	}
	l.ShiftTime(o.EndTime())
	l.Concatenate(o)
}

// StartTime is the earliest onset, 0 for an empty list
func (l List) StartTime() float64 {
	if len(l) == 0 {
		return 0
	}
	start := l[0].time
	for _, n := range l[1:] {
		start = math.Min(start, n.time)
	}
	return start
}

// EndTime is the latest offset, 0 for an empty list
func (l List) EndTime() float64 {
	if len(l) == 0 {
		return 0
	}
	end := l[0].Offset()
	for _, n := range l[1:] {
		end = math.Max(end, n.Offset())
	}
	return end
}

// Duration is the span from the first onset to the last offset
func (l List) Duration() float64 {
	if len(l) == 0 {
		return 0
	}
	return l.EndTime() - l.StartTime()
}

// SegmentSpan returns the start time and duration
func (l List) SegmentSpan() (float64, float64) {
	return l.StartTime(), l.Duration()
}

// Density is the number of notes per second, 0 when the list has no duration
func (l List) Density() float64 {
	d := l.Duration()
	if d == 0 {
		return 0
	}
	return float64(len(l)) / d
}

func (l List) Pitches() []int {
	pitches := make([]int, len(l))
	for i, n := range l {
		pitches[i] = n.pitch
	}
	return pitches
}

// RetrogradePitches returns a copy that keeps the rhythm of l but plays
// its pitches in reverse order
func (l List) RetrogradePitches() List {
	out := l.Clone()
	pitches := l.Pitches()
	slices.Reverse(pitches)
	for i, n := range out {
		n.SetPitch(pitches[i])
	}
	return out
}

func (l List) PitchClassSet() map[int]bool {
	set := make(map[int]bool)
	for _, n := range l {
		set[n.PitchClass()] = true
	}
	return set
}

// Ambitus returns the lowest and highest pitch
func (l List) Ambitus() (int, int) {
	if len(l) == 0 {
		return 0, 0
	}
	pitches := l.Pitches()
	return slices.Min(pitches), slices.Max(pitches)
}

func (l List) AmbitusDifference() int {
	low, high := l.Ambitus()
	return high - low
}

// BeforeTime returns the notes starting strictly before t
func (l List) BeforeTime(t float64) List {
	return l.Filter(func(n *Note) bool { return n.time < t })
}

// AfterTime returns the notes starting strictly after t
func (l List) AfterTime(t float64) List {
	return l.Filter(func(n *Note) bool { return n.time > t })
}

// Filter returns a new list of the notes matching keep
func (l List) Filter(keep func(*Note) bool) List {
	out := List{}
	for _, n := range l {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// Map replaces every note with the result of f, in place
func (l List) Map(f func(*Note) *Note) List {
	for i, n := range l {
		l[i] = f(n)
	}
	return l
}

// Transpose moves every pitch by interval semitones
func (l List) Transpose(interval int) {
	if interval == 0 {
		return
	}
	for _, n := range l {
		n.Transpose(interval)
	}
}

// ShiftTime filters erroneous notes, then moves every onset by shift
func (l *List) ShiftTime(shift float64) {
	l.FilterErroneous()
	for _, n := range *l {
		n.ShiftTime(shift)
	}
}

// SetBeginning shifts the list so that its earliest note starts at t
func (l *List) SetBeginning(t float64) {
	if l.IsEmpty() {
		return
	}
	l.ShiftTime(t - l.StartTime())
}

func (l *List) SetBeginningToZero() {
	l.SetBeginning(0)
}

// Transform transposes, scales time and duration by speed and velocity by
// velocityFactor. Scaling is anchored at the first onset, which stays in
// place. A velocity leaving [0, 127] fails before any note is changed.
func (l *List) Transform(interval int, speed, velocityFactor float64) error {
	if l.IsEmpty() {
		return nil
	}
	if speed == 1 && velocityFactor == 1 {
		l.Transpose(interval)
		return nil
	}
	for _, n := range *l {
		if v := int(float64(n.velocity) * velocityFactor); v < 0 || v > message.MaxValue {
			return fmt.Errorf("transform: %w: %d", ErrVelocityRange, v)
		}
	}
	start := l.StartTime()
	l.SetBeginningToZero()
	for _, n := range *l {
		n.Transpose(interval)
		n.SetTime(n.time * speed)
		n.SetDuration(n.duration * speed)
		n.velocity = int(float64(n.velocity) * velocityFactor)
	}
	l.SetBeginning(start)
	return nil
}

// SimultaneousNotes returns the notes sounding at t
func (l List) SimultaneousNotes(t float64) List {
	return l.Filter(func(n *Note) bool { return n.time <= t && t < n.Offset() })
}

// CreateSlice returns the notes starting inside [start, end] or sounding at start
func (l List) CreateSlice(start, end float64) List {
	return l.Filter(func(n *Note) bool {
		return (start <= n.time && n.time <= end) || (n.time <= start && start <= n.Offset())
	})
}

// Salami cuts the list into ceil(duration/size) consecutive windows of the
// given size starting at the first onset. A note overlapping several windows
// appears in each of them.
func (l List) Salami(size float64) []List {
	if size <= 0 || l.IsEmpty() {
		return nil
	}
	start := l.StartTime()
	count := max(int(math.Ceil(l.Duration()/size)), 1)
	out := make([]List, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, l.CreateSlice(start+float64(i)*size, start+float64(i+1)*size))
	}
	return out
}

// MaxSilenceAndGroups sorts the list and finds the largest gap between a
// note's offset and the next onset. It returns the gap and the notes before
// and after it; with no positive gap it returns 0, the list and an empty list.
func (l List) MaxSilenceAndGroups() (float64, List, List) {
	if len(l) == 0 {
		return 0, l, List{}
	}
	l.Sort()
	silence := 0.0
	index := -1
	for i := 0; i < len(l)-1; i++ {
		if gap := l[i+1].time - l[i].Offset(); gap > silence {
			silence = gap
			index = i
		}
	}
	if index == -1 {
		return silence, l, List{}
	}
	return silence, l[: index+1 : index+1], l[index+1:]
}

// CompressVelocity rescales velocities linearly into [minimum, maximum]
func (l List) CompressVelocity(maximum, minimum int) error {
	factor := float64(maximum-minimum) / message.MaxValue
	for _, n := range l {
		if err := n.SetVelocity(int(float64(n.velocity)*factor) + minimum); err != nil {
			return fmt.Errorf("compress velocity: %w", err)
		}
	}
	return nil
}

// FilterErroneous drops exact duplicates and notes with out-of-range pitch
// or velocity or negative time or duration. It does nothing unless safe mode
// is enabled.
func (l *List) FilterErroneous() {
	if !SafeMode() {
		return
	}
	seen := make(map[description]bool, len(*l))
	kept := List{}
	for _, n := range *l {
		d := n.description()
		if seen[d] {
			continue
		}
		seen[d] = true
		if n.pitch < message.MinPitch || n.pitch > message.MaxPitch ||
			n.velocity < 0 || n.velocity > message.MaxValue ||
			n.time < 0 || n.duration < 0 {
			continue
		}
		kept = append(kept, n)
	}
	if len(kept) != len(*l) {
		*l = kept
	}
}

// ToJSON encodes the list as a JSON array of note objects
func (l List) ToJSON() ([]byte, error) {
	if l == nil {
		l = List{}
	}
	return json.Marshal(l)
}

// FromJSON decodes a list written by ToJSON
func FromJSON(data []byte) (List, error) {
	var l List
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode note list: %w", err)
	}
	if l == nil {
		l = List{}
	}
	return l, nil
}

// SaveJSON writes the list to path
func (l List) SaveJSON(path string) error {
	data, err := l.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadJSON reads a list written by SaveJSON
func LoadJSON(path string) (List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromJSON(data)
}
