package note

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// pitchClassStyles colours each pitch class; the same note in every octave
// shares a colour.
var pitchClassStyles = [12]lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("1")),            // C
	lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true), // C#
	lipgloss.NewStyle().Foreground(lipgloss.Color("2")),            // D
	lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true), // D#
	lipgloss.NewStyle().Foreground(lipgloss.Color("3")),            // E
	lipgloss.NewStyle().Foreground(lipgloss.Color("4")),            // F
	lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true), // F#
	lipgloss.NewStyle().Foreground(lipgloss.Color("5")),            // G
	lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true), // G#
	lipgloss.NewStyle().Foreground(lipgloss.Color("6")),            // A
	lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true), // A#
	lipgloss.NewStyle().Foreground(lipgloss.Color("7")),            // B
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Table renders the list as a table, one row per note coloured by pitch class
func (l List) Table() string {
	if l.IsEmpty() {
		return "NoteList is empty."
	}

	rows := make([][]string, len(l))
	for i, n := range l {
		rows[i] = []string{
			strconv.Itoa(n.pitch),
			strconv.FormatFloat(n.time, 'f', 3, 64),
			strconv.FormatFloat(n.duration, 'f', 3, 64),
			strconv.Itoa(n.velocity),
			strconv.Itoa(n.channel),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("pitch", "time", "duration", "velocity", "channel").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || row < 0 || row >= len(l) {
				return headerStyle
			}
			return cellStyle.Inherit(pitchClassStyles[l[row].PitchClass()])
		})
	return t.String()
}

func (l List) String() string {
	return l.Table()
}
