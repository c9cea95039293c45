package handler

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	Cyan      = lipgloss.Color("#00D4AA")
	Green     = lipgloss.Color("#39FF14")
	Red       = lipgloss.Color("#FF5F56")
	Amber     = lipgloss.Color("#FFB000")
	LightGray = lipgloss.Color("#aaaaaa")
)

// Theme holds the styles used by the shell. Styles are bound to the
// renderer of the writer they print to, so output that is not a terminal
// stays plain text.
type Theme struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

func NewTheme(w io.Writer) Theme {
	r := lipgloss.NewRenderer(w)
	return Theme{
		Title:   r.NewStyle().Foreground(Cyan).Bold(true),
		Header:  r.NewStyle().Bold(true),
		Success: r.NewStyle().Foreground(Green),
		Warning: r.NewStyle().Foreground(Amber),
		Error:   r.NewStyle().Foreground(Red).Bold(true),
		Muted:   r.NewStyle().Foreground(LightGray),
	}
}
