package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type palette struct {
	canvas  lipgloss.Style
	body    lipgloss.Style
	panel   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	focus   lipgloss.Style
	muted   lipgloss.Style
	running lipgloss.Style
	paused  lipgloss.Style
	warning lipgloss.Style
	graph   lipgloss.Style
	help    lipgloss.Style
}

func newPalette(t Theme) palette {
	return palette{
		canvas: lipgloss.NewStyle().Padding(1, 2).Foreground(t.Primary),
		body:   lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Border).
			Padding(1, 2).
			Width(44),
		header:  lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		label:   lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		value:   lipgloss.NewStyle().Foreground(t.Text),
		focus:   lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(t.Muted),
		running: lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		paused:  lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		warning: lipgloss.NewStyle().Foreground(t.Error),
		graph:   lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 0),
		help:    lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
	}
}

// row renders a label/value line.
func (p palette) row(label, value string) string {
	return p.label.Render(label) + p.value.Render(value) + "\n"
}

// separator draws a muted rule.
func (p palette) separator(width int) string {
	return p.muted.Render(strings.Repeat("─", width))
}

// AnimatedSpinner returns one frame of a braille spinner.
func AnimatedSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}
