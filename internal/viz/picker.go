package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/orrery/internal/catalog"
	"github.com/san-kum/orrery/internal/sim"
)

// Builder resolves a preset into a ready simulation.
type Builder func(preset string) (*sim.Simulation, error)

const (
	statePicker = iota
	stateLive
)

// Picker lists the built-in presets and opens the chosen one in a live
// view.
type Picker struct {
	state   int
	cursor  int
	presets []string
	build   Builder
	opts    Options
	err     error
	live    Model
}

func NewPicker(build Builder, opts Options) Picker {
	return Picker{presets: catalog.ListPresets(), build: build, opts: opts}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.state == stateLive {
		next, cmd := p.live.Update(msg)
		p.live = next.(Model)
		return p, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.presets)-1 {
			p.cursor++
		}
	case "enter", " ":
		return p.open()
	}
	return p, nil
}

func (p Picker) open() (Picker, tea.Cmd) {
	name := p.presets[p.cursor]
	s, err := p.build(name)
	if err != nil {
		p.err = err
		return p, nil
	}
	opts := p.opts
	opts.Title = name
	p.live = NewModel(s, opts)
	p.state = stateLive
	p.err = nil
	return p, p.live.Init()
}

func (p Picker) View() string {
	if p.state == stateLive {
		return p.live.View()
	}

	t := GetTheme(p.opts.Theme)
	h := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	sub := lipgloss.NewStyle().Foreground(t.Muted)
	sel := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	key := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)

	var b strings.Builder
	b.WriteString("\n\n    " + h.Render("ORRERY") + "\n    " + sub.Render("orbital kinematics") + "\n    " + sub.Render("─────────────────────────") + "\n\n")
	for i, name := range p.presets {
		desc := fmt.Sprintf("%d bodies", len(catalog.Preset(name).Entries))
		if i == p.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", sel.Render("▸"), sel.Render(fmt.Sprintf("%-12s", name)), sub.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", sub.Render(fmt.Sprintf("%-12s", name)), sub.Render(desc)))
		}
	}
	if p.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(t.Error).Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n    " + key.Render("j/k") + sub.Render(" navigate  ") + key.Render("enter") + sub.Render(" open  ") + key.Render("q") + sub.Render(" quit") + "\n")
	return b.String()
}

// RunPicker starts the preset picker on the alternate screen.
func RunPicker(build Builder, opts Options) error {
	_, err := tea.NewProgram(NewPicker(build, opts), tea.WithAltScreen()).Run()
	return err
}
