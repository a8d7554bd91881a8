package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/metrics"
	"github.com/san-kum/orrery/internal/sim"
)

const (
	canvasWidth     = 72
	canvasHeight    = 24
	trailCapacity   = 240
	historyCapacity = 600
)

type TickMsg time.Time

// Options configures a live view.
type Options struct {
	Title string
	Speed float64 // simulated seconds per wall second
	FPS   int
	Theme string
}

// tracker receives tick frames from the simulation. It lives behind a
// pointer so the value-typed Model can be copied by Bubble Tea.
type tracker struct {
	drift    *metrics.EnergyDrift
	history  []float64
	restored int
	last     []dynamo.BodyID
	frames   int
}

func (tr *tracker) OnTick(f sim.Frame) {
	tr.frames++
	tr.restored += len(f.Restored)
	if len(f.Restored) > 0 {
		tr.last = append(tr.last[:0], f.Restored...)
	}
	if tr.drift == nil {
		return
	}
	tr.drift.OnTick(f)
	tr.history = append(tr.history, tr.drift.Current())
	if len(tr.history) > historyCapacity {
		tr.history = tr.history[1:]
	}
}

// Model is the Bubble Tea model of a running simulation.
type Model struct {
	sim     *sim.Simulation
	opts    Options
	speed   float64
	paused  bool
	canvas  *Canvas
	camera  *Camera
	trails  map[dynamo.BodyID][]r3.Vec
	focus   int // index into Bodies(); -1 centres on the origin
	track   *tracker
	theme   Theme
	style   palette
	help    bool
	fitted  bool
	spinner int
}

func NewModel(s *sim.Simulation, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Speed == 0 {
		opts.Speed = 86400
	}
	theme := GetTheme(opts.Theme)
	m := Model{
		sim:    s,
		opts:   opts,
		speed:  opts.Speed,
		canvas: NewCanvas(canvasWidth, canvasHeight),
		camera: NewCamera(),
		trails: make(map[dynamo.BodyID][]r3.Vec),
		focus:  -1,
		track:  &tracker{},
		theme:  theme,
		style:  newPalette(theme),
	}
	s.AddObserver(m.track)
	m.watchDrift()
	m.refit()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		default:
			m.handleKey(msg.String())
		}
	case TickMsg:
		m.step()
		if !m.fitted {
			m.refit()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) handleKey(key string) {
	switch key {
	case " ":
		m.paused = !m.paused
	case "]", ".":
		m.speed *= 2
	case "[", ",":
		m.speed /= 2
	case "r":
		m.speed = -m.speed
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	case "x":
		m.camera.TiltBy(math.Pi / 12)
	case "X":
		m.camera.TiltBy(-math.Pi / 12)
	case "tab":
		m.cycleFocus(1)
	case "shift+tab":
		m.cycleFocus(-1)
	case "f":
		m.fitted = false
	case "c":
		clear(m.trails)
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.style = newPalette(m.theme)
	case "?":
		m.help = !m.help
	}
}

// step advances one frame unless paused.
func (m *Model) step() {
	m.spinner++
	if m.paused {
		return
	}
	m.sim.Tick(m.speed / float64(m.opts.FPS))

	for _, b := range m.sim.Bodies() {
		t := append(m.trails[b.ID], b.State.Pos)
		if len(t) > trailCapacity {
			t = t[1:]
		}
		m.trails[b.ID] = t
	}
}

func (m *Model) cycleFocus(dir int) {
	n := len(m.sim.Bodies())
	if n == 0 {
		m.focus = -1
		return
	}
	// -1..n-1, wrapping
	m.focus = (m.focus+1+dir+n+1)%(n+1) - 1
	clear(m.trails)
	m.fitted = false
	m.watchDrift()
}

// watchDrift points the energy tracker at the focused body, or the first
// body with a primary.
func (m *Model) watchDrift() {
	bodies := m.sim.Bodies()
	m.track.drift = nil
	m.track.history = m.track.history[:0]

	if m.focus >= 0 && m.focus < len(bodies) {
		if d, ok := metrics.EnergyDriftFor(m.sim, bodies[m.focus].ID); ok {
			m.track.drift = d
			return
		}
	}
	for _, b := range bodies {
		if d, ok := metrics.EnergyDriftFor(m.sim, b.ID); ok {
			m.track.drift = d
			return
		}
	}
}

func (m *Model) centre(bodies []sim.Body) (r3.Vec, string) {
	if m.focus >= 0 && m.focus < len(bodies) {
		b := bodies[m.focus]
		return b.State.Pos, b.Name
	}
	return r3.Vec{}, "origin"
}

// refit frames every live body around the current centre.
func (m *Model) refit() {
	bodies := m.sim.Bodies()
	if len(bodies) == 0 {
		return
	}
	centre, _ := m.centre(bodies)
	pts := make([]r3.Vec, len(bodies))
	for i, b := range bodies {
		pts[i] = b.State.Pos
	}
	m.camera.Fit(pts, centre)
	m.fitted = true
}

// draw renders bodies and trails onto the canvas.
func (m *Model) draw(bodies []sim.Body) {
	m.canvas.Clear()
	centre, _ := m.centre(bodies)
	w, h := m.canvas.Size()

	for _, trail := range m.trails {
		for _, p := range trail {
			if x, y, ok := m.camera.Project(p, centre, w, h); ok {
				m.canvas.Set(x, y)
			}
		}
	}
	for i, b := range bodies {
		x, y, ok := m.camera.Project(b.State.Pos, centre, w, h)
		if !ok {
			continue
		}
		r := 1
		if b.Wrt == "" {
			r = 2
		}
		m.canvas.Disc(x, y, r)
		if i == m.focus {
			m.canvas.Label(x, y, '◎')
		}
	}
}

func formatSpeed(speed float64) string {
	abs := math.Abs(speed)
	switch {
	case abs >= 86400*365.25:
		return fmt.Sprintf("%.3g yr/s", speed/(86400*365.25))
	case abs >= 86400:
		return fmt.Sprintf("%.3g d/s", speed/86400)
	case abs >= 3600:
		return fmt.Sprintf("%.3g h/s", speed/3600)
	}
	return fmt.Sprintf("%.3g s/s", speed)
}

// View renders the TUI interface.
func (m Model) View() string {
	bodies := m.sim.Bodies()
	m.draw(bodies)
	p := m.style

	var s strings.Builder
	title := m.opts.Title
	if title == "" {
		title = "orrery"
	}
	s.WriteString(p.header.Render(strings.ToUpper(title)) + "\n")

	switch {
	case m.paused:
		s.WriteString(p.paused.Render("PAUSED") + "\n\n")
	case m.speed < 0:
		s.WriteString(p.running.Render(AnimatedSpinner(m.spinner)+" REWIND") + "\n\n")
	default:
		s.WriteString(p.running.Render(AnimatedSpinner(m.spinner)+" RUNNING") + "\n\n")
	}

	_, focusName := m.centre(bodies)
	s.WriteString(p.row("Epoch", m.sim.Now().String()))
	s.WriteString(p.row("Elapsed", fmt.Sprintf("%.2f d", m.sim.Elapsed()/86400)))
	s.WriteString(p.row("Speed", formatSpeed(m.speed)))
	s.WriteString(p.row("Centre", focusName))
	s.WriteString(p.row("Zoom", fmt.Sprintf("%.2fx  tilt %.0f°", m.camera.Zoom, m.camera.Tilt*180/math.Pi)))
	s.WriteString(p.row("Bodies", fmt.Sprintf("%d live, %d rejected", len(bodies), len(m.sim.Rejected()))))
	if m.track.restored > 0 {
		s.WriteString(p.label.Render("Restored") + p.warning.Render(fmt.Sprintf("%d (last: %v)", m.track.restored, m.track.last)) + "\n")
	}

	if d := m.track.drift; d != nil {
		s.WriteString(p.row("Drift", fmt.Sprintf("%.3e max (%s)", d.Value(), strings.TrimPrefix(d.Name(), "energy_drift:"))))
		if len(m.track.history) > 1 {
			chart := asciigraph.Plot(m.track.history,
				asciigraph.Height(4),
				asciigraph.Width(30),
				asciigraph.Caption("relative energy drift"))
			s.WriteString(p.graph.Render(chart) + "\n")
		}
	}

	s.WriteString("\n" + p.separator(38) + "\n")
	for i, b := range bodies {
		dist := ""
		if rel, _, err := m.sim.Relative(b.ID); err == nil && b.Wrt != "" {
			dist = fmt.Sprintf("%.4f AU", rel.Radius()/dynamo.AU)
		}
		line := fmt.Sprintf("%-10s %-8s %s", b.Name, b.Wrt, dist)
		if i == m.focus {
			s.WriteString(p.focus.Render("▸ "+line) + "\n")
		} else {
			s.WriteString("  " + p.value.Render(line) + "\n")
		}
	}
	s.WriteString(p.help.Render("SP:pause [ ]:speed r:rewind +/-:zoom\nx/X:tilt tab:focus t:theme ?:help q:quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		p.canvas.Render(m.canvas.String()),
		p.panel.Render(s.String()))
	if m.help {
		return helpText + "\n" + main
	}
	return main
}

const helpText = `
  Space      pause / resume
  ] or .     double speed
  [ or ,     halve speed
  r          reverse time
  + / -      zoom
  x / X      tilt camera
  Tab        next body as centre
  Shift+Tab  previous body as centre
  f          refit view
  c          clear trails
  t          cycle themes
  ?          toggle this help
  q          quit
`

// Run starts the live view on the alternate screen.
func Run(s *sim.Simulation, opts Options) error {
	_, err := tea.NewProgram(NewModel(s, opts), tea.WithAltScreen()).Run()
	return err
}
