// Package tui animates a simulated cycle in the terminal: a piston
// sketch, a rolling pressure trace, and live retuning of load and speed.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/MichaelAyles/enginesim/internal/engine"
)

const (
	framesPerSecond = 30
	degPerFrame     = 4
	scrubDeg        = 15
	graphWidth      = 56
	graphHeight     = 7
	graphWindowDeg  = 240
	cylinderRows    = 14

	loadStep  = 5.0  // percent per keypress
	speedStep = 250. // rpm per keypress
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model plays back a completed run one frame at a time. Retuning load
// or speed reruns the simulation synchronously and keeps the crank
// position, so the animation continues from the same angle.
type Model struct {
	req     engine.SimulationRequest
	res     *engine.SimulationResult
	idx     int
	playing bool
	err     error
}

// NewModel simulates req once and prepares playback from TDC intake.
func NewModel(req engine.SimulationRequest) (Model, error) {
	// Whole-degree steps keep retuning instant; the animation cannot
	// show sub-degree detail anyway.
	req.StepSize = 1.0
	res, err := engine.Run(context.Background(), req)
	if err != nil {
		return Model{}, err
	}
	return Model{req: req, res: res, playing: true}, nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/framesPerSecond, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and advances playback.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.playing = !m.playing
		case "r":
			m.idx = 0
			m.playing = true
		case "[":
			m.playing = false
			m.scrub(-scrubDeg)
		case "]":
			m.playing = false
			m.scrub(scrubDeg)
		case "up", "k":
			m.retune(loadStep, 0)
		case "down", "j":
			m.retune(-loadStep, 0)
		case "right", "l":
			m.retune(0, speedStep)
		case "left", "h":
			m.retune(0, -speedStep)
		}
	case TickMsg:
		if m.playing {
			m.scrub(degPerFrame)
		}
		return m, tick()
	}
	return m, nil
}

// scrub moves the playhead by deg crank degrees, wrapping at the cycle
// boundary.
func (m *Model) scrub(deg int) {
	n := len(m.res.Cycle)
	m.idx = ((m.idx+deg)%n + n) % n
}

// retune shifts load and speed within their operating ranges and reruns
// the cycle. A failed rerun keeps the previous result on screen.
func (m *Model) retune(dLoad, dSpeed float64) {
	req := m.req
	req.Load = clamp(req.Load+dLoad, 0, 100)
	req.EngineSpeed = clamp(req.EngineSpeed+dSpeed, engine.MinEngineSpeed, engine.MaxEngineSpeed)
	res, err := engine.Run(context.Background(), req)
	if err != nil {
		m.err = err
		return
	}
	m.req, m.res, m.err = req, res, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// paramBar renders one tunable as a fixed-width gauge.
func paramBar(name string, v, lo, hi float64, unit string) string {
	const width = 12
	filled := int(clamp((v-lo)/(hi-lo), 0, 1) * width)
	bar := "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
	return fmt.Sprintf("%-8s %s %.0f %s\n", name, bar, v, unit)
}

// View renders the playback screen.
func (m Model) View() string {
	rec := m.res.Cycle[m.idx]

	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("FOUR-STROKE CYCLE  %s %.0f/%.0f mm",
		strings.ToUpper(string(m.req.EngineType)), m.req.Bore, m.req.Stroke)) + "\n")

	status := "RUNNING"
	if !m.playing {
		status = "PAUSED"
	}
	s.WriteString(statusStyle.Render(status) + "  " +
		valueStyle.Render(fmt.Sprintf("%6.0f deg  %s", rec.Angle, strings.ToUpper(string(rec.Phase)))) + "\n")

	s.WriteString(graphStyle.Render(m.pressureGraph()) + "\n")

	rows := []struct {
		label string
		value string
	}{
		{"Pressure", fmt.Sprintf("%8.2f bar", rec.Pressure)},
		{"Temperature", fmt.Sprintf("%8.1f K", rec.Temperature)},
		{"Volume", fmt.Sprintf("%8.2f cm3", rec.Volume)},
		{"Piston speed", fmt.Sprintf("%8.2f m/s", rec.PistonVelocity)},
		{"Heat release", fmt.Sprintf("%8.2f J", rec.CumulativeHeat)},
	}
	for _, row := range rows {
		s.WriteString(labelStyle.Render(row.label) + valueStyle.Render(row.value) + "\n")
	}

	s.WriteString("\nOPERATING POINT\n")
	s.WriteString(paramBar("load", m.req.Load, 0, 100, "%"))
	s.WriteString(paramBar("speed", m.req.EngineSpeed, engine.MinEngineSpeed, engine.MaxEngineSpeed, "rpm"))

	s.WriteString("\nSUMMARY\n")
	summary := []struct {
		label string
		value string
	}{
		{"Brake power", fmt.Sprintf("%8.2f kW", m.res.Performance.BrakePower)},
		{"Torque", fmt.Sprintf("%8.2f Nm", m.res.Performance.Torque)},
		{"Peak pressure", fmt.Sprintf("%8.2f bar", m.res.Performance.PeakPressure)},
		{"Thermal eff", fmt.Sprintf("%8.2f %%", m.res.Performance.ThermalEfficiency)},
	}
	for _, row := range summary {
		s.WriteString(labelStyle.Render(row.label) + valueStyle.Render(row.value) + "\n")
	}

	if m.err != nil {
		s.WriteString(errorStyle.Render("retune rejected: "+m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Restart Q:Quit  [ ]:Scrub  ↑↓:Load  ←→:Speed"))

	return lipgloss.JoinHorizontal(lipgloss.Top, m.cylinderSketch(), panelStyle.Render(s.String()))
}

// pressureGraph plots the trace in a window trailing the playhead.
func (m Model) pressureGraph() string {
	recs := m.res.Cycle
	lo := m.idx - graphWindowDeg
	if lo < 0 {
		lo = 0
	}
	window := make([]float64, 0, m.idx-lo+1)
	for i := lo; i <= m.idx; i++ {
		window = append(window, recs[i].Pressure)
	}
	if len(window) < 2 {
		window = append(window, window[0])
	}
	return asciigraph.Plot(window,
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
		asciigraph.Caption("cylinder pressure / bar"))
}

// cylinderSketch draws the bore with the piston crown at its current
// position down from TDC.
func (m Model) cylinderSketch() string {
	rec := m.res.Cycle[m.idx]
	frac := clamp(rec.PistonPosition/m.req.Stroke, 0, 1)
	crown := 1 + int(math.Round(frac*float64(cylinderRows-4)))

	var s strings.Builder
	s.WriteString("┌───────┐\n")
	for row := 1; row < cylinderRows-1; row++ {
		switch {
		case row == crown:
			s.WriteString("│███████│\n")
		case row == crown+1 || row == crown+2:
			s.WriteString("│▒▒▒▒▒▒▒│\n")
		default:
			s.WriteString("│       │\n")
		}
	}
	s.WriteString("└───────┘")
	return lipgloss.NewStyle().Padding(1, 2).Render(s.String())
}

// Run plays req in the terminal until the user quits.
func Run(req engine.SimulationRequest) error {
	m, err := NewModel(req)
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return fmt.Errorf("running playback: %w", err)
	}
	return nil
}
