package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MichaelAyles/enginesim/internal/engine"
)

func testModel(t *testing.T) Model {
	t.Helper()
	m, err := NewModel(engine.SimulationRequest{
		EngineType:       engine.EngineGasoline,
		Bore:             86,
		Stroke:           86,
		CompressionRatio: 10.5,
		Cylinders:        4,
		EngineSpeed:      3000,
		Load:             60,
		IntakeTemp:       25,
	})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	got, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return got
}

func TestNewModelStartsAtIntakeTDC(t *testing.T) {
	m := testModel(t)
	if !m.playing || m.idx != 0 {
		t.Fatalf("initial state playing=%v idx=%d, want true/0", m.playing, m.idx)
	}
	view := m.View()
	if !strings.Contains(view, "FOUR-STROKE CYCLE") || !strings.Contains(view, "INTAKE") {
		t.Errorf("initial view missing header or phase:\n%s", view)
	}
}

func TestTickAdvancesPlayhead(t *testing.T) {
	m := testModel(t)
	m = update(t, m, TickMsg(time.Now()))
	if m.idx != degPerFrame {
		t.Errorf("idx after one tick = %d, want %d", m.idx, degPerFrame)
	}

	m = update(t, m, key(" "))
	if m.playing {
		t.Fatal("space did not pause playback")
	}
	m = update(t, m, TickMsg(time.Now()))
	if m.idx != degPerFrame {
		t.Errorf("paused playhead moved to %d", m.idx)
	}
}

func TestScrubWrapsAroundCycle(t *testing.T) {
	m := testModel(t)
	n := len(m.res.Cycle)

	m = update(t, m, key("["))
	if m.playing {
		t.Fatal("scrubbing did not pause playback")
	}
	if want := n - scrubDeg; m.idx != want {
		t.Errorf("idx after reverse scrub = %d, want %d", m.idx, want)
	}

	m = update(t, m, key("]"))
	if m.idx != 0 {
		t.Errorf("idx after forward scrub = %d, want 0", m.idx)
	}
}

func TestRetuneAdjustsLoadWithinRange(t *testing.T) {
	m := testModel(t)
	before := m.res.Performance.BrakePower

	m = update(t, m, key("k"))
	if m.req.Load != 65 {
		t.Fatalf("Load after retune = %v, want 65", m.req.Load)
	}
	if m.err != nil {
		t.Fatalf("retune failed: %v", m.err)
	}
	if m.res.Performance.BrakePower <= before {
		t.Errorf("brake power did not rise with load: %v -> %v", before, m.res.Performance.BrakePower)
	}

	for i := 0; i < 10; i++ {
		m = update(t, m, key("k"))
	}
	if m.req.Load != 100 {
		t.Errorf("Load clamped to %v, want 100", m.req.Load)
	}
}

func TestQuitKey(t *testing.T) {
	m := testModel(t)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("q command produced %T, want tea.QuitMsg", cmd())
	}
}
