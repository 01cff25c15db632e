package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/MichaelAyles/enginesim/internal/engine"
)

func testResult(t *testing.T, load float64) *engine.SimulationResult {
	t.Helper()
	res, err := engine.Run(context.Background(), engine.SimulationRequest{
		EngineType:       engine.EngineGasoline,
		Bore:             86,
		Stroke:           86,
		CompressionRatio: 10.5,
		Cylinders:        4,
		EngineSpeed:      3000,
		Load:             load,
		IntakeTemp:       25,
		StepSize:         1.0,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	res := testResult(t, 75)

	if err := s.Save(res); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(res.RunID.String())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != res.RunID.String() {
		t.Errorf("ID = %q, want %q", got.ID, res.RunID)
	}
	if got.EngineType != "gasoline" || got.Bore != 86 || got.Cylinders != 4 {
		t.Errorf("request columns = %q/%v/%v, want gasoline/86/4", got.EngineType, got.Bore, got.Cylinders)
	}
	if got.BrakePower != res.Performance.BrakePower {
		t.Errorf("BrakePower = %v, want %v", got.BrakePower, res.Performance.BrakePower)
	}
	if got.NOx != res.Emissions.NOx {
		t.Errorf("NOx = %v, want %v", got.NOx, res.Emissions.NOx)
	}
}

func TestGetUnknownID(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get("no-such-run"); err == nil {
		t.Fatal("Get succeeded for an ID that was never saved")
	}
}

func TestRecentNewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	loads := []float64{25, 50, 100}
	ids := make([]string, len(loads))
	for i, load := range loads {
		res := testResult(t, load)
		res.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if err := s.Save(res); err != nil {
			t.Fatalf("Save run %d: %v", i, err)
		}
		ids[i] = res.RunID.String()
	}

	runs, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Recent(2) returned %d runs", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("Recent order = %q, %q; want %q, %q", runs[0].ID, runs[1].ID, ids[2], ids[1])
	}
	if runs[0].Load != 100 {
		t.Errorf("newest run Load = %v, want 100", runs[0].Load)
	}
}
