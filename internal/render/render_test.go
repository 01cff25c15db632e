package render

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/MichaelAyles/enginesim/internal/cycle"
	"github.com/MichaelAyles/enginesim/internal/engine"
	"github.com/MichaelAyles/enginesim/internal/geometry"
)

func coarseCycle(t *testing.T) []cycle.Record {
	t.Helper()
	gen, err := cycle.NewGenerator(cycle.Params{
		Geometry:    geometry.Params{Bore: 100, Stroke: 100, CompressionRatio: 10},
		EngineSpeed: 3000,
		Load:        0.75,
		IntakeTemp:  293.15,
		StepSize:    1.0,
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	recs, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return recs
}

func TestAngleSeries(t *testing.T) {
	recs := coarseCycle(t)

	s, err := AngleSeries(recs, "pressure")
	if err != nil {
		t.Fatalf("AngleSeries: %v", err)
	}
	if len(s.X) != len(recs) || len(s.Y) != len(recs) {
		t.Fatalf("series lengths %d/%d, want %d", len(s.X), len(s.Y), len(recs))
	}
	if s.X[0] != 0 || s.X[len(s.X)-1] != 720 {
		t.Errorf("angle endpoints %v, %v; want 0, 720", s.X[0], s.X[len(s.X)-1])
	}
	if !strings.Contains(s.YLabel, "bar") {
		t.Errorf("pressure label %q does not carry its unit", s.YLabel)
	}

	if _, err := AngleSeries(recs, "swirl"); err == nil {
		t.Error("AngleSeries accepted an unknown field")
	}
}

func TestFieldsCoverEveryQuantity(t *testing.T) {
	got := Fields()
	for _, want := range []string{"pressure", "temperature", "volume", "cumulative_heat_release"} {
		found := false
		for _, name := range got {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Fields() missing %q: %v", want, got)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	recs := coarseCycle(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, recs); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back CSV: %v", err)
	}
	if got, want := len(rows), len(recs)+1; got != want {
		t.Fatalf("CSV rows = %d, want %d (header + records)", got, want)
	}
	if rows[0][0] != "angle" || rows[0][2] != "stroke_phase" {
		t.Errorf("unexpected header start: %v", rows[0][:3])
	}

	angle, err := strconv.ParseFloat(rows[1][0], 64)
	if err != nil || angle != 0 {
		t.Errorf("first data row angle %q, want 0", rows[1][0])
	}
	if rows[1][2] != string(cycle.PhaseIntake) {
		t.Errorf("first data row phase %q, want %q", rows[1][2], cycle.PhaseIntake)
	}
	for i, row := range rows {
		if len(row) != len(csvHeader) {
			t.Fatalf("row %d has %d columns, want %d", i, len(row), len(csvHeader))
		}
	}
}

func TestReportRender(t *testing.T) {
	res, err := engine.Run(context.Background(), engine.SimulationRequest{
		Bore:             100,
		Stroke:           100,
		CompressionRatio: 10,
		Cylinders:        4,
		EngineSpeed:      3000,
		Load:             75,
		IntakeTemp:       20,
		StepSize:         1.0,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var buf bytes.Buffer
	rep := Report{Result: res}
	if err := rep.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "echarts") {
		t.Error("report does not embed echarts")
	}
	if !strings.Contains(html, "Pressure-volume loop") {
		t.Error("report missing the P-V chart")
	}
}

func TestThinKeepsEndpoints(t *testing.T) {
	recs := make([]cycle.Record, 7201)
	for i := range recs {
		recs[i].Angle = float64(i) / 10
	}
	out := thin(recs)
	if len(out) > reportMaxPoints+1 {
		t.Fatalf("thinned to %d records, want at most %d", len(out), reportMaxPoints+1)
	}
	if out[0].Angle != 0 || out[len(out)-1].Angle != 720 {
		t.Errorf("thinned endpoints %v, %v; want 0, 720", out[0].Angle, out[len(out)-1].Angle)
	}
}

func TestSavePVDiagram(t *testing.T) {
	recs := coarseCycle(t)
	path := filepath.Join(t.TempDir(), "pv.png")

	if err := SavePVDiagram(path, recs); err != nil {
		t.Fatalf("SavePVDiagram: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Error("PNG written with no content")
	}
}
