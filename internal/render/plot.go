package render

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/MichaelAyles/enginesim/internal/cycle"
)

// SavePVDiagram writes the pressure-volume loop as a PNG.
func SavePVDiagram(path string, recs []cycle.Record) error {
	return saveLinePlot(path, "Pressure-Volume Diagram", PVSeries(recs))
}

// SaveAnglePlot writes one cycle quantity against crank angle as a
// PNG. field must be one of Fields().
func SaveAnglePlot(path string, recs []cycle.Record, field string) error {
	s, err := AngleSeries(recs, field)
	if err != nil {
		return err
	}
	return saveLinePlot(path, s.YLabel, s)
}

// SaveCyclePlots writes the standard chart set for a run into dir:
// the P-V diagram plus pressure, temperature, volume and cumulative
// heat release against crank angle.
func SaveCyclePlots(dir string, recs []cycle.Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating plot directory %s: %w", dir, err)
	}
	if err := SavePVDiagram(filepath.Join(dir, "pv_diagram.png"), recs); err != nil {
		return err
	}
	for _, field := range []string{"pressure", "temperature", "volume", "cumulative_heat_release"} {
		if err := SaveAnglePlot(filepath.Join(dir, field+".png"), recs, field); err != nil {
			return err
		}
	}
	return nil
}

func saveLinePlot(path, title string, s Series) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = s.XLabel
	p.Y.Label.Text = s.YLabel
	stylePlot(p)

	pts := make(plotter.XYs, len(s.X))
	for i := range s.X {
		pts[i].X = s.X[i]
		pts[i].Y = s.Y[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("building %s line: %w", s.Name, err)
	}
	line.LineStyle.Width = vg.Points(1.5)

	p.Add(plotter.NewGrid(), line)
	return savePlotPNG(p, path)
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.TextStyle.Font.Size = vg.Points(11)
	p.Y.Label.TextStyle.Font.Size = vg.Points(11)
	p.X.Tick.Label.Font.Size = vg.Points(9)
	p.Y.Tick.Label.Font.Size = vg.Points(9)
	p.X.Padding = vg.Points(4)
	p.Y.Padding = vg.Points(4)
}

func savePlotPNG(p *plot.Plot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	c := vgimg.NewWith(vgimg.UseWH(18*vg.Centimeter, 12*vg.Centimeter), vgimg.UseDPI(150))
	dc := draw.New(c)
	p.Draw(dc)

	w := bufio.NewWriter(f)
	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return nil
}
