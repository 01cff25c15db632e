package render

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/MichaelAyles/enginesim/internal/cycle"
	"github.com/MichaelAyles/enginesim/internal/engine"
)

// reportMaxPoints caps the samples per interactive chart; above it the
// cycle is thinned by an integer stride.
const reportMaxPoints = 1500

// Report renders one simulation result as a self-contained HTML page
// of interactive charts.
type Report struct {
	Result *engine.SimulationResult
}

// Render writes the page to w.
func (rep *Report) Render(w io.Writer) error {
	res := rep.Result
	recs := thin(res.Cycle)
	p := res.Performance

	headline := fmt.Sprintf("run %s: %.1f bar peak at %.1f°, %.0f K peak, %.1f kW brake, %.1f%% thermal",
		res.RunID, p.PeakPressure, p.PeakPressureAngle, p.PeakTemperature, p.BrakePower, p.ThermalEfficiency)

	page := components.NewPage()
	page.AddCharts(
		angleLine("Cylinder pressure (bar)", headline, recs, func(r cycle.Record) float64 { return r.Pressure }),
		angleLine("Gas temperature (K)", "", recs, func(r cycle.Record) float64 { return r.Temperature }),
		angleLine("Cumulative heat release (J)", "", recs, func(r cycle.Record) float64 { return r.CumulativeHeat }),
		angleLine("Piston velocity (m/s)", "", recs, func(r cycle.Record) float64 { return r.PistonVelocity }),
		pvLine(recs),
	)
	return page.Render(w)
}

// Handler serves the report over HTTP.
func (rep *Report) Handler(w http.ResponseWriter, _ *http.Request) {
	if err := rep.Render(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func angleLine(title, subtitle string, recs []cycle.Record, get func(cycle.Record) float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:        "deg",
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithAnimation(true),
	)

	angles := make([]float64, len(recs))
	items := make([]opts.LineData, len(recs))
	for i, r := range recs {
		angles[i] = r.Angle
		items[i] = opts.LineData{Value: get(r)}
	}
	line.SetXAxis(angles).AddSeries(title, items)
	return line
}

func pvLine(recs []cycle.Record) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Pressure-volume loop",
			Subtitle: "pressure (bar) against volume (cm³)",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "value",
			Name: "cm³",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithAnimation(true),
	)

	items := make([]opts.LineData, len(recs))
	for i, r := range recs {
		items[i] = opts.LineData{Value: []interface{}{r.Volume, r.Pressure}}
	}
	line.AddSeries("cycle", items)
	return line
}

func thin(recs []cycle.Record) []cycle.Record {
	if len(recs) <= reportMaxPoints {
		return recs
	}
	stride := (len(recs) + reportMaxPoints - 1) / reportMaxPoints
	out := make([]cycle.Record, 0, len(recs)/stride+1)
	for i := 0; i < len(recs); i += stride {
		out = append(out, recs[i])
	}
	// The closing sample anchors the loop back at TDC.
	if last := recs[len(recs)-1]; out[len(out)-1].Angle != last.Angle {
		out = append(out, last)
	}
	return out
}
