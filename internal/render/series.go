// Package render turns simulation results into the forms people look
// at: CSV exports, PNG charts and a self-contained HTML report.
package render

import (
	"fmt"
	"sort"

	"github.com/MichaelAyles/enginesim/internal/cycle"
)

// Series is one plottable quantity extracted from a cycle.
type Series struct {
	Name   string
	XLabel string
	YLabel string
	X      []float64
	Y      []float64
}

type fieldSpec struct {
	label string
	get   func(cycle.Record) float64
}

var fieldSpecs = map[string]fieldSpec{
	"pressure":                        {"Pressure (bar)", func(r cycle.Record) float64 { return r.Pressure }},
	"temperature":                     {"Temperature (K)", func(r cycle.Record) float64 { return r.Temperature }},
	"volume":                          {"Volume (cm³)", func(r cycle.Record) float64 { return r.Volume }},
	"mass":                            {"Mass (kg)", func(r cycle.Record) float64 { return r.Mass }},
	"density":                         {"Density (kg/m³)", func(r cycle.Record) float64 { return r.Density }},
	"piston_position":                 {"Piston position (mm)", func(r cycle.Record) float64 { return r.PistonPosition }},
	"piston_velocity":                 {"Piston velocity (m/s)", func(r cycle.Record) float64 { return r.PistonVelocity }},
	"piston_acceleration":             {"Piston acceleration (m/s²)", func(r cycle.Record) float64 { return r.PistonAcceleration }},
	"heat_release_rate":               {"Heat release rate (J/deg)", func(r cycle.Record) float64 { return r.HeatReleaseRate }},
	"cumulative_heat_release":         {"Cumulative heat release (J)", func(r cycle.Record) float64 { return r.CumulativeHeat }},
	"heat_transfer_coefficient":       {"Heat transfer coefficient (W/m²K)", func(r cycle.Record) float64 { return r.HeatTransferCoeff }},
	"heat_transfer_rate":              {"Wall heat loss per step", func(r cycle.Record) float64 { return r.HeatTransferRate }},
	"surface_area":                    {"Surface area (m²)", func(r cycle.Record) float64 { return r.SurfaceArea }},
	"gas_velocity":                    {"Gas velocity (m/s)", func(r cycle.Record) float64 { return r.GasVelocity }},
	"instantaneous_compression_ratio": {"Instantaneous compression ratio", func(r cycle.Record) float64 { return r.CompressionRatio }},
}

// Fields lists the quantities AngleSeries can extract, sorted by name.
func Fields() []string {
	names := make([]string, 0, len(fieldSpecs))
	for name := range fieldSpecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AngleSeries extracts one named quantity against crank angle.
func AngleSeries(recs []cycle.Record, field string) (Series, error) {
	spec, ok := fieldSpecs[field]
	if !ok {
		return Series{}, fmt.Errorf("unknown field %q, expected one of %v", field, Fields())
	}
	s := Series{
		Name:   field,
		XLabel: "Crank angle (deg)",
		YLabel: spec.label,
		X:      make([]float64, len(recs)),
		Y:      make([]float64, len(recs)),
	}
	for i, r := range recs {
		s.X[i] = r.Angle
		s.Y[i] = spec.get(r)
	}
	return s, nil
}

// PVSeries extracts the pressure-volume loop in cycle order.
func PVSeries(recs []cycle.Record) Series {
	s := Series{
		Name:   "pv",
		XLabel: "Volume (cm³)",
		YLabel: "Pressure (bar)",
		X:      make([]float64, len(recs)),
		Y:      make([]float64, len(recs)),
	}
	for i, r := range recs {
		s.X[i] = r.Volume
		s.Y[i] = r.Pressure
	}
	return s
}
