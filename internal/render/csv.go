package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/MichaelAyles/enginesim/internal/cycle"
)

var csvHeader = []string{
	"angle", "cycle_progress", "stroke_phase", "combustion_active",
	"intake_valve_open", "exhaust_valve_open", "piston_position",
	"piston_velocity", "piston_acceleration", "volume", "pressure",
	"temperature", "mass", "density", "instantaneous_compression_ratio",
	"heat_release_rate", "cumulative_heat_release",
	"heat_transfer_coefficient", "heat_transfer_rate", "surface_area",
	"mean_piston_speed", "gas_velocity",
}

// WriteCSV streams the full record sequence as CSV, one row per crank
// angle step, columns in csvHeader order.
func WriteCSV(w io.Writer, recs []cycle.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range recs {
		row := []string{
			num(r.Angle), num(r.CycleProgress), string(r.Phase),
			strconv.FormatBool(r.CombustionActive),
			strconv.FormatBool(r.IntakeValveOpen),
			strconv.FormatBool(r.ExhaustValveOpen),
			num(r.PistonPosition), num(r.PistonVelocity),
			num(r.PistonAcceleration), num(r.Volume), num(r.Pressure),
			num(r.Temperature), num(r.Mass), num(r.Density),
			num(r.CompressionRatio), num(r.HeatReleaseRate),
			num(r.CumulativeHeat), num(r.HeatTransferCoeff),
			num(r.HeatTransferRate), num(r.SurfaceArea),
			num(r.MeanPistonSpeed), num(r.GasVelocity),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row at %v°: %w", r.Angle, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
