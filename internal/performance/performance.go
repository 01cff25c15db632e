// Package performance aggregates a generated cycle into the headline
// numbers an engine sheet quotes: indicated and brake work, power,
// torque, mean effective pressures, efficiency and peak cylinder state.
package performance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/MichaelAyles/enginesim/internal/cycle"
)

// DefaultMechanicalEfficiency converts indicated to brake quantities
// when the caller has no measured value.
const DefaultMechanicalEfficiency = 0.85

// Inputs carries the operating context a summary needs beyond the
// record sequence itself.
type Inputs struct {
	EngineSpeed          float64 // rpm
	Cylinders            int
	Load                 float64 // fraction, 0 to 1
	MechanicalEfficiency float64 // 0 selects DefaultMechanicalEfficiency
}

// Summary aggregates one completed cycle. Per-cylinder quantities are
// marked as such; power and torque cover all cylinders.
type Summary struct {
	IndicatedWork     float64 `json:"indicated_work"`  // J per cylinder per cycle
	IndicatedPower    float64 `json:"indicated_power"` // kW
	BrakePower        float64 `json:"brake_power"`     // kW
	Torque            float64 `json:"torque"`          // N·m at the crankshaft
	IMEP              float64 `json:"imep"`            // bar
	BMEP              float64 `json:"bmep"`            // bar
	ThermalEfficiency float64 `json:"thermal_efficiency"` // percent
	PeakPressure      float64 `json:"peak_pressure"`      // bar
	PeakPressureAngle float64 `json:"peak_pressure_angle"` // deg
	PeakTemperature   float64 `json:"peak_temperature"`    // K
	PeakTempAngle     float64 `json:"peak_temperature_angle"` // deg
	MeanPistonSpeed   float64 `json:"mean_piston_speed"`      // m/s
	CyclesPerSecond   float64 `json:"cycles_per_second"`
}

// Summarize reduces an ordered record sequence to a Summary. The
// sequence must cover at least one volume change; it is otherwise
// taken as generated, with no re-derivation of the cycle state.
func Summarize(recs []cycle.Record, in Inputs) (Summary, error) {
	if len(recs) < 2 {
		return Summary{}, fmt.Errorf("cycle too short to summarise: %d records", len(recs))
	}
	if in.EngineSpeed <= 0 {
		return Summary{}, fmt.Errorf("engine speed %v rpm must be positive", in.EngineSpeed)
	}
	if in.Cylinders < 1 {
		return Summary{}, fmt.Errorf("cylinder count %d must be at least 1", in.Cylinders)
	}
	mech := in.MechanicalEfficiency
	if mech == 0 {
		mech = DefaultMechanicalEfficiency
	}
	if mech <= 0 || mech > 1 {
		return Summary{}, fmt.Errorf("mechanical efficiency %v must be between 0 and 1", mech)
	}

	vols := make([]float64, len(recs))  // m³
	press := make([]float64, len(recs)) // Pa
	temps := make([]float64, len(recs)) // K
	for i, r := range recs {
		vols[i] = r.Volume * 1e-6
		press[i] = r.Pressure * 1e5
		temps[i] = r.Temperature
	}

	work := netWork(recs, vols, press) // J per cylinder per cycle

	// A four-stroke cycle spans two crankshaft revolutions.
	cps := in.EngineSpeed / 120
	indicatedW := work * cps * float64(in.Cylinders)
	brakeW := mech * indicatedW

	displacement := floats.Max(vols) - floats.Min(vols)
	imep := work / displacement // Pa

	heat := recs[len(recs)-1].CumulativeHeat
	efficiency := 0.0
	if heat > 0 {
		efficiency = work / heat * 100
	}

	pi := floats.MaxIdx(press)
	ti := floats.MaxIdx(temps)

	return Summary{
		IndicatedWork:     round3(work),
		IndicatedPower:    round3(indicatedW / 1000),
		BrakePower:        round3(brakeW / 1000),
		Torque:            round3(brakeW * 60 / (2 * math.Pi * in.EngineSpeed)),
		IMEP:              round3(imep / 1e5),
		BMEP:              round3(mech * imep / 1e5),
		ThermalEfficiency: round3(efficiency),
		PeakPressure:      recs[pi].Pressure,
		PeakPressureAngle: recs[pi].Angle,
		PeakTemperature:   recs[ti].Temperature,
		PeakTempAngle:     recs[ti].Angle,
		MeanPistonSpeed:   recs[0].MeanPistonSpeed,
		CyclesPerSecond:   round3(cps),
	}, nil
}

// netWork integrates the P–V loop. Each stroke is monotone in volume,
// so the loop splits at the phase boundaries into runs the trapezoid
// rule handles directly; adjacent runs share the boundary sample so
// every interval is counted exactly once.
func netWork(recs []cycle.Record, vols, press []float64) float64 {
	work := 0.0
	start := 0
	for i := 1; i < len(recs); i++ {
		if recs[i].Phase != recs[start].Phase {
			work += segmentWork(vols[start:i], press[start:i])
			start = i - 1
		}
	}
	return work + segmentWork(vols[start:], press[start:])
}

// segmentWork integrates one monotone stroke. integrate.Trapezoidal
// wants ascending abscissae, so a falling stroke integrates over a
// reversed copy with its sign flipped.
func segmentWork(v, p []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	if v[len(v)-1] >= v[0] {
		return integrate.Trapezoidal(v, p)
	}
	rv := make([]float64, len(v))
	rp := make([]float64, len(p))
	copy(rv, v)
	copy(rp, p)
	floats.Reverse(rv)
	floats.Reverse(rp)
	return -integrate.Trapezoidal(rv, rp)
}

func round3(v float64) float64 {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		return 0
	}
	return r
}
