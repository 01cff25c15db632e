// Package cycle generates the angle-resolved thermodynamic state of a
// single cylinder over one complete four-stroke cycle.
//
// The crank sweeps 0° to 720° at a fixed angular step. Each stroke has
// its own gas model: intake fills the cylinder at manifold conditions,
// compression and expansion follow isentropic relations, a short
// combustion window after firing TDC scales the charge state up by a
// load-dependent heat-addition multiplier, and exhaust blows down
// against a fixed back pressure. The generator emits one Record per
// step; the sequence is the sole input to downstream aggregation.
package cycle

import (
	"fmt"
	"math"

	"github.com/MichaelAyles/enginesim/internal/geometry"
)

// SpecificGasConstant is R for air, J/(kg·K).
const SpecificGasConstant = 287.05

// StrokePhase identifies which of the four strokes a crank angle falls
// in.
type StrokePhase string

const (
	PhaseIntake      StrokePhase = "intake"
	PhaseCompression StrokePhase = "compression"
	PhasePower       StrokePhase = "power"
	PhaseExhaust     StrokePhase = "exhaust"
)

// PhaseAt classifies a crank angle in [0°, 720°]. A boundary angle
// belongs to the stroke it closes: 180° is intake, 360° compression,
// 540° power and 720° exhaust.
func PhaseAt(angleDeg float64) StrokePhase {
	switch {
	case angleDeg <= 180:
		return PhaseIntake
	case angleDeg <= 360:
		return PhaseCompression
	case angleDeg <= 540:
		return PhasePower
	default:
		return PhaseExhaust
	}
}

// Calibration holds the empirical constants of the cycle model. They
// are tuning knobs rather than physical law; DefaultCalibration returns
// the values the model was calibrated with.
type Calibration struct {
	GammaAir            float64 // isentropic exponent of the fresh charge
	GammaProducts       float64 // isentropic exponent of the burned gas
	CombustionDuration  float64 // deg of crank angle after firing TDC
	HeatReleaseScale    float64 // J per degree per unit of excess multiplier
	ExhaustBackPressure float64 // exhaust pressure as a multiple of intake
	ExhaustTempFloor    float64 // exhaust temperature floor as a multiple of intake
	ExhaustTempDecay    float64 // per-step exhaust temperature retention
	ExhaustMassDecay    float64 // per-step residual mass retention
	WallTemp            float64 // K, reference wall temperature for heat transfer
	WoschniCoeff        float64 // leading coefficient of the Woschni correlation
}

// DefaultCalibration returns the standard constants.
func DefaultCalibration() Calibration {
	return Calibration{
		GammaAir:            1.4,
		GammaProducts:       1.35,
		CombustionDuration:  10,
		HeatReleaseScale:    1000,
		ExhaustBackPressure: 1.05,
		ExhaustTempFloor:    1.8,
		ExhaustTempDecay:    0.95,
		ExhaustMassDecay:    0.95,
		WallTemp:            400,
		WoschniCoeff:        3.26,
	}
}

// Params configures one generation run. Temperatures are kelvin and
// pressures pascals; callers working in request units convert first
// (see the engine package).
type Params struct {
	Geometry       geometry.Params
	EngineSpeed    float64     // rpm
	Load           float64     // fraction, 0 to 1
	IntakeTemp     float64     // K
	IntakePressure float64     // Pa; 0 selects standard atmosphere
	StepSize       float64     // deg; 0 selects 0.1
	Calibration    Calibration // zero value selects DefaultCalibration
}

// HeatAdditionMultiplier is the factor combustion scales the
// end-of-compression state by: 1.5 at no load rising linearly to 4.0 at
// full load.
func (p Params) HeatAdditionMultiplier() float64 {
	return 1.5 + 2.5*p.Load
}

// Record is the full kinematic and thermodynamic state at one crank
// angle. Values are rounded to stable export precision; internal
// accumulators are never rounded between steps.
type Record struct {
	Angle              float64     `json:"angle"`               // deg
	CycleProgress      float64     `json:"cycle_progress"`      // percent of the 720° cycle
	Phase              StrokePhase `json:"stroke_phase"`
	CombustionActive   bool        `json:"combustion_active"`
	IntakeValveOpen    bool        `json:"intake_valve_open"`
	ExhaustValveOpen   bool        `json:"exhaust_valve_open"`
	PistonPosition     float64     `json:"piston_position"`     // mm from TDC
	PistonVelocity     float64     `json:"piston_velocity"`     // m/s
	PistonAcceleration float64     `json:"piston_acceleration"` // m/s²
	Volume             float64     `json:"volume"`              // cm³
	Pressure           float64     `json:"pressure"`            // bar
	Temperature        float64     `json:"temperature"`         // K
	Mass               float64     `json:"mass"`                // kg of charge in the cylinder
	Density            float64     `json:"density"`             // kg/m³
	CompressionRatio   float64     `json:"instantaneous_compression_ratio"` // max volume over current volume
	HeatReleaseRate    float64     `json:"heat_release_rate"`       // J/deg while combustion is active
	CumulativeHeat     float64     `json:"cumulative_heat_release"` // J since cycle start
	HeatTransferCoeff  float64     `json:"heat_transfer_coefficient"` // W/(m²·K), Woschni
	HeatTransferRate   float64     `json:"heat_transfer_rate"`        // wall loss over this angular step
	SurfaceArea        float64     `json:"surface_area"`     // m²
	MeanPistonSpeed    float64     `json:"mean_piston_speed"` // m/s
	GasVelocity        float64     `json:"gas_velocity"`      // m/s, piston-speed proxy
}

// ComputationError reports a non-finite intermediate value at a
// specific crank angle. The generator checks every state variable each
// step so a numerical fault surfaces as an error instead of NaN output.
type ComputationError struct {
	Angle    float64
	Quantity string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("non-finite %s at crank angle %.1f°", e.Quantity, e.Angle)
}

// round half-away-from-zero to the given number of decimal places,
// normalising negative zero.
func round(v float64, places int) float64 {
	m := math.Pow(10, float64(places))
	r := math.Round(v*m) / m
	if r == 0 {
		return 0
	}
	return r
}
