package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelAyles/enginesim/internal/cycle"
	"github.com/MichaelAyles/enginesim/internal/geometry"
	"github.com/MichaelAyles/enginesim/internal/performance"
)

// EngineType selects the validation envelope for the compression
// ratio. The cycle model itself is shared.
type EngineType string

const (
	EngineGasoline EngineType = "gasoline"
	EngineDiesel   EngineType = "diesel"
)

// Compression ratio envelopes per engine type.
const (
	MinGasolineCR = 8.0
	MaxGasolineCR = 15.0
	MinDieselCR   = 12.0
	MaxDieselCR   = 22.0
)

// Operating ranges a simulation request must sit inside.
const (
	MinRequestBore   = 50.0   // mm
	MaxRequestBore   = 150.0  // mm
	MinRequestStroke = 50.0   // mm
	MaxRequestStroke = 150.0  // mm
	MinCylinders     = 1
	MaxCylinders     = 12
	MinEngineSpeed   = 500.0  // rpm
	MaxEngineSpeed   = 8000.0 // rpm
	MinIntakeTemp    = -20.0  // °C
	MaxIntakeTemp    = 60.0   // °C
	MinIntakePress   = 10e3   // Pa
	MaxIntakePress   = 500e3  // Pa
)

// Intake temperatures above this are taken as kelvin and converted;
// valid Celsius inputs top out at 60 and valid kelvin inputs start at
// 253.15, so the two ranges never overlap.
const kelvinThreshold = 200.0

// SimulationRequest is the JSON wire form a caller submits. Optional
// fields left zero pick up defaults during the run.
type SimulationRequest struct {
	EngineType       EngineType `json:"engine_type,omitempty"` // defaults to gasoline
	Bore             float64    `json:"bore"`                  // mm
	Stroke           float64    `json:"stroke"`                // mm
	RodLength        float64    `json:"rod_length,omitempty"`  // mm; 0 selects 1.75 × stroke
	CompressionRatio float64    `json:"compression_ratio"`
	Cylinders        int        `json:"cylinders"`
	EngineSpeed      float64    `json:"engine_speed"` // rpm
	Load             float64    `json:"load"`         // percent, 0 to 100
	IntakeTemp       float64    `json:"intake_temp"`  // °C; kelvin values are recognised and converted
	IntakePressure   float64    `json:"intake_pressure,omitempty"` // Pa; 0 selects standard atmosphere
	StepSize         float64    `json:"step_size,omitempty"`       // deg; 0 selects 0.1
}

// withDefaults resolves the fields whose zero value stands for a
// default and normalises kelvin intake temperatures to Celsius.
func (r SimulationRequest) withDefaults() SimulationRequest {
	if r.EngineType == "" {
		r.EngineType = EngineGasoline
	}
	if r.IntakeTemp > kelvinThreshold {
		r.IntakeTemp -= 273.15
	}
	return r
}

// SimulationResult is everything one run produces. The cycle slice is
// deterministic for a given request; the run ID and timestamp identify
// this particular execution.
type SimulationResult struct {
	RunID       uuid.UUID             `json:"run_id"`
	Timestamp   time.Time             `json:"timestamp"`
	Request     SimulationRequest     `json:"request"`
	Geometry    geometry.Derived      `json:"geometry"`
	Cycle       []cycle.Record        `json:"cycle"`
	Performance performance.Summary   `json:"performance"`
	Emissions   performance.Emissions `json:"emissions"`
}

// FieldViolation pins one constraint failure to the request field that
// caused it.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every constraint a request violates, not
// just the first one found.
type ValidationError struct {
	Violations []FieldViolation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return "invalid simulation request: " + strings.Join(parts, "; ")
}

// Validate checks every operating range on a defaults-resolved request
// and reports the full set of violations. A nil return means the
// request can be simulated.
func (r SimulationRequest) Validate() error {
	var vs []FieldViolation
	add := func(field, format string, args ...any) {
		vs = append(vs, FieldViolation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if r.EngineType != EngineGasoline && r.EngineType != EngineDiesel {
		add("engine_type", "unknown engine type %q", string(r.EngineType))
	}
	if !within(r.Bore, MinRequestBore, MaxRequestBore) {
		add("bore", "%v mm is outside %v to %v mm", r.Bore, MinRequestBore, MaxRequestBore)
	}
	if !within(r.Stroke, MinRequestStroke, MaxRequestStroke) {
		add("stroke", "%v mm is outside %v to %v mm", r.Stroke, MinRequestStroke, MaxRequestStroke)
	}
	if r.RodLength != 0 && !(r.RodLength >= r.Stroke) {
		add("rod_length", "%v mm must be at least the stroke (%v mm)", r.RodLength, r.Stroke)
	}
	minCR, maxCR := MinGasolineCR, MaxGasolineCR
	if r.EngineType == EngineDiesel {
		minCR, maxCR = MinDieselCR, MaxDieselCR
	}
	if !within(r.CompressionRatio, minCR, maxCR) {
		add("compression_ratio", "%v is outside %v to %v for a %s engine", r.CompressionRatio, minCR, maxCR, r.EngineType)
	}
	if r.Cylinders < MinCylinders || r.Cylinders > MaxCylinders {
		add("cylinders", "%d is outside %d to %d", r.Cylinders, MinCylinders, MaxCylinders)
	}
	if !within(r.EngineSpeed, MinEngineSpeed, MaxEngineSpeed) {
		add("engine_speed", "%v rpm is outside %v to %v rpm", r.EngineSpeed, MinEngineSpeed, MaxEngineSpeed)
	}
	if !within(r.Load, 0, 100) {
		add("load", "%v%% is outside 0 to 100%%", r.Load)
	}
	if !within(r.IntakeTemp, MinIntakeTemp, MaxIntakeTemp) {
		add("intake_temp", "%v °C is outside %v to %v °C", r.IntakeTemp, MinIntakeTemp, MaxIntakeTemp)
	}
	if r.IntakePressure != 0 && !within(r.IntakePressure, MinIntakePress, MaxIntakePress) {
		add("intake_pressure", "%v Pa is outside %v to %v Pa", r.IntakePressure, MinIntakePress, MaxIntakePress)
	}
	if r.StepSize != 0 && !validStep(r.StepSize) {
		add("step_size", "%v° must be between 0 and 1° and divide the 10° burn window evenly", r.StepSize)
	}

	if len(vs) > 0 {
		return &ValidationError{Violations: vs}
	}
	return nil
}

// within reports lo ≤ v ≤ hi, rejecting NaN.
func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func validStep(s float64) bool {
	if !(s > 0 && s <= 1) {
		return false
	}
	n := math.Round(10 / s)
	return n >= 10 && math.Abs(n*s-10) < 1e-9
}
