package cycle

import (
	"context"
	"fmt"
	"math"

	"github.com/MichaelAyles/enginesim/internal/geometry"
)

const (
	// DefaultStepSize is the crank-angle resolution (deg) when Params
	// leaves StepSize zero: 7201 records over the 720° cycle.
	DefaultStepSize = 0.1

	// StandardPressure is one atmosphere in pascals, the default
	// intake manifold pressure.
	StandardPressure = 101325.0

	cycleDeg = 720.0
	fireDeg  = 360.0 // firing TDC, start of the combustion window
)

// Generator produces the record sequence for one engine cycle. Create
// it with NewGenerator; Generate is deterministic for identical Params
// and keeps no state between calls.
type Generator struct {
	geom  *geometry.Cylinder
	p     Params
	cal   Calibration
	steps int

	// OnProgress, when set, receives percent complete at every 10° of
	// crank angle, 0 and 100 included. It is called synchronously from
	// the generation loop.
	OnProgress func(percent float64)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// divides reports whether step lands exactly on span when marched from
// zero, within float tolerance.
func divides(step, span float64) bool {
	n := math.Round(span / step)
	return n >= 1 && math.Abs(n*step-span) < 1e-9
}

// NewGenerator validates p, applies defaults and returns a ready
// generator. Out-of-range or non-finite parameters are rejected here,
// before any stepping happens.
func NewGenerator(p Params) (*Generator, error) {
	if p.StepSize == 0 {
		p.StepSize = DefaultStepSize
	}
	if p.IntakePressure == 0 {
		p.IntakePressure = StandardPressure
	}
	if (p.Calibration == Calibration{}) {
		p.Calibration = DefaultCalibration()
	}

	if !isFinite(p.EngineSpeed) || p.EngineSpeed <= 0 {
		return nil, fmt.Errorf("engine speed %v rpm must be positive and finite", p.EngineSpeed)
	}
	if !isFinite(p.Load) || p.Load < 0 || p.Load > 1 {
		return nil, fmt.Errorf("load %v must be a fraction between 0 and 1", p.Load)
	}
	if !isFinite(p.IntakeTemp) || p.IntakeTemp <= 0 {
		return nil, fmt.Errorf("intake temperature %v K must be positive and finite", p.IntakeTemp)
	}
	if !isFinite(p.IntakePressure) || p.IntakePressure <= 0 {
		return nil, fmt.Errorf("intake pressure %v Pa must be positive and finite", p.IntakePressure)
	}
	if !isFinite(p.StepSize) || p.StepSize <= 0 || p.StepSize > 1 {
		return nil, fmt.Errorf("step size %v° must be between 0 (exclusive) and 1°", p.StepSize)
	}
	cal := p.Calibration
	if cal.CombustionDuration <= 0 || cal.CombustionDuration > 180 {
		return nil, fmt.Errorf("combustion duration %v° must be between 0 (exclusive) and 180°", cal.CombustionDuration)
	}
	if !divides(p.StepSize, cal.CombustionDuration) || !divides(p.StepSize, cycleDeg) {
		return nil, fmt.Errorf("step size %v° must divide the %v° combustion window and the cycle evenly",
			p.StepSize, cal.CombustionDuration)
	}

	geom, err := geometry.New(p.Geometry)
	if err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}

	return &Generator{
		geom:  geom,
		p:     p,
		cal:   cal,
		steps: int(math.Round(cycleDeg / p.StepSize)),
	}, nil
}

// Geometry returns the validated cylinder the generator steps over.
func (g *Generator) Geometry() *geometry.Cylinder { return g.geom }

// Steps returns the number of angular steps per cycle; Generate emits
// Steps()+1 records including both endpoints.
func (g *Generator) Steps() int { return g.steps }

// Generate sweeps the crank from 0° to 720° and returns the complete
// record sequence. ctx is consulted between steps only; a cancelled run
// returns ctx.Err() and no records.
func (g *Generator) Generate(ctx context.Context) ([]Record, error) {
	var (
		pIn  = g.p.IntakePressure
		tIn  = g.p.IntakeTemp
		vMax = g.geom.MaxVolume()
		vCl  = g.geom.ClearanceVolume()
		cr   = g.geom.CompressionRatio()
		mult = g.p.HeatAdditionMultiplier()

		// End-of-compression state follows in closed form from the
		// intake state, and the combustion peak from that.
		pEOC = pIn * math.Pow(cr, g.cal.GammaAir)
		tEOC = tIn * math.Pow(cr, g.cal.GammaAir-1)
		pPk  = pEOC * mult
		tPk  = tEOC * mult

		burnRate  = (mult - 1) * g.cal.HeatReleaseScale // J/deg
		burnEnd   = fireDeg + g.cal.CombustionDuration
		meanSpeed = g.geom.MeanPistonSpeed(g.p.EngineSpeed)
		every10   = g.steps / 72 // steps per 10° of crank angle
	)

	var (
		mass    float64 // kg, set during intake, trapped after
		cumHeat float64 // J, unrounded accumulator
		temp    = tIn   // K, previous-step value for the exhaust recurrence
	)

	recs := make([]Record, 0, g.steps+1)
	for i := 0; i <= g.steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if g.OnProgress != nil && i%every10 == 0 {
			g.OnProgress(float64(i) / float64(g.steps) * 100)
		}

		// Integer-scaled division keeps boundary samples exact where
		// the angle is representable (whole degrees in particular).
		angle := float64(i) * cycleDeg / float64(g.steps)
		phase := PhaseAt(angle)
		vol := g.geom.CylinderVolume(angle)
		burning := angle > fireDeg && angle <= burnEnd

		var press float64
		var heatRate float64
		switch phase {
		case PhaseIntake:
			// Cylinder fills at manifold conditions; the charge mass
			// tracks the growing volume and is trapped at 180°.
			press = pIn
			temp = tIn
			mass = press * vol / (SpecificGasConstant * temp)
		case PhaseCompression:
			r := vMax / vol
			press = pIn * math.Pow(r, g.cal.GammaAir)
			temp = tIn * math.Pow(r, g.cal.GammaAir-1)
		case PhasePower:
			if burning {
				progress := (angle - fireDeg) / g.cal.CombustionDuration
				scale := 1 + (mult-1)*progress
				press = pEOC * scale
				temp = tEOC * scale
				heatRate = burnRate
				cumHeat += burnRate * g.p.StepSize
			} else {
				er := vol / vCl
				press = pPk * math.Pow(er, -g.cal.GammaProducts)
				temp = tPk * math.Pow(er, -(g.cal.GammaProducts-1))
			}
		case PhaseExhaust:
			press = g.cal.ExhaustBackPressure * pIn
			temp = math.Max(g.cal.ExhaustTempFloor*tIn, g.cal.ExhaustTempDecay*temp)
			mass *= g.cal.ExhaustMassDecay
		}

		vel := g.geom.PistonVelocity(angle, g.p.EngineSpeed)
		gasVel := math.Abs(vel)
		area := g.geom.SurfaceArea(angle)
		// Woschni correlation with its traditional mixed units:
		// pressure in kPa, bore in m, temperature in K.
		htc := g.cal.WoschniCoeff * math.Pow(g.geom.Bore(), -0.2) *
			math.Pow(press/1000, 0.8) * math.Pow(temp, -0.55) *
			math.Pow(meanSpeed+gasVel, 0.8)
		htRate := htc * area * (temp - g.cal.WallTemp) * g.p.StepSize

		switch {
		case !isFinite(press):
			return nil, &ComputationError{Angle: angle, Quantity: "pressure"}
		case !isFinite(temp):
			return nil, &ComputationError{Angle: angle, Quantity: "temperature"}
		case !isFinite(mass):
			return nil, &ComputationError{Angle: angle, Quantity: "mass"}
		case !isFinite(htc):
			return nil, &ComputationError{Angle: angle, Quantity: "heat transfer coefficient"}
		}

		recs = append(recs, Record{
			Angle:              round(angle, 1),
			CycleProgress:      round(angle/cycleDeg*100, 2),
			Phase:              phase,
			CombustionActive:   burning,
			IntakeValveOpen:    phase == PhaseIntake,
			ExhaustValveOpen:   phase == PhaseExhaust,
			PistonPosition:     round(g.geom.PistonPosition(angle)*1000, 3),
			PistonVelocity:     round(vel, 3),
			PistonAcceleration: round(g.geom.PistonAcceleration(angle, g.p.EngineSpeed), 1),
			Volume:             round(vol*1e6, 3),
			Pressure:           round(press/1e5, 3),
			Temperature:        round(temp, 1),
			Mass:               round(mass, 9),
			Density:            round(mass/vol, 4),
			CompressionRatio:   round(vMax/vol, 3),
			HeatReleaseRate:    round(heatRate, 3),
			CumulativeHeat:     round(cumHeat, 2),
			HeatTransferCoeff:  round(htc, 2),
			HeatTransferRate:   round(htRate, 2),
			SurfaceArea:        round(area, 5),
			MeanPistonSpeed:    round(meanSpeed, 3),
			GasVelocity:        round(gasVel, 3),
		})
	}
	return recs, nil
}
