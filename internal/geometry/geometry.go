// Package geometry models the slider-crank geometry of a single engine
// cylinder: swept and clearance volumes, piston motion, and the wall
// area exposed to the gas, all as functions of crank angle.
//
// Angles are degrees of crank rotation over a full four-stroke cycle
// [0°, 720°], with 0° at top dead centre. Dimensions enter in
// millimetres; derived quantities are SI unless a comment says
// otherwise.
package geometry

import (
	"fmt"
	"math"
)

// Broad physical bounds for standalone geometry use. Validation of a
// full simulation request applies the tighter operating ranges (see the
// engine package).
const (
	MinBore   = 30.0  // mm
	MaxBore   = 200.0 // mm
	MinStroke = 50.0  // mm
	MaxStroke = 150.0 // mm
)

// DefaultRodRatio sets the connecting-rod length when none is supplied,
// as a multiple of stroke.
const DefaultRodRatio = 1.75

// Params are the cylinder dimensions as a caller supplies them.
type Params struct {
	Bore             float64 `json:"bore"`                 // mm
	Stroke           float64 `json:"stroke"`               // mm
	RodLength        float64 `json:"rod_length,omitempty"` // mm; 0 selects DefaultRodRatio × stroke
	CompressionRatio float64 `json:"compression_ratio"`
}

// Derived holds the fixed volumes computed once from the cylinder
// dimensions, in the units downstream consumers expect.
type Derived struct {
	Displacement      float64 `json:"displacement"`        // cm³, swept volume
	ClearanceVolume   float64 `json:"clearance_volume"`    // cm³
	MaxCylinderVolume float64 `json:"max_cylinder_volume"` // cm³, clearance + displacement
}

// Cylinder is a validated slider-crank cylinder geometry. Construct it
// with New; every method is a pure function of crank angle and, where
// stated, engine speed.
type Cylinder struct {
	bore         float64 // m
	stroke       float64 // m
	rod          float64 // m, connecting-rod centre-to-centre length
	cr           float64
	crankRadius  float64 // m, stroke/2
	boreArea     float64 // m², also the head and piston-crown area
	displacement float64 // m³
	clearance    float64 // m³
}

// New validates p and returns the derived cylinder geometry.
func New(p Params) (*Cylinder, error) {
	if p.RodLength == 0 {
		p.RodLength = DefaultRodRatio * p.Stroke
	}
	if p.Bore <= 0 || p.Stroke <= 0 || p.RodLength <= 0 {
		return nil, fmt.Errorf("dimensions must be positive (bore %.1f mm, stroke %.1f mm, rod %.1f mm)",
			p.Bore, p.Stroke, p.RodLength)
	}
	if p.Bore < MinBore || p.Bore > MaxBore {
		return nil, fmt.Errorf("bore %.1f mm must be between %.0f and %.0f mm", p.Bore, MinBore, MaxBore)
	}
	if p.Stroke < MinStroke || p.Stroke > MaxStroke {
		return nil, fmt.Errorf("stroke %.1f mm must be between %.0f and %.0f mm", p.Stroke, MinStroke, MaxStroke)
	}
	if p.CompressionRatio <= 1 {
		return nil, fmt.Errorf("compression ratio %.2f must exceed 1", p.CompressionRatio)
	}
	if p.RodLength < p.Stroke {
		return nil, fmt.Errorf("connecting rod %.1f mm must be at least the stroke %.1f mm", p.RodLength, p.Stroke)
	}

	bore := p.Bore / 1000
	stroke := p.Stroke / 1000
	boreArea := math.Pi * bore * bore / 4
	displacement := boreArea * stroke

	return &Cylinder{
		bore:         bore,
		stroke:       stroke,
		rod:          p.RodLength / 1000,
		cr:           p.CompressionRatio,
		crankRadius:  stroke / 2,
		boreArea:     boreArea,
		displacement: displacement,
		clearance:    displacement / (p.CompressionRatio - 1),
	}, nil
}

// Derived returns the fixed volume set in cm³.
func (c *Cylinder) Derived() Derived {
	return Derived{
		Displacement:      c.displacement * 1e6,
		ClearanceVolume:   c.clearance * 1e6,
		MaxCylinderVolume: (c.clearance + c.displacement) * 1e6,
	}
}

// PistonPosition returns the piston's distance from top dead centre (m)
// at the given crank angle, using the two-term slider-crank expansion
// x = r(1−cos θ) + (r²/2l)·sin²θ.
func (c *Cylinder) PistonPosition(angleDeg float64) float64 {
	theta := angleDeg * math.Pi / 180
	sin := math.Sin(theta)
	return c.crankRadius*(1-math.Cos(theta)) + c.crankRadius*c.crankRadius/(2*c.rod)*sin*sin
}

// PistonVelocity returns the piston speed (m/s, positive away from TDC)
// at the given crank angle and engine speed (rpm). It is the time
// derivative of PistonPosition at angular velocity ω = 2π·rpm/60.
func (c *Cylinder) PistonVelocity(angleDeg, rpm float64) float64 {
	theta := angleDeg * math.Pi / 180
	omega := 2 * math.Pi * rpm / 60
	lambda := c.crankRadius / c.rod
	return c.crankRadius * omega * (math.Sin(theta) + lambda/2*math.Sin(2*theta))
}

// PistonAcceleration returns the piston acceleration (m/s²) at the
// given crank angle and engine speed (rpm), the second time derivative
// of PistonPosition.
func (c *Cylinder) PistonAcceleration(angleDeg, rpm float64) float64 {
	theta := angleDeg * math.Pi / 180
	omega := 2 * math.Pi * rpm / 60
	lambda := c.crankRadius / c.rod
	return c.crankRadius * omega * omega * (math.Cos(theta) + lambda*math.Cos(2*theta))
}

// CylinderVolume returns the chamber volume (m³) at the given crank
// angle: clearance plus the volume swept by the piston. The result is
// floored at the clearance volume so rounding at exact TDC can never
// produce a degenerate chamber.
func (c *Cylinder) CylinderVolume(angleDeg float64) float64 {
	v := c.clearance + c.boreArea*c.PistonPosition(angleDeg)
	return math.Max(v, c.clearance)
}

// SurfaceArea returns the wall area (m²) in contact with the gas at the
// given crank angle: head plus piston crown plus the exposed liner,
// with the liner height taken from the current volume.
func (c *Cylinder) SurfaceArea(angleDeg float64) float64 {
	height := c.CylinderVolume(angleDeg) / c.boreArea
	return 2*c.boreArea + math.Pi*c.bore*height
}

// MeanPistonSpeed returns the cycle-average piston speed (m/s) at the
// given engine speed (rpm): 2·stroke·rpm/60. It does not depend on
// crank angle.
func (c *Cylinder) MeanPistonSpeed(rpm float64) float64 {
	return 2 * c.stroke * rpm / 60
}

// Bore returns the cylinder bore (m).
func (c *Cylinder) Bore() float64 { return c.bore }

// Stroke returns the piston stroke (m).
func (c *Cylinder) Stroke() float64 { return c.stroke }

// RodLength returns the connecting-rod length (m).
func (c *Cylinder) RodLength() float64 { return c.rod }

// CompressionRatio returns the geometric compression ratio.
func (c *Cylinder) CompressionRatio() float64 { return c.cr }

// Displacement returns the swept volume (m³).
func (c *Cylinder) Displacement() float64 { return c.displacement }

// ClearanceVolume returns the volume above the piston at TDC (m³).
func (c *Cylinder) ClearanceVolume() float64 { return c.clearance }

// MaxVolume returns the chamber volume at BDC (m³).
func (c *Cylinder) MaxVolume() float64 { return c.clearance + c.displacement }
