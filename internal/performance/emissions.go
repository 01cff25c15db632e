package performance

import "math"

// Emission fit constants. These are trend calibrations anchored at
// full load and a 2500 K peak, not combustion chemistry.
const (
	noxRefPPM    = 1200.0 // ppm at the anchor point
	noxAnchorK   = 2500.0 // K
	noxEFoldK    = 350.0  // K per e-fold of thermal NOx formation
	coFloorPct   = 0.2    // percent CO at no load
	coLoadPct    = 1.8    // percent CO added at full load, quadratic
	hcFloorPPM   = 50.0   // ppm at ideal conditions
	hcMisfirePPM = 400.0  // ppm from quench and misfire at no load
	hcRichPPM    = 20.0   // ppm from enrichment at full load
	pmBaseGkWh   = 0.05   // g/kWh at no load
	pmLoadExp    = 2.2    // soot growth exponent with load
)

// Emissions are closed-form estimates driven only by peak cycle
// temperature and load. They indicate trends across operating points;
// absolute levels are order-of-magnitude at best.
type Emissions struct {
	NOx float64 `json:"nox_ppm"`
	CO  float64 `json:"co_percent"`
	HC  float64 `json:"hc_ppm"`
	PM  float64 `json:"pm_g_per_kwh"`
}

// EstimateEmissions evaluates the fits at the given peak temperature
// (K) and load fraction (0 to 1).
func EstimateEmissions(peakTemp, load float64) Emissions {
	return Emissions{
		NOx: round3(noxRefPPM * load * math.Exp((peakTemp-noxAnchorK)/noxEFoldK)),
		CO:  round3(coFloorPct + coLoadPct*load*load),
		HC:  round3(hcFloorPPM + hcMisfirePPM*(1-load)*(1-load) + hcRichPPM*load),
		PM:  round3(pmBaseGkWh * math.Exp(pmLoadExp*load)),
	}
}
