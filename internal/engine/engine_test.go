package engine

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

// heavyDieselRequest is a six-cylinder industrial diesel at rated
// speed and full load, with the intake temperature given in kelvin to
// exercise the unit normalisation.
func heavyDieselRequest() SimulationRequest {
	return SimulationRequest{
		EngineType:       EngineDiesel,
		Bore:             137,
		Stroke:           150,
		CompressionRatio: 16.5,
		Cylinders:        6,
		EngineSpeed:      1800,
		Load:             100,
		IntakeTemp:       298.15,
	}
}

func TestValidateCollectsEveryViolation(t *testing.T) {
	req := SimulationRequest{
		EngineType:       "steam",
		Bore:             10,
		Stroke:           300,
		CompressionRatio: 50,
		Cylinders:        0,
		EngineSpeed:      100,
		Load:             150,
		IntakeTemp:       90,
	}.withDefaults()

	err := req.Validate()
	if err == nil {
		t.Fatal("Validate accepted a request violating every range")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type %T, want *ValidationError", err)
	}

	want := []string{"engine_type", "bore", "stroke", "compression_ratio", "cylinders", "engine_speed", "load", "intake_temp"}
	got := make(map[string]bool, len(verr.Violations))
	for _, v := range verr.Violations {
		got[v.Field] = true
	}
	for _, field := range want {
		if !got[field] {
			t.Errorf("no violation reported for %q; got %v", field, verr.Violations)
		}
	}
	if len(verr.Violations) != len(want) {
		t.Errorf("%d violations reported, want %d: %v", len(verr.Violations), len(want), verr.Violations)
	}
}

func TestRunRejectsUndersizedBoreBeforeComputing(t *testing.T) {
	req := heavyDieselRequest()
	req.Bore = 10

	res, err := Run(context.Background(), req)
	if res != nil {
		t.Fatal("Run returned a result for an invalid request")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type %T, want *ValidationError", err)
	}
	if len(verr.Violations) != 1 || verr.Violations[0].Field != "bore" {
		t.Fatalf("violations = %v, want exactly one naming bore", verr.Violations)
	}
}

func TestCompressionRatioEnvelopePerEngineType(t *testing.T) {
	req := heavyDieselRequest()
	req.EngineType = EngineGasoline

	_, err := Run(context.Background(), req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("gasoline at CR 16.5: error %v, want a validation error", err)
	}
	if verr.Violations[0].Field != "compression_ratio" {
		t.Fatalf("violation field %q, want compression_ratio", verr.Violations[0].Field)
	}

	if _, err := Run(context.Background(), heavyDieselRequest()); err != nil {
		t.Fatalf("diesel at CR 16.5: %v", err)
	}
}

func TestKelvinIntakeTempNormalised(t *testing.T) {
	res, err := Run(context.Background(), heavyDieselRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := res.Request.IntakeTemp; math.Abs(got-25) > 1e-9 {
		t.Errorf("request echoed intake temp %v °C, want 25 °C from 298.15 K", got)
	}
}

func TestHeavyDieselFullLoad(t *testing.T) {
	res, err := Run(context.Background(), heavyDieselRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := len(res.Cycle), 7201; got != want {
		t.Fatalf("cycle length = %d, want %d", got, want)
	}
	if math.Abs(res.Geometry.Displacement-2211.17) > 1 {
		t.Errorf("displacement = %v cm³, want about 2211 cm³", res.Geometry.Displacement)
	}

	p := res.Performance
	if p.PeakPressure < 80 || p.PeakPressure > 250 {
		t.Errorf("peak pressure = %v bar, want within 80 to 250 bar", p.PeakPressure)
	}
	if p.PeakTemperature < 1800 || p.PeakTemperature > 3900 {
		t.Errorf("peak temperature = %v K, want within 1800 to 3900 K", p.PeakTemperature)
	}
	if p.BrakePower < 250 || p.BrakePower > 420 {
		t.Errorf("brake power = %v kW, want within 250 to 420 kW", p.BrakePower)
	}
	if p.IndicatedWork <= 0 {
		t.Errorf("indicated work = %v J, want positive at full load", p.IndicatedWork)
	}
	if res.Emissions.NOx <= 0 || res.Emissions.PM <= 0 {
		t.Errorf("emissions not populated: %+v", res.Emissions)
	}
	if res.RunID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("run ID not assigned")
	}
}

func TestRunDeterministicCycle(t *testing.T) {
	a, err := Run(context.Background(), heavyDieselRequest())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := Run(context.Background(), heavyDieselRequest())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	ja, err := json.Marshal(a.Cycle)
	if err != nil {
		t.Fatalf("marshal first cycle: %v", err)
	}
	jb, err := json.Marshal(b.Cycle)
	if err != nil {
		t.Fatalf("marshal second cycle: %v", err)
	}
	if string(ja) != string(jb) {
		t.Fatal("identical requests produced different cycle sequences")
	}
}

func TestRunJSONRoundTrip(t *testing.T) {
	in, err := json.Marshal(heavyDieselRequest())
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	out, err := RunJSON(string(in))
	if err != nil {
		t.Fatalf("RunJSON: %v", err)
	}

	var res SimulationResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(res.Cycle) != 7201 {
		t.Errorf("cycle length = %d, want 7201", len(res.Cycle))
	}
	if res.Performance.BrakePower <= 0 {
		t.Errorf("brake power = %v kW, want positive", res.Performance.BrakePower)
	}
}

func TestRunJSONRejectsMalformedInput(t *testing.T) {
	if _, err := RunJSON("{"); err == nil {
		t.Fatal("RunJSON accepted malformed JSON")
	}
}

func TestSimulatorProgressAndCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sim Simulator
	sim.OnProgress = func(pct float64) {
		if pct >= 10 {
			cancel()
		}
	}

	res, err := sim.Run(ctx, heavyDieselRequest())
	if res != nil {
		t.Fatal("cancelled run returned a result")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled run returned %v, want context.Canceled", err)
	}
}

func TestSimulatorSupersedesInFlightRun(t *testing.T) {
	var sim Simulator

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int64
	sim.OnProgress = func(float64) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
	}

	errc := make(chan error, 1)
	go func() {
		_, err := sim.Run(context.Background(), heavyDieselRequest())
		errc <- err
	}()
	<-entered

	// The second run cancels the first, which is parked mid-cycle.
	res, err := sim.Run(context.Background(), heavyDieselRequest())
	if err != nil {
		t.Fatalf("superseding run: %v", err)
	}
	if res == nil || len(res.Cycle) == 0 {
		t.Fatal("superseding run returned no cycle")
	}

	close(release)
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("superseded run returned %v, want context.Canceled", err)
	}
}
