// Package engine orchestrates a complete simulation: it validates the
// request, generates the angle-resolved cycle, aggregates performance
// and emissions and assembles the result envelope.
//
// RunJSON is the primary entry point shared by every compilation
// target. The CLI, the report server and the wasm bridge are thin
// adapters around it, so behaviour cannot drift between transports.
// Run and Simulator expose the same pipeline to in-process callers
// that need cancellation or progress reporting.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelAyles/enginesim/internal/cycle"
	"github.com/MichaelAyles/enginesim/internal/geometry"
	"github.com/MichaelAyles/enginesim/internal/performance"
)

// Run executes one simulation. It is stateless: every call validates,
// generates and aggregates from scratch, and identical requests yield
// identical cycle sequences. ctx cancels the run between steps.
func Run(ctx context.Context, req SimulationRequest) (*SimulationResult, error) {
	return run(ctx, req, nil)
}

func run(ctx context.Context, req SimulationRequest, onProgress func(percent float64)) (*SimulationResult, error) {
	req = req.withDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	gen, err := cycle.NewGenerator(cycle.Params{
		Geometry: geometry.Params{
			Bore:             req.Bore,
			Stroke:           req.Stroke,
			RodLength:        req.RodLength,
			CompressionRatio: req.CompressionRatio,
		},
		EngineSpeed:    req.EngineSpeed,
		Load:           req.Load / 100,
		IntakeTemp:     req.IntakeTemp + 273.15,
		IntakePressure: req.IntakePressure,
		StepSize:       req.StepSize,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring cycle: %w", err)
	}
	gen.OnProgress = onProgress

	recs, err := gen.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("generating cycle: %w", err)
	}

	sum, err := performance.Summarize(recs, performance.Inputs{
		EngineSpeed: req.EngineSpeed,
		Cylinders:   req.Cylinders,
		Load:        req.Load / 100,
	})
	if err != nil {
		return nil, fmt.Errorf("summarising cycle: %w", err)
	}

	return &SimulationResult{
		RunID:       uuid.New(),
		Timestamp:   time.Now().UTC(),
		Request:     req,
		Geometry:    gen.Geometry().Derived(),
		Cycle:       recs,
		Performance: sum,
		Emissions:   performance.EstimateEmissions(sum.PeakTemperature, req.Load/100),
	}, nil
}

// Simulator runs simulations for one interactive session. It owns at
// most one in-flight run: starting a new one cancels whatever is still
// running, so a caller sweeping the parameters only ever pays for the
// latest request. The zero value is ready to use.
type Simulator struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc

	// OnProgress, when set, receives percent complete at every 10° of
	// crank angle during Run.
	OnProgress func(percent float64)
}

// Run behaves like the package-level Run but first cancels any run
// this Simulator still has in flight.
func (s *Simulator) Run(ctx context.Context, req SimulationRequest) (*SimulationResult, error) {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		if s.gen == gen {
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	return run(runCtx, req, s.OnProgress)
}

// Cancel aborts the in-flight run, if any.
func (s *Simulator) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// RunJSON is the primary entry point for all compilation targets (CLI,
// WASM, HTTP). It accepts a JSON-encoded SimulationRequest, runs the
// simulation, and returns a JSON-encoded SimulationResult.
func RunJSON(jsonInput string) (string, error) {
	var req SimulationRequest
	if err := json.Unmarshal([]byte(jsonInput), &req); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}

	res, err := Run(context.Background(), req)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
