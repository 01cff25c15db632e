// Package config loads named engine presets from YAML so runs can be
// started from a catalogue instead of a hand-written request.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MichaelAyles/enginesim/internal/engine"
)

// Preset is one named engine setup. Fields mirror the simulation
// request; optional ones may be omitted from the YAML.
type Preset struct {
	Name             string  `yaml:"name"`
	Description      string  `yaml:"description,omitempty"`
	EngineType       string  `yaml:"engine_type,omitempty"` // gasoline when omitted
	Bore             float64 `yaml:"bore"`                  // mm
	Stroke           float64 `yaml:"stroke"`                // mm
	RodLength        float64 `yaml:"rod_length,omitempty"`  // mm
	CompressionRatio float64 `yaml:"compression_ratio"`
	Cylinders        int     `yaml:"cylinders"`
	EngineSpeed      float64 `yaml:"engine_speed"` // rpm
	Load             float64 `yaml:"load"`         // percent
	IntakeTemp       float64 `yaml:"intake_temp"`  // °C
	IntakePressure   float64 `yaml:"intake_pressure,omitempty"` // Pa
	StepSize         float64 `yaml:"step_size,omitempty"`       // deg
}

// file is the on-disk shape of a preset catalogue.
type file struct {
	Presets []Preset `yaml:"presets"`
}

// Request converts the preset into a simulation request.
func (p Preset) Request() engine.SimulationRequest {
	return engine.SimulationRequest{
		EngineType:       engine.EngineType(p.EngineType),
		Bore:             p.Bore,
		Stroke:           p.Stroke,
		RodLength:        p.RodLength,
		CompressionRatio: p.CompressionRatio,
		Cylinders:        p.Cylinders,
		EngineSpeed:      p.EngineSpeed,
		Load:             p.Load,
		IntakeTemp:       p.IntakeTemp,
		IntakePressure:   p.IntakePressure,
		StepSize:         p.StepSize,
	}
}

// Parse reads a preset catalogue from r.
func Parse(r io.Reader) ([]Preset, error) {
	var f file
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing presets: %w", err)
	}
	for i, p := range f.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset %d has no name", i)
		}
	}
	return f.Presets, nil
}

// Load reads a preset catalogue from a YAML file.
func Load(path string) ([]Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening presets %s: %w", path, err)
	}
	defer f.Close()

	presets, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(presets) == 0 {
		return nil, fmt.Errorf("no presets in %s", path)
	}
	return presets, nil
}

// Find returns the preset with the given name, case-insensitively.
func Find(presets []Preset, name string) (Preset, error) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return Preset{}, fmt.Errorf("preset %q not found, have %v", name, names)
}

// Builtin returns the presets compiled into the binary.
func Builtin() []Preset {
	return []Preset{
		{
			Name:             "compact-gasoline",
			Description:      "1.8 litre inline-four passenger car engine at cruise",
			EngineType:       "gasoline",
			Bore:             81,
			Stroke:           86,
			CompressionRatio: 10.5,
			Cylinders:        4,
			EngineSpeed:      3500,
			Load:             45,
			IntakeTemp:       25,
		},
		{
			Name:             "single-thumper",
			Description:      "600 cc single-cylinder motorcycle engine near redline",
			EngineType:       "gasoline",
			Bore:             100,
			Stroke:           76.5,
			CompressionRatio: 11.5,
			Cylinders:        1,
			EngineSpeed:      7000,
			Load:             80,
			IntakeTemp:       20,
		},
		{
			Name:             "heavy-diesel",
			Description:      "13 litre six-cylinder industrial diesel at rated power",
			EngineType:       "diesel",
			Bore:             137,
			Stroke:           150,
			CompressionRatio: 16.5,
			Cylinders:        6,
			EngineSpeed:      1800,
			Load:             100,
			IntakeTemp:       25,
		},
	}
}
