package config

import (
	"context"
	"strings"
	"testing"

	"github.com/MichaelAyles/enginesim/internal/engine"
)

func TestLoadTestdata(t *testing.T) {
	presets, err := Load("testdata/presets.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("loaded %d presets, want 2", len(presets))
	}

	p, err := Find(presets, "Boosted")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if p.IntakePressure != 180000 {
		t.Errorf("boosted intake pressure = %v Pa, want 180000", p.IntakePressure)
	}
	if p.StepSize != 0.5 {
		t.Errorf("boosted step size = %v°, want 0.5", p.StepSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("testdata/absent.yaml"); err == nil {
		t.Fatal("Load accepted a missing file")
	}
}

func TestParseRejectsAnonymousPreset(t *testing.T) {
	_, err := Parse(strings.NewReader("presets:\n  - bore: 81\n"))
	if err == nil {
		t.Fatal("Parse accepted a preset with no name")
	}
}

func TestFindUnknownName(t *testing.T) {
	_, err := Find(Builtin(), "rotary")
	if err == nil {
		t.Fatal("Find returned a preset for an unknown name")
	}
	if !strings.Contains(err.Error(), "rotary") {
		t.Errorf("error %q does not name the missing preset", err)
	}
}

// Every builtin preset has to survive validation and a full coarse
// run; a catalogue entry that cannot simulate is worse than none.
func TestBuiltinPresetsSimulate(t *testing.T) {
	for _, p := range Builtin() {
		t.Run(p.Name, func(t *testing.T) {
			req := p.Request()
			req.StepSize = 1.0
			res, err := engine.Run(context.Background(), req)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if res.Performance.IndicatedWork <= 0 {
				t.Errorf("indicated work = %v J, want positive", res.Performance.IndicatedWork)
			}
		})
	}
}
