// Package store persists completed runs to a local SQLite database so
// operating points can be compared across sessions.
package store

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/MichaelAyles/enginesim/internal/engine"
)

// Run is one completed simulation flattened for querying: the request
// alongside the headline results. The full record sequence is not
// persisted; rerunning the same request reproduces it exactly.
type Run struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	EngineType       string  `json:"engine_type"`
	Bore             float64 `json:"bore"`
	Stroke           float64 `json:"stroke"`
	CompressionRatio float64 `json:"compression_ratio"`
	Cylinders        int     `json:"cylinders"`
	EngineSpeed      float64 `json:"engine_speed"`
	Load             float64 `json:"load"`
	IntakeTemp       float64 `json:"intake_temp"`

	PeakPressure      float64 `json:"peak_pressure"`
	PeakTemperature   float64 `json:"peak_temperature"`
	IndicatedPower    float64 `json:"indicated_power"`
	BrakePower        float64 `json:"brake_power"`
	Torque            float64 `json:"torque"`
	IMEP              float64 `json:"imep"`
	ThermalEfficiency float64 `json:"thermal_efficiency"`
	NOx               float64 `json:"nox_ppm"`
	CO                float64 `json:"co_percent"`
	HC                float64 `json:"hc_ppm"`
	PM                float64 `json:"pm_g_per_kwh"`
}

// Store wraps the database handle.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite database at path, creating it and its
// schema as needed.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening run database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("migrating run schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save flattens res and inserts it.
func (s *Store) Save(res *engine.SimulationResult) error {
	run := Run{
		ID:        res.RunID.String(),
		CreatedAt: res.Timestamp,

		EngineType:       string(res.Request.EngineType),
		Bore:             res.Request.Bore,
		Stroke:           res.Request.Stroke,
		CompressionRatio: res.Request.CompressionRatio,
		Cylinders:        res.Request.Cylinders,
		EngineSpeed:      res.Request.EngineSpeed,
		Load:             res.Request.Load,
		IntakeTemp:       res.Request.IntakeTemp,

		PeakPressure:      res.Performance.PeakPressure,
		PeakTemperature:   res.Performance.PeakTemperature,
		IndicatedPower:    res.Performance.IndicatedPower,
		BrakePower:        res.Performance.BrakePower,
		Torque:            res.Performance.Torque,
		IMEP:              res.Performance.IMEP,
		ThermalEfficiency: res.Performance.ThermalEfficiency,
		NOx:               res.Emissions.NOx,
		CO:                res.Emissions.CO,
		HC:                res.Emissions.HC,
		PM:                res.Emissions.PM,
	}
	if err := s.db.Create(&run).Error; err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	var runs []Run
	if err := s.db.Order("created_at desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Get returns the run with the given ID.
func (s *Store) Get(id string) (Run, error) {
	var run Run
	if err := s.db.First(&run, "id = ?", id).Error; err != nil {
		return Run{}, fmt.Errorf("run %q: %w", id, err)
	}
	return run, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
