// Package stream publishes completed runs to Kafka so dashboards and
// downstream consumers can follow a test campaign live.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/MichaelAyles/enginesim/internal/cycle"
	"github.com/MichaelAyles/enginesim/internal/engine"
	"github.com/MichaelAyles/enginesim/internal/performance"
)

// DefaultSampleInterval thins the cycle trace to one record per crank
// degree interval before publishing. deg
const DefaultSampleInterval = 10.0

// summaryEvent is the headline message for a run.
type summaryEvent struct {
	Kind        string                   `json:"kind"`
	RunID       string                   `json:"run_id"`
	Timestamp   time.Time                `json:"timestamp"`
	Request     engine.SimulationRequest `json:"request"`
	Performance performance.Summary      `json:"performance"`
	Emissions   performance.Emissions    `json:"emissions"`
}

// cycleEvent carries one sampled point of the cycle trace.
type cycleEvent struct {
	Kind   string       `json:"kind"`
	RunID  string       `json:"run_id"`
	Record cycle.Record `json:"record"`
}

// Publisher writes run events to a single topic. Messages share the run
// ID as their key so one run stays on one partition.
type Publisher struct {
	w *kafka.Writer
}

// NewPublisher connects to the given brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Messages builds the event batch for a run: one summary event followed
// by the cycle trace sampled every sampleDeg crank degrees.
func Messages(res *engine.SimulationResult, sampleDeg float64) ([]kafka.Message, error) {
	if !(sampleDeg > 0) {
		return nil, fmt.Errorf("sample interval must be positive, got %v", sampleDeg)
	}

	key := []byte(res.RunID.String())

	summary, err := json.Marshal(summaryEvent{
		Kind:        "summary",
		RunID:       res.RunID.String(),
		Timestamp:   res.Timestamp,
		Request:     res.Request,
		Performance: res.Performance,
		Emissions:   res.Emissions,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling summary event: %w", err)
	}
	msgs := []kafka.Message{{Key: key, Value: summary, Time: res.Timestamp}}

	next := 0.0
	for _, rec := range res.Cycle {
		if rec.Angle+1e-9 < next {
			continue
		}
		next += sampleDeg
		value, err := json.Marshal(cycleEvent{Kind: "cycle", RunID: res.RunID.String(), Record: rec})
		if err != nil {
			return nil, fmt.Errorf("marshaling cycle event at %v deg: %w", rec.Angle, err)
		}
		msgs = append(msgs, kafka.Message{Key: key, Value: value, Time: res.Timestamp})
	}
	return msgs, nil
}

// Publish sends the run's event batch.
func (p *Publisher) Publish(ctx context.Context, res *engine.SimulationResult, sampleDeg float64) error {
	msgs, err := Messages(res, sampleDeg)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publishing run %s: %w", res.RunID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}
