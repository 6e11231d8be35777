package usecase

import (
	"context"
	"fmt"

	"MetricPulse/internal/domain/models"
	"MetricPulse/internal/domain/repository"
)

// ObservationProcessor routes validated observations to the configured
// backend: Kafka publish for the streaming path, direct ClickHouse writes
// otherwise.
type ObservationProcessor struct {
	backend   string
	publisher repository.Publisher
	storage   repository.Storage
	metrics   repository.Metrics
}

func NewObservationProcessor(backend string, publisher repository.Publisher, storage repository.Storage, metrics repository.Metrics) *ObservationProcessor {
	return &ObservationProcessor{
		backend:   backend,
		publisher: publisher,
		storage:   storage,
		metrics:   metrics,
	}
}

// Process forwards one observation to the backend.
func (p *ObservationProcessor) Process(ctx context.Context, o *models.Observation) error {
	if o == nil {
		return fmt.Errorf("observation nil")
	}
	switch p.backend {
	case "kafka":
		if p.publisher == nil {
			return fmt.Errorf("kafka backend without publisher")
		}
		if err := p.publisher.Publish(ctx, o); err != nil {
			p.metrics.RecordError("publish")
			return fmt.Errorf("publish observation: %w", err)
		}
	default:
		if p.storage == nil {
			return fmt.Errorf("storage backend without storage")
		}
		if err := p.storage.Store(ctx, o); err != nil {
			p.metrics.RecordError("store")
			return fmt.Errorf("store observation: %w", err)
		}
	}
	p.metrics.RecordObservation(p.backend, o.Metric)
	p.metrics.RecordLastValue(o.Metric, o.Value)
	return nil
}

// ProcessBatch forwards a batch, preferring the backend's batch path.
func (p *ObservationProcessor) ProcessBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	switch p.backend {
	case "kafka":
		if p.publisher == nil {
			return fmt.Errorf("kafka backend without publisher")
		}
		if err := p.publisher.PublishBatch(ctx, obs); err != nil {
			p.metrics.RecordError("publish_batch")
			return fmt.Errorf("publish batch: %w", err)
		}
	default:
		if p.storage == nil {
			return fmt.Errorf("storage backend without storage")
		}
		if err := p.storage.StoreBatch(ctx, obs); err != nil {
			p.metrics.RecordError("store_batch")
			return fmt.Errorf("store batch: %w", err)
		}
	}
	for _, o := range obs {
		if o == nil {
			continue
		}
		p.metrics.RecordObservation(p.backend, o.Metric)
		p.metrics.RecordLastValue(o.Metric, o.Value)
	}
	return nil
}

// Close releases backend resources.
func (p *ObservationProcessor) Close() error {
	var first error
	if p.publisher != nil {
		if err := p.publisher.Close(); err != nil {
			first = err
		}
	}
	if p.storage != nil {
		if err := p.storage.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
