package repository

import (
	"context"
	"time"

	"MetricPulse/internal/domain/models"
)

type ObservationStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Observation, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, o *models.Observation) error
	PublishBatch(ctx context.Context, obs []*models.Observation) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, o *models.Observation) error
	StoreBatch(ctx context.Context, obs []*models.Observation) error
	Query(ctx context.Context, metric string, from, to time.Time, limit int) ([]*models.Observation, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// Catalog stores per-metric settings, including the typed preferred
// adjustment that replaces the legacy display-name suffix channel.
type Catalog interface {
	UpsertMetric(ctx context.Context, info models.MetricInfo) error
	GetMetric(ctx context.Context, metric string) (models.MetricInfo, error)
}

type Metrics interface {
	RecordObservation(backend, metric string)
	RecordError(kind string)
	RecordLastValue(metric string, value float64)
	RecordLatency(op string, seconds float64)
}
