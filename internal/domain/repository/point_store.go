package repository

import (
	"context"
	"time"

	"MetricPulse/internal/domain/models"
)

// PointStore provides read-only access to metric observations for charting.
// Rows come back in raw form; deduplication and hygiene happen in the usecase.
type PointStore interface {
	GetPoints(ctx context.Context, metric string, from, to time.Time) ([]models.DataPoint, error)
	GetLatestN(ctx context.Context, metric string, n int) ([]models.DataPoint, error)
	GetMetricInfo(ctx context.Context, metric string) (models.MetricInfo, error)
}
