package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MetricPulse/internal/domain/models"
	"MetricPulse/internal/domain/repository"
	"MetricPulse/internal/middleware"
	applogger "MetricPulse/pkg/logger"
)

// KafkaObservationsHandler consumes observation messages and writes them to
// storage. Display labels carrying a legacy adjustment suffix also update the
// metric catalog so charts pick the right adjustment automatically.
type KafkaObservationsHandler struct {
	topic   string
	storage repository.Storage
	catalog repository.Catalog
	metrics repository.Metrics
	l       *applogger.Logger
}

func NewKafkaObservationsHandler(topic string, storage repository.Storage, catalog repository.Catalog, metrics repository.Metrics, l *applogger.Logger) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{
		topic:   topic,
		storage: storage,
		catalog: catalog,
		metrics: metrics,
		l:       l,
	}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

// Handle unmarshals one observation and stores it. Millisecond timestamps
// from older producers are folded to seconds.
func (h *KafkaObservationsHandler) Handle(ctx context.Context, value []byte) error {
	var o models.Observation
	if err := json.Unmarshal(value, &o); err != nil {
		h.metrics.RecordError("consume_unmarshal")
		return fmt.Errorf("unmarshal observation: %w", err)
	}
	if o.Timestamp > 1e11 {
		o.Timestamp /= 1000
	}
	if err := middleware.ValidateObservation(&o); err != nil {
		h.metrics.RecordError("consume_validate")
		return fmt.Errorf("invalid observation: %w", err)
	}

	if o.Label != "" {
		h.maybeUpdateCatalog(ctx, &o)
	}

	start := time.Now()
	if err := h.storage.Store(ctx, &o); err != nil {
		h.metrics.RecordError("consume_store")
		return fmt.Errorf("store observation: %w", err)
	}
	h.metrics.RecordObservation("clickhouse", o.Metric)
	h.metrics.RecordLastValue(o.Metric, o.Value)
	h.metrics.RecordLatency("consume_store", time.Since(start).Seconds())
	return nil
}

// maybeUpdateCatalog keeps the metric catalog in sync with observation
// labels. Legacy bracketed suffixes become the typed preferred_adjustment.
// Catalog failures never fail the message; the observation still lands.
func (h *KafkaObservationsHandler) maybeUpdateCatalog(ctx context.Context, o *models.Observation) {
	kind := models.AdjustmentFromLegacyLabel(o.Label)
	info := models.MetricInfo{
		Metric:      o.Metric,
		DisplayName: models.StripLegacyLabel(o.Label),
		UpdatedAt:   time.Now(),
	}
	if kind != models.AdjustNone {
		info.PreferredAdjustment = string(kind)
	}
	if err := h.catalog.UpsertMetric(ctx, info); err != nil {
		h.metrics.RecordError("catalog_upsert")
		if h.l != nil {
			h.l.Warn("catalog upsert failed",
				applogger.String("metric", o.Metric),
				applogger.Error(err),
			)
		}
	}
}
