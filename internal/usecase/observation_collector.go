package usecase

import (
	"context"
	"fmt"
	"time"

	"MetricPulse/internal/domain/repository"
	"MetricPulse/internal/middleware"
	applogger "MetricPulse/pkg/logger"
)

// ObservationCollector pumps the feed stream through the ingest pipeline.
// It owns the read loop and reconnects on stream failure.
type ObservationCollector struct {
	stream   repository.ObservationStream
	pipeline *middleware.IngestPipeline
	metrics  repository.Metrics
	l        *applogger.Logger

	maxReconnects int
}

func NewObservationCollector(stream repository.ObservationStream, pipeline *middleware.IngestPipeline, metrics repository.Metrics, l *applogger.Logger) *ObservationCollector {
	return &ObservationCollector{
		stream:        stream,
		pipeline:      pipeline,
		metrics:       metrics,
		l:             l,
		maxReconnects: 10,
	}
}

// Run connects, subscribes, and consumes until ctx is done. It returns the
// last stream error once reconnect attempts are exhausted.
func (c *ObservationCollector) Run(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.pipeline.Start(ctx)
	defer c.pipeline.Stop()

	reconnects := 0
	for {
		obs, errs := c.stream.Read(ctx)
	consume:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case o, ok := <-obs:
				if !ok {
					break consume
				}
				if o == nil {
					continue
				}
				if err := c.pipeline.Process(ctx, o); err != nil {
					c.l.Warn("collector process failed",
						applogger.String("metric", o.Metric),
						applogger.Error(err),
					)
				}
			case err, ok := <-errs:
				if !ok {
					break consume
				}
				if err != nil {
					c.l.Error("feed stream error", applogger.Error(err))
					c.metrics.RecordError("feed_stream")
				}
				break consume
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		reconnects++
		if reconnects > c.maxReconnects {
			return fmt.Errorf("feed reconnect attempts exhausted after %d tries", reconnects-1)
		}
		c.l.Info("feed reconnecting",
			applogger.Int("attempt", reconnects),
		)
		if err := c.stream.Reconnect(ctx); err != nil {
			c.l.Error("feed reconnect failed", applogger.Error(err))
			c.metrics.RecordError("feed_reconnect")
			time.Sleep(time.Duration(reconnects) * time.Second)
			continue
		}
		reconnects = 0
	}
}

// Stop closes the underlying stream.
func (c *ObservationCollector) Stop() error {
	return c.stream.Close()
}
