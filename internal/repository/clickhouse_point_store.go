package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MetricPulse/internal/domain/models"
	pkgch "MetricPulse/pkg/clickhouse"
	applogger "MetricPulse/pkg/logger"
)

const (
	observationsTable = "metricpulse.observations"
	catalogTable      = "metricpulse.metric_catalog"
)

// SchemaStatements are the idempotent DDL statements for the charting tables.
// The observations table uses ReplacingMergeTree keyed on (metric, ts) so
// feed replays collapse to one row per timestamp.
var SchemaStatements = []string{
	`CREATE DATABASE IF NOT EXISTS metricpulse`,
	`CREATE TABLE IF NOT EXISTS metricpulse.observations (
        ts DateTime,
        metric LowCardinality(String),
        value Float64,
        confidence Float64,
        label String,
        source LowCardinality(String),
        event_id String
    ) ENGINE = ReplacingMergeTree
    PARTITION BY toYYYYMM(ts)
    ORDER BY (metric, ts)`,
	`CREATE TABLE IF NOT EXISTS metricpulse.metric_catalog (
        metric LowCardinality(String),
        display_name String,
        preferred_adjustment LowCardinality(String),
        use_median UInt8,
        updated_at DateTime
    ) ENGINE = ReplacingMergeTree(updated_at)
    ORDER BY metric`,
}

// CHPointStore implements PointStore backed by ClickHouse.
type CHPointStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHPointStore(ch *pkgch.Client) *CHPointStore {
	return &CHPointStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHPointStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPointStore) GetPoints(ctx context.Context, metric string, from, to time.Time) ([]models.DataPoint, error) {
	start := time.Now()
	const q = `
        SELECT ts, value, confidence
        FROM ` + observationsTable + ` FINAL
        WHERE metric = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `
	rows, err := s.db.QueryContext(ctx, q, metric, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_points query error",
				applogger.String("metric", metric),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get points: %w", err)
	}
	defer rows.Close()

	out := make([]models.DataPoint, 0, 1024)
	for rows.Next() {
		var p models.DataPoint
		if err := rows.Scan(&p.Timestamp, &p.Value, &p.Confidence); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_points ok",
			applogger.String("metric", metric),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHPointStore) GetLatestN(ctx context.Context, metric string, n int) ([]models.DataPoint, error) {
	start := time.Now()
	const q = `
        SELECT ts, value, confidence
        FROM ` + observationsTable + ` FINAL
        WHERE metric = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, metric, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_points query error",
				applogger.String("metric", metric),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest points: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.DataPoint, 0, n)
	for rows.Next() {
		var p models.DataPoint
		if err := rows.Scan(&p.Timestamp, &p.Value, &p.Confidence); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		tmp = append(tmp, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Info("clickhouse latest_points ok",
			applogger.String("metric", metric),
			applogger.Int("limit", n),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

func (s *CHPointStore) GetMetricInfo(ctx context.Context, metric string) (models.MetricInfo, error) {
	const q = `
        SELECT metric, display_name, preferred_adjustment, use_median, updated_at
        FROM ` + catalogTable + ` FINAL
        WHERE metric = ?
        LIMIT 1
    `
	var info models.MetricInfo
	var useMedian uint8
	err := s.db.QueryRowContext(ctx, q, metric).Scan(
		&info.Metric, &info.DisplayName, &info.PreferredAdjustment, &useMedian, &info.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		// Unknown metrics chart with defaults.
		return models.MetricInfo{Metric: metric}, nil
	}
	if err != nil {
		return models.MetricInfo{}, fmt.Errorf("get metric info: %w", err)
	}
	info.UseMedian = useMedian != 0
	return info, nil
}

// CHCatalog implements Catalog backed by ClickHouse.
type CHCatalog struct {
	db *sql.DB
}

func NewCHCatalog(ch *pkgch.Client) *CHCatalog {
	return &CHCatalog{db: ch.DB()}
}

func (c *CHCatalog) UpsertMetric(ctx context.Context, info models.MetricInfo) error {
	const q = `
        INSERT INTO ` + catalogTable + ` (metric, display_name, preferred_adjustment, use_median, updated_at)
        VALUES (?, ?, ?, ?, ?)
    `
	useMedian := uint8(0)
	if info.UseMedian {
		useMedian = 1
	}
	updated := info.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	if _, err := c.db.ExecContext(ctx, q,
		info.Metric, info.DisplayName, info.PreferredAdjustment, useMedian, updated,
	); err != nil {
		return fmt.Errorf("upsert metric: %w", err)
	}
	return nil
}

func (c *CHCatalog) GetMetric(ctx context.Context, metric string) (models.MetricInfo, error) {
	store := CHPointStore{db: c.db}
	return store.GetMetricInfo(ctx, metric)
}
