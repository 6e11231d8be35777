package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"MetricPulse/internal/domain/models"
	domrepo "MetricPulse/internal/domain/repository"
	domservice "MetricPulse/internal/domain/service"
	"MetricPulse/internal/services/spc"
	xhttp "MetricPulse/pkg/http"
	"MetricPulse/pkg/util"
)

// ChartBuilder assembles chart results from stored points and the XmR engine.
type ChartBuilder struct {
	store   domrepo.PointStore
	engine  domservice.Engine
	timeout time.Duration
}

func NewChartBuilder(store domrepo.PointStore, engine domservice.Engine) *ChartBuilder {
	return &ChartBuilder{store: store, engine: engine, timeout: 10 * time.Second}
}

// CleanPoints drops non-finite values, sorts chronologically, and collapses
// duplicate timestamps, preferring the higher-confidence row and the later
// arrival on ties. The engine requires this hygiene; raw storage rows do not
// guarantee it.
func CleanPoints(points []models.DataPoint) []models.DataPoint {
	out := make([]models.DataPoint, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	dedup := out[:0]
	for _, p := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Timestamp.Equal(p.Timestamp) {
			if p.Confidence >= dedup[n-1].Confidence {
				dedup[n-1] = p
			}
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup
}

func (uc *ChartBuilder) fetchPoints(ctx context.Context, metric string, n int, fromStr, toStr string) ([]models.DataPoint, error) {
	if metric == "" {
		return nil, xhttp.BadRequestError("metric required")
	}
	from, fromOK := util.ParseTime(fromStr)
	to := util.ParseTimeDefault(toStr, time.Now())
	var (
		points []models.DataPoint
		err    error
	)
	if fromOK {
		// whole-day windows: repeated requests hit the same cache keys and
		// ClickHouse partitions
		from, to = util.AlignFromTo(from, to, "day")
		to = to.AddDate(0, 0, 1)
		points, err = uc.store.GetPoints(ctx, metric, from, to)
	} else {
		points, err = uc.store.GetLatestN(ctx, metric, n)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch points: %w", err)
	}
	return CleanPoints(points), nil
}

// resolveAdjustment turns the request selector into a concrete kind, using
// the metric's stored preference and an auto-lock probe for "auto".
// Seasonality is only auto-applied to sub-week cadence; sparser series need
// an explicit request.
func (uc *ChartBuilder) resolveAdjustment(sel domrepo.Adjustment, info models.MetricInfo, points []models.DataPoint) models.AdjustmentKind {
	if sel != domrepo.AdjustAuto {
		return sel.Kind()
	}
	switch models.AdjustmentKind(info.PreferredAdjustment) {
	case models.AdjustLocked:
		return models.AdjustLocked
	case models.AdjustTrended:
		return models.AdjustTrended
	case models.AdjustSeasonal:
		if uc.engine.DeterminePeriodicity(points) == models.PeriodWeek {
			return models.AdjustSeasonal
		}
		return models.AdjustNone
	}
	if uc.engine.ShouldAutoLock(points) {
		return models.AdjustLocked
	}
	return models.AdjustNone
}

// BuildChart computes the full chart for one metric: cleaned points, limits
// under the resolved adjustment, violations, and per-point tags.
func (uc *ChartBuilder) BuildChart(ctx context.Context, req models.ChartRequest) (*models.ChartResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	points, err := uc.fetchPoints(ctx, req.Metric, req.N, req.From, req.To)
	if err != nil {
		return nil, err
	}
	info, err := uc.store.GetMetricInfo(ctx, req.Metric)
	if err != nil {
		return nil, err
	}
	useMedian := req.Median || info.UseMedian

	sel := domrepo.NormalizeAdjustment(req.Adjust)
	kind := uc.resolveAdjustment(sel, info, points)

	res := &models.ChartResult{
		Metric:     req.Metric,
		Computed:   time.Now(),
		Degenerate: len(points) < spc.MinimumPoints,
	}

	chartSeries := points
	var (
		limits models.XMRLimits
		aug    []models.AugmentedPoint
		trend  *models.TrendLimits
		mode   = models.ModeNone()
	)

	switch kind {
	case models.AdjustLocked:
		locked, excluded := uc.engine.LockWithOutlierRemoval(points)
		limits = locked
		_, aug = uc.engine.ComputeLimits(points, useMedian)
		mode = models.ModeLocked(models.LockedLimits{Limits: locked, Excluded: excluded})

	case models.AdjustTrended:
		limits, aug = uc.engine.ComputeLimits(points, useMedian)
		m, c := uc.engine.Regress(points)
		t := uc.engine.BuildTrendLines(m, c, limits.AvgMovement, len(points))
		trend = &t
		mode = models.ModeTrended(t)

	case models.AdjustSeasonal:
		period := uc.engine.DeterminePeriodicity(points)
		if period == models.PeriodNone {
			return nil, xhttp.BadRequestErrorf("metric %s has no usable seasonal period", req.Metric)
		}
		profile, perr := uc.engine.ComputeSeasonalFactors(points, period, models.GroupingDefault)
		if perr != nil {
			return nil, xhttp.BadRequestError(perr.Error()).WithError(perr)
		}
		deseason, aerr := uc.engine.ApplyFactors(points, profile)
		if aerr != nil {
			return nil, xhttp.BadRequestError(aerr.Error()).WithError(aerr)
		}
		chartSeries = deseason
		limits, aug = uc.engine.ComputeLimits(deseason, useMedian)
		mode = models.ModeSeasonal(profile)

	default:
		limits, aug = uc.engine.ComputeLimits(points, useMedian)
	}

	if !mode.Valid() {
		return nil, xhttp.BadRequestErrorf("inconsistent adjustment mode %q", mode.Kind)
	}

	violations := uc.engine.DetectViolations(chartSeries, limits, trend)
	tags, membership := spc.TagViolations(len(chartSeries), violations)

	chartPoints := make([]models.ChartPoint, len(chartSeries))
	for i, p := range chartSeries {
		chartPoints[i] = models.ChartPoint{
			Timestamp: p.Timestamp,
			Value:     p.Value,
			Movement:  aug[i].Movement,
			Rules:     membership[i],
			Tag:       tags[i],
		}
	}

	res.Points = chartPoints
	res.Limits = limits
	res.Adjustment = mode
	res.Violations = violations
	return res, nil
}

// Limits computes plain natural process limits for a metric.
func (uc *ChartBuilder) Limits(ctx context.Context, req models.LimitsRequest) (models.XMRLimits, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	points, err := uc.fetchPoints(ctx, req.Metric, req.N, "", "")
	if err != nil {
		return models.XMRLimits{}, err
	}
	limits, _ := uc.engine.ComputeLimits(points, req.Median)
	return limits, nil
}

// Violations detects rule breaks against flat limits.
func (uc *ChartBuilder) Violations(ctx context.Context, req models.ViolationsRequest) (models.Violations, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	points, err := uc.fetchPoints(ctx, req.Metric, req.N, "", "")
	if err != nil {
		return models.Violations{}, err
	}
	limits, _ := uc.engine.ComputeLimits(points, req.Median)
	return uc.engine.DetectViolations(points, limits, nil), nil
}

// Trend fits and evaluates sloped limit lines.
func (uc *ChartBuilder) Trend(ctx context.Context, req models.TrendRequest) (models.TrendLimits, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	points, err := uc.fetchPoints(ctx, req.Metric, req.N, "", "")
	if err != nil {
		return models.TrendLimits{}, err
	}
	limits, _ := uc.engine.ComputeLimits(points, false)
	m, c := uc.engine.Regress(points)
	return uc.engine.BuildTrendLines(m, c, limits.AvgMovement, len(points)), nil
}

// Seasonality estimates the seasonal profile for a metric and returns a
// deseasonalized preview. Period and grouping may be forced via the request;
// otherwise they are inferred.
func (uc *ChartBuilder) Seasonality(ctx context.Context, req models.SeasonalityRequest) (models.SeasonalityResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	points, err := uc.fetchPoints(ctx, req.Metric, req.N, "", "")
	if err != nil {
		return models.SeasonalityResult{}, err
	}
	period := models.Period(req.Period)
	if period == models.PeriodNone {
		period = uc.engine.DeterminePeriodicity(points)
		if period == models.PeriodNone {
			return models.SeasonalityResult{}, xhttp.BadRequestErrorf("metric %s has no usable seasonal period", req.Metric)
		}
	}
	profile, err := uc.engine.ComputeSeasonalFactors(points, period, models.Grouping(req.Grouping))
	if err != nil {
		return models.SeasonalityResult{}, xhttp.BadRequestError(err.Error()).WithError(err)
	}
	preview, err := uc.engine.ApplyFactors(points, profile)
	if err != nil {
		return models.SeasonalityResult{}, xhttp.BadRequestError(err.Error()).WithError(err)
	}
	return models.SeasonalityResult{Profile: profile, Preview: preview}, nil
}

// LockPreview computes locked limits, either automatic outlier removal or a
// manual exclusion list. Locked limits are call-scoped and never persisted.
func (uc *ChartBuilder) LockPreview(ctx context.Context, req models.LockRequest) (models.LockPreview, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	points, err := uc.fetchPoints(ctx, req.Metric, req.N, "", "")
	if err != nil {
		return models.LockPreview{}, err
	}
	shouldLock := uc.engine.ShouldAutoLock(points)
	if req.Exclude != "" {
		excluded := util.ParseIntList(req.Exclude)
		limits, lerr := uc.engine.LockWithExclusions(points, excluded)
		if lerr != nil {
			return models.LockPreview{}, xhttp.BadRequestError(lerr.Error()).WithError(lerr)
		}
		return models.LockPreview{
			ShouldLock: shouldLock,
			Locked:     models.LockedLimits{Limits: limits, Excluded: excluded},
		}, nil
	}
	limits, excluded := uc.engine.LockWithOutlierRemoval(points)
	return models.LockPreview{
		ShouldLock: shouldLock,
		Locked:     models.LockedLimits{Limits: limits, Excluded: excluded},
	}, nil
}

// Points returns the cleaned point series with moving ranges.
func (uc *ChartBuilder) Points(ctx context.Context, req models.PointsRequest) ([]models.AugmentedPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	points, err := uc.fetchPoints(ctx, req.Metric, req.N, req.From, req.To)
	if err != nil {
		return nil, err
	}
	_, aug := uc.engine.ComputeLimits(points, false)
	return aug, nil
}
