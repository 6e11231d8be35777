package service

import "MetricPulse/internal/domain/models"

// Engine is the pure XmR computation surface. Implementations are stateless:
// every call is a function of its inputs, inputs are never mutated, and
// concurrent invocation on independent inputs is always safe.
type Engine interface {
	// ComputeLimits derives natural process limits and per-point moving
	// ranges. Never errors; sparse input yields degenerate zero-width limits.
	ComputeLimits(points []models.DataPoint, useMedian bool) (models.XMRLimits, []models.AugmentedPoint)

	// DetectViolations evaluates the five control-chart rules against flat
	// limits, or against index-aligned trend lines when trend is non-nil.
	DetectViolations(points []models.DataPoint, limits models.XMRLimits, trend *models.TrendLimits) models.Violations

	// ShouldAutoLock reports whether a handful of outliers (rather than
	// pervasive instability) is distorting the limits.
	ShouldAutoLock(points []models.DataPoint) bool

	// LockWithOutlierRemoval iterates limit computation excluding outside-limit
	// points until the excluded set stabilizes. It terminates for any finite
	// input and never retains fewer than the minimum retained floor. Locked
	// limits always use the mean center; exclusion already provides the
	// robustness a median center would.
	LockWithOutlierRemoval(points []models.DataPoint) (models.XMRLimits, []int)

	// LockWithExclusions recomputes limits honoring a caller-supplied excluded
	// index set. Errors when too few points would remain.
	LockWithExclusions(points []models.DataPoint, excluded []int) (models.XMRLimits, error)

	// Regress fits value against index by ordinary least squares.
	Regress(points []models.DataPoint) (m, c float64)

	// BuildTrendLines evaluates sloped center/upper/lower lines per index.
	// avgMovement must come from the un-trended series.
	BuildTrendLines(m, c, avgMovement float64, n int) models.TrendLimits

	// DeterminePeriodicity maps the modal sampling delta to a seasonal period,
	// or PeriodNone when the data carries no usable cycle.
	DeterminePeriodicity(points []models.DataPoint) models.Period

	// ComputeSeasonalFactors estimates one multiplicative factor per phase slot.
	ComputeSeasonalFactors(points []models.DataPoint, period models.Period, grouping models.Grouping) (models.SeasonalProfile, error)

	// ApplyFactors returns a deseasonalized copy of points. Errors when the
	// factor count does not match the period/grouping phase count.
	ApplyFactors(points []models.DataPoint, profile models.SeasonalProfile) ([]models.DataPoint, error)
}
