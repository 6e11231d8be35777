package spc

import (
	"math"
	"sort"

	"MetricPulse/internal/domain/models"
)

// Classical Individuals/Moving-Range chart constants for n=2 subgroups
// (Wheeler / Western Electric).
const (
	// limitFactor scales the average moving range into the natural process
	// limit offset around the center line.
	limitFactor = 2.66
	// rangeLimitFactor scales the average moving range into the upper range
	// limit for the moving-range chart.
	rangeLimitFactor = 3.267
)

// MinimumPoints is the smallest series length for which limits are meaningful
// enough to render. ComputeLimits itself stays total; callers gate on this.
const MinimumPoints = 5

// minimumRetainedPoints is the floor of points the outlier locker must keep.
const minimumRetainedPoints = 3

// Engine implements the domain Engine interface with pure package functions.
type Engine struct{}

func NewEngine() Engine { return Engine{} }

func (Engine) ComputeLimits(points []models.DataPoint, useMedian bool) (models.XMRLimits, []models.AugmentedPoint) {
	return ComputeLimits(points, useMedian)
}

// ComputeLimits derives XmR natural process limits from a cleaned,
// chronologically sorted point sequence. The input is never mutated.
// Fewer than two points yield degenerate zero-width limits; it never errors.
func ComputeLimits(points []models.DataPoint, useMedian bool) (models.XMRLimits, []models.AugmentedPoint) {
	aug := augment(points)

	if len(points) < 2 {
		center := 0.0
		if len(points) == 1 {
			center = points[0].Value
		}
		return degenerateLimits(center), aug
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	movements := make([]float64, 0, len(points)-1)
	for _, a := range aug[1:] {
		movements = append(movements, a.Movement)
	}

	var avgX, avgMovement float64
	if useMedian {
		avgX = median(values)
		avgMovement = median(movements)
	} else {
		avgX = mean(values)
		avgMovement = mean(movements)
	}

	unpl := avgX + limitFactor*avgMovement
	lnpl := avgX - limitFactor*avgMovement
	return models.XMRLimits{
		AvgX:          avgX,
		UNPL:          unpl,
		LNPL:          lnpl,
		AvgMovement:   avgMovement,
		URL:           rangeLimitFactor * avgMovement,
		LowerQuartile: (avgX + lnpl) / 2,
		UpperQuartile: (avgX + unpl) / 2,
	}, aug
}

// augment pairs every point with its moving range. The first point has no
// predecessor and carries Movement 0.
func augment(points []models.DataPoint) []models.AugmentedPoint {
	aug := make([]models.AugmentedPoint, len(points))
	for i, p := range points {
		aug[i] = models.AugmentedPoint{DataPoint: p}
		if i > 0 {
			aug[i].Movement = math.Abs(p.Value - points[i-1].Value)
		}
	}
	return aug
}

func degenerateLimits(center float64) models.XMRLimits {
	return models.XMRLimits{
		AvgX:          center,
		UNPL:          center,
		LNPL:          center,
		LowerQuartile: center,
		UpperQuartile: center,
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// median returns the middle value of xs, averaging the two middle values for
// an even count. The input slice is not modified.
func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
