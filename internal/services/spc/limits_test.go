package spc

import (
	"math"
	"testing"
	"time"

	"MetricPulse/internal/domain/models"
)

func seriesOf(values ...float64) []models.DataPoint {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.DataPoint, len(values))
	for i, v := range values {
		out[i] = models.DataPoint{Timestamp: base.AddDate(0, 0, i), Value: v}
	}
	return out
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeLimitsMean(t *testing.T) {
	points := seriesOf(10, 12, 10, 12, 10)
	limits, aug := ComputeLimits(points, false)

	if !approx(limits.AvgX, 10.8) {
		t.Fatalf("avgX = %v, want 10.8", limits.AvgX)
	}
	if !approx(limits.AvgMovement, 2) {
		t.Fatalf("avgMovement = %v, want 2", limits.AvgMovement)
	}
	if !approx(limits.UNPL, 10.8+2.66*2) || !approx(limits.LNPL, 10.8-2.66*2) {
		t.Fatalf("limits = [%v, %v]", limits.LNPL, limits.UNPL)
	}
	if !approx(limits.URL, 3.267*2) {
		t.Fatalf("url = %v", limits.URL)
	}
	if !approx(limits.UpperQuartile, (limits.AvgX+limits.UNPL)/2) {
		t.Fatalf("upper quartile = %v", limits.UpperQuartile)
	}
	if len(aug) != 5 || aug[0].Movement != 0 || !approx(aug[1].Movement, 2) {
		t.Fatalf("unexpected movements %+v", aug)
	}
}

func TestComputeLimitsMedian(t *testing.T) {
	// One wild value barely shifts the median, unlike the mean.
	points := seriesOf(10, 10, 10, 10, 100)
	limits, _ := ComputeLimits(points, true)
	if !approx(limits.AvgX, 10) {
		t.Fatalf("median avgX = %v, want 10", limits.AvgX)
	}
	if !approx(limits.AvgMovement, 0) {
		t.Fatalf("median avgMovement = %v, want 0", limits.AvgMovement)
	}
}

func TestComputeLimitsDegenerate(t *testing.T) {
	limits, aug := ComputeLimits(nil, false)
	if limits.AvgX != 0 || limits.UNPL != 0 || limits.LNPL != 0 || len(aug) != 0 {
		t.Fatalf("empty input should give zero limits, got %+v", limits)
	}

	limits, aug = ComputeLimits(seriesOf(42), false)
	if limits.AvgX != 42 || limits.UNPL != 42 || limits.LNPL != 42 {
		t.Fatalf("single point should center on it, got %+v", limits)
	}
	if len(aug) != 1 || aug[0].Movement != 0 {
		t.Fatalf("unexpected augmented points %+v", aug)
	}
}

func TestComputeLimitsConstantSeries(t *testing.T) {
	limits, _ := ComputeLimits(seriesOf(7, 7, 7, 7, 7, 7), false)
	if limits.UNPL != limits.LNPL || limits.AvgX != 7 {
		t.Fatalf("constant series should collapse limits, got %+v", limits)
	}
	if limits.AvgMovement != 0 || limits.URL != 0 {
		t.Fatalf("constant series should have zero movement, got %+v", limits)
	}
}

func TestComputeLimitsDeterministic(t *testing.T) {
	points := seriesOf(10, 12, 9, 14, 10, 11, 13, 10, 12, 15)
	first, _ := ComputeLimits(points, false)
	second, _ := ComputeLimits(points, false)
	if first != second {
		t.Fatalf("repeated computation diverged: %+v vs %+v", first, second)
	}

	first, _ = ComputeLimits(points, true)
	second, _ = ComputeLimits(points, true)
	if first != second {
		t.Fatalf("repeated median computation diverged: %+v vs %+v", first, second)
	}
}

func TestComputeLimitsStableUnderCenterAppend(t *testing.T) {
	points := seriesOf(10, 12, 9, 14, 10, 11, 13, 10, 12, 15)
	before, _ := ComputeLimits(points, false)

	// Appending a point at the center cannot move the center by more than
	// |value-avgX|/n and must not collapse the limit band.
	appended := append(seriesOf(10, 12, 9, 14, 10, 11, 13, 10, 12, 15),
		models.DataPoint{Timestamp: points[len(points)-1].Timestamp.AddDate(0, 0, 1), Value: before.AvgX})
	after, _ := ComputeLimits(appended, false)

	if !approx(after.AvgX, before.AvgX) {
		t.Fatalf("center moved from %v to %v after appending the center value", before.AvgX, after.AvgX)
	}
	if before.UNPL-before.LNPL <= 0 {
		t.Fatalf("limit band not positive before append: %+v", before)
	}
	if after.UNPL-after.LNPL <= 0 {
		t.Fatalf("limit band flipped after append: %+v", after)
	}
}

func TestComputeLimitsCenterShiftBound(t *testing.T) {
	points := seriesOf(10, 12, 9, 14, 10, 11, 13, 10, 12, 15)
	before, _ := ComputeLimits(points, false)

	value := 40.0
	appended := append(seriesOf(10, 12, 9, 14, 10, 11, 13, 10, 12, 15),
		models.DataPoint{Timestamp: points[len(points)-1].Timestamp.AddDate(0, 0, 1), Value: value})
	after, _ := ComputeLimits(appended, false)

	bound := math.Abs(value-before.AvgX) / float64(len(appended))
	if shift := math.Abs(after.AvgX - before.AvgX); shift > bound+1e-9 {
		t.Fatalf("center shifted by %v, bound is %v", shift, bound)
	}
	if after.UNPL-after.LNPL <= 0 {
		t.Fatalf("limit band flipped after append: %+v", after)
	}
}

func TestComputeLimitsDoesNotMutateInput(t *testing.T) {
	points := seriesOf(3, 1, 2)
	ComputeLimits(points, true)
	if points[0].Value != 3 || points[1].Value != 1 || points[2].Value != 2 {
		t.Fatalf("input mutated: %+v", points)
	}
}
