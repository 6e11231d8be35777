package spc

import (
	"math"
	"testing"
	"time"

	"MetricPulse/internal/domain/models"
)

func seriesEvery(stepDays int, values ...float64) []models.DataPoint {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.DataPoint, len(values))
	for i, v := range values {
		out[i] = models.DataPoint{Timestamp: base.AddDate(0, 0, i*stepDays), Value: v}
	}
	return out
}

func TestDeterminePeriodicity(t *testing.T) {
	cases := []struct {
		stepDays int
		want     models.Period
	}{
		{1, models.PeriodWeek},
		{7, models.PeriodMonth},
		{30, models.PeriodQuarter},
		{91, models.PeriodYear},
		{400, models.PeriodNone},
	}
	for _, c := range cases {
		got := DeterminePeriodicity(seriesEvery(c.stepDays, 1, 2, 3, 4, 5))
		if got != c.want {
			t.Fatalf("step %dd: period = %q, want %q", c.stepDays, got, c.want)
		}
	}

	if got := DeterminePeriodicity(seriesEvery(1, 42)); got != models.PeriodNone {
		t.Fatalf("single point: period = %q, want none", got)
	}
}

func TestComputeSeasonalFactorsWeekly(t *testing.T) {
	// Four weeks of daily data, weekends doubled.
	values := make([]float64, 28)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range values {
		values[i] = 10
		wd := base.AddDate(0, 0, i).Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			values[i] = 20
		}
	}
	points := seriesEvery(1, values...)

	profile, err := ComputeSeasonalFactors(points, models.PeriodWeek, models.GroupingDefault)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if profile.Grouping != models.GroupingDay || len(profile.Factors) != 7 {
		t.Fatalf("profile = %+v", profile)
	}
	if profile.Factors[int(time.Saturday)] <= profile.Factors[int(time.Monday)] {
		t.Fatalf("weekend factor should exceed weekday: %v", profile.Factors)
	}

	// Dividing out the factors flattens the series onto the grand mean.
	flat, err := ApplyFactors(points, profile)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	grand := 0.0
	for _, v := range values {
		grand += v
	}
	grand /= float64(len(values))
	for i, p := range flat {
		if math.Abs(p.Value-grand) > 1e-9 {
			t.Fatalf("flat[%d] = %v, want %v", i, p.Value, grand)
		}
	}
}

func TestComputeSeasonalFactorsEmptyPhases(t *testing.T) {
	// Monthly samples covering only two of three month-of-quarter slots.
	points := []models.DataPoint{
		{Timestamp: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), Value: 10},
		{Timestamp: time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), Value: 30},
		{Timestamp: time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), Value: 10},
		{Timestamp: time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC), Value: 30},
	}
	profile, err := ComputeSeasonalFactors(points, models.PeriodQuarter, models.GroupingMonth)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(profile.Factors) != 3 {
		t.Fatalf("factors = %v", profile.Factors)
	}
	if profile.Factors[2] != 1 {
		t.Fatalf("empty phase should keep neutral factor, got %v", profile.Factors[2])
	}
	if !approx(profile.Factors[0], 0.5) || !approx(profile.Factors[1], 1.5) {
		t.Fatalf("factors = %v", profile.Factors)
	}
}

func TestComputeSeasonalFactorsUnsupportedGrouping(t *testing.T) {
	if _, err := ComputeSeasonalFactors(nil, models.PeriodWeek, models.GroupingMonth); err == nil {
		t.Fatalf("expected error for week/month pairing")
	}
	if _, err := ComputeSeasonalFactors(nil, models.PeriodNone, models.GroupingDefault); err == nil {
		t.Fatalf("expected error for empty period")
	}
}

func TestApplyFactorsCountMismatch(t *testing.T) {
	points := seriesEvery(1, 1, 2, 3)
	profile := models.SeasonalProfile{
		Period:   models.PeriodWeek,
		Grouping: models.GroupingDay,
		Factors:  []float64{1, 1, 1},
	}
	if _, err := ApplyFactors(points, profile); err == nil {
		t.Fatalf("expected factor count mismatch error")
	}
}

func TestApplyFactorsNeutralOnZeroFactor(t *testing.T) {
	points := seriesEvery(1, 10)
	factors := make([]float64, 7)
	if _, err := ApplyFactors(points, models.SeasonalProfile{
		Period: models.PeriodWeek, Grouping: models.GroupingDay, Factors: factors,
	}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
