package usecase

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"
	"time"

	"MetricPulse/internal/domain/models"
	"MetricPulse/internal/services/spc"
	xhttp "MetricPulse/pkg/http"
)

type fakePointStore struct {
	points []models.DataPoint
	info   models.MetricInfo
}

func (f *fakePointStore) GetPoints(ctx context.Context, metric string, from, to time.Time) ([]models.DataPoint, error) {
	return f.points, nil
}

func (f *fakePointStore) GetLatestN(ctx context.Context, metric string, n int) ([]models.DataPoint, error) {
	if n < len(f.points) {
		return f.points[len(f.points)-n:], nil
	}
	return f.points, nil
}

func (f *fakePointStore) GetMetricInfo(ctx context.Context, metric string) (models.MetricInfo, error) {
	return f.info, nil
}

func dailyPoints(values ...float64) []models.DataPoint {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.DataPoint, len(values))
	for i, v := range values {
		out[i] = models.DataPoint{Timestamp: base.AddDate(0, 0, i), Value: v, Confidence: 1}
	}
	return out
}

func newBuilder(points []models.DataPoint, info models.MetricInfo) *ChartBuilder {
	return NewChartBuilder(&fakePointStore{points: points, info: info}, spc.NewEngine())
}

func TestCleanPoints(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []models.DataPoint{
		{Timestamp: base.AddDate(0, 0, 2), Value: 3},
		{Timestamp: base, Value: math.NaN()},
		{Timestamp: base, Value: 1},
		{Timestamp: base, Value: 2}, // same timestamp, later arrival wins
		{Timestamp: base.AddDate(0, 0, 1), Value: math.Inf(1)},
	}
	got := CleanPoints(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 points, got %d", len(got))
	}
	if got[0].Value != 2 {
		t.Fatalf("dedup should keep latest arrival, got %v", got[0].Value)
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Fatalf("points not sorted")
	}
}

func TestBuildChartNoAdjustment(t *testing.T) {
	uc := newBuilder(dailyPoints(10, 12, 10, 12, 10, 12, 10, 12), models.MetricInfo{})
	res, err := uc.BuildChart(context.Background(), models.ChartRequest{Metric: "signups", N: 100, Adjust: "none"})
	if err != nil {
		t.Fatalf("BuildChart: %v", err)
	}
	if res.Adjustment.Kind != models.AdjustNone {
		t.Fatalf("expected none adjustment, got %s", res.Adjustment.Kind)
	}
	if res.Degenerate {
		t.Fatalf("8 points should not be degenerate")
	}
	if len(res.Points) != 8 {
		t.Fatalf("expected 8 chart points, got %d", len(res.Points))
	}
	for i, p := range res.Points {
		if p.Tag != models.TagNone {
			t.Fatalf("stable series should have no tags, point %d tagged %s", i, p.Tag)
		}
	}
}

func TestBuildChartAutoLocksOnSpike(t *testing.T) {
	uc := newBuilder(dailyPoints(10, 10, 10, 10, 10, 10, 10, 10, 10, 30), models.MetricInfo{})
	res, err := uc.BuildChart(context.Background(), models.ChartRequest{Metric: "signups", N: 100, Adjust: "auto"})
	if err != nil {
		t.Fatalf("BuildChart: %v", err)
	}
	if res.Adjustment.Kind != models.AdjustLocked {
		t.Fatalf("spike series should auto-lock, got %s", res.Adjustment.Kind)
	}
	if res.Adjustment.Locked == nil {
		t.Fatalf("locked mode missing locked limits")
	}
	exc := res.Adjustment.Locked.Excluded
	if len(exc) != 1 || exc[0] != 9 {
		t.Fatalf("expected excluded [9], got %v", exc)
	}
	// locked limits come from the nine stable points
	if res.Limits.AvgX != 10 {
		t.Fatalf("locked AvgX = %v, want 10", res.Limits.AvgX)
	}
	if res.Points[9].Tag != models.TagOutside {
		t.Fatalf("spike point should be tagged outside, got %s", res.Points[9].Tag)
	}
}

func TestBuildChartTrend(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 100 + 5*float64(i)
	}
	uc := newBuilder(dailyPoints(values...), models.MetricInfo{})
	res, err := uc.BuildChart(context.Background(), models.ChartRequest{Metric: "revenue", N: 100, Adjust: "trend"})
	if err != nil {
		t.Fatalf("BuildChart: %v", err)
	}
	if res.Adjustment.Kind != models.AdjustTrended {
		t.Fatalf("expected trend adjustment, got %s", res.Adjustment.Kind)
	}
	if res.Adjustment.Trended == nil || math.Abs(res.Adjustment.Trended.Slope-5) > 1e-9 {
		t.Fatalf("expected slope 5, got %+v", res.Adjustment.Trended)
	}
	for i, p := range res.Points {
		if p.Tag != models.TagNone {
			t.Fatalf("linear series under trend limits should be clean, point %d tagged %s", i, p.Tag)
		}
	}
}

func TestBuildChartCatalogPreference(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 100 + 5*float64(i)
	}
	info := models.MetricInfo{Metric: "revenue", PreferredAdjustment: "trend"}
	uc := newBuilder(dailyPoints(values...), info)
	res, err := uc.BuildChart(context.Background(), models.ChartRequest{Metric: "revenue", N: 100, Adjust: "auto"})
	if err != nil {
		t.Fatalf("BuildChart: %v", err)
	}
	if res.Adjustment.Kind != models.AdjustTrended {
		t.Fatalf("catalog preference should resolve auto to trend, got %s", res.Adjustment.Kind)
	}
}

func TestBuildChartDegenerate(t *testing.T) {
	uc := newBuilder(dailyPoints(10, 11, 10), models.MetricInfo{})
	res, err := uc.BuildChart(context.Background(), models.ChartRequest{Metric: "signups", N: 100, Adjust: "none"})
	if err != nil {
		t.Fatalf("BuildChart: %v", err)
	}
	if !res.Degenerate {
		t.Fatalf("3 points should be degenerate")
	}
	if len(res.Points) != 3 {
		t.Fatalf("degenerate charts still return points, got %d", len(res.Points))
	}
}

func TestLockPreviewManualExclusions(t *testing.T) {
	uc := newBuilder(dailyPoints(10, 10, 10, 10, 10, 30), models.MetricInfo{})
	res, err := uc.LockPreview(context.Background(), models.LockRequest{Metric: "signups", N: 100, Exclude: "5"})
	if err != nil {
		t.Fatalf("LockPreview: %v", err)
	}
	if !res.ShouldLock {
		t.Fatalf("spike series should report should_lock")
	}
	if res.Locked.Limits.AvgX != 10 {
		t.Fatalf("AvgX = %v, want 10", res.Locked.Limits.AvgX)
	}
	if len(res.Locked.Excluded) != 1 || res.Locked.Excluded[0] != 5 {
		t.Fatalf("excluded = %v, want [5]", res.Locked.Excluded)
	}
}

func TestLockPreviewTooFewRetained(t *testing.T) {
	uc := newBuilder(dailyPoints(10, 10, 10, 10), models.MetricInfo{})
	_, err := uc.LockPreview(context.Background(), models.LockRequest{Metric: "signups", N: 100, Exclude: "0,1"})
	if err == nil {
		t.Fatalf("expected error when exclusions leave fewer than 3 points")
	}
}

func TestSeasonalityInference(t *testing.T) {
	// 28 daily points, weekends double the weekday level
	values := make([]float64, 28)
	base := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC) // Monday
	points := make([]models.DataPoint, 28)
	for i := range values {
		ts := base.AddDate(0, 0, i)
		v := 10.0
		if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
			v = 20.0
		}
		points[i] = models.DataPoint{Timestamp: ts, Value: v, Confidence: 1}
	}
	uc := newBuilder(points, models.MetricInfo{})
	res, err := uc.Seasonality(context.Background(), models.SeasonalityRequest{Metric: "traffic", N: 365})
	if err != nil {
		t.Fatalf("Seasonality: %v", err)
	}
	profile := res.Profile
	if profile.Period != models.PeriodWeek || profile.Grouping != models.GroupingDay {
		t.Fatalf("expected week/day profile, got %s/%s", profile.Period, profile.Grouping)
	}
	if len(profile.Factors) != 7 {
		t.Fatalf("expected 7 factors, got %d", len(profile.Factors))
	}
	if profile.Factors[int(time.Saturday)] <= profile.Factors[int(time.Monday)] {
		t.Fatalf("weekend factor should exceed weekday: %v", profile.Factors)
	}
	if len(res.Preview) != len(points) {
		t.Fatalf("preview length = %d, want %d", len(res.Preview), len(points))
	}
	// deseasonalizing flattens the weekend bump
	var lo, hi float64 = res.Preview[0].Value, res.Preview[0].Value
	for _, p := range res.Preview {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}
	if hi-lo > 1e-9 {
		t.Fatalf("preview not flat: spread %v", hi-lo)
	}
}

func TestSeasonalityNoPeriod(t *testing.T) {
	uc := newBuilder(dailyPoints(10), models.MetricInfo{})
	if _, err := uc.Seasonality(context.Background(), models.SeasonalityRequest{Metric: "traffic", N: 365}); err == nil {
		t.Fatalf("single point should have no usable period")
	}
}

func TestCallerErrorsAreBadRequests(t *testing.T) {
	// Errors the caller can fix must carry a 400 status so the HTTP layer
	// does not report them as server failures.
	points := dailyPoints(10, 10, 10, 10, 10, 30)
	uc := newBuilder(points, models.MetricInfo{})

	cases := []struct {
		name string
		run  func() error
	}{
		{"unsupported grouping", func() error {
			_, err := uc.Seasonality(context.Background(),
				models.SeasonalityRequest{Metric: "traffic", N: 365, Period: "week", Grouping: "month"})
			return err
		}},
		{"exclusions below floor", func() error {
			_, err := uc.LockPreview(context.Background(),
				models.LockRequest{Metric: "signups", N: 100, Exclude: "0,1,2,3"})
			return err
		}},
		{"missing metric", func() error {
			_, err := uc.Limits(context.Background(), models.LimitsRequest{N: 100})
			return err
		}},
	}
	for _, tc := range cases {
		err := tc.run()
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		var appErr *xhttp.AppError
		if !errors.As(err, &appErr) {
			t.Fatalf("%s: error %v is not an AppError", tc.name, err)
		}
		if appErr.Status != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want %d", tc.name, appErr.Status, http.StatusBadRequest)
		}
	}
}
