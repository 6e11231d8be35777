package spc

import (
	"reflect"
	"testing"

	"MetricPulse/internal/domain/models"
)

func TestLockWithOutlierRemovalSingleSpike(t *testing.T) {
	points := seriesOf(10, 10, 10, 10, 10, 10, 10, 10, 10, 30)

	raw, _ := ComputeLimits(points, false)
	rawViolations := DetectViolations(points, raw, nil)
	if !reflect.DeepEqual(rawViolations.OutsideLimits, []int{9}) {
		t.Fatalf("raw outside = %v, want [9]", rawViolations.OutsideLimits)
	}

	locked, excluded := LockWithOutlierRemoval(points)
	if !reflect.DeepEqual(excluded, []int{9}) {
		t.Fatalf("excluded = %v, want [9]", excluded)
	}

	want, _ := ComputeLimits(points[:9], false)
	if locked != want {
		t.Fatalf("locked limits %+v, want %+v", locked, want)
	}
	if !approx(locked.AvgX, 10) || locked.UNPL != locked.LNPL {
		t.Fatalf("locked limits should collapse on 10, got %+v", locked)
	}
}

func TestLockWithOutlierRemovalStableSeries(t *testing.T) {
	points := seriesOf(10, 12, 11, 13, 10, 12, 11)
	locked, excluded := LockWithOutlierRemoval(points)
	if len(excluded) != 0 {
		t.Fatalf("stable series excluded %v", excluded)
	}
	want, _ := ComputeLimits(points, false)
	if locked != want {
		t.Fatalf("locked limits %+v, want raw %+v", locked, want)
	}
}

func TestLockWithOutlierRemovalRetainedFloor(t *testing.T) {
	// A geometric series keeps producing fresh outliers on every pass.
	// No matter how wild the input, at least three points survive.
	points := seriesOf(1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024)
	_, excluded := LockWithOutlierRemoval(points)
	if len(points)-len(excluded) < 3 {
		t.Fatalf("retained %d points", len(points)-len(excluded))
	}
}

func TestLockWithOutlierRemovalLimitsMatchRetainedSet(t *testing.T) {
	// Whatever makes the loop stop (fixed point, retained floor, or the
	// iteration cap), the returned limits must be the ones computed over the
	// final retained set.
	cases := [][]float64{
		{10, 10, 10, 10, 10, 10, 10, 10, 10, 30},
		{10, 12, 11, 13, 10, 12, 11},
		{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768},
		{10, 10, 10, 30, 10, 10, 10, 60, 10, 10, 10, 90},
	}
	for _, values := range cases {
		points := seriesOf(values...)
		locked, excluded := LockWithOutlierRemoval(points)

		skip := map[int]bool{}
		for _, i := range excluded {
			skip[i] = true
		}
		retained := make([]models.DataPoint, 0, len(points))
		for i, p := range points {
			if !skip[i] {
				retained = append(retained, p)
			}
		}
		want, _ := ComputeLimits(retained, false)
		if locked != want {
			t.Fatalf("series %v: locked %+v disagrees with retained-set limits %+v (excluded %v)",
				values, locked, want, excluded)
		}
	}
}

func TestLockWithExclusions(t *testing.T) {
	points := seriesOf(10, 10, 10, 10, 30)
	locked, err := LockWithExclusions(points, []int{4})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want, _ := ComputeLimits(points[:4], false)
	if locked != want {
		t.Fatalf("locked limits %+v, want %+v", locked, want)
	}
}

func TestLockWithExclusionsTooFewRemain(t *testing.T) {
	points := seriesOf(10, 10, 10, 10)
	if _, err := LockWithExclusions(points, []int{0, 1}); err == nil {
		t.Fatalf("expected error when fewer than three points remain")
	}
}

func TestLockWithExclusionsIgnoresOutOfRange(t *testing.T) {
	points := seriesOf(10, 10, 10, 10)
	locked, err := LockWithExclusions(points, []int{-1, 99})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want, _ := ComputeLimits(points, false)
	if locked != want {
		t.Fatalf("locked limits %+v, want %+v", locked, want)
	}
}

func TestShouldAutoLock(t *testing.T) {
	spike := seriesOf(10, 10, 10, 10, 10, 10, 10, 10, 10, 30)
	if !ShouldAutoLock(spike) {
		t.Fatalf("single spike should auto-lock")
	}

	stable := seriesOf(10, 12, 11, 13, 10, 12, 11)
	if ShouldAutoLock(stable) {
		t.Fatalf("stable series should not auto-lock")
	}

	if ShouldAutoLock(seriesOf(10, 30, 10)) {
		t.Fatalf("too few points should not auto-lock")
	}
}
