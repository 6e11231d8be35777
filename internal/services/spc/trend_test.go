package spc

import (
	"testing"
)

func TestRegressPerfectLine(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 100 + 5*float64(i)
	}
	points := seriesOf(values...)

	m, c := Regress(points)
	if !approx(m, 5) || !approx(c, 100) {
		t.Fatalf("regress = (%v, %v), want (5, 100)", m, c)
	}
}

func TestRegressEdgeCases(t *testing.T) {
	if m, c := Regress(nil); m != 0 || c != 0 {
		t.Fatalf("empty regress = (%v, %v)", m, c)
	}
	if m, c := Regress(seriesOf(42)); m != 0 || c != 42 {
		t.Fatalf("single-point regress = (%v, %v)", m, c)
	}
	if m, c := Regress(seriesOf(7, 7, 7, 7)); !approx(m, 0) || !approx(c, 7) {
		t.Fatalf("flat regress = (%v, %v)", m, c)
	}
}

func TestBuildTrendLines(t *testing.T) {
	tr := BuildTrendLines(5, 100, 3, 4)
	if len(tr.Center) != 4 || len(tr.Upper) != 4 || len(tr.Lower) != 4 {
		t.Fatalf("unexpected line lengths %+v", tr)
	}
	if !approx(tr.Center[0], 100) || !approx(tr.Center[3], 115) {
		t.Fatalf("center = %v", tr.Center)
	}
	offset := 2.66 * 3
	if !approx(tr.Upper[2], 110+offset) || !approx(tr.Lower[2], 110-offset) {
		t.Fatalf("band = [%v, %v]", tr.Lower[2], tr.Upper[2])
	}
}

// A steadily growing metric floods the flat chart with signals but is clean
// against its own trend lines.
func TestTrendSuppressesFalsePositives(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 100 + 5*float64(i)
	}
	points := seriesOf(values...)

	limits, _ := ComputeLimits(points, false)
	flat := DetectViolations(points, limits, nil)
	if len(flat.RunningStreak) < RunStreakLength {
		t.Fatalf("flat detection should flag a long streak, got %v", flat.RunningStreak)
	}

	m, c := Regress(points)
	trend := BuildTrendLines(m, c, limits.AvgMovement, len(points))
	v := DetectViolations(points, limits, &trend)
	if len(v.OutsideLimits) != 0 || len(v.RunningStreak) != 0 ||
		len(v.FourNearLimit) != 0 || len(v.TwoOfThree) != 0 || len(v.LowVariation) != 0 {
		t.Fatalf("trend detection should flag nothing, got %+v", v)
	}
}
