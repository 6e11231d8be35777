package spc

import (
	"reflect"
	"testing"

	"MetricPulse/internal/domain/models"
)

// testLimits centers on 10 with limits at 0/20, quartiles at 5/15, and
// sigma = 2.66*3/3 = 2.66.
func testLimits() models.XMRLimits {
	return models.XMRLimits{
		AvgX:          10,
		UNPL:          20,
		LNPL:          0,
		AvgMovement:   3,
		URL:           3.267 * 3,
		LowerQuartile: 5,
		UpperQuartile: 15,
	}
}

func TestDetectOutsideLimitsStrict(t *testing.T) {
	points := seriesOf(10, 20, 20.1, 0, -0.1, 10)
	v := DetectViolations(points, testLimits(), nil)
	// Values exactly on a limit are routine variation.
	if !reflect.DeepEqual(v.OutsideLimits, []int{2, 4}) {
		t.Fatalf("outside = %v, want [2 4]", v.OutsideLimits)
	}
}

func TestDetectRunningStreak(t *testing.T) {
	// Eight consecutive points above center.
	points := seriesOf(11, 11, 11, 11, 11, 11, 11, 11, 9)
	v := DetectViolations(points, testLimits(), nil)
	if !reflect.DeepEqual(v.RunningStreak, []int{0, 1, 2, 3, 4, 5, 6, 7}) {
		t.Fatalf("streak = %v", v.RunningStreak)
	}
}

func TestDetectRunningStreakBrokenByCenter(t *testing.T) {
	// A point exactly on center has no side and resets the run.
	points := seriesOf(11, 11, 11, 11, 10, 11, 11, 11, 11)
	v := DetectViolations(points, testLimits(), nil)
	if len(v.RunningStreak) != 0 {
		t.Fatalf("streak = %v, want none", v.RunningStreak)
	}
}

func TestDetectTwoOfThree(t *testing.T) {
	// Two of three beyond the upper quartile, same side.
	points := seriesOf(10, 16, 17, 10, 10, 10)
	v := DetectViolations(points, testLimits(), nil)
	if !reflect.DeepEqual(v.TwoOfThree, []int{1, 2}) {
		t.Fatalf("two-of-three = %v, want [1 2]", v.TwoOfThree)
	}
}

func TestDetectTwoOfThreeOppositeSides(t *testing.T) {
	// One beyond each quartile does not pair up.
	points := seriesOf(10, 16, 4, 10, 10, 10)
	v := DetectViolations(points, testLimits(), nil)
	if len(v.TwoOfThree) != 0 {
		t.Fatalf("two-of-three = %v, want none", v.TwoOfThree)
	}
}

func TestDetectFourNearLimit(t *testing.T) {
	// Three of four beyond the lower quartile.
	points := seriesOf(4, 10, 3, 4.5, 10, 10)
	v := DetectViolations(points, testLimits(), nil)
	if !reflect.DeepEqual(v.FourNearLimit, []int{0, 2, 3}) {
		t.Fatalf("four-near-limit = %v, want [0 2 3]", v.FourNearLimit)
	}
}

func TestDetectLowVariation(t *testing.T) {
	// Fifteen points all strictly within sigma (2.66) of center.
	values := make([]float64, 15)
	for i := range values {
		values[i] = 10
		if i%2 == 1 {
			values[i] = 11
		}
	}
	points := seriesOf(values...)
	v := DetectViolations(points, testLimits(), nil)
	if len(v.LowVariation) != 15 {
		t.Fatalf("low variation flagged %v", v.LowVariation)
	}
}

func TestDetectLowVariationSkippedForZeroSigma(t *testing.T) {
	points := seriesOf(7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7)
	limits, _ := ComputeLimits(points, false)
	v := DetectViolations(points, limits, nil)
	if len(v.LowVariation) != 0 {
		t.Fatalf("degenerate limits should not flag low variation, got %v", v.LowVariation)
	}
}

func TestDetectViolationsEmpty(t *testing.T) {
	v := DetectViolations(nil, testLimits(), nil)
	if len(v.OutsideLimits) != 0 || len(v.RunningStreak) != 0 ||
		len(v.FourNearLimit) != 0 || len(v.TwoOfThree) != 0 || len(v.LowVariation) != 0 {
		t.Fatalf("empty input should yield empty sets, got %+v", v)
	}
}

func TestTagViolationsPriority(t *testing.T) {
	v := models.Violations{
		OutsideLimits: []int{2},
		RunningStreak: []int{0, 1, 2, 3},
		TwoOfThree:    []int{1, 2},
	}
	tags, membership := TagViolations(4, v)

	if tags[2] != models.TagOutside {
		t.Fatalf("tag[2] = %q, want outside", tags[2])
	}
	if tags[1] != models.TagTwoOfThree {
		t.Fatalf("tag[1] = %q, want two-of-three", tags[1])
	}
	if tags[0] != models.TagStreak || tags[3] != models.TagStreak {
		t.Fatalf("tags = %v", tags)
	}
	if len(membership[2]) != 3 {
		t.Fatalf("membership[2] = %v, want all three rules", membership[2])
	}
}
