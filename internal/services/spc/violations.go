package spc

import (
	"sort"

	"MetricPulse/internal/domain/models"
)

// Western Electric rule windows. The exact streak length varies between 7
// and 9 in the literature; keep these named so they can be calibrated
// against golden chart fixtures.
const (
	// RunStreakLength is the number of consecutive same-side points that
	// constitutes a running-points signal.
	RunStreakLength = 8
	// nearLimitWindow / nearLimitCount: sliding window where this many points
	// beyond the two-sigma (quartile) boundary on the same side signal.
	nearLimitWindow = 4
	nearLimitCount  = 3
	// twoOfThreeWindow / twoOfThreeCount: the classic 2-of-3 beyond two sigma.
	twoOfThreeWindow = 3
	twoOfThreeCount  = 2
	// LowVariationWindow is the run length of points inside one sigma that
	// signals suspiciously low variation.
	LowVariationWindow = 15
)

func (Engine) DetectViolations(points []models.DataPoint, limits models.XMRLimits, trend *models.TrendLimits) models.Violations {
	return DetectViolations(points, limits, trend)
}

// DetectViolations evaluates the point sequence against the five
// control-chart rules. When trend is non-nil every comparison uses the
// index-aligned trend center and bounds instead of the flat limits, so a
// deliberately sloped metric does not produce false positives. Deterministic,
// never errors; rule sets may overlap.
func DetectViolations(points []models.DataPoint, limits models.XMRLimits, trend *models.TrendLimits) models.Violations {
	n := len(points)
	v := models.Violations{
		OutsideLimits: []int{},
		RunningStreak: []int{},
		FourNearLimit: []int{},
		TwoOfThree:    []int{},
		LowVariation:  []int{},
	}
	if n == 0 {
		return v
	}

	ref := newRefLines(n, limits, trend)

	v.OutsideLimits = detectOutsideLimits(points, ref)
	v.RunningStreak = detectRunningStreak(points, ref)
	v.FourNearLimit = detectZoneCluster(points, ref, nearLimitWindow, nearLimitCount)
	v.TwoOfThree = detectZoneCluster(points, ref, twoOfThreeWindow, twoOfThreeCount)
	// Low variation against a fitted trend is circular (least squares
	// minimizes the residuals being measured), so rule 5 only applies to
	// flat limits.
	if trend == nil {
		v.LowVariation = detectLowVariation(points, ref)
	}
	return v
}

// refLines resolves the per-index center, limit, and zone boundaries for
// either flat or sloped comparison.
type refLines struct {
	center, upper, lower   func(i int) float64
	upperQuart, lowerQuart func(i int) float64
	sigma                  float64
}

func newRefLines(n int, limits models.XMRLimits, trend *models.TrendLimits) refLines {
	sigma := limitFactor * limits.AvgMovement / 3
	if trend != nil {
		return refLines{
			center:     func(i int) float64 { return trend.Center[i] },
			upper:      func(i int) float64 { return trend.Upper[i] },
			lower:      func(i int) float64 { return trend.Lower[i] },
			upperQuart: func(i int) float64 { return (trend.Center[i] + trend.Upper[i]) / 2 },
			lowerQuart: func(i int) float64 { return (trend.Center[i] + trend.Lower[i]) / 2 },
			sigma:      sigma,
		}
	}
	return refLines{
		center:     func(int) float64 { return limits.AvgX },
		upper:      func(int) float64 { return limits.UNPL },
		lower:      func(int) float64 { return limits.LNPL },
		upperQuart: func(int) float64 { return limits.UpperQuartile },
		lowerQuart: func(int) float64 { return limits.LowerQuartile },
		sigma:      sigma,
	}
}

// Rule 1: a value strictly beyond the applicable bound. A value exactly on
// the limit is routine variation, not a signal.
func detectOutsideLimits(points []models.DataPoint, ref refLines) []int {
	out := []int{}
	for i, p := range points {
		if p.Value > ref.upper(i) || p.Value < ref.lower(i) {
			out = append(out, i)
		}
	}
	return out
}

// Rule 2: RunStreakLength consecutive points on the same side of center.
// A point exactly on the center line has no side and breaks the run.
func detectRunningStreak(points []models.DataPoint, ref refLines) []int {
	flagged := map[int]bool{}
	side, runStart := 0, 0
	flush := func(end int) {
		if side != 0 && end-runStart >= RunStreakLength {
			for i := runStart; i < end; i++ {
				flagged[i] = true
			}
		}
	}
	for i, p := range points {
		s := 0
		switch {
		case p.Value > ref.center(i):
			s = 1
		case p.Value < ref.center(i):
			s = -1
		}
		if s != side {
			flush(i)
			side, runStart = s, i
		}
	}
	flush(len(points))
	return sortedKeys(flagged)
}

// Rules 3 and 4: a sliding window where at least `count` points sit beyond
// the two-sigma (quartile) boundary on the same side. The offending points
// in each qualifying window are flagged.
func detectZoneCluster(points []models.DataPoint, ref refLines, window, count int) []int {
	n := len(points)
	if n < window {
		return []int{}
	}
	flagged := map[int]bool{}
	for start := 0; start+window <= n; start++ {
		var above, below []int
		for i := start; i < start+window; i++ {
			if points[i].Value > ref.upperQuart(i) {
				above = append(above, i)
			} else if points[i].Value < ref.lowerQuart(i) {
				below = append(below, i)
			}
		}
		if len(above) >= count {
			for _, i := range above {
				flagged[i] = true
			}
		}
		if len(below) >= count {
			for _, i := range below {
				flagged[i] = true
			}
		}
	}
	return sortedKeys(flagged)
}

// Rule 5: LowVariationWindow consecutive points all strictly inside one
// sigma of center. Skipped for degenerate zero-width limits, where "inside
// one sigma" is meaningless.
func detectLowVariation(points []models.DataPoint, ref refLines) []int {
	n := len(points)
	if n < LowVariationWindow || ref.sigma <= 0 {
		return []int{}
	}
	flagged := map[int]bool{}
	runStart := 0
	for i, p := range points {
		d := p.Value - ref.center(i)
		if d < 0 {
			d = -d
		}
		if d >= ref.sigma {
			runStart = i + 1
			continue
		}
		if i-runStart+1 >= LowVariationWindow {
			for j := runStart; j <= i; j++ {
				flagged[j] = true
			}
		}
	}
	return sortedKeys(flagged)
}

// TagViolations selects one display tag per point by rule priority
// (outside > two-of-three > four-near-limit > streak > low-variation) and
// returns the full per-point rule membership alongside. n is the length of
// the point sequence the violations were computed from.
func TagViolations(n int, v models.Violations) ([]models.RuleTag, [][]models.RuleTag) {
	membership := make([][]models.RuleTag, n)
	mark := func(idx []int, tag models.RuleTag) {
		for _, i := range idx {
			if i >= 0 && i < n {
				membership[i] = append(membership[i], tag)
			}
		}
	}
	// Mark in priority order so membership[i][0] is the display tag.
	mark(v.OutsideLimits, models.TagOutside)
	mark(v.TwoOfThree, models.TagTwoOfThree)
	mark(v.FourNearLimit, models.TagFourNearLim)
	mark(v.RunningStreak, models.TagStreak)
	mark(v.LowVariation, models.TagLowVariation)

	tags := make([]models.RuleTag, n)
	for i, rules := range membership {
		if len(rules) > 0 {
			tags[i] = rules[0]
		}
	}
	return tags, membership
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for i := range m {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
