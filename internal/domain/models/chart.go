package models

import "time"

// XMRLimits holds natural process limits for an Individuals/Moving-Range
// chart. Invariants: LNPL <= AvgX <= UNPL, 0 <= AvgMovement <= URL,
// LowerQuartile = (AvgX+LNPL)/2, UpperQuartile = (AvgX+UNPL)/2.
type XMRLimits struct {
	AvgX          float64 `json:"avg_x"`
	UNPL          float64 `json:"unpl"`
	LNPL          float64 `json:"lnpl"`
	AvgMovement   float64 `json:"avg_movement"`
	URL           float64 `json:"url"`
	LowerQuartile float64 `json:"lower_quartile"`
	UpperQuartile float64 `json:"upper_quartile"`
}

// Violations collects the point indices breaking each control-chart rule.
// Sets may overlap; display picks one tag per point via rule priority.
type Violations struct {
	OutsideLimits []int `json:"outside_limits"`
	RunningStreak []int `json:"running_streak"`
	FourNearLimit []int `json:"four_near_limit"`
	TwoOfThree    []int `json:"two_of_three"`
	LowVariation  []int `json:"low_variation"`
}

// RuleTag is the single display tag chosen for a point when several rules
// fire at once. Priority: outside > two-of-three > four-near > streak > low-variation.
type RuleTag string

const (
	TagNone         RuleTag = ""
	TagOutside      RuleTag = "outside_limits"
	TagTwoOfThree   RuleTag = "two_of_three"
	TagFourNearLim  RuleTag = "four_near_limit"
	TagStreak       RuleTag = "running_streak"
	TagLowVariation RuleTag = "low_variation"
)

// TrendLimits holds index-aligned sloped center/upper/lower lines.
type TrendLimits struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	Center    []float64 `json:"center"`
	Upper     []float64 `json:"upper"`
	Lower     []float64 `json:"lower"`
}

// Period is the repeat cycle of a seasonal pattern.
type Period string

const (
	PeriodNone    Period = ""
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// Grouping is the phase grain inside a period. GroupingDefault selects the
// period's native slot size (week->day, month->week, quarter->month, year->month).
type Grouping string

const (
	GroupingDefault Grouping = ""
	GroupingDay     Grouping = "day"
	GroupingWeek    Grouping = "week"
	GroupingMonth   Grouping = "month"
	GroupingQuarter Grouping = "quarter"
)

// SeasonalProfile holds one multiplicative factor per phase slot of a period.
type SeasonalProfile struct {
	Period   Period    `json:"period"`
	Grouping Grouping  `json:"grouping"`
	Factors  []float64 `json:"factors"`
}

// AdjustmentKind names the active limit adjustment for a chart.
type AdjustmentKind string

const (
	AdjustNone     AdjustmentKind = "none"
	AdjustLocked   AdjustmentKind = "lock"
	AdjustTrended  AdjustmentKind = "trend"
	AdjustSeasonal AdjustmentKind = "seasonal"
)

// AdjustmentMode is a tagged variant: exactly one of the payload fields is
// set, matching Kind. Lock, trend, and seasonal redefine center/limits
// incompatibly, so they are never combined.
type AdjustmentMode struct {
	Kind     AdjustmentKind   `json:"kind"`
	Locked   *LockedLimits    `json:"locked,omitempty"`
	Trended  *TrendLimits     `json:"trended,omitempty"`
	Seasonal *SeasonalProfile `json:"seasonal,omitempty"`
}

// LockedLimits are limits recomputed from a pre-filtered input. They are
// call-scoped and never persisted; Excluded indexes the original sequence.
type LockedLimits struct {
	Limits   XMRLimits `json:"limits"`
	Excluded []int     `json:"excluded"`
}

// ModeNone returns the no-adjustment mode.
func ModeNone() AdjustmentMode { return AdjustmentMode{Kind: AdjustNone} }

// ModeLocked wraps locked limits.
func ModeLocked(l LockedLimits) AdjustmentMode {
	return AdjustmentMode{Kind: AdjustLocked, Locked: &l}
}

// ModeTrended wraps trend limits.
func ModeTrended(t TrendLimits) AdjustmentMode {
	return AdjustmentMode{Kind: AdjustTrended, Trended: &t}
}

// ModeSeasonal wraps a seasonal profile.
func ModeSeasonal(p SeasonalProfile) AdjustmentMode {
	return AdjustmentMode{Kind: AdjustSeasonal, Seasonal: &p}
}

// Valid reports whether exactly the payload matching Kind is set.
func (m AdjustmentMode) Valid() bool {
	set := 0
	if m.Locked != nil {
		set++
	}
	if m.Trended != nil {
		set++
	}
	if m.Seasonal != nil {
		set++
	}
	switch m.Kind {
	case AdjustNone:
		return set == 0
	case AdjustLocked:
		return set == 1 && m.Locked != nil
	case AdjustTrended:
		return set == 1 && m.Trended != nil
	case AdjustSeasonal:
		return set == 1 && m.Seasonal != nil
	default:
		return false
	}
}

// LockPreview reports the auto-lock probe next to the recomputed limits.
type LockPreview struct {
	ShouldLock bool         `json:"should_lock"`
	Locked     LockedLimits `json:"locked"`
}

// SeasonalityResult pairs a seasonal profile with a deseasonalized preview
// of the input series.
type SeasonalityResult struct {
	Profile SeasonalProfile `json:"profile"`
	Preview []DataPoint     `json:"preview"`
}

// ChartPoint is a render-ready point: the cleaned value, its moving range,
// per-rule flags, and the single priority tag.
type ChartPoint struct {
	Timestamp time.Time `json:"ts"`
	Value     float64   `json:"value"`
	Movement  float64   `json:"movement"`
	Rules     []RuleTag `json:"rules,omitempty"`
	Tag       RuleTag   `json:"tag,omitempty"`
}

// ChartResult is the full computed chart for one metric series.
type ChartResult struct {
	Metric     string         `json:"metric"`
	Computed   time.Time      `json:"computed"`
	Points     []ChartPoint   `json:"points"`
	Limits     XMRLimits      `json:"limits"`
	Adjustment AdjustmentMode `json:"adjustment"`
	Violations Violations     `json:"violations"`
	Degenerate bool           `json:"degenerate"` // fewer points than MinimumPoints
}
