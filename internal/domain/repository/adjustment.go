package repository

import "MetricPulse/internal/domain/models"

// Adjustment is the request-level adjustment selector. "auto" resolves to the
// metric's stored preference, falling back to an auto-lock probe.
type Adjustment string

const (
	AdjustAuto     Adjustment = "auto"
	AdjustNone     Adjustment = "none"
	AdjustLock     Adjustment = "lock"
	AdjustTrend    Adjustment = "trend"
	AdjustSeasonal Adjustment = "seasonal"
)

// IsValidAdjustment returns true if a is a supported selector.
func IsValidAdjustment(a Adjustment) bool {
	switch a {
	case AdjustAuto, AdjustNone, AdjustLock, AdjustTrend, AdjustSeasonal:
		return true
	default:
		return false
	}
}

// DefaultAdjustment returns the default selector.
func DefaultAdjustment() Adjustment { return AdjustAuto }

// NormalizeAdjustment converts a raw string to a valid selector (or default).
func NormalizeAdjustment(s string) Adjustment {
	if s == "" {
		return DefaultAdjustment()
	}
	a := Adjustment(s)
	if IsValidAdjustment(a) {
		return a
	}
	return DefaultAdjustment()
}

// Kind maps a concrete selector to the model-level adjustment kind.
// AdjustAuto has no fixed kind and maps to none.
func (a Adjustment) Kind() models.AdjustmentKind {
	switch a {
	case AdjustLock:
		return models.AdjustLocked
	case AdjustTrend:
		return models.AdjustTrended
	case AdjustSeasonal:
		return models.AdjustSeasonal
	default:
		return models.AdjustNone
	}
}
