package models

import "strings"

// Legacy display names carried the preferred adjustment as a bracketed
// suffix, e.g. "Weekly Signups (Trend)". The typed preferred_adjustment
// field replaces that channel; this translation runs at the ingest boundary
// only, so old upstreams keep working while new ones set the field directly.
func AdjustmentFromLegacyLabel(displayName string) AdjustmentKind {
	switch {
	case strings.Contains(displayName, "(Trend)"):
		return AdjustTrended
	case strings.Contains(displayName, "(Seasonality)"):
		return AdjustSeasonal
	default:
		return AdjustNone
	}
}

// StripLegacyLabel removes a legacy adjustment suffix from a display name.
func StripLegacyLabel(displayName string) string {
	for _, tag := range []string{"(Trend)", "(Seasonality)"} {
		displayName = strings.ReplaceAll(displayName, tag, "")
	}
	return strings.TrimSpace(displayName)
}
