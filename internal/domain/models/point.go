package models

import "time"

// DataPoint is a single cleaned measurement of a business metric.
// The engine treats point slices as immutable inputs.
type DataPoint struct {
	Timestamp  time.Time `json:"ts"`
	Value      float64   `json:"value"`
	Confidence float64   `json:"confidence,omitempty"` // [0,1]; 0 means unknown
}

// AugmentedPoint pairs a point with its moving range (absolute difference
// from the previous value). Movement is 0 for the first point.
type AugmentedPoint struct {
	DataPoint
	Movement float64 `json:"movement"`
}

// Observation is a raw ingested measurement before cleaning. Timestamp is
// unix seconds; Label carries the upstream display name, which may embed a
// legacy adjustment hint (see AdjustmentFromLegacyLabel).
type Observation struct {
	Metric     string  `json:"metric"`
	Timestamp  int64   `json:"t"`
	Value      float64 `json:"v"`
	Confidence float64 `json:"conf,omitempty"`
	Label      string  `json:"label,omitempty"`
}

// MetricInfo is the catalog record for a metric series.
type MetricInfo struct {
	Metric              string    `json:"metric"`
	DisplayName         string    `json:"display_name"`
	PreferredAdjustment string    `json:"preferred_adjustment"` // "", "lock", "trend", "seasonal"
	UseMedian           bool      `json:"use_median"`
	UpdatedAt           time.Time `json:"-"`
}
