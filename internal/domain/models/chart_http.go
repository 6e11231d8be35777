package models

// Requests for chart HTTP endpoints. Defined in domain for consistency and reuse.

type ChartRequest struct {
	Metric string `query:"metric" json:"metric" validate:"required"`
	N      int    `query:"n" json:"n" default:"120" validate:"gte=2,lte=5000"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Adjust string `query:"adjust" json:"adjust" default:"auto" validate:"oneof=auto none lock trend seasonal"`
	Median bool   `query:"median" json:"median"`
}

type LimitsRequest struct {
	Metric string `query:"metric" json:"metric" validate:"required"`
	N      int    `query:"n" json:"n" default:"120" validate:"gte=2,lte=5000"`
	Median bool   `query:"median" json:"median"`
}

type ViolationsRequest struct {
	Metric string `query:"metric" json:"metric" validate:"required"`
	N      int    `query:"n" json:"n" default:"120" validate:"gte=2,lte=5000"`
	Median bool   `query:"median" json:"median"`
}

type TrendRequest struct {
	Metric string `query:"metric" json:"metric" validate:"required"`
	N      int    `query:"n" json:"n" default:"120" validate:"gte=2,lte=5000"`
}

type SeasonalityRequest struct {
	Metric   string `query:"metric" json:"metric" validate:"required"`
	N        int    `query:"n" json:"n" default:"365" validate:"gte=2,lte=10000"`
	Period   string `query:"period" json:"period" validate:"omitempty,oneof=week month quarter year"`
	Grouping string `query:"grouping" json:"grouping" validate:"omitempty,oneof=day week month quarter"`
}

type LockRequest struct {
	Metric  string `query:"metric" json:"metric" validate:"required"`
	N       int    `query:"n" json:"n" default:"120" validate:"gte=2,lte=5000"`
	Exclude string `query:"exclude" json:"exclude"` // comma-separated point indices for a manual lock
}

type PointsRequest struct {
	Metric string `query:"metric" json:"metric" validate:"required"`
	N      int    `query:"n" json:"n" default:"500" validate:"gte=1,lte=10000"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
}
