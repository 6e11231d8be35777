package spc

import "MetricPulse/internal/domain/models"

func (Engine) Regress(points []models.DataPoint) (float64, float64) {
	return Regress(points)
}

// Regress fits value against point index by ordinary least squares and
// returns the slope and intercept. Index is the regressor rather than the
// timestamp so uneven sampling gaps do not distort the fit. Fewer than two
// points give a flat line through the data.
func Regress(points []models.DataPoint) (m, c float64) {
	n := len(points)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return 0, points[0].Value
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := float64(i)
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / fn
	}
	m = (fn*sumXY - sumX*sumY) / denom
	c = (sumY - m*sumX) / fn
	return m, c
}

func (Engine) BuildTrendLines(m, c, avgMovement float64, n int) models.TrendLimits {
	return BuildTrendLines(m, c, avgMovement, n)
}

// BuildTrendLines evaluates the sloped center line and its parallel limit
// band at every index. avgMovement must come from limits computed over the
// un-trended series, so the band width matches what the flat chart shows.
func BuildTrendLines(m, c, avgMovement float64, n int) models.TrendLimits {
	t := models.TrendLimits{
		Slope:     m,
		Intercept: c,
		Center:    make([]float64, n),
		Upper:     make([]float64, n),
		Lower:     make([]float64, n),
	}
	offset := limitFactor * avgMovement
	for i := 0; i < n; i++ {
		center := m*float64(i) + c
		t.Center[i] = center
		t.Upper[i] = center + offset
		t.Lower[i] = center - offset
	}
	return t
}
