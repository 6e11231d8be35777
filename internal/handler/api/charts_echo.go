package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	models "MetricPulse/internal/domain/models"
	icache "MetricPulse/internal/service/cache"
	svcmetrics "MetricPulse/internal/service/metrics"
	"MetricPulse/internal/service/ratelimit"
	"MetricPulse/internal/usecase"
	xhttp "MetricPulse/pkg/http"
	xlogger "MetricPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ChartsEchoHandler exposes the chart computation endpoints over Echo.
type ChartsEchoHandler struct {
	logger   *xlogger.Logger
	builder  *usecase.ChartBuilder
	cache    icache.BytesCache
	rl       *ratelimit.Limiter
	cacheTTL time.Duration
}

func NewChartsEchoHandler(logger *xlogger.Logger, builder *usecase.ChartBuilder) *ChartsEchoHandler {
	svcmetrics.Register()
	return &ChartsEchoHandler{
		logger:   logger,
		builder:  builder,
		rl:       ratelimit.New(),
		cacheTTL: 30 * time.Second,
	}
}

// SetCache enables response caching (TTL or Redis backed).
func (h *ChartsEchoHandler) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	if ttl > 0 {
		h.cacheTTL = ttl
	}
}

func (h *ChartsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/chart", h.Chart)
	g.GET("/limits", h.Limits)
	g.GET("/violations", h.Violations)
	g.GET("/trend", h.Trend)
	g.GET("/seasonality", h.Seasonality)
	g.GET("/lock", h.Lock)
	g.GET("/points", h.Points)
}

// serve runs the shared endpoint plumbing: rate limit, cache lookup, compute,
// cache fill. compute returns the payload to marshal.
func (h *ChartsEchoHandler) serve(c echo.Context, endpoint, cacheKey string, compute func() (interface{}, error)) error {
	start := time.Now()
	defer func() {
		svcmetrics.ChartLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	if !h.rl.Allow(c.RealIP()+":"+endpoint, 5, 2) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	if h.cache != nil && cacheKey != "" {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("chart cache get error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		} else if ok {
			svcmetrics.ChartCacheHits.WithLabelValues(endpoint).Inc()
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	res, err := compute()
	if err != nil {
		svcmetrics.ChartErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("chart usecase error",
			xlogger.String("endpoint", endpoint),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, err)
	}

	// cache the full envelope so hits and misses serve identical bytes
	envelope := xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    res,
	}
	b, merr := json.Marshal(envelope)
	if merr != nil {
		return xhttp.SuccessResponse(c, res)
	}
	if h.cache != nil && cacheKey != "" {
		if err := h.cache.SetBytes(cacheKey, b, h.cacheTTL); err != nil {
			h.logger.Warn("chart cache set error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		}
	}
	return c.JSONBlob(http.StatusOK, b)
}

func (h *ChartsEchoHandler) Chart(c echo.Context) error {
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := fmt.Sprintf("chart:%s:%d:%s:%s:%s:%t", req.Metric, req.N, req.From, req.To, req.Adjust, req.Median)
	return h.serve(c, "chart", key, func() (interface{}, error) {
		return h.builder.BuildChart(c.Request().Context(), *req)
	})
}

func (h *ChartsEchoHandler) Limits(c echo.Context) error {
	req := &models.LimitsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := fmt.Sprintf("limits:%s:%d:%t", req.Metric, req.N, req.Median)
	return h.serve(c, "limits", key, func() (interface{}, error) {
		return h.builder.Limits(c.Request().Context(), *req)
	})
}

func (h *ChartsEchoHandler) Violations(c echo.Context) error {
	req := &models.ViolationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := fmt.Sprintf("violations:%s:%d:%t", req.Metric, req.N, req.Median)
	return h.serve(c, "violations", key, func() (interface{}, error) {
		return h.builder.Violations(c.Request().Context(), *req)
	})
}

func (h *ChartsEchoHandler) Trend(c echo.Context) error {
	req := &models.TrendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := fmt.Sprintf("trend:%s:%d", req.Metric, req.N)
	return h.serve(c, "trend", key, func() (interface{}, error) {
		return h.builder.Trend(c.Request().Context(), *req)
	})
}

func (h *ChartsEchoHandler) Seasonality(c echo.Context) error {
	req := &models.SeasonalityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := fmt.Sprintf("seasonality:%s:%d:%s:%s", req.Metric, req.N, req.Period, req.Grouping)
	return h.serve(c, "seasonality", key, func() (interface{}, error) {
		return h.builder.Seasonality(c.Request().Context(), *req)
	})
}

func (h *ChartsEchoHandler) Lock(c echo.Context) error {
	req := &models.LockRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	// lock previews are exploratory; never cached
	return h.serve(c, "lock", "", func() (interface{}, error) {
		return h.builder.LockPreview(c.Request().Context(), *req)
	})
}

func (h *ChartsEchoHandler) Points(c echo.Context) error {
	req := &models.PointsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := fmt.Sprintf("points:%s:%d:%s:%s", req.Metric, req.N, req.From, req.To)
	return h.serve(c, "points", key, func() (interface{}, error) {
		aug, err := h.builder.Points(c.Request().Context(), *req)
		if err != nil {
			return nil, err
		}
		return &xhttp.ListDataResponse{Rows: aug, Total: int64(len(aug))}, nil
	})
}
