package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"MetricPulse/internal/handler/api"
	"MetricPulse/internal/repository"
	icache "MetricPulse/internal/service/cache"
	"MetricPulse/internal/services/spc"
	"MetricPulse/internal/usecase"
	pkgch "MetricPulse/pkg/clickhouse"
	"MetricPulse/pkg/config"
	xhttp "MetricPulse/pkg/http"
	pkgkafka "MetricPulse/pkg/kafka"
	applogger "MetricPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// App encapsulates the application lifecycle: feed collection, Kafka
// consumption, and the chart HTTP API.
type App struct {
	cfg         *config.Config
	collector   *usecase.ObservationCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	Proc        *usecase.ObservationProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.ObservationCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		return err
	}

	httpHandler := a.httpHandler
	if httpHandler == nil && a.chClient != nil {
		store := repository.NewCHPointStore(a.chClient)
		store.SetLogger(l)
		builder := usecase.NewChartBuilder(store, spc.NewEngine())
		h := api.NewChartsEchoHandler(l, builder)

		var respCache icache.BytesCache
		if a.cfg.Chart.Redis.Enabled {
			respCache = icache.NewRedisCache(icache.RedisConfig{
				Addr:     a.cfg.Chart.Redis.Addr,
				Password: a.cfg.Chart.Redis.Password,
				DB:       a.cfg.Chart.Redis.DB,
			})
		} else {
			respCache = icache.NewTTLCache()
		}
		h.SetCache(respCache, a.cfg.Chart.CacheTTL)
		httpHandler = h
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	)
	a.registerHealth()

	if a.collector != nil {
		go func() {
			if err := a.collector.Run(ctx); err != nil && ctx.Err() == nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("collector started", applogger.Strings("metrics", a.cfg.Feed.Metrics))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	cancel()
	return a.shutdown(l)
}

func (a *App) registerHealth() {
	a.httpServer.Echo().GET("/health", func(c echo.Context) error {
		if a.chClient != nil {
			if err := a.chClient.Health(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// shutdown gracefully stops all services.
func (a *App) shutdown(l *applogger.Logger) error {
	if a.collector != nil {
		if err := a.collector.Stop(); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.Proc != nil {
		if err := a.Proc.Close(); err != nil {
			l.Warn("processor close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
