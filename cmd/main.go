package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/wattcast/internal/adapters/artifacts"
	"github.com/okian/wattcast/internal/adapters/http/api"
	"github.com/okian/wattcast/internal/adapters/http/swagger"
	"github.com/okian/wattcast/internal/adapters/mq/kafka"
	"github.com/okian/wattcast/internal/adapters/session"
	app "github.com/okian/wattcast/internal/app"
	"github.com/okian/wattcast/internal/config"
	"github.com/okian/wattcast/internal/domain/pipeline"
	"github.com/okian/wattcast/pkg/logger"
	"github.com/okian/wattcast/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	kafkaWriteTimeout         = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "wattcast exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitWithFormat(os.Stdout, cfg.LogFormat); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	loggerInstance := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := buildService(ctx, cfg, loggerInstance)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return nil
}

// buildService loads the model artifacts and assembles the service. Missing
// artifacts fail here, before anything listens.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	bundle, err := artifacts.Load(ctx, artifacts.Paths{
		Scaler:    cfg.ScalerPath,
		Projector: cfg.ProjectorPath,
		Regressor: cfg.RegressorPath,
	})
	if err != nil {
		return nil, fmt.Errorf("load model artifacts: %w", err)
	}
	predictor, err := pipeline.New(bundle)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	log.Info(ctx, "model loaded", logger.String("pipeline", predictor.Describe()))

	issuer, err := session.NewIssuer(cfg.SessionSecret, cfg.SessionTTL())
	if err != nil {
		return nil, fmt.Errorf("session issuer: %w", err)
	}
	if cfg.SessionSecret == "" {
		log.Warn(ctx, "session_secret not set; sessions will not survive a restart")
	}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithPredictor(predictor),
		app.WithSessionIssuer(issuer),
		app.WithVoltage(cfg.Voltage),
		app.WithLegacyVoltage(cfg.LegacyVoltage),
		app.WithPrecision(cfg.PredictionPrecision),
		app.WithHistoryShards(cfg.HistoryShards),
		app.WithSeedUsers(cfg.SeedUsers),
		app.WithBcryptCost(cfg.BcryptCost),
	}

	if cfg.PublishingEnabled() {
		sink, err := kafka.NewSink(kafka.Config{
			Brokers:      kafka.ParseBrokers(cfg.KafkaBrokers),
			Topic:        cfg.KafkaTopic,
			WriteTimeout: kafkaWriteTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("kafka sink: %w", err)
		}
		opts = append(opts,
			app.WithEventSink(sink),
			app.WithPublishQueueSize(cfg.KafkaQueueSize),
			app.WithPublishWorkers(cfg.KafkaWorkers),
		)
		log.Info(ctx, "publishing prediction events", logger.String("topic", sink.Topic()))
	}

	return app.New(opts...), nil
}

// newRouter registers the docs and business routes.
func newRouter(ctx context.Context, svc *app.Service) http.Handler {
	r := chi.NewRouter()
	swagger.Register(ctx, r)
	api.NewServer(svc, svc).Register(ctx, r)
	return r
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
