package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wikibird2024/intergrate-fall/internal/adapters/http/api"
	"github.com/wikibird2024/intergrate-fall/internal/adapters/http/site"
	"github.com/wikibird2024/intergrate-fall/internal/adapters/http/swagger"
	"github.com/wikibird2024/intergrate-fall/internal/adapters/mq/ingest"
	"github.com/wikibird2024/intergrate-fall/internal/adapters/notify"
	"github.com/wikibird2024/intergrate-fall/internal/adapters/repository"
	service "github.com/wikibird2024/intergrate-fall/internal/app"
	"github.com/wikibird2024/intergrate-fall/internal/config"
	"github.com/wikibird2024/intergrate-fall/internal/domain/posture"
	"github.com/wikibird2024/intergrate-fall/internal/domain/track"
	"github.com/wikibird2024/intergrate-fall/pkg/logger"
	"github.com/wikibird2024/intergrate-fall/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics;
	// we collect our own custom system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Open the event store. An empty db_path selects the in-memory store.
	store, err := openStore(ctx, cfg, loggerInstance)
	if err != nil {
		os.Stderr.WriteString("failed to open event store: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			loggerInstance.Error(ctx, "event store close failed", logger.Error(err))
		}
	}()

	// Build configured alert channels.
	channels, err := buildChannels(ctx, cfg, loggerInstance)
	if err != nil {
		os.Stderr.WriteString("failed to set up alert channels: " + err.Error() + "\n")
		return
	}

	// Create and start the service with configuration options
	svc := service.New(store,
		service.WithLogger(loggerInstance),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithChannels(channels...),
		service.WithClassifierOptions(
			posture.WithConfidenceFloor(cfg.KeypointConfidenceFloor),
			posture.WithMinKeypoints(cfg.MinKeypoints),
			posture.WithFlatAspectRatio(cfg.FlatAspectRatio),
			posture.WithDropVelocity(cfg.DropVelocity),
		),
		service.WithMachineOptions(
			track.WithDwell(time.Duration(cfg.DwellMS)*time.Millisecond),
			track.WithCooldown(time.Duration(cfg.CooldownS)*time.Second),
			track.WithHistoryMax(cfg.HistorySize),
		),
		service.WithSilenceTimeout(time.Duration(cfg.SilenceTimeoutS)*time.Second),
		service.WithSweepInterval(time.Duration(cfg.SweepIntervalS)*time.Second),
		service.WithChannelTimeout(time.Duration(cfg.ChannelTimeoutMS)*time.Millisecond),
		service.WithDeviceCooldown(time.Duration(cfg.DeviceCooldownMin)*time.Minute),
		service.WithMaxEventsLimit(cfg.MaxEventsLimit),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Subscribe to wearable device reports when MQTT is enabled.
	var deviceSource *ingest.MQTTSource
	if cfg.MQTTEnabled {
		deviceSource = ingest.NewMQTTSource(cfg.MQTTBroker, cfg.MQTTClientID+"-ingest", svc,
			ingest.WithTopic(cfg.MQTTDeviceTopic),
			ingest.WithQOS(byte(cfg.MQTTQOS)),
			ingest.WithCredentials(cfg.MQTTUsername, cfg.MQTTPassword),
		)
		if err := deviceSource.Start(ctx); err != nil {
			loggerInstance.Error(ctx, "device ingest start failed", logger.Error(err))
		} else {
			defer deviceSource.Close()
		}
	}

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register the monitoring page at / and API docs under /api-docs
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, cfg.MaxEventsLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// openStore selects between the SQLite and in-memory event stores.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.EventStore, error) {
	if cfg.DBPath == "" {
		log.Info(ctx, "using in-memory event store")
		return repository.NewMemoryStore(), nil
	}
	log.Info(ctx, "opening SQLite event store", logger.String("path", cfg.DBPath))
	return repository.NewSQLiteStore(ctx, cfg.DBPath)
}

// buildChannels constructs the alert channels enabled in configuration.
func buildChannels(ctx context.Context, cfg *config.Config, log logger.Logger) ([]notify.Channel, error) {
	var channels []notify.Channel

	if cfg.MQTTEnabled {
		ch := notify.NewMQTTChannel(cfg.MQTTBroker, cfg.MQTTClientID,
			notify.WithMQTTTopic(cfg.MQTTTopic),
			notify.WithMQTTQOS(byte(cfg.MQTTQOS)),
			notify.WithMQTTCredentials(cfg.MQTTUsername, cfg.MQTTPassword),
		)
		if err := ch.Connect(ctx); err != nil {
			// The channel retries in the background; alerts fail until then.
			log.Warn(ctx, "mqtt broker not reachable yet", logger.Error(err))
		}
		channels = append(channels, ch)
	}

	if cfg.TelegramEnabled {
		ch, err := notify.NewTelegramChannel(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}

	if len(channels) == 0 {
		log.Warn(ctx, "no alert channels configured; events are stored only")
	}

	return channels, nil
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

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.GetStats()
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
