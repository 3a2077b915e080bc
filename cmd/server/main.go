package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/sentinel/internal/application"
	"github.com/turtacn/sentinel/internal/config"
	"github.com/turtacn/sentinel/internal/domain/service"
	"github.com/turtacn/sentinel/internal/infrastructure/alerting"
	"github.com/turtacn/sentinel/internal/infrastructure/monitoring"
	"github.com/turtacn/sentinel/internal/infrastructure/persistence/memory"
	"github.com/turtacn/sentinel/internal/infrastructure/policy"
	"github.com/turtacn/sentinel/internal/infrastructure/ratelimit"
	grpcserver "github.com/turtacn/sentinel/internal/interfaces/grpc"
	"github.com/turtacn/sentinel/internal/interfaces/http"
	"github.com/turtacn/sentinel/internal/interfaces/http/handlers"
	"github.com/turtacn/sentinel/pkg/logger"
)

func main() {
	var configFile string

	cmd := &cobra.Command{
		Use:           "sentinel-server",
		Short:         "Run the Sentinel behavioral anomaly detection service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, configFile)
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to config.yaml (default: /etc/sentinel/config.yaml or ./config.yaml)")

	if err := cmd.Execute(); err != nil {
		log.Fatalf("sentinel-server: %v", err)
	}
}

func run(ctx context.Context, configFile string) error {
	// Logger for startup
	startupLogger, err := monitoring.NewZapLogger(&config.LogConfig{Level: "info"})
	if err != nil {
		return fmt.Errorf("failed to create startup logger: %w", err)
	}

	loader := config.NewLoader(configFile, startupLogger)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync() //nolint:errcheck

	// 配置热更新仅作用于日志级别
	loader.Watch(func(updated *config.Config) {
		appLogger.SetLevel(updated.Log.Level)
		appLogger.Info(context.Background(), "Log level reloaded", logger.String("level", appLogger.Level()))
	})

	tracing, err := monitoring.NewTracingManager(cfg.Tracing, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(registry)
	domainMetrics := monitoring.NewMetricsAdapter(metrics)

	thresholds, err := policy.ResolveThresholds(cfg.Detector.ThresholdsFile, cfg.Detector.Thresholds)
	if err != nil {
		return err
	}
	matcher, err := service.NewPatternMatcher(thresholds)
	if err != nil {
		return err
	}

	var publisher service.AlertPublisher
	if cfg.Kafka.Enabled {
		publisher = alerting.NewKafkaPublisher(cfg.Kafka, domainMetrics, appLogger)
	} else {
		publisher = alerting.NewNoopPublisher(appLogger)
	}
	defer publisher.Close() //nolint:errcheck

	detector, err := application.NewAnomalyDetector(
		application.DetectorConfig{
			MaxProfiles:     cfg.Detector.MaxProfiles,
			StalenessWindow: cfg.Detector.StalenessWindow,
		},
		memory.NewProfileStore(cfg.Detector.Shards),
		matcher,
		service.NewScoringEngine(),
		publisher,
		domainMetrics,
		tracing.Tracer(),
		appLogger,
	)
	if err != nil {
		return err
	}

	var throttler service.Throttler
	if cfg.Throttle.Enabled {
		throttler = ratelimit.NewClientThrottler(ratelimit.ThrottleConfig{
			RPS:     cfg.Throttle.RPS,
			Burst:   cfg.Throttle.Burst,
			IdleTTL: cfg.Throttle.IdleTTL,
		})
	}

	router := http.NewRouter(cfg, appLogger, tracing.Tracer(), metrics,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		handlers.NewHealthHandler(detector),
		handlers.NewDetectionHandler(detector, throttler, domainMetrics, appLogger),
	)
	janitor := application.NewJanitor(detector, cfg.Detector.JanitorInterval, appLogger)

	appLogger.Info(ctx, "Sentinel starting", logger.Fields{
		"config_file":  loader.ConfigFileUsed(),
		"max_profiles": cfg.Detector.MaxProfiles,
		"kafka":        cfg.Kafka.Enabled,
		"throttle":     cfg.Throttle.Enabled,
	})

	var grpcLis net.Listener
	if cfg.Server.GRPCPort > 0 {
		if grpcLis, err = net.Listen("tcp", cfg.Server.GRPCAddr()); err != nil {
			return fmt.Errorf("failed to listen for gRPC: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(router.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return router.Stop(shutdownCtx)
	})
	g.Go(func() error { return janitor.Run(gctx) })

	if grpcLis != nil {
		health := grpcserver.NewHealthServer(detector, 0, appLogger)
		g.Go(func() error { return health.Serve(gctx, grpcLis) })
	}

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if terr := tracing.Shutdown(shutdownCtx); terr != nil && err == nil {
		err = terr
	}

	if err != nil {
		appLogger.Error(context.Background(), "Sentinel stopped with error", err)
		return err
	}
	appLogger.Info(context.Background(), "Sentinel stopped")
	return nil
}

//Personal.AI order the ending
