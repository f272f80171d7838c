// Command worker is the taskforge composition root: it loads
// service.worker.* configuration, wires whichever backends are enabled
// (Postgres/pgmq, Redis/Sidekiq-wire), registers example jobs, and serves
// liveness/readiness over HTTP until an interrupt or SIGTERM initiates a
// graceful shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/taskforge/archive"
	"github.com/dmitrymomot/taskforge/job"
	"github.com/dmitrymomot/taskforge/job/pgqueue"
	"github.com/dmitrymomot/taskforge/job/redisqueue"
	"github.com/dmitrymomot/taskforge/pkg/config"
	"github.com/dmitrymomot/taskforge/pkg/db"
	"github.com/dmitrymomot/taskforge/pkg/health"
	"github.com/dmitrymomot/taskforge/pkg/logger"
	pkgredis "github.com/dmitrymomot/taskforge/pkg/redis"
	"github.com/dmitrymomot/taskforge/processor"
)

func main() {
	configPath := flag.String("config", "./taskforge.yaml", "path to the worker configuration file")
	httpAddr := flag.String("http-addr", ":8080", "liveness/readiness/metrics listen address")
	flag.Parse()

	log := logger.NewWithSentry(logger.SentryConfig{
		DSN:         os.Getenv("SENTRY_DSN"),
		Environment: envOr("SENTRY_ENVIRONMENT", "production"),
	})

	if err := run(*configPath, *httpAddr, log); err != nil {
		log.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath, httpAddr string, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := processor.NewMetrics(registry)

	checks := health.Checks{}
	var services []*processor.Service
	var closers []func(context.Context) error
	var archiveBuffer *archive.Buffer

	archiveCfg := archiveConfigFromEnv()
	if archiveCfg.Enabled {
		exporter, err := archive.NewS3Exporter(ctx, archiveCfg, log)
		if err != nil {
			return fmt.Errorf("init s3 archive exporter: %w", err)
		}
		archiveBuffer = archive.NewBuffer(exporter, archive.WithBufferLogger(log))
	}

	if cfg.Service.Worker.PG.Enable {
		svc, check, closer, err := setupPostgres(ctx, cfg, metrics, archiveBuffer, log)
		if err != nil {
			return fmt.Errorf("setup postgres backend: %w", err)
		}
		services = append(services, svc)
		checks["pgqueue"] = check
		closers = append(closers, closer)
	}

	if cfg.Service.Worker.Redis.Enable {
		svc, check, closer, err := setupRedis(ctx, cfg, metrics, archiveBuffer, log)
		if err != nil {
			return fmt.Errorf("setup redis backend: %w", err)
		}
		services = append(services, svc)
		checks["redisqueue"] = check
		closers = append(closers, closer)
	}

	if len(services) == 0 {
		return fmt.Errorf("no backend enabled: set service.worker.pg.enable or service.worker.redis.enable")
	}

	mux := http.NewServeMux()
	mux.Handle("/livez", health.LivenessHandler())
	mux.Handle("/readyz", health.ReadinessHandler(checks, health.WithLogger(log)))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("worker: http server listening", "addr", httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	if archiveBuffer != nil {
		g.Go(func() error { return archiveBuffer.Run(gctx) })
	}
	for _, svc := range services {
		g.Go(func() error { return svc.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, closer := range closers {
		if closeErr := closer(shutdownCtx); closeErr != nil {
			log.Error("worker: error closing backend connection", "error", closeErr)
		}
	}

	return err
}

func setupPostgres(ctx context.Context, cfg *config.Config, metrics *processor.Metrics, archiveBuffer *archive.Buffer, log *slog.Logger) (*processor.Service, func(context.Context) error, func(context.Context) error, error) {
	pool, err := db.Open(ctx, cfg.Database.URI, db.WithLogger(log))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pgqueue.Migrate(ctx, pool, log); err != nil {
		return nil, nil, nil, fmt.Errorf("migrate pgqueue: %w", err)
	}

	backend, err := pgqueue.New(pool, pgqueue.WithLogger(log))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init pgqueue backend: %w", err)
	}

	procCfg, err := config.ToProcessorConfig(cfg.Service.Worker.PG, cfg.Service.Worker.Periodic, cfg.Service.Worker.EnqueueConfig, cfg.Service.Worker.WorkerConfig)
	if err != nil {
		return nil, nil, nil, err
	}
	procCfg.Logger = log

	builder := job.NewBuilder()
	builder.Config = procCfg
	if err := registerExampleWorkers(builder, log); err != nil {
		return nil, nil, nil, err
	}

	var schedOpts []processor.SchedulerOption
	if archiveBuffer != nil {
		schedOpts = append(schedOpts, processor.WithArchiver(archiveBuffer))
	}
	svc, err := processor.NewService(backend, backend, builder, metrics, schedOpts...)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := svc.BeforeRun(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("pgqueue before-run: %w", err)
	}
	return svc, svc.Healthcheck(pgqueue.Healthcheck(backend)), db.Shutdown(pool), nil
}

func setupRedis(ctx context.Context, cfg *config.Config, metrics *processor.Metrics, archiveBuffer *archive.Buffer, log *slog.Logger) (*processor.Service, func(context.Context) error, func(context.Context) error, error) {
	client, err := pkgredis.Open(ctx, cfg.Service.Worker.Redis.URI,
		pkgredis.WithPoolSize(cfg.Service.Worker.Redis.FetchPool.MaxConnections),
		pkgredis.WithMinIdleConns(cfg.Service.Worker.Redis.FetchPool.MinIdle),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	backend, err := redisqueue.New(client, redisqueue.WithLogger(log))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init redisqueue backend: %w", err)
	}

	procCfg, err := config.ToProcessorConfig(cfg.Service.Worker.Redis.BackendWorkerConfig, cfg.Service.Worker.Periodic, cfg.Service.Worker.EnqueueConfig, cfg.Service.Worker.WorkerConfig)
	if err != nil {
		return nil, nil, nil, err
	}
	procCfg.Logger = log

	builder := job.NewBuilder()
	builder.Config = procCfg
	if err := registerExampleWorkers(builder, log); err != nil {
		return nil, nil, nil, err
	}

	var schedOpts []processor.SchedulerOption
	if archiveBuffer != nil {
		schedOpts = append(schedOpts, processor.WithArchiver(archiveBuffer))
	}
	svc, err := processor.NewService(backend, backend, builder, metrics, schedOpts...)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := svc.BeforeRun(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("redisqueue before-run: %w", err)
	}
	return svc, svc.Healthcheck(redisqueue.Healthcheck(backend)), pkgredis.Shutdown(client), nil
}

// registerExampleWorkers registers the demonstration job handlers.
// Replace with real worker registrations for a production deployment.
func registerExampleWorkers(b *job.Builder, log *slog.Logger) error {
	if err := job.RegisterPeriodicWorker(b, heartbeatWorker{logger: log}, nil, "", nil); err != nil {
		return err
	}
	if err := job.RegisterWorker[sendEmailArgs](b, sendEmailWorker{logger: log}, "", nil); err != nil {
		return err
	}
	if err := job.RegisterWorker[processDataArgs](b, processDataWorker{logger: log}, "", nil); err != nil {
		return err
	}
	return nil
}

func archiveConfigFromEnv() archive.S3Config {
	return archive.S3Config{
		Enabled:         os.Getenv("ARCHIVE_S3_BUCKET") != "",
		Bucket:          os.Getenv("ARCHIVE_S3_BUCKET"),
		Region:          envOr("ARCHIVE_S3_REGION", "us-east-1"),
		Endpoint:        os.Getenv("ARCHIVE_S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("ARCHIVE_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("ARCHIVE_S3_SECRET_ACCESS_KEY"),
		KeyPrefix:       os.Getenv("ARCHIVE_S3_KEY_PREFIX"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
