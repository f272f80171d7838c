// Package config loads the service.worker.* configuration surface using
// viper, following the dot-path-with-env-override convention: YAML file
// values are overridable by an equivalent SERVICE_WORKER_... environment
// variable.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dmitrymomot/taskforge/job"
)

// numCPUDefault mirrors the original source's Sidekiq::default_num_workers,
// which sizes the fetcher pool to the host's CPU count rather than a fixed
// constant.
func numCPUDefault() int {
	return runtime.NumCPU()
}

// BackendWorkerConfig is the per-backend (pg or redis) processor
// configuration block under service.worker.{backend}.
type BackendWorkerConfig struct {
	Enable          bool                     `mapstructure:"enable"`
	URI             string                   `mapstructure:"uri"`
	NumWorkers      int                      `mapstructure:"num-workers"`
	Queues          []string                 `mapstructure:"queues"`
	QueueConfig     map[string]QueueOverride `mapstructure:"queue-config"`
	BalanceStrategy string                   `mapstructure:"balance-strategy"`
	PollIntervalMS  int64                    `mapstructure:"poll-interval-ms"`
	ShutdownGraceMS int64                    `mapstructure:"shutdown-grace-ms"`
}

// QueueOverride is a dedicated fetcher pool size for one queue, under
// service.worker.{backend}.queue-config.{Q}.
type QueueOverride struct {
	NumWorkers int `mapstructure:"num-workers"`
}

// RedisPoolConfig splits connection-pool sizing by traffic shape, carried
// from the original source's Redis{uri, enqueue_pool, fetch_pool}: the
// enqueue and fetch paths have different connection-churn profiles.
type RedisPoolConfig struct {
	MinIdle       int `mapstructure:"min-idle"`
	MaxConnections int `mapstructure:"max-connections"`
}

// RedisWorkerConfig extends BackendWorkerConfig with the Redis-specific
// pool split under service.worker.redis.{enqueue,fetch}-pool.
type RedisWorkerConfig struct {
	BackendWorkerConfig `mapstructure:",squash"`
	EnqueuePool         RedisPoolConfig `mapstructure:"enqueue-pool"`
	FetchPool           RedisPoolConfig `mapstructure:"fetch-pool"`
}

// PeriodicServiceConfig holds service.worker.periodic.*.
type PeriodicServiceConfig struct {
	StaleCleanup string `mapstructure:"stale-cleanup"`
}

// EnqueueServiceConfig holds service.worker.enqueue-config.*.
type EnqueueServiceConfig struct {
	Queue string `mapstructure:"queue"`
}

// WorkerDefaultConfig holds service.worker.worker-config.*, the processor-
// wide default overridable per worker at registration time.
type WorkerDefaultConfig struct {
	MaxRetries      uint32 `mapstructure:"max-retries"`
	Timeout         bool   `mapstructure:"timeout"`
	MaxDurationSecs int64  `mapstructure:"max-duration-secs"`
}

// WorkerServiceConfig is the full service.worker.* surface.
type WorkerServiceConfig struct {
	PG            BackendWorkerConfig   `mapstructure:"pg"`
	Redis         RedisWorkerConfig     `mapstructure:"redis"`
	Periodic      PeriodicServiceConfig `mapstructure:"periodic"`
	EnqueueConfig EnqueueServiceConfig  `mapstructure:"enqueue-config"`
	WorkerConfig  WorkerDefaultConfig   `mapstructure:"worker-config"`
}

// Config is the top-level configuration document.
type Config struct {
	Database struct {
		URI string `mapstructure:"uri"`
	} `mapstructure:"database"`
	Service struct {
		Worker WorkerServiceConfig `mapstructure:"worker"`
	} `mapstructure:"service"`
}

func defaultConfig() *Config {
	var cfg Config
	cfg.Service.Worker.PG = BackendWorkerConfig{
		Enable:          true,
		NumWorkers:      10,
		BalanceStrategy: "round-robin",
		PollIntervalMS:  250,
		ShutdownGraceMS: 30_000,
	}
	redisWorkers := numCPUDefault()
	fetchPoolSize := redisWorkers + 2 // headroom above NumWorkers so the fail-fast check in Validate never trips on defaults
	cfg.Service.Worker.Redis = RedisWorkerConfig{
		BackendWorkerConfig: BackendWorkerConfig{
			Enable:          false,
			NumWorkers:      redisWorkers,
			BalanceStrategy: "round-robin",
			PollIntervalMS:  250,
			ShutdownGraceMS: 30_000,
		},
		EnqueuePool: RedisPoolConfig{MinIdle: 5, MaxConnections: 10},
		FetchPool:   RedisPoolConfig{MinIdle: 5, MaxConnections: fetchPoolSize},
	}
	cfg.Service.Worker.Periodic.StaleCleanup = "auto-clean-stale"
	cfg.Service.Worker.EnqueueConfig.Queue = "default"
	cfg.Service.Worker.WorkerConfig = WorkerDefaultConfig{
		MaxRetries:      job.DefaultMaxRetries,
		Timeout:         job.DefaultTimeout,
		MaxDurationSecs: int64(job.DefaultMaxDuration.Seconds()),
	}
	return &cfg
}

// Load reads configuration from an optional YAML file at path, applying
// env-var overrides (SERVICE_WORKER_PG_NUM_WORKERS overrides
// service.worker.pg.num-workers, and so on) and package defaults for any
// key left unset by both.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	def := defaultConfig()
	setDefaults(v, "database.uri", def.Database.URI)
	setBackendDefaults(v, "service.worker.pg", def.Service.Worker.PG)
	setBackendDefaults(v, "service.worker.redis", def.Service.Worker.Redis.BackendWorkerConfig)
	setDefaults(v, "service.worker.redis.enqueue-pool.min-idle", def.Service.Worker.Redis.EnqueuePool.MinIdle)
	setDefaults(v, "service.worker.redis.enqueue-pool.max-connections", def.Service.Worker.Redis.EnqueuePool.MaxConnections)
	setDefaults(v, "service.worker.redis.fetch-pool.min-idle", def.Service.Worker.Redis.FetchPool.MinIdle)
	setDefaults(v, "service.worker.redis.fetch-pool.max-connections", def.Service.Worker.Redis.FetchPool.MaxConnections)
	setDefaults(v, "service.worker.periodic.stale-cleanup", def.Service.Worker.Periodic.StaleCleanup)
	setDefaults(v, "service.worker.enqueue-config.queue", def.Service.Worker.EnqueueConfig.Queue)
	setDefaults(v, "service.worker.worker-config.max-retries", def.Service.Worker.WorkerConfig.MaxRetries)
	setDefaults(v, "service.worker.worker-config.timeout", def.Service.Worker.WorkerConfig.Timeout)
	setDefaults(v, "service.worker.worker-config.max-duration-secs", def.Service.Worker.WorkerConfig.MaxDurationSecs)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, key string, value any) {
	v.SetDefault(key, value)
}

func setBackendDefaults(v *viper.Viper, prefix string, b BackendWorkerConfig) {
	v.SetDefault(prefix+".enable", b.Enable)
	v.SetDefault(prefix+".num-workers", b.NumWorkers)
	v.SetDefault(prefix+".balance-strategy", b.BalanceStrategy)
	v.SetDefault(prefix+".poll-interval-ms", b.PollIntervalMS)
	v.SetDefault(prefix+".shutdown-grace-ms", b.ShutdownGraceMS)
}

// Validate checks cross-field constraints viper's tag-based binding can't
// express on its own.
func Validate(cfg *Config) error {
	if cfg.Service.Worker.PG.Enable && cfg.Service.Worker.PG.NumWorkers < 1 {
		return fmt.Errorf("config: service.worker.pg.num-workers must be >= 1")
	}
	if cfg.Service.Worker.Redis.Enable && cfg.Service.Worker.Redis.NumWorkers < 1 {
		return fmt.Errorf("config: service.worker.redis.num-workers must be >= 1")
	}
	if !cfg.Service.Worker.PG.Enable && !cfg.Service.Worker.Redis.Enable {
		return fmt.Errorf("config: at least one of service.worker.pg.enable or service.worker.redis.enable must be true")
	}
	if cfg.Service.Worker.Redis.Enable && cfg.Service.Worker.Redis.NumWorkers > cfg.Service.Worker.Redis.FetchPool.MaxConnections {
		return fmt.Errorf("%w: service.worker.redis.num-workers (%d) exceeds service.worker.redis.fetch-pool.max-connections (%d)",
			job.ErrPoolTooSmall, cfg.Service.Worker.Redis.NumWorkers, cfg.Service.Worker.Redis.FetchPool.MaxConnections)
	}
	switch cfg.Service.Worker.Periodic.StaleCleanup {
	case "manual", "auto-clean-all", "auto-clean-stale", "":
	default:
		return fmt.Errorf("config: service.worker.periodic.stale-cleanup %q is not one of manual|auto-clean-all|auto-clean-stale", cfg.Service.Worker.Periodic.StaleCleanup)
	}
	return nil
}

// ToProcessorConfig translates a backend's dot-path configuration block
// into the job.ProcessorConfig the Builder and processor.Service consume.
func ToProcessorConfig(b BackendWorkerConfig, periodic PeriodicServiceConfig, enqueue EnqueueServiceConfig, worker WorkerDefaultConfig) (job.ProcessorConfig, error) {
	cleanup, err := job.ParseStaleCleanupPolicy(periodic.StaleCleanup)
	if err != nil {
		return job.ProcessorConfig{}, err
	}

	cfg := job.DefaultProcessorConfig()
	cfg.NumWorkers = b.NumWorkers
	cfg.BalanceStrategy = b.BalanceStrategy
	cfg.PollInterval = b.PollIntervalMS
	cfg.ShutdownGraceMS = b.ShutdownGraceMS
	cfg.StaleCleanup = cleanup
	cfg.DefaultQueue = enqueue.Queue
	cfg.DefaultWorkerConf = job.WorkerConfig{
		MaxRetries:  worker.MaxRetries,
		Timeout:     worker.Timeout,
		MaxDuration: time.Duration(worker.MaxDurationSecs) * time.Second,
	}

	queues := make([]job.QueueDescriptor, 0, len(b.Queues))
	for _, name := range b.Queues {
		qd := job.QueueDescriptor{Name: name}
		if override, ok := b.QueueConfig[name]; ok {
			qd.NumWorkers = override.NumWorkers
		}
		queues = append(queues, qd)
	}
	cfg.Queues = queues
	return cfg, nil
}
