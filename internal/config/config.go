// Package config loads BeanQueue's runtime configuration from environment
// variables (and an optional config file), with defaults matching the
// documented option table.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/beanqueue/bq-go/internal/dispatch"
	"github.com/beanqueue/bq-go/internal/workersvc"
)

// Config holds every option a bq process reads at startup.
type Config struct {
	Database DatabaseConfig
	Worker   WorkerConfig
	Models   ModelsConfig
	Metrics  MetricsConfig
	LogLevel string
}

type DatabaseConfig struct {
	URL                string
	ProcessorPackages  []string
}

type WorkerConfig struct {
	BatchSize         int
	PollTimeout       time.Duration
	HeartbeatPeriod   time.Duration
	HeartbeatTimeout  time.Duration
	ShutdownTimeout   time.Duration
}

// ModelsConfig names the pluggable task/worker storage adapters dispatch and
// workersvc operate against (see dispatch.TaskAdapter, workersvc.WorkerAdapter).
// Empty strings, the default, resolve to the bq_tasks/models.Task and
// bq_workers/models.Worker adapters bq ships.
type ModelsConfig struct {
	TaskModel   string
	WorkerModel string
}

// TaskAdapter resolves TaskModel to a dispatch.TaskAdapter. "" and
// "models.Task" both resolve to the shipped bq_tasks adapter; any other
// name is rejected since bq ships only the one implementation.
func (m ModelsConfig) TaskAdapter() (dispatch.TaskAdapter, error) {
	switch m.TaskModel {
	case "", "models.Task":
		return nil, nil
	default:
		return nil, fmt.Errorf("config: unknown task model %q", m.TaskModel)
	}
}

// WorkerAdapter resolves WorkerModel to a workersvc.WorkerAdapter, with the
// same "" / "models.Worker" default as TaskAdapter.
func (m ModelsConfig) WorkerAdapter() (workersvc.WorkerAdapter, error) {
	switch m.WorkerModel {
	case "", "models.Worker":
		return nil, nil
	default:
		return nil, fmt.Errorf("config: unknown worker model %q", m.WorkerModel)
	}
}

type MetricsConfig struct {
	Enabled   bool
	Interface string
	Port      int
}

// Load reads configuration from (in ascending precedence) defaults, an
// optional config file, and environment variables. The documented options
// are read from their unprefixed names (DATABASE_URL, BATCH_SIZE, ...);
// other keys, such as loglevel, are read from BQ_-prefixed names.
func Load() (*Config, error) {
	viper.SetConfigName("bq")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/bq")

	setDefaults()

	viper.SetEnvPrefix("BQ")
	viper.AutomaticEnv()
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.processorpackages", "PROCESSOR_PACKAGES")
	viper.BindEnv("worker.batchsize", "BATCH_SIZE")
	viper.BindEnv("worker.polltimeout", "POLL_TIMEOUT")
	viper.BindEnv("worker.heartbeatperiod", "WORKER_HEARTBEAT_PERIOD")
	viper.BindEnv("worker.heartbeattimeout", "WORKER_HEARTBEAT_TIMEOUT")
	viper.BindEnv("models.taskmodel", "TASK_MODEL")
	viper.BindEnv("models.workermodel", "WORKER_MODEL")
	viper.BindEnv("metrics.enabled", "METRICS_HTTP_SERVER_ENABLED")
	viper.BindEnv("metrics.interface", "METRICS_HTTP_SERVER_INTERFACE")
	viper.BindEnv("metrics.port", "METRICS_HTTP_SERVER_PORT")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.processorpackages", []string{})

	viper.SetDefault("worker.batchsize", 1)
	viper.SetDefault("worker.polltimeout", 60*time.Second)
	viper.SetDefault("worker.heartbeatperiod", 30*time.Second)
	viper.SetDefault("worker.heartbeattimeout", 100*time.Second)
	viper.SetDefault("worker.shutdowntimeout", 30*time.Second)

	viper.SetDefault("models.taskmodel", "")
	viper.SetDefault("models.workermodel", "")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.interface", "0.0.0.0")
	viper.SetDefault("metrics.port", 8080)

	viper.SetDefault("loglevel", "info")
}
