// Package config contains all the configuration of the xstream binary.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/openfga/xstream/internal/backoff"
	"github.com/openfga/xstream/internal/bitutil"
	"github.com/openfga/xstream/internal/workqueue"
	"github.com/openfga/xstream/pkg/logger"
	"github.com/openfga/xstream/pkg/xstream"
)

const (
	DefaultDevices          = 1
	DefaultWorkers          = 4
	DefaultQueueSize        = workqueue.DefaultCapacity
	DefaultStreamsPerDevice = xstream.DefaultStreamsPerDevice
	DefaultVerbosity        = 1

	DefaultSpinCycles       = backoff.DefaultSpinCycles
	DefaultYieldCycles      = backoff.DefaultYieldCycles
	DefaultSleepInterval    = backoff.DefaultSleepInterval
	DefaultMaxSleepInterval = backoff.DefaultMaxSleepInterval

	DefaultWorkloadStreams    = 2
	DefaultWorkloadIterations = 100
	DefaultWorkloadLength     = 1024
	DefaultWorkloadAlpha      = 0.5
)

type RuntimeConfig struct {
	// Devices is the number of simulated host devices (0 runs everything on the host).
	Devices int
	// Workers bounds the goroutines executing device work.
	Workers int
	// QueueSize is the ring capacity of every work queue, a power of two.
	QueueSize        int
	StreamsPerDevice int
	PriorityLeast    int
	PriorityGreatest int

	// Verbosity selects the log level when 'log.level' is empty: 0 errors,
	// 1 warnings, anything else everything.
	Verbosity int
}

type BackoffConfig struct {
	SpinCycles       uint64
	YieldCycles      uint64
	SleepInterval    time.Duration
	MaxSleepInterval time.Duration
}

type LogConfig struct {
	// Format is the log format to use in the log output (e.g. 'text' or 'json')
	Format string

	// Level is the log level to use in the log output (e.g. 'none', 'debug', or 'info').
	// Empty derives the level from 'runtime.verbosity'.
	Level string
}

type TraceConfig struct {
	Enabled     bool
	OTLP        OTLPTraceConfig `mapstructure:"otlp"`
	SampleRatio float64
	ServiceName string
}

type OTLPTraceConfig struct {
	Endpoint string
	TLS      OTLPTraceTLSConfig
}

type OTLPTraceTLSConfig struct {
	Enabled bool
}

type MetricConfig struct {
	Enabled bool
	Addr    string
}

// WorkloadConfig sizes the pipeline run by 'xstream run'.
type WorkloadConfig struct {
	// Streams is the number of producer streams. One more stream consumes their results.
	Streams    int
	Iterations int
	// Length is the number of float64 elements per vector.
	Length int
	Alpha  float64
}

type Config struct {
	Runtime  RuntimeConfig
	Backoff  BackoffConfig
	Log      LogConfig
	Trace    TraceConfig
	Metrics  MetricConfig
	Workload WorkloadConfig
}

// Verify returns an error describing the first invalid setting of cfg.
func (cfg *Config) Verify() error {
	if cfg.Runtime.Devices < 0 || cfg.Runtime.Devices > xstream.MaxDevices {
		return fmt.Errorf("config 'runtime.devices' must be between 0 and %d, got %d", xstream.MaxDevices, cfg.Runtime.Devices)
	}

	if cfg.Runtime.Workers < 1 {
		return fmt.Errorf("config 'runtime.workers' must be positive, got %d", cfg.Runtime.Workers)
	}

	if !bitutil.PowerOfTwo(cfg.Runtime.QueueSize) {
		return fmt.Errorf("config 'runtime.queueSize' must be a power of two, got %d", cfg.Runtime.QueueSize)
	}

	if cfg.Runtime.StreamsPerDevice < 1 {
		return fmt.Errorf("config 'runtime.streamsPerDevice' must be positive, got %d", cfg.Runtime.StreamsPerDevice)
	}

	if cfg.Runtime.PriorityGreatest > cfg.Runtime.PriorityLeast {
		return fmt.Errorf(
			"config 'runtime.priorityGreatest' (%d) cannot be higher than 'runtime.priorityLeast' (%d)",
			cfg.Runtime.PriorityGreatest,
			cfg.Runtime.PriorityLeast,
		)
	}

	if cfg.Backoff.SleepInterval <= 0 {
		return errors.New("config 'backoff.sleepInterval' must be positive")
	}

	if cfg.Backoff.MaxSleepInterval < cfg.Backoff.SleepInterval {
		return fmt.Errorf(
			"config 'backoff.maxSleepInterval' (%s) cannot be lower than 'backoff.sleepInterval' (%s)",
			cfg.Backoff.MaxSleepInterval,
			cfg.Backoff.SleepInterval,
		)
	}

	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("config 'log.format' must be one of ['text', 'json']")
	}

	switch cfg.Log.Level {
	case "", "none", "debug", "info", "warn", "error", "panic", "fatal":
	default:
		return fmt.Errorf(
			"config 'log.level' must be one of ['none', 'debug', 'info', 'warn', 'error', 'panic', 'fatal']",
		)
	}

	if cfg.Trace.Enabled {
		if cfg.Trace.OTLP.Endpoint == "" {
			return errors.New("config 'trace.otlp.endpoint' is required when tracing is enabled")
		}
		if cfg.Trace.SampleRatio < 0 || cfg.Trace.SampleRatio > 1 {
			return fmt.Errorf("config 'trace.sampleRatio' must be between 0 and 1, got %v", cfg.Trace.SampleRatio)
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return errors.New("config 'metrics.addr' is required when metrics are enabled")
	}

	if cfg.Workload.Streams < 1 {
		return fmt.Errorf("config 'workload.streams' must be positive, got %d", cfg.Workload.Streams)
	}

	if limit := xstream.MaxDevices*cfg.Runtime.StreamsPerDevice - 1; cfg.Workload.Streams > limit {
		return fmt.Errorf("config 'workload.streams' cannot exceed %d, got %d", limit, cfg.Workload.Streams)
	}

	if cfg.Workload.Iterations < 1 {
		return fmt.Errorf("config 'workload.iterations' must be positive, got %d", cfg.Workload.Iterations)
	}

	if cfg.Workload.Length < 1 {
		return fmt.Errorf("config 'workload.length' must be positive, got %d", cfg.Workload.Length)
	}

	return nil
}

// LogLevel is the configured log level, or the level derived from the verbosity.
func (cfg *Config) LogLevel() string {
	if cfg.Log.Level != "" {
		return cfg.Log.Level
	}
	return logger.LevelForVerbosity(cfg.Runtime.Verbosity)
}

// BackoffPolicy returns the wait policy described by cfg.
func (cfg *Config) BackoffPolicy() *backoff.Tiered {
	return &backoff.Tiered{
		SpinCycles:       cfg.Backoff.SpinCycles,
		YieldCycles:      cfg.Backoff.YieldCycles,
		SleepInterval:    cfg.Backoff.SleepInterval,
		MaxSleepInterval: cfg.Backoff.MaxSleepInterval,
	}
}

// DefaultConfig is the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Devices:          DefaultDevices,
			Workers:          DefaultWorkers,
			QueueSize:        DefaultQueueSize,
			StreamsPerDevice: DefaultStreamsPerDevice,
			Verbosity:        DefaultVerbosity,
		},
		Backoff: BackoffConfig{
			SpinCycles:       DefaultSpinCycles,
			YieldCycles:      DefaultYieldCycles,
			SleepInterval:    DefaultSleepInterval,
			MaxSleepInterval: DefaultMaxSleepInterval,
		},
		Log: LogConfig{
			Format: "text",
		},
		Trace: TraceConfig{
			Enabled: false,
			OTLP: OTLPTraceConfig{
				Endpoint: "0.0.0.0:4317",
				TLS: OTLPTraceTLSConfig{
					Enabled: false,
				},
			},
			SampleRatio: 0.2,
			ServiceName: "xstream",
		},
		Metrics: MetricConfig{
			Enabled: true,
			Addr:    "0.0.0.0:2112",
		},
		Workload: WorkloadConfig{
			Streams:    DefaultWorkloadStreams,
			Iterations: DefaultWorkloadIterations,
			Length:     DefaultWorkloadLength,
			Alpha:      DefaultWorkloadAlpha,
		},
	}
}

// MustDefaultConfig returns the default configuration and panics if it does
// not verify.
func MustDefaultConfig() *Config {
	config := DefaultConfig()
	if err := config.Verify(); err != nil {
		panic(err)
	}
	return config
}
