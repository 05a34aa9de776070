// Package run contains the command that runs the xstream pipeline workload.
package run

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/openfga/xstream/internal/build"
	"github.com/openfga/xstream/internal/config"
	"github.com/openfga/xstream/pkg/device/host"
	"github.com/openfga/xstream/pkg/kernel/blas"
	"github.com/openfga/xstream/pkg/logger"
	"github.com/openfga/xstream/pkg/telemetry"
	"github.com/openfga/xstream/pkg/xstream"
)

func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline workload",
		Long:  "Run the pipeline workload: producer streams fill device vectors with daxpy kernels and a consumer stream reduces them once their event occurred.",
		RunE:  run,
		Args:  cobra.NoArgs,
	}

	bindRunFlags(cmd)

	return cmd
}

// ReadConfig returns the xstream configuration based on the values provided in the 'config.yaml' file.
// The 'config.yaml' file is loaded from '/etc/xstream', '$HOME/.xstream', or the current working directory. If no configuration
// file is present, the default values are returned.
func ReadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()

	viper.SetTypeByDefaultValue(true)
	err := viper.ReadInConfig()
	if err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to load xstream config: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal xstream config: %w", err)
	}

	return cfg, nil
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := ReadConfig()
	if err != nil {
		return err
	}

	if err := cfg.Verify(); err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Log.Format, cfg.LogLevel())
	if err != nil {
		return err
	}

	runCtx := &RunContext{Logger: log}
	_, err = runCtx.Run(cmd.Context(), cfg)
	return err
}

type RunContext struct {
	Logger logger.Logger
}

// telemetryConfig returns the tracer provider of the runtime. It must be closed.
func (s *RunContext) telemetryConfig(cfg *config.Config) telemetry.TracerProvider {
	if !cfg.Trace.Enabled {
		return telemetry.Noop()
	}

	s.Logger.Info(fmt.Sprintf("tracing enabled: sampling ratio is %v and sending traces to '%s', tls: %t", cfg.Trace.SampleRatio, cfg.Trace.OTLP.Endpoint, cfg.Trace.OTLP.TLS.Enabled))

	options := []telemetry.TracerOption{
		telemetry.WithOTLPEndpoint(cfg.Trace.OTLP.Endpoint),
		telemetry.WithServiceName(cfg.Trace.ServiceName),
		telemetry.WithSamplingRatio(cfg.Trace.SampleRatio),
	}
	if !cfg.Trace.OTLP.TLS.Enabled {
		options = append(options, telemetry.WithOTLPInsecure())
	}
	return telemetry.MustNewTracerProvider(options...)
}

// Run builds a runtime from cfg, runs the workload on it and tears everything down.
func (s *RunContext) Run(ctx context.Context, cfg *config.Config) (*Summary, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp := s.telemetryConfig(cfg)
	defer func() {
		// the batch span processor can take up to 5 seconds to flush
		closeCtx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		if err := tp.Close(closeCtx); err != nil {
			s.Logger.Error("failed to shutdown tracing", zap.Error(err))
		}
	}()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}

		go func() {
			s.Logger.Info(fmt.Sprintf("starting prometheus metrics server on '%s'", cfg.Metrics.Addr))
			if err := metricsServer.ListenAndServe(); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					s.Logger.Error("failed to start prometheus metrics server", zap.Error(err))
				}
			}
			s.Logger.Info("metrics server shut down.")
		}()

		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				s.Logger.Info("failed to shutdown the prometheus metrics server", zap.Error(err))
			}
		}()
	}

	backend, err := host.New(
		host.WithDevices(cfg.Runtime.Devices),
		host.WithWorkers(cfg.Runtime.Workers),
		host.WithLogger(s.Logger),
	)
	if err != nil {
		return nil, err
	}

	rt, err := xstream.New(
		xstream.WithLogger(s.Logger),
		xstream.WithBackend(backend),
		xstream.WithBackoff(cfg.BackoffPolicy()),
		xstream.WithQueueSize(cfg.Runtime.QueueSize),
		xstream.WithStreamsPerDevice(cfg.Runtime.StreamsPerDevice),
		xstream.WithPriorityRange(cfg.Runtime.PriorityLeast, cfg.Runtime.PriorityGreatest),
		xstream.WithTracerProvider(tp),
	)
	if err != nil {
		return nil, errors.Join(err, backend.Close())
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			s.Logger.Error("failed to close the runtime", zap.Error(err))
		}
	}()

	if err := blas.Register(rt.Kernels()); err != nil {
		return nil, err
	}

	s.Logger.Info(fmt.Sprintf("running xstream %s on %s", build.Version, backend),
		zap.Int("streams", cfg.Workload.Streams),
		zap.Int("iterations", cfg.Workload.Iterations),
		zap.Int("length", cfg.Workload.Length))

	summary, err := runWorkload(ctx, rt, cfg.Workload)
	if err != nil {
		s.Logger.Error("workload failed", zap.Error(err))
		return nil, err
	}

	s.Logger.Info("workload finished",
		zap.Int("kernels", summary.Kernels),
		zap.Duration("elapsed", summary.Elapsed),
		zap.Float64s("results", summary.Results))
	return summary, nil
}
