package run

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/openfga/xstream/cmd"
	"github.com/openfga/xstream/cmd/util"
	"github.com/openfga/xstream/internal/config"
	"github.com/openfga/xstream/pkg/logger"
)

func prepareCommands(t *testing.T) {
	t.Helper()
	t.Cleanup(viper.Reset)

	root := cmd.NewRootCommand()
	root.AddCommand(NewRunCommand())
}

func testConfig() *config.Config {
	cfg := config.MustDefaultConfig()
	cfg.Metrics.Enabled = false
	cfg.Runtime.Devices = 2
	cfg.Runtime.QueueSize = 64
	cfg.Backoff.SpinCycles = 50
	cfg.Backoff.YieldCycles = 1000
	cfg.Backoff.SleepInterval = 50 * time.Microsecond
	cfg.Backoff.MaxSleepInterval = time.Millisecond
	cfg.Workload.Streams = 3
	cfg.Workload.Iterations = 10
	cfg.Workload.Length = 64
	return cfg
}

func TestReadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		util.PrepareTempConfigDir(t)
		prepareCommands(t)

		cfg, err := ReadConfig()
		require.NoError(t, err)
		if diff := cmp.Diff(config.DefaultConfig(), cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("from_file", func(t *testing.T) {
		util.PrepareTempConfigFile(t, `runtime:
  devices: 2
  queueSize: 64
log:
  level: debug
workload:
  streams: 3
  alpha: 0.25
`)
		prepareCommands(t)

		cfg, err := ReadConfig()
		require.NoError(t, err)
		require.Equal(t, 2, cfg.Runtime.Devices)
		require.Equal(t, 64, cfg.Runtime.QueueSize)
		require.Equal(t, "debug", cfg.LogLevel())
		require.Equal(t, 3, cfg.Workload.Streams)
		require.InDelta(t, 0.25, cfg.Workload.Alpha, 0)
		require.Equal(t, config.DefaultWorkers, cfg.Runtime.Workers)
	})

	t.Run("from_env", func(t *testing.T) {
		util.PrepareTempConfigDir(t)
		t.Setenv("XSTREAM_WORKLOAD_ITERATIONS", "7")
		t.Setenv("XSTREAM_BACKOFF_SLEEP_INTERVAL", "5ms")
		prepareCommands(t)

		cfg, err := ReadConfig()
		require.NoError(t, err)
		require.Equal(t, 7, cfg.Workload.Iterations)
		require.Equal(t, 5*time.Millisecond, cfg.Backoff.SleepInterval)
	})
}

func TestRunWorkload(t *testing.T) {
	tests := []struct {
		name    string
		devices int
	}{
		{"devices", 2},
		{"host_only", 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Runtime.Devices = test.devices
			require.NoError(t, cfg.Verify())

			l, logs := logger.NewObserverLogger("info")
			summary, err := (&RunContext{Logger: l}).Run(context.Background(), cfg)
			require.NoError(t, err)

			require.Len(t, summary.Results, 3)
			require.Equal(t, 33, summary.Kernels)
			for _, r := range summary.Results {
				require.Positive(t, r)
			}
			require.Equal(t, 1, logs.FilterMessage("workload finished").Len())
			require.Zero(t, logs.FilterMessage("workload failed").Len())
		})
	}
}

func TestRunCanceled(t *testing.T) {
	cfg := testConfig()
	cfg.Workload.Iterations = 1_000_000

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&RunContext{Logger: logger.NewNoopLogger()}).Run(ctx, cfg)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunCommand(t *testing.T) {
	t.Run("succeeds", func(t *testing.T) {
		util.PrepareTempConfigDir(t)
		t.Cleanup(viper.Reset)

		root := cmd.NewRootCommand()
		root.AddCommand(NewRunCommand())
		root.SetArgs([]string{
			"run",
			"--metrics-enabled=false",
			"--log-level=none",
			"--devices=1",
			"--queue-size=64",
			"--backoff-yield-cycles=1000",
			"--backoff-sleep-interval=100us",
			"--backoff-max-sleep-interval=1ms",
			"--workload-iterations=3",
			"--workload-length=16",
		})
		require.NoError(t, root.Execute())
	})

	t.Run("rejects_invalid_config", func(t *testing.T) {
		util.PrepareTempConfigDir(t)
		t.Cleanup(viper.Reset)

		root := cmd.NewRootCommand()
		root.AddCommand(NewRunCommand())
		root.SetArgs([]string{"run", "--metrics-enabled=false", "--queue-size=100"})
		root.SilenceErrors = true
		require.ErrorContains(t, root.Execute(), "config 'runtime.queueSize' must be a power of two, got 100")
	})
}
