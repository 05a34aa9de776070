package run

import (
	"github.com/spf13/cobra"

	"github.com/openfga/xstream/cmd/util"
	"github.com/openfga/xstream/internal/config"
)

// bindRunFlags binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindRunFlags(command *cobra.Command) {
	defaultConfig := config.DefaultConfig()
	flags := command.Flags()

	flags.Int("devices", defaultConfig.Runtime.Devices, "the number of simulated devices (0 runs all work on the host)")
	util.MustBindPFlag("runtime.devices", flags.Lookup("devices"))
	util.MustBindEnv("runtime.devices", "XSTREAM_RUNTIME_DEVICES", "XSTREAM_DEVICES")

	flags.Int("workers", defaultConfig.Runtime.Workers, "the maximum number of goroutines executing device work")
	util.MustBindPFlag("runtime.workers", flags.Lookup("workers"))
	util.MustBindEnv("runtime.workers", "XSTREAM_RUNTIME_WORKERS", "XSTREAM_WORKERS")

	flags.Int("queue-size", defaultConfig.Runtime.QueueSize, "the capacity of every work queue, a power of two")
	util.MustBindPFlag("runtime.queueSize", flags.Lookup("queue-size"))
	util.MustBindEnv("runtime.queueSize", "XSTREAM_RUNTIME_QUEUE_SIZE", "XSTREAM_RUNTIME_QUEUESIZE")

	flags.Int("streams-per-device", defaultConfig.Runtime.StreamsPerDevice, "the number of streams the registry holds per device")
	util.MustBindPFlag("runtime.streamsPerDevice", flags.Lookup("streams-per-device"))
	util.MustBindEnv("runtime.streamsPerDevice", "XSTREAM_RUNTIME_STREAMS_PER_DEVICE", "XSTREAM_RUNTIME_STREAMSPERDEVICE")

	flags.Int("priority-least", defaultConfig.Runtime.PriorityLeast, "the least stream priority")
	util.MustBindPFlag("runtime.priorityLeast", flags.Lookup("priority-least"))
	util.MustBindEnv("runtime.priorityLeast", "XSTREAM_RUNTIME_PRIORITY_LEAST", "XSTREAM_RUNTIME_PRIORITYLEAST")

	flags.Int("priority-greatest", defaultConfig.Runtime.PriorityGreatest, "the greatest stream priority, numerically not above the least one")
	util.MustBindPFlag("runtime.priorityGreatest", flags.Lookup("priority-greatest"))
	util.MustBindEnv("runtime.priorityGreatest", "XSTREAM_RUNTIME_PRIORITY_GREATEST", "XSTREAM_RUNTIME_PRIORITYGREATEST")

	flags.Int("verbosity", defaultConfig.Runtime.Verbosity, "the diagnostic level used when no log level is set: 0 errors, 1 warnings, other values everything")
	util.MustBindPFlag("runtime.verbosity", flags.Lookup("verbosity"))
	util.MustBindEnv("runtime.verbosity", "XSTREAM_RUNTIME_VERBOSITY", "XSTREAM_VERBOSITY")

	flags.Uint64("backoff-spin-cycles", defaultConfig.Backoff.SpinCycles, "the number of busy polls before a wait starts yielding")
	util.MustBindPFlag("backoff.spinCycles", flags.Lookup("backoff-spin-cycles"))
	util.MustBindEnv("backoff.spinCycles", "XSTREAM_BACKOFF_SPIN_CYCLES", "XSTREAM_BACKOFF_SPINCYCLES")

	flags.Uint64("backoff-yield-cycles", defaultConfig.Backoff.YieldCycles, "the number of yielding polls before a wait starts sleeping")
	util.MustBindPFlag("backoff.yieldCycles", flags.Lookup("backoff-yield-cycles"))
	util.MustBindEnv("backoff.yieldCycles", "XSTREAM_BACKOFF_YIELD_CYCLES", "XSTREAM_BACKOFF_YIELDCYCLES")

	flags.Duration("backoff-sleep-interval", defaultConfig.Backoff.SleepInterval, "the first sleep of a wait that stopped yielding")
	util.MustBindPFlag("backoff.sleepInterval", flags.Lookup("backoff-sleep-interval"))
	util.MustBindEnv("backoff.sleepInterval", "XSTREAM_BACKOFF_SLEEP_INTERVAL", "XSTREAM_BACKOFF_SLEEPINTERVAL")

	flags.Duration("backoff-max-sleep-interval", defaultConfig.Backoff.MaxSleepInterval, "the longest sleep of a wait")
	util.MustBindPFlag("backoff.maxSleepInterval", flags.Lookup("backoff-max-sleep-interval"))
	util.MustBindEnv("backoff.maxSleepInterval", "XSTREAM_BACKOFF_MAX_SLEEP_INTERVAL", "XSTREAM_BACKOFF_MAXSLEEPINTERVAL")

	flags.String("log-format", defaultConfig.Log.Format, "the log format to output logs in")
	util.MustBindPFlag("log.format", flags.Lookup("log-format"))
	util.MustBindEnv("log.format", "XSTREAM_LOG_FORMAT")

	flags.String("log-level", defaultConfig.Log.Level, "the log level to use, overriding the verbosity")
	util.MustBindPFlag("log.level", flags.Lookup("log-level"))
	util.MustBindEnv("log.level", "XSTREAM_LOG_LEVEL")

	flags.Bool("trace-enabled", defaultConfig.Trace.Enabled, "enable tracing")
	util.MustBindPFlag("trace.enabled", flags.Lookup("trace-enabled"))
	util.MustBindEnv("trace.enabled", "XSTREAM_TRACE_ENABLED")

	flags.String("trace-otlp-endpoint", defaultConfig.Trace.OTLP.Endpoint, "the endpoint of the trace collector")
	util.MustBindPFlag("trace.otlp.endpoint", flags.Lookup("trace-otlp-endpoint"))
	util.MustBindEnv("trace.otlp.endpoint", "XSTREAM_TRACE_OTLP_ENDPOINT")

	flags.Bool("trace-otlp-tls-enabled", defaultConfig.Trace.OTLP.TLS.Enabled, "use TLS connection for trace collector")
	util.MustBindPFlag("trace.otlp.tls.enabled", flags.Lookup("trace-otlp-tls-enabled"))
	util.MustBindEnv("trace.otlp.tls.enabled", "XSTREAM_TRACE_OTLP_TLS_ENABLED")

	flags.Float64("trace-sample-ratio", defaultConfig.Trace.SampleRatio, "the fraction of traces to sample. 1 means all, 0 means none.")
	util.MustBindPFlag("trace.sampleRatio", flags.Lookup("trace-sample-ratio"))
	util.MustBindEnv("trace.sampleRatio", "XSTREAM_TRACE_SAMPLE_RATIO", "XSTREAM_TRACE_SAMPLERATIO")

	flags.String("trace-service-name", defaultConfig.Trace.ServiceName, "the service name included in sampled traces.")
	util.MustBindPFlag("trace.serviceName", flags.Lookup("trace-service-name"))
	util.MustBindEnv("trace.serviceName", "XSTREAM_TRACE_SERVICE_NAME", "XSTREAM_TRACE_SERVICENAME")

	flags.Bool("metrics-enabled", defaultConfig.Metrics.Enabled, "enable/disable prometheus metrics on the '/metrics' endpoint")
	util.MustBindPFlag("metrics.enabled", flags.Lookup("metrics-enabled"))
	util.MustBindEnv("metrics.enabled", "XSTREAM_METRICS_ENABLED")

	flags.String("metrics-addr", defaultConfig.Metrics.Addr, "the host:port address to serve the prometheus metrics server on")
	util.MustBindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
	util.MustBindEnv("metrics.addr", "XSTREAM_METRICS_ADDR")

	flags.Int("workload-streams", defaultConfig.Workload.Streams, "the number of producer streams of the pipeline")
	util.MustBindPFlag("workload.streams", flags.Lookup("workload-streams"))
	util.MustBindEnv("workload.streams", "XSTREAM_WORKLOAD_STREAMS")

	flags.Int("workload-iterations", defaultConfig.Workload.Iterations, "the number of daxpy kernels every producer enqueues")
	util.MustBindPFlag("workload.iterations", flags.Lookup("workload-iterations"))
	util.MustBindEnv("workload.iterations", "XSTREAM_WORKLOAD_ITERATIONS")

	flags.Int("workload-length", defaultConfig.Workload.Length, "the number of elements of every vector")
	util.MustBindPFlag("workload.length", flags.Lookup("workload-length"))
	util.MustBindEnv("workload.length", "XSTREAM_WORKLOAD_LENGTH")

	flags.Float64("workload-alpha", defaultConfig.Workload.Alpha, "the scale factor of the daxpy kernels")
	util.MustBindPFlag("workload.alpha", flags.Lookup("workload-alpha"))
	util.MustBindEnv("workload.alpha", "XSTREAM_WORKLOAD_ALPHA")
}
