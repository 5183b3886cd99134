package common

import (
	"fmt"
	"time"
)

// ConfigError reports an invalid configuration. It is the only error
// class that aborts a run before any sampling begins.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// TargetOp is the comparison direction of a performance target.
type TargetOp string

const (
	Below   TargetOp = "<"
	Above   TargetOp = ">"
	AtLeast TargetOp = ">="
)

// Target is one row of the fixed performance-target table. Targets are
// built once at startup and never mutated during a run.
type Target struct {
	Metric string `json:"metric"`
	// Test restricts the target to one named test; empty matches any
	// candidate-mode result carrying the metric.
	Test  string   `json:"test,omitempty"`
	Value float64  `json:"value"`
	Op    TargetOp `json:"op"`
	Unit  string   `json:"unit"`
}

// Met reports whether an observed value satisfies the target.
func (t Target) Met(actual float64) bool {
	switch t.Op {
	case Below:
		return actual < t.Value
	case Above:
		return actual > t.Value
	case AtLeast:
		return actual >= t.Value
	}
	return false
}

func (t Target) String() string {
	return fmt.Sprintf("%s%g%s", t.Op, t.Value, t.Unit)
}

// DefaultTargets is the daemon release-criteria table.
func DefaultTargets() []Target {
	return []Target{
		{Metric: MetricAvgLatency, Value: 2.1, Op: Below, Unit: "ms"},
		{Metric: MetricThroughput, Value: 1000, Op: Above, Unit: " ops/sec"},
		{Metric: MetricPeakMemory, Value: 50, Op: Below, Unit: "MB"},
		{Metric: MetricImprovement, Value: 7.0, Op: AtLeast, Unit: "x"},
		{Metric: MetricStartupTime, Value: 10, Op: Below, Unit: "ms"},
		{Metric: MetricSuccessRate, Test: TestConcurrentClients, Value: 95, Op: AtLeast, Unit: "%"},
	}
}

// Test names shared between the two modes so summaries pair up.
const (
	TestBasicOperations   = "basic_operations"
	TestConcurrentClients = "concurrent_clients"
)

// Report output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatCSV     = "csv"
	FormatChart   = "chart"
	FormatAll     = "all"
)

// Config is built once at process start from flags and environment
// defaults, then passed by value into each component.
type Config struct {
	// Workload
	Samples      int
	Workers      int
	OpsPerWorker int

	// Transports
	SocketPath string
	CLIPath    string
	DaemonPath string
	PIDFile    string

	// Timeouts
	ProcessTimeout Duration
	SocketTimeout  Duration
	WorkerTimeout  Duration
	StartupTimeout Duration
	StopTimeout    Duration

	// Regression detection
	BaselinePath     string
	TolerancePercent float64

	// Reporting
	Format       string
	OutputDir    string
	SaveBaseline bool

	// SkipDaemon assumes the daemon is already listening on SocketPath
	// and leaves its lifecycle alone.
	SkipDaemon bool

	// CI makes the process exit non-zero when any target is unmet or
	// any regression is detected.
	CI bool

	Targets []Target
}

// DefaultConfig fills in everything a flagless invocation needs.
func DefaultConfig() Config {
	return Config{
		Samples:          100,
		Workers:          10,
		OpsPerWorker:     50,
		SocketPath:       "/tmp/goxel_benchmark.sock",
		CLIPath:          "goxel-headless",
		DaemonPath:       "goxel-daemon",
		PIDFile:          "/tmp/goxel_benchmark.pid",
		ProcessTimeout:   Duration(30 * time.Second),
		SocketTimeout:    Duration(10 * time.Second),
		WorkerTimeout:    Duration(2 * time.Minute),
		StartupTimeout:   Duration(10 * time.Second),
		StopTimeout:      Duration(5 * time.Second),
		TolerancePercent: 10.0,
		Format:           FormatConsole,
		OutputDir:        "benchmark_results",
		Targets:          DefaultTargets(),
	}
}

// Validate surfaces ConfigError before any sampling begins.
func (c Config) Validate() error {
	if c.Samples <= 0 {
		return &ConfigError{Field: "samples", Reason: fmt.Sprintf("must be positive, got %d", c.Samples)}
	}
	if c.Workers <= 0 {
		return &ConfigError{Field: "workers", Reason: fmt.Sprintf("must be positive, got %d", c.Workers)}
	}
	if c.OpsPerWorker <= 0 {
		return &ConfigError{Field: "ops-per-worker", Reason: fmt.Sprintf("must be positive, got %d", c.OpsPerWorker)}
	}
	if c.TolerancePercent < 0 {
		return &ConfigError{Field: "tolerance", Reason: "must not be negative"}
	}
	if c.SocketPath == "" {
		return &ConfigError{Field: "socket", Reason: "must not be empty"}
	}
	if c.ProcessTimeout <= 0 || c.SocketTimeout <= 0 {
		return &ConfigError{Field: "timeout", Reason: "must be positive"}
	}
	switch c.Format {
	case FormatJSON, FormatConsole, FormatCSV, FormatChart, FormatAll, "":
	default:
		return &ConfigError{Field: "format", Reason: "unknown format " + c.Format}
	}
	return nil
}

// Formats expands the configured format into the list to emit.
func (c Config) Formats() []string {
	switch c.Format {
	case FormatAll:
		return []string{FormatJSON, FormatCSV, FormatConsole, FormatChart}
	case "":
		return []string{FormatConsole}
	}
	return []string{c.Format}
}
