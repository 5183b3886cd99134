package common

import (
	"fmt"
	"strings"
	"time"
)

// Mode names one of the two execution strategies under comparison.
type Mode string

const (
	// ModeCLI runs one short-lived headless process per operation.
	ModeCLI Mode = "cli"
	// ModeDaemon sends operations to the persistent daemon over its socket.
	ModeDaemon Mode = "daemon"
)

// Sample is one timed outcome of a single operation. Samples are folded
// into a MetricSummary and discarded; only summaries are persisted.
type Sample struct {
	DurationMS float64
	OK         bool
	Err        string
}

// FailedSample tags an outcome that did not complete.
func FailedSample(durationMS float64, err error) Sample {
	return Sample{DurationMS: durationMS, Err: err.Error()}
}

// MetricSummary holds the aggregated statistics for one named test in
// one mode. Produced once from a finished sample set, immutable after.
type MetricSummary struct {
	TestName     string
	Mode         Mode
	SampleCount  int
	SuccessCount int

	MeanMS   float64
	MinMS    float64
	MaxMS    float64
	P50MS    float64
	P95MS    float64
	P99MS    float64
	StdDevMS float64

	ThroughputOps float64

	// PeakMemoryMB is zero when no memory watcher ran.
	PeakMemoryMB float64

	// Extra carries metrics not derived from the sample set, e.g. the
	// daemon startup time or values recovered from subprocess output.
	Extra map[string]Metric

	Errors []string
}

// SuccessRate is the percentage of samples that completed.
func (s MetricSummary) SuccessRate() float64 {
	if s.SampleCount == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.SampleCount) * 100
}

// Metric is one named value with a unit, the shape used in report and
// baseline documents.
type Metric struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Metric names shared by summaries, comparisons, targets and baselines.
const (
	MetricAvgLatency  = "avg_latency"
	MetricMinLatency  = "min_latency"
	MetricMaxLatency  = "max_latency"
	MetricP50Latency  = "p50_latency"
	MetricP95Latency  = "p95_latency"
	MetricP99Latency  = "p99_latency"
	MetricThroughput  = "throughput"
	MetricSuccessRate = "success_rate"
	MetricPeakMemory  = "peak_memory"
	MetricStartupTime = "startup_time"
	MetricImprovement = "improvement_factor"
)

// Metrics expands a summary into its named metric entries.
func (s MetricSummary) Metrics() map[string]Metric {
	m := map[string]Metric{
		MetricSuccessRate: {Value: s.SuccessRate(), Unit: "%"},
		MetricThroughput:  {Value: s.ThroughputOps, Unit: "ops/sec"},
	}
	if s.SuccessCount > 0 {
		m[MetricAvgLatency] = Metric{Value: s.MeanMS, Unit: "ms"}
		m[MetricMinLatency] = Metric{Value: s.MinMS, Unit: "ms"}
		m[MetricMaxLatency] = Metric{Value: s.MaxMS, Unit: "ms"}
		m[MetricP50Latency] = Metric{Value: s.P50MS, Unit: "ms"}
		m[MetricP95Latency] = Metric{Value: s.P95MS, Unit: "ms"}
		m[MetricP99Latency] = Metric{Value: s.P99MS, Unit: "ms"}
	}
	if s.PeakMemoryMB > 0 {
		m[MetricPeakMemory] = Metric{Value: s.PeakMemoryMB, Unit: "MB"}
	}
	for name, metric := range s.Extra {
		m[name] = metric
	}
	return m
}

// Polarity says whether a metric is better when lower or higher.
type Polarity int

const (
	LowerIsBetter Polarity = iota
	HigherIsBetter
)

// MetricPolarity classifies a metric name. Latency, memory and startup
// metrics are better when lower; everything else, throughput included,
// is better when higher.
func MetricPolarity(name string) Polarity {
	for _, frag := range []string{"latency", "memory", "startup"} {
		if strings.Contains(name, frag) {
			return LowerIsBetter
		}
	}
	return HigherIsBetter
}

// ComparisonResult pairs one metric of a baseline-mode summary with the
// same metric of a candidate-mode summary sharing a test name.
type ComparisonResult struct {
	TestName       string  `json:"test_name"`
	MetricName     string  `json:"metric_name"`
	Unit           string  `json:"unit"`
	BaselineValue  float64 `json:"baseline_value"`
	CandidateValue float64 `json:"candidate_value"`
	// ImprovementRatio is nil when the baseline value is zero or either
	// summary has no samples.
	ImprovementRatio *float64 `json:"improvement_ratio"`
	IsRegression     bool     `json:"is_regression"`
}

// RegressionRecord is one metric flagged against a stored baseline.
type RegressionRecord struct {
	TestName          string  `json:"test"`
	MetricName        string  `json:"metric"`
	BaselineValue     float64 `json:"baseline"`
	CurrentValue      float64 `json:"current"`
	RegressionPercent float64 `json:"regression_percent"`
	Unit              string  `json:"unit"`
}

func (r RegressionRecord) String() string {
	return fmt.Sprintf("%s.%s: %.2f -> %.2f %s (%.1f%% regression)",
		r.TestName, r.MetricName, r.BaselineValue, r.CurrentValue, r.Unit, r.RegressionPercent)
}

// TestResult is the persisted, MetricSummary-shaped record in report and
// baseline documents.
type TestResult struct {
	Name       string            `json:"name"`
	Mode       Mode              `json:"mode,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Status     string            `json:"status"`
	DurationMS float64           `json:"duration_ms"`
	Metrics    map[string]Metric `json:"metrics"`
	Notes      []string          `json:"notes,omitempty"`
}

// Result converts a summary into its persisted form. Status is "pass"
// when every sample succeeded, "partial" when some did, "fail" otherwise.
func (s MetricSummary) Result(at time.Time, elapsed time.Duration) TestResult {
	status := "fail"
	switch {
	case s.SampleCount > 0 && s.SuccessCount == s.SampleCount:
		status = "pass"
	case s.SuccessCount > 0:
		status = "partial"
	}
	var notes []string
	if n := len(s.Errors); n > 0 {
		notes = append(notes, fmt.Sprintf("%d failed operations", n))
	}
	return TestResult{
		Name:       s.TestName,
		Mode:       s.Mode,
		Timestamp:  at,
		Status:     status,
		DurationMS: float64(elapsed) / float64(time.Millisecond),
		Metrics:    s.Metrics(),
		Notes:      notes,
	}
}

// SystemInfo is report context only; nothing is computed from it.
type SystemInfo struct {
	Platform   string  `json:"platform"`
	CPUModel   string  `json:"cpu_model"`
	CPUCores   int     `json:"cpu_cores"`
	MemTotalMB float64 `json:"memory_total_mb"`
	GoVersion  string  `json:"go_version"`
}

// TargetCheck is one evaluated row of the report's summary block.
type TargetCheck struct {
	Metric string `json:"metric"`
	Target string `json:"target"`
	Actual string `json:"actual"`
	Passed bool   `json:"passed"`
}

// Evaluation is the pass/fail summary block of a report document.
type Evaluation struct {
	TargetsMet    int           `json:"targets_met"`
	TargetsFailed int           `json:"targets_failed"`
	Details       []TargetCheck `json:"details"`
	OverallPass   bool          `json:"overall_pass"`
}

// RunReport is the finished results document. The same shape serves as
// the stored baseline for regression detection.
type RunReport struct {
	RunID           string             `json:"run_id"`
	Timestamp       time.Time          `json:"timestamp"`
	System          SystemInfo         `json:"system_info"`
	Targets         []Target           `json:"targets"`
	Results         []TestResult       `json:"results"`
	Comparisons     []ComparisonResult `json:"comparisons,omitempty"`
	Regressions     []RegressionRecord `json:"regressions,omitempty"`
	Unmatched       []string           `json:"unmatched_tests,omitempty"`
	SkippedBaseline []string           `json:"baseline_unavailable,omitempty"`
	Evaluation      Evaluation         `json:"evaluation"`
}

// FindResult returns the result for a test in a mode, or nil.
func (r *RunReport) FindResult(name string, mode Mode) *TestResult {
	for i := range r.Results {
		if r.Results[i].Name == name && r.Results[i].Mode == mode {
			return &r.Results[i]
		}
	}
	return nil
}
