package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimmy2822/homebrew-goxel/common"
)

func passingResults() []common.TestResult {
	return []common.TestResult{
		{
			Name: common.TestBasicOperations,
			Mode: common.ModeDaemon,
			Metrics: map[string]common.Metric{
				common.MetricAvgLatency:  {Value: 1.85, Unit: "ms"},
				common.MetricThroughput:  {Value: 1200, Unit: "ops/sec"},
				common.MetricPeakMemory:  {Value: 32, Unit: "MB"},
				common.MetricStartupTime: {Value: 4.2, Unit: "ms"},
				common.MetricSuccessRate: {Value: 100, Unit: "%"},
			},
		},
		{
			Name: common.TestConcurrentClients,
			Mode: common.ModeDaemon,
			Metrics: map[string]common.Metric{
				common.MetricAvgLatency:  {Value: 2.0, Unit: "ms"},
				common.MetricSuccessRate: {Value: 98, Unit: "%"},
			},
		},
	}
}

func passingComparisons() []common.ComparisonResult {
	ratio := 8.5
	return []common.ComparisonResult{{
		TestName:         common.TestBasicOperations,
		MetricName:       common.MetricAvgLatency,
		BaselineValue:    15.7,
		CandidateValue:   1.85,
		ImprovementRatio: &ratio,
	}}
}

func TestEvaluateAllTargetsMet(t *testing.T) {
	eval := Evaluate(passingResults(), passingComparisons(), common.DefaultTargets())
	assert.True(t, eval.OverallPass)
	assert.Equal(t, 0, eval.TargetsFailed)
	assert.Equal(t, len(common.DefaultTargets()), eval.TargetsMet)
}

func TestEvaluateFailedTarget(t *testing.T) {
	results := passingResults()
	results[0].Metrics[common.MetricPeakMemory] = common.Metric{Value: 80, Unit: "MB"}

	eval := Evaluate(results, passingComparisons(), common.DefaultTargets())
	assert.False(t, eval.OverallPass)
	assert.Equal(t, 1, eval.TargetsFailed)

	var memCheck *common.TargetCheck
	for i := range eval.Details {
		if eval.Details[i].Metric == common.MetricPeakMemory {
			memCheck = &eval.Details[i]
		}
	}
	require.NotNil(t, memCheck)
	assert.False(t, memCheck.Passed)
	assert.Contains(t, memCheck.Actual, "80.00")
}

func TestEvaluateWorstCaseAcrossTests(t *testing.T) {
	// Both daemon results carry avg_latency; the slower one is judged.
	targets := []common.Target{{Metric: common.MetricAvgLatency, Value: 1.9, Op: common.Below, Unit: "ms"}}
	eval := Evaluate(passingResults(), nil, targets)
	assert.False(t, eval.OverallPass)
	assert.Contains(t, eval.Details[0].Actual, "2.00")
}

func TestEvaluateScopedTarget(t *testing.T) {
	targets := []common.Target{{
		Metric: common.MetricSuccessRate,
		Test:   common.TestConcurrentClients,
		Value:  95,
		Op:     common.AtLeast,
		Unit:   "%",
	}}
	eval := Evaluate(passingResults(), nil, targets)
	assert.True(t, eval.OverallPass)
	assert.Contains(t, eval.Details[0].Actual, "98.00")
}

func TestEvaluateMissingMeasurementFails(t *testing.T) {
	targets := []common.Target{{Metric: common.MetricImprovement, Value: 7, Op: common.AtLeast, Unit: "x"}}
	eval := Evaluate(passingResults(), nil, targets)
	assert.False(t, eval.OverallPass)
	assert.Equal(t, "n/a", eval.Details[0].Actual)
}
