package compare

import (
	"fmt"

	"github.com/jimmy2822/homebrew-goxel/common"
)

// Evaluate checks every performance target against the daemon-mode
// results and the cross-mode comparisons. The run passes only when
// every target that could be measured was met; a target with no
// measurement is a failure, not a skip.
func Evaluate(results []common.TestResult, comparisons []common.ComparisonResult, targets []common.Target) common.Evaluation {
	eval := common.Evaluation{}
	for _, tg := range targets {
		actual, ok := targetActual(tg, results, comparisons)
		check := common.TargetCheck{
			Metric: tg.Metric,
			Target: tg.String(),
			Actual: "n/a",
		}
		if ok {
			check.Actual = fmt.Sprintf("%.2f%s", actual, tg.Unit)
			check.Passed = tg.Met(actual)
		}
		if check.Passed {
			eval.TargetsMet++
		} else {
			eval.TargetsFailed++
		}
		eval.Details = append(eval.Details, check)
	}
	eval.OverallPass = eval.TargetsFailed == 0
	return eval
}

func targetActual(tg common.Target, results []common.TestResult, comparisons []common.ComparisonResult) (float64, bool) {
	if tg.Metric == common.MetricImprovement {
		return improvementActual(tg, comparisons)
	}

	found := false
	var worst float64
	for _, r := range results {
		if r.Mode != common.ModeDaemon {
			continue
		}
		if tg.Test != "" && r.Name != tg.Test {
			continue
		}
		m, ok := r.Metrics[tg.Metric]
		if !ok {
			continue
		}
		if !found {
			worst = m.Value
			found = true
			continue
		}
		if common.MetricPolarity(tg.Metric) == common.LowerIsBetter {
			if m.Value > worst {
				worst = m.Value
			}
		} else if m.Value < worst {
			worst = m.Value
		}
	}
	return worst, found
}

// improvementActual reads the daemon-over-CLI speedup from the average
// latency comparison row.
func improvementActual(tg common.Target, comparisons []common.ComparisonResult) (float64, bool) {
	for _, c := range comparisons {
		if c.MetricName != common.MetricAvgLatency {
			continue
		}
		if tg.Test != "" && c.TestName != tg.Test {
			continue
		}
		if c.TestName != common.TestBasicOperations && tg.Test == "" {
			continue
		}
		if c.ImprovementRatio == nil {
			return 0, false
		}
		return *c.ImprovementRatio, true
	}
	return 0, false
}
