// Package compare pairs benchmark summaries across modes, detects
// regressions against stored baselines, and evaluates performance
// targets.
package compare

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/jimmy2822/homebrew-goxel/common"
)

// Engine compares baseline-mode summaries (the one-shot CLI) against
// candidate-mode summaries (the daemon) sharing a test name.
type Engine struct {
	Log logrus.FieldLogger
}

// Compare pairs summaries by test name and emits one result per metric
// present on both sides. Test names found on only one side are
// returned in unmatched and never produce comparison rows. Inputs are
// not modified; calling twice yields identical output.
func (e *Engine) Compare(baseline, candidate []common.MetricSummary) ([]common.ComparisonResult, []string) {
	byName := make(map[string]common.MetricSummary, len(candidate))
	candSeen := make(map[string]bool, len(candidate))
	for _, c := range candidate {
		byName[c.TestName] = c
	}

	var out []common.ComparisonResult
	var unmatched []string
	for _, b := range baseline {
		c, ok := byName[b.TestName]
		if !ok {
			unmatched = append(unmatched, string(b.Mode)+":"+b.TestName)
			continue
		}
		candSeen[b.TestName] = true
		out = append(out, e.compareMetrics(b, c)...)
	}
	for _, c := range candidate {
		if !candSeen[c.TestName] {
			unmatched = append(unmatched, string(c.Mode)+":"+c.TestName)
		}
	}
	for _, u := range unmatched {
		e.Log.WithField("test", u).Warn("no counterpart for comparison")
	}
	return out, unmatched
}

func (e *Engine) compareMetrics(b, c common.MetricSummary) []common.ComparisonResult {
	bm, cm := b.Metrics(), c.Metrics()

	names := make([]string, 0, len(bm))
	for name := range bm {
		if _, ok := cm[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]common.ComparisonResult, 0, len(names))
	for _, name := range names {
		bv, cv := bm[name].Value, cm[name].Value
		res := common.ComparisonResult{
			TestName:       b.TestName,
			MetricName:     name,
			Unit:           bm[name].Unit,
			BaselineValue:  bv,
			CandidateValue: cv,
		}
		res.ImprovementRatio = improvementRatio(name, b, c, bv, cv)
		if common.MetricPolarity(name) == common.LowerIsBetter {
			res.IsRegression = cv > bv
		} else {
			res.IsRegression = cv < bv
		}
		out = append(out, res)
	}
	return out
}

// improvementRatio is how many times better the candidate is. For
// lower-is-better metrics that is baseline/candidate, otherwise
// candidate/baseline. Nil when either summary produced no samples,
// the baseline value is zero, or the divisor is zero.
func improvementRatio(metric string, b, c common.MetricSummary, bv, cv float64) *float64 {
	if b.SampleCount == 0 || c.SampleCount == 0 {
		return nil
	}
	if bv == 0 {
		return nil
	}
	var ratio float64
	switch common.MetricPolarity(metric) {
	case common.LowerIsBetter:
		if cv == 0 {
			return nil
		}
		ratio = bv / cv
	default:
		ratio = cv / bv
	}
	return &ratio
}
