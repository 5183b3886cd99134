package compare

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/jimmy2822/homebrew-goxel/common"
)

// Detector flags metrics that moved adversely against a stored
// baseline by more than the tolerance.
type Detector struct {
	Log              logrus.FieldLogger
	TolerancePercent float64
}

// Detect compares current results against baseline results matched by
// test name and mode. A metric regresses when its adverse change
// strictly exceeds the tolerance; movement exactly at the tolerance
// does not. Metrics or tests absent from the baseline are skipped and
// reported, never flagged.
func (d *Detector) Detect(current []common.TestResult, baseline *common.RunReport) ([]common.RegressionRecord, []string) {
	var regressions []common.RegressionRecord
	var skipped []string

	for _, cur := range current {
		base := baseline.FindResult(cur.Name, cur.Mode)
		if base == nil {
			skipped = append(skipped, fmt.Sprintf("%s/%s: baseline unavailable", cur.Name, cur.Mode))
			continue
		}

		names := make([]string, 0, len(cur.Metrics))
		for name := range cur.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			bm, ok := base.Metrics[name]
			if !ok {
				skipped = append(skipped, fmt.Sprintf("%s/%s %s: baseline unavailable", cur.Name, cur.Mode, name))
				continue
			}
			cm := cur.Metrics[name]
			pct, adverse := adverseChangePercent(name, bm.Value, cm.Value)
			if !adverse || pct <= d.TolerancePercent {
				continue
			}
			rec := common.RegressionRecord{
				TestName:          cur.Name,
				MetricName:        name,
				BaselineValue:     bm.Value,
				CurrentValue:      cm.Value,
				RegressionPercent: pct,
				Unit:              cm.Unit,
			}
			d.Log.WithFields(logrus.Fields{
				"test":   cur.Name,
				"mode":   cur.Mode,
				"metric": name,
				"change": fmt.Sprintf("%.1f%%", pct),
			}).Warn("regression detected")
			regressions = append(regressions, rec)
		}
	}
	return regressions, skipped
}

// adverseChangePercent returns the magnitude of the change relative to
// the baseline and whether the direction is adverse for the metric.
// A zero baseline cannot be regressed against.
func adverseChangePercent(metric string, baseline, current float64) (float64, bool) {
	if baseline == 0 {
		return 0, false
	}
	delta := (current - baseline) / baseline * 100
	if common.MetricPolarity(metric) == common.LowerIsBetter {
		return delta, delta > 0
	}
	return -delta, delta < 0
}
