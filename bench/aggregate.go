package bench

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jimmy2822/homebrew-goxel/common"
)

// Aggregate runs the workload sequentially, round-robin over ops, until
// the requested number of samples has been collected. Failed samples
// count toward the total; they are folded into the summary as failures,
// not dropped.
func Aggregate(ctx context.Context, log logrus.FieldLogger, sampler Sampler,
	testName string, mode common.Mode, ops []Operation, samples int) (common.MetricSummary, error) {

	if samples <= 0 {
		return common.MetricSummary{}, &common.ConfigError{Field: "samples", Reason: "must be positive"}
	}
	if len(ops) == 0 {
		return common.MetricSummary{}, &common.ConfigError{Field: "operations", Reason: "workload is empty"}
	}

	collected := make([]common.Sample, 0, samples)
	for i := 0; i < samples; i++ {
		if err := ctx.Err(); err != nil {
			log.WithField("collected", len(collected)).Warn("sampling interrupted")
			break
		}
		op := ops[i%len(ops)]
		s := sampler.Sample(ctx, op)
		if !s.OK {
			log.WithFields(logrus.Fields{
				"test":      testName,
				"operation": op.Name,
				"error":     s.Err,
			}).Debug("sample failed")
		}
		collected = append(collected, s)
	}
	return Summarize(testName, mode, collected), nil
}

// Summarize folds a sample set into a metric summary. Latency
// statistics are computed over successful samples only. Throughput is
// successes divided by the total time spent in successful samples.
func Summarize(testName string, mode common.Mode, samples []common.Sample) common.MetricSummary {
	summary := common.MetricSummary{
		TestName:    testName,
		Mode:        mode,
		SampleCount: len(samples),
	}

	var durations common.Stats
	var successSecs float64
	for _, s := range samples {
		if !s.OK {
			if s.Err != "" {
				summary.Errors = append(summary.Errors, s.Err)
			}
			continue
		}
		summary.SuccessCount++
		durations.Update(s.DurationMS)
		successSecs += s.DurationMS / 1000
	}

	if dist, err := durations.Summary(); err == nil {
		summary.MeanMS = dist.Mean
		summary.MinMS = dist.Min
		summary.MaxMS = dist.Max
		summary.P50MS = dist.P50
		summary.P95MS = dist.P95
		summary.P99MS = dist.P99
		summary.StdDevMS = dist.StdDev
	}
	if successSecs > 0 {
		summary.ThroughputOps = float64(summary.SuccessCount) / successSecs
	}
	return summary
}
