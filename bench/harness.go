package bench

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jimmy2822/homebrew-goxel/common"
)

// SamplerFactory builds one transport per worker. Workers never share
// a connection.
type SamplerFactory func() (Sampler, error)

// HarnessResult carries the pooled summary plus the per-worker view.
type HarnessResult struct {
	Pooled  common.MetricSummary
	Workers []common.MetricSummary
}

// Harness drives a fixed pool of concurrent workers against the same
// workload. All samples land in one pool before statistics are
// computed; percentiles are never averaged across workers.
type Harness struct {
	Log           logrus.FieldLogger
	Workers       int
	OpsPerWorker  int
	WorkerTimeout time.Duration
	NewSampler    SamplerFactory
}

// Run executes the pool. Workers that fail to establish a transport
// contribute zero samples; the run errors only when every worker fails
// to establish.
func (h *Harness) Run(ctx context.Context, testName string, mode common.Mode, ops []Operation) (HarnessResult, error) {
	if h.Workers <= 0 {
		return HarnessResult{}, &common.ConfigError{Field: "workers", Reason: "must be positive"}
	}
	if h.OpsPerWorker <= 0 {
		return HarnessResult{}, &common.ConfigError{Field: "ops_per_worker", Reason: "must be positive"}
	}
	if len(ops) == 0 {
		return HarnessResult{}, &common.ConfigError{Field: "operations", Reason: "workload is empty"}
	}

	type workerOut struct {
		samples     []common.Sample
		established bool
		err         error
	}
	out := make([]workerOut, h.Workers)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < h.Workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()

			sampler, err := h.NewSampler()
			if err != nil {
				out[slot].err = err
				h.Log.WithFields(logrus.Fields{
					"worker": slot,
					"error":  err,
				}).Warn("worker failed to establish transport")
				return
			}
			defer sampler.Close()
			out[slot].established = true

			<-start

			wctx := ctx
			if h.WorkerTimeout > 0 {
				var cancel context.CancelFunc
				wctx, cancel = context.WithTimeout(ctx, h.WorkerTimeout)
				defer cancel()
			}
			for n := 0; n < h.OpsPerWorker; n++ {
				if wctx.Err() != nil {
					break
				}
				op := ops[n%len(ops)]
				out[slot].samples = append(out[slot].samples, sampler.Sample(wctx, op))
			}
		}(i)
	}
	close(start)
	wg.Wait()

	var pool []common.Sample
	workers := make([]common.MetricSummary, 0, h.Workers)
	established := 0
	for i := range out {
		if out[i].established {
			established++
		}
		pool = append(pool, out[i].samples...)
		workers = append(workers, Summarize(testName, mode, out[i].samples))
	}
	if established == 0 {
		return HarnessResult{}, errors.New("no worker could establish a transport")
	}

	pooled := Summarize(testName, mode, pool)
	for i := range out {
		if out[i].err != nil {
			pooled.Errors = append(pooled.Errors, fmt.Sprintf("worker %d: %v", i, out[i].err))
		}
	}
	h.Log.WithFields(logrus.Fields{
		"test":        testName,
		"mode":        mode,
		"workers":     h.Workers,
		"established": established,
		"samples":     pooled.SampleCount,
		"successes":   pooled.SuccessCount,
	}).Info("concurrent run complete")
	return HarnessResult{Pooled: pooled, Workers: workers}, nil
}
