// Package runner drives a full benchmark run: sample both modes,
// compare, detect regressions, evaluate targets and emit reports.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jimmy2822/homebrew-goxel/bench"
	"github.com/jimmy2822/homebrew-goxel/common"
	"github.com/jimmy2822/homebrew-goxel/compare"
	"github.com/jimmy2822/homebrew-goxel/daemon"
	"github.com/jimmy2822/homebrew-goxel/report"
)

// ErrRunFailed marks a completed run that missed its targets or
// regressed; the report was still produced.
var ErrRunFailed = errors.New("benchmark run failed targets")

type Runner struct {
	Log    logrus.FieldLogger
	Config common.Config
	Out    io.Writer

	// Stamp and NewRunID exist for deterministic tests.
	Stamp    func() time.Time
	NewRunID func() string
}

func New(log logrus.FieldLogger, cfg common.Config) *Runner {
	return &Runner{
		Log:      log,
		Config:   cfg,
		Out:      os.Stdout,
		Stamp:    time.Now,
		NewRunID: func() string { return uuid.NewString() },
	}
}

// Run executes the whole pipeline. The returned report is complete
// even when err is ErrRunFailed.
func (r *Runner) Run(ctx context.Context) (*common.RunReport, error) {
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}
	started := r.Stamp()

	reportDoc := &common.RunReport{
		RunID:     r.NewRunID(),
		Timestamp: started,
		System:    bench.ReadSystemInfo(r.Log),
		Targets:   r.Config.Targets,
	}
	if len(reportDoc.Targets) == 0 {
		reportDoc.Targets = common.DefaultTargets()
	}

	cliSummary, err := r.runCLI(ctx)
	if err != nil {
		return nil, err
	}
	daemonSummaries, err := r.runDaemon(ctx)
	if err != nil {
		return nil, err
	}

	elapsed := r.Stamp().Sub(started)
	at := r.Stamp()
	summaries := append([]common.MetricSummary{cliSummary}, daemonSummaries...)
	for _, s := range summaries {
		reportDoc.Results = append(reportDoc.Results, s.Result(at, elapsed))
	}

	engine := &compare.Engine{Log: r.Log}
	reportDoc.Comparisons, reportDoc.Unmatched = engine.Compare(
		[]common.MetricSummary{cliSummary}, daemonSummaries)

	if r.Config.BaselinePath != "" {
		baseline, err := compare.LoadBaseline(r.Config.BaselinePath)
		if err != nil {
			return nil, err
		}
		detector := &compare.Detector{Log: r.Log, TolerancePercent: r.Config.TolerancePercent}
		reportDoc.Regressions, reportDoc.SkippedBaseline = detector.Detect(reportDoc.Results, baseline)
	}

	reportDoc.Evaluation = compare.Evaluate(reportDoc.Results, reportDoc.Comparisons, reportDoc.Targets)

	if err := r.emit(reportDoc); err != nil {
		return nil, err
	}
	if r.Config.SaveBaseline {
		path := r.Config.BaselinePath
		if path == "" {
			path = r.Config.OutputDir + "/baseline.json"
		}
		if err := compare.SaveBaseline(path, reportDoc); err != nil {
			return nil, err
		}
		r.Log.WithField("path", path).Info("saved baseline")
	}

	if !reportDoc.Evaluation.OverallPass || len(reportDoc.Regressions) > 0 {
		return reportDoc, ErrRunFailed
	}
	return reportDoc, nil
}

func (r *Runner) runCLI(ctx context.Context) (common.MetricSummary, error) {
	r.Log.WithField("binary", r.Config.CLIPath).Info("benchmarking one-shot CLI")
	sampler := bench.NewProcessSampler(r.Config.CLIPath, r.Config.ProcessTimeout.Std()).
		WithParser(bench.NewPatternParser())
	defer sampler.Close()

	summary, err := bench.Aggregate(ctx, r.Log, sampler,
		common.TestBasicOperations, common.ModeCLI, bench.BasicOperations(), r.Config.Samples)
	if err != nil {
		return common.MetricSummary{}, err
	}
	if parsed := sampler.ParsedMetrics(); len(parsed) > 0 {
		summary.Extra = map[string]common.Metric{}
		for name, m := range parsed {
			summary.Extra["reported_"+name] = m
		}
	}
	return summary, nil
}

func (r *Runner) runDaemon(ctx context.Context) ([]common.MetricSummary, error) {
	if r.Config.SkipDaemon {
		r.Log.Info("daemon lifecycle skipped, using existing socket")
		return r.sampleDaemon(ctx, nil, 0)
	}

	opts := daemon.Options{
		Binary:         r.Config.DaemonPath,
		SocketPath:     r.Config.SocketPath,
		PIDFile:        r.Config.PIDFile,
		StartupTimeout: r.Config.StartupTimeout.Std(),
		StopTimeout:    r.Config.StopTimeout.Std(),
	}
	var summaries []common.MetricSummary
	err := daemon.WithDaemon(ctx, r.Log, opts, func(d *daemon.Daemon, startup time.Duration) error {
		watcher := bench.NewMemoryWatcher(r.Log, 100*time.Millisecond)
		if err := watcher.Watch(ctx, d.PID()); err != nil {
			r.Log.WithError(err).Warn("memory watcher unavailable")
			watcher = nil
		}
		var err error
		summaries, err = r.sampleDaemon(ctx, watcher, startup)
		return err
	})
	return summaries, err
}

func (r *Runner) sampleDaemon(ctx context.Context, watcher *bench.MemoryWatcher, startup time.Duration) ([]common.MetricSummary, error) {
	newSampler := func() (bench.Sampler, error) {
		return bench.NewSocketSampler(r.Config.SocketPath, r.Config.SocketTimeout.Std())
	}

	sampler, err := newSampler()
	if err != nil {
		return nil, err
	}
	sequential, err := bench.Aggregate(ctx, r.Log, sampler,
		common.TestBasicOperations, common.ModeDaemon, bench.BasicOperations(), r.Config.Samples)
	sampler.Close()
	if err != nil {
		return nil, err
	}
	if startup > 0 {
		sequential.Extra = map[string]common.Metric{
			common.MetricStartupTime: {Value: float64(startup) / float64(time.Millisecond), Unit: "ms"},
		}
	}

	harness := &bench.Harness{
		Log:           r.Log,
		Workers:       r.Config.Workers,
		OpsPerWorker:  r.Config.OpsPerWorker,
		WorkerTimeout: r.Config.WorkerTimeout.Std(),
		NewSampler:    newSampler,
	}
	res, err := harness.Run(ctx, common.TestConcurrentClients, common.ModeDaemon, bench.BasicOperations())
	if err != nil {
		return nil, err
	}
	concurrent := res.Pooled

	if watcher != nil {
		peak := watcher.Stop()
		if peak > 0 {
			sequential.PeakMemoryMB = peak
			concurrent.PeakMemoryMB = peak
		}
	}
	return []common.MetricSummary{sequential, concurrent}, nil
}

func (r *Runner) emit(doc *common.RunReport) error {
	emitter := &report.Emitter{Log: r.Log, OutputDir: r.Config.OutputDir}

	for _, format := range r.Config.Formats() {
		switch format {
		case common.FormatJSON:
			if _, err := emitter.WriteJSON(doc); err != nil {
				return err
			}
		case common.FormatCSV:
			if _, err := emitter.WriteCSV(doc); err != nil {
				return err
			}
		case common.FormatConsole:
			if _, err := fmt.Fprint(r.Out, report.RenderConsole(doc)); err != nil {
				return errors.Wrap(err, "write console report")
			}
		case common.FormatChart:
			charts := &report.GnuplotRenderer{OutputDir: r.Config.OutputDir}
			paths, err := charts.Render(doc)
			if err != nil {
				return err
			}
			r.Log.WithField("paths", paths).Info("wrote chart artifacts")
		default:
			return &common.ConfigError{Field: "format", Reason: "unknown format " + format}
		}
	}
	return nil
}
