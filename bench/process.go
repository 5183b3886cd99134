package bench

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/pkg/errors"

	"github.com/jimmy2822/homebrew-goxel/common"
)

// ProcessSampler runs the one-shot CLI binary once per sample, paying
// the full spawn cost each time. An optional parser scrapes metrics
// the binary prints on stdout.
type ProcessSampler struct {
	binary  string
	timeout time.Duration
	parser  OutputParser

	parsed map[string]common.Metric
}

func NewProcessSampler(binary string, timeout time.Duration) *ProcessSampler {
	return &ProcessSampler{binary: binary, timeout: timeout}
}

// WithParser attaches an output parser. Metrics scraped from process
// output accumulate across samples; later values win.
func (p *ProcessSampler) WithParser(parser OutputParser) *ProcessSampler {
	p.parser = parser
	return p
}

func (p *ProcessSampler) Sample(ctx context.Context, op Operation) common.Sample {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.binary, op.Argv...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return common.FailedSample(p.timeout.Seconds()*1000,
			errors.Wrapf(context.DeadlineExceeded, "%s %s", p.binary, op.Name))
	}
	if err != nil {
		return common.FailedSample(msFrom(elapsed), errors.Wrapf(err, "%s %s", p.binary, op.Name))
	}

	if p.parser != nil {
		for name, m := range p.parser.Parse(stdout.String()) {
			if p.parsed == nil {
				p.parsed = map[string]common.Metric{}
			}
			p.parsed[name] = m
		}
	}
	return common.Sample{DurationMS: msFrom(elapsed), OK: true}
}

// ParsedMetrics returns metrics scraped from process output so far.
func (p *ProcessSampler) ParsedMetrics() map[string]common.Metric {
	return p.parsed
}

func (p *ProcessSampler) Close() error { return nil }
