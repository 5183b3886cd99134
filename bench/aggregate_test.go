package bench

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimmy2822/homebrew-goxel/common"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// scriptedSampler replays a fixed sequence of samples, cycling when
// exhausted.
type scriptedSampler struct {
	script []common.Sample
	calls  int
}

func (s *scriptedSampler) Sample(ctx context.Context, op Operation) common.Sample {
	out := s.script[s.calls%len(s.script)]
	s.calls++
	return out
}

func (s *scriptedSampler) Close() error { return nil }

func TestAggregateCollectsRequestedSamples(t *testing.T) {
	sampler := &scriptedSampler{script: []common.Sample{
		{DurationMS: 1, OK: true},
		{DurationMS: 3, OK: true},
	}}
	summary, err := Aggregate(context.Background(), testLogger(), sampler,
		common.TestBasicOperations, common.ModeDaemon, BasicOperations(), 10)
	require.NoError(t, err)

	assert.Equal(t, 10, summary.SampleCount)
	assert.Equal(t, 10, summary.SuccessCount)
	assert.Equal(t, 2.0, summary.MeanMS)
	assert.Equal(t, 1.0, summary.MinMS)
	assert.Equal(t, 3.0, summary.MaxMS)
	assert.Equal(t, 10, sampler.calls)
}

func TestSummarizeFailuresAreDataNotControlFlow(t *testing.T) {
	samples := []common.Sample{
		{DurationMS: 2, OK: true},
		common.FailedSample(30000, errors.New("timed out")),
		{DurationMS: 4, OK: true},
	}
	s := Summarize(common.TestBasicOperations, common.ModeCLI, samples)

	assert.Equal(t, 3, s.SampleCount)
	assert.Equal(t, 2, s.SuccessCount)
	// Failed durations stay out of the latency statistics.
	assert.Equal(t, 3.0, s.MeanMS)
	assert.Equal(t, 4.0, s.MaxMS)
	assert.Equal(t, []string{"timed out"}, s.Errors)
}

func TestSummarizeZeroSuccesses(t *testing.T) {
	samples := []common.Sample{
		common.FailedSample(5, errors.New("connection refused")),
		common.FailedSample(5, errors.New("connection refused")),
	}
	s := Summarize(common.TestBasicOperations, common.ModeDaemon, samples)

	assert.Equal(t, 2, s.SampleCount)
	assert.Equal(t, 0, s.SuccessCount)
	assert.Equal(t, 0.0, s.ThroughputOps)
	assert.Equal(t, 0.0, s.MeanMS)
	assert.Equal(t, 0.0, s.SuccessRate())
}

func TestSummarizeThroughput(t *testing.T) {
	// 4 successes over 2 total seconds of successful work.
	samples := []common.Sample{
		{DurationMS: 500, OK: true},
		{DurationMS: 500, OK: true},
		{DurationMS: 500, OK: true},
		{DurationMS: 500, OK: true},
		common.FailedSample(10000, errors.New("slow failure ignored")),
	}
	s := Summarize(common.TestBasicOperations, common.ModeDaemon, samples)
	assert.InDelta(t, 2.0, s.ThroughputOps, 1e-9)
}

func TestAggregateRejectsBadInput(t *testing.T) {
	_, err := Aggregate(context.Background(), testLogger(), &scriptedSampler{script: []common.Sample{{OK: true}}},
		common.TestBasicOperations, common.ModeCLI, BasicOperations(), 0)
	assert.Error(t, err)

	_, err = Aggregate(context.Background(), testLogger(), &scriptedSampler{script: []common.Sample{{OK: true}}},
		common.TestBasicOperations, common.ModeCLI, nil, 5)
	assert.Error(t, err)
}
