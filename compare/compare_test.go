package compare

import (
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

func cliSummary() common.MetricSummary {
	return common.MetricSummary{
		TestName:      common.TestBasicOperations,
		Mode:          common.ModeCLI,
		SampleCount:   100,
		SuccessCount:  100,
		MeanMS:        10,
		MinMS:         8,
		MaxMS:         14,
		P50MS:         10,
		P95MS:         13,
		P99MS:         14,
		ThroughputOps: 100,
	}
}

func daemonSummary() common.MetricSummary {
	return common.MetricSummary{
		TestName:      common.TestBasicOperations,
		Mode:          common.ModeDaemon,
		SampleCount:   100,
		SuccessCount:  100,
		MeanMS:        2,
		MinMS:         1,
		MaxMS:         4,
		P50MS:         2,
		P95MS:         3,
		P99MS:         4,
		ThroughputOps: 700,
	}
}

func findComparison(t *testing.T, rows []common.ComparisonResult, metric string) common.ComparisonResult {
	t.Helper()
	for _, r := range rows {
		if r.MetricName == metric {
			return r
		}
	}
	t.Fatalf("no comparison row for %s", metric)
	return common.ComparisonResult{}
}

func TestCompareLatencyRatio(t *testing.T) {
	e := &Engine{Log: testLogger()}
	rows, unmatched := e.Compare(
		[]common.MetricSummary{cliSummary()},
		[]common.MetricSummary{daemonSummary()})
	require.Empty(t, unmatched)

	lat := findComparison(t, rows, common.MetricAvgLatency)
	assert.Equal(t, 10.0, lat.BaselineValue)
	assert.Equal(t, 2.0, lat.CandidateValue)
	require.NotNil(t, lat.ImprovementRatio)
	// 10ms down to 2ms is a 5x speedup.
	assert.InDelta(t, 5.0, *lat.ImprovementRatio, 1e-9)
	assert.False(t, lat.IsRegression)
}

func TestCompareLatencyRatioReversed(t *testing.T) {
	// The candidate got slower: 2ms baseline, 10ms candidate.
	slower := daemonSummary()
	slower.MeanMS = 10
	faster := cliSummary()
	faster.MeanMS = 2

	e := &Engine{Log: testLogger()}
	rows, _ := e.Compare(
		[]common.MetricSummary{faster},
		[]common.MetricSummary{slower})

	lat := findComparison(t, rows, common.MetricAvgLatency)
	require.NotNil(t, lat.ImprovementRatio)
	assert.InDelta(t, 0.2, *lat.ImprovementRatio, 1e-9)
	assert.True(t, lat.IsRegression)
}

func TestCompareThroughputRatio(t *testing.T) {
	e := &Engine{Log: testLogger()}
	rows, _ := e.Compare(
		[]common.MetricSummary{cliSummary()},
		[]common.MetricSummary{daemonSummary()})

	tp := findComparison(t, rows, common.MetricThroughput)
	require.NotNil(t, tp.ImprovementRatio)
	// 100 up to 700 ops/sec is a 7x improvement.
	assert.InDelta(t, 7.0, *tp.ImprovementRatio, 1e-9)
	assert.False(t, tp.IsRegression)
}

func TestCompareNilRatioOnZeroDivisor(t *testing.T) {
	b := cliSummary()
	b.ThroughputOps = 0
	c := daemonSummary()
	c.MeanMS = 0
	c.MinMS = 0
	c.MaxMS = 0
	c.P50MS = 0
	c.P95MS = 0
	c.P99MS = 0

	e := &Engine{Log: testLogger()}
	rows, _ := e.Compare([]common.MetricSummary{b}, []common.MetricSummary{c})

	assert.Nil(t, findComparison(t, rows, common.MetricThroughput).ImprovementRatio)
	assert.Nil(t, findComparison(t, rows, common.MetricAvgLatency).ImprovementRatio)
}

func TestCompareNilRatioOnZeroBaseline(t *testing.T) {
	// A zero-latency baseline leaves the ratio undefined even though
	// the division itself would go through.
	b := cliSummary()
	b.MeanMS = 0
	b.MinMS = 0
	b.MaxMS = 0
	b.P50MS = 0
	b.P95MS = 0
	b.P99MS = 0

	e := &Engine{Log: testLogger()}
	rows, _ := e.Compare([]common.MetricSummary{b}, []common.MetricSummary{daemonSummary()})
	assert.Nil(t, findComparison(t, rows, common.MetricAvgLatency).ImprovementRatio)
}

func TestCompareNilRatioOnZeroSamples(t *testing.T) {
	c := daemonSummary()
	c.SampleCount = 0
	c.SuccessCount = 0

	e := &Engine{Log: testLogger()}
	rows, _ := e.Compare([]common.MetricSummary{cliSummary()}, []common.MetricSummary{c})
	for _, r := range rows {
		assert.Nil(t, r.ImprovementRatio, r.MetricName)
	}
}

func TestCompareIsIdempotent(t *testing.T) {
	base := []common.MetricSummary{cliSummary()}
	cand := []common.MetricSummary{daemonSummary()}

	e := &Engine{Log: testLogger()}
	first, firstUnmatched := e.Compare(base, cand)
	second, secondUnmatched := e.Compare(base, cand)

	assert.Equal(t, first, second)
	assert.Equal(t, firstUnmatched, secondUnmatched)
	assert.Equal(t, cliSummary(), base[0])
	assert.Equal(t, daemonSummary(), cand[0])
}

func TestCompareUnmatchedTests(t *testing.T) {
	only := common.MetricSummary{TestName: common.TestConcurrentClients, Mode: common.ModeDaemon, SampleCount: 10, SuccessCount: 10}

	e := &Engine{Log: testLogger()}
	rows, unmatched := e.Compare(
		[]common.MetricSummary{cliSummary()},
		[]common.MetricSummary{only})

	assert.Empty(t, rows)
	assert.ElementsMatch(t, []string{
		"cli:" + common.TestBasicOperations,
		"daemon:" + common.TestConcurrentClients,
	}, unmatched)
}
