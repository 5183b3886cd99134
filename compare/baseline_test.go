package compare

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimmy2822/homebrew-goxel/common"
)

func TestBaselineRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "baseline.json")
	report := &common.RunReport{
		RunID:     "abc-123",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Results: []common.TestResult{{
			Name:   common.TestBasicOperations,
			Mode:   common.ModeDaemon,
			Status: "pass",
			Metrics: map[string]common.Metric{
				common.MetricAvgLatency: {Value: 1.85, Unit: "ms"},
			},
		}},
	}
	require.NoError(t, SaveBaseline(path, report))

	got, err := LoadBaseline(path)
	require.NoError(t, err)
	assert.Equal(t, report, got)
}

func TestLoadBaselineMissingFile(t *testing.T) {
	_, err := LoadBaseline(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	var cfgErr *common.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadBaselineCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, err := LoadBaseline(path)
	assert.Error(t, err)
}
