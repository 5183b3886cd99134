package bench

import (
	"regexp"
	"strconv"

	"github.com/jimmy2822/homebrew-goxel/common"
)

// OutputParser extracts metrics a benchmarked binary prints on stdout.
type OutputParser interface {
	Parse(output string) map[string]common.Metric
}

type pattern struct {
	metric string
	unit   string
	re     *regexp.Regexp
}

// PatternParser scrapes the human-readable summary lines the goxel
// binaries print, e.g. "Average latency: 1.85 ms".
type PatternParser struct {
	patterns []pattern
}

func NewPatternParser() *PatternParser {
	return &PatternParser{patterns: []pattern{
		{common.MetricAvgLatency, "ms", regexp.MustCompile(`Average latency: ([\d.]+) ms`)},
		{common.MetricThroughput, "ops/sec", regexp.MustCompile(`Throughput: ([\d.]+) ops/sec`)},
		{common.MetricPeakMemory, "MB", regexp.MustCompile(`Peak memory: ([\d.]+) MB`)},
		{common.MetricSuccessRate, "%", regexp.MustCompile(`Success rate: ([\d.]+)%`)},
	}}
}

func (p *PatternParser) Parse(output string) map[string]common.Metric {
	var found map[string]common.Metric
	for _, pat := range p.patterns {
		m := pat.re.FindStringSubmatch(output)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if found == nil {
			found = map[string]common.Metric{}
		}
		found[pat.metric] = common.Metric{Value: v, Unit: pat.unit}
	}
	return found
}
