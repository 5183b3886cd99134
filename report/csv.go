package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/jimmy2822/homebrew-goxel/common"
)

// WriteCSV stores a flat metric table, one row per test/metric pair,
// and returns its path.
func (e *Emitter) WriteCSV(report *common.RunReport) (string, error) {
	if err := e.ensureDir(); err != nil {
		return "", err
	}
	path := e.pathFor(fmt.Sprintf("benchmark_report_%s.csv", report.Timestamp.Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	if err := EncodeCSV(f, report); err != nil {
		return "", err
	}
	e.Log.WithField("path", path).Info("wrote CSV report")
	return path, nil
}

// EncodeCSV writes the flat metric table to w. Rows are ordered by
// test, mode and metric name so output is reproducible.
func EncodeCSV(w io.Writer, report *common.RunReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"test", "mode", "status", "metric", "value", "unit"}); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	results := make([]common.TestResult, len(report.Results))
	copy(results, report.Results)
	sort.Slice(results, func(i, j int) bool {
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		return results[i].Mode < results[j].Mode
	})

	for _, r := range results {
		names := make([]string, 0, len(r.Metrics))
		for name := range r.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			m := r.Metrics[name]
			row := []string{
				r.Name,
				string(r.Mode),
				r.Status,
				name,
				strconv.FormatFloat(m.Value, 'f', -1, 64),
				m.Unit,
			}
			if err := cw.Write(row); err != nil {
				return errors.Wrap(err, "write csv row")
			}
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}
