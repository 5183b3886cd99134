// Package report renders finished benchmark runs as JSON, CSV, console
// text and gnuplot charts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jimmy2822/homebrew-goxel/common"
)

// Emitter writes report documents under one output directory.
type Emitter struct {
	Log       logrus.FieldLogger
	OutputDir string
}

func (e *Emitter) pathFor(name string) string {
	return filepath.Join(e.OutputDir, name)
}

func (e *Emitter) ensureDir() error {
	return errors.Wrapf(os.MkdirAll(e.OutputDir, 0o755), "create %s", e.OutputDir)
}

// WriteJSON stores the full report document and returns its path.
func (e *Emitter) WriteJSON(report *common.RunReport) (string, error) {
	if err := e.ensureDir(); err != nil {
		return "", err
	}
	path := e.pathFor(fmt.Sprintf("benchmark_report_%s.json", report.Timestamp.Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	if err := EncodeJSON(f, report); err != nil {
		return "", err
	}
	e.Log.WithField("path", path).Info("wrote JSON report")
	return path, nil
}

// EncodeJSON writes the report document to w.
func EncodeJSON(w io.Writer, report *common.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(report), "encode report")
}
