package compare

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/jimmy2822/homebrew-goxel/common"
)

// LoadBaseline reads a stored run report to diff against. A missing
// file is a configuration error so callers can distinguish "no
// baseline configured" from a corrupt one.
func LoadBaseline(path string) (*common.RunReport, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &common.ConfigError{Field: "baseline", Reason: "no baseline at " + path}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read baseline %s", path)
	}
	var report common.RunReport
	if err := json.Unmarshal(b, &report); err != nil {
		return nil, errors.Wrapf(err, "decode baseline %s", path)
	}
	return &report, nil
}

// SaveBaseline stores a run report for future regression checks.
func SaveBaseline(path string, report *common.RunReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create baseline dir for %s", path)
	}
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode baseline")
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "write baseline %s", path)
	}
	return nil
}
