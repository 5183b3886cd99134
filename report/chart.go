package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/jimmy2822/homebrew-goxel/common"
)

// ChartRenderer turns a run report into chart artifacts on disk.
type ChartRenderer interface {
	Render(report *common.RunReport) ([]string, error)
}

// GnuplotRenderer emits a data file and a gnuplot script that draws a
// per-mode latency bar chart. The script is written, not executed;
// running gnuplot is left to the caller's environment.
type GnuplotRenderer struct {
	OutputDir string
}

type chartScript struct {
	Name string
	dir  string
	cmds []string
	bytes.Buffer
}

func newChartScript(name, dir string) *chartScript {
	s := &chartScript{Name: name, dir: dir}
	s.writeHeader()
	return s
}

func (s *chartScript) pathFor(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *chartScript) writeHeader() {
	s.WriteString(`
set terminal png size 1000,600
set output "`)
	s.WriteString(s.pathFor(s.Name + ".png"))
	s.WriteString(`"
set datafile separator ","
set style data histogram
set style histogram cluster gap 1
set style fill solid
set yrange [0:*]

set title "CLI vs Daemon Latency"
set xlabel "Test"
set ylabel "Latency (ms)"
`)
}

func (s *chartScript) add(cmd string) {
	s.cmds = append(s.cmds, cmd)
}

func (s *chartScript) writeBody() (string, error) {
	s.WriteString("plot ")
	for i, cmd := range s.cmds {
		if i > 0 {
			s.WriteString(",")
		}
		s.WriteString(cmd)
	}
	s.WriteString("\nquit\n")

	path := s.pathFor(s.Name + ".gnuplot")
	return path, errors.Wrapf(os.WriteFile(path, s.Bytes(), 0o755), "write %s", path)
}

func (g *GnuplotRenderer) Render(report *common.RunReport) ([]string, error) {
	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", g.OutputDir)
	}

	dataPath, err := g.writeDataFile(report)
	if err != nil {
		return nil, err
	}

	script := newChartScript("latency", g.OutputDir)
	script.add(fmt.Sprintf("'%s' using 2:xtic(1) title 'cli' lc rgb '#d95f5f'", dataPath))
	script.add(fmt.Sprintf("'%s' using 3 title 'daemon' lc rgb '#5f87d9'", dataPath))
	scriptPath, err := script.writeBody()
	if err != nil {
		return nil, err
	}
	return []string{dataPath, scriptPath}, nil
}

// writeDataFile emits one row per test name with the CLI and daemon
// average latencies side by side. Tests missing a mode get a zero.
func (g *GnuplotRenderer) writeDataFile(report *common.RunReport) (string, error) {
	type pair struct{ cli, daemon float64 }
	byTest := map[string]*pair{}
	for _, r := range report.Results {
		m, ok := r.Metrics[common.MetricAvgLatency]
		if !ok {
			continue
		}
		p := byTest[r.Name]
		if p == nil {
			p = &pair{}
			byTest[r.Name] = p
		}
		if r.Mode == common.ModeCLI {
			p.cli = m.Value
		} else {
			p.daemon = m.Value
		}
	}

	names := make([]string, 0, len(byTest))
	for name := range byTest {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		p := byTest[name]
		fmt.Fprintf(&buf, "%s,%g,%g\n", name, p.cli, p.daemon)
	}
	path := filepath.Join(g.OutputDir, "latency.csv")
	return path, errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "write %s", path)
}
