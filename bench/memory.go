package bench

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"
)

// MemoryWatcher polls a process's resident set and remembers the peak.
// Polling stops when the process exits or Stop is called; a process
// that vanishes mid-poll keeps the peak observed so far.
type MemoryWatcher struct {
	log      logrus.FieldLogger
	interval time.Duration

	mu     sync.Mutex
	peakMB float64

	cancel context.CancelFunc
	done   chan struct{}
}

func NewMemoryWatcher(log logrus.FieldLogger, interval time.Duration) *MemoryWatcher {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &MemoryWatcher{log: log, interval: interval}
}

// Watch begins polling pid in the background.
func (w *MemoryWatcher) Watch(ctx context.Context, pid int) error {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return err
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mi, err := proc.MemoryInfo()
				if err != nil {
					w.log.WithError(err).WithField("pid", pid).Debug("memory poll ended")
					return
				}
				rssMB := float64(mi.RSS) / (1024 * 1024)
				w.mu.Lock()
				if rssMB > w.peakMB {
					w.peakMB = rssMB
				}
				w.mu.Unlock()
			}
		}
	}()
	return nil
}

// Stop halts polling and returns the peak resident set in MB.
func (w *MemoryWatcher) Stop() float64 {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	return w.PeakMB()
}

func (w *MemoryWatcher) PeakMB() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.peakMB
}
