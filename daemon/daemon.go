// Package daemon starts and stops the goxel daemon process around a
// benchmark run.
package daemon

import (
	"context"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options describe how to launch and find the daemon.
type Options struct {
	Binary         string
	SocketPath     string
	PIDFile        string
	StartupTimeout time.Duration
	StopTimeout    time.Duration
}

// Daemon is one managed daemon process.
type Daemon struct {
	log  logrus.FieldLogger
	opts Options

	cmd    *exec.Cmd
	exited chan error
}

func New(log logrus.FieldLogger, opts Options) *Daemon {
	if opts.StartupTimeout <= 0 {
		opts.StartupTimeout = 10 * time.Second
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 5 * time.Second
	}
	return &Daemon{log: log, opts: opts}
}

// Start launches the daemon and polls its socket until it accepts a
// connection. The returned duration is the time from spawn to first
// successful connect. A daemon that never comes up is killed before
// Start returns.
func (d *Daemon) Start(ctx context.Context) (time.Duration, error) {
	if d.cmd != nil {
		return 0, errors.New("daemon already started")
	}
	// A stale socket from a crashed run would accept nothing but block
	// the bind.
	_ = os.Remove(d.opts.SocketPath)

	args := []string{"--socket", d.opts.SocketPath}
	if d.opts.PIDFile != "" {
		args = append(args, "--pid-file", d.opts.PIDFile)
	}
	cmd := exec.Command(d.opts.Binary, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return 0, errors.Wrapf(err, "start %s", d.opts.Binary)
	}
	d.cmd = cmd
	d.exited = make(chan error, 1)
	go func() { d.exited <- cmd.Wait() }()

	d.log.WithFields(logrus.Fields{
		"binary": d.opts.Binary,
		"pid":    cmd.Process.Pid,
		"socket": d.opts.SocketPath,
	}).Info("daemon starting")

	if err := d.waitReady(ctx, start); err != nil {
		d.Stop()
		return 0, err
	}
	elapsed := time.Since(start)
	d.log.WithField("startup_ms", float64(elapsed)/float64(time.Millisecond)).Info("daemon ready")
	return elapsed, nil
}

func (d *Daemon) waitReady(ctx context.Context, started time.Time) error {
	deadline := started.Add(d.opts.StartupTimeout)
	for {
		conn, err := net.DialTimeout("unix", d.opts.SocketPath, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "waiting for daemon socket")
		case err := <-d.exited:
			d.exited <- err
			return errors.Errorf("daemon exited before socket was ready: %v", err)
		case <-time.After(50 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			return errors.Errorf("daemon socket %s not ready after %s", d.opts.SocketPath, d.opts.StartupTimeout)
		}
	}
}

// PID returns the daemon's process id, or 0 before Start.
func (d *Daemon) PID() int {
	if d.cmd == nil || d.cmd.Process == nil {
		return 0
	}
	return d.cmd.Process.Pid
}

// Stop terminates the daemon: SIGTERM first, SIGKILL when it does not
// exit within the stop timeout. Socket and pid files are removed
// either way. Stop is safe to call more than once.
func (d *Daemon) Stop() {
	defer func() {
		_ = os.Remove(d.opts.SocketPath)
		if d.opts.PIDFile != "" {
			_ = os.Remove(d.opts.PIDFile)
		}
	}()
	if d.cmd == nil || d.cmd.Process == nil {
		return
	}
	cmd := d.cmd
	d.cmd = nil

	select {
	case <-d.exited:
		d.log.Info("daemon already exited")
		return
	default:
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		d.log.WithError(err).Warn("could not signal daemon")
	}
	select {
	case err := <-d.exited:
		if err != nil {
			d.log.WithError(err).Debug("daemon exit status")
		}
		d.log.Info("daemon stopped")
	case <-time.After(d.opts.StopTimeout):
		d.log.Warn("daemon ignored SIGTERM, killing")
		_ = cmd.Process.Kill()
		<-d.exited
	}
}

// WithDaemon runs fn with a live daemon and guarantees teardown. fn
// receives the measured startup time.
func WithDaemon(ctx context.Context, log logrus.FieldLogger, opts Options, fn func(d *Daemon, startup time.Duration) error) error {
	d := New(log, opts)
	startup, err := d.Start(ctx)
	if err != nil {
		return err
	}
	defer d.Stop()
	return fn(d, startup)
}
