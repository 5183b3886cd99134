package daemon

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeDaemonScript writes a shell script that binds the unix socket
// with a background listener and then sleeps, imitating a daemon that
// takes a moment to come up.
func fakeDaemonScript(t *testing.T, dir string, delay string) string {
	t.Helper()
	script := filepath.Join(dir, "fake-daemon.sh")
	body := fmt.Sprintf(`#!/bin/sh
# args: --socket PATH [--pid-file PATH]
sock=$2
sleep %s
exec nc -lU "$sock"
`, delay)
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	return script
}

func TestStartMeasuresStartup(t *testing.T) {
	if _, err := exec.LookPath("nc"); err != nil {
		t.Skip("nc not available")
	}
	dir := t.TempDir()
	sock := filepath.Join(dir, "goxel.sock")
	d := New(testLogger(), Options{
		Binary:         fakeDaemonScript(t, dir, "0.2"),
		SocketPath:     sock,
		StartupTimeout: 5 * time.Second,
		StopTimeout:    time.Second,
	})
	startup, err := d.Start(context.Background())
	require.NoError(t, err)
	defer d.Stop()

	assert.GreaterOrEqual(t, startup, 200*time.Millisecond)
	assert.Greater(t, d.PID(), 0)

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	conn.Close()
}

func TestStopRemovesSocket(t *testing.T) {
	if _, err := exec.LookPath("nc"); err != nil {
		t.Skip("nc not available")
	}
	dir := t.TempDir()
	sock := filepath.Join(dir, "goxel.sock")
	d := New(testLogger(), Options{
		Binary:         fakeDaemonScript(t, dir, "0"),
		SocketPath:     sock,
		StartupTimeout: 5 * time.Second,
		StopTimeout:    time.Second,
	})
	_, err := d.Start(context.Background())
	require.NoError(t, err)

	d.Stop()
	_, err = os.Stat(sock)
	assert.True(t, os.IsNotExist(err))

	// Second Stop is a no-op.
	d.Stop()
}

func TestStartFailsWhenSocketNeverReady(t *testing.T) {
	dir := t.TempDir()
	d := New(testLogger(), Options{
		Binary:         "/bin/sleep",
		SocketPath:     filepath.Join(dir, "never.sock"),
		StartupTimeout: 300 * time.Millisecond,
		StopTimeout:    time.Second,
	})
	_, err := d.Start(context.Background())
	assert.Error(t, err)
}

func TestStartFailsWhenDaemonExitsEarly(t *testing.T) {
	dir := t.TempDir()
	d := New(testLogger(), Options{
		Binary:         "/bin/false",
		SocketPath:     filepath.Join(dir, "never.sock"),
		StartupTimeout: 5 * time.Second,
		StopTimeout:    time.Second,
	})
	_, err := d.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited before socket was ready")
}

func TestWithDaemonTeardownOnError(t *testing.T) {
	if _, err := exec.LookPath("nc"); err != nil {
		t.Skip("nc not available")
	}
	dir := t.TempDir()
	sock := filepath.Join(dir, "goxel.sock")
	opts := Options{
		Binary:         fakeDaemonScript(t, dir, "0"),
		SocketPath:     sock,
		StartupTimeout: 5 * time.Second,
		StopTimeout:    time.Second,
	}
	err := WithDaemon(context.Background(), testLogger(), opts, func(d *Daemon, startup time.Duration) error {
		assert.Greater(t, d.PID(), 0)
		return fmt.Errorf("benchmark blew up")
	})
	require.EqualError(t, err, "benchmark blew up")

	_, statErr := os.Stat(sock)
	assert.True(t, os.IsNotExist(statErr))
}
