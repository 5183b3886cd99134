// Package env reads GOXEL_BENCHMARK_* environment overrides.
package env

import (
	"os"
	"strconv"
	"time"
)

var (
	SocketPath = GetEnv("GOXEL_BENCHMARK_SOCKET", "")
	CLIPath    = GetEnv("GOXEL_BENCHMARK_CLI", "")
	DaemonPath = GetEnv("GOXEL_BENCHMARK_DAEMON", "")
	OutputDir  = GetEnv("GOXEL_BENCHMARK_OUTPUT_DIR", "")
	Verbose    = GetEnv("GOXEL_BENCHMARK_VERBOSE", "")
)

func GetEnv(name, defval string) string {
	if r := os.Getenv(name); r != "" {
		return r
	}
	return defval
}

func GetEnvInt(name string, defval int) int {
	if r := os.Getenv(name); r != "" {
		if n, err := strconv.Atoi(r); err == nil {
			return n
		}
	}
	return defval
}

func GetEnvDuration(name string, defval time.Duration) time.Duration {
	if r := os.Getenv(name); r != "" {
		if d, err := time.ParseDuration(r); err == nil {
			return d
		}
	}
	return defval
}
