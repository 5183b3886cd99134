package bench

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/jimmy2822/homebrew-goxel/common"
)

// MachineInfo is the raw hardware view scraped from /proc. It backs
// SystemInfo when gopsutil cannot answer.
type MachineInfo struct {
	CPUModel string
	CPUMHz   float64
	CPUCores int
	MemBytes uint64
}

type procFunc map[string]func(string, *MachineInfo)

var (
	cpuFuncs = procFunc{
		"processor": func(value string, mi *MachineInfo) {
			if num, err := strconv.Atoi(value); err == nil && mi.CPUCores <= num {
				mi.CPUCores = num + 1
			}
		},
		"model name": func(value string, mi *MachineInfo) {
			mi.CPUModel = value
		},
		"cpu MHz": func(value string, mi *MachineInfo) {
			if num, err := strconv.ParseFloat(value, 64); err == nil {
				mi.CPUMHz = num
			}
		},
	}

	memFuncs = procFunc{
		"MemTotal": func(value string, mi *MachineInfo) {
			if !strings.HasSuffix(value, " kB") {
				return
			}
			if kb, err := strconv.ParseUint(value[0:len(value)-3], 10, 64); err == nil {
				mi.MemBytes = kb * 1024
			}
		},
	}
)

// ReadSystemInfo captures the host context that goes into every report.
// gopsutil is authoritative; /proc fills in whatever it misses.
func ReadSystemInfo(log logrus.FieldLogger) common.SystemInfo {
	info := common.SystemInfo{GoVersion: runtime.Version()}

	if hi, err := host.Info(); err == nil {
		info.Platform = fmt.Sprintf("%s %s (%s)", hi.Platform, hi.PlatformVersion, hi.KernelArch)
	} else {
		log.WithError(err).Debug("host info unavailable")
		info.Platform = runtime.GOOS + "/" + runtime.GOARCH
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		info.CPUModel = infos[0].ModelName
		info.CPUCores = len(infos)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemTotalMB = float64(vm.Total) / (1024 * 1024)
	}

	if info.CPUModel == "" || info.MemTotalMB == 0 {
		mi := readMachineInfo(log)
		if info.CPUModel == "" {
			info.CPUModel = mi.CPUModel
		}
		if info.CPUCores == 0 {
			info.CPUCores = mi.CPUCores
		}
		if info.MemTotalMB == 0 {
			info.MemTotalMB = float64(mi.MemBytes) / (1024 * 1024)
		}
	}
	return info
}

func readMachineInfo(log logrus.FieldLogger) *MachineInfo {
	var mi MachineInfo
	readProcKeyValues(log, "/proc/cpuinfo", &mi, cpuFuncs)
	readProcKeyValues(log, "/proc/meminfo", &mi, memFuncs)
	return &mi
}

func readProcKeyValues(log logrus.FieldLogger, path string, mi *MachineInfo, pf procFunc) {
	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		err = scanProcKeyValues(f, mi, ":", pf)
	}
	if err != nil {
		log.WithError(err).WithField("path", path).Debug("could not read proc file")
	}
}

func scanProcKeyValues(f io.Reader, mi *MachineInfo, sep string, pf procFunc) error {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		kv := strings.SplitN(scanner.Text(), sep, 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.TrimSpace(kv[1])
		if kf, ok := pf[key]; ok {
			kf(val, mi)
		}
	}
	return scanner.Err()
}
