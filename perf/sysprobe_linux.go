//go:build linux

package perf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/lixenwraith/panelkit/core"
)

// systemSample is the raw output of one probe pass
type systemSample struct {
	cpuPercent float64
	hasCPU     bool

	procRSS      uint64
	memTotal     uint64
	memAvailable uint64
	memPercent   float64

	temperature float64
	hasTemp     bool

	load1   float64
	hasLoad bool

	diskPercent float64
	hasDisk     bool
}

// Prober collects system metrics for the monitor
type Prober interface {
	Sample() systemSample
}

// linuxProber reads procfs, sysfs and the sysinfo syscall.
// CPU usage needs a delta between passes, so the prober is stateful
type linuxProber struct {
	prevBusy  uint64
	prevTotal uint64
	havePrev  bool
	pageSize  uint64
	thermal   string // resolved thermal zone path, "" until found
}

// NewSystemProber creates the platform prober
func NewSystemProber() Prober {
	return &linuxProber{pageSize: uint64(os.Getpagesize())}
}

func (p *linuxProber) Sample() systemSample {
	var s systemSample

	if pct, err := p.cpuPercent(); err != nil {
		core.Logger().Debug("cpu sample failed", "error", err)
	} else {
		s.cpuPercent = pct
		s.hasCPU = true
	}

	if rss, err := p.processRSS(); err != nil {
		core.Logger().Debug("rss sample failed", "error", err)
	} else {
		s.procRSS = rss
	}

	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		core.Logger().Debug("sysinfo failed", "error", err)
	} else {
		unit := uint64(info.Unit)
		if unit == 0 {
			unit = 1
		}
		s.memTotal = uint64(info.Totalram) * unit
		s.memAvailable = (uint64(info.Freeram) + uint64(info.Bufferram)) * unit
		if s.memTotal > 0 {
			s.memPercent = 100 * (1 - float64(s.memAvailable)/float64(s.memTotal))
		}
		s.load1 = float64(info.Loads[0]) / 65536.0
		s.hasLoad = true
	}

	if temp, err := p.cpuTemperature(); err == nil {
		s.temperature = temp
		s.hasTemp = true
	}

	var fs unix.Statfs_t
	if err := unix.Statfs("/", &fs); err == nil && fs.Blocks > 0 {
		s.diskPercent = 100 * (1 - float64(fs.Bavail)/float64(fs.Blocks))
		s.hasDisk = true
	}

	return s
}

// cpuPercent derives busy share from consecutive /proc/stat readings
func (p *linuxProber) cpuPercent() (float64, error) {
	data, err := os.ReadFile("/proc/stat")
	if err != nil {
		return 0, err
	}

	line, _, _ := strings.Cut(string(data), "\n")
	fields := strings.Fields(line)
	if len(fields) < 5 || fields[0] != "cpu" {
		return 0, fmt.Errorf("unexpected /proc/stat line: %q", line)
	}

	var total, idle uint64
	for i, f := range fields[1:] {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse /proc/stat field %d: %w", i, err)
		}
		total += v
		if i == 3 || i == 4 { // idle + iowait
			idle += v
		}
	}
	busy := total - idle

	if !p.havePrev {
		p.prevBusy, p.prevTotal, p.havePrev = busy, total, true
		return 0, fmt.Errorf("first sample, no delta yet")
	}

	dTotal := total - p.prevTotal
	dBusy := busy - p.prevBusy
	p.prevBusy, p.prevTotal = busy, total

	if dTotal == 0 {
		return 0, fmt.Errorf("no cpu time elapsed between samples")
	}
	return 100 * float64(dBusy) / float64(dTotal), nil
}

// processRSS reads resident set size from /proc/self/statm
func (p *linuxProber) processRSS() (uint64, error) {
	data, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0, fmt.Errorf("unexpected /proc/self/statm content")
	}
	pages, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, err
	}
	return pages * p.pageSize, nil
}

// cpuTemperature reads the first readable thermal zone in millidegrees
func (p *linuxProber) cpuTemperature() (float64, error) {
	if p.thermal == "" {
		zones, err := filepath.Glob("/sys/class/thermal/thermal_zone*/temp")
		if err != nil || len(zones) == 0 {
			return 0, fmt.Errorf("no thermal zones")
		}
		p.thermal = zones[0]
	}

	data, err := os.ReadFile(p.thermal)
	if err != nil {
		return 0, err
	}
	milli, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, err
	}
	return float64(milli) / 1000.0, nil
}
