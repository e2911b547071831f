//go:build !linux

package perf

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

// stubProber reports nothing on platforms without procfs.
// Frame metrics from the scheduler still flow; only system readings
// are omitted
type stubProber struct{}

// NewSystemProber creates the platform prober
func NewSystemProber() Prober {
	return stubProber{}
}

func (stubProber) Sample() systemSample {
	return systemSample{}
}
