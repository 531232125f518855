// Package device enumerates the compute devices a benchmark can run
// on and validates the device index fixed for the process lifetime.
// The engine executes on the CPU; devices are detected processor
// packages described through cpuid so reports name the hardware the
// numbers were measured on.
package device

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// Device describes one selectable compute device.
type Device struct {
	ID       int
	Name     string
	Cores    int
	Threads  int
	Features []string
}

// String formats the device for logs and reports.
func (d Device) String() string {
	return fmt.Sprintf(
		"#%d %s (%d cores, %d threads, %s)",
		d.ID, d.Name, d.Cores, d.Threads,
		strings.Join(d.Features, " "),
	)
}

// vector extensions worth surfacing in benchmark reports
var reportedFeatures = []cpuid.FeatureID{
	cpuid.SSE42,
	cpuid.AVX,
	cpuid.AVX2,
	cpuid.FMA3,
	cpuid.AVX512F,
}

// List returns the detectable devices. A machine without exposed
// topology still yields one device so benchmarks always have a
// default target.
func List() []Device {
	info := cpuid.CPU

	name := strings.TrimSpace(info.BrandName)
	if name == "" {
		name = fmt.Sprintf("unknown %s cpu", runtime.GOARCH)
	}

	features := make([]string, 0, len(reportedFeatures))
	for _, f := range reportedFeatures {
		if info.Has(f) {
			features = append(features, f.String())
		}
	}

	cores := info.PhysicalCores
	if cores <= 0 {
		cores = runtime.NumCPU()
	}

	threads := info.LogicalCores
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	return []Device{{
		ID:       0,
		Name:     name,
		Cores:    cores,
		Threads:  threads,
		Features: features,
	}}
}

// Select resolves a device index chosen on the command line. An index
// outside the detected range is an error; callers treat it as fatal.
func Select(id int) (Device, error) {
	devices := List()

	if id < 0 || id >= len(devices) {
		return Device{}, fmt.Errorf(
			"invalid device index %d: %d device(s) available",
			id, len(devices),
		)
	}

	return devices[id], nil
}
