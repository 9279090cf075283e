// Package cpu implements the CPU execution backend for the resampler ops.
package cpu

import (
	"github.com/DifferentiableUniverseInitiative/addons/internal/parallel"
	"github.com/DifferentiableUniverseInitiative/addons/internal/tensor"
)

// costPerUnit is the estimated cost, in parallel-for cost units (~1ns), of
// resampling one output scalar. The per-batch-element cost handed to the
// work partitioner is numSamplingPoints * channels * costPerUnit.
const costPerUnit = 1000

// CPUBackend implements the resampler ops on CPU, parallelized over the
// batch dimension.
type CPUBackend struct {
	device tensor.Device
	pcfg   parallel.Config
}

// New creates a new CPU backend with default parallelism.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		pcfg:   parallel.DefaultConfig(),
	}
}

// NewWithConfig creates a CPU backend with explicit parallel configuration.
// Useful for tests and for pinning worker counts.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		pcfg:   cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}
