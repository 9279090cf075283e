// Copyright 2025 The Addons Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for the resampler ops.
//
// The backend parallelizes over the batch dimension with a cost-hinted
// work partitioner; samples within one batch element always stay on one
// worker, so no locking is needed anywhere.
package cpu

import (
	internalcpu "github.com/DifferentiableUniverseInitiative/addons/internal/backend/cpu"
	"github.com/DifferentiableUniverseInitiative/addons/internal/parallel"
	"github.com/DifferentiableUniverseInitiative/addons/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// Config controls the backend's parallel execution.
type Config = parallel.Config

// New creates a new CPU backend with default parallelism.
//
// Example:
//
//	backend := cpu.New()
//	op, err := resampler.New("keyscubic", backend)
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit parallel configuration.
func NewWithConfig(cfg Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}
