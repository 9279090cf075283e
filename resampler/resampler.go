// Copyright 2025 The Addons Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package resampler provides the public API for differentiable 2D image
// resampling.
//
// The forward op interpolates a batch of NHWC images at arbitrary
// floating-point (x, y) pixel coordinates using a configurable sampling
// kernel, with implicit zero padding outside the image. The backward op
// computes analytic gradients of the bilinear forward pass with respect to
// both the image and the warp field.
//
// Example:
//
//	backend := cpu.New()
//	op, err := resampler.New("triangle", backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	output, err := resampler.Resample(op, data, warp)
package resampler

import (
	"github.com/DifferentiableUniverseInitiative/addons/internal/kernels"
	"github.com/DifferentiableUniverseInitiative/addons/internal/resampler"
	"github.com/DifferentiableUniverseInitiative/addons/tensor"
)

// SamplingKernelType identifies one of the supported kernel families.
type SamplingKernelType = kernels.SamplingKernelType

// Supported kernel types.
const (
	Lanczos1      SamplingKernelType = kernels.Lanczos1
	Lanczos3      SamplingKernelType = kernels.Lanczos3
	Lanczos5      SamplingKernelType = kernels.Lanczos5
	Gaussian      SamplingKernelType = kernels.Gaussian
	Box           SamplingKernelType = kernels.Box
	Triangle      SamplingKernelType = kernels.Triangle
	KeysCubic     SamplingKernelType = kernels.KeysCubic
	MitchellCubic SamplingKernelType = kernels.MitchellCubic
	// Unrecognized is the sentinel FromString returns for unknown names.
	Unrecognized SamplingKernelType = kernels.Unrecognized
)

// Kernel is an immutable sampling kernel descriptor with a finite support
// radius and a weight function.
type Kernel = kernels.Kernel

// FromString resolves a kernel name (case-insensitive) to its type,
// returning Unrecognized for unknown names.
func FromString(name string) SamplingKernelType {
	return kernels.FromString(name)
}

// Op is a configured resampler operator. The sampling kernel is resolved
// once at construction and is immutable for the operator's lifetime.
type Op[B tensor.Backend] = resampler.Op[B]

// Error is a structured op failure.
type Error = resampler.Error

// New creates a resampler operator for the given kernel name.
// An unrecognized name is a construction-time configuration error.
func New[B tensor.Backend](kernelType string, backend B) (*Op[B], error) {
	return resampler.New[B](kernelType, backend)
}

// Resample runs the forward op: data is [batch, height, width, channels],
// warp is [batch, ..., 2]; the output has the warp's leading shape with
// the last dimension replaced by channels.
func Resample[T tensor.DType, B tensor.Backend](op *Op[B], data, warp *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return resampler.Resample[T, B](op, data, warp)
}

// ResampleGrad runs the backward op, returning gradients with respect to
// data and warp. The gradients are exact for the bilinear (triangle
// kernel) forward configuration.
func ResampleGrad[T tensor.DType, B tensor.Backend](op *Op[B], data, warp, gradOutput *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
	return resampler.ResampleGrad[T, B](op, data, warp, gradOutput)
}

// IsInvalidArgument reports whether err is an invalid-argument op error.
func IsInvalidArgument(err error) bool {
	return resampler.IsInvalidArgument(err)
}

// IsUnimplemented reports whether err is an unimplemented op error.
func IsUnimplemented(err error) bool {
	return resampler.IsUnimplemented(err)
}
