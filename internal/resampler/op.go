// Package resampler implements differentiable 2D image resampling at
// arbitrary floating-point coordinates.
//
// The forward op interpolates a batch of NHWC images at per-sample (x, y)
// pixel coordinates ("warp" field) using a configurable sampling kernel,
// with implicit zero padding outside the image. The backward op computes
// the analytic gradients of the bilinear forward pass with respect to both
// the image and the warp field.
//
// Example:
//
//	backend := cpu.New()
//	op, err := resampler.New("triangle", backend)
//	if err != nil {
//	    ...
//	}
//	output, err := resampler.Resample(op, data, warp)
package resampler

import (
	"github.com/DifferentiableUniverseInitiative/addons/internal/kernels"
	"github.com/DifferentiableUniverseInitiative/addons/internal/tensor"
)

// Op is a configured resampler operator. The sampling kernel is resolved
// once at construction and is immutable for the lifetime of the operator;
// everything else lives only for the duration of one call.
type Op[B tensor.Backend] struct {
	kernelType kernels.SamplingKernelType
	kernel     kernels.Kernel
	backend    B
}

// New creates a resampler operator for the given kernel name.
//
// The name is resolved case-insensitively against the kernel catalog
// (lanczos1, lanczos3, lanczos5, gaussian, box, triangle, keyscubic,
// mitchellcubic). An unrecognized name is a configuration error: the
// operator refuses to build, it never fails lazily at first invocation.
//
// The triangle kernel makes the forward pass exactly bilinear; it is the
// only configuration for which ResampleGrad computes the matching
// gradients.
func New[B tensor.Backend](kernelType string, backend B) (*Op[B], error) {
	kt := kernels.FromString(kernelType)
	if kt == kernels.Unrecognized {
		return nil, invalidArgumentf("unrecognized kernel type: %s", kernelType)
	}
	return &Op[B]{
		kernelType: kt,
		kernel:     kernels.New(kt),
		backend:    backend,
	}, nil
}

// KernelType returns the resolved sampling kernel type.
func (op *Op[B]) KernelType() kernels.SamplingKernelType {
	return op.kernelType
}

// Kernel returns the operator's kernel descriptor.
func (op *Op[B]) Kernel() kernels.Kernel {
	return op.kernel
}

// Resample runs the forward op.
//
// data is [batch, height, width, channels], warp is [batch, ..., 2]; the
// output has the warp's leading shape with the last dimension replaced by
// channels. Inputs are read-only; the result is a freshly allocated
// tensor.
//
// Returns an Unimplemented error when data is not rank 4 or the warp's
// trailing dimension is not 2, and an InvalidArgument error on the other
// shape mismatches. A degenerate call (data or warp has zero elements) is
// a valid no-op: the output is allocated with the correct, possibly
// zero-sized, shape and no per-element work is dispatched.
func Resample[T tensor.DType, B tensor.Backend](op *Op[B], data, warp *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	if err := checkForwardShapes(data.Shape(), warp.Shape()); err != nil {
		return nil, err
	}

	raw := op.backend.Resample(data.Raw(), warp.Raw(), op.kernel)
	return tensor.New[T, B](raw, op.backend), nil
}

// ResampleGrad runs the backward op, returning the gradients with respect
// to data and warp given the upstream gradient of the forward output.
//
// The gradients are the exact partial derivatives of the bilinear forward
// pass; they match Resample only under the triangle kernel. gradOutput
// must have the shape the forward op would have produced. Both returned
// tensors mirror their input shapes exactly.
func ResampleGrad[T tensor.DType, B tensor.Backend](op *Op[B], data, warp, gradOutput *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], *tensor.Tensor[T, B], error) {
	if err := checkBackwardShapes(data.Shape(), warp.Shape(), gradOutput.Shape()); err != nil {
		return nil, nil, err
	}

	rawData, rawWarp := op.backend.ResampleGrad(data.Raw(), warp.Raw(), gradOutput.Raw())
	return tensor.New[T, B](rawData, op.backend), tensor.New[T, B](rawWarp, op.backend), nil
}
