package tensor

import "github.com/DifferentiableUniverseInitiative/addons/internal/kernels"

// Backend is the execution strategy for the resampler ops. A backend must
// reproduce the semantics documented on the op layer exactly; the CPU
// implementation is the reference, an accelerator backend must match its
// numerics (floating-point accumulation order excepted).
//
// Shape validation happens in the op layer before dispatch: backends may
// assume rank-4 NHWC data, a warp whose last dimension is 2 with matching
// batch size, and (for ResampleGrad) an upstream gradient shaped like the
// forward output. Backends allocate and return fresh output buffers and
// never mutate their inputs.
type Backend interface {
	// Resample evaluates the separable 2D interpolation of data at the
	// warp coordinates using the given kernel, with implicit zero padding
	// outside the image bounds.
	Resample(data, warp *RawTensor, kern kernels.Kernel) *RawTensor

	// ResampleGrad computes gradients of the bilinear forward pass with
	// respect to data and warp, given the upstream gradient of the output.
	// Both returned buffers are zero-initialized before accumulation.
	ResampleGrad(data, warp, gradOutput *RawTensor) (gradData, gradWarp *RawTensor)

	// Metadata
	Name() string
	Device() Device
}
