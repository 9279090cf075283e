// Package kernels provides the catalog of 1D sampling kernels used by the
// 2D resampler. A kernel is described by a finite support radius and a
// weight function evaluated on the fractional offset between a candidate
// pixel and the sampling coordinate; the resampler combines two 1D
// evaluations into a separable 2D weight.
package kernels

import (
	"math"
	"strings"
)

// SamplingKernelType identifies one of the supported kernel families.
type SamplingKernelType int

// Supported kernel types.
const (
	Lanczos1 SamplingKernelType = iota
	Lanczos3
	Lanczos5
	Gaussian
	Box
	Triangle
	KeysCubic
	MitchellCubic
	// Unrecognized is the sentinel returned by FromString for unknown names.
	// Operators must refuse to build when they resolve to it.
	Unrecognized
)

// String returns the canonical lower-case name of the kernel type.
func (k SamplingKernelType) String() string {
	switch k {
	case Lanczos1:
		return "lanczos1"
	case Lanczos3:
		return "lanczos3"
	case Lanczos5:
		return "lanczos5"
	case Gaussian:
		return "gaussian"
	case Box:
		return "box"
	case Triangle:
		return "triangle"
	case KeysCubic:
		return "keyscubic"
	case MitchellCubic:
		return "mitchellcubic"
	default:
		return "unrecognized"
	}
}

// FromString resolves a kernel name to its SamplingKernelType.
// Matching is case-insensitive; unknown names resolve to Unrecognized.
func FromString(name string) SamplingKernelType {
	switch strings.ToLower(name) {
	case "lanczos1":
		return Lanczos1
	case "lanczos3":
		return Lanczos3
	case "lanczos5":
		return Lanczos5
	case "gaussian":
		return Gaussian
	case "box":
		return Box
	case "triangle":
		return Triangle
	case "keyscubic":
		return KeysCubic
	case "mitchellcubic":
		return MitchellCubic
	default:
		return Unrecognized
	}
}

// Kernel is an immutable sampling kernel descriptor.
//
// Weight(x) is zero for |x| >= Radius() (finite support), so the resampler
// only needs to visit candidate pixels within ceil(Radius()) of the floor
// coordinate.
type Kernel interface {
	// Radius returns the support radius in pixels.
	Radius() float64
	// Weight evaluates the kernel at offset x.
	Weight(x float64) float64
}

// New builds the kernel descriptor for the given type.
// Panics on Unrecognized; callers resolve names via FromString first.
func New(kt SamplingKernelType) Kernel {
	switch kt {
	case Lanczos1:
		return lanczosKernel{radius: 1}
	case Lanczos3:
		return lanczosKernel{radius: 3}
	case Lanczos5:
		return lanczosKernel{radius: 5}
	case Gaussian:
		return newGaussianKernel(1.5)
	case Box:
		return boxKernel{}
	case Triangle:
		return triangleKernel{}
	case KeysCubic:
		return keysCubicKernel{}
	case MitchellCubic:
		return mitchellCubicKernel{}
	default:
		panic("kernels: cannot build kernel for unrecognized type")
	}
}

// lanczosKernel is the windowed-sinc family: sinc(x) * sinc(x/radius)
// inside the support, with the sin(x)/x limit handled near zero.
type lanczosKernel struct {
	radius float64
}

func (k lanczosKernel) Radius() float64 { return k.radius }

func (k lanczosKernel) Weight(x float64) float64 {
	x = math.Abs(x)
	if x > k.radius {
		return 0
	}
	if x <= 1e-3 {
		return 1
	}
	return k.radius * math.Sin(math.Pi*x) * math.Sin(math.Pi*x/k.radius) /
		(math.Pi * math.Pi * x * x)
}

// gaussianKernel uses sigma = radius/3 so the truncation at the support
// edge happens three standard deviations out.
type gaussianKernel struct {
	radius float64
	sigma  float64
}

func newGaussianKernel(radius float64) gaussianKernel {
	return gaussianKernel{radius: radius, sigma: radius / 3}
}

func (k gaussianKernel) Radius() float64 { return k.radius }

func (k gaussianKernel) Weight(x float64) float64 {
	x = math.Abs(x)
	if x >= k.radius {
		return 0
	}
	return math.Exp(-x * x / (2 * k.sigma * k.sigma))
}

// boxKernel averages with equal weight over a unit-wide window; samples
// exactly on the window edge get half weight.
type boxKernel struct{}

func (boxKernel) Radius() float64 { return 1 }

func (boxKernel) Weight(x float64) float64 {
	x = math.Abs(x)
	switch {
	case x < 0.5:
		return 1
	case x == 0.5:
		return 0.5
	default:
		return 0
	}
}

// triangleKernel is the linear "tent" kernel. With its radius of 1 the
// separable 2D product reduces the resampler to bilinear interpolation.
type triangleKernel struct{}

func (triangleKernel) Radius() float64 { return 1 }

func (triangleKernel) Weight(x float64) float64 {
	x = math.Abs(x)
	if x < 1 {
		return 1 - x
	}
	return 0
}

// keysCubicKernel is Keys' cubic convolution kernel with a = -0.5.
//
// R. G. Keys. Cubic convolution interpolation for digital image
// processing. IEEE Trans. Acoust., Speech, Signal Processing, 1981.
type keysCubicKernel struct{}

func (keysCubicKernel) Radius() float64 { return 2 }

func (keysCubicKernel) Weight(x float64) float64 {
	x = math.Abs(x)
	switch {
	case x >= 2:
		return 0
	case x >= 1:
		return ((-0.5*x+2.5)*x-4)*x + 2
	default:
		return ((1.5*x-2.5)*x)*x + 1
	}
}

// mitchellCubicKernel is the Mitchell-Netravali cubic with B = C = 1/3.
//
// D. P. Mitchell and A. N. Netravali. Reconstruction filters in computer
// graphics. SIGGRAPH 1988.
type mitchellCubicKernel struct{}

func (mitchellCubicKernel) Radius() float64 { return 2 }

func (mitchellCubicKernel) Weight(x float64) float64 {
	x = math.Abs(x)
	switch {
	case x >= 2:
		return 0
	case x >= 1:
		return (((-7.0/18.0)*x+2)*x-10.0/3.0)*x + 16.0/9.0
	default:
		return (((7.0/6.0)*x-2)*x)*x + 8.0/9.0
	}
}
