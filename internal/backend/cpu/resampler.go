package cpu

import (
	"fmt"
	"math"

	"github.com/x448/float16"

	"github.com/DifferentiableUniverseInitiative/addons/internal/kernels"
	"github.com/DifferentiableUniverseInitiative/addons/internal/parallel"
	"github.com/DifferentiableUniverseInitiative/addons/internal/tensor"
)

// floatType constrains the native element types of the typed resampler
// cores. Half precision is handled by converting through float32.
type floatType interface {
	~float32 | ~float64
}

// Resample evaluates the separable 2D interpolation of data at the warp
// coordinates using kern, with implicit zero padding outside the image.
//
// data is [batch, height, width, channels] (NHWC), warp is [batch, ..., 2]
// with (x, y) pixel-space coordinates in its last dimension. The output has
// the warp's leading shape with the last dimension replaced by channels.
//
// A sample participates in interpolation only while its coordinate lies
// within one unit of the zero-padded image (x > -1, y > -1, x < width,
// y < height); outside that window every channel of the sample is exactly
// zero, so the sampled signal decays smoothly to zero at the boundary
// instead of jumping.
//
// Shape validation is the op layer's responsibility; Resample panics on
// inputs that violate its preconditions.
func (cpu *CPUBackend) Resample(data, warp *tensor.RawTensor, kern kernels.Kernel) *tensor.RawTensor {
	batchSize, height, width, channels, numSamplingPoints := resamplerDims(data, warp)

	outShape := warp.Shape().Clone()
	outShape[len(outShape)-1] = channels
	output, err := tensor.NewRaw(outShape, data.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("resample: failed to create output tensor: %v", err))
	}
	if data.NumElements() == 0 || warp.NumElements() == 0 {
		return output
	}

	switch data.DType() {
	case tensor.Float32:
		resample(output.AsFloat32(), data.AsFloat32(), warp.AsFloat32(),
			batchSize, height, width, channels, numSamplingPoints, kern, cpu.pcfg)
	case tensor.Float64:
		resample(output.AsFloat64(), data.AsFloat64(), warp.AsFloat64(),
			batchSize, height, width, channels, numSamplingPoints, kern, cpu.pcfg)
	case tensor.Float16:
		out32 := make([]float32, output.NumElements())
		resample(out32, halfToFloat32(data.AsFloat16()), halfToFloat32(warp.AsFloat16()),
			batchSize, height, width, channels, numSamplingPoints, kern, cpu.pcfg)
		float32ToHalf(output.AsFloat16(), out32)
	default:
		panic(fmt.Sprintf("resample: unsupported dtype %s", data.DType()))
	}

	return output
}

// resample is the typed forward core, parallelized over the batch
// dimension. Each batch element's samples are processed entirely within
// one shard, so every output location has exactly one writer.
func resample[T floatType](output, data, warp []T,
	batchSize, height, width, channels, numSamplingPoints int,
	kern kernels.Kernel, cfg parallel.Config,
) {
	warpBatchStride := numSamplingPoints * 2
	dataBatchStride := height * width * channels
	outputBatchStride := numSamplingPoints * channels
	span := int(math.Ceil(kern.Radius()))

	work := func(start, limit int) {
		// 1D weights along each axis, reused across channels (the 2D
		// weight is their separable product).
		wx := make([]float64, 2*span+1)
		wy := make([]float64, 2*span+1)

		for batchID := start; batchID < limit; batchID++ {
			dataB := data[batchID*dataBatchStride : (batchID+1)*dataBatchStride]
			warpB := warp[batchID*warpBatchStride : (batchID+1)*warpBatchStride]
			outB := output[batchID*outputBatchStride : (batchID+1)*outputBatchStride]

			getDataPoint := func(x, y, c int) float64 {
				if x < 0 || y < 0 || x > width-1 || y > height-1 {
					return 0 // implicit padding
				}
				return float64(dataB[channels*(y*width+x)+c])
			}

			for sampleID := 0; sampleID < numSamplingPoints; sampleID++ {
				x := float64(warpB[sampleID*2])
				y := float64(warpB[sampleID*2+1])
				out := outB[sampleID*channels : (sampleID+1)*channels]

				if !(x > -1 && y > -1 && x < float64(width) && y < float64(height)) {
					for c := range out {
						out[c] = 0
					}
					continue
				}

				fx := int(math.Floor(x))
				fy := int(math.Floor(y))
				for i := -span; i <= span; i++ {
					wx[i+span] = kern.Weight(float64(fx+i) - x)
					wy[i+span] = kern.Weight(float64(fy+i) - y)
				}

				for c := 0; c < channels; c++ {
					res := 0.0
					for iny := -span; iny <= span; iny++ {
						cy := fy + iny
						for inx := -span; inx <= span; inx++ {
							cx := fx + inx
							res += getDataPoint(cx, cy, c) * wx[inx+span] * wy[iny+span]
						}
					}
					out[c] = T(res)
				}
			}
		}
	}

	cost := int64(numSamplingPoints) * int64(channels) * costPerUnit
	parallel.ForRange(batchSize, cost, work, cfg)
}

// resamplerDims extracts the common dimensions of a (data, warp) pair.
func resamplerDims(data, warp *tensor.RawTensor) (batchSize, height, width, channels, numSamplingPoints int) {
	dataShape := data.Shape()
	warpShape := warp.Shape()
	if len(dataShape) != 4 {
		panic(fmt.Sprintf("resample: data must be 4D [N,H,W,C], got %dD", len(dataShape)))
	}
	if len(warpShape) < 2 || warpShape[len(warpShape)-1] != 2 {
		panic(fmt.Sprintf("resample: warp must be [N,...,2], got %v", warpShape))
	}
	if dataShape[0] != warpShape[0] {
		panic(fmt.Sprintf("resample: batch mismatch, data %v vs warp %v", dataShape, warpShape))
	}

	batchSize = dataShape[0]
	height = dataShape[1]
	width = dataShape[2]
	channels = dataShape[3]
	numSamplingPoints = 1
	for _, dim := range warpShape[1 : len(warpShape)-1] {
		numSamplingPoints *= dim
	}
	return batchSize, height, width, channels, numSamplingPoints
}

func halfToFloat32(src []float16.Float16) []float32 {
	dst := make([]float32, len(src))
	for i, v := range src {
		dst[i] = v.Float32()
	}
	return dst
}

func float32ToHalf(dst []float16.Float16, src []float32) {
	for i, v := range src {
		dst[i] = float16.Fromfloat32(v)
	}
}
