package cpu

import (
	"fmt"
	"math"

	"github.com/DifferentiableUniverseInitiative/addons/internal/parallel"
	"github.com/DifferentiableUniverseInitiative/addons/internal/tensor"
)

// ResampleGrad computes gradients of the bilinear forward pass with respect
// to both data and warp, given the upstream gradient of the output.
//
// The analytic derivatives are those of bilinear interpolation
//
//	out = I_ff*dx*dy + I_cc*(1-dx)*(1-dy) + I_fc*dx*(1-dy) + I_cf*(1-dx)*dy
//
// with fx=floor(x), fy=floor(y), cx=fx+1, cy=fy+1, dx=cx-x, dy=cy-y and
// I_ab the pixel at (a, b), zero outside the image. Differentiating in x
// (note d(dx)/dx = -1) and in y yields the warp gradients accumulated
// below; the data gradients are the four bilinear corner weights. The
// derivation only holds for this kernel, so the backward pass is valid
// solely for the bilinear (triangle) forward configuration.
//
// Both gradient buffers are zero-initialized and accumulated into, since
// multiple samples may scatter-add into the same source pixel. Samples
// outside the validity window contribute no gradient at all, and corner
// pixels in the implicit padding are skipped.
func (cpu *CPUBackend) ResampleGrad(data, warp, gradOutput *tensor.RawTensor) (*tensor.RawTensor, *tensor.RawTensor) {
	batchSize, height, width, channels, numSamplingPoints := resamplerDims(data, warp)

	gradData, err := tensor.NewRaw(data.Shape(), data.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("resample grad: failed to create data gradient: %v", err))
	}
	gradWarp, err := tensor.NewRaw(warp.Shape(), warp.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("resample grad: failed to create warp gradient: %v", err))
	}
	if data.NumElements() == 0 || warp.NumElements() == 0 {
		return gradData, gradWarp
	}

	switch data.DType() {
	case tensor.Float32:
		resampleGrad(gradData.AsFloat32(), gradWarp.AsFloat32(),
			data.AsFloat32(), warp.AsFloat32(), gradOutput.AsFloat32(),
			batchSize, height, width, channels, numSamplingPoints, cpu.pcfg)
	case tensor.Float64:
		resampleGrad(gradData.AsFloat64(), gradWarp.AsFloat64(),
			data.AsFloat64(), warp.AsFloat64(), gradOutput.AsFloat64(),
			batchSize, height, width, channels, numSamplingPoints, cpu.pcfg)
	case tensor.Float16:
		gd32 := make([]float32, gradData.NumElements())
		gw32 := make([]float32, gradWarp.NumElements())
		resampleGrad(gd32, gw32,
			halfToFloat32(data.AsFloat16()), halfToFloat32(warp.AsFloat16()),
			halfToFloat32(gradOutput.AsFloat16()),
			batchSize, height, width, channels, numSamplingPoints, cpu.pcfg)
		float32ToHalf(gradData.AsFloat16(), gd32)
		float32ToHalf(gradWarp.AsFloat16(), gw32)
	default:
		panic(fmt.Sprintf("resample grad: unsupported dtype %s", data.DType()))
	}

	return gradData, gradWarp
}

// resampleGrad is the typed backward core. Work is partitioned over the
// batch dimension; gradient buffers are laid out per batch element, so
// shards never write to overlapping ranges and no locking is needed. The
// scatter-adds within one batch element stay in a single shard.
func resampleGrad[T floatType](gradData, gradWarp, data, warp, gradOutput []T,
	batchSize, height, width, channels, numSamplingPoints int,
	cfg parallel.Config,
) {
	dataBatchStride := height * width * channels
	warpBatchStride := numSamplingPoints * 2
	outputBatchStride := numSamplingPoints * channels

	work := func(start, limit int) {
		for batchID := start; batchID < limit; batchID++ {
			dataB := data[batchID*dataBatchStride : (batchID+1)*dataBatchStride]
			warpB := warp[batchID*warpBatchStride : (batchID+1)*warpBatchStride]
			gradOutB := gradOutput[batchID*outputBatchStride : (batchID+1)*outputBatchStride]
			gradDataB := gradData[batchID*dataBatchStride : (batchID+1)*dataBatchStride]
			gradWarpB := gradWarp[batchID*warpBatchStride : (batchID+1)*warpBatchStride]

			getDataPoint := func(x, y, c int) float64 {
				if x < 0 || y < 0 || x > width-1 || y > height-1 {
					return 0 // implicit padding
				}
				return float64(dataB[channels*(y*width+x)+c])
			}

			updateGradData := func(x, y, c int, value float64) {
				if x < 0 || y < 0 || x > width-1 || y > height-1 {
					return // padding contributes no gradient
				}
				gradDataB[channels*(y*width+x)+c] += T(value)
			}

			for sampleID := 0; sampleID < numSamplingPoints; sampleID++ {
				x := float64(warpB[sampleID*2])
				y := float64(warpB[sampleID*2+1])

				// Same validity window as the forward pass; outside it the
				// output is constant zero and no gradient flows.
				if !(x > -1 && y > -1 && x < float64(width) && y < float64(height)) {
					continue
				}

				fx := int(math.Floor(x))
				fy := int(math.Floor(y))
				cx := fx + 1
				cy := fy + 1
				dx := float64(cx) - x
				dy := float64(cy) - y

				gradX := 0.0
				gradY := 0.0
				for c := 0; c < channels; c++ {
					g := float64(gradOutB[sampleID*channels+c])
					imgFF := getDataPoint(fx, fy, c)
					imgCC := getDataPoint(cx, cy, c)
					imgFC := getDataPoint(fx, cy, c)
					imgCF := getDataPoint(cx, fy, c)

					gradX += g * ((1-dy)*(imgCC-imgFC) + dy*(imgCF-imgFF))
					gradY += g * ((1-dx)*(imgCC-imgCF) + dx*(imgFC-imgFF))

					updateGradData(fx, fy, c, g*dx*dy)
					updateGradData(cx, cy, c, g*(1-dx)*(1-dy))
					updateGradData(fx, cy, c, g*dx*(1-dy))
					updateGradData(cx, fy, c, g*(1-dx)*dy)
				}
				gradWarpB[sampleID*2] += T(gradX)
				gradWarpB[sampleID*2+1] += T(gradY)
			}
		}
	}

	cost := int64(numSamplingPoints) * int64(channels) * costPerUnit
	parallel.ForRange(batchSize, cost, work, cfg)
}
