package cpu

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/DifferentiableUniverseInitiative/addons/internal/kernels"
	"github.com/DifferentiableUniverseInitiative/addons/internal/parallel"
	"github.com/DifferentiableUniverseInitiative/addons/internal/tensor"
)

// Hand-derived gradients for the canonical center sample on [[1,2],[3,4]]:
// dx = dy = 0.5, all four corner weights are 1/4, and the warp gradients
// are the image's horizontal and vertical differences.
func TestResampleGrad_CenterSample(t *testing.T) {
	cpu := sequentialBackend()
	data := rawFloat32(t, tensor.Shape{1, 2, 2, 1}, []float32{1, 2, 3, 4})
	warp := rawFloat32(t, tensor.Shape{1, 1, 2}, []float32{0.5, 0.5})
	gradOutput := rawFloat32(t, tensor.Shape{1, 1, 1}, []float32{1})

	gradData, gradWarp := cpu.ResampleGrad(data, warp, gradOutput)

	require.True(t, gradData.Shape().Equal(data.Shape()))
	require.True(t, gradWarp.Shape().Equal(warp.Shape()))

	for i, v := range gradData.AsFloat32() {
		assert.InDelta(t, 0.25, v, 1e-6, "gradData[%d]", i)
	}
	gw := gradWarp.AsFloat32()
	assert.InDelta(t, 1.0, gw[0], 1e-6, "d/dx")
	assert.InDelta(t, 2.0, gw[1], 1e-6, "d/dy")
}

// Upstream gradient scales all gradients linearly.
func TestResampleGrad_ScalesWithUpstream(t *testing.T) {
	cpu := sequentialBackend()
	data := rawFloat32(t, tensor.Shape{1, 2, 2, 1}, []float32{1, 2, 3, 4})
	warp := rawFloat32(t, tensor.Shape{1, 1, 2}, []float32{0.5, 0.5})
	gradOutput := rawFloat32(t, tensor.Shape{1, 1, 1}, []float32{-2})

	gradData, gradWarp := cpu.ResampleGrad(data, warp, gradOutput)

	for i, v := range gradData.AsFloat32() {
		assert.InDelta(t, -0.5, v, 1e-6, "gradData[%d]", i)
	}
	assert.InDelta(t, -2.0, gradWarp.AsFloat32()[0], 1e-6)
	assert.InDelta(t, -4.0, gradWarp.AsFloat32()[1], 1e-6)
}

func TestResampleGrad_OutOfWindowNoGradient(t *testing.T) {
	cpu := sequentialBackend()
	data := rawFloat32(t, tensor.Shape{1, 2, 2, 1}, []float32{1, 2, 3, 4})
	warp := rawFloat32(t, tensor.Shape{1, 3, 2}, []float32{
		-1, 0.5,
		5, 5,
		0.5, -3,
	})
	gradOutput := rawFloat32(t, tensor.Shape{1, 3, 1}, []float32{1, 1, 1})

	gradData, gradWarp := cpu.ResampleGrad(data, warp, gradOutput)

	for i, v := range gradData.AsFloat32() {
		assert.Zero(t, v, "gradData[%d]", i)
	}
	for i, v := range gradWarp.AsFloat32() {
		assert.Zero(t, v, "gradWarp[%d]", i)
	}
}

// Corners that land in the implicit padding receive no gradient; the
// in-bounds corners still do.
func TestResampleGrad_PaddingCornersSkipped(t *testing.T) {
	cpu := sequentialBackend()
	data := rawFloat32(t, tensor.Shape{1, 2, 2, 1}, []float32{1, 2, 3, 4})
	// x in (-1, 0): floor corner column is -1, ceil corner column is 0.
	warp := rawFloat32(t, tensor.Shape{1, 1, 2}, []float32{-0.5, 0.5})
	gradOutput := rawFloat32(t, tensor.Shape{1, 1, 1}, []float32{1})

	gradData, _ := cpu.ResampleGrad(data, warp, gradOutput)

	gd := gradData.AsFloat32()
	// dx = 0 - (-0.5) = 0.5, dy = 0.5. Only the cx column (x=0) is in
	// bounds: (0,0) gets (1-dx)(1-dy) = 0.25, (0,1) gets (1-dx)dy = 0.25.
	assert.InDelta(t, 0.25, gd[0], 1e-6) // pixel (x=0, y=0)
	assert.Zero(t, gd[1])                // pixel (x=1, y=0)
	assert.InDelta(t, 0.25, gd[2], 1e-6) // pixel (x=0, y=1)
	assert.Zero(t, gd[3])                // pixel (x=1, y=1)
}

// Multiple samples scatter-add into the same source pixels.
func TestResampleGrad_ScatterAccumulates(t *testing.T) {
	cpu := sequentialBackend()
	data := rawFloat32(t, tensor.Shape{1, 2, 2, 1}, []float32{1, 2, 3, 4})
	warp := rawFloat32(t, tensor.Shape{1, 2, 2}, []float32{
		0.5, 0.5,
		0.5, 0.5,
	})
	gradOutput := rawFloat32(t, tensor.Shape{1, 2, 1}, []float32{1, 1})

	gradData, gradWarp := cpu.ResampleGrad(data, warp, gradOutput)

	for i, v := range gradData.AsFloat32() {
		assert.InDelta(t, 0.5, v, 1e-6, "gradData[%d]", i)
	}
	assert.InDelta(t, 2.0, gradWarp.AsFloat32()[0], 1e-6)
	assert.InDelta(t, 4.0, gradWarp.AsFloat32()[1], 1e-6)
}

// Central-difference check of the warp gradients against the bilinear
// (triangle kernel) forward pass, and of the data gradients against the
// forward pass's linearity in the image.
func TestResampleGrad_FiniteDifference(t *testing.T) {
	const (
		batch    = 2
		height   = 5
		width    = 6
		channels = 3
		samples  = 9
		eps      = 1e-6
	)

	cpu := sequentialBackend()
	rng := rand.New(rand.NewSource(42))
	kern := kernels.New(kernels.Triangle)

	dataVals := make([]float64, batch*height*width*channels)
	for i := range dataVals {
		dataVals[i] = rng.Float64()*4 - 2
	}
	// In-bounds coordinates kept clear of integers so the finite
	// difference never straddles a floor discontinuity.
	warpVals := make([]float64, batch*samples*2)
	for s := 0; s < batch*samples; s++ {
		warpVals[s*2] = 0.2 + rng.Float64()*0.6 + float64(rng.Intn(width-1))
		warpVals[s*2+1] = 0.2 + rng.Float64()*0.6 + float64(rng.Intn(height-1))
	}
	gradOutVals := make([]float64, batch*samples*channels)
	for i := range gradOutVals {
		gradOutVals[i] = rng.Float64()*2 - 1
	}

	data := rawFloat64(t, tensor.Shape{batch, height, width, channels}, dataVals)
	warp := rawFloat64(t, tensor.Shape{batch, samples, 2}, warpVals)
	gradOutput := rawFloat64(t, tensor.Shape{batch, samples, channels}, gradOutVals)

	gradData, gradWarp := cpu.ResampleGrad(data, warp, gradOutput)

	// loss = sum(output * gradOutput); its derivative with respect to any
	// input element is what the backward pass reports.
	loss := func(d, w *tensor.RawTensor) float64 {
		out := cpu.Resample(d, w, kern)
		sum := 0.0
		for i, v := range out.AsFloat64() {
			sum += v * gradOutVals[i]
		}
		return sum
	}

	// Warp gradients.
	gw := gradWarp.AsFloat64()
	for i := 0; i < len(warpVals); i++ {
		perturbed := warp.Clone()
		perturbed.AsFloat64()[i] = warpVals[i] + eps
		plus := loss(data, perturbed)
		perturbed.AsFloat64()[i] = warpVals[i] - eps
		minus := loss(data, perturbed)

		numeric := (plus - minus) / (2 * eps)
		assert.InDelta(t, numeric, gw[i], 1e-4, "gradWarp[%d]", i)
	}

	// Data gradients (forward is linear in the image, so a sparse probe
	// of pixels suffices).
	gd := gradData.AsFloat64()
	for i := 0; i < len(dataVals); i += 17 {
		perturbed := data.Clone()
		perturbed.AsFloat64()[i] = dataVals[i] + eps
		plus := loss(perturbed, warp)
		perturbed.AsFloat64()[i] = dataVals[i] - eps
		minus := loss(perturbed, warp)

		numeric := (plus - minus) / (2 * eps)
		assert.InDelta(t, numeric, gd[i], 1e-4, "gradData[%d]", i)
	}
}

func TestResampleGrad_ZeroSizedInputs(t *testing.T) {
	cpu := sequentialBackend()

	data, err := tensor.NewRaw(tensor.Shape{0, 4, 4, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	warp, err := tensor.NewRaw(tensor.Shape{0, 5, 2}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	gradOutput, err := tensor.NewRaw(tensor.Shape{0, 5, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	gradData, gradWarp := cpu.ResampleGrad(data, warp, gradOutput)

	assert.True(t, gradData.Shape().Equal(data.Shape()))
	assert.True(t, gradWarp.Shape().Equal(warp.Shape()))
}

func TestResampleGrad_Float16(t *testing.T) {
	cpu := sequentialBackend()

	data, err := tensor.NewRaw(tensor.Shape{1, 2, 2, 1}, tensor.Float16, tensor.CPU)
	require.NoError(t, err)
	for i, v := range []float32{1, 2, 3, 4} {
		data.AsFloat16()[i] = float16.Fromfloat32(v)
	}
	warp, err := tensor.NewRaw(tensor.Shape{1, 1, 2}, tensor.Float16, tensor.CPU)
	require.NoError(t, err)
	warp.AsFloat16()[0] = float16.Fromfloat32(0.5)
	warp.AsFloat16()[1] = float16.Fromfloat32(0.5)
	gradOutput, err := tensor.NewRaw(tensor.Shape{1, 1, 1}, tensor.Float16, tensor.CPU)
	require.NoError(t, err)
	gradOutput.AsFloat16()[0] = float16.Fromfloat32(1)

	gradData, gradWarp := cpu.ResampleGrad(data, warp, gradOutput)

	require.Equal(t, tensor.Float16, gradData.DType())
	for i := range 4 {
		assert.InDelta(t, 0.25, gradData.AsFloat16()[i].Float32(), 1e-2, "gradData[%d]", i)
	}
	assert.InDelta(t, 1.0, gradWarp.AsFloat16()[0].Float32(), 1e-2)
	assert.InDelta(t, 2.0, gradWarp.AsFloat16()[1].Float32(), 1e-2)
}

func TestResampleGrad_ParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	const (
		batch    = 12
		height   = 4
		width    = 4
		channels = 2
		samples  = 6
	)

	dataVals := make([]float32, batch*height*width*channels)
	for i := range dataVals {
		dataVals[i] = rng.Float32()
	}
	warpVals := make([]float32, batch*samples*2)
	for i := range warpVals {
		warpVals[i] = rng.Float32()*6 - 1.5
	}
	gradOutVals := make([]float32, batch*samples*channels)
	for i := range gradOutVals {
		gradOutVals[i] = rng.Float32()
	}

	data := rawFloat32(t, tensor.Shape{batch, height, width, channels}, dataVals)
	warp := rawFloat32(t, tensor.Shape{batch, samples, 2}, warpVals)
	gradOutput := rawFloat32(t, tensor.Shape{batch, samples, channels}, gradOutVals)

	seqData, seqWarp := sequentialBackend().ResampleGrad(data, warp, gradOutput)
	parBackend := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 3, MinShardCost: 1})
	parData, parWarp := parBackend.ResampleGrad(data, warp, gradOutput)

	assert.Equal(t, seqData.AsFloat32(), parData.AsFloat32())
	assert.Equal(t, seqWarp.AsFloat32(), parWarp.AsFloat32())
}
