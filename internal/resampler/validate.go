package resampler

import "github.com/DifferentiableUniverseInitiative/addons/internal/tensor"

// checkForwardShapes enforces the invariants the backends assume:
// rank(data) == 4, rank(warp) >= 2, warp's trailing dimension == 2, and
// matching batch sizes. Execution never proceeds past a failed check.
func checkForwardShapes(dataShape, warpShape tensor.Shape) error {
	if len(dataShape) != 4 {
		return unimplementedf(
			"only bilinear interpolation is currently supported, the data shape must be "+
				"[batch_size, data_height, data_width, data_channels], but is %v", dataShape)
	}
	if len(warpShape) < 2 {
		return invalidArgumentf("warp should be at least a matrix, got shape %v", warpShape)
	}
	if warpShape[len(warpShape)-1] != 2 {
		return unimplementedf(
			"only bilinear interpolation is supported, warping coordinates must be 2D; "+
				"warp shape last entry should be 2, but shape vector is %v", warpShape)
	}
	if dataShape[0] != warpShape[0] {
		return invalidArgumentf(
			"batch size of data and warp tensor must be the same, but input shapes are %v, %v",
			dataShape, warpShape)
	}
	return nil
}

// checkBackwardShapes additionally requires gradOutput to be shaped like
// the output the forward op would have produced.
func checkBackwardShapes(dataShape, warpShape, gradOutputShape tensor.Shape) error {
	if err := checkForwardShapes(dataShape, warpShape); err != nil {
		return err
	}

	outputShape := warpShape.Clone()
	outputShape[len(outputShape)-1] = dataShape[3]
	if !gradOutputShape.Equal(outputShape) {
		return invalidArgumentf(
			"grad_output shape is not consistent with data and warp shapes; "+
				"it should be %v but is %v", outputShape, gradOutputShape)
	}
	return nil
}
