// Command resample warps an image file through the resampler op.
//
// It builds an inverse-affine warp field (rotation, scaling and
// translation about the image center) and samples the input image through
// it with the selected kernel:
//
//	resample -input in.png -output out.png -kernel lanczos3 -angle 30 -scale 1.5
package main

import (
	"flag"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"k8s.io/klog/v2"

	"github.com/DifferentiableUniverseInitiative/addons/backend/cpu"
	"github.com/DifferentiableUniverseInitiative/addons/resampler"
	"github.com/DifferentiableUniverseInitiative/addons/tensor"
)

func main() {
	input := flag.String("input", "", "input image path")
	output := flag.String("output", "resampled.png", "output image path")
	kernel := flag.String("kernel", "keyscubic", "sampling kernel (lanczos1, lanczos3, lanczos5, gaussian, box, triangle, keyscubic, mitchellcubic)")
	angle := flag.Float64("angle", 0, "rotation angle in degrees, counter-clockwise about the center")
	scale := flag.Float64("scale", 1, "zoom factor about the center")
	tx := flag.Float64("tx", 0, "horizontal translation in pixels")
	ty := flag.Float64("ty", 0, "vertical translation in pixels")
	klog.InitFlags(nil)
	flag.Parse()

	if *input == "" {
		klog.Exit("missing -input")
	}
	if *scale == 0 {
		klog.Exit("-scale must be nonzero")
	}

	backend := cpu.New()
	op, err := resampler.New(*kernel, backend)
	if err != nil {
		klog.Exitf("building operator: %v", err)
	}

	src, err := imaging.Open(*input)
	if err != nil {
		klog.Exitf("opening %s: %v", *input, err)
	}
	nrgba := imaging.Clone(src)
	bounds := nrgba.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	klog.Infof("resampling %s (%dx%d) with kernel %s", *input, width, height, op.KernelType())

	data := imageToTensor(nrgba, backend)
	warp := affineWarp(width, height, *angle, *scale, *tx, *ty, backend)

	out, err := resampler.Resample(op, data, warp)
	if err != nil {
		klog.Exitf("resampling: %v", err)
	}

	if err := imaging.Save(tensorToImage(out, width, height), *output); err != nil {
		klog.Exitf("saving %s: %v", *output, err)
	}
	klog.Infof("wrote %s", *output)
}

// imageToTensor converts an NRGBA image to a [1, H, W, 4] float32 tensor
// with channel values in [0, 1].
func imageToTensor(img *image.NRGBA, backend *cpu.Backend) *tensor.Tensor[float32, *cpu.Backend] {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	t := tensor.Zeros[float32](tensor.Shape{1, height, width, 4}, backend)
	data := t.Data()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix := img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			base := (y*width + x) * 4
			data[base+0] = float32(pix.R) / 255
			data[base+1] = float32(pix.G) / 255
			data[base+2] = float32(pix.B) / 255
			data[base+3] = float32(pix.A) / 255
		}
	}
	return t
}

// affineWarp builds a [1, H, W, 2] warp field holding, for every output
// pixel, the source coordinate under the inverse of the requested affine
// transform. Coordinates falling outside the source image simply resolve
// through the resampler's implicit zero padding.
func affineWarp(width, height int, angle, scale, tx, ty float64, backend *cpu.Backend) *tensor.Tensor[float32, *cpu.Backend] {
	theta := angle * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	cx := float64(width-1) / 2
	cy := float64(height-1) / 2

	t := tensor.Zeros[float32](tensor.Shape{1, height, width, 2}, backend)
	data := t.Data()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// Output pixel relative to the center, with the forward
			// translation removed, then unrotated and unscaled.
			dx := (float64(x) - tx - cx) / scale
			dy := (float64(y) - ty - cy) / scale
			srcX := cx + dx*cos - dy*sin
			srcY := cy + dx*sin + dy*cos

			base := (y*width + x) * 2
			data[base+0] = float32(srcX)
			data[base+1] = float32(srcY)
		}
	}
	return t
}

// tensorToImage converts a [1, H, W, 4] float32 tensor with values in
// [0, 1] back to an NRGBA image, clamping out-of-range values.
func tensorToImage(t *tensor.Tensor[float32, *cpu.Backend], width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	data := t.Data()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			base := (y*width + x) * 4
			off := img.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				img.Pix[off+c] = clampByte(data[base+c])
			}
		}
	}
	return img
}

func clampByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
