package vision

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"
)

// NormalizeColor converts a 3-channel colour frame into a [1, height, width, 3]
// tensor. The frame is resampled to the requested size with a deterministic
// bilinear kernel. When clipMax is positive the result is clipped to
// [0, clipMax] and divided by clipMax; otherwise values pass through in native
// sensor units.
func NormalizeColor(f Frame, width, height int, clipMax float64) (Tensor, error) {
	if err := f.Validate(3); err != nil {
		return Tensor{}, err
	}

	resized := resizeColor(f, width, height)
	clipAndScale(resized.Data, clipMax)
	return resized, nil
}

// NormalizeDepth converts a single-channel depth frame into a
// [1, height, width, 1] tensor. NaN and infinite samples are replaced with 0
// before resampling so they cannot propagate into the agent's state. Clipping
// behaves as in NormalizeColor.
func NormalizeDepth(f Frame, width, height int, clipMax float64) (Tensor, error) {
	if err := f.Validate(1); err != nil {
		return Tensor{}, err
	}

	data := make([]float64, len(f.Data))
	for i, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue // leave as zero
		}
		data[i] = v
	}
	clean := Frame{Width: f.Width, Height: f.Height, Channels: 1, Data: data}

	resized := resizeDepth(clean, width, height)
	clipAndScale(resized.Data, clipMax)
	return resized, nil
}

// clipAndScale clips in place to [0, clipMax] then rescales to [0,1].
// A non-positive clipMax disables normalization.
func clipAndScale(data []float64, clipMax float64) {
	if clipMax <= 0 {
		return
	}
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		} else if v > clipMax {
			data[i] = clipMax
		}
	}
	floats.Scale(1/clipMax, data)
}

// resizeColor resamples a colour frame via the x/image bilinear scaler.
// A same-size input is copied through untouched so the pipeline is exactly
// idempotent on already-sized frames.
func resizeColor(f Frame, width, height int) Tensor {
	out := NewTensor(height, width, 3)
	if f.Width == width && f.Height == height {
		copy(out.Data, f.Data)
		return out
	}

	src := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			i := src.PixOffset(x, y)
			src.Pix[i+0] = clampByte(f.At(x, y, 0))
			src.Pix[i+1] = clampByte(f.At(x, y, 1))
			src.Pix[i+2] = clampByte(f.At(x, y, 2))
			src.Pix[i+3] = 0xff
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := dst.PixOffset(x, y)
			out.Set(y, x, 0, float64(dst.Pix[i+0]))
			out.Set(y, x, 1, float64(dst.Pix[i+1]))
			out.Set(y, x, 2, float64(dst.Pix[i+2]))
		}
	}
	return out
}

// resizeDepth bilinearly resamples a single-channel float frame. The x/image
// scalers only operate on integer pixel formats, which would quantise metric
// depth, so the interpolation is done directly on the float samples.
func resizeDepth(f Frame, width, height int) Tensor {
	out := NewTensor(height, width, 1)
	if f.Width == width && f.Height == height {
		copy(out.Data, f.Data)
		return out
	}

	xScale := float64(f.Width) / float64(width)
	yScale := float64(f.Height) / float64(height)

	for y := 0; y < height; y++ {
		srcY := (float64(y)+0.5)*yScale - 0.5
		y0 := int(math.Floor(srcY))
		fy := srcY - float64(y0)
		y1 := y0 + 1
		y0 = clampIndex(y0, f.Height)
		y1 = clampIndex(y1, f.Height)

		for x := 0; x < width; x++ {
			srcX := (float64(x)+0.5)*xScale - 0.5
			x0 := int(math.Floor(srcX))
			fx := srcX - float64(x0)
			x1 := x0 + 1
			x0 = clampIndex(x0, f.Width)
			x1 = clampIndex(x1, f.Width)

			top := f.At(x0, y0, 0)*(1-fx) + f.At(x1, y0, 0)*fx
			bot := f.At(x0, y1, 0)*(1-fx) + f.At(x1, y1, 0)*fx
			out.Set(y, x, 0, top*(1-fy)+bot*fy)
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
