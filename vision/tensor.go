package vision

import "fmt"

// Tensor is a normalized observation in NHWC layout. The leading dimension is
// always 1; it exists so observations stack directly into agent batch inputs.
type Tensor struct {
	Shape [4]int
	Data  []float64
}

// NewTensor allocates a zero tensor with shape [1, height, width, channels].
func NewTensor(height, width, channels int) Tensor {
	return Tensor{
		Shape: [4]int{1, height, width, channels},
		Data:  make([]float64, height*width*channels),
	}
}

// At returns the value at (y, x, c). Bounds are not checked.
func (t Tensor) At(y, x, c int) float64 {
	return t.Data[(y*t.Shape[2]+x)*t.Shape[3]+c]
}

// Set stores v at (y, x, c). Bounds are not checked.
func (t Tensor) Set(y, x, c int, v float64) {
	t.Data[(y*t.Shape[2]+x)*t.Shape[3]+c] = v
}

// Frame reinterprets the tensor as a raw frame, so a pipeline output can be
// fed back through the pipeline. The data slice is shared, not copied.
func (t Tensor) Frame() Frame {
	return Frame{
		Width:    t.Shape[2],
		Height:   t.Shape[1],
		Channels: t.Shape[3],
		Data:     t.Data,
	}
}

// ConcatChannels joins two tensors of identical height and width along the
// channel axis. Both inputs must come from the same capture; the pipeline
// does not attempt to align frames taken at different timesteps.
func ConcatChannels(a, b Tensor) (Tensor, error) {
	if a.Shape[1] != b.Shape[1] || a.Shape[2] != b.Shape[2] {
		return Tensor{}, fmt.Errorf("%w: cannot concat %v with %v", ErrBadFrame, a.Shape, b.Shape)
	}
	h, w := a.Shape[1], a.Shape[2]
	ca, cb := a.Shape[3], b.Shape[3]
	out := NewTensor(h, w, ca+cb)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < ca; c++ {
				out.Set(y, x, c, a.At(y, x, c))
			}
			for c := 0; c < cb; c++ {
				out.Set(y, x, ca+c, b.At(y, x, c))
			}
		}
	}
	return out, nil
}
