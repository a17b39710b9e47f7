package vision

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientColorFrame(width, height int) Frame {
	f := Frame{Width: width, Height: height, Channels: 3, Data: make([]float64, width*height*3)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			f.Data[i+0] = float64(x * 255 / width)
			f.Data[i+1] = float64(y * 255 / height)
			f.Data[i+2] = 64
		}
	}
	return f
}

func rampDepthFrame(width, height int) Frame {
	f := Frame{Width: width, Height: height, Channels: 1, Data: make([]float64, width*height)}
	for i := range f.Data {
		f.Data[i] = float64(i%7) * 0.5
	}
	return f
}

func TestNormalizeColor_Shape(t *testing.T) {
	out, err := NormalizeColor(gradientColorFrame(64, 48), 320, 240, 0)
	require.NoError(t, err)
	assert.Equal(t, [4]int{1, 240, 320, 3}, out.Shape)
	assert.Len(t, out.Data, 240*320*3)
}

func TestNormalizeColor_ClipAndScale(t *testing.T) {
	f := Frame{Width: 2, Height: 1, Channels: 3, Data: []float64{0, 128, 300, 255, 10, 200}}
	out, err := NormalizeColor(f, 2, 1, 255)
	require.NoError(t, err)

	for i, v := range out.Data {
		assert.GreaterOrEqual(t, v, 0.0, "sample %d", i)
		assert.LessOrEqual(t, v, 1.0, "sample %d", i)
	}
	// 300 clips to 255 before scaling.
	assert.InDelta(t, 1.0, out.At(0, 0, 2), 1e-9)
	assert.InDelta(t, 128.0/255.0, out.At(0, 0, 1), 1e-9)
}

func TestNormalizeColor_RejectsWrongChannels(t *testing.T) {
	depth := rampDepthFrame(4, 4)
	_, err := NormalizeColor(depth, 320, 240, 0)
	assert.True(t, errors.Is(err, ErrBadFrame), "got %v", err)
}

func TestNormalizeColor_RejectsShortBuffer(t *testing.T) {
	f := Frame{Width: 4, Height: 4, Channels: 3, Data: make([]float64, 5)}
	_, err := NormalizeColor(f, 320, 240, 0)
	assert.True(t, errors.Is(err, ErrBadFrame), "got %v", err)
}

func TestNormalizeColor_ZeroSize(t *testing.T) {
	_, err := NormalizeColor(Frame{Channels: 3}, 320, 240, 0)
	assert.True(t, errors.Is(err, ErrBadFrame), "got %v", err)
}

// TestNormalizeColor_Idempotent feeds a pipeline output back through the
// pipeline with the same parameters: the result must be unchanged, so a frame
// is never degraded by accidental double processing.
func TestNormalizeColor_Idempotent(t *testing.T) {
	once, err := NormalizeColor(gradientColorFrame(64, 48), 320, 240, 0)
	require.NoError(t, err)

	twice, err := NormalizeColor(once.Frame(), 320, 240, 0)
	require.NoError(t, err)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second pass changed the tensor (-once +twice):\n%s", diff)
	}
}

func TestNormalizeColor_Deterministic(t *testing.T) {
	a, err := NormalizeColor(gradientColorFrame(64, 48), 320, 240, 255)
	require.NoError(t, err)
	b, err := NormalizeColor(gradientColorFrame(64, 48), 320, 240, 255)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("two runs over identical input differ:\n%s", diff)
	}
}

func TestNormalizeDepth_ScrubsNaN(t *testing.T) {
	f := Frame{Width: 3, Height: 1, Channels: 1, Data: []float64{
		math.NaN(), math.Inf(1), 2.0,
	}}
	out, err := NormalizeDepth(f, 3, 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 0.0, out.At(0, 0, 0))
	assert.Equal(t, 0.0, out.At(0, 1, 0))
	assert.Equal(t, 2.0, out.At(0, 2, 0))
	for i, v := range out.Data {
		assert.False(t, math.IsNaN(v), "NaN leaked at sample %d", i)
		assert.False(t, math.IsInf(v, 0), "Inf leaked at sample %d", i)
	}
}

// TestNormalizeDepth_ScrubBeforeResize uses a frame where a NaN neighbours
// finite samples: after resampling, no sample may be NaN, which would be the
// case if the scrub ran after interpolation.
func TestNormalizeDepth_ScrubBeforeResize(t *testing.T) {
	f := rampDepthFrame(8, 8)
	f.Data[27] = math.NaN()
	f.Data[36] = math.Inf(-1)

	out, err := NormalizeDepth(f, 16, 16, 0)
	require.NoError(t, err)
	for i, v := range out.Data {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite sample at %d", i)
	}
}

func TestNormalizeDepth_ClipAndScale(t *testing.T) {
	f := Frame{Width: 4, Height: 1, Channels: 1, Data: []float64{0, 2, 4, 11}}
	out, err := NormalizeDepth(f, 4, 1, 8)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, out.At(0, 0, 0), 1e-9)
	assert.InDelta(t, 0.25, out.At(0, 1, 0), 1e-9)
	assert.InDelta(t, 0.5, out.At(0, 2, 0), 1e-9)
	assert.InDelta(t, 1.0, out.At(0, 3, 0), 1e-9) // 11 clips to 8
}

func TestNormalizeDepth_Shape(t *testing.T) {
	out, err := NormalizeDepth(rampDepthFrame(64, 48), 320, 240, 0)
	require.NoError(t, err)
	assert.Equal(t, [4]int{1, 240, 320, 1}, out.Shape)
}

func TestNormalizeDepth_RejectsColorFrame(t *testing.T) {
	_, err := NormalizeDepth(gradientColorFrame(4, 4), 320, 240, 0)
	assert.True(t, errors.Is(err, ErrBadFrame), "got %v", err)
}

func TestResizeDepth_PreservesConstantField(t *testing.T) {
	f := Frame{Width: 8, Height: 6, Channels: 1, Data: make([]float64, 48)}
	for i := range f.Data {
		f.Data[i] = 3.25
	}
	out, err := NormalizeDepth(f, 20, 10, 0)
	require.NoError(t, err)
	for i, v := range out.Data {
		assert.InDelta(t, 3.25, v, 1e-9, "sample %d", i)
	}
}

func TestConcatChannels(t *testing.T) {
	color := NewTensor(2, 2, 3)
	depth := NewTensor(2, 2, 1)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			for c := 0; c < 3; c++ {
				color.Set(y, x, c, float64(10*c+y*2+x))
			}
			depth.Set(y, x, 0, float64(100+y*2+x))
		}
	}

	out, err := ConcatChannels(color, depth)
	require.NoError(t, err)
	assert.Equal(t, [4]int{1, 2, 2, 4}, out.Shape)

	// Per-pixel interleave: the first three channels come from the colour
	// tensor, the fourth from depth.
	assert.Equal(t, color.At(1, 0, 2), out.At(1, 0, 2))
	assert.Equal(t, depth.At(1, 0, 0), out.At(1, 0, 3))
	assert.Equal(t, depth.At(0, 1, 0), out.At(0, 1, 3))
}

func TestConcatChannels_SizeMismatch(t *testing.T) {
	_, err := ConcatChannels(NewTensor(2, 2, 3), NewTensor(4, 4, 1))
	assert.True(t, errors.Is(err, ErrBadFrame), "got %v", err)
}

func TestTensorFrameRoundTrip(t *testing.T) {
	tr := NewTensor(3, 5, 2)
	tr.Set(1, 4, 1, 7.5)

	f := tr.Frame()
	require.NoError(t, f.Validate(2))
	assert.Equal(t, 5, f.Width)
	assert.Equal(t, 3, f.Height)
	assert.Equal(t, 7.5, f.At(4, 1, 1))
}
