// Package vision converts raw sensor frames from the robot bridge into the
// fixed-size, channel-ordered tensors consumed by a learning agent.
package vision

import (
	"errors"
	"fmt"
)

// ErrBadFrame reports a sensor frame that cannot be decoded: zero-size image,
// wrong channel count, or a data buffer that does not match the declared
// dimensions.
var ErrBadFrame = errors.New("bad sensor frame")

// Frame is a raw sensor frame as delivered by the bridge. Data is row-major
// with interleaved channels: index = (y*Width+x)*Channels + c. Colour frames
// carry three channels in RGB order with values in [0,255]; depth frames carry
// a single channel in metres and may contain NaN or infinite samples, which
// the pipeline scrubs before use.
type Frame struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Channels int       `json:"channels"`
	Data     []float64 `json:"data"`
}

// Validate checks the frame dimensions against the expected channel count.
func (f Frame) Validate(wantChannels int) error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: zero-size image %dx%d", ErrBadFrame, f.Width, f.Height)
	}
	if f.Channels != wantChannels {
		return fmt.Errorf("%w: got %d channels, want %d", ErrBadFrame, f.Channels, wantChannels)
	}
	if len(f.Data) != f.Width*f.Height*f.Channels {
		return fmt.Errorf("%w: %d samples for %dx%dx%d image",
			ErrBadFrame, len(f.Data), f.Width, f.Height, f.Channels)
	}
	return nil
}

// At returns the sample at (x, y) for channel c. Bounds are not checked.
func (f Frame) At(x, y, c int) float64 {
	return f.Data[(y*f.Width+x)*f.Channels+c]
}
