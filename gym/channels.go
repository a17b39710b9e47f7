// Package gym is the agent-facing surface of the robot environment: a
// step/reset/render loop over either a locally launched simulator or a
// remotely hosted physical rig, with discrete motion actions and normalized
// camera observations.
package gym

import (
	"fmt"

	"github.com/roverlab/robogym/internal/bridge"
)

// Observation frame size. Every observation is resampled to this size
// regardless of the source camera resolution.
const (
	FrameWidth  = 320
	FrameHeight = 240
)

// Channel selects which sensor modalities compose the observation.
type Channel int

const (
	// DepthOnly observes the single-channel depth camera.
	DepthOnly Channel = iota
	// RGBOnly observes the three-channel colour camera.
	RGBOnly
	// RGBD observes both, concatenated along the channel axis. The two
	// frames come from one atomic capture on the server.
	RGBD
)

// Channels returns the number of channels in the observation.
func (c Channel) Channels() int {
	switch c {
	case DepthOnly:
		return 1
	case RGBOnly:
		return 3
	case RGBD:
		return 4
	default:
		return 0
	}
}

// String returns the channel mode name.
func (c Channel) String() string {
	switch c {
	case DepthOnly:
		return "depth"
	case RGBOnly:
		return "rgb"
	case RGBD:
		return "rgbd"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// ObservationShape derives the NHWC observation shape for this channel mode.
func (c Channel) ObservationShape() [4]int {
	return [4]int{1, FrameHeight, FrameWidth, c.Channels()}
}

// wireName maps the channel mode onto the bridge protocol's channel names.
func (c Channel) wireName() string {
	switch c {
	case DepthOnly:
		return bridge.ChannelDepth
	case RGBOnly:
		return bridge.ChannelRGB
	case RGBD:
		return bridge.ChannelRGBD
	default:
		return ""
	}
}

// ParseChannel converts a channel mode name ("depth", "rgb", "rgbd") into a
// Channel. Used by command-line front ends.
func ParseChannel(s string) (Channel, error) {
	switch s {
	case "depth":
		return DepthOnly, nil
	case "rgb":
		return RGBOnly, nil
	case "rgbd":
		return RGBD, nil
	default:
		return 0, fmt.Errorf("unknown channel mode %q", s)
	}
}
