package gym

import "fmt"

// Action is one of the four discrete motion commands understood by the robot.
// The integer values are part of the wire protocol and must not change.
type Action int

const (
	Left     Action = 0
	Right    Action = 1
	Forward  Action = 2
	Backward Action = 3
)

// NumActions is the size of the discrete action space.
const NumActions = 4

// String returns the action name.
func (a Action) String() string {
	switch a {
	case Left:
		return "left"
	case Right:
		return "right"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// DecodeAction validates and canonicalizes a raw action value. It accepts an
// Action or any integer kind in [0,3]; nil, out-of-range values, and foreign
// types fail with ErrInvalidAction before anything touches the backend.
func DecodeAction(raw interface{}) (Action, error) {
	if raw == nil {
		return 0, fmt.Errorf("%w: action is nil", ErrInvalidAction)
	}

	var v int64
	switch x := raw.(type) {
	case Action:
		v = int64(x)
	case int:
		v = int64(x)
	case int8:
		v = int64(x)
	case int16:
		v = int64(x)
	case int32:
		v = int64(x)
	case int64:
		v = x
	case uint8:
		v = int64(x)
	case uint16:
		v = int64(x)
	case uint32:
		v = int64(x)
	default:
		return 0, fmt.Errorf("%w: unrecognized action type %T", ErrInvalidAction, raw)
	}

	if v < 0 || v >= NumActions {
		return 0, fmt.Errorf("%w: value %d outside [0,%d]", ErrInvalidAction, v, NumActions-1)
	}
	return Action(v), nil
}
