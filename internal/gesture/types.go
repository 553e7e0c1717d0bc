// Package gesture implements the data model and recorder described in
// spec.md §3-4.2: the per-finger polyline reducer, the group aggregation
// that fuses simultaneous fingers into one gesture, and the group-terminal
// classifier that recognizes reflections/rotations and pinches.
package gesture

import (
	"fmt"

	"github.com/8ff/gesturesd/internal/direction"
)

// MaxDetailSize bounds how many direction tags a single finger's polyline
// may record before it is marked truncated.
const MaxDetailSize = 128

// Mask is a bitset over the touch lifecycle / gesture-completion events,
// used both to stamp an event and to filter which events reach the queue.
type Mask uint8

const (
	GestureEndMask Mask = 1 << iota
	TouchEndMask
	TouchStartMask
	TouchHoldMask
	TouchMotionMask
	TouchCancelMask
)

// AllMasks matches every event; it is the default select mask of a fresh
// Context, mirroring the C library's `gestureSelectMask = -1` default.
const AllMasks Mask = GestureEndMask | TouchEndMask | TouchStartMask | TouchHoldMask | TouchMotionMask | TouchCancelMask

func (m Mask) String() string {
	switch m {
	case GestureEndMask:
		return "GestureEndMask"
	case TouchEndMask:
		return "TouchEndMask"
	case TouchStartMask:
		return "TouchStartMask"
	case TouchHoldMask:
		return "TouchHoldMask"
	case TouchMotionMask:
		return "TouchMotionMask"
	case TouchCancelMask:
		return "TouchCancelMask"
	default:
		return "UNKNOWN"
	}
}

// Detail is the bounded, ordered sequence of direction tags describing a
// gesture's shape. The zero value is an empty detail.
type Detail []direction.Type

// Equal reports whether two details hold the identical sequence of tags.
func (d Detail) Equal(other Detail) bool {
	if len(d) != len(other) {
		return false
	}
	for i := range d {
		if d[i] != other[i] {
			return false
		}
	}
	return true
}

func (d Detail) String() string {
	s := "{ "
	for _, t := range d {
		s += t.String() + ", "
	}
	return s + "}"
}

// Transform returns a new Detail whose i-th element is direction.Reflect(mask,
// d[i]); mask == direction.TransformNone returns d unchanged.
func (d Detail) Transform(mask direction.TransformMask) Detail {
	if mask == direction.TransformNone {
		return d
	}
	out := make(Detail, len(d))
	for i, t := range d {
		out[i] = direction.Reflect(mask, t)
	}
	return out
}

// Flags carries the numeric measurements attached to a gesture event: the
// total and averaged squared distances traveled, duration, finger count,
// any recognized reflection, and the lifecycle mask the event was stamped
// with. Count is the merge-window repeat count assigned by the queue.
type Flags struct {
	TotalSqDistance   int64
	AvgSqDisplacement int64
	AvgSqDistance     int64
	DurationMs        uint32
	Fingers           uint32
	ReflectionMask    direction.TransformMask
	Mask              Mask
	Count             uint32
}

// TouchID uniquely identifies one finger track for the lifetime of its
// touch: (deviceID << 32) | seat.
type TouchID uint64

func NewTouchID(deviceID uint32, seat int32) TouchID {
	return TouchID(uint64(deviceID)<<32 | uint64(uint32(seat)))
}

// GroupID identifies the group a finger belongs to: (regionID << 32) | deviceID.
type GroupID uint64

func NewGroupID(regionID, deviceID uint32) GroupID {
	return GroupID(uint64(regionID)<<32 | uint64(deviceID))
}

// RegionID extracts the high 32 bits of a GroupID.
func (g GroupID) RegionID() uint32 { return uint32(g >> 32) }

// DeviceID extracts the low 32 bits of a GroupID.
func (g GroupID) DeviceID() uint32 { return uint32(g) }

// TouchEvent is the input boundary: one raw sample of a finger at a point
// in time, as produced by the (external) platform input layer.
type TouchEvent struct {
	DeviceID     uint32
	Seat         int32
	Point        direction.Point
	PercentPoint direction.Point
	TimeMs       uint32
}

// Event is the discrete output the recorder produces at every touch
// lifecycle transition and at group completion.
type Event struct {
	Seq             uint64
	GroupID         GroupID
	Detail          Detail
	Flags           Flags
	TimeMs          uint32
	EndPoint        direction.Point
	EndPercentPoint direction.Point
}

// RegionID/DeviceID are convenience accessors mirroring the C macros
// GESTURE_REGION_ID/GESTURE_DEVICE_ID.
func (e *Event) RegionID() uint32 { return e.GroupID.RegionID() }
func (e *Event) DeviceID() uint32 { return e.GroupID.DeviceID() }

// Equal reports whether two events describe the same logical gesture for
// merge-window purposes: same group, same detail, same finger count, same
// mask. Sequence number, timing and exact flags are deliberately excluded.
func (e *Event) Equal(other *Event) bool {
	return e.GroupID == other.GroupID &&
		e.Detail.Equal(other.Detail) &&
		e.Flags.Fingers == other.Flags.Fingers &&
		e.Flags.Mask == other.Flags.Mask
}

// Dump renders event the way the original dumpGesture does:
// "<MaskName>: Fingers <n> duration <ms>ms <dir> <dir> ...".
func (e *Event) Dump() string {
	s := fmt.Sprintf("%s: Fingers %d duration %dms", e.Flags.Mask, e.Flags.Fingers, e.Flags.DurationMs)
	for _, t := range e.Detail {
		s += " " + t.String()
	}
	return s
}

// finger is the per-touch state tracked while a finger is live. It is
// mutated only by its owning group on the (single) producer thread.
type finger struct {
	id         TouchID
	parent     *group
	finished   bool
	info       Detail
	firstPoint   direction.Point
	lastPoint    direction.Point
	percentPoint direction.Point
	lastDir      direction.Type
	numPoints  int
	startTime  uint32
	flags      Flags
	truncated  bool
}

// group is the set of fingers sharing one GroupID, created lazily on the
// first finger and destroyed when its last active finger ends or is
// cancelled.
type group struct {
	id            GroupID
	fingers       map[TouchID]*finger
	order         []TouchID // insertion order, for deterministic aggregation
	activeCount   int
	finishedCount int
	sysName       string
	name          string
}
