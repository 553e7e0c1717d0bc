// Package binding implements the pure predicate matcher described in
// spec.md §4.4: testing a GestureBinding pattern (direction sequence, flag
// ranges, region/device filter, optional reflection) against a recorded
// gesture.Event.
package binding

import (
	"github.com/8ff/gesturesd/internal/direction"
	"github.com/8ff/gesturesd/internal/gesture"
)

// Range is an inclusive (min, max) filter over one numeric field of an
// event's flags. The zero Range is the wildcard: it contains every value.
type Range struct {
	Min int64
	Max int64
}

// Contains implements spec.md §4.4's contains(min,max,v) predicate:
//   - max == 0: match iff min == 0 (wildcard) or min == v (exact).
//   - else: match iff (min == 0 or min <= v) and v <= max.
func (r Range) Contains(v int64) bool {
	if r.Max == 0 {
		return r.Min == 0 || r.Min == v
	}
	return (r.Min == 0 || r.Min <= v) && v <= r.Max
}

// GestureBinding is one bindable pattern: a detail sequence (nil/empty is a
// wildcard), a required reflection mask, range filters over the event's
// numeric flags, a mask filter, and optional region/device scoping.
type GestureBinding struct {
	Detail gesture.Detail

	ReflectionMask direction.TransformMask

	TotalSqDistance   Range
	AvgSqDistance     Range
	Duration          Range
	Fingers           Range
	Count             Range

	// Mask selects which event masks this binding can match. Zero means
	// "GestureEnd only", mirroring the original library's default.
	Mask gesture.Mask

	// RegionID/DeviceID are zero-or-equal filters: zero matches any.
	RegionID uint32
	DeviceID uint32
}

// Matches implements spec.md §4.4: every range must contain the
// corresponding event field, region/device filters must be zero or equal,
// the detail must be empty or equal to the event's detail, the binding's
// effective mask must admit the event's mask, and the reflection masks
// must match exactly.
func Matches(b GestureBinding, ev *gesture.Event) bool {
	if !b.TotalSqDistance.Contains(ev.Flags.TotalSqDistance) {
		return false
	}
	if !b.AvgSqDistance.Contains(ev.Flags.AvgSqDistance) {
		return false
	}
	if !b.Duration.Contains(int64(ev.Flags.DurationMs)) {
		return false
	}
	if !b.Fingers.Contains(int64(ev.Flags.Fingers)) {
		return false
	}
	if !b.Count.Contains(int64(ev.Flags.Count)) {
		return false
	}

	if b.RegionID != 0 && b.RegionID != ev.RegionID() {
		return false
	}
	if b.DeviceID != 0 && b.DeviceID != ev.DeviceID() {
		return false
	}

	if len(b.Detail) != 0 && !b.Detail.Equal(ev.Detail) {
		return false
	}

	effectiveMask := b.Mask
	if effectiveMask == 0 {
		effectiveMask = gesture.GestureEndMask
	}
	if effectiveMask&ev.Flags.Mask != ev.Flags.Mask {
		return false
	}

	if b.ReflectionMask != ev.Flags.ReflectionMask {
		return false
	}

	return true
}

// Dump renders ev the way the original dumpGesture does; it is a thin
// pass-through to gesture.Event.Dump so callers working purely in terms of
// bindings don't need to import gesture directly for debug output.
func Dump(ev *gesture.Event) string {
	return ev.Dump()
}
