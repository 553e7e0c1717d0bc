package binding

import (
	"testing"

	"github.com/8ff/gesturesd/internal/direction"
	"github.com/8ff/gesturesd/internal/gesture"
	"github.com/stretchr/testify/assert"
)

func event(fingers, count uint32, detail gesture.Detail) *gesture.Event {
	return &gesture.Event{
		GroupID: gesture.NewGroupID(1, 1),
		Detail:  detail,
		Flags: gesture.Flags{
			Fingers: fingers,
			Count:   count,
			Mask:    gesture.GestureEndMask,
		},
	}
}

func TestWildcardDetailWithExactCountMatchesAnyDetail(t *testing.T) {
	b := GestureBinding{
		Count: Range{Min: 2, Max: 0},
	}

	assert.True(t, Matches(b, event(2, 2, gesture.Detail{direction.East})))
	assert.True(t, Matches(b, event(4, 2, gesture.Detail{direction.Pinch})))
	assert.False(t, Matches(b, event(2, 3, gesture.Detail{direction.East})), "count must be exactly 2")
}

func TestRangeContainsWildcardZero(t *testing.T) {
	r := Range{}
	assert.True(t, r.Contains(0))
	assert.True(t, r.Contains(12345), "zero Range is a full wildcard regardless of value")
}

func TestRangeContainsExactMin(t *testing.T) {
	r := Range{Min: 5, Max: 0}
	assert.True(t, r.Contains(5))
	assert.False(t, r.Contains(6))
	assert.False(t, r.Contains(0))
}

func TestRangeContainsBoundedInterval(t *testing.T) {
	r := Range{Min: 10, Max: 20}
	assert.False(t, r.Contains(9))
	assert.True(t, r.Contains(10))
	assert.True(t, r.Contains(20))
	assert.False(t, r.Contains(21))
}

func TestRangeContainsOpenLowerBound(t *testing.T) {
	r := Range{Min: 0, Max: 20}
	assert.True(t, r.Contains(0))
	assert.True(t, r.Contains(20))
	assert.False(t, r.Contains(21))
}

func TestDetailPatternMustMatchExactly(t *testing.T) {
	b := GestureBinding{Detail: gesture.Detail{direction.East, direction.South}}

	assert.True(t, Matches(b, event(1, 0, gesture.Detail{direction.East, direction.South})))
	assert.False(t, Matches(b, event(1, 0, gesture.Detail{direction.South, direction.East})))
	assert.False(t, Matches(b, event(1, 0, gesture.Detail{direction.East})))
}

func TestRegionAndDeviceFiltersAreZeroOrEqual(t *testing.T) {
	ev := &gesture.Event{
		GroupID: gesture.NewGroupID(7, 3),
		Flags:   gesture.Flags{Mask: gesture.GestureEndMask},
	}

	assert.True(t, Matches(GestureBinding{}, ev), "zero filters match anything")
	assert.True(t, Matches(GestureBinding{RegionID: 7, DeviceID: 3}, ev))
	assert.False(t, Matches(GestureBinding{RegionID: 8}, ev))
	assert.False(t, Matches(GestureBinding{DeviceID: 4}, ev))
}

func TestMaskFilterDefaultsToGestureEndOnly(t *testing.T) {
	b := GestureBinding{}

	endEv := &gesture.Event{Flags: gesture.Flags{Mask: gesture.GestureEndMask}}
	startEv := &gesture.Event{Flags: gesture.Flags{Mask: gesture.TouchStartMask}}

	assert.True(t, Matches(b, endEv))
	assert.False(t, Matches(b, startEv), "default mask filter admits only GestureEnd")
}

func TestExplicitMaskFilterWidensAdmission(t *testing.T) {
	b := GestureBinding{Mask: gesture.TouchStartMask | gesture.TouchEndMask}

	assert.True(t, Matches(b, &gesture.Event{Flags: gesture.Flags{Mask: gesture.TouchStartMask}}))
	assert.True(t, Matches(b, &gesture.Event{Flags: gesture.Flags{Mask: gesture.TouchEndMask}}))
	assert.False(t, Matches(b, &gesture.Event{Flags: gesture.Flags{Mask: gesture.GestureEndMask}}))
}

func TestReflectionMaskMustMatchExactly(t *testing.T) {
	b := GestureBinding{ReflectionMask: direction.MirroredX}

	matching := &gesture.Event{Flags: gesture.Flags{Mask: gesture.GestureEndMask, ReflectionMask: direction.MirroredX}}
	nonMatching := &gesture.Event{Flags: gesture.Flags{Mask: gesture.GestureEndMask, ReflectionMask: direction.TransformNone}}

	assert.True(t, Matches(b, matching))
	assert.False(t, Matches(b, nonMatching))
}

func TestDumpDelegatesToEventDump(t *testing.T) {
	ev := event(2, 0, gesture.Detail{direction.East})
	assert.Equal(t, ev.Dump(), Dump(ev))
}
