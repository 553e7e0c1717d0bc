package gesture

import (
	"github.com/8ff/gesturesd/internal/direction"
)

// reflectionCandidates lists the masks tried, in order, when the group's
// fingers don't all trace the identical detail: mirrored (both axes),
// mirrored-X, mirrored-Y, then either rotation (rot90 or rot270 both count
// toward the same candidate, matching the original's combined bucket).
var reflectionCandidates = []direction.TransformMask{
	direction.Mirrored,
	direction.MirroredX,
	direction.MirroredY,
	direction.Rotate90,
}

// emitGroupEnd aggregates every finger in g into the group-terminal
// GestureEnd event, classifies its shape (spec.md §4.2.2), and emits it.
// g.activeCount must already be 0.
func (r *Recorder) emitGroupEnd(g *group, timeMs uint32) {
	fingers := r.fingersSoFar(g)

	ev := &Event{
		Seq:     r.nextSeq(),
		GroupID: g.id,
		TimeMs:  timeMs,
		Flags: Flags{
			Fingers: fingers,
			Mask:    GestureEndMask,
			Count:   1,
		},
	}

	combineFlags(g, ev)
	if !setReflection(g, ev) {
		if !generatePinch(g, ev) {
			ev.Detail = Detail{direction.Unknown}
		}
	}

	if last := lastFinger(g); last != nil {
		ev.EndPoint = last.lastPoint
		ev.EndPercentPoint = last.percentPoint
	}

	r.emit(ev)
}

func lastFinger(g *group) *finger {
	if len(g.order) == 0 {
		return nil
	}
	return g.fingers[g.order[len(g.order)-1]]
}

// combineFlags sums/averages each finger's per-finger flags into the
// group-terminal event's flags and computes duration from the earliest
// finger start time, per spec.md §4.2.2.
func combineFlags(g *group, ev *Event) {
	var minStart uint32
	first := true
	var sumDisp, sumDist, sumTotal int64

	for _, id := range g.order {
		f := g.fingers[id]
		sumDisp += f.flags.AvgSqDisplacement
		sumDist += f.flags.AvgSqDistance
		sumTotal += f.flags.TotalSqDistance
		if first || f.startTime < minStart {
			minStart = f.startTime
			first = false
		}
	}

	fingers := int64(ev.Flags.Fingers)
	if fingers == 0 {
		fingers = 1
	}
	ev.Flags.AvgSqDisplacement = sumDisp / fingers
	ev.Flags.AvgSqDistance = sumDist / fingers
	ev.Flags.TotalSqDistance = sumTotal
	ev.Flags.DurationMs = ev.TimeMs - minStart
}

// setReflection implements spec.md §4.2.2 step 1: pick the first finger's
// info as the reference detail, and check whether every other finger's
// info is either identical or a pointwise transform of it under one of the
// candidate masks. Returns false (leaving ev untouched) if the step fails,
// so the caller can fall through to pinch detection.
func setReflection(g *group, ev *Event) bool {
	if len(g.order) == 0 {
		return false
	}
	reference := g.fingers[g.order[0]].info
	n := len(reference)

	var sameCount uint32
	reflectionCounts := make([]int, len(reflectionCandidates))

	for _, id := range g.order {
		f := g.fingers[id]
		if len(f.info) != n {
			return false
		}
		if f.info.Equal(reference) {
			sameCount++
			continue
		}
		for i, tag := range f.info {
			refTag := reference[i]
			for c, mask := range reflectionCandidates {
				if mask == direction.Rotate90 {
					if direction.Reflect(direction.Rotate90, refTag) == tag || direction.Reflect(direction.Rotate270, refTag) == tag {
						reflectionCounts[c]++
					}
					continue
				}
				if direction.Reflect(mask, refTag) == tag {
					reflectionCounts[c]++
				}
			}
		}
	}

	if sameCount == ev.Flags.Fingers {
		ev.Detail = reference
		ev.Flags.ReflectionMask = direction.TransformNone
		return true
	}
	if n == 0 {
		return false
	}
	for c, mask := range reflectionCandidates {
		if sameCount+uint32(reflectionCounts[c]/n) == ev.Flags.Fingers {
			ev.Detail = reference
			ev.Flags.ReflectionMask = mask
			return true
		}
	}
	return false
}

// generatePinch implements spec.md §4.2.2 step 2. It identifies the finger
// whose start/end displacement from the group's centroid is greatest,
// treats it as the reference, and compares the average squared distance of
// every other finger's endpoints to that reference's endpoints at the start
// versus the end of the gesture.
func generatePinch(g *group, ev *Event) bool {
	if ev.Flags.Fingers <= 1 {
		return false
	}

	var avgStart, avgEnd direction.Point
	for _, id := range g.order {
		f := g.fingers[id]
		avgStart.X += f.firstPoint.X
		avgStart.Y += f.firstPoint.Y
		avgEnd.X += f.lastPoint.X
		avgEnd.Y += f.lastPoint.Y
	}
	n := int32(ev.Flags.Fingers)
	avgStart.X /= n
	avgStart.Y /= n
	avgEnd.X /= n
	avgEnd.Y /= n

	var ref *finger
	var refDist int64 = -1
	for _, id := range g.order {
		f := g.fingers[id]
		dist := direction.SqDist(f.lastPoint, avgEnd) + direction.SqDist(f.firstPoint, avgStart)
		if dist > refDist {
			refDist = dist
			ref = f
		}
	}
	if ref == nil {
		return false
	}

	var avgStartDis, avgEndDis int64
	for _, id := range g.order {
		f := g.fingers[id]
		avgEndDis += direction.SqDist(f.lastPoint, ref.lastPoint)
		avgStartDis += direction.SqDist(f.firstPoint, ref.firstPoint)
	}
	denom := int64(ev.Flags.Fingers) - 1
	if denom <= 0 {
		return false
	}
	avgStartDisF := float64(avgStartDis) / float64(denom)
	avgEndDisF := float64(avgEndDis) / float64(denom)
	if avgStartDisF+avgEndDisF == 0 {
		return false
	}
	percentDiff := 2 * (avgStartDisF - avgEndDisF) / (avgStartDisF + avgEndDisF)

	switch {
	case percentDiff > PinchThresholdPercent:
		ev.Detail = Detail{direction.Pinch}
		return true
	case percentDiff < -PinchThresholdPercent:
		ev.Detail = Detail{direction.PinchOut}
		return true
	default:
		return false
	}
}
