package gesture

import (
	"github.com/8ff/gesturesd/internal/direction"
	"github.com/rs/zerolog"
)

// ThresholdSq is the squared pixel distance below which a new sample is
// considered coincident with the last and dropped without adding to the
// polyline or generating a motion event.
const ThresholdSq = 256

// PinchThresholdPercent is the percent-difference cutoff the group-terminal
// classifier uses to recognize a pinch/pinch-out when no reflection pattern
// matches.
const PinchThresholdPercent = 0.4

// RegionFunc supplies the 32 high bits of a finger's GroupID given the
// device it came from and its starting point. The default partitions
// nothing: every device lives in region 0.
type RegionFunc func(deviceID uint32, startingPoint direction.Point) uint32

func defaultRegionFunc(uint32, direction.Point) uint32 { return 0 }

// Recorder is the stateful, single-threaded store of currently active
// multi-finger gestures described in spec.md §4.2. It must only ever be
// driven by one producer goroutine; see spec.md §5 for the concurrency
// contract.
type Recorder struct {
	groups     map[GroupID]*group
	regionFunc RegionFunc
	seq        uint64
	emit       func(*Event)
	log        zerolog.Logger
}

// Option configures a Recorder at construction time.
type Option func(*Recorder)

// WithRegionFunc overrides the default single-region grouping.
func WithRegionFunc(fn RegionFunc) Option {
	return func(r *Recorder) { r.regionFunc = fn }
}

// WithLogger attaches a logger used for producer-misuse warnings (spec.md §7).
func WithLogger(log zerolog.Logger) Option {
	return func(r *Recorder) { r.log = log }
}

// NewRecorder builds a Recorder that calls emit for every event it produces.
// emit must not block for long: it runs on the producer's call stack.
func NewRecorder(emit func(*Event), opts ...Option) *Recorder {
	r := &Recorder{
		groups:     make(map[GroupID]*group),
		regionFunc: defaultRegionFunc,
		emit:       emit,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) nextSeq() uint64 {
	r.seq++
	return r.seq
}

func (r *Recorder) groupID(ev TouchEvent) GroupID {
	return NewGroupID(r.regionFunc(ev.DeviceID, ev.Point), ev.DeviceID)
}

func (r *Recorder) findFinger(id TouchID) *finger {
	for _, g := range r.groups {
		if f, ok := g.fingers[id]; ok && !f.finished {
			return f
		}
	}
	return nil
}

// StartGesture begins tracking a new finger, lazily creating its group if
// this is the first finger with that GroupID. sysName/name are truncated to
// 63 bytes (DEVICE_NAME_LEN - 1) the way the original gesture group does.
//
// It is a producer bug to start a gesture for a TouchID that already has a
// live (non-finished) Gesture; per spec.md §4.2 this is unspecified
// behavior, so the recorder logs and ignores the duplicate start rather
// than silently replacing or corrupting state.
func (r *Recorder) StartGesture(ev TouchEvent, sysName, name string) {
	id := NewTouchID(ev.DeviceID, ev.Seat)
	if existing := r.findFinger(id); existing != nil {
		r.log.Warn().Uint64("touchID", uint64(id)).Msg("startGesture called for an already-active finger; ignoring")
		return
	}

	gid := r.groupID(ev)
	g, ok := r.groups[gid]
	if !ok {
		g = &group{
			id:      gid,
			fingers: make(map[TouchID]*finger),
			sysName: truncateName(sysName),
			name:    truncateName(name),
		}
		r.groups[gid] = g
	}

	f := &finger{
		id:           id,
		parent:       g,
		firstPoint:   ev.Point,
		lastPoint:    ev.Point,
		percentPoint: ev.PercentPoint,
		lastDir:      direction.None,
		numPoints:    1,
		startTime:    ev.TimeMs,
	}
	g.fingers[id] = f
	g.order = append(g.order, id)
	g.activeCount++

	r.emitTouchEvent(f, TouchStartMask, ev.TimeMs, Detail{direction.Tap})
}

func truncateName(s string) string {
	const maxLen = 63
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}

// ContinueGesture adds a motion sample to an in-progress finger. Samples for
// an unknown TouchID are ignored (spec.md §7: benign race with cancel), as
// are samples for a finger that has already overflowed MaxDetailSize.
func (r *Recorder) ContinueGesture(ev TouchEvent) {
	id := NewTouchID(ev.DeviceID, ev.Seat)
	f := r.findFinger(id)
	if f == nil {
		return
	}
	if f.truncated {
		return
	}

	dist := direction.SqDist(f.lastPoint, ev.Point)
	if dist < ThresholdSq {
		r.emitTouchEvent(f, TouchHoldMask, ev.TimeMs, f.info)
		return
	}

	f.flags.TotalSqDistance += dist
	dir := direction.LineType(f.lastPoint, ev.Point)
	if dir != f.lastDir {
		if len(f.info) >= MaxDetailSize {
			f.truncated = true
			return
		}
		f.info = append(f.info, dir)
		f.lastDir = dir
	}
	f.numPoints++
	f.lastPoint = ev.Point
	f.percentPoint = ev.PercentPoint

	r.emitTouchEvent(f, TouchMotionMask, ev.TimeMs, f.info)
}

// EndGesture concludes a single finger's track. If it was the last active
// finger in its group, the group-terminal GestureEnd event is produced and
// the group (with all its fingers) is destroyed.
func (r *Recorder) EndGesture(ev TouchEvent) {
	id := NewTouchID(ev.DeviceID, ev.Seat)
	f := r.findFinger(id)
	if f == nil {
		return
	}

	if f.numPoints == 1 && len(f.info) == 0 {
		f.info = Detail{direction.Tap}
	}

	f.flags.DurationMs = ev.TimeMs - f.startTime
	f.flags.AvgSqDisplacement = direction.SqDist(f.firstPoint, f.lastPoint)
	f.flags.AvgSqDistance = f.flags.TotalSqDistance

	r.emitTouchEvent(f, TouchEndMask, ev.TimeMs, f.info)

	g := f.parent
	f.finished = true
	g.activeCount--
	g.finishedCount++

	if g.activeCount == 0 {
		r.emitGroupEnd(g, ev.TimeMs)
		delete(r.groups, g.id)
	}
}

// CancelGesture aborts an in-progress finger without generating a
// GestureEnd event, even if it was the last active finger in its group.
func (r *Recorder) CancelGesture(ev TouchEvent) {
	id := NewTouchID(ev.DeviceID, ev.Seat)
	f := r.findFinger(id)
	if f == nil {
		return
	}
	r.emitTouchEvent(f, TouchCancelMask, ev.TimeMs, f.info)

	g := f.parent
	delete(g.fingers, id)
	kept := g.order[:0]
	for _, o := range g.order {
		if o != id {
			kept = append(kept, o)
		}
	}
	g.order = kept
	g.activeCount--
	if g.activeCount == 0 {
		delete(r.groups, g.id)
	}
}

func (r *Recorder) fingersSoFar(g *group) uint32 {
	return uint32(g.activeCount + g.finishedCount)
}

func (r *Recorder) emitTouchEvent(f *finger, mask Mask, timeMs uint32, detail Detail) {
	g := f.parent
	ev := &Event{
		Seq:             r.nextSeq(),
		GroupID:         g.id,
		TimeMs:          timeMs,
		EndPoint:        f.lastPoint,
		EndPercentPoint: f.percentPoint,
		Detail:          detail,
		Flags: Flags{
			TotalSqDistance:   f.flags.TotalSqDistance,
			AvgSqDisplacement: f.flags.AvgSqDisplacement,
			AvgSqDistance:     f.flags.AvgSqDistance,
			DurationMs:        f.flags.DurationMs,
			Fingers:           r.fingersSoFar(g),
			Mask:              mask,
		},
	}
	r.emit(ev)
}
