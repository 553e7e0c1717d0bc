package queue

import (
	"sync"
	"time"

	"github.com/8ff/gesturesd/internal/direction"
	"github.com/8ff/gesturesd/internal/gesture"
	"github.com/rs/zerolog"
)

// MergeDelay is the fixed window within which two back-to-back, otherwise
// identical gesture-end events are coalesced into one delivery with an
// incremented repeat count (spec.md's GESTURE_MERGE_DELAY_TIME).
const MergeDelay = 200 * time.Millisecond

// Queue is the two-lane event buffer sitting between the (single-threaded)
// Recorder and a consumer. It owns the select mask, the optional
// direct-dispatch handler, and the merge-on-dequeue logic. A Queue is safe
// for exactly one producer goroutine calling Enqueue and exactly one
// consumer goroutine calling GetNextGesture/WaitForNextGesture (spec.md §5).
// The underlying ring buffers are unsynchronized; every access to them
// holds q.mu.
type Queue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	touch ringBuffer[*gesture.Event]
	end   ringBuffer[*gesture.Event]

	selectMask gesture.Mask
	handler    func(*gesture.Event)

	clock   Clock
	closed  bool
	log     zerolog.Logger
	seqSeen uint64 // unused: no method or test reads or writes it
}

// Option configures a Queue at construction time.
type Option func(*Queue)

// WithClock overrides the production wall-clock (for tests).
func WithClock(c Clock) Option {
	return func(q *Queue) { q.clock = c }
}

// WithLogger attaches a logger for dropped-event diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(q *Queue) { q.log = log }
}

// New builds a Queue that listens for every event mask by default.
func New(opts ...Option) *Queue {
	q := &Queue{
		selectMask: gesture.AllMasks,
		clock:      systemClock{},
		log:        zerolog.Nop(),
	}
	q.cond = sync.NewCond(&q.mu)
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// ListenForGestureEvents restricts which events Enqueue admits; any event
// whose mask is not contained in mask is discarded at enqueue time.
func (q *Queue) ListenForGestureEvents(mask gesture.Mask) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.selectMask = mask
}

// RegisterEventHandler installs a direct-dispatch callback invoked at
// enqueue time instead of the event being queued at all. Passing nil
// restores normal queueing. Only one handler may be registered at a time
// (process-wide, last-writer-wins, per spec.md §5).
func (q *Queue) RegisterEventHandler(handler func(*gesture.Event)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handler = handler
}

// reflectionPair returns the synthesized reflection counterpart of ev, or
// nil if ev carries no reflection mask. The counterpart swaps Rotate90 and
// Rotate270 (the other masks are self-inverse) and re-transforms the
// detail, per spec.md §4.3's "Reflection fan-out".
func reflectionPair(ev *gesture.Event) *gesture.Event {
	if ev.Flags.ReflectionMask == direction.TransformNone {
		return nil
	}
	clone := *ev
	switch ev.Flags.ReflectionMask {
	case direction.Rotate90:
		clone.Flags.ReflectionMask = direction.Rotate270
	case direction.Rotate270:
		clone.Flags.ReflectionMask = direction.Rotate90
	}
	clone.Detail = ev.Detail.Transform(clone.Flags.ReflectionMask)
	return &clone
}

// Enqueue admits ev into the appropriate lane (or dispatches it directly to
// a registered handler), applying the select-mask filter and reflection
// fan-out first. It never blocks.
func (q *Queue) Enqueue(ev *gesture.Event) {
	q.mu.Lock()

	if ev.Flags.Mask&q.selectMask == 0 {
		q.mu.Unlock()
		return
	}

	events := []*gesture.Event{ev}
	if pair := reflectionPair(ev); pair != nil {
		events = append(events, pair)
	}

	if q.handler != nil {
		handler := q.handler
		q.mu.Unlock()
		for _, e := range events {
			handler(e)
		}
		return
	}

	for _, e := range events {
		var buf *ringBuffer[*gesture.Event]
		if e.Flags.Mask&gesture.GestureEndMask != 0 {
			buf = &q.end
		} else {
			buf = &q.touch
		}
		if !buf.Push(e) {
			q.log.Warn().Uint64("seq", e.Seq).Msg("queue full, dropping event")
		}
	}
	q.mu.Unlock()
	q.cond.Broadcast()
}

// IsNextGestureReady reports whether a call to GetNextGesture would return
// an event without blocking.
func (q *Queue) IsNextGestureReady() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.touch.Empty() || !q.end.Empty()
}

// GetGestureQueueSize returns the number of events currently buffered
// across both lanes.
func (q *Queue) GetGestureQueueSize() uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.touch.Size() + q.end.Size()
}

// isDuplicate reports whether h should be merged into e under the
// merge-window rule: both are gesture-end events describing the same
// group/detail/fingers/mask.
func isDuplicate(e, h *gesture.Event) bool {
	return e.Equal(h)
}

// waitOutMergeWindow blocks the calling (consumer) goroutine until at
// least MergeDelay has elapsed since ev.TimeMs, per spec.md §4.3. It must
// be called without q.mu held.
func (q *Queue) waitOutMergeWindow(ev *gesture.Event) {
	elapsed := time.Duration(q.clock.NowMs()-ev.TimeMs) * time.Millisecond
	if elapsed < MergeDelay {
		q.clock.Sleep(MergeDelay - elapsed)
	}
}

// GetNextGesture implements the non-blocking delivery and merge rule of
// spec.md §4.3. It returns (nil, false) if no event is currently available.
func (q *Queue) GetNextGesture() (*gesture.Event, bool) {
	q.mu.Lock()
	if q.touch.Empty() && q.end.Empty() {
		q.mu.Unlock()
		return nil, false
	}

	serveFromEnd := q.touch.Empty()
	if !serveFromEnd && !q.end.Empty() {
		serveFromEnd = q.end.Peek().Seq < q.touch.Peek().Seq
	}

	if !serveFromEnd {
		ev := q.touch.Pop()
		q.mu.Unlock()
		return ev, true
	}

	ev := q.end.Pop()
	q.mu.Unlock()

	q.waitOutMergeWindow(ev)

	for {
		q.mu.Lock()
		if q.end.Empty() {
			q.mu.Unlock()
			break
		}
		head := q.end.Peek()
		delta := time.Duration(head.TimeMs-ev.TimeMs) * time.Millisecond
		if delta >= MergeDelay || !isDuplicate(ev, head) {
			q.mu.Unlock()
			break
		}
		dup := q.end.Pop()
		q.mu.Unlock()

		q.waitOutMergeWindow(dup)
		ev.Flags.Count++
	}

	return ev, true
}

// WaitForNextGesture blocks the calling goroutine until an event is ready,
// then returns it via GetNextGesture. It is woken by every Enqueue call and
// by Close.
func (q *Queue) WaitForNextGesture() (*gesture.Event, bool) {
	q.mu.Lock()
	for q.touch.Empty() && q.end.Empty() && !q.closed {
		q.cond.Wait()
	}
	closed := q.closed
	q.mu.Unlock()
	if closed && !q.IsNextGestureReady() {
		return nil, false
	}
	return q.GetNextGesture()
}

// Close idempotently wakes any consumer blocked in WaitForNextGesture, for
// graceful shutdown (spec.md §5). In-flight events are left queued; pending
// merges are not waited for.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
