// Package engine wires the recorder, the queue, the binding matcher and the
// wire protocol reader into the single runnable pipeline spec.md describes
// only as separate cooperating pieces: Context in the original C library.
package engine

import (
	"io"
	"os/exec"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/8ff/gesturesd/internal/binding"
	"github.com/8ff/gesturesd/internal/gesture"
	"github.com/8ff/gesturesd/internal/queue"
	"github.com/8ff/gesturesd/internal/wire"
)

// BoundCommand pairs a matcher pattern with the shell command to run when
// it matches, generalizing the teacher's single gestureActions map lookup
// to the full GestureBinding predicate of spec.md §4.4.
type BoundCommand struct {
	Binding binding.GestureBinding
	Command string
}

// Context is the process-wide singleton the spec describes: one Recorder
// feeding one Queue, with an optional direct-dispatch handler and an
// ordered table of bound commands evaluated against whatever
// GetNextGesture/WaitForNextGesture deliver. The table itself is
// process-wide and set-with-last-writer-wins semantics, matching spec.md
// §5's "shared resource policy" for the select-mask and event handler, so
// SetTable uses an atomic swap rather than requiring callers to hold a lock.
type Context struct {
	Recorder *gesture.Recorder
	Queue    *queue.Queue
	log      zerolog.Logger
	table    atomic.Pointer[[]BoundCommand]
}

// New builds a Context. table is the ordered binding→command list
// gesturesd run evaluates against each delivered event; it may be empty if
// the caller only wants to drain Queue directly.
func New(table []BoundCommand, log zerolog.Logger) *Context {
	c := &Context{
		log: log,
	}
	c.Queue = queue.New(queue.WithLogger(log))
	c.Recorder = gesture.NewRecorder(c.Queue.Enqueue, gesture.WithLogger(log))
	c.SetTable(table)
	return c
}

// SetTable atomically replaces the binding→command table, for config
// hot-reload without pausing Dispatch.
func (c *Context) SetTable(table []BoundCommand) {
	c.table.Store(&table)
}

// Table returns the currently active binding→command table.
func (c *Context) Table() []BoundCommand {
	return *c.table.Load()
}

// OnEvent installs a direct-dispatch handler, bypassing the queue entirely
// — the original library's registerEventHandler path (SPEC_FULL.md §4).
// Passing nil restores normal queueing.
func (c *Context) OnEvent(fn func(*gesture.Event)) {
	c.Queue.RegisterEventHandler(fn)
}

// Feed decodes and dispatches one wire frame to the appropriate recorder
// entry point. It returns io.EOF when the stream is cleanly exhausted.
func (c *Context) Feed(r io.Reader) error {
	frame, err := wire.Decode(r)
	if err != nil {
		return err
	}

	switch frame.Mask {
	case gesture.TouchStartMask:
		c.Recorder.StartGesture(frame.Touch, frame.SysName, frame.DevName)
	case gesture.TouchMotionMask, gesture.TouchHoldMask:
		c.Recorder.ContinueGesture(frame.Touch)
	case gesture.TouchEndMask:
		c.Recorder.EndGesture(frame.Touch)
	case gesture.TouchCancelMask:
		c.Recorder.CancelGesture(frame.Touch)
	default:
		c.log.Warn().Stringer("mask", frame.Mask).Msg("wire: unexpected frame mask, ignoring")
	}
	return nil
}

// Run reads frames from r until EOF or error, feeding the recorder on this
// goroutine (the producer). Callers typically run this concurrently with
// Dispatch, which drains the queue on a separate (consumer) goroutine, per
// spec.md §5's single-producer/single-consumer contract.
func (c *Context) Run(r io.Reader) error {
	for {
		if err := c.Feed(r); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// Dispatch blocks draining the queue, running the shell command of the
// first matching entry in Table for each delivered event, until the queue
// is closed. It is the consumer half of spec.md §5's threading model.
func (c *Context) Dispatch() {
	for {
		ev, ok := c.Queue.WaitForNextGesture()
		if !ok {
			return
		}
		c.dispatchOne(ev)
	}
}

func (c *Context) dispatchOne(ev *gesture.Event) {
	for _, bc := range c.Table() {
		if !binding.Matches(bc.Binding, ev) {
			continue
		}
		c.log.Debug().Str("gesture", ev.Dump()).Msg("binding matched")
		runCommand(c.log, bc.Command)
		return
	}
}

func runCommand(log zerolog.Logger, command string) {
	if command == "" {
		return
	}
	cmd := exec.Command("sh", "-c", command)
	if err := cmd.Run(); err != nil {
		log.Error().Err(err).Str("command", command).Msg("binding command failed")
	}
}
