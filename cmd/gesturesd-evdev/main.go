// Command gesturesd-evdev is the reference producer for gesturesd: it reads
// raw multi-touch samples straight from an evdev device node and writes
// internal/wire frames to stdout, the way the core's consumer expects. It
// tracks ABS_MT_SLOT/ABS_MT_TRACKING_ID/ABS_MT_POSITION_{X,Y} the way
// Pitmairen-tpswipe's handleAbsEvent does, trading that project's
// direct-to-X11 gesture detection for simply forwarding samples over the
// wire protocol and letting the core's recorder do the classification.
//
// It is a separate process from gesturesd: spec.md's producer/consumer
// boundary means this binary never shares memory with the core, only the
// wire protocol byte stream on stdout.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gvalkov/golang-evdev"
)

const maxSlots = 16

type slot struct {
	trackingID int32
	active     bool
	x, y       int32
	started    bool
}

type producer struct {
	out         io.Writer
	deviceID    uint32
	sysName     string
	devName     string
	currentSlot int
	slots       [maxSlots]slot
}

func main() {
	grab := false
	var paths []string
	for _, arg := range os.Args[1:] {
		if arg == "--grab" {
			grab = true
			continue
		}
		paths = append(paths, arg)
	}

	if len(paths) == 0 {
		// Device enumeration/hot-plug is explicitly out of scope (spec.md
		// §5's non-goals); the caller must name device paths directly.
		fmt.Fprintln(os.Stderr, "gesturesd-evdev: no device paths given; pass one or more /dev/input/eventN paths")
		os.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	errs := make(chan error, len(paths))
	for i, path := range paths {
		go runDevice(path, uint32(i), grab, out, errs)
	}

	for range paths {
		if err := <-errs; err != nil {
			fmt.Fprintln(os.Stderr, "gesturesd-evdev:", err)
			os.Exit(1)
		}
	}
}

func runDevice(path string, deviceID uint32, grab bool, out io.Writer, errs chan<- error) {
	dev, err := evdev.Open(path)
	if err != nil {
		errs <- fmt.Errorf("opening %s: %w", path, err)
		return
	}
	if grab {
		if err := dev.Grab(); err != nil {
			errs <- fmt.Errorf("grabbing %s: %w", path, err)
			return
		}
		defer dev.Release()
	}

	p := &producer{out: out, deviceID: deviceID, sysName: path, devName: dev.Name}

	for {
		events, err := dev.Read()
		if err != nil {
			errs <- fmt.Errorf("reading %s: %w", path, err)
			return
		}
		for i := range events {
			p.handle(&events[i])
		}
	}
}

func nowMs() uint32 {
	return uint32(time.Now().UnixMilli())
}

func (p *producer) handle(event *evdev.InputEvent) {
	switch event.Type {
	case evdev.EV_ABS:
		p.handleAbs(event)
	case evdev.EV_SYN:
		// TOUCH_FRAME boundary: nothing to batch here since every sample is
		// written as it arrives, unlike the teacher's libinput-frame model.
	}
}

func (p *producer) handleAbs(event *evdev.InputEvent) {
	switch event.Code {
	case evdev.ABS_MT_SLOT:
		p.currentSlot = int(event.Value)
	case evdev.ABS_MT_TRACKING_ID:
		if p.currentSlot < 0 || p.currentSlot >= maxSlots {
			return
		}
		s := &p.slots[p.currentSlot]
		if event.Value == -1 {
			if s.active {
				p.writeFrame(gestureMaskTouchEnd, s)
			}
			s.active = false
			s.started = false
			return
		}
		s.active = true
		s.trackingID = event.Value
	case evdev.ABS_MT_POSITION_X:
		if p.currentSlot < 0 || p.currentSlot >= maxSlots {
			return
		}
		s := &p.slots[p.currentSlot]
		s.x = event.Value
		p.maybeStart(s)
		if s.started {
			p.writeFrame(gestureMaskTouchMotion, s)
		}
	case evdev.ABS_MT_POSITION_Y:
		if p.currentSlot < 0 || p.currentSlot >= maxSlots {
			return
		}
		s := &p.slots[p.currentSlot]
		s.y = event.Value
		p.maybeStart(s)
		if s.started {
			p.writeFrame(gestureMaskTouchMotion, s)
		}
	}
}

func (p *producer) maybeStart(s *slot) {
	if s.active && !s.started {
		s.started = true
		p.writeFrame(gestureMaskTouchStart, s)
	}
}

// The mask byte values mirror internal/gesture.Mask's bit layout; this
// producer doesn't import the core module (it is a standalone process
// boundary) so the values are restated here.
const (
	gestureMaskTouchEnd    = 1 << 1
	gestureMaskTouchStart  = 1 << 2
	gestureMaskTouchMotion = 1 << 4
)

func (p *producer) seatForSlot() int32 {
	return int32(p.currentSlot)
}

func (p *producer) writeFrame(mask byte, s *slot) {
	buf := make([]byte, 0, 1+4+4+4+4+4+4+4)
	buf = append(buf, mask)

	var scratch [4]byte
	putU32 := func(v uint32) {
		binary.NativeEndian.PutUint32(scratch[:], v)
		buf = append(buf, scratch[:]...)
	}
	putI32 := func(v int32) {
		binary.NativeEndian.PutUint32(scratch[:], uint32(v))
		buf = append(buf, scratch[:]...)
	}

	putU32(p.deviceID)
	putI32(p.seatForSlot())
	putI32(s.x)
	putI32(s.y)
	putI32(s.x)
	putI32(s.y)
	putU32(nowMs())

	if mask == gestureMaskTouchStart {
		buf = append(buf, byte(len(p.sysName)))
		buf = append(buf, p.sysName...)
		buf = append(buf, byte(len(p.devName)))
		buf = append(buf, p.devName...)
	}

	p.out.Write(buf)
}
