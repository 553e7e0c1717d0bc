// Package wire decodes the touch-sample byte stream described in spec.md
// §6: a sequence of frames, each a 1-byte GestureMask followed by a
// fixed-layout TouchEvent record, with two length-prefixed strings
// trailing a TouchStartMask frame. The layout is native-endian and packed
// — a deliberate compatibility boundary with the separate producer
// process, not a format this package gets to choose (see DESIGN.md).
package wire

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/8ff/gesturesd/internal/direction"
	"github.com/8ff/gesturesd/internal/gesture"
)

// ErrShortRead is returned (wrapped) when a frame is truncated mid-record;
// per spec.md §7 the reader stops and emits no partial gesture.
var ErrShortRead = errors.New("wire: short read")

// rawTouchEvent mirrors the packed C record: deviceID u32, seat i32,
// point {i32,i32}, percentPoint {i32,i32}, timeMs u32.
type rawTouchEvent struct {
	DeviceID     uint32
	Seat         int32
	PointX       int32
	PointY       int32
	PercentX     int32
	PercentY     int32
	TimeMs       uint32
}

// Frame is one decoded unit off the wire: the mask that arrived, the touch
// sample, and — only for TouchStartMask frames — the device names.
type Frame struct {
	Mask    gesture.Mask
	Touch   gesture.TouchEvent
	SysName string
	DevName string
}

// Decode reads exactly one frame from r. It returns io.EOF when r is
// exhausted between frames (a clean stream end), and an error wrapping
// ErrShortRead when the stream ends mid-frame.
func Decode(r io.Reader) (Frame, error) {
	var maskByte [1]byte
	if _, err := io.ReadFull(r, maskByte[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, errShort(err)
	}
	mask := gesture.Mask(maskByte[0])

	var raw rawTouchEvent
	if err := binary.Read(r, binary.NativeEndian, &raw); err != nil {
		return Frame{}, errShort(err)
	}

	frame := Frame{
		Mask: mask,
		Touch: gesture.TouchEvent{
			DeviceID:     raw.DeviceID,
			Seat:         raw.Seat,
			Point:        direction.Point{X: raw.PointX, Y: raw.PointY},
			PercentPoint: direction.Point{X: raw.PercentX, Y: raw.PercentY},
			TimeMs:       raw.TimeMs,
		},
	}

	if mask&gesture.TouchStartMask != 0 {
		sysName, err := readPString(r)
		if err != nil {
			return Frame{}, errShort(err)
		}
		devName, err := readPString(r)
		if err != nil {
			return Frame{}, errShort(err)
		}
		frame.SysName = sysName
		frame.DevName = devName
	}

	return frame, nil
}

// readPString reads a (u8 length, length bytes) Pascal-style string.
func readPString(r io.Reader) (string, error) {
	var length [1]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return "", err
	}
	buf := make([]byte, length[0])
	if length[0] > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
	}
	return string(buf), nil
}

func errShort(err error) error {
	return errors.Join(ErrShortRead, err)
}
