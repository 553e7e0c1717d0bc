package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/8ff/gesturesd/internal/gesture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeRaw(buf *bytes.Buffer, mask gesture.Mask, raw rawTouchEvent) {
	buf.WriteByte(byte(mask))
	binary.Write(buf, binary.NativeEndian, raw)
}

func encodePString(buf *bytes.Buffer, s string) {
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
}

func TestDecodeMotionFrame(t *testing.T) {
	var buf bytes.Buffer
	encodeRaw(&buf, gesture.TouchMotionMask, rawTouchEvent{
		DeviceID: 7, Seat: 2, PointX: 10, PointY: 20, PercentX: 1, PercentY: 2, TimeMs: 1000,
	})

	frame, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, gesture.TouchMotionMask, frame.Mask)
	assert.Equal(t, uint32(7), frame.Touch.DeviceID)
	assert.Equal(t, int32(2), frame.Touch.Seat)
	assert.Equal(t, int32(10), frame.Touch.Point.X)
	assert.Equal(t, int32(20), frame.Touch.Point.Y)
	assert.Equal(t, uint32(1000), frame.Touch.TimeMs)
	assert.Empty(t, frame.SysName)
	assert.Empty(t, frame.DevName)
}

func TestDecodeStartFrameReadsNames(t *testing.T) {
	var buf bytes.Buffer
	encodeRaw(&buf, gesture.TouchStartMask, rawTouchEvent{DeviceID: 1, Seat: 0, TimeMs: 5})
	encodePString(&buf, "event3")
	encodePString(&buf, "Synaptics TouchPad")

	frame, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, gesture.TouchStartMask, frame.Mask)
	assert.Equal(t, "event3", frame.SysName)
	assert.Equal(t, "Synaptics TouchPad", frame.DevName)
}

func TestDecodeEmptyStreamReturnsEOF(t *testing.T) {
	_, err := Decode(&bytes.Buffer{})
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecodeTruncatedFrameReturnsShortRead(t *testing.T) {
	// A mask byte with no following record at all.
	buf := bytes.NewBuffer([]byte{byte(gesture.TouchMotionMask)})
	_, err := Decode(buf)
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestDecodeTruncatedStartFrameNamesReturnsShortRead(t *testing.T) {
	var buf bytes.Buffer
	encodeRaw(&buf, gesture.TouchStartMask, rawTouchEvent{DeviceID: 1})
	encodePString(&buf, "event3")
	// devName length byte present but no payload bytes follow.
	buf.WriteByte(5)

	_, err := Decode(&buf)
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestDecodeSequentialFramesFromOneStream(t *testing.T) {
	var buf bytes.Buffer
	encodeRaw(&buf, gesture.TouchStartMask, rawTouchEvent{DeviceID: 1, TimeMs: 1})
	encodePString(&buf, "event0")
	encodePString(&buf, "Touchpad")
	encodeRaw(&buf, gesture.TouchEndMask, rawTouchEvent{DeviceID: 1, TimeMs: 2})

	first, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, gesture.TouchStartMask, first.Mask)

	second, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, gesture.TouchEndMask, second.Mask)
	assert.Equal(t, uint32(2), second.Touch.TimeMs)

	_, err = Decode(&buf)
	assert.ErrorIs(t, err, io.EOF)
}
