package llap

import (
	"bufio"
	"fmt"
)

// Decoder assembles frames from a serial byte stream, one byte at a time.
//
// Bytes outside a frame are ignored until the start marker is seen. Inside
// a frame, a NUL, CR, LF or any other non-printable byte aborts the frame:
// the partial buffer is discarded and the decoder hunts for the next start
// marker, so one corrupt frame never bleeds into the next.
type Decoder struct {
	codec Codec
	buf   [FrameLength]byte
	n     int
}

// NewDecoder returns a Decoder that strips codec's padding from payloads.
func NewDecoder(codec Codec) *Decoder {
	return &Decoder{codec: codec}
}

// Feed consumes one byte.
//
// Returns:
//   - (frame, true, nil) when b completes a valid frame
//   - (Frame{}, false, err) when the current frame is dropped (ErrMalformed)
//   - (Frame{}, false, nil) otherwise
func (d *Decoder) Feed(b byte) (Frame, bool, error) {
	if d.n == 0 {
		if b == StartMarker {
			d.buf[0] = b
			d.n = 1
		}
		return Frame{}, false, nil
	}

	if !isPrintable(b) {
		got := d.n
		d.Reset()
		return Frame{}, false, fmt.Errorf("%w: frame cut short by byte 0x%02X after %d of %d characters",
			ErrMalformed, b, got, FrameLength)
	}

	// Device IDs never contain the start marker, so one here begins a new frame.
	if b == StartMarker && d.n <= DevIDLength {
		got := d.n
		d.n = 1
		return Frame{}, false, fmt.Errorf("%w: new frame started after %d of %d characters",
			ErrMalformed, got, FrameLength)
	}

	d.buf[d.n] = b
	d.n++
	if d.n < FrameLength {
		return Frame{}, false, nil
	}

	d.n = 0
	f, err := d.codec.parse(d.buf[:])
	if err != nil {
		return Frame{}, false, err
	}
	return f, true, nil
}

// Reset drops any partially assembled frame.
func (d *Decoder) Reset() {
	d.n = 0
}

// Pending reports how many characters of the current frame have been collected.
func (d *Decoder) Pending() int {
	return d.n
}

// Decode parses a single frame using space padding.
func Decode(raw []byte) (Frame, error) {
	return Codec{}.Decode(raw)
}

// Decode parses raw as exactly one frame. Leading bytes before the start
// marker are skipped; after the frame only a terminator (NUL, CR or LF) may
// follow.
//
// Fails with ErrMalformed when the input ends before the frame is complete,
// the frame is interrupted, or extra characters follow it.
func (c Codec) Decode(raw []byte) (Frame, error) {
	d := NewDecoder(c)

	for i, b := range raw {
		f, ok, err := d.Feed(b)
		if err != nil {
			return Frame{}, err
		}
		if !ok {
			continue
		}
		for _, rest := range raw[i+1:] {
			if !isTerminator(rest) {
				return Frame{}, fmt.Errorf("%w: %d unexpected characters after frame", ErrMalformed, len(raw)-i-1)
			}
		}
		return f, nil
	}

	if d.Pending() > 0 {
		return Frame{}, fmt.Errorf("%w: missing terminator, %d of %d characters", ErrMalformed, d.Pending(), FrameLength)
	}
	return Frame{}, fmt.Errorf("%w: no start marker", ErrMalformed)
}

// ScanFrames is a bufio.SplitFunc that yields raw FrameLength-byte frames.
// Noise between frames is skipped and interrupted frames are discarded.
// Tokens still need Codec.Decode for device ID validation.
func ScanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for {
		for start < len(data) && data[start] != StartMarker {
			start++
		}
		if start == len(data) {
			return len(data), nil, nil
		}

		end := start + 1
		for end < len(data) && end-start < FrameLength && isPrintable(data[end]) {
			end++
		}

		switch {
		case end-start == FrameLength:
			return end, data[start:end], nil
		case end < len(data):
			// Interrupted by a non-printable byte; resync after it.
			start = end + 1
		case atEOF:
			return len(data), nil, nil
		default:
			// Need more data; keep the partial frame.
			return start, nil, nil
		}
	}
}

var _ bufio.SplitFunc = ScanFrames

func isTerminator(b byte) bool {
	return b == 0 || b == '\r' || b == '\n'
}
