package llap

import (
	"errors"
	"fmt"
	"io"
)

// readChunkSize is the number of bytes requested from the radio per read.
// At 9600 baud this is roughly 50ms of traffic.
const readChunkSize = 64

// maxPending caps bytes held between polls. A radio spewing noise faster
// than the tick loop drains it loses the oldest bytes rather than growing
// without bound.
const maxPending = 16 * FrameLength

// Reader polls a serial source and returns at most one frame per call.
//
// The source should be configured with a short read timeout so that Read
// returns (0, nil) when the line is idle; io.EOF is treated the same way.
// A partial frame still pending at an idle read is dropped as malformed.
// Bytes read past a completed frame are kept for the next Poll, so a burst
// of frames is delivered one per tick without being lost.
type Reader struct {
	src      io.Reader
	dec      *Decoder
	pending  []byte
	scratch  []byte
	maxReads int

	overflows uint64
}

// NewReader creates a Reader over src. maxReads bounds the Read calls made
// by a single Poll (minimum 1).
func NewReader(src io.Reader, codec Codec, maxReads int) *Reader {
	if maxReads < 1 {
		maxReads = 1
	}
	return &Reader{
		src:      src,
		dec:      NewDecoder(codec),
		scratch:  make([]byte, readChunkSize),
		maxReads: maxReads,
	}
}

// Poll advances the decoder by at most one frame.
//
// Returns:
//   - (frame, true, nil) when a frame completed
//   - (Frame{}, false, ErrMalformed...) when a frame was dropped; the caller
//     should log it and carry on
//   - (Frame{}, false, err) for a read failure on the source
//   - (Frame{}, false, nil) when nothing complete is available yet
func (r *Reader) Poll() (Frame, bool, error) {
	if f, ok, err := r.drain(); ok || err != nil {
		return f, ok, err
	}

	for i := 0; i < r.maxReads; i++ {
		n, err := r.src.Read(r.scratch)
		if n > 0 {
			r.pending = append(r.pending, r.scratch[:n]...)
			if over := len(r.pending) - maxPending; over > 0 {
				r.pending = r.pending[over:]
				r.dec.Reset()
				r.overflows++
			}
			if f, ok, ferr := r.drain(); ok || ferr != nil {
				return f, ok, ferr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return r.idle()
			}
			return Frame{}, false, fmt.Errorf("serial read: %w", err)
		}
		if n == 0 {
			return r.idle()
		}
	}

	return Frame{}, false, nil
}

// idle handles a read that timed out with nothing on the line. A radio
// sends a frame's bytes back to back, so a partial frame at this point was
// cut off and is dropped before it can swallow the next one.
func (r *Reader) idle() (Frame, bool, error) {
	got := r.dec.Pending()
	if got == 0 {
		return Frame{}, false, nil
	}
	r.dec.Reset()
	return Frame{}, false, fmt.Errorf("%w: line idle after %d of %d characters", ErrMalformed, got, FrameLength)
}

// Buffered reports bytes read from the source but not yet decoded.
func (r *Reader) Buffered() int {
	return len(r.pending)
}

// Overflows reports how many times buffered bytes were discarded.
func (r *Reader) Overflows() uint64 {
	return r.overflows
}

// drain feeds pending bytes until a frame completes or fails.
func (r *Reader) drain() (Frame, bool, error) {
	for len(r.pending) > 0 {
		b := r.pending[0]
		r.pending = r.pending[1:]

		f, ok, err := r.dec.Feed(b)
		if ok || err != nil {
			r.compact()
			return f, ok, err
		}
	}
	r.pending = r.pending[:0]
	return Frame{}, false, nil
}

// compact copies leftover bytes to a fresh slice so the consumed prefix
// of the old backing array can be released.
func (r *Reader) compact() {
	r.pending = append(r.pending[:0:0], r.pending...)
}
