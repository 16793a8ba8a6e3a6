package llap

import (
	"errors"
	"io"
	"testing"
)

// chunkSource returns one queued chunk per Read, then (0, nil).
type chunkSource struct {
	chunks [][]byte
	errs   []error
	reads  int
}

func (s *chunkSource) Read(p []byte) (int, error) {
	s.reads++
	if len(s.chunks) == 0 {
		if len(s.errs) > 0 {
			err := s.errs[0]
			s.errs = s.errs[1:]
			return 0, err
		}
		return 0, nil
	}
	n := copy(p, s.chunks[0])
	s.chunks[0] = s.chunks[0][n:]
	if len(s.chunks[0]) == 0 {
		s.chunks = s.chunks[1:]
	}
	return n, nil
}

func TestReader_OneFramePerPoll(t *testing.T) {
	src := &chunkSource{chunks: [][]byte{[]byte("aA1ON       aB2OFF      ")}}
	r := NewReader(src, Codec{}, 1)

	f, ok, err := r.Poll()
	if err != nil || !ok {
		t.Fatalf("first Poll() = %v, %v, %v", f, ok, err)
	}
	if f.DeviceID != "A1" {
		t.Errorf("first frame = %v", f)
	}
	if r.Buffered() != FrameLength {
		t.Errorf("Buffered() = %d, want %d", r.Buffered(), FrameLength)
	}

	f, ok, err = r.Poll()
	if err != nil || !ok {
		t.Fatalf("second Poll() = %v, %v, %v", f, ok, err)
	}
	if f.DeviceID != "B2" || f.Payload != "OFF" {
		t.Errorf("second frame = %v", f)
	}
	if src.reads != 1 {
		t.Errorf("reads = %d, want 1 (second frame came from the buffer)", src.reads)
	}

	if _, ok, err := r.Poll(); ok || err != nil {
		t.Errorf("idle Poll() = %v, %v", ok, err)
	}
}

func TestReader_FrameSplitAcrossReads(t *testing.T) {
	tests := []struct {
		name       string
		maxReads   int
		pollsUntil int
	}{
		{name: "one read per poll", maxReads: 1, pollsUntil: 2},
		{name: "two reads per poll", maxReads: 2, pollsUntil: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &chunkSource{chunks: [][]byte{[]byte("aA1"), []byte("ON       ")}}
			r := NewReader(src, Codec{}, tt.maxReads)

			for i := 1; i <= tt.pollsUntil; i++ {
				f, ok, err := r.Poll()
				if err != nil {
					t.Fatalf("Poll() error: %v", err)
				}
				if i < tt.pollsUntil && ok {
					t.Fatalf("frame on poll %d, want on poll %d", i, tt.pollsUntil)
				}
				if i == tt.pollsUntil {
					if !ok || f.Payload != "ON" {
						t.Fatalf("poll %d = %v, %v", i, f, ok)
					}
				}
			}
		})
	}
}

func TestReader_MalformedThenValid(t *testing.T) {
	src := &chunkSource{chunks: [][]byte{[]byte("aA1O\naB2ON       ")}}
	r := NewReader(src, Codec{}, 1)

	_, ok, err := r.Poll()
	if ok || !errors.Is(err, ErrMalformed) {
		t.Fatalf("first Poll() = %v, %v, want ErrMalformed", ok, err)
	}

	f, ok, err := r.Poll()
	if err != nil || !ok || f.DeviceID != "B2" {
		t.Errorf("second Poll() = %v, %v, %v", f, ok, err)
	}
}

func TestReader_ReadErrors(t *testing.T) {
	errBoom := errors.New("device unplugged")

	src := &chunkSource{errs: []error{io.EOF, errBoom}}
	r := NewReader(src, Codec{}, 1)

	if _, ok, err := r.Poll(); ok || err != nil {
		t.Errorf("EOF Poll() = %v, %v, want idle", ok, err)
	}

	_, ok, err := r.Poll()
	if ok || !errors.Is(err, errBoom) {
		t.Errorf("Poll() = %v, %v, want wrapped read error", ok, err)
	}
}

func TestReader_MaxReadsFloor(t *testing.T) {
	r := NewReader(&chunkSource{}, Codec{}, 0)
	if r.maxReads != 1 {
		t.Errorf("maxReads = %d, want 1", r.maxReads)
	}
}

func TestReader_IdleLineDropsCutOffFrame(t *testing.T) {
	// An empty chunk is a read that timed out with nothing on the line.
	src := &chunkSource{chunks: [][]byte{[]byte("aA1HE"), {}, []byte("aB2ON       ")}}
	r := NewReader(src, Codec{}, 1)

	if f, ok, err := r.Poll(); ok || err != nil {
		t.Fatalf("partial Poll() = %v, %v, %v", f, ok, err)
	}

	_, ok, err := r.Poll()
	if ok || !errors.Is(err, ErrMalformed) {
		t.Fatalf("idle Poll() = %v, %v, want ErrMalformed", ok, err)
	}

	f, ok, err := r.Poll()
	if err != nil || !ok {
		t.Fatalf("next Poll() = %v, %v, %v", f, ok, err)
	}
	if f != (Frame{DeviceID: "B2", Payload: "ON"}) {
		t.Errorf("frame = %v, want B2 ON", f)
	}
}

func TestReader_IdleWithoutPartialFrame(t *testing.T) {
	src := &chunkSource{chunks: [][]byte{[]byte("noise"), {}}, errs: []error{io.EOF}}
	r := NewReader(src, Codec{}, 1)

	for i := 0; i < 3; i++ {
		if _, ok, err := r.Poll(); ok || err != nil {
			t.Errorf("Poll() %d = %v, %v, want idle", i, ok, err)
		}
	}
}
