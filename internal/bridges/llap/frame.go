package llap

import (
	"fmt"
	"strings"
)

// LLAP wire constants.
const (
	// StartMarker begins every frame on the wire.
	StartMarker byte = 'a'

	// DevIDLength is the fixed device ID width.
	DevIDLength = 2

	// DataLength is the payload width; shorter payloads are padded.
	DataLength = 9

	// FrameLength is the encoded size of a frame: marker + ID + payload.
	FrameLength = 1 + DevIDLength + DataLength

	// BufferLength is FrameLength plus the implicit terminator.
	BufferLength = FrameLength + 1

	// PadSpace pads short payloads with spaces.
	PadSpace byte = ' '

	// PadDash pads short payloads with dashes, as classic LLAP firmware does.
	PadDash byte = '-'
)

// Frame is a decoded LLAP message.
type Frame struct {
	// DeviceID is exactly DevIDLength characters from A-Z, 0-9, '-' or '?'.
	// "--" addresses every device and "??" an unconfigured one.
	DeviceID string

	// Payload is up to DataLength printable characters without padding.
	Payload string
}

// String returns a human-readable representation of the frame.
func (f Frame) String() string {
	return fmt.Sprintf("Frame{ID:%s, Payload:%q}", f.DeviceID, f.Payload)
}

// Codec encodes and parses frames with a fixed padding byte.
// The zero value pads with PadSpace.
type Codec struct {
	Padding byte
}

// NewCodec returns a Codec for the configured padding string (" " or "-").
func NewCodec(padding string) (Codec, error) {
	switch padding {
	case "", " ":
		return Codec{Padding: PadSpace}, nil
	case "-":
		return Codec{Padding: PadDash}, nil
	default:
		return Codec{}, fmt.Errorf("unsupported padding %q", padding)
	}
}

func (c Codec) pad() byte {
	if c.Padding == 0 {
		return PadSpace
	}
	return c.Padding
}

// Encode builds the wire form of a frame using space padding.
func Encode(deviceID, payload string) ([]byte, error) {
	return Codec{}.Encode(deviceID, payload)
}

// Encode builds the 12-byte wire form of (deviceID, payload).
//
// Returns ErrFieldTooLong when the ID is not exactly DevIDLength characters
// or the payload exceeds DataLength, and ErrMalformed for characters that
// cannot travel in an LLAP frame or a payload ending in the padding byte
// (which would not survive decoding).
func (c Codec) Encode(deviceID, payload string) ([]byte, error) {
	if err := c.validate(deviceID, payload); err != nil {
		return nil, err
	}

	buf := make([]byte, FrameLength)
	buf[0] = StartMarker
	copy(buf[1:1+DevIDLength], deviceID)
	n := copy(buf[1+DevIDLength:], payload)
	for i := 1 + DevIDLength + n; i < FrameLength; i++ {
		buf[i] = c.pad()
	}

	return buf, nil
}

// EncodeFrame is Encode for an existing Frame.
func (c Codec) EncodeFrame(f Frame) ([]byte, error) {
	return c.Encode(f.DeviceID, f.Payload)
}

// NewFrame validates the fields and returns a Frame.
func (c Codec) NewFrame(deviceID, payload string) (Frame, error) {
	if err := c.validate(deviceID, payload); err != nil {
		return Frame{}, err
	}
	return Frame{DeviceID: deviceID, Payload: payload}, nil
}

func (c Codec) validate(deviceID, payload string) error {
	if len(deviceID) != DevIDLength {
		return fmt.Errorf("%w: device id %q must be %d characters", ErrFieldTooLong, deviceID, DevIDLength)
	}
	if len(payload) > DataLength {
		return fmt.Errorf("%w: payload %q exceeds %d characters", ErrFieldTooLong, payload, DataLength)
	}
	if err := checkDeviceID(deviceID); err != nil {
		return err
	}
	for i := 0; i < len(payload); i++ {
		if !isPrintable(payload[i]) {
			return fmt.Errorf("%w: payload byte 0x%02X at %d is not printable", ErrMalformed, payload[i], i)
		}
	}
	if payload != "" && payload[len(payload)-1] == c.pad() {
		return fmt.Errorf("%w: payload %q ends with padding %q", ErrMalformed, payload, c.pad())
	}
	return nil
}

// parse turns exactly FrameLength bytes starting with the marker into a Frame.
func (c Codec) parse(raw []byte) (Frame, error) {
	if len(raw) != FrameLength {
		return Frame{}, fmt.Errorf("%w: %d characters, want %d", ErrMalformed, len(raw), FrameLength)
	}
	if raw[0] != StartMarker {
		return Frame{}, fmt.Errorf("%w: missing start marker", ErrMalformed)
	}

	id := string(raw[1 : 1+DevIDLength])
	if err := checkDeviceID(id); err != nil {
		return Frame{}, err
	}

	data := raw[1+DevIDLength:]
	for i, b := range data {
		if !isPrintable(b) {
			return Frame{}, fmt.Errorf("%w: payload byte 0x%02X at %d is not printable", ErrMalformed, b, i)
		}
	}

	return Frame{
		DeviceID: id,
		Payload:  strings.TrimRight(string(data), string(c.pad())),
	}, nil
}

func checkDeviceID(id string) error {
	for i := 0; i < len(id); i++ {
		if !isDeviceIDChar(id[i]) {
			return fmt.Errorf("%w: device id %q has invalid character %q", ErrMalformed, id, id[i])
		}
	}
	return nil
}

func isDeviceIDChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '-' || b == '?'
}

func isPrintable(b byte) bool {
	return b >= 0x20 && b <= 0x7E
}
