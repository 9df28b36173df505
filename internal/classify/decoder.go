package classify

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrDecode is returned when every decoder in the list rejected a payload.
var ErrDecode = errors.New("no decoder accepted payload")

// Decoder turns one raw socket payload into decoded frames. Payloads may
// carry a single frame or an array of frames.
type Decoder interface {
	// Name identifies the decoder in logs and errors.
	Name() string

	// Decode parses the payload. An error means this decoder does not
	// understand the payload, not that the payload is fatal.
	Decode(data []byte) ([]Frame, error)
}

// DefaultDecoders returns the decoder list in protocol-preference order:
// msgpack first, JSON fallback.
func DefaultDecoders() []Decoder {
	return []Decoder{msgpackDecoder{}, jsonDecoder{}}
}

// msgpackDecoder decodes msgpack-encoded frames.
type msgpackDecoder struct{}

func (msgpackDecoder) Name() string { return "msgpack" }

func (msgpackDecoder) Decode(data []byte) ([]Frame, error) {
	if len(data) == 0 {
		return nil, errors.New("empty payload")
	}

	var frames []Frame
	if err := msgpack.Unmarshal(data, &frames); err == nil {
		return frames, nil
	}

	var single Frame
	if err := msgpack.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []Frame{single}, nil
}

// jsonDecoder decodes JSON-encoded frames.
type jsonDecoder struct{}

func (jsonDecoder) Name() string { return "json" }

func (jsonDecoder) Decode(data []byte) ([]Frame, error) {
	if len(data) == 0 {
		return nil, errors.New("empty payload")
	}

	// Skip leading whitespace to find the first structural byte.
	i := 0
	for i < len(data) && (data[i] == ' ' || data[i] == '\t' || data[i] == '\n' || data[i] == '\r') {
		i++
	}
	if i == len(data) {
		return nil, errors.New("blank payload")
	}

	if data[i] == '[' {
		var frames []Frame
		if err := json.Unmarshal(data, &frames); err != nil {
			return nil, err
		}
		return frames, nil
	}

	var single Frame
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []Frame{single}, nil
}

// decodeFrames tries each decoder in order and returns the first success.
func decodeFrames(decoders []Decoder, data []byte) ([]Frame, error) {
	var lastErr error
	for _, d := range decoders {
		frames, err := d.Decode(data)
		if err == nil {
			return frames, nil
		}
		lastErr = fmt.Errorf("%s: %w", d.Name(), err)
	}
	return nil, fmt.Errorf("%w: %w", ErrDecode, lastErr)
}
