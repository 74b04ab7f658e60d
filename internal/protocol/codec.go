package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrMalformed is returned for frames that are not a JSON object.
	ErrMalformed = errors.New("protocol: malformed frame")
	// ErrUnknownOrigin is returned when the node field is missing or unrecognised.
	ErrUnknownOrigin = errors.New("protocol: unknown origin")
	// ErrUnexpectedOrigin is returned by DecodeFrom when the sender is not the expected peer.
	ErrUnexpectedOrigin = errors.New("protocol: unexpected origin")
)

type wireMessage struct {
	Node        string   `json:"node"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Distance    *float64 `json:"distance,omitempty"`
	Gas         *float64 `json:"gas,omitempty"`
}

// Codec encodes and decodes frames for one set of identity labels.
type Codec struct {
	labels Labels
}

func NewCodec(labels Labels) Codec {
	return Codec{labels: labels}
}

func (c Codec) Labels() Labels { return c.labels }

// Encode serialises m as a single-line frame. Non-finite readings are omitted.
func (c Codec) Encode(m Message) ([]byte, error) {
	label := c.labels.Label(m.Origin)
	if label == "" {
		return nil, fmt.Errorf("encode %s message: %w", m.Origin, ErrUnknownOrigin)
	}

	w := wireMessage{Node: label}
	switch m.Origin {
	case RoleLeaf:
		w.Temperature = optional(m.Temperature)
		w.Humidity = optional(m.Humidity)
	case RoleGateway:
		w.Distance = optional(m.Distance)
		w.Gas = optional(m.Gas)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", m.Origin, err)
	}
	return data, nil
}

// Decode parses a frame. Keys match exactly, unknown fields are ignored, and
// missing, null or out-of-range readings become NaN.
func (c Codec) Decode(frame []byte) (Message, error) {
	frame = bytes.TrimSpace(frame)
	if len(frame) == 0 || frame[0] != '{' {
		return Message{}, ErrMalformed
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var node string
	if raw, ok := fields["node"]; ok {
		if err := json.Unmarshal(raw, &node); err != nil {
			return Message{}, fmt.Errorf("%w: node: %v", ErrMalformed, err)
		}
	}

	var a, b float64
	var err error
	role := c.labels.Role(node)
	switch role {
	case RoleLeaf:
		if a, err = number(fields, "temperature"); err == nil {
			b, err = number(fields, "humidity")
		}
	case RoleGateway:
		if a, err = number(fields, "distance"); err == nil {
			b, err = number(fields, "gas")
		}
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownOrigin, node)
	}
	if err != nil {
		return Message{}, err
	}

	if role == RoleLeaf {
		return LeafStatus(a, b), nil
	}
	return GatewayStatus(a, b), nil
}

// number reads one numeric field. Anything other than a JSON number or null
// is malformed; a number beyond float64 range is unknown.
func number(fields map[string]json.RawMessage, key string) (float64, error) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return math.NaN(), nil
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return 0, fmt.Errorf("%w: %s is not a number", ErrMalformed, key)
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return value(&v), nil
}

// DecodeFrom decodes a frame and rejects it unless it came from want.
func (c Codec) DecodeFrom(frame []byte, want Role) (Message, error) {
	m, err := c.Decode(frame)
	if err != nil {
		return Message{}, err
	}
	if m.Origin != want {
		return Message{}, fmt.Errorf("%w: got %s, want %s", ErrUnexpectedOrigin, m.Origin, want)
	}
	return m, nil
}

func optional(v float64) *float64 {
	if !Known(v) {
		return nil
	}
	return &v
}

func value(p *float64) float64 {
	if p == nil || !Known(*p) {
		return math.NaN()
	}
	return *p
}
