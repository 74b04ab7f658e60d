// Package protocol defines the structured-text frames exchanged between mesh nodes.
//
// A frame is one JSON object on a single line. The "node" field names the
// sender identity; the remaining fields depend on the sender variant:
//
//	{"node":"C3_Node","temperature":23.4,"humidity":51}
//	{"node":"WROOM_Gateway","distance":42.17,"gas":1033}
//
// Missing or null numeric fields decode to NaN, which consumers treat as
// "unknown" and never as zero.
package protocol

import (
	"math"
)

// Role identifies the schema variant of a Message.
type Role int

const (
	RoleUnknown Role = iota
	RoleLeaf
	RoleGateway
)

func (r Role) String() string {
	switch r {
	case RoleLeaf:
		return "leaf"
	case RoleGateway:
		return "gateway"
	default:
		return "unknown"
	}
}

// Labels maps roles to the identity strings carried on the wire.
type Labels struct {
	Leaf    string
	Gateway string
}

// DefaultLabels are the identities flashed into the deployed firmware.
var DefaultLabels = Labels{Leaf: "C3_Node", Gateway: "WROOM_Gateway"}

// Role returns the role whose label equals s, or RoleUnknown.
func (l Labels) Role(s string) Role {
	switch s {
	case "":
		return RoleUnknown
	case l.Leaf:
		return RoleLeaf
	case l.Gateway:
		return RoleGateway
	default:
		return RoleUnknown
	}
}

// Label returns the wire identity for r.
func (l Labels) Label(r Role) string {
	switch r {
	case RoleLeaf:
		return l.Leaf
	case RoleGateway:
		return l.Gateway
	default:
		return ""
	}
}

// Message is a decoded mesh frame. Fields that do not belong to the
// origin's variant are always NaN.
type Message struct {
	Origin Role

	// Leaf variant.
	Temperature float64
	Humidity    float64

	// Gateway variant.
	Distance float64
	Gas      float64
}

// LeafStatus builds a leaf-status message. Pass NaN for unknown readings.
func LeafStatus(temperature, humidity float64) Message {
	return Message{
		Origin:      RoleLeaf,
		Temperature: temperature,
		Humidity:    humidity,
		Distance:    math.NaN(),
		Gas:         math.NaN(),
	}
}

// GatewayStatus builds a gateway-status message carrying raw readings.
func GatewayStatus(distance, gas float64) Message {
	return Message{
		Origin:      RoleGateway,
		Temperature: math.NaN(),
		Humidity:    math.NaN(),
		Distance:    distance,
		Gas:         gas,
	}
}

// Known reports whether v is a usable reading.
func Known(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
