// Package protocol defines the wire format spoken with the physics build:
// $type-tagged command maps going out, per-frame output records coming back.
package protocol

import "encoding/json"

const Version = "1.6"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeStep    = "STEP"
	TypeFrame   = "FRAME"
	TypeError   = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
