// ABOUTME: Output bridge message type definitions
// ABOUTME: Defines structs for every message exchanged over /outputs
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
)

const (
	// Version of the bridge message set
	Version = 1

	TypeClientHello  = "client/hello"
	TypeServerHello  = "server/hello"
	TypeServerError  = "server/error"
	TypeState        = "outputs/state"
	TypeSelect       = "outputs/select"
	TypeRefresh      = "outputs/refresh"
	ErrUnknownDevice = "unknown_device"
	ErrBadMessage    = "bad_message"
)

// Message is the top-level wrapper for all bridge messages
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload into a Message of the given type
func NewMessage(msgType string, payload interface{}) (Message, error) {
	msg := Message{Type: msgType}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return msg, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	msg.Payload = data
	return msg, nil
}

// Decode unmarshals the payload into v
func (m Message) Decode(v interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%s: %w", m.Type, err)
	}
	return nil
}

// ClientHello optionally introduces a remote client
type ClientHello struct {
	Name string `json:"name"`
}

// ServerHello is sent to every client on connect
type ServerHello struct {
	ServerID string `json:"server_id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// State mirrors the selector inputs and its resolved value
type State struct {
	Devices          []audio.Device `json:"devices"`
	SelectedDeviceID string         `json:"selectedDeviceId"`
	Value            string         `json:"value"`
}

// Select asks the server to pick a device
type Select struct {
	ID string `json:"id"`
}

// Error reports a rejected request to its sender
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
