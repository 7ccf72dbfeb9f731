// Package protocol is the JSON wire format exchanged between peers
package protocol

import (
	"encoding/json"

	"github.com/KirkDiggler/ludo/internal/models"
)

// Message types
const (
	MsgHello       = "hello"
	MsgAction      = "action"
	MsgSyncRequest = "sync_request"
	MsgSnapshot    = "snapshot"
)

// Envelope wraps every message on the wire
type Envelope struct {
	Type    string          `json:"t"`
	Sender  string          `json:"s"`
	GameID  string          `json:"g"`
	Payload json.RawMessage `json:"p"`
}

// Hello announces a peer and the seat it asks for. A negative seat leaves
// the choice to the seat-0 peer.
type Hello struct {
	Seat int    `json:"seat"`
	Name string `json:"name,omitempty"`
}

// ActionMessage carries one action record for replay
type ActionMessage struct {
	Action models.Action `json:"action"`
}

// SyncRequest asks a peer for a full snapshot
type SyncRequest struct {
	LastSeq int `json:"last_seq"`
}

// Snapshot carries the full session state for a full sync
type Snapshot struct {
	Session *models.Session `json:"session"`

	// Seats maps peer IDs to the seat they play; only the seat-0 peer sends it
	Seats map[string]int `json:"seats,omitempty"`
}
