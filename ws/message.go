package ws

import "encoding/json"

// InboundEnvelope is the generic envelope for all client-to-server events.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-server events ---

// CreateRoomMsg opens a new session with the sender in slot 0.
type CreateRoomMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// JoinRoomMsg attaches the connection to a session, filling the second slot
// or rejoining an existing one.
type JoinRoomMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
}

// GetRoomStateMsg requests a fresh full-state snapshot. Rate-limited per
// session.
type GetRoomStateMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// SelectCardsMsg commits the sender's deck for battle.
type SelectCardsMsg struct {
	Type      string   `json:"type"`
	SessionID string   `json:"sessionId"`
	PlayerID  string   `json:"playerId"`
	Cards     []string `json:"cards"`
}

// PlayCardMsg plays one card; TargetCardID is required for defense plays.
type PlayCardMsg struct {
	Type         string `json:"type"`
	SessionID    string `json:"sessionId"`
	PlayerID     string `json:"playerId"`
	CardID       string `json:"cardId"`
	TargetCardID string `json:"targetCardId,omitempty"`
}

// CheckRoomMsg asks whether a session exists.
type CheckRoomMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
}

// LeaveRoomMsg detaches the connection without mutating session state.
type LeaveRoomMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
}

// --- Server-to-client responses owned by the ws layer ---
// (Session-scoped events are built by the session package.)

// RoomCreatedMsg confirms room creation to the creating connection.
type RoomCreatedMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// RoomCheckedMsg answers a checkRoom probe.
type RoomCheckedMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Exists    bool   `json:"exists"`
}

// ErrorMsg is sent when an inbound event is malformed or cannot be routed.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
