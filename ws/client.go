package ws

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"card-battle-server/session"
	"card-battle-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

// Client is a middleman between the websocket connection and the sessions.
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	PlayerID string

	// Session and sub are set while the connection is attached to a room.
	Session *session.Session
	sub     *session.Subscriber
}

// ReadPump pumps messages from the websocket connection into the session
// actors. It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "tag", "ws", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket
// connection. It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	switch envelope.Type {
	case "createRoom":
		c.handleCreateRoom(envelope.Raw)
	case "joinRoom":
		c.handleJoinRoom(envelope.Raw)
	case "getRoomState":
		c.handleGetRoomState(envelope.Raw)
	case "selectCards":
		c.handleSelectCards(envelope.Raw)
	case "playCard":
		c.handlePlayCard(envelope.Raw)
	case "checkRoom":
		c.handleCheckRoom(envelope.Raw)
	case "leaveRoom":
		c.handleLeaveRoom(envelope.Raw)
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) validPlayerID(id string) bool {
	return id != "" && len(id) <= c.Hub.Config.MaxPlayerIDLength
}

// dispatch sends an action into a session actor, guarded against actors
// that already exited.
func (c *Client) dispatch(s *session.Session, a session.Action) {
	select {
	case s.Actions <- a:
	case <-s.Done:
		c.sendError("Session is closed.")
	}
}

func (c *Client) handleCreateRoom(raw json.RawMessage) {
	var msg CreateRoomMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid createRoom message.")
		return
	}
	if !c.validPlayerID(msg.PlayerID) {
		c.sendError("playerId is required and must be at most " +
			strconv.Itoa(c.Hub.Config.MaxPlayerIDLength) + " characters.")
		return
	}
	if c.Session != nil {
		c.sendError("Already attached to a session; leave it first.")
		return
	}

	s := c.Hub.Registry.Create(msg.PlayerID)
	c.PlayerID = msg.PlayerID

	resp := RoomCreatedMsg{Type: "roomCreated", SessionID: s.ID}
	data, _ := json.Marshal(resp)
	wsutil.SafeSend(c.Send, data)
}

func (c *Client) handleJoinRoom(raw json.RawMessage) {
	var msg JoinRoomMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid joinRoom message.")
		return
	}
	if msg.SessionID == "" || !c.validPlayerID(msg.PlayerID) {
		c.sendError("sessionId and playerId are required.")
		return
	}
	if c.Session != nil && c.Session.ID != msg.SessionID {
		c.sendError("Already attached to another session; leave it first.")
		return
	}

	s, err := c.Hub.Registry.Get(msg.SessionID)
	if err != nil {
		resp := session.JoinRoomErrorMsg{Type: "joinRoomError", Message: err.Error()}
		data, _ := json.Marshal(resp)
		wsutil.SafeSend(c.Send, data)
		return
	}

	c.PlayerID = msg.PlayerID
	if c.sub == nil || c.Session != s {
		c.sub = &session.Subscriber{PlayerID: msg.PlayerID, Send: c.Send}
	}
	c.Session = s

	c.dispatch(s, session.Action{
		Type:     session.ActionJoin,
		Sub:      c.sub,
		PlayerID: msg.PlayerID,
	})
}

func (c *Client) handleGetRoomState(raw json.RawMessage) {
	var msg GetRoomStateMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid getRoomState message.")
		return
	}
	if msg.SessionID == "" {
		c.sendError("sessionId is required.")
		return
	}

	s, err := c.Hub.Registry.Get(msg.SessionID)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	sub := c.sub
	if sub == nil {
		sub = &session.Subscriber{PlayerID: c.PlayerID, Send: c.Send}
	}
	c.dispatch(s, session.Action{Type: session.ActionGetState, Sub: sub})
}

func (c *Client) handleSelectCards(raw json.RawMessage) {
	var msg SelectCardsMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid selectCards message.")
		return
	}
	if msg.SessionID == "" || !c.validPlayerID(msg.PlayerID) {
		c.sendError("sessionId and playerId are required.")
		return
	}
	if c.Session == nil || c.Session.ID != msg.SessionID || c.sub == nil {
		c.sendError("Join the room before selecting cards.")
		return
	}

	c.dispatch(c.Session, session.Action{
		Type:     session.ActionSelectCards,
		Sub:      c.sub,
		PlayerID: msg.PlayerID,
		Cards:    msg.Cards,
	})
}

func (c *Client) handlePlayCard(raw json.RawMessage) {
	var msg PlayCardMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid playCard message.")
		return
	}
	if msg.SessionID == "" || !c.validPlayerID(msg.PlayerID) || msg.CardID == "" {
		c.sendError("sessionId, playerId and cardId are required.")
		return
	}
	if c.Session == nil || c.Session.ID != msg.SessionID || c.sub == nil {
		c.sendError("Join the room before playing cards.")
		return
	}

	c.dispatch(c.Session, session.Action{
		Type:         session.ActionPlayCard,
		Sub:          c.sub,
		PlayerID:     msg.PlayerID,
		CardID:       msg.CardID,
		TargetCardID: msg.TargetCardID,
	})
}

func (c *Client) handleCheckRoom(raw json.RawMessage) {
	var msg CheckRoomMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid checkRoom message.")
		return
	}
	if msg.SessionID == "" {
		c.sendError("sessionId is required.")
		return
	}

	resp := RoomCheckedMsg{
		Type:      "roomChecked",
		SessionID: msg.SessionID,
		Exists:    c.Hub.Registry.Exists(msg.SessionID),
	}
	data, _ := json.Marshal(resp)
	wsutil.SafeSend(c.Send, data)
}

func (c *Client) handleLeaveRoom(raw json.RawMessage) {
	var msg LeaveRoomMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid leaveRoom message.")
		return
	}
	if c.Session == nil || c.sub == nil {
		c.sendError("Not attached to a session.")
		return
	}

	c.dispatch(c.Session, session.Action{
		Type:     session.ActionLeave,
		Sub:      c.sub,
		PlayerID: c.PlayerID,
	})
	c.Session = nil
	c.sub = nil
}

func (c *Client) sendError(message string) {
	msg := ErrorMsg{Type: "error", Message: message}
	data, _ := json.Marshal(msg)
	wsutil.SafeSend(c.Send, data)
}
