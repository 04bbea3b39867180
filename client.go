package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120
)

// Client represents one authenticated WebSocket connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	connID     string
	userID     int64
	username   string
	remoteAddr string

	matchID int64 // 0 until a connect message succeeds
	role    string

	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a client for an already-authenticated connection
func NewClient(hub *Hub, conn *websocket.Conn, connID string, userID int64, username, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		connID:     connID,
		userID:     userID,
		username:   username,
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting; key events arrive in bursts but 120/s is
		// far above anything a human produces
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF marker distinguishes binary frames from text
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgConnect:
		c.handleConnect(env.D)
	case MsgKeyDown:
		c.handleKey(env.D, true)
	case MsgKeyUp:
		c.handleKey(env.D, false)
	case MsgLeave:
		c.handleLeave()
	}
}

// handleConnect attaches this connection to a match. Registered
// participants of the match record play; everyone else spectates.
func (c *Client) handleConnect(data json.RawMessage) {
	var msg ConnectMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.matchID != 0 {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "already in a match"}})
		return
	}

	row, err := c.hub.db.GetMatch(msg.MatchID)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "database error"}})
		return
	}
	if row == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "match not found"}})
		return
	}
	if row.Status == MatchFinished {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "match already finished"}})
		return
	}

	opts := DefaultOptions()
	if row.Options != "" {
		var ov OptionOverrides
		if err := json.Unmarshal([]byte(row.Options), &ov); err == nil {
			opts = ov.Apply()
		}
	}

	m, created := c.hub.sessions.SessionFindOrCreate(row.ID, opts)
	if created {
		if c.hub.events != nil {
			c.hub.events.Track(EvtMatchStart, c.userID, row.ID, "")
		}
		go c.hub.runMatch(m)
	}

	role := RoleSpectator
	if c.userID == row.Player1ID || c.userID == row.Player2ID {
		role = RolePlayer
	}

	c.hub.sessions.UserAdd(UserSession{
		ConnID:  c.connID,
		UserID:  c.userID,
		MatchID: row.ID,
		Role:    role,
	})
	c.matchID = row.ID
	c.role = role

	if role == RolePlayer {
		if !m.PlayerAdd(c.userID) && c.hub.events != nil {
			c.hub.events.Track(EvtExtraJoin, c.userID, row.ID, "")
		}
	}

	c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{
		MatchID: row.ID,
		Role:    role,
		UserID:  c.userID,
	}})

	if role == RoleSpectator {
		if c.hub.events != nil {
			c.hub.events.Track(EvtSpectatorJoin, c.userID, row.ID, "")
		}
		c.hub.broadcastSpectators(row.ID)
	}
}

// handleKey applies a key event after confirming the claimed user id
// belongs to this connection. Spoofed events are dropped and tracked.
func (c *Client) handleKey(data json.RawMessage, pressed bool) {
	var msg KeyMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if !c.hub.sessions.UserMatches(c.connID, msg.UID) {
		log.Printf("rejected key event: %s (conn %s) claimed user %d", c.username, c.connID, msg.UID)
		if c.hub.events != nil {
			c.hub.events.Track(EvtInputRejected, msg.UID, c.matchID, msg.Key)
		}
		return
	}

	m := c.hub.sessions.SessionGet(c.matchID)
	if m == nil {
		return
	}
	if pressed {
		m.KeyDown(msg.UID, msg.Key)
	} else {
		m.KeyUp(msg.UID, msg.Key)
	}
}

// handleLeave detaches from the current match without closing the socket
func (c *Client) handleLeave() {
	if c.matchID == 0 {
		return
	}
	c.hub.detach(c)
	c.matchID = 0
	c.role = ""
}
