package main

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate       = 60 // simulation ticks per second
	BroadcastRate  = 30 // snapshot broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub owns the live side of the server: connected clients, the session
// directory and the per-match tick drivers. The engine is passive; the
// hub is the caller that advances every match.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // connID -> client

	register   chan *Client
	unregister chan *Client

	sessions *SessionManager
	db       *DB
	auth     *Auth
	events   *EventLog

	// Connection limiting (accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
}

// NewHub creates a new Hub
func NewHub(db *DB, auth *Auth, events *EventLog) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		sessions:   NewSessionManager(),
		db:         db,
		auth:       auth,
		events:     events,
		ipConns:    make(map[string]int),
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	return h.ipConns[ip] < maxConnsPerIP
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.connID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.connID]; ok && cur == client {
				delete(h.clients, client.connID)
				close(client.send)
			}
			h.mu.Unlock()
			h.detach(client)
		}
	}
}

// detach removes a client from its match and the directory. Players free
// their paddle (the rules machine reacts on the next tick); spectator
// counts are re-announced.
func (h *Hub) detach(c *Client) {
	rec := h.sessions.UserByConn(c.connID)
	if rec == nil {
		return
	}
	h.sessions.UserRemove(c.connID)

	switch rec.Role {
	case RolePlayer:
		if m := h.sessions.SessionGet(rec.MatchID); m != nil {
			m.PlayerRemove(rec.UserID)
		}
	case RoleSpectator:
		h.broadcastSpectators(rec.MatchID)
	}
}

// clientByConn returns the client for a connection id, or nil
func (h *Hub) clientByConn(connID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[connID]
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// runMatch is the tick driver for one match: a fixed-rate ticker with
// measured dt, snapshot broadcast every Nth tick, and finish handling.
// Each match gets its own goroutine; matches never share state.
func (h *Hub) runMatch(m *Match) {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	last := time.Now()
	var tick uint64
	for range ticker.C {
		now := time.Now()
		dt := now.Sub(last).Seconds()
		last = now

		m.Update(dt)
		tick++
		if tick%BroadcastEvery == 0 {
			h.broadcastSnapshot(m)
		}
		if m.Finished() {
			h.finishMatch(m)
			return
		}
	}
}

// broadcastSnapshot sends the current snapshot to everyone attached to
// the match as a binary msgpack frame
func (h *Hub) broadcastSnapshot(m *Match) {
	snap := m.Render()
	data, err := msgpack.Marshal(snap)
	if err != nil {
		log.Printf("snapshot marshal error: %v", err)
		return
	}
	for _, rec := range h.sessions.SessionUsers(m.ID) {
		if c := h.clientByConn(rec.ConnID); c != nil {
			c.SendBinary(data)
		}
	}
}

// broadcastMatchJSON sends a JSON envelope to everyone attached to a match
func (h *Hub) broadcastMatchJSON(matchID int64, msg Envelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	for _, rec := range h.sessions.SessionUsers(matchID) {
		if c := h.clientByConn(rec.ConnID); c != nil {
			c.SendRaw(data)
		}
	}
}

// broadcastSpectators announces the current spectator count of a match
func (h *Hub) broadcastSpectators(matchID int64) {
	count := len(h.sessions.SessionSpectators(matchID))
	h.broadcastMatchJSON(matchID, Envelope{T: MsgSpectators, Data: SpectatorsMsg{
		MatchID: matchID,
		Count:   count,
	}})
}

// finishMatch consumes the finish descriptor: tell everyone, persist (or
// drop) the record, then discard the live match.
func (h *Hub) finishMatch(m *Match) {
	res, ok := m.Finish()
	if !ok {
		return
	}

	winner := 0
	if res.Player1.Won {
		winner = 1
	} else if res.Player2.Won {
		winner = 2
	}
	h.broadcastMatchJSON(m.ID, Envelope{T: MsgFinish, Data: FinishMsg{
		MatchID: m.ID,
		Winner:  winner,
		Result:  res,
	}})

	if h.db != nil {
		if err := h.db.RecordFinish(m.ID, res); err != nil {
			log.Printf("match %d: record finish error: %v", m.ID, err)
		}
	}
	if h.events != nil {
		evt := EvtMatchEnd
		if res.Action == FinishDelete {
			evt = EvtMatchDrop
		}
		h.events.Track(evt, 0, m.ID, res.Action)
	}

	h.sessions.SessionRemove(m.ID)
}
