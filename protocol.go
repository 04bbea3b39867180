package main

import "encoding/json"

// Client -> Server message types
const (
	MsgConnect = "connect" // join a match as player or spectator
	MsgKeyDown = "keydown"
	MsgKeyUp   = "keyup"
	MsgLeave   = "leave"
)

// Server -> Client message types
const (
	MsgState      = "state" // binary msgpack MatchSnapshot
	MsgJoined     = "joined"
	MsgSpectators = "specs"
	MsgFinish     = "finish"
	MsgError      = "error"
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids
// double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ConnectMsg asks to join a match
type ConnectMsg struct {
	MatchID int64 `json:"mid"`
}

// KeyMsg carries a key press or release. UID is the claimed player id and
// is cross-checked against the connection before the event is applied.
type KeyMsg struct {
	UID int64  `json:"uid"`
	Key string `json:"key"` // "up" or "down"
}

// BallState is the ball part of a snapshot
type BallState struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	R float64 `json:"r" msgpack:"r"`
}

// PaddleState is one paddle's part of a snapshot
type PaddleState struct {
	X       float64 `json:"x" msgpack:"x"`
	Y       float64 `json:"y" msgpack:"y"`
	W       float64 `json:"w" msgpack:"w"`
	H       float64 `json:"h" msgpack:"h"`
	Score   int     `json:"sc" msgpack:"sc"`
	Serving bool    `json:"sv" msgpack:"sv"`
	Active  bool    `json:"a" msgpack:"a"`
	ID      int64   `json:"id" msgpack:"id"`
}

// MatchSnapshot is the renderable state broadcast each tick
type MatchSnapshot struct {
	ID    int64       `json:"id" msgpack:"id"`
	State string      `json:"st" msgpack:"st"`
	Ball  BallState   `json:"b" msgpack:"b"`
	P1    PaddleState `json:"p1" msgpack:"p1"`
	P2    PaddleState `json:"p2" msgpack:"p2"`
}

// JoinedMsg confirms a connect and tells the client its role
type JoinedMsg struct {
	MatchID int64  `json:"mid"`
	Role    string `json:"role"`
	UserID  int64  `json:"uid"`
}

// SpectatorsMsg announces the spectator count of a match
type SpectatorsMsg struct {
	MatchID int64 `json:"mid"`
	Count   int   `json:"n"`
}

// FinishMsg carries the terminal result to every participant
type FinishMsg struct {
	MatchID int64        `json:"mid"`
	Winner  int          `json:"winner"` // 0 none, 1 or 2
	Result  FinishResult `json:"result"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}
