package main

import (
	"math"
	"sync"
)

// Horizontal inset of each paddle from its baseline
const paddleInset = 10

// Finish actions, consumed by the persistence layer
const (
	FinishUpdate = "update"
	FinishDelete = "delete"
)

// Match is one live two-player game. All methods are safe to call
// concurrently: the tick driver and transport events serialize on the
// match's own mutex.
type Match struct {
	mu sync.Mutex

	ID     int64
	Ball   *Ball
	P1     *Paddle
	P2     *Paddle
	Rules  *Rules
	Opts   GameOptions
	Winner int // 0 undecided/none, 1 or 2 once finished
}

// NewMatch creates a ready-to-tick match
func NewMatch(id int64, opts GameOptions) *Match {
	m := &Match{
		ID:   id,
		Opts: opts,
		Ball: NewBall(opts),
		P1:   NewPaddle(paddleInset, opts),
		P2:   NewPaddle(opts.FieldWidth-paddleInset-opts.PaddleWidth, opts),
	}
	NewRules(m)
	return m
}

// Update advances the simulation by dt seconds. No-op once the match is
// finished. A negative or NaN dt is clamped to zero rather than trusted.
func (m *Match) Update(dt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Rules.Kind() == StateFinished {
		return
	}
	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	m.Rules.update(m, dt)
}

// State returns the current rules state kind
func (m *Match) State() StateKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Rules.Kind()
}

// Finished reports whether the match reached its terminal state
func (m *Match) Finished() bool {
	return m.State() == StateFinished
}

// Render returns a renderable snapshot. Safe in any state and idempotent
// between updates.
func (m *Match) Render() MatchSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MatchSnapshot{
		ID:    m.ID,
		State: m.Rules.Kind().String(),
		Ball:  m.Ball.ToState(),
		P1:    m.P1.ToState(),
		P2:    m.P2.ToState(),
	}
}

// PlayerAdd attaches a player to a free paddle: paddle 1 unless the id
// already holds paddle 2, then paddle 2 unless the id already holds
// paddle 1. A third player is silently dropped; the return value lets
// the transport observe the drop.
func (m *Match) PlayerAdd(id int64) bool {
	if id == 0 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.P1.Active && m.P2.PlayerID != id {
		m.P1.Add(id)
		return true
	}
	if !m.P2.Active && m.P1.PlayerID != id {
		m.P2.Add(id)
		return true
	}
	return false
}

// PlayerRemove detaches whichever paddle the id holds
func (m *Match) PlayerRemove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.P1.Active && m.P1.PlayerID == id {
		m.P1.Remove()
	} else if m.P2.Active && m.P2.PlayerID == id {
		m.P2.Remove()
	}
}

// KeyDown marks a movement key held for the player's paddle. Unknown ids
// are silent no-ops; the transport logs them.
func (m *Match) KeyDown(id int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.paddleOf(id); p != nil {
		p.Press(key)
	}
}

// KeyUp releases a movement key for the player's paddle
func (m *Match) KeyUp(id int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.paddleOf(id); p != nil {
		p.Release(key)
	}
}

func (m *Match) paddleOf(id int64) *Paddle {
	if m.P1.Active && m.P1.PlayerID == id {
		return m.P1
	}
	if m.P2.Active && m.P2.PlayerID == id {
		return m.P2
	}
	return nil
}

// PlayerResult is one player's share of a finish descriptor
type PlayerResult struct {
	ID    int64 `json:"id"`
	Won   bool  `json:"won"`
	Score int   `json:"score"`
}

// FinishResult tells the caller what to do with the match record: update
// it with the outcome, or delete it because there is no result.
type FinishResult struct {
	Action  string       `json:"action"`
	Player1 PlayerResult `json:"player1"`
	Player2 PlayerResult `json:"player2"`
}

// Finish returns the terminal descriptor. ok is false until the match
// actually finishes.
func (m *Match) Finish() (FinishResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Rules.Kind() != StateFinished {
		return FinishResult{}, false
	}
	action := FinishUpdate
	if m.Winner == 0 {
		action = FinishDelete
	}
	return FinishResult{
		Action:  action,
		Player1: PlayerResult{ID: m.P1.PlayerID, Won: m.Winner == 1, Score: m.P1.Score},
		Player2: PlayerResult{ID: m.P2.PlayerID, Won: m.Winner == 2, Score: m.P2.Score},
	}, true
}
