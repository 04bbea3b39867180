package main

import "math"

const (
	// Ticks a match waits for both players before deciding a forfeit.
	// The connecting variant (after the match has been live once) is
	// stricter.
	WaitingTicks    = 1200
	ConnectingTicks = 600

	// Serve countdown: steps of one accumulated second
	ServeSteps = 3

	// Speed added to the ball per paddle hit. The values differ per
	// paddle in the shipped game; tests pin both so a future correction
	// is a visible change.
	Paddle1SpeedIncrement = 100
	Paddle2SpeedIncrement = 10
)

// StateKind identifies a rules state
type StateKind int

const (
	StateWaiting StateKind = iota
	StateConnecting
	StateStart
	StateServe
	StatePlay
	StateFinished
)

func (k StateKind) String() string {
	switch k {
	case StateWaiting:
		return "waiting"
	case StateConnecting:
		return "connecting"
	case StateStart:
		return "start"
	case StateServe:
		return "serve"
	case StatePlay:
		return "play"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// state is one rules state. enter/exit run on transitions, in that order:
// outgoing exit first, then incoming enter, then the current pointer moves.
type state interface {
	kind() StateKind
	enter(m *Match)
	exit(m *Match)
	update(m *Match, dt float64)
}

// Rules drives a match through its lifecycle. Not safe for concurrent use
// on its own; the owning Match serializes all access.
type Rules struct {
	current state

	// set the first time the match leaves waiting; later waits use the
	// stricter connecting variant instead of swapping state objects
	hasConnectedOnce bool
}

// NewRules creates the state machine in its initial waiting state
func NewRules(m *Match) *Rules {
	r := &Rules{}
	w := &waitingState{}
	m.Rules = r
	w.enter(m)
	r.current = w
	return r
}

// Kind returns the current state's kind
func (r *Rules) Kind() StateKind {
	return r.current.kind()
}

func (r *Rules) update(m *Match, dt float64) {
	r.current.update(m, dt)
}

// transition runs exit on the outgoing state and enter on the incoming one
// before moving the pointer
func (r *Rules) transition(m *Match, next state) {
	r.current.exit(m)
	next.enter(m)
	r.current = next
}

// waitingState counts down a fixed number of ticks for both players to
// attach. It doubles as the connecting state once the match has been
// live before.
type waitingState struct {
	connecting bool
	ticks      int
}

func (s *waitingState) kind() StateKind {
	if s.connecting {
		return StateConnecting
	}
	return StateWaiting
}

func (s *waitingState) enter(m *Match) {
	s.connecting = m.Rules.hasConnectedOnce
	if s.connecting {
		s.ticks = ConnectingTicks
	} else {
		s.ticks = WaitingTicks
	}
}

func (s *waitingState) exit(m *Match) {
	m.Rules.hasConnectedOnce = true
	m.Ball.Reset(m.Opts)
}

func (s *waitingState) update(m *Match, dt float64) {
	if m.P1.Active && m.P2.Active {
		m.Rules.transition(m, &startState{})
		return
	}
	s.ticks--
	if s.ticks > 0 {
		return
	}
	// Timed out. Exactly one attached player wins by forfeit; none
	// attached means there is no result at all.
	if m.P1.Active != m.P2.Active {
		if m.P1.Active {
			m.Winner = 1
		} else {
			m.Winner = 2
		}
	}
	m.Rules.transition(m, &finishedState{})
}

// startState resets both paddles for a fresh game and hands the first
// serve to paddle 1
type startState struct{}

func (s *startState) kind() StateKind { return StateStart }

func (s *startState) enter(m *Match) {
	m.P1.Reset()
	m.P2.Reset()
	m.P1.Serving = true
}

func (s *startState) exit(m *Match) {}

func (s *startState) update(m *Match, dt float64) {
	if m.P1.Active && m.P2.Active {
		m.Rules.transition(m, &serveState{})
	}
}

// serveState recenters the ball and counts down before play. Paddles move
// freely during the countdown. Losing a player drops the match back to
// waiting so the player can reconnect.
type serveState struct {
	remaining int
	elapsed   float64
}

func (s *serveState) kind() StateKind { return StateServe }

func (s *serveState) enter(m *Match) {
	m.Ball.Reset(m.Opts)
	s.remaining = ServeSteps
	s.elapsed = 0
}

func (s *serveState) exit(m *Match) {}

func (s *serveState) update(m *Match, dt float64) {
	if !m.P1.Active || !m.P2.Active {
		m.Rules.transition(m, &waitingState{})
		return
	}
	m.P1.Update(dt, m.Opts)
	m.P2.Update(dt, m.Opts)

	s.elapsed += dt
	for s.elapsed >= 1 && s.remaining > 0 {
		s.elapsed -= 1
		s.remaining--
	}
	if s.remaining <= 0 {
		m.Rules.transition(m, &playState{})
	}
}

// playState runs the actual game: ball physics, paddle deflection,
// scoring and the win condition
type playState struct{}

func (s *playState) kind() StateKind { return StatePlay }

func (s *playState) enter(m *Match) {
	if m.P1.Serving {
		m.Ball.Start(1)
	} else {
		m.Ball.Start(2)
	}
}

func (s *playState) exit(m *Match) {}

func (s *playState) update(m *Match, dt float64) {
	if !m.P1.Active || !m.P2.Active {
		m.Rules.transition(m, &waitingState{})
		return
	}

	b := m.Ball
	if b.Collides(m.P1.Rect()) {
		deflect(b, m.P1, 1, Paddle1SpeedIncrement)
	} else if b.Collides(m.P2.Rect()) {
		deflect(b, m.P2, -1, Paddle2SpeedIncrement)
	}

	// Reflect off the top and bottom bounds
	if b.Y-b.Radius <= 0 && b.DY < 0 {
		b.DY = -b.DY
	} else if b.Y+b.Radius >= m.Opts.FieldHeight && b.DY > 0 {
		b.DY = -b.DY
	}

	// Past a baseline: the opposite paddle scores and the conceding
	// paddle serves next
	if b.X > m.Opts.FieldWidth {
		s.score(m, m.P1, m.P2)
		return
	}
	if b.X < 0 {
		s.score(m, m.P2, m.P1)
		return
	}

	b.Update(dt)
	m.P1.Update(dt, m.Opts)
	m.P2.Update(dt, m.Opts)
}

func (s *playState) score(m *Match, scorer, conceder *Paddle) {
	scorer.Score++
	scorer.Serving = false
	conceder.Serving = true
	if scorer.Score >= m.Opts.MaxScore {
		m.Rules.transition(m, &finishedState{})
		return
	}
	m.Rules.transition(m, &serveState{})
}

// deflect bounces the ball off a paddle. The outgoing angle is
// proportional to the hit offset from the paddle centre, scaled to ±45°,
// and the ball speeds up by the paddle's increment.
func deflect(b *Ball, p *Paddle, dir float64, increment float64) {
	offset := (b.Y - (p.Y + p.Height/2)) / (p.Height / 2)
	offset = Clamp(offset, -1, 1)
	angle := offset * (math.Pi / 4)
	b.Speed += increment
	b.DX = math.Cos(angle) * b.Speed * dir
	b.DY = math.Sin(angle) * b.Speed
}

// finishedState is terminal. Winner determination happens once, on entry.
type finishedState struct{}

func (s *finishedState) kind() StateKind { return StateFinished }

func (s *finishedState) enter(m *Match) {
	switch {
	case !m.P1.Active && !m.P2.Active:
		// nobody left: no result
		m.Winner = 0
	case m.Winner == 0 && m.P1.PlayerID != 0 && m.P2.PlayerID != 0:
		if m.P1.Score > m.P2.Score {
			m.Winner = 1
		} else {
			m.Winner = 2
		}
	default:
		// winner already decided by a waiting timeout; the other
		// paddle forfeits if anyone ever held it
		loser := m.P1
		if m.Winner == 1 {
			loser = m.P2
		}
		if loser.PlayerID != 0 {
			loser.Score = ForfeitScore
		}
	}
}

func (s *finishedState) exit(m *Match) {}

func (s *finishedState) update(m *Match, dt float64) {}
