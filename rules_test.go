package main

import "testing"

const tickDt = 1.0 / 60.0

func newTestMatch(maxScore int) *Match {
	opts := DefaultOptions()
	opts.MaxScore = maxScore
	return NewMatch(1, opts)
}

// advanceToServe takes a match with two attached players from waiting
// through start into serve
func advanceToServe(t *testing.T, m *Match) {
	t.Helper()
	m.Update(tickDt) // waiting -> start
	m.Update(tickDt) // start -> serve
	if got := m.State(); got != StateServe {
		t.Fatalf("expected serve, got %v", got)
	}
}

// advanceToPlay additionally burns the serve countdown
func advanceToPlay(t *testing.T, m *Match) {
	t.Helper()
	advanceToServe(t, m)
	for i := 0; i < ServeSteps; i++ {
		m.Update(1.0)
	}
	if got := m.State(); got != StatePlay {
		t.Fatalf("expected play, got %v", got)
	}
}

func TestLifecycleWaitingToPlay(t *testing.T) {
	m := newTestMatch(5)
	if got := m.State(); got != StateWaiting {
		t.Fatalf("expected waiting, got %v", got)
	}
	m.PlayerAdd(10)
	m.PlayerAdd(20)
	advanceToPlay(t, m)

	// Paddle 1 has the first serve, so the launch goes left
	if m.Ball.DX >= 0 {
		t.Errorf("expected first launch toward paddle 1, dx=%f", m.Ball.DX)
	}
}

func TestWaitingTimeoutForfeit(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	for i := 0; i < WaitingTicks; i++ {
		m.Update(tickDt)
	}
	if got := m.State(); got != StateFinished {
		t.Fatalf("expected finished after timeout, got %v", got)
	}
	if m.Winner != 1 {
		t.Errorf("expected paddle 1 as winner, got %d", m.Winner)
	}
	// The opponent never connected: no id, score left at its default
	if m.P2.PlayerID != 0 || m.P2.Score != 0 {
		t.Errorf("expected untouched paddle 2, got id=%d score=%d", m.P2.PlayerID, m.P2.Score)
	}

	res, ok := m.Finish()
	if !ok {
		t.Fatal("expected finish descriptor")
	}
	if res.Action != FinishUpdate {
		t.Errorf("expected update action, got %q", res.Action)
	}
	if !res.Player1.Won || res.Player2.Won {
		t.Error("expected player 1 marked as winner")
	}
}

func TestWaitingTimeoutNobody(t *testing.T) {
	m := newTestMatch(5)
	for i := 0; i < WaitingTicks; i++ {
		m.Update(tickDt)
	}
	if got := m.State(); got != StateFinished {
		t.Fatalf("expected finished, got %v", got)
	}
	if m.Winner != 0 {
		t.Errorf("expected no winner, got %d", m.Winner)
	}
	res, ok := m.Finish()
	if !ok || res.Action != FinishDelete {
		t.Errorf("expected delete action, got %+v ok=%v", res, ok)
	}
}

func TestServeDisconnectDowngrades(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	m.PlayerAdd(20)
	advanceToServe(t, m)

	m.PlayerRemove(20)
	m.Update(tickDt)
	if got := m.State(); got != StateConnecting {
		t.Fatalf("expected connecting after mid-serve disconnect, got %v", got)
	}
}

func TestPlayDisconnectThenForfeit(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	m.PlayerAdd(20)
	advanceToPlay(t, m)

	m.PlayerRemove(10)
	m.Update(tickDt)
	if got := m.State(); got != StateConnecting {
		t.Fatalf("expected connecting, got %v", got)
	}

	// The later waits are stricter than the initial one
	for i := 0; i < ConnectingTicks; i++ {
		m.Update(tickDt)
	}
	if got := m.State(); got != StateFinished {
		t.Fatalf("expected finished, got %v", got)
	}
	if m.Winner != 2 {
		t.Errorf("expected paddle 2 as winner, got %d", m.Winner)
	}
	// Paddle 1 held a player, so it forfeits
	if m.P1.Score != ForfeitScore {
		t.Errorf("expected forfeit sentinel, got %d", m.P1.Score)
	}
}

func TestPlayDisconnectReconnect(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	m.PlayerAdd(20)
	advanceToPlay(t, m)

	m.PlayerRemove(20)
	m.Update(tickDt)
	if got := m.State(); got != StateConnecting {
		t.Fatalf("expected connecting, got %v", got)
	}

	m.PlayerAdd(20)
	if m.P2.PlayerID != 20 || !m.P2.Active {
		t.Fatal("expected returning player back on paddle 2")
	}
	m.Update(tickDt)
	if got := m.State(); got != StateStart {
		t.Fatalf("expected start after reconnect, got %v", got)
	}
}

func TestScoreFlipsServe(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	m.PlayerAdd(20)
	advanceToPlay(t, m)

	// Push the ball past the right baseline: paddle 1 scores
	m.Ball.X = m.Opts.FieldWidth + 1
	m.Update(tickDt)

	if m.P1.Score != 1 {
		t.Errorf("expected paddle 1 score 1, got %d", m.P1.Score)
	}
	if m.P1.Serving || !m.P2.Serving {
		t.Errorf("expected serve handed to paddle 2, got p1=%v p2=%v", m.P1.Serving, m.P2.Serving)
	}
	if got := m.State(); got != StateServe {
		t.Fatalf("expected serve after point, got %v", got)
	}
}

func TestScoreLeftBaseline(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	m.PlayerAdd(20)
	advanceToPlay(t, m)

	m.Ball.X = -1
	m.Update(tickDt)
	if m.P2.Score != 1 {
		t.Errorf("expected paddle 2 score 1, got %d", m.P2.Score)
	}
	if m.P2.Serving || !m.P1.Serving {
		t.Error("expected serve handed to paddle 1")
	}
}

func TestMaxScoreFinishes(t *testing.T) {
	m := newTestMatch(1)
	m.PlayerAdd(10)
	m.PlayerAdd(20)
	advanceToPlay(t, m)

	m.Ball.X = m.Opts.FieldWidth + 1
	m.Update(tickDt)

	if got := m.State(); got != StateFinished {
		t.Fatalf("expected finished at max score, got %v", got)
	}
	if m.Winner != 1 {
		t.Errorf("expected winner 1, got %d", m.Winner)
	}
}

// Pins the per-paddle speed increments (100 vs 10). The asymmetry ships;
// changing it must be a visible, deliberate edit.
func TestDeflectAsymmetricIncrements(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	m.PlayerAdd(20)
	advanceToPlay(t, m)

	before := m.Ball.Speed
	m.Ball.X = m.P1.X + 5
	m.Ball.Y = m.P1.Y + m.P1.Height/2
	m.Update(0)
	if m.Ball.Speed != before+Paddle1SpeedIncrement {
		t.Errorf("paddle 1 hit: expected speed %f, got %f", before+Paddle1SpeedIncrement, m.Ball.Speed)
	}
	if m.Ball.DX <= 0 {
		t.Errorf("paddle 1 hit should send the ball right, dx=%f", m.Ball.DX)
	}

	before = m.Ball.Speed
	m.Ball.X = m.P2.X + 5
	m.Ball.Y = m.P2.Y + m.P2.Height/2
	m.Update(0)
	if m.Ball.Speed != before+Paddle2SpeedIncrement {
		t.Errorf("paddle 2 hit: expected speed %f, got %f", before+Paddle2SpeedIncrement, m.Ball.Speed)
	}
	if m.Ball.DX >= 0 {
		t.Errorf("paddle 2 hit should send the ball left, dx=%f", m.Ball.DX)
	}
}

func TestWallReflection(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	m.PlayerAdd(20)
	advanceToPlay(t, m)

	m.Ball.X = m.Opts.FieldWidth / 2
	m.Ball.Y = m.Ball.Radius - 1
	m.Ball.DX = 100
	m.Ball.DY = -100
	m.Update(tickDt)
	if m.Ball.DY <= 0 {
		t.Errorf("expected bounce off the top, dy=%f", m.Ball.DY)
	}

	m.Ball.Y = m.Opts.FieldHeight - m.Ball.Radius + 1
	m.Ball.DY = 100
	m.Update(tickDt)
	if m.Ball.DY >= 0 {
		t.Errorf("expected bounce off the bottom, dy=%f", m.Ball.DY)
	}
}
