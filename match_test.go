package main

import (
	"math"
	"reflect"
	"testing"
)

func TestRenderIdempotent(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	m.PlayerAdd(20)
	advanceToPlay(t, m)

	a := m.Render()
	b := m.Render()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("render not idempotent:\n%+v\n%+v", a, b)
	}
}

func TestRenderSnapshot(t *testing.T) {
	m := newTestMatch(5)
	snap := m.Render()
	if snap.ID != 1 {
		t.Errorf("expected match id 1, got %d", snap.ID)
	}
	if snap.State != "waiting" {
		t.Errorf("expected waiting state, got %q", snap.State)
	}
	if snap.Ball.X != m.Opts.FieldWidth/2 {
		t.Errorf("expected centered ball, got x=%f", snap.Ball.X)
	}
}

func TestUpdateAfterFinishedIsNoop(t *testing.T) {
	m := newTestMatch(5)
	for i := 0; i < WaitingTicks; i++ {
		m.Update(tickDt)
	}
	if !m.Finished() {
		t.Fatal("expected finished match")
	}
	before := m.Render()
	m.Update(1.0)
	after := m.Render()
	if !reflect.DeepEqual(before, after) {
		t.Error("update after finished mutated the match")
	}
}

func TestBadDtClamped(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	m.PlayerAdd(20)
	advanceToPlay(t, m)

	before := m.Render()
	m.Update(math.NaN())
	m.Update(-5)
	after := m.Render()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("bad dt moved the simulation:\n%+v\n%+v", before, after)
	}
}

func TestPlayerAddAssignment(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	if m.P1.PlayerID != 10 || !m.P1.Active {
		t.Fatal("expected first player on paddle 1")
	}

	// Same player again: no second slot
	m.PlayerAdd(10)
	if m.P2.Active {
		t.Fatal("one player must not hold both paddles")
	}

	m.PlayerAdd(20)
	if m.P2.PlayerID != 20 || !m.P2.Active {
		t.Fatal("expected second player on paddle 2")
	}

	// Third player is silently dropped
	m.PlayerAdd(30)
	if m.P1.PlayerID != 10 || m.P2.PlayerID != 20 {
		t.Error("third join must not displace a player")
	}
}

func TestPlayerReconnectReclaimsPaddle(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	m.PlayerAdd(20)

	m.PlayerRemove(20)
	if m.P2.Active {
		t.Fatal("expected paddle 2 free after remove")
	}
	m.PlayerAdd(20)
	if m.P2.PlayerID != 20 || !m.P2.Active {
		t.Error("returning player should reclaim paddle 2")
	}
	if m.P1.PlayerID != 10 {
		t.Error("paddle 1 must be untouched by the reconnect")
	}
}

func TestKeyEventsForUnknownID(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	m.PlayerAdd(20)
	advanceToServe(t, m)

	y1, y2 := m.P1.Y, m.P2.Y
	m.KeyDown(99, KeyDown)
	m.Update(1.0)
	if m.P1.Y != y1 || m.P2.Y != y2 {
		t.Error("key event for unknown id moved a paddle")
	}
}

func TestKeyEventsMovePaddle(t *testing.T) {
	m := newTestMatch(5)
	m.PlayerAdd(10)
	m.PlayerAdd(20)
	advanceToServe(t, m)

	y := m.P1.Y
	m.KeyDown(10, KeyDown)
	m.Update(0.1)
	if m.P1.Y <= y {
		t.Errorf("expected paddle 1 to move down, y %f -> %f", y, m.P1.Y)
	}
	moved := m.P1.Y
	m.KeyUp(10, KeyDown)
	m.Update(0.1)
	if m.P1.Y != moved {
		t.Error("expected paddle 1 to stop after key release")
	}
}

func TestFinishBeforeTerminal(t *testing.T) {
	m := newTestMatch(5)
	if _, ok := m.Finish(); ok {
		t.Error("finish descriptor must not exist before the terminal state")
	}
}

// The full scenario: pair, reach play, win 2-0, consume the descriptor
func TestEndToEndScenario(t *testing.T) {
	m := newTestMatch(2)
	m.PlayerAdd(10)
	m.PlayerAdd(20)

	advanceToPlay(t, m)

	// First point for player 1
	m.Ball.X = m.Opts.FieldWidth + 1
	m.Update(tickDt)
	if got := m.State(); got != StateServe {
		t.Fatalf("expected serve after first point, got %v", got)
	}
	for i := 0; i < ServeSteps; i++ {
		m.Update(1.0)
	}
	if got := m.State(); got != StatePlay {
		t.Fatalf("expected play, got %v", got)
	}

	// Second point reaches max score
	m.Ball.X = m.Opts.FieldWidth + 1
	m.Update(tickDt)
	if got := m.State(); got != StateFinished {
		t.Fatalf("expected finished, got %v", got)
	}

	res, ok := m.Finish()
	if !ok {
		t.Fatal("expected finish descriptor")
	}
	if res.Action != FinishUpdate {
		t.Errorf("expected update action, got %q", res.Action)
	}
	if !res.Player1.Won || res.Player1.Score != 2 || res.Player1.ID != 10 {
		t.Errorf("unexpected player 1 result: %+v", res.Player1)
	}
	if res.Player2.Won || res.Player2.Score < 0 || res.Player2.Score > 1 || res.Player2.ID != 20 {
		t.Errorf("unexpected player 2 result: %+v", res.Player2)
	}
}
