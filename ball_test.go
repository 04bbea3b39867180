package main

import (
	"math"
	"sync"
	"testing"
)

func TestBallStartServeDirections(t *testing.T) {
	opts := DefaultOptions()
	for i := 0; i < 200; i++ {
		b := NewBall(opts)
		b.Start(1)
		if b.DX >= 0 {
			t.Fatalf("serve 1: expected DX < 0, got %f", b.DX)
		}
		if math.Abs(b.DY) > math.Abs(b.DX)+1e-9 {
			t.Fatalf("serve 1: angle outside ±45°: dx=%f dy=%f", b.DX, b.DY)
		}

		b = NewBall(opts)
		b.Start(2)
		if b.DX <= 0 {
			t.Fatalf("serve 2: expected DX > 0, got %f", b.DX)
		}
		if math.Abs(b.DY) > math.Abs(b.DX)+1e-9 {
			t.Fatalf("serve 2: angle outside ±45°: dx=%f dy=%f", b.DX, b.DY)
		}
	}
}

// Serves from parallel matches share the random source; run under -race
func TestBallStartConcurrentMatches(t *testing.T) {
	opts := DefaultOptions()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				b := NewBall(opts)
				b.Start(2)
				if b.DX <= 0 {
					t.Errorf("serve 2: expected DX > 0, got %f", b.DX)
				}
			}
		}()
	}
	wg.Wait()
}

func TestBallStartSpeed(t *testing.T) {
	b := NewBall(DefaultOptions())
	b.Start(2)
	speed := math.Hypot(b.DX, b.DY)
	if math.Abs(speed-b.Speed) > 1e-6 {
		t.Errorf("expected launch speed %f, got %f", b.Speed, speed)
	}
}

func TestBallReset(t *testing.T) {
	opts := DefaultOptions()
	b := NewBall(opts)
	b.Start(2)
	b.X = 42
	b.Y = 17
	b.Speed = b.BaseSpeed + 300

	b.Reset(opts)
	if b.X != opts.FieldWidth/2 || b.Y != opts.FieldHeight/2 {
		t.Errorf("expected ball recentered, got (%f, %f)", b.X, b.Y)
	}
	if b.DX != 0 || b.DY != 0 {
		t.Errorf("expected zero velocity, got (%f, %f)", b.DX, b.DY)
	}
	if b.Speed != b.BaseSpeed {
		t.Errorf("expected base speed %f, got %f", b.BaseSpeed, b.Speed)
	}
}

func TestBallUpdateIntegration(t *testing.T) {
	b := NewBall(DefaultOptions())
	b.X, b.Y = 100, 100
	b.DX, b.DY = 60, -30
	b.Update(0.5)
	if b.X != 130 || b.Y != 85 {
		t.Errorf("expected (130, 85), got (%f, %f)", b.X, b.Y)
	}
}

// The overlap predicate counts the radius on the right/bottom sides only.
// These cases pin the shipped behavior; a symmetric fix must update them
// deliberately.
func TestBallCollidesAsymmetry(t *testing.T) {
	r := Rect{X: 100, Y: 100, W: 20, H: 100}
	b := &Ball{Radius: 10}

	// Approaching from the left the radius extends the ball's reach
	b.X, b.Y = 91, 150
	if !b.Collides(r) {
		t.Error("expected collision: radius reaches past left edge")
	}
	b.X = 89
	if b.Collides(r) {
		t.Error("expected no collision just beyond radius reach")
	}

	// Approaching from the right the radius is ignored: a ball whose
	// edge touches the rect but whose center is past it does not collide
	b.X = 125
	if b.Collides(r) {
		t.Error("expected no collision with center past right edge")
	}
	b.X = 119
	if !b.Collides(r) {
		t.Error("expected collision with center inside right edge")
	}

	// Same asymmetry vertically
	b.X = 110
	b.Y = 91
	if !b.Collides(r) {
		t.Error("expected collision: radius reaches past top edge")
	}
	b.Y = 205
	if b.Collides(r) {
		t.Error("expected no collision with center past bottom edge")
	}
}
