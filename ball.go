package main

import "math"

// Rect is an axis-aligned rectangle used for paddle collision tests.
type Rect struct {
	X, Y, W, H float64
}

// Ball represents the ball of one match
type Ball struct {
	X, Y      float64
	DX, DY    float64 // velocity, units/s
	Radius    float64
	Speed     float64
	BaseSpeed float64
}

// NewBall creates a ball centered on the field with no velocity
func NewBall(opts GameOptions) *Ball {
	b := &Ball{
		Radius:    opts.BallRadius,
		Speed:     opts.BallSpeed,
		BaseSpeed: opts.BallSpeed,
	}
	b.Reset(opts)
	return b
}

// Start launches the ball at a random angle within ±45° of horizontal.
// Serving player 1 rotates the angle 180° so the ball travels toward the
// left (paddle 1) side; otherwise it travels toward the right.
func (b *Ball) Start(servingPlayer int) {
	angle := (randFloat() - 0.5) * (math.Pi / 2)
	if servingPlayer == 1 {
		angle += math.Pi
	}
	b.DX = math.Cos(angle) * b.Speed
	b.DY = math.Sin(angle) * b.Speed
}

// Reset recenters the ball, zeroes its velocity and restores base speed.
// Called between points and when a match drops back to waiting.
func (b *Ball) Reset(opts GameOptions) {
	b.X = opts.FieldWidth / 2
	b.Y = opts.FieldHeight / 2
	b.DX = 0
	b.DY = 0
	b.Speed = b.BaseSpeed
}

// Update integrates the ball position by one tick (dt in seconds)
func (b *Ball) Update(dt float64) {
	b.X += b.DX * dt
	b.Y += b.DY * dt
}

// Collides reports whether the ball overlaps r. The left/top comparisons
// ignore the radius while the right/bottom ones add it; this asymmetry
// matches the shipped behavior and is pinned by tests. Do not "fix" it
// without a product decision.
func (b *Ball) Collides(r Rect) bool {
	return b.X < r.X+r.W &&
		b.X+b.Radius > r.X &&
		b.Y < r.Y+r.H &&
		b.Y+b.Radius > r.Y
}

// ToState converts to a protocol snapshot
func (b *Ball) ToState() BallState {
	return BallState{X: b.X, Y: b.Y, R: b.Radius}
}
