package main

// Movement keys a player can hold
const (
	KeyUp   = "up"
	KeyDown = "down"
)

// ForfeitScore marks a player that did not complete the match
const ForfeitScore = -1

// Paddle represents one player's paddle. PlayerID survives Remove so a
// returning disconnect can be told apart from a new player; 0 means the
// slot was never assigned.
type Paddle struct {
	X, Y     float64
	Width    float64
	Height   float64
	VY       float64 // vertical velocity, units/s
	Speed    float64
	Score    int
	Serving  bool
	Active   bool
	PlayerID int64

	keys map[string]bool
}

// NewPaddle creates a paddle at the given horizontal offset, vertically
// centered on the field
func NewPaddle(x float64, opts GameOptions) *Paddle {
	return &Paddle{
		X:      x,
		Y:      (opts.FieldHeight - opts.PaddleHeight) / 2,
		Width:  opts.PaddleWidth,
		Height: opts.PaddleHeight,
		Speed:  opts.PaddleSpeed,
		keys:   make(map[string]bool),
	}
}

// Reset clears velocity, score, serve flag and pressed keys for a fresh
// game start. Position and attachment are untouched.
func (p *Paddle) Reset() {
	p.VY = 0
	p.Score = 0
	p.Serving = false
	p.keys = make(map[string]bool)
}

// Update applies the pressed keys to the vertical velocity and integrates
// the position, clamped to the playfield
func (p *Paddle) Update(dt float64, opts GameOptions) {
	p.VY = 0
	if p.keys[KeyUp] {
		p.VY -= p.Speed
	}
	if p.keys[KeyDown] {
		p.VY += p.Speed
	}
	p.Y = Clamp(p.Y+p.VY*dt, 0, opts.FieldHeight-p.Height)
}

// Add attaches a player to the paddle
func (p *Paddle) Add(id int64) {
	p.PlayerID = id
	p.Active = true
}

// Remove detaches the player but keeps the id, and releases any held keys
func (p *Paddle) Remove() {
	p.Active = false
	p.keys = make(map[string]bool)
}

// Press marks a movement key as held. Unknown keys are ignored.
func (p *Paddle) Press(key string) {
	if key == KeyUp || key == KeyDown {
		p.keys[key] = true
	}
}

// Release clears a movement key
func (p *Paddle) Release(key string) {
	delete(p.keys, key)
}

// Rect returns the paddle's bounding rectangle
func (p *Paddle) Rect() Rect {
	return Rect{X: p.X, Y: p.Y, W: p.Width, H: p.Height}
}

// ToState converts to a protocol snapshot
func (p *Paddle) ToState() PaddleState {
	return PaddleState{
		X:       p.X,
		Y:       p.Y,
		W:       p.Width,
		H:       p.Height,
		Score:   p.Score,
		Serving: p.Serving,
		Active:  p.Active,
		ID:      p.PlayerID,
	}
}
