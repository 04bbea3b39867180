package main

// GameOptions holds the per-match configuration. All values are overridable
// at match creation time; zero fields in an override keep the default.
type GameOptions struct {
	FieldWidth   float64
	FieldHeight  float64
	PaddleWidth  float64
	PaddleHeight float64
	PaddleSpeed  float64
	BallRadius   float64
	BallSpeed    float64
	MaxScore     int
}

// DefaultOptions returns the fixed default configuration.
func DefaultOptions() GameOptions {
	return GameOptions{
		FieldWidth:   800,
		FieldHeight:  600,
		PaddleWidth:  20,
		PaddleHeight: 100,
		PaddleSpeed:  500,
		BallRadius:   10,
		BallSpeed:    400,
		MaxScore:     5,
	}
}

// OptionOverrides carries partial overrides supplied by the caller.
// Pointer fields distinguish "not set" from an explicit zero.
type OptionOverrides struct {
	FieldWidth   *float64 `json:"field_width,omitempty"`
	FieldHeight  *float64 `json:"field_height,omitempty"`
	PaddleWidth  *float64 `json:"paddle_width,omitempty"`
	PaddleHeight *float64 `json:"paddle_height,omitempty"`
	PaddleSpeed  *float64 `json:"paddle_speed,omitempty"`
	BallRadius   *float64 `json:"ball_radius,omitempty"`
	BallSpeed    *float64 `json:"ball_speed,omitempty"`
	MaxScore     *int     `json:"max_score,omitempty"`
}

// Apply merges the overrides onto the defaults. Non-positive values are
// ignored so a bad payload cannot produce a degenerate playfield.
func (o OptionOverrides) Apply() GameOptions {
	opts := DefaultOptions()
	setF := func(dst *float64, src *float64) {
		if src != nil && *src > 0 {
			*dst = *src
		}
	}
	setF(&opts.FieldWidth, o.FieldWidth)
	setF(&opts.FieldHeight, o.FieldHeight)
	setF(&opts.PaddleWidth, o.PaddleWidth)
	setF(&opts.PaddleHeight, o.PaddleHeight)
	setF(&opts.PaddleSpeed, o.PaddleSpeed)
	setF(&opts.BallRadius, o.BallRadius)
	setF(&opts.BallSpeed, o.BallSpeed)
	if o.MaxScore != nil && *o.MaxScore > 0 {
		opts.MaxScore = *o.MaxScore
	}
	return opts
}
