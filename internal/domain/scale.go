package domain

import "fmt"

// Default resolutions used when neither config nor flags override them.
var (
	DefaultSource = Resolution{Width: 2252, Height: 2252}
	DefaultTarget = Resolution{Width: 3240, Height: 2890}
)

// Resolution is a frame size in pixels.
type Resolution struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Valid reports whether both dimensions are positive.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Scale maps coordinates from one resolution to another.
type Scale struct {
	From Resolution `json:"from" yaml:"from"`
	To   Resolution `json:"to" yaml:"to"`
}

// Validate rejects any non-positive dimension.
func (s Scale) Validate() error {
	if !s.From.Valid() {
		return &FatalInputError{Op: "validate scale", Err: fmt.Errorf("%w: source resolution %s", ErrInvalidScale, s.From)}
	}
	if !s.To.Valid() {
		return &FatalInputError{Op: "validate scale", Err: fmt.Errorf("%w: target resolution %s", ErrInvalidScale, s.To)}
	}
	return nil
}

// Factors returns the x and y multipliers. Both are computed in floating
// point; callers must Validate first.
func (s Scale) Factors() (sx, sy float64) {
	sx = float64(s.To.Width) / float64(s.From.Width)
	sy = float64(s.To.Height) / float64(s.From.Height)
	return sx, sy
}

// Inverse returns the scale that undoes s.
func (s Scale) Inverse() Scale {
	return Scale{From: s.To, To: s.From}
}

func (s Scale) String() string {
	return s.From.String() + " -> " + s.To.String()
}
