package placement

import "github.com/1broseidon/deskwm/internal/wm"

// Cascade offsets each new window diagonally from Origin, wrapping back to
// Origin after Wrap steps.
type Cascade struct {
	Origin wm.Point
	Step   int
	Wrap   int
}

// DefaultCascade matches the default config.
func DefaultCascade() Cascade {
	return Cascade{Origin: wm.Point{X: 40, Y: 40}, Step: 32, Wrap: 10}
}

// At returns the n-th cascade position.
func (c Cascade) At(n int) wm.Point {
	wrap := c.Wrap
	if wrap <= 0 {
		wrap = 1
	}
	k := n % wrap
	return wm.Point{X: c.Origin.X + k*c.Step, Y: c.Origin.Y + k*c.Step}
}

// Place implements wm.Placer.
func (c Cascade) Place(open []wm.Window, _ wm.Size) wm.Point {
	return c.At(len(open))
}

// Fixed places every window at the same point.
type Fixed wm.Point

// Place implements wm.Placer.
func (f Fixed) Place(_ []wm.Window, _ wm.Size) wm.Point {
	return wm.Point(f)
}

// Centered places windows in the middle of a desktop of the given size.
type Centered wm.Size

// Place implements wm.Placer.
func (c Centered) Place(_ []wm.Window, size wm.Size) wm.Point {
	return wm.Point{X: (c.Width - size.Width) / 2, Y: (c.Height - size.Height) / 2}
}
