package wm

import (
	"errors"
	"fmt"
)

// ErrInvalidIntent is returned by Apply for requests that cannot name an
// operation. Unknown window ids are never an error.
var ErrInvalidIntent = errors.New("invalid intent")

// Intent is an operation request raised by a window frame or other client.
type Intent struct {
	Op     Op        `json:"op"`
	ID     string    `json:"id,omitempty"`
	Spec   *OpenSpec `json:"spec,omitempty"`
	X      int       `json:"x,omitempty"`
	Y      int       `json:"y,omitempty"`
	Width  int       `json:"width,omitempty"`
	Height int       `json:"height,omitempty"`
}

// Result reports the outcome of an applied intent.
type Result struct {
	Applied   bool    `json:"applied"`
	Window    *Window `json:"window,omitempty"`
	TopZIndex int     `json:"top_z_index"`
}

// Validate checks the intent is well formed.
func (in Intent) Validate() error {
	if !in.Op.Valid() {
		return fmt.Errorf("%w: unknown op %q", ErrInvalidIntent, in.Op)
	}
	if in.Op == OpOpen {
		if in.Spec == nil {
			return fmt.Errorf("%w: open requires a spec", ErrInvalidIntent)
		}
		if in.Spec.ID == "" {
			return fmt.Errorf("%w: open requires an id", ErrInvalidIntent)
		}
	}
	return nil
}

// Apply dispatches the intent to the matching operation. The operation and
// the returned result are computed under one lock.
func (s *Store) Apply(in Intent) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := in.ID
	var applied bool
	switch in.Op {
	case OpOpen:
		s.openLocked(*in.Spec)
		id = in.Spec.ID
		applied = true
	case OpClose:
		applied = s.closeLocked(id)
	case OpMinimize:
		applied = s.minimizeLocked(id)
	case OpMaximize:
		applied = s.maximizeLocked(id)
	case OpRestore:
		applied = s.restoreLocked(id)
	case OpFocus:
		applied = s.focusLocked(id)
	case OpMove:
		applied = s.moveLocked(id, in.X, in.Y)
	case OpResize:
		applied = s.resizeLocked(id, in.Width, in.Height)
	}

	res := Result{Applied: applied, TopZIndex: s.topZ}
	if i := s.indexOf(id); i >= 0 {
		win := s.windows[i].clone()
		res.Window = &win
	}
	return res, nil
}

// OpenIntent builds an open intent.
func OpenIntent(spec OpenSpec) Intent {
	return Intent{Op: OpOpen, ID: spec.ID, Spec: &spec}
}

// MoveIntent builds a position update intent.
func MoveIntent(id string, x, y int) Intent {
	return Intent{Op: OpMove, ID: id, X: x, Y: y}
}

// ResizeIntent builds a size update intent.
func ResizeIntent(id string, width, height int) Intent {
	return Intent{Op: OpResize, ID: id, Width: width, Height: height}
}
