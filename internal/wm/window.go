package wm

import "encoding/json"

// Point is a desktop-relative position in pixels. Negative values are valid.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a window size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Window is one open application instance on the desktop.
//
// While IsMaximized is set, X/Y/Width/Height are the restore bounds; the
// renderer decides the effective (full desktop) bounds.
type Window struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	X           int             `json:"x"`
	Y           int             `json:"y"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	IsMinimized bool            `json:"is_minimized"`
	IsMaximized bool            `json:"is_maximized"`
	IsFocused   bool            `json:"is_focused"`
	ZIndex      int             `json:"z_index"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Bounds returns the window's stored position and size.
func (w Window) Bounds() (Point, Size) {
	return Point{X: w.X, Y: w.Y}, Size{Width: w.Width, Height: w.Height}
}

// Visible reports whether the window takes part in normal stacking.
func (w Window) Visible() bool {
	return !w.IsMinimized
}

func (w Window) clone() Window {
	if w.Payload != nil {
		w.Payload = append(json.RawMessage(nil), w.Payload...)
	}
	return w
}

// OpenSpec describes a window to open. It never carries z-order or focus;
// those are assigned by the store.
type OpenSpec struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Position *Point          `json:"position,omitempty"`
	Size     *Size           `json:"size,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Snapshot is a consistent copy of the store state.
type Snapshot struct {
	Windows   []Window `json:"windows"`
	TopZIndex int      `json:"top_z_index"`
}

// Focused returns the focused window in the snapshot, if any.
func (s Snapshot) Focused() (Window, bool) {
	for _, w := range s.Windows {
		if w.IsFocused {
			return w, true
		}
	}
	return Window{}, false
}

// Find returns the window with the given id.
func (s Snapshot) Find(id string) (Window, bool) {
	for _, w := range s.Windows {
		if w.ID == id {
			return w, true
		}
	}
	return Window{}, false
}

// Stack returns the windows in render order, bottom first.
func (s Snapshot) Stack() []Window {
	return stackOrder(s.Windows)
}
