package wm

import (
	"sort"
	"sync"
)

// DefaultBaselineZIndex keeps windows stacked above static desktop chrome.
const DefaultBaselineZIndex = 100

// DefaultWindowSize is used when an open request carries no usable size.
var DefaultWindowSize = Size{Width: 800, Height: 600}

// Placer picks a position for a window opened without one.
type Placer interface {
	Place(open []Window, size Size) Point
}

// PlacerFunc adapts a function to the Placer interface.
type PlacerFunc func(open []Window, size Size) Point

// Place implements Placer.
func (f PlacerFunc) Place(open []Window, size Size) Point {
	return f(open, size)
}

// Options configures a Store.
type Options struct {
	// BaselineZIndex seeds the stacking counter. Zero means DefaultBaselineZIndex.
	BaselineZIndex int
	// DefaultSize applies when an open request has no positive size.
	DefaultSize Size
	// Placer positions windows opened without a position. Nil places at 0,0.
	Placer Placer
}

// Store is the single source of truth for window state on one desktop
// session. All mutations go through its operations; each one is applied
// under a single writer lock and published to subscribers before the lock
// is released.
type Store struct {
	mu          sync.Mutex
	windows     []Window
	topZ        int
	defaultSize Size
	placer      Placer

	seq   uint64
	subs  map[uint64]*Subscription
	subID uint64
	stats Stats
}

// NewStore creates an empty store.
func NewStore(opts Options) *Store {
	baseline := opts.BaselineZIndex
	if baseline == 0 {
		baseline = DefaultBaselineZIndex
	}
	size := opts.DefaultSize
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultWindowSize
	}
	return &Store{
		topZ:        baseline,
		defaultSize: size,
		placer:      opts.Placer,
		subs:        make(map[uint64]*Subscription),
		stats:       newStats(),
	}
}

// SetPlacer swaps the placement strategy for subsequent opens.
func (s *Store) SetPlacer(p Placer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placer = p
}

// SetDefaultSize swaps the fallback size for subsequent opens.
func (s *Store) SetDefaultSize(size Size) {
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultSize = size
}

// Open creates the window, or brings an existing one with the same id back
// to the front (restoring it if minimized). It never duplicates an id and
// returns the resulting window.
func (s *Store) Open(spec OpenSpec) Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.openLocked(spec)
	return s.windows[i].clone()
}

// Close removes the window. Focus is not handed to another window.
func (s *Store) Close(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked(id)
}

// Minimize hides the window from normal stacking and drops its focus.
// Its z-index is kept.
func (s *Store) Minimize(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minimizeLocked(id)
}

// Maximize toggles the maximized flag. Focus and z-order are untouched.
func (s *Store) Maximize(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maximizeLocked(id)
}

// Restore un-minimizes the window and brings it to the front.
func (s *Store) Restore(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoreLocked(id)
}

// Focus brings the window to the front and makes it the only focused one.
func (s *Store) Focus(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focusLocked(id)
}

// UpdateWindowPosition overwrites the position only. No bounds checks.
func (s *Store) UpdateWindowPosition(id string, x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveLocked(id, x, y)
}

// UpdateWindowSize overwrites the size only. Values are not validated.
func (s *Store) UpdateWindowSize(id string, width, height int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resizeLocked(id, width, height)
}

func (s *Store) openLocked(spec OpenSpec) int {
	if i := s.indexOf(spec.ID); i >= 0 {
		s.windows[i].IsMinimized = false
		s.bringToFront(i)
		s.record(OpOpen, spec.ID)
		return i
	}

	size := s.defaultSize
	if spec.Size != nil && spec.Size.Width > 0 && spec.Size.Height > 0 {
		size = *spec.Size
	}
	var pos Point
	if spec.Position != nil {
		pos = *spec.Position
	} else if s.placer != nil {
		pos = s.placer.Place(s.copyWindows(), size)
	}

	win := Window{
		ID:     spec.ID,
		Title:  spec.Title,
		X:      pos.X,
		Y:      pos.Y,
		Width:  size.Width,
		Height: size.Height,
	}
	if len(spec.Payload) > 0 {
		win.Payload = append([]byte(nil), spec.Payload...)
	}
	s.windows = append(s.windows, win)
	i := len(s.windows) - 1
	s.bringToFront(i)
	s.record(OpOpen, spec.ID)
	return i
}

func (s *Store) closeLocked(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		s.stats.Ignored++
		return false
	}
	s.windows = append(s.windows[:i], s.windows[i+1:]...)
	s.record(OpClose, id)
	return true
}

func (s *Store) minimizeLocked(id string) bool {
	return s.mutateLocked(OpMinimize, id, func(w *Window) {
		w.IsMinimized = true
		w.IsFocused = false
	})
}

func (s *Store) maximizeLocked(id string) bool {
	return s.mutateLocked(OpMaximize, id, func(w *Window) {
		w.IsMaximized = !w.IsMaximized
	})
}

func (s *Store) restoreLocked(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		s.stats.Ignored++
		return false
	}
	s.windows[i].IsMinimized = false
	s.bringToFront(i)
	s.record(OpRestore, id)
	return true
}

func (s *Store) focusLocked(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		s.stats.Ignored++
		return false
	}
	s.bringToFront(i)
	s.record(OpFocus, id)
	return true
}

func (s *Store) moveLocked(id string, x, y int) bool {
	return s.mutateLocked(OpMove, id, func(w *Window) {
		w.X = x
		w.Y = y
	})
}

func (s *Store) resizeLocked(id string, width, height int) bool {
	return s.mutateLocked(OpResize, id, func(w *Window) {
		w.Width = width
		w.Height = height
	})
}

// Windows returns a copy of the window list in insertion order.
func (s *Store) Windows() []Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyWindows()
}

// TopZIndex returns the current stacking counter.
func (s *Store) TopZIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topZ
}

// Snapshot returns the window list and counter read under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Window returns a copy of the window with the given id.
func (s *Store) Window(id string) (Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.windows[i].clone(), true
	}
	return Window{}, false
}

// Focused returns the focused window, if any.
func (s *Store) Focused() (Window, bool) {
	return s.Snapshot().Focused()
}

// Stack returns the windows in render order, bottom first.
func (s *Store) Stack() []Window {
	return stackOrder(s.Windows())
}

func (s *Store) mutateLocked(op Op, id string, fn func(*Window)) bool {
	i := s.indexOf(id)
	if i < 0 {
		s.stats.Ignored++
		return false
	}
	fn(&s.windows[i])
	s.record(op, id)
	return true
}

// bringToFront consumes a fresh z-index for windows[i] and moves focus to it.
// Caller holds s.mu.
func (s *Store) bringToFront(i int) {
	s.topZ++
	for j := range s.windows {
		s.windows[j].IsFocused = false
	}
	s.windows[i].IsFocused = true
	s.windows[i].ZIndex = s.topZ
}

func (s *Store) indexOf(id string) int {
	for i := range s.windows {
		if s.windows[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) copyWindows() []Window {
	out := make([]Window, len(s.windows))
	for i, w := range s.windows {
		out[i] = w.clone()
	}
	return out
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Windows: s.copyWindows(), TopZIndex: s.topZ}
}

// record updates counters and publishes the new state. Caller holds s.mu.
func (s *Store) record(op Op, id string) {
	s.stats.observe(op, len(s.windows))
	s.seq++
	if len(s.subs) == 0 {
		return
	}
	ev := Event{
		Seq:       s.seq,
		Op:        op,
		WindowID:  id,
		Windows:   s.copyWindows(),
		TopZIndex: s.topZ,
	}
	for _, sub := range s.subs {
		sub.deliver(ev)
	}
}

func stackOrder(windows []Window) []Window {
	out := append([]Window(nil), windows...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZIndex < out[j].ZIndex
	})
	return out
}
