package wm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func openSpec(id, title string) OpenSpec {
	return OpenSpec{ID: id, Title: title}
}

func TestStore_DesktopScenario(t *testing.T) {
	s := NewStore(Options{})

	// 1. first window lands on baseline+1
	s.Open(openSpec("a", "A"))
	snap := s.Snapshot()
	require.Len(t, snap.Windows, 1)
	require.True(t, snap.Windows[0].IsFocused)
	require.Equal(t, 101, snap.Windows[0].ZIndex)
	require.Equal(t, 101, snap.TopZIndex)

	// 2. second window takes focus
	s.Open(openSpec("b", "B"))
	a, _ := s.Window("a")
	b, _ := s.Window("b")
	require.False(t, a.IsFocused)
	require.True(t, b.IsFocused)
	require.Equal(t, 102, b.ZIndex)

	// 3. focus back to a
	require.True(t, s.Focus("a"))
	a, _ = s.Window("a")
	b, _ = s.Window("b")
	require.True(t, a.IsFocused)
	require.Equal(t, 103, a.ZIndex)
	require.False(t, b.IsFocused)

	// 4. minimize keeps z-index
	require.True(t, s.Minimize("a"))
	a, _ = s.Window("a")
	require.True(t, a.IsMinimized)
	require.False(t, a.IsFocused)
	require.Equal(t, 103, a.ZIndex)

	// 5. taskbar click reopens
	s.Open(openSpec("a", "A"))
	a, _ = s.Window("a")
	b, _ = s.Window("b")
	require.False(t, a.IsMinimized)
	require.True(t, a.IsFocused)
	require.Equal(t, 104, a.ZIndex)
	require.False(t, b.IsFocused)

	// 6. close b
	require.True(t, s.Close("b"))
	windows := s.Windows()
	require.Len(t, windows, 1)
	require.Equal(t, "a", windows[0].ID)

	// 7. trailing drag on a window that never existed
	before := s.Snapshot()
	require.False(t, s.UpdateWindowPosition("z", 10, 10))
	require.Equal(t, before, s.Snapshot())
}

func TestStore_OpenExistingDoesNotDuplicate(t *testing.T) {
	s := NewStore(Options{})
	s.Open(openSpec("a", "A"))
	s.Open(openSpec("b", "B"))
	topBefore := s.TopZIndex()

	s.Open(openSpec("b", "B"))

	require.Len(t, s.Windows(), 2)
	require.Equal(t, topBefore+1, s.TopZIndex())
	b, _ := s.Window("b")
	require.Equal(t, s.TopZIndex(), b.ZIndex)
	require.True(t, b.IsFocused)
}

func TestStore_OpenExistingKeepsFields(t *testing.T) {
	s := NewStore(Options{})
	s.Open(OpenSpec{ID: "a", Title: "First", Position: &Point{X: 5, Y: 6}})
	s.Open(OpenSpec{ID: "a", Title: "Second", Position: &Point{X: 50, Y: 60}})

	a, ok := s.Window("a")
	require.True(t, ok)
	require.Equal(t, "First", a.Title)
	require.Equal(t, 5, a.X)
	require.Equal(t, 6, a.Y)
}

func TestStore_OpenUsesSpecBoundsAndPayload(t *testing.T) {
	s := NewStore(Options{})
	w := s.Open(OpenSpec{
		ID:       "poc",
		Title:    "POC Tracker",
		Position: &Point{X: -20, Y: 4000},
		Size:     &Size{Width: 640, Height: 480},
		Payload:  json.RawMessage(`{"app":"poc-tracker"}`),
	})

	require.Equal(t, -20, w.X)
	require.Equal(t, 4000, w.Y)
	require.Equal(t, 640, w.Width)
	require.Equal(t, 480, w.Height)
	require.JSONEq(t, `{"app":"poc-tracker"}`, string(w.Payload))
}

func TestStore_OpenFallsBackToDefaultSizeAndPlacer(t *testing.T) {
	var seen int
	s := NewStore(Options{
		DefaultSize: Size{Width: 300, Height: 200},
		Placer: PlacerFunc(func(open []Window, size Size) Point {
			seen = len(open)
			return Point{X: 10 * len(open), Y: size.Height}
		}),
	})
	s.Open(openSpec("a", "A"))
	w := s.Open(OpenSpec{ID: "b", Size: &Size{Width: 0, Height: 10}})

	require.Equal(t, 1, seen)
	require.Equal(t, 300, w.Width)
	require.Equal(t, 200, w.Height)
	require.Equal(t, 10, w.X)
	require.Equal(t, 200, w.Y)
}

func TestStore_MaximizeToggles(t *testing.T) {
	s := NewStore(Options{})
	s.Open(openSpec("a", "A"))
	s.Open(openSpec("b", "B"))
	a, _ := s.Window("a")
	top := s.TopZIndex()

	require.True(t, s.Maximize("a"))
	got, _ := s.Window("a")
	require.True(t, got.IsMaximized)
	require.False(t, got.IsFocused)
	require.Equal(t, a.ZIndex, got.ZIndex)
	require.Equal(t, top, s.TopZIndex())

	require.True(t, s.Maximize("a"))
	got, _ = s.Window("a")
	require.False(t, got.IsMaximized)
	require.Equal(t, a.X, got.X)
	require.Equal(t, a.Width, got.Width)
}

func TestStore_RestoreFromMinimized(t *testing.T) {
	s := NewStore(Options{})
	s.Open(openSpec("a", "A"))
	s.Open(openSpec("b", "B"))
	s.Minimize("a")

	require.True(t, s.Restore("a"))
	a, _ := s.Window("a")
	b, _ := s.Window("b")
	require.False(t, a.IsMinimized)
	require.True(t, a.IsFocused)
	require.Equal(t, s.TopZIndex(), a.ZIndex)
	require.False(t, b.IsFocused)
}

func TestStore_CloseDoesNotReassignFocus(t *testing.T) {
	s := NewStore(Options{})
	s.Open(openSpec("a", "A"))
	s.Open(openSpec("b", "B"))

	require.True(t, s.Close("b"))
	_, focused := s.Focused()
	require.False(t, focused)
	a, _ := s.Window("a")
	require.False(t, a.IsFocused)
}

func TestStore_PositionAndSizeHaveNoSideEffects(t *testing.T) {
	s := NewStore(Options{})
	s.Open(openSpec("a", "A"))
	s.Open(openSpec("b", "B"))
	top := s.TopZIndex()

	require.True(t, s.UpdateWindowPosition("a", -500, 9000))
	require.True(t, s.UpdateWindowSize("a", 0, -3))

	a, _ := s.Window("a")
	require.Equal(t, -500, a.X)
	require.Equal(t, 9000, a.Y)
	require.Equal(t, 0, a.Width)
	require.Equal(t, -3, a.Height)
	require.False(t, a.IsFocused)
	require.Equal(t, top, s.TopZIndex())
}

func TestStore_UnknownIDIsNoOp(t *testing.T) {
	s := NewStore(Options{})
	s.Open(openSpec("a", "A"))
	before := s.Snapshot()

	ops := map[string]func() bool{
		"close":    func() bool { return s.Close("ghost") },
		"minimize": func() bool { return s.Minimize("ghost") },
		"maximize": func() bool { return s.Maximize("ghost") },
		"restore":  func() bool { return s.Restore("ghost") },
		"focus":    func() bool { return s.Focus("ghost") },
		"move":     func() bool { return s.UpdateWindowPosition("ghost", 1, 2) },
		"resize":   func() bool { return s.UpdateWindowSize("ghost", 3, 4) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			require.False(t, op())
			require.Equal(t, before, s.Snapshot())
		})
	}
	require.Equal(t, uint64(len(ops)), s.Stats().Ignored)
}

func TestStore_StackOrdersByZIndex(t *testing.T) {
	s := NewStore(Options{})
	s.Open(openSpec("a", "A"))
	s.Open(openSpec("b", "B"))
	s.Open(openSpec("c", "C"))
	s.Focus("a")

	stack := s.Stack()
	ids := make([]string, len(stack))
	for i, w := range stack {
		ids[i] = w.ID
	}
	require.Equal(t, []string{"b", "c", "a"}, ids)
	// insertion order is untouched
	require.Equal(t, "a", s.Windows()[0].ID)
}

func TestStore_CustomBaseline(t *testing.T) {
	s := NewStore(Options{BaselineZIndex: 5000})
	w := s.Open(openSpec("a", "A"))
	require.Equal(t, 5001, w.ZIndex)
}

func TestStore_ReturnedWindowsAreCopies(t *testing.T) {
	s := NewStore(Options{})
	s.Open(OpenSpec{ID: "a", Payload: json.RawMessage(`{"k":1}`)})

	windows := s.Windows()
	windows[0].Title = "mutated"
	windows[0].Payload[2] = 'X'

	a, _ := s.Window("a")
	require.Equal(t, "", a.Title)
	require.JSONEq(t, `{"k":1}`, string(a.Payload))
}

func TestStore_Stats(t *testing.T) {
	s := NewStore(Options{})
	s.Open(openSpec("a", "A"))
	s.Open(openSpec("b", "B"))
	s.Open(openSpec("c", "C"))
	s.Close("c")
	s.Focus("a")

	st := s.Stats()
	require.Equal(t, uint64(3), st.Ops[OpOpen])
	require.Equal(t, uint64(1), st.Ops[OpClose])
	require.Equal(t, uint64(1), st.Ops[OpFocus])
	require.Equal(t, 2, st.Active)
	require.Equal(t, 3, st.Peak)
}
