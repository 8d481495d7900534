package mcp

import (
	"context"
	"fmt"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskwm/internal/config"
	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/placement"
	"github.com/1broseidon/deskwm/internal/wm"
)

// storeDesktop drives an in-process store the way the daemon would.
type storeDesktop struct {
	store *wm.Store
	cfg   *config.Config
}

func newStoreDesktop() *storeDesktop {
	cfg := config.DefaultConfig()
	return &storeDesktop{store: wm.NewStore(cfg.StoreOptions()), cfg: cfg}
}

func (d *storeDesktop) Apply(in wm.Intent) (wm.Result, error) { return d.store.Apply(in) }

func (d *storeDesktop) Snapshot() (wm.Snapshot, error) { return d.store.Snapshot(), nil }

func (d *storeDesktop) Launch(app string) (wm.Result, error) {
	a, ok := d.cfg.FindApp(app)
	if !ok {
		return wm.Result{}, fmt.Errorf("Unknown app: %s", app)
	}
	spec, err := a.OpenSpec()
	if err != nil {
		return wm.Result{}, err
	}
	return d.store.Apply(wm.OpenIntent(spec))
}

func (d *storeDesktop) ListApps() (*ipc.AppsData, error) {
	snap := d.store.Snapshot()
	data := &ipc.AppsData{}
	for _, app := range d.cfg.Apps {
		_, open := snap.Find(app.ID)
		data.Apps = append(data.Apps, ipc.AppInfo{ID: app.ID, Title: app.Title, Open: open})
	}
	return data, nil
}

func (d *storeDesktop) Arrange(mode string) (*ipc.ArrangeData, error) {
	m, err := placement.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	intents, err := placement.Arrange(m, d.store.Windows(), d.cfg.DesktopRect(), d.cfg.Placement.GapSize, d.cfg.Cascade())
	if err != nil {
		return nil, err
	}
	for _, in := range intents {
		d.store.Apply(in)
	}
	return &ipc.ArrangeData{Mode: mode, Arranged: len(intents) / 2, Snapshot: d.store.Snapshot()}, nil
}

func intPtr(v int) *int { return &v }

func TestHandleOpenWindow(t *testing.T) {
	desk := newStoreDesktop()
	s := NewServer(desk, nil)

	_, out, err := s.handleOpenWindow(context.Background(), nil, OpenWindowInput{
		ID:      "notes",
		X:       intPtr(10),
		Y:       intPtr(20),
		Width:   intPtr(300),
		Height:  intPtr(200),
		Payload: map[string]any{"doc": "todo.md"},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !out.Applied || out.Window == nil {
		t.Fatalf("expected applied window, got %+v", out)
	}
	w := out.Window
	if w.Title != "notes" || w.X != 10 || w.Width != 300 || !w.Focused || w.ZIndex != 101 {
		t.Fatalf("unexpected window %+v", w)
	}
	payload, ok := w.Payload.(map[string]any)
	if !ok || payload["doc"] != "todo.md" {
		t.Fatalf("unexpected payload %#v", w.Payload)
	}

	if _, _, err := s.handleOpenWindow(context.Background(), nil, OpenWindowInput{}); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestHandleOpenWindow_RejectsPartialBounds(t *testing.T) {
	desk := newStoreDesktop()
	s := NewServer(desk, nil)

	tests := []struct {
		name string
		in   OpenWindowInput
	}{
		{"x without y", OpenWindowInput{ID: "a", X: intPtr(10)}},
		{"y without x", OpenWindowInput{ID: "a", Y: intPtr(10)}},
		{"width without height", OpenWindowInput{ID: "a", Width: intPtr(300)}},
		{"height without width", OpenWindowInput{ID: "a", Height: intPtr(200)}},
		{"zero width", OpenWindowInput{ID: "a", Width: intPtr(0), Height: intPtr(200)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := s.handleOpenWindow(context.Background(), nil, tt.in); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if n := len(desk.store.Windows()); n != 0 {
		t.Fatalf("rejected opens must not create windows, got %d", n)
	}
}

func TestOpHandlers_UnknownIDIsNotAnError(t *testing.T) {
	s := NewServer(newStoreDesktop(), nil)

	for _, op := range []wm.Op{wm.OpClose, wm.OpMinimize, wm.OpMaximize, wm.OpRestore, wm.OpFocus} {
		_, out, err := s.opHandler(op)(context.Background(), nil, WindowIDInput{ID: "ghost"})
		if err != nil {
			t.Fatalf("%s: unexpected error %v", op, err)
		}
		if out.Applied || out.Window != nil {
			t.Fatalf("%s: expected applied=false, got %+v", op, out)
		}
	}

	_, out, err := s.handleMoveWindow(context.Background(), nil, MoveWindowInput{ID: "ghost", X: 1})
	if err != nil || out.Applied {
		t.Fatalf("move on unknown id: out=%+v err=%v", out, err)
	}
}

func TestOpHandlers_MinimizeRestoreFocus(t *testing.T) {
	desk := newStoreDesktop()
	s := NewServer(desk, nil)
	ctx := context.Background()

	s.handleOpenWindow(ctx, nil, OpenWindowInput{ID: "a"})
	s.handleOpenWindow(ctx, nil, OpenWindowInput{ID: "b"})

	_, out, _ := s.opHandler(wm.OpMinimize)(ctx, nil, WindowIDInput{ID: "b"})
	if !out.Window.Minimized || out.Window.Focused {
		t.Fatalf("unexpected minimized window %+v", out.Window)
	}

	_, out, _ = s.opHandler(wm.OpRestore)(ctx, nil, WindowIDInput{ID: "b"})
	if out.Window.Minimized || !out.Window.Focused || out.TopZIndex != 103 {
		t.Fatalf("unexpected restored window %+v top=%d", out.Window, out.TopZIndex)
	}

	_, out, _ = s.handleResizeWindow(ctx, nil, ResizeWindowInput{ID: "a", Width: 640, Height: 480})
	if out.Window.Width != 640 || out.Window.Focused {
		t.Fatalf("resize must not change focus: %+v", out.Window)
	}
}

func TestHandleListWindows_TopFirst(t *testing.T) {
	s := NewServer(newStoreDesktop(), nil)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		s.handleOpenWindow(ctx, nil, OpenWindowInput{ID: id})
	}
	s.opHandler(wm.OpFocus)(ctx, nil, WindowIDInput{ID: "a"})

	_, out, err := s.handleListWindows(ctx, nil, ListWindowsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var order []string
	for _, w := range out.Windows {
		order = append(order, w.ID)
	}
	if fmt.Sprint(order) != "[a c b]" {
		t.Fatalf("expected top-first order [a c b], got %v", order)
	}
	if out.FocusedID != "a" || out.TopZIndex != 104 {
		t.Fatalf("unexpected list output %+v", out)
	}
}

func TestHandleLaunchAndListApps(t *testing.T) {
	s := NewServer(newStoreDesktop(), nil)
	ctx := context.Background()

	_, out, err := s.handleLaunchApp(ctx, nil, LaunchAppInput{App: "terminal"})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if out.Window.Title != "Terminal" || out.Window.Width != 720 {
		t.Fatalf("unexpected launched window %+v", out.Window)
	}
	if _, _, err := s.handleLaunchApp(ctx, nil, LaunchAppInput{App: "nope"}); err == nil {
		t.Fatalf("expected unknown app error")
	}

	_, apps, err := s.handleListApps(ctx, nil, ListAppsInput{})
	if err != nil {
		t.Fatalf("list apps: %v", err)
	}
	for _, app := range apps.Apps {
		if app.Open != (app.ID == "terminal") {
			t.Fatalf("unexpected open flag for %s: %v", app.ID, app.Open)
		}
	}
}

func TestHandleArrangeWindows(t *testing.T) {
	s := NewServer(newStoreDesktop(), nil)
	ctx := context.Background()
	s.handleOpenWindow(ctx, nil, OpenWindowInput{ID: "a"})
	s.handleOpenWindow(ctx, nil, OpenWindowInput{ID: "b"})

	_, out, err := s.handleArrangeWindows(ctx, nil, ArrangeWindowsInput{Mode: "grid"})
	if err != nil {
		t.Fatalf("arrange: %v", err)
	}
	if out.Arranged != 2 || len(out.Windows) != 2 {
		t.Fatalf("unexpected arrange output %+v", out)
	}
	if _, _, err := s.handleArrangeWindows(ctx, nil, ArrangeWindowsInput{Mode: "spiral"}); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestServer_InMemorySession(t *testing.T) {
	ctx := context.Background()
	s := NewServer(newStoreDesktop(), nil)

	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	serverSession, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"open_window", "close_window", "minimize_window", "maximize_window", "restore_window", "focus_window", "move_window", "resize_window", "list_windows", "launch_app"} {
		if !names[want] {
			t.Errorf("missing tool %q", want)
		}
	}

	res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "open_window",
		Arguments: map[string]any{"id": "a", "title": "Alpha"},
	})
	if err != nil {
		t.Fatalf("call open_window: %v", err)
	}
	if res.IsError {
		t.Fatalf("open_window returned tool error: %+v", res.Content)
	}

	res, err = session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "focus_window",
		Arguments: map[string]any{"id": "ghost"},
	})
	if err != nil {
		t.Fatalf("call focus_window: %v", err)
	}
	if res.IsError {
		t.Fatalf("unknown id must not be a tool error")
	}
	structured, ok := res.StructuredContent.(map[string]any)
	if !ok || structured["applied"] != false {
		t.Fatalf("expected applied=false, got %#v", res.StructuredContent)
	}
}
