package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/deskwm/internal/config"
	"github.com/1broseidon/deskwm/internal/wm"
)

// shortSocketPath keeps unix socket paths under the platform length limit.
func shortSocketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "dwm")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "d.sock")
}

func startServer(t *testing.T, cfg *config.Config, reload Reloader) (*Server, *wm.Store, *Client) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	store := wm.NewStore(cfg.StoreOptions())
	srv, err := NewServer(shortSocketPath(t), store, cfg, reload, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv, store, NewClientWithSocket(srv.SocketPath())
}

func TestServer_WindowCommands(t *testing.T) {
	_, store, client := startServer(t, nil, nil)

	res, err := client.Open(wm.OpenSpec{ID: "a", Title: "Alpha"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !res.Applied || res.Window == nil || res.Window.ZIndex != 101 {
		t.Fatalf("unexpected open result %+v", res)
	}

	if _, err := client.Open(wm.OpenSpec{ID: "b", Title: "Beta"}); err != nil {
		t.Fatalf("open b: %v", err)
	}
	res, err = client.Focus("a")
	if err != nil {
		t.Fatalf("focus: %v", err)
	}
	if !res.Window.IsFocused || res.TopZIndex != 103 {
		t.Fatalf("unexpected focus result %+v", res)
	}

	res, err = client.Move("a", -5, 12)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Window.X != -5 || res.Window.Y != 12 {
		t.Fatalf("unexpected move result %+v", res.Window)
	}

	res, err = client.Minimize("ghost")
	if err != nil {
		t.Fatalf("unknown id must not be an error: %v", err)
	}
	if res.Applied {
		t.Fatalf("expected applied=false for unknown id")
	}

	if _, err := client.Close("b"); err != nil {
		t.Fatalf("close: %v", err)
	}
	snap, err := client.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Windows) != 1 || snap.TopZIndex != store.TopZIndex() {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestServer_RejectsMalformedRequests(t *testing.T) {
	srv, _, client := startServer(t, nil, nil)

	if _, err := client.sendRequest(&Request{Command: "EXPLODE"}); err == nil || !strings.Contains(err.Error(), "Unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
	if _, err := client.sendRequest(&Request{Command: CommandOpen, Payload: json.RawMessage(`{"spec":{"title":"x"}}`)}); err == nil {
		t.Fatalf("expected error for open without id")
	}
	if _, err := client.sendRequest(&Request{Command: CommandFocus}); err == nil {
		t.Fatalf("expected error for missing payload")
	}

	conn, err := net.Dial("unix", srv.SocketPath())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.Write([]byte("not json\n"))
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil || resp.Status != "ERROR" {
		t.Fatalf("expected ERROR response, got %s", line)
	}
}

func TestServer_StatusAndApps(t *testing.T) {
	_, _, client := startServer(t, nil, nil)

	res, err := client.Launch("notes")
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if res.Window == nil || res.Window.Title != "Notes" || res.Window.Width != 480 {
		t.Fatalf("unexpected launch result %+v", res.Window)
	}
	if _, err := client.Launch("nope"); err == nil {
		t.Fatalf("expected unknown app error")
	}

	apps, err := client.ListApps()
	if err != nil {
		t.Fatalf("list apps: %v", err)
	}
	var notesOpen bool
	for _, app := range apps.Apps {
		if app.ID == "notes" {
			notesOpen = app.Open
		}
	}
	if !notesOpen {
		t.Fatalf("expected notes to be reported open: %+v", apps.Apps)
	}

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.WindowCount != 1 || status.FocusedID != "notes" || status.TopZIndex != 101 {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.Stats.Ops[wm.OpOpen] != 1 {
		t.Fatalf("expected one open in stats, got %+v", status.Stats)
	}
}

func TestServer_Arrange(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Desktop = config.Size{Width: 210, Height: 100}
	cfg.Placement.GapSize = 10
	_, store, client := startServer(t, cfg, nil)

	client.Open(wm.OpenSpec{ID: "a"})
	client.Open(wm.OpenSpec{ID: "b"})

	data, err := client.Arrange("grid")
	if err != nil {
		t.Fatalf("arrange: %v", err)
	}
	if data.Arranged != 2 {
		t.Fatalf("expected 2 arranged windows, got %d", data.Arranged)
	}
	a, _ := store.Window("a")
	b, _ := store.Window("b")
	if a.X != 10 || b.X != 110 || a.Width != 90 {
		t.Fatalf("unexpected grid bounds a=%+v b=%+v", a, b)
	}
	if !b.IsFocused {
		t.Fatalf("arrange must not change focus")
	}

	if _, err := client.Arrange("spiral"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestServer_Reload(t *testing.T) {
	next := config.DefaultConfig()
	next.Apps = []config.App{{ID: "calc", Title: "Calculator"}}

	_, _, client := startServer(t, nil, func() (*config.Config, error) { return next, nil })

	if err := client.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	apps, err := client.ListApps()
	if err != nil {
		t.Fatalf("list apps: %v", err)
	}
	if len(apps.Apps) != 1 || apps.Apps[0].ID != "calc" {
		t.Fatalf("expected reloaded catalog, got %+v", apps.Apps)
	}
}

func TestServer_ReloadUnsupported(t *testing.T) {
	_, _, client := startServer(t, nil, nil)
	if err := client.Reload(); err == nil {
		t.Fatalf("expected reload error without a reloader")
	}
}

func TestSubscribe_StreamsEvents(t *testing.T) {
	_, store, client := startServer(t, nil, nil)
	store.Open(wm.OpenSpec{ID: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := client.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(stream.Snapshot.Windows) != 1 || stream.Snapshot.TopZIndex != 101 {
		t.Fatalf("unexpected initial snapshot %+v", stream.Snapshot)
	}

	waitSubscribers(t, store, 1)

	store.Open(wm.OpenSpec{ID: "b"})
	store.Focus("a")

	for _, want := range []wm.Op{wm.OpOpen, wm.OpFocus} {
		select {
		case ev := <-stream.Events:
			if ev.Op != want {
				t.Fatalf("expected %s, got %s", want, ev.Op)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	cancel()
	select {
	case _, ok := <-stream.Events:
		if ok {
			// drain any in-flight event before close
			for range stream.Events {
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("stream did not close after cancel")
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("expected clean close, got %v", err)
	}
	waitSubscribers(t, store, 0)
}

func TestStart_RefusesLiveSocket(t *testing.T) {
	srv, store, _ := startServer(t, nil, nil)

	other, err := NewServer(srv.SocketPath(), store, config.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := other.Start(); err == nil {
		other.Stop()
		t.Fatalf("expected second server to refuse a live socket")
	}
}

func TestClient_NoDaemon(t *testing.T) {
	client := NewClientWithSocket(shortSocketPath(t))
	if err := client.Ping(); err == nil || !strings.Contains(err.Error(), "is the daemon running") {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestRequestFromIntent_RoundTrips(t *testing.T) {
	intents := []wm.Intent{
		wm.OpenIntent(wm.OpenSpec{ID: "a", Title: "A", Position: &wm.Point{X: 1, Y: 2}}),
		wm.MoveIntent("a", 3, 4),
		wm.ResizeIntent("a", 5, 6),
		{Op: wm.OpRestore, ID: "a"},
	}
	for _, in := range intents {
		req, err := requestFromIntent(in)
		if err != nil {
			t.Fatalf("encode %s: %v", in.Op, err)
		}
		got, err := intentFromRequest(req)
		if err != nil {
			t.Fatalf("decode %s: %v", in.Op, err)
		}
		if got.Op != in.Op || got.ID != in.ID || got.X != in.X || got.Width != in.Width {
			t.Fatalf("round trip mismatch: %+v vs %+v", got, in)
		}
	}
}

func waitSubscribers(t *testing.T, store *wm.Store, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for store.Subscribers() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, got %d", want, store.Subscribers())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
