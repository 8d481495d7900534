package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/deskwm/internal/config"
	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/wm"
)

type harness struct {
	daemon *Daemon
	client *ipc.Client
	cfg    string
	done   chan error
	cancel context.CancelFunc
}

func startDaemon(t *testing.T, cfgYAML string, watch bool) *harness {
	t.Helper()
	dir, err := os.MkdirTemp("", "dwmd")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	cfgPath := filepath.Join(dir, "config.yaml")
	if cfgYAML != "" {
		if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}

	d, err := New(Options{
		ConfigPath: cfgPath,
		SocketPath: filepath.Join(dir, "d.sock"),
		Watch:      watch,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{daemon: d, client: ipc.NewClientWithSocket(d.SocketPath()), cfg: cfgPath, done: make(chan error, 1), cancel: cancel}
	go func() { h.done <- d.Run(ctx) }()
	t.Cleanup(h.stop)

	waitFor(t, "daemon to accept connections", func() bool { return h.client.Ping() == nil })
	return h
}

func (h *harness) stop() {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDaemon_ServesStoreFromConfig(t *testing.T) {
	h := startDaemon(t, "baseline_z_index: 5000\nplacement:\n  mode: origin\n  origin_x: 3\n  origin_y: 4\n", false)

	res, err := h.client.Open(wm.OpenSpec{ID: "a"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if res.Window.ZIndex != 5001 {
		t.Fatalf("expected baseline 5000 to seed z, got %d", res.Window.ZIndex)
	}
	if res.Window.X != 3 || res.Window.Y != 4 {
		t.Fatalf("expected origin placement, got %d,%d", res.Window.X, res.Window.Y)
	}
}

func TestDaemon_RunStopsOnCancel(t *testing.T) {
	h := startDaemon(t, "", false)
	sock := h.daemon.SocketPath()

	h.cancel()
	select {
	case err := <-h.done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if _, err := os.Stat(sock); !os.IsNotExist(err) {
		t.Fatalf("expected socket removed, stat err=%v", err)
	}
}

func TestDaemon_ReloadKeepsWindowsAndBaseline(t *testing.T) {
	h := startDaemon(t, "baseline_z_index: 100\n", false)
	h.client.Open(wm.OpenSpec{ID: "a"})

	next := "baseline_z_index: 9000\nplacement:\n  mode: origin\n  origin_x: 1\n  origin_y: 2\napps:\n  - id: calc\n    title: Calculator\n"
	if err := os.WriteFile(h.cfg, []byte(next), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := h.client.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	snap, err := h.client.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Windows) != 1 {
		t.Fatalf("reload must keep windows, got %d", len(snap.Windows))
	}

	res, err := h.client.Launch("calc")
	if err != nil {
		t.Fatalf("launch reloaded app: %v", err)
	}
	if res.Window.ZIndex != 102 {
		t.Fatalf("baseline change must not apply to a running store, got z %d", res.Window.ZIndex)
	}
	if res.Window.X != 1 || res.Window.Y != 2 {
		t.Fatalf("expected reloaded placer, got %d,%d", res.Window.X, res.Window.Y)
	}
}

func TestDaemon_ReloadRejectsInvalidConfig(t *testing.T) {
	h := startDaemon(t, "", false)
	if err := os.WriteFile(h.cfg, []byte("desktop:\n  width: 0\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := h.client.Reload()
	if err == nil || !strings.Contains(err.Error(), "desktop") {
		t.Fatalf("expected desktop validation error, got %v", err)
	}
	if h.daemon.Config().Desktop.Width != config.DefaultConfig().Desktop.Width {
		t.Fatalf("invalid reload must keep the previous config")
	}
}

func TestDaemon_WatchReloadsOnWrite(t *testing.T) {
	h := startDaemon(t, "placement:\n  mode: cascade\n", true)

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(h.cfg, []byte("placement:\n  mode: origin\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	waitFor(t, "config watcher reload", func() bool {
		return h.daemon.Config().Placement.Mode == config.PlacementOrigin
	})
}

func TestDaemon_ActionLogRecordsEvents(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "actions.log")
	h := startDaemon(t, "logging:\n  level: info\n  action_log:\n    enabled: true\n    file: "+logPath+"\n", false)

	h.client.Open(wm.OpenSpec{ID: "notes", Title: "Notes"})
	h.client.Close("notes")

	waitFor(t, "action log entries", func() bool {
		data, err := os.ReadFile(logPath)
		return err == nil && strings.Contains(string(data), "msg=close")
	})
}

type recordingActions struct {
	closed bool
}

func (r *recordingActions) Run(ctx context.Context, sub *wm.Subscription) { <-ctx.Done() }

func (r *recordingActions) Close() error {
	r.closed = true
	return nil
}

func TestRun_ClosesActionLogWhenServerFailsToStart(t *testing.T) {
	h := startDaemon(t, "", false)

	d, err := New(Options{
		Config:     config.DefaultConfig(),
		ConfigPath: h.cfg,
		SocketPath: h.daemon.SocketPath(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	actions := &recordingActions{}
	d.actions = actions

	err = d.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already listening") {
		t.Fatalf("expected socket-in-use error, got %v", err)
	}
	if !actions.closed {
		t.Fatalf("expected action log closed after failed start")
	}
	if h.client.Ping() != nil {
		t.Fatalf("running daemon should be unaffected")
	}
}
