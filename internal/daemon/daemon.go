package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/1broseidon/deskwm/internal/actionlog"
	"github.com/1broseidon/deskwm/internal/config"
	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/runtimepath"
	"github.com/1broseidon/deskwm/internal/wm"
)

// Options configures a Daemon.
type Options struct {
	// Config is the initial configuration. Nil loads ConfigPath.
	Config *config.Config
	// ConfigPath is re-read on reload. Empty means the default path.
	ConfigPath string
	// SocketPath overrides both the config and the runtime default.
	SocketPath string
	// Watch enables reloading when ConfigPath changes on disk.
	Watch  bool
	Logger *slog.Logger
}

// actionRecorder consumes store events until its context ends.
type actionRecorder interface {
	Run(ctx context.Context, sub *wm.Subscription)
	Close() error
}

// Daemon owns the window store for one desktop session and serves it over IPC.
type Daemon struct {
	configPath string
	watch      bool
	logger     *slog.Logger
	store      *wm.Store
	server     *ipc.Server
	actions    actionRecorder

	mu       sync.Mutex
	cfg      *config.Config
	baseline int
}

// New builds the store and IPC server from configuration. Nothing is started
// until Run.
func New(opts Options) (*Daemon, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = path
	}

	cfg := opts.Config
	if cfg == nil {
		res, err := config.LoadFromPath(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = res.Config
	}

	socketPath := opts.SocketPath
	if socketPath == "" {
		path, err := runtimepath.ResolveSocket(cfg.IPC.Socket)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
		socketPath = path
	}

	actions, err := actionlog.New(actionLogConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open action log: %w", err)
	}

	d := &Daemon{
		configPath: configPath,
		watch:      opts.Watch,
		logger:     logger,
		store:      wm.NewStore(cfg.StoreOptions()),
		actions:    actions,
		cfg:        cfg,
		baseline:   cfg.BaselineZIndex,
	}

	server, err := ipc.NewServer(socketPath, d.store, cfg, d.Reload, logger)
	if err != nil {
		actions.Close()
		return nil, err
	}
	d.server = server
	return d, nil
}

func actionLogConfig(cfg *config.Config) actionlog.Config {
	al := cfg.GetActionLogConfig()
	return actionlog.Config{
		Enabled:   al.Enabled,
		Level:     al.Level,
		FilePath:  al.File,
		MaxSizeMB: al.MaxSizeMB,
		MaxFiles:  al.MaxFiles,
	}
}

// Store returns the daemon's window store.
func (d *Daemon) Store() *wm.Store {
	return d.store
}

// SocketPath returns the IPC socket the daemon serves.
func (d *Daemon) SocketPath() string {
	return d.server.SocketPath()
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Run serves until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.actions.Close()
	if err := d.server.Start(); err != nil {
		return err
	}
	defer d.server.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	sub := d.store.Subscribe(d.Config().GetEventBuffer())
	defer sub.Close()
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.actions.Run(ctx, sub)
	}()

	if d.watch {
		watcher := NewConfigWatcher(d.configPath, 0, func() {
			if _, err := d.Reload(); err != nil {
				d.logger.Error("config reload failed", "error", err)
			}
		}, d.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil {
				d.logger.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	d.logger.Info("deskwm daemon started", "socket", d.server.SocketPath(), "baseline_z_index", d.baseline)
	<-ctx.Done()
	d.logger.Info("shutting down deskwm daemon")

	cancel()
	wg.Wait()
	return nil
}

// Reload re-reads the config file and applies it. Window state is kept.
func (d *Daemon) Reload() (*config.Config, error) {
	res, err := config.LoadFromPath(d.configPath)
	if err != nil {
		return nil, err
	}
	d.Apply(res.Config)
	return res.Config, nil
}

// Apply swaps in cfg. The z baseline only seeds a new store, so a changed
// baseline_z_index takes effect on the next daemon start.
func (d *Daemon) Apply(cfg *config.Config) {
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()

	if cfg.BaselineZIndex != d.baseline {
		d.logger.Warn("baseline_z_index change ignored until restart",
			"running", d.baseline, "configured", cfg.BaselineZIndex)
	}
	d.store.SetPlacer(cfg.Placer())
	d.store.SetDefaultSize(wm.Size{Width: cfg.DefaultWindow.Width, Height: cfg.DefaultWindow.Height})
	d.server.UpdateConfig(cfg)

	d.logger.Info("config applied",
		"placement", cfg.Placement.Mode,
		"desktop", fmt.Sprintf("%dx%d", cfg.Desktop.Width, cfg.Desktop.Height),
		"apps", len(cfg.Apps))
}
