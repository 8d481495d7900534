package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/1broseidon/deskwm/internal/placement"
	"github.com/1broseidon/deskwm/internal/wm"
	"gopkg.in/yaml.v3"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PlacementMode selects where windows opened without a position land.
type PlacementMode string

const (
	PlacementCascade PlacementMode = "cascade" // Diagonal offset per open window.
	PlacementOrigin  PlacementMode = "origin"  // Every window at origin_x/origin_y.
	PlacementCenter  PlacementMode = "center"  // Middle of the desktop.
)

// Placement configures default placement and arrange spacing.
type Placement struct {
	Mode    PlacementMode `yaml:"mode"`
	OriginX int           `yaml:"origin_x"`
	OriginY int           `yaml:"origin_y"`
	Step    int           `yaml:"step"`
	Wrap    int           `yaml:"wrap"`
	GapSize int           `yaml:"gap_size"`
}

// App is a launchable catalog entry. Launching an app opens a window with
// the app's id and defaults; launching it again focuses the same window.
type App struct {
	ID      string         `yaml:"id"`
	Title   string         `yaml:"title"`
	Width   int            `yaml:"width,omitempty"`
	Height  int            `yaml:"height,omitempty"`
	X       *int           `yaml:"x,omitempty"`
	Y       *int           `yaml:"y,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty"`
}

// OpenSpec converts the catalog entry into a store open request.
func (a App) OpenSpec() (wm.OpenSpec, error) {
	spec := wm.OpenSpec{ID: a.ID, Title: a.Title}
	if a.Title == "" {
		spec.Title = a.ID
	}
	if a.X != nil || a.Y != nil {
		p := wm.Point{}
		if a.X != nil {
			p.X = *a.X
		}
		if a.Y != nil {
			p.Y = *a.Y
		}
		spec.Position = &p
	}
	if a.Width > 0 && a.Height > 0 {
		spec.Size = &wm.Size{Width: a.Width, Height: a.Height}
	}
	if len(a.Payload) > 0 {
		data, err := json.Marshal(a.Payload)
		if err != nil {
			return wm.OpenSpec{}, fmt.Errorf("app %q: failed to encode payload: %w", a.ID, err)
		}
		spec.Payload = data
	}
	return spec, nil
}

// ActionLogConfig configures the rotating window action log.
type ActionLogConfig struct {
	// Enabled turns action logging on/off
	Enabled bool `yaml:"enabled"`
	// Level controls which operations are recorded: debug includes move/resize
	Level string `yaml:"level,omitempty"`
	// File is the log file path (default: ~/.local/share/deskwm/actions.log)
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
}

// LoggingConfig configures daemon and action logging.
type LoggingConfig struct {
	Level     string          `yaml:"level"`
	ActionLog ActionLogConfig `yaml:"action_log"`
}

// IPCConfig configures the control socket.
type IPCConfig struct {
	// Socket overrides the runtime socket path.
	Socket string `yaml:"socket,omitempty"`
	// EventBuffer is the per-subscriber event queue depth.
	EventBuffer int `yaml:"event_buffer"`
}

// Config represents the deskwm configuration.
type Config struct {
	BaselineZIndex int           `yaml:"baseline_z_index"`
	Desktop        Size          `yaml:"desktop"`
	DefaultWindow  Size          `yaml:"default_window"`
	Placement      Placement     `yaml:"placement"`
	Apps           []App         `yaml:"apps"`
	Logging        LoggingConfig `yaml:"logging"`
	IPC            IPCConfig     `yaml:"ipc"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		BaselineZIndex: wm.DefaultBaselineZIndex,
		Desktop:        Size{Width: 1920, Height: 1080},
		DefaultWindow:  Size{Width: wm.DefaultWindowSize.Width, Height: wm.DefaultWindowSize.Height},
		Placement: Placement{
			Mode:    PlacementCascade,
			OriginX: 40,
			OriginY: 40,
			Step:    32,
			Wrap:    10,
			GapSize: 8,
		},
		Apps: []App{
			{ID: "terminal", Title: "Terminal", Width: 720, Height: 440},
			{ID: "files", Title: "Files", Width: 900, Height: 600},
			{ID: "notes", Title: "Notes", Width: 480, Height: 520},
			{ID: "settings", Title: "Settings", Width: 640, Height: 480},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		IPC: IPCConfig{
			EventBuffer: wm.DefaultEventBuffer,
		},
	}
}

// StoreOptions builds store options from the config.
func (c *Config) StoreOptions() wm.Options {
	return wm.Options{
		BaselineZIndex: c.BaselineZIndex,
		DefaultSize:    wm.Size{Width: c.DefaultWindow.Width, Height: c.DefaultWindow.Height},
		Placer:         c.Placer(),
	}
}

// Cascade returns the cascade parameters derived from placement settings.
func (c *Config) Cascade() placement.Cascade {
	return placement.Cascade{
		Origin: wm.Point{X: c.Placement.OriginX, Y: c.Placement.OriginY},
		Step:   c.Placement.Step,
		Wrap:   c.Placement.Wrap,
	}
}

// Placer returns the default placement strategy for opens without a position.
func (c *Config) Placer() wm.Placer {
	switch c.Placement.Mode {
	case PlacementOrigin:
		return placement.Fixed{X: c.Placement.OriginX, Y: c.Placement.OriginY}
	case PlacementCenter:
		return placement.Centered{Width: c.Desktop.Width, Height: c.Desktop.Height}
	}
	return c.Cascade()
}

// DesktopRect returns the arrange area.
func (c *Config) DesktopRect() placement.Rect {
	return placement.Rect{Width: c.Desktop.Width, Height: c.Desktop.Height}
}

// FindApp looks up a catalog entry by id.
func (c *Config) FindApp(id string) (App, bool) {
	if c == nil {
		return App{}, false
	}
	for _, app := range c.Apps {
		if app.ID == id {
			return app, true
		}
	}
	return App{}, false
}

// GetEventBuffer returns the per-subscriber buffer with defaults applied.
func (c *Config) GetEventBuffer() int {
	if c == nil || c.IPC.EventBuffer <= 0 {
		return wm.DefaultEventBuffer
	}
	return c.IPC.EventBuffer
}

// GetActionLogConfig returns the action log configuration with defaults applied.
func (c *Config) GetActionLogConfig() ActionLogConfig {
	if c == nil {
		return ActionLogConfig{}
	}
	cfg := c.Logging.ActionLog
	if cfg.File == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = os.Getenv("HOME")
		}
		if home == "" {
			home = "."
		}
		cfg.File = filepath.Join(home, ".local/share/deskwm/actions.log")
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo validates and writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the effective config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func (c *Config) Validate() error {
	// Zero is the store's "unset" value, so the smallest usable baseline is 1.
	if c.BaselineZIndex < 1 {
		return &ValidationError{Path: "baseline_z_index", Err: fmt.Errorf("baseline_z_index must be >= 1")}
	}
	if c.Desktop.Width <= 0 || c.Desktop.Height <= 0 {
		return &ValidationError{Path: "desktop", Err: fmt.Errorf("desktop width and height must be positive")}
	}
	if c.DefaultWindow.Width <= 0 || c.DefaultWindow.Height <= 0 {
		return &ValidationError{Path: "default_window", Err: fmt.Errorf("default_window width and height must be positive")}
	}

	switch c.Placement.Mode {
	case PlacementCascade, PlacementOrigin, PlacementCenter:
	default:
		return &ValidationError{Path: "placement.mode", Err: fmt.Errorf("mode must be one of: cascade, origin, center")}
	}
	if c.Placement.Step < 0 {
		return &ValidationError{Path: "placement.step", Err: fmt.Errorf("step must be >= 0")}
	}
	if c.Placement.Wrap < 1 {
		return &ValidationError{Path: "placement.wrap", Err: fmt.Errorf("wrap must be >= 1")}
	}
	if c.Placement.GapSize < 0 {
		return &ValidationError{Path: "placement.gap_size", Err: fmt.Errorf("gap_size must be >= 0")}
	}

	seen := make(map[string]struct{}, len(c.Apps))
	for i, app := range c.Apps {
		path := fmt.Sprintf("apps[%d]", i)
		if strings.TrimSpace(app.ID) == "" {
			return &ValidationError{Path: path, Err: fmt.Errorf("id is required")}
		}
		if _, dup := seen[app.ID]; dup {
			return &ValidationError{Path: path, Err: fmt.Errorf("duplicate app id %q", app.ID)}
		}
		seen[app.ID] = struct{}{}
		if app.Width < 0 || app.Height < 0 {
			return &ValidationError{Path: path, Err: fmt.Errorf("width and height must be >= 0")}
		}
	}

	if !validLevel(c.Logging.Level) {
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	if c.Logging.ActionLog.Level != "" && !validLevel(c.Logging.ActionLog.Level) {
		return &ValidationError{Path: "logging.action_log.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	if c.Logging.ActionLog.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.action_log.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Logging.ActionLog.MaxFiles < 0 {
		return &ValidationError{Path: "logging.action_log.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	if c.IPC.EventBuffer < 0 {
		return &ValidationError{Path: "ipc.event_buffer", Err: fmt.Errorf("event_buffer must be >= 0")}
	}
	return nil
}

func validLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}
