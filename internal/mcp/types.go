package mcp

// WindowIDInput is the input for tools that act on one window.
type WindowIDInput struct {
	ID string `json:"id" jsonschema:"Window id"`
}

// OpenWindowInput is the input for the open_window tool.
type OpenWindowInput struct {
	ID      string         `json:"id" jsonschema:"Window id. Opening an id that is already open brings that window to the front instead of creating a second one."`
	Title   string         `json:"title,omitempty" jsonschema:"Title shown in the window frame and taskbar (default: the id)"`
	X       *int           `json:"x,omitempty" jsonschema:"Left edge in pixels. Give x and y together, or omit both to use the configured default placement."`
	Y       *int           `json:"y,omitempty" jsonschema:"Top edge in pixels"`
	Width   *int           `json:"width,omitempty" jsonschema:"Width in pixels. Give width and height together (default: configured default window size)."`
	Height  *int           `json:"height,omitempty" jsonschema:"Height in pixels (default: configured default window size)"`
	Payload map[string]any `json:"payload,omitempty" jsonschema:"Opaque application content passed through to the renderer"`
}

// MoveWindowInput is the input for the move_window tool.
type MoveWindowInput struct {
	ID string `json:"id" jsonschema:"Window id"`
	X  int    `json:"x" jsonschema:"New left edge in pixels (may be negative)"`
	Y  int    `json:"y" jsonschema:"New top edge in pixels (may be negative)"`
}

// ResizeWindowInput is the input for the resize_window tool.
type ResizeWindowInput struct {
	ID     string `json:"id" jsonschema:"Window id"`
	Width  int    `json:"width" jsonschema:"New width in pixels"`
	Height int    `json:"height" jsonschema:"New height in pixels"`
}

// LaunchAppInput is the input for the launch_app tool.
type LaunchAppInput struct {
	App string `json:"app" jsonschema:"App id from the configured catalog (see list_apps)"`
}

// ArrangeWindowsInput is the input for the arrange_windows tool.
type ArrangeWindowsInput struct {
	Mode string `json:"mode" jsonschema:"Arrangement: grid or cascade"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// ListAppsInput is the input for the list_apps tool.
type ListAppsInput struct{}

// WindowInfo describes a single window.
type WindowInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Minimized bool   `json:"minimized"`
	Maximized bool   `json:"maximized"`
	Focused   bool   `json:"focused"`
	ZIndex    int    `json:"z_index"`
	Payload   any    `json:"payload,omitempty"`
}

// WindowResultOutput is the output for every single-window tool.
type WindowResultOutput struct {
	// Applied is false when the id did not name an open window.
	Applied   bool        `json:"applied"`
	Window    *WindowInfo `json:"window,omitempty"`
	TopZIndex int         `json:"top_z_index"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows   []WindowInfo `json:"windows"`
	TopZIndex int          `json:"top_z_index"`
	FocusedID string       `json:"focused_id,omitempty"`
}

// AppInfo describes one launchable app.
type AppInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Open  bool   `json:"open"`
}

// ListAppsOutput is the output for the list_apps tool.
type ListAppsOutput struct {
	Apps []AppInfo `json:"apps"`
}

// ArrangeWindowsOutput is the output for the arrange_windows tool.
type ArrangeWindowsOutput struct {
	Mode     string       `json:"mode"`
	Arranged int          `json:"arranged"`
	Windows  []WindowInfo `json:"windows"`
}
