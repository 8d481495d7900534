package mcp

import (
	"context"
	"io"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/wm"
)

const (
	ServerName    = "deskwm"
	ServerVersion = "0.1.0"
)

// Desktop is the window manager the tools drive. ipc.Client satisfies it.
type Desktop interface {
	Apply(in wm.Intent) (wm.Result, error)
	Snapshot() (wm.Snapshot, error)
	Launch(app string) (wm.Result, error)
	ListApps() (*ipc.AppsData, error)
	Arrange(mode string) (*ipc.ArrangeData, error)
}

var _ Desktop = (*ipc.Client)(nil)

// Server is the MCP server exposing window operations to agents.
type Server struct {
	mcpServer *mcpsdk.Server
	desktop   Desktop
	logger    *slog.Logger
}

// NewServer creates a new MCP server backed by desktop.
func NewServer(desktop Desktop, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		desktop: desktop,
		logger:  logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_window",
		Description: "Open a window on the desktop, or bring an already open window with the same id to the front (restoring it if minimized). The window becomes the focused, top-most window. Returns the resulting window.",
	}, s.handleOpenWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Close a window. Focus is not moved to another window. Returns applied=false if the id is not open.",
	}, s.opHandler(wm.OpClose))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "minimize_window",
		Description: "Minimize a window to the taskbar. It loses focus but keeps its stacking position. Returns applied=false if the id is not open.",
	}, s.opHandler(wm.OpMinimize))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "maximize_window",
		Description: "Toggle a window between maximized and its normal bounds. Focus and stacking are unchanged. Returns applied=false if the id is not open.",
	}, s.opHandler(wm.OpMaximize))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore_window",
		Description: "Restore a minimized window and bring it to the front with focus. Returns applied=false if the id is not open.",
	}, s.opHandler(wm.OpRestore))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_window",
		Description: "Bring a window to the front and make it the only focused window. A minimized window stays minimized. Returns applied=false if the id is not open.",
	}, s.opHandler(wm.OpFocus))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window",
		Description: "Set a window's position. Focus and stacking are unchanged. Returns applied=false if the id is not open.",
	}, s.handleMoveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resize_window",
		Description: "Set a window's size. Focus and stacking are unchanged. Returns applied=false if the id is not open.",
	}, s.handleResizeWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List open windows top-most first, with geometry, state flags and z-index.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_apps",
		Description: "List launchable apps from the desktop's configured catalog and whether each is open.",
	}, s.handleListApps)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "launch_app",
		Description: "Launch an app from the catalog with its configured title, size and position. Launching an app that is already open brings it to the front.",
	}, s.handleLaunchApp)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "arrange_windows",
		Description: "Lay out all visible (non-minimized) windows as a grid filling the desktop, or as a diagonal cascade keeping their sizes. Focus and stacking are unchanged.",
	}, s.handleArrangeWindows)
}
