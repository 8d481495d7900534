package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskwm/internal/wm"
)

func windowInfo(w wm.Window) WindowInfo {
	info := WindowInfo{
		ID:        w.ID,
		Title:     w.Title,
		X:         w.X,
		Y:         w.Y,
		Width:     w.Width,
		Height:    w.Height,
		Minimized: w.IsMinimized,
		Maximized: w.IsMaximized,
		Focused:   w.IsFocused,
		ZIndex:    w.ZIndex,
	}
	if len(w.Payload) > 0 {
		var payload any
		if err := json.Unmarshal(w.Payload, &payload); err == nil {
			info.Payload = payload
		}
	}
	return info
}

// topFirst lists windows top-most first.
func topFirst(windows []wm.Window) []WindowInfo {
	stack := wm.Snapshot{Windows: windows}.Stack()
	out := make([]WindowInfo, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, windowInfo(stack[i]))
	}
	return out
}

func resultOutput(res wm.Result) WindowResultOutput {
	out := WindowResultOutput{Applied: res.Applied, TopZIndex: res.TopZIndex}
	if res.Window != nil {
		info := windowInfo(*res.Window)
		out.Window = &info
	}
	return out
}

func (s *Server) apply(in wm.Intent) (*mcpsdk.CallToolResult, WindowResultOutput, error) {
	res, err := s.desktop.Apply(in)
	if err != nil {
		return nil, WindowResultOutput{}, fmt.Errorf("%s failed: %w", in.Op, err)
	}
	s.logger.Debug("mcp tool applied", "op", in.Op, "id", in.ID, "applied", res.Applied)
	return nil, resultOutput(res), nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required")
	}
	return nil
}

func (s *Server) handleOpenWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args OpenWindowInput) (*mcpsdk.CallToolResult, WindowResultOutput, error) {
	if err := requireID(args.ID); err != nil {
		return nil, WindowResultOutput{}, err
	}

	spec := wm.OpenSpec{ID: args.ID, Title: args.Title}
	if spec.Title == "" {
		spec.Title = args.ID
	}
	if (args.X == nil) != (args.Y == nil) {
		return nil, WindowResultOutput{}, fmt.Errorf("x and y must be given together")
	}
	if args.X != nil {
		spec.Position = &wm.Point{X: *args.X, Y: *args.Y}
	}
	if args.Width != nil || args.Height != nil {
		if args.Width == nil || args.Height == nil || *args.Width <= 0 || *args.Height <= 0 {
			return nil, WindowResultOutput{}, fmt.Errorf("width and height must both be given and positive")
		}
		spec.Size = &wm.Size{Width: *args.Width, Height: *args.Height}
	}
	if len(args.Payload) > 0 {
		data, err := json.Marshal(args.Payload)
		if err != nil {
			return nil, WindowResultOutput{}, fmt.Errorf("invalid payload: %w", err)
		}
		spec.Payload = data
	}

	return s.apply(wm.OpenIntent(spec))
}

// opHandler builds the handler for a tool that takes only a window id.
func (s *Server) opHandler(op wm.Op) mcpsdk.ToolHandlerFor[WindowIDInput, WindowResultOutput] {
	return func(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowIDInput) (*mcpsdk.CallToolResult, WindowResultOutput, error) {
		if err := requireID(args.ID); err != nil {
			return nil, WindowResultOutput{}, err
		}
		return s.apply(wm.Intent{Op: op, ID: args.ID})
	}
}

func (s *Server) handleMoveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowInput) (*mcpsdk.CallToolResult, WindowResultOutput, error) {
	if err := requireID(args.ID); err != nil {
		return nil, WindowResultOutput{}, err
	}
	return s.apply(wm.MoveIntent(args.ID, args.X, args.Y))
}

func (s *Server) handleResizeWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ResizeWindowInput) (*mcpsdk.CallToolResult, WindowResultOutput, error) {
	if err := requireID(args.ID); err != nil {
		return nil, WindowResultOutput{}, err
	}
	return s.apply(wm.ResizeIntent(args.ID, args.Width, args.Height))
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	snap, err := s.desktop.Snapshot()
	if err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("failed to list windows: %w", err)
	}
	out := ListWindowsOutput{
		Windows:   topFirst(snap.Windows),
		TopZIndex: snap.TopZIndex,
	}
	if w, ok := snap.Focused(); ok {
		out.FocusedID = w.ID
	}
	return nil, out, nil
}

func (s *Server) handleListApps(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListAppsInput) (*mcpsdk.CallToolResult, ListAppsOutput, error) {
	data, err := s.desktop.ListApps()
	if err != nil {
		return nil, ListAppsOutput{}, fmt.Errorf("failed to list apps: %w", err)
	}
	out := ListAppsOutput{Apps: make([]AppInfo, 0, len(data.Apps))}
	for _, app := range data.Apps {
		out.Apps = append(out.Apps, AppInfo{ID: app.ID, Title: app.Title, Open: app.Open})
	}
	return nil, out, nil
}

func (s *Server) handleLaunchApp(_ context.Context, _ *mcpsdk.CallToolRequest, args LaunchAppInput) (*mcpsdk.CallToolResult, WindowResultOutput, error) {
	if strings.TrimSpace(args.App) == "" {
		return nil, WindowResultOutput{}, fmt.Errorf("app is required")
	}
	res, err := s.desktop.Launch(args.App)
	if err != nil {
		return nil, WindowResultOutput{}, fmt.Errorf("launch %q failed: %w", args.App, err)
	}
	s.logger.Info("mcp launched app", "app", args.App)
	return nil, resultOutput(res), nil
}

func (s *Server) handleArrangeWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ArrangeWindowsInput) (*mcpsdk.CallToolResult, ArrangeWindowsOutput, error) {
	data, err := s.desktop.Arrange(args.Mode)
	if err != nil {
		return nil, ArrangeWindowsOutput{}, fmt.Errorf("arrange failed: %w", err)
	}
	return nil, ArrangeWindowsOutput{
		Mode:     data.Mode,
		Arranged: data.Arranged,
		Windows:  topFirst(data.Snapshot.Windows),
	}, nil
}
