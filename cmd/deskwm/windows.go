package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/1broseidon/deskwm/internal/wm"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func windowState(w wm.Window) string {
	switch {
	case w.IsMinimized && w.IsMaximized:
		return "minimized,maximized"
	case w.IsMinimized:
		return "minimized"
	case w.IsMaximized:
		return "maximized"
	default:
		return "normal"
	}
}

// printWindows lists windows top-most first.
func printWindows(out io.Writer, windows []wm.Window) error {
	stack := wm.Snapshot{Windows: windows}.Stack()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tX\tY\tW\tH\tZ\tSTATE\tFOCUS")
	for i := len(stack) - 1; i >= 0; i-- {
		w := stack[i]
		focus := ""
		if w.IsFocused {
			focus = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			w.ID, w.Title, w.X, w.Y, w.Width, w.Height, w.ZIndex, windowState(w), focus)
	}
	return tw.Flush()
}

func printResult(out io.Writer, res wm.Result, jsonOut bool, op wm.Op, id string) error {
	if jsonOut {
		return writeJSON(out, res)
	}
	if !res.Applied {
		fmt.Fprintf(out, "%s: no open window %q (ignored)\n", op, id)
		return nil
	}
	fmt.Fprintf(out, "%s: ok (top_z_index %d)\n", op, res.TopZIndex)
	if res.Window != nil {
		return printWindows(out, []wm.Window{*res.Window})
	}
	return nil
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			status, err := client.GetStatus()
			if err != nil {
				return err
			}

			started := time.Now().Add(-time.Duration(status.UptimeSeconds) * time.Second)
			out := opts.stdout
			fmt.Fprintf(out, "daemon_running: true\n")
			fmt.Fprintf(out, "started:        %s\n", humanize.Time(started))
			fmt.Fprintf(out, "uptime_seconds: %d\n", status.UptimeSeconds)
			fmt.Fprintf(out, "window_count:   %d (peak %d)\n", status.WindowCount, status.Stats.Peak)
			fmt.Fprintf(out, "top_z_index:    %d\n", status.TopZIndex)
			fmt.Fprintf(out, "focused:        %s\n", status.FocusedID)
			fmt.Fprintf(out, "subscribers:    %d\n", status.Subscribers)
			fmt.Fprintf(out, "ignored_ops:    %s\n", humanize.Comma(int64(status.Stats.Ignored)))

			ops := make([]string, 0, len(status.Stats.Ops))
			for op := range status.Stats.Ops {
				ops = append(ops, string(op))
			}
			sort.Strings(ops)
			for _, op := range ops {
				fmt.Fprintf(out, "ops.%-10s  %s\n", op, humanize.Comma(int64(status.Stats.Ops[wm.Op(op)])))
			}
			return nil
		},
	}
}

func newWindowsCmd(opts *globalOptions) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List open windows, top-most first",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			snap, err := client.Snapshot()
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(opts.stdout, snap)
			}
			if len(snap.Windows) == 0 {
				fmt.Fprintln(opts.stdout, "no open windows")
				return nil
			}
			return printWindows(opts.stdout, snap.Windows)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the full snapshot as JSON")
	return cmd
}

func newOpenCmd(opts *globalOptions) *cobra.Command {
	var (
		id, title, payload  string
		x, y, width, height int
		jsonOut             bool
	)

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a window (or bring an open one to the front)",
		Long: `Open a window. Without --id a random id is generated. Opening an id that
is already open focuses that window instead of creating a second one.

--x and --y are given together, as are --width and --height. Position
defaults to the configured placement and size to the configured default
window size.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				id = uuid.NewString()
			}
			spec := wm.OpenSpec{ID: id, Title: title}
			if spec.Title == "" {
				spec.Title = id
			}

			flags := cmd.Flags()
			if flags.Changed("x") != flags.Changed("y") {
				return usagef("--x and --y must be given together")
			}
			if flags.Changed("x") {
				spec.Position = &wm.Point{X: x, Y: y}
			}
			if flags.Changed("width") || flags.Changed("height") {
				if width <= 0 || height <= 0 {
					return usagef("--width and --height must both be positive")
				}
				spec.Size = &wm.Size{Width: width, Height: height}
			}
			if payload != "" {
				if !json.Valid([]byte(payload)) {
					return usagef("--payload must be valid JSON")
				}
				spec.Payload = json.RawMessage(payload)
			}

			client, err := opts.client()
			if err != nil {
				return err
			}
			res, err := client.Open(spec)
			if err != nil {
				return err
			}
			return printResult(opts.stdout, res, jsonOut, wm.OpOpen, id)
		},
	}

	f := cmd.Flags()
	f.StringVar(&id, "id", "", "Window id (default: random UUID)")
	f.StringVar(&title, "title", "", "Window title (default: the id)")
	f.IntVar(&x, "x", 0, "Left edge in pixels")
	f.IntVar(&y, "y", 0, "Top edge in pixels")
	f.IntVar(&width, "width", 0, "Width in pixels")
	f.IntVar(&height, "height", 0, "Height in pixels")
	f.StringVar(&payload, "payload", "", "Opaque JSON content for the window")
	f.BoolVar(&jsonOut, "json", false, "Output the result as JSON")
	return cmd
}

// newOpCmds builds the commands that take only a window id.
func newOpCmds(opts *globalOptions) []*cobra.Command {
	defs := []struct {
		op    wm.Op
		short string
	}{
		{wm.OpClose, "Close a window"},
		{wm.OpMinimize, "Minimize a window"},
		{wm.OpMaximize, "Toggle a window between maximized and normal"},
		{wm.OpRestore, "Restore a minimized window and focus it"},
		{wm.OpFocus, "Bring a window to the front and focus it"},
	}

	cmds := make([]*cobra.Command, 0, len(defs))
	for _, def := range defs {
		op := def.op
		var jsonOut bool
		cmd := &cobra.Command{
			Use:   string(op) + " <id>",
			Short: def.short,
			Args:  usageArgs(cobra.ExactArgs(1)),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := opts.client()
				if err != nil {
					return err
				}
				res, err := client.Apply(wm.Intent{Op: op, ID: args[0]})
				if err != nil {
					return err
				}
				return printResult(opts.stdout, res, jsonOut, op, args[0])
			},
		}
		cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the result as JSON")
		cmds = append(cmds, cmd)
	}
	return cmds
}

func parseInts(names []string, values []string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, usagef("%s must be an integer, got %q", names[i], v)
		}
		out[i] = n
	}
	return out, nil
}

func newMoveCmd(opts *globalOptions) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:     "move <id> <x> <y>",
		Short:   "Set a window's position",
		Example: "  deskwm move notes 120 80\n  deskwm move notes -- -40 0",
		Args:    usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parseInts([]string{"x", "y"}, args[1:])
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			res, err := client.Move(args[0], pos[0], pos[1])
			if err != nil {
				return err
			}
			return printResult(opts.stdout, res, jsonOut, wm.OpMove, args[0])
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the result as JSON")
	return cmd
}

func newResizeCmd(opts *globalOptions) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "resize <id> <width> <height>",
		Short: "Set a window's size",
		Args:  usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := parseInts([]string{"width", "height"}, args[1:])
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			res, err := client.Resize(args[0], size[0], size[1])
			if err != nil {
				return err
			}
			return printResult(opts.stdout, res, jsonOut, wm.OpResize, args[0])
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the result as JSON")
	return cmd
}

func newAppsCmd(opts *globalOptions) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List the app catalog",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			data, err := client.ListApps()
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(opts.stdout, data)
			}
			tw := tabwriter.NewWriter(opts.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tSIZE\tOPEN")
			for _, app := range data.Apps {
				size := "default"
				if app.Width > 0 && app.Height > 0 {
					size = fmt.Sprintf("%dx%d", app.Width, app.Height)
				}
				open := ""
				if app.Open {
					open = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", app.ID, app.Title, size, open)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newLaunchCmd(opts *globalOptions) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "launch <app>",
		Short: "Open an app from the catalog",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			res, err := client.Launch(args[0])
			if err != nil {
				return err
			}
			return printResult(opts.stdout, res, jsonOut, wm.OpOpen, args[0])
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the result as JSON")
	return cmd
}

func newArrangeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "arrange grid|cascade",
		Short:     "Lay out visible windows",
		ValidArgs: []string{"grid", "cascade"},
		Args:      usageArgs(cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs)),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			data, err := client.Arrange(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.stdout, "arranged %d windows (%s)\n", data.Arranged, data.Mode)
			return nil
		},
	}
}

func newReloadCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask the daemon to reload its config file",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			if err := client.Reload(); err != nil {
				return err
			}
			fmt.Fprintln(opts.stdout, "config reloaded")
			return nil
		},
	}
}
