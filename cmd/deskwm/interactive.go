package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/deskwm/internal/actionlog"
	"github.com/1broseidon/deskwm/internal/config"
	"github.com/1broseidon/deskwm/internal/mcp"
	"github.com/1broseidon/deskwm/internal/tui"
	"github.com/1broseidon/deskwm/internal/wm"
)

func newTUICmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive taskbar",
		Long: `Open the interactive taskbar: a live window list and desktop preview.

Keybindings:
  j/k, ↑/↓  Select window
  enter     Focus
  m         Minimize
  x         Toggle maximize
  r         Restore
  d         Close
  g / c     Arrange grid / cascade
  o         Open an app from the catalog
  ?         Toggle full help
  q         Quit`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if res, err := opts.loadConfig(); err == nil {
				cfg = res.Config
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			return tui.Run(cmdContext(cmd), client, wm.Size{Width: cfg.Desktop.Width, Height: cfg.Desktop.Height})
		},
	}
}

func newMCPCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol server",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return usagef("mcp requires a subcommand (serve)")
		},
	}

	var logLevel string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Long: `Start the MCP server on stdio. Designed to be invoked by MCP clients; the
tools forward to the running daemon over its socket.

Example:
  claude mcp add deskwm -- deskwm mcp serve`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			// stdout carries the protocol; logs go to stderr.
			logger := actionlog.NewConsole(opts.stderr, logLevel)
			server := mcp.NewServer(client, logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx)
		},
	}
	serve.Flags().StringVar(&logLevel, "log-level", "warn", "Log level for stderr diagnostics")

	cmd.AddCommand(serve)
	return cmd
}
