package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/deskwm/internal/actionlog"
	"github.com/1broseidon/deskwm/internal/daemon"
)

func newDaemonCmd(opts *globalOptions) *cobra.Command {
	var (
		watch    bool
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Start the deskwm daemon (foreground)",
		Long: `Start the deskwm daemon in the foreground.

The daemon owns the window store and serves it on the IPC socket. The
config file is watched and reloaded on change unless --watch=false is given.
SIGHUP also reloads it; SIGINT/SIGTERM stop the daemon.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.resolvedConfigPath()
			if err != nil {
				return err
			}
			res, err := opts.loadConfig()
			if err != nil {
				return err
			}

			level := res.Config.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			logger := actionlog.NewConsole(opts.stderr, level)

			d, err := daemon.New(daemon.Options{
				Config:     res.Config,
				ConfigPath: path,
				SocketPath: opts.socket,
				Watch:      watch,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-hup:
						logger.Info("received SIGHUP, reloading config")
						if _, err := d.Reload(); err != nil {
							logger.Error("config reload failed", "err", err)
						}
					}
				}
			}()

			logger.Info("deskwm daemon starting", "socket", d.SocketPath(), "config", path, "watch", watch)
			if err := d.Run(ctx); err != nil {
				return err
			}
			logger.Info("deskwm daemon stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", true, "Reload when the config file changes (--watch=false to disable)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	return cmd
}
