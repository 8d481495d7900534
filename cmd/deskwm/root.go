package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1broseidon/deskwm/internal/config"
	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/runtimepath"
)

const version = "0.1.0"

// usageError marks errors that exit with status 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// usageArgs wraps a positional-args validator so its failures are usage errors.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	socket     string
	configPath string
	stdout     io.Writer
	stderr     io.Writer
}

func (o *globalOptions) resolvedConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.DefaultConfigPath()
}

func (o *globalOptions) loadConfig() (*config.LoadResult, error) {
	path, err := o.resolvedConfigPath()
	if err != nil {
		return nil, err
	}
	return config.LoadFromPath(path)
}

// client connects to the socket named by --socket, then the config's
// ipc.socket, then the runtime default.
func (o *globalOptions) client() (*ipc.Client, error) {
	override := o.socket
	if override == "" {
		if res, err := o.loadConfig(); err == nil {
			override = res.Config.IPC.Socket
		}
	}
	path, err := runtimepath.ResolveSocket(override)
	if err != nil {
		return nil, err
	}
	return ipc.NewClientWithSocket(path), nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "deskwm",
		Short:         "Desktop window manager daemon and controls",
		Long:          "deskwm runs a desktop window store as a daemon and controls it over a local socket.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.HiddenDefaultCmd = true
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.PersistentFlags().StringVar(&opts.socket, "socket", "", "IPC socket path (default: $XDG_RUNTIME_DIR/deskwm.sock)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file path (default: ~/.config/deskwm/config.yaml)")

	root.AddCommand(
		newDaemonCmd(opts),
		newStatusCmd(opts),
		newWindowsCmd(opts),
		newOpenCmd(opts),
	)
	root.AddCommand(newOpCmds(opts)...)
	root.AddCommand(
		newMoveCmd(opts),
		newResizeCmd(opts),
		newAppsCmd(opts),
		newLaunchCmd(opts),
		newArrangeCmd(opts),
		newReloadCmd(opts),
		newWatchCmd(opts),
		newConfigCmd(opts),
		newTUICmd(opts),
		newMCPCmd(opts),
	)
	return root
}

func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err)

	var uerr *usageError
	if errors.As(err, &uerr) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintln(stderr, "Run 'deskwm --help' for usage.")
		return 2
	}
	return 1
}
