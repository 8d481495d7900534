package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/wm"
)

// Controller is what the taskbar drives. ipc.Client satisfies it.
type Controller interface {
	Apply(in wm.Intent) (wm.Result, error)
	ListApps() (*ipc.AppsData, error)
	Launch(app string) (wm.Result, error)
	Arrange(mode string) (*ipc.ArrangeData, error)
}

var _ Controller = (*ipc.Client)(nil)

// Run opens the taskbar against a running daemon and blocks until the user
// quits or ctx is done. desktop is the size the preview scales from.
func Run(ctx context.Context, client *ipc.Client, desktop wm.Size) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := client.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer stream.Close()

	m := newModel(client, stream.Snapshot, stream.Events, desktop)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return stream.Err()
}
