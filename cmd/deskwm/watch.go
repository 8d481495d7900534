package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/deskwm/internal/wm"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		jsonOut bool
		count   int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream window events as they happen",
		Long: `Stream window events from the daemon until interrupted.

Plain output prints one line per event. --json prints the starting snapshot
and then one event object per line, each carrying the full window list.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 0 {
				return usagef("--count must not be negative")
			}
			client, err := opts.client()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stream, err := client.Subscribe(ctx)
			if err != nil {
				return err
			}
			defer stream.Close()

			enc := json.NewEncoder(opts.stdout)
			if jsonOut {
				if err := enc.Encode(stream.Snapshot); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(opts.stdout, "watching %d windows (top_z_index %d)\n",
					len(stream.Snapshot.Windows), stream.Snapshot.TopZIndex)
			}

			seen := 0
			for ev := range stream.Events {
				if jsonOut {
					if err := enc.Encode(ev); err != nil {
						return err
					}
				} else {
					fmt.Fprintln(opts.stdout, formatEvent(ev))
				}
				seen++
				if count > 0 && seen >= count {
					return nil
				}
			}
			return stream.Err()
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output newline-delimited JSON")
	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many events (0: until interrupted)")
	return cmd
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func formatEvent(ev wm.Event) string {
	line := fmt.Sprintf("#%d %-8s %s", ev.Seq, ev.Op, ev.WindowID)
	snap := ev.Snapshot()
	if w, ok := snap.Find(ev.WindowID); ok {
		line += fmt.Sprintf("  %dx%d@%d,%d z=%d %s", w.Width, w.Height, w.X, w.Y, w.ZIndex, windowState(w))
		if w.IsFocused {
			line += " focused"
		}
	}
	return line + fmt.Sprintf("  (windows=%d top_z=%d)", len(snap.Windows), snap.TopZIndex)
}
