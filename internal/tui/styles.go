package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/deskwm/internal/wm"
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("250")).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("238"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	minimizedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	previewStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("111"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Padding(0, 1)

	helpBarStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

func renderStatusBar(connected bool, snap wm.Snapshot, width int) string {
	var status string
	if connected {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		parts := []string{
			dot + " daemon connected",
			fmt.Sprintf("windows:%d", len(snap.Windows)),
			fmt.Sprintf("top_z:%d", snap.TopZIndex),
		}
		if w, ok := snap.Focused(); ok {
			parts = append(parts, "focused:"+w.Title)
		}
		status = strings.Join(parts, "  ")
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("●")
		status = dot + " daemon disconnected (press q to quit)"
	}
	return statusBarStyle.Width(width).Render(status)
}

// windowBadges summarizes a window's state flags for the list.
func windowBadges(w wm.Window) string {
	var badges []string
	if w.IsFocused {
		badges = append(badges, "focus")
	}
	if w.IsMinimized {
		badges = append(badges, "min")
	}
	if w.IsMaximized {
		badges = append(badges, "max")
	}
	if len(badges) == 0 {
		return ""
	}
	return "[" + strings.Join(badges, ",") + "]"
}

func renderWindowRow(w wm.Window, selected bool, width int) string {
	marker := "  "
	if selected {
		marker = "> "
	}
	title := w.Title
	if title == "" {
		title = w.ID
	}
	line := marker + title
	if b := windowBadges(w); b != "" {
		line += " " + badgeStyle.Render(b)
	}

	style := rowStyle
	switch {
	case selected:
		style = selectedRowStyle
	case w.IsMinimized:
		style = minimizedRowStyle
	}
	return style.Width(width).MaxWidth(width).Render(line)
}
