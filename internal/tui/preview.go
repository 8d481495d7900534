package tui

import (
	"strings"

	"github.com/1broseidon/deskwm/internal/wm"
)

type frameRunes struct {
	h, v, tl, tr, bl, br rune
}

var (
	normalFrame  = frameRunes{'─', '│', '┌', '┐', '└', '┘'}
	focusedFrame = frameRunes{'━', '┃', '┏', '┓', '┗', '┛'}
)

// renderDesktopPreview draws the desktop as an ASCII canvas. Windows are
// painted bottom to top so higher windows cover lower ones; minimized windows
// are not drawn.
func renderDesktopPreview(snap wm.Snapshot, desktop wm.Size, width, height int) []string {
	if width < 5 || height < 3 {
		return emptyCanvas(width, height)
	}
	if desktop.Width <= 0 || desktop.Height <= 0 {
		desktop = wm.Size{Width: 1920, Height: 1080}
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for _, w := range snap.Stack() {
		if w.IsMinimized {
			continue
		}
		x, y, ww, wh := w.X, w.Y, w.Width, w.Height
		if w.IsMaximized {
			x, y, ww, wh = 0, 0, desktop.Width, desktop.Height
		}
		drawWindow(canvas, x, y, ww, wh, w.Title, w.IsFocused, desktop, width, height)
	}

	drawBorder(canvas, width, height)

	lines := make([]string, height)
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return lines
}

func drawWindow(canvas [][]rune, x, y, w, h int, title string, focused bool, desktop wm.Size, canvasW, canvasH int) {
	x1 := x * canvasW / desktop.Width
	y1 := y * canvasH / desktop.Height
	x2 := (x + w) * canvasW / desktop.Width
	y2 := (y + h) * canvasH / desktop.Height

	// Keep off the desktop border.
	if x1 < 1 {
		x1 = 1
	}
	if y1 < 1 {
		y1 = 1
	}
	if x2 >= canvasW-1 {
		x2 = canvasW - 2
	}
	if y2 >= canvasH-1 {
		y2 = canvasH - 2
	}
	if x2 <= x1 || y2 <= y1 {
		return
	}

	frame := normalFrame
	if focused {
		frame = focusedFrame
	}

	for row := y1; row <= y2; row++ {
		for col := x1; col <= x2; col++ {
			canvas[row][col] = ' '
		}
	}
	for col := x1; col <= x2; col++ {
		canvas[y1][col] = frame.h
		canvas[y2][col] = frame.h
	}
	for row := y1; row <= y2; row++ {
		canvas[row][x1] = frame.v
		canvas[row][x2] = frame.v
	}
	canvas[y1][x1] = frame.tl
	canvas[y1][x2] = frame.tr
	canvas[y2][x1] = frame.bl
	canvas[y2][x2] = frame.br

	// Title goes on the top edge, clipped to the frame.
	col := x1 + 1
	for _, r := range title {
		if col >= x2 {
			break
		}
		canvas[y1][col] = r
		col++
	}
}

func drawBorder(canvas [][]rune, width, height int) {
	for x := 0; x < width; x++ {
		canvas[0][x] = '═'
		canvas[height-1][x] = '═'
	}
	for y := 0; y < height; y++ {
		canvas[y][0] = '║'
		canvas[y][width-1] = '║'
	}
	canvas[0][0] = '╔'
	canvas[0][width-1] = '╗'
	canvas[height-1][0] = '╚'
	canvas[height-1][width-1] = '╝'
}

func emptyCanvas(width, height int) []string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	lines := make([]string, height)
	empty := strings.Repeat(" ", width)
	for i := range lines {
		lines[i] = empty
	}
	return lines
}
