package placement

import (
	"fmt"
	"math"

	"github.com/1broseidon/deskwm/internal/wm"
)

// Rect represents a window position and size
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Mode selects how Arrange lays out visible windows.
type Mode string

const (
	ModeGrid    Mode = "grid"
	ModeCascade Mode = "cascade"
)

// ParseMode validates an arrange mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeGrid, ModeCascade:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown arrange mode %q (want grid or cascade)", s)
	}
}

// CalculateGrid determines the optimal grid dimensions for the given number of windows
func CalculateGrid(numWindows int) (rows, cols int) {
	if numWindows == 0 {
		return 0, 0
	}

	// Columns first (ceiling of square root), then as many rows as needed.
	cols = int(math.Ceil(math.Sqrt(float64(numWindows))))
	rows = int(math.Ceil(float64(numWindows) / float64(cols)))

	return rows, cols
}

// CalculatePositions computes window positions for a grid layout with gaps
func CalculatePositions(numWindows int, area Rect, gapSize int) []Rect {
	if numWindows == 0 {
		return nil
	}

	rows, cols := CalculateGrid(numWindows)

	// One gap before each column/row and one after the last.
	cellWidth := (area.Width - (cols+1)*gapSize) / cols
	cellHeight := (area.Height - (rows+1)*gapSize) / rows

	positions := make([]Rect, numWindows)
	for i := 0; i < numWindows; i++ {
		row := i / cols
		col := i % cols

		positions[i] = Rect{
			X:      area.X + gapSize + col*(cellWidth+gapSize),
			Y:      area.Y + gapSize + row*(cellHeight+gapSize),
			Width:  cellWidth,
			Height: cellHeight,
		}
	}

	return positions
}

// Arrange computes move and resize intents that lay out the visible windows
// bottom to top. Minimized windows keep their bounds. Applying the intents
// never changes focus or z-order.
func Arrange(mode Mode, windows []wm.Window, area Rect, gapSize int, cascade Cascade) ([]wm.Intent, error) {
	var visible []wm.Window
	for _, w := range (wm.Snapshot{Windows: windows}).Stack() {
		if w.Visible() {
			visible = append(visible, w)
		}
	}
	if len(visible) == 0 {
		return nil, nil
	}

	var rects []Rect
	switch mode {
	case ModeGrid:
		rects = CalculatePositions(len(visible), area, gapSize)
		for _, r := range rects {
			if r.Width <= 0 || r.Height <= 0 {
				return nil, fmt.Errorf("desktop %dx%d too small to tile %d windows with gap %d", area.Width, area.Height, len(visible), gapSize)
			}
		}
	case ModeCascade:
		rects = make([]Rect, len(visible))
		for i, w := range visible {
			p := cascade.At(i)
			rects[i] = Rect{X: p.X, Y: p.Y, Width: w.Width, Height: w.Height}
		}
	default:
		return nil, fmt.Errorf("unknown arrange mode %q", mode)
	}

	intents := make([]wm.Intent, 0, 2*len(visible))
	for i, w := range visible {
		r := rects[i]
		intents = append(intents,
			wm.MoveIntent(w.ID, r.X, r.Y),
			wm.ResizeIntent(w.ID, r.Width, r.Height),
		)
	}
	return intents, nil
}
