package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/wm"
)

// openForm picks an app from the catalog and an optional title override.
// It is held by pointer so the huh fields keep stable value pointers across
// model copies.
type openForm struct {
	form  *huh.Form
	apps  []ipc.AppInfo
	app   string
	title string
}

func newOpenForm(apps []ipc.AppInfo, width int) *openForm {
	f := &openForm{apps: apps}
	if len(apps) > 0 {
		f.app = apps[0].ID
	}

	opts := make([]huh.Option[string], 0, len(apps))
	for _, app := range apps {
		label := fmt.Sprintf("%s (%s)", app.Title, app.ID)
		if app.Open {
			label += " • open"
		}
		opts = append(opts, huh.NewOption(label, app.ID))
	}

	w := width - 4
	if w < 40 {
		w = 40
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("app").
				Title("App").
				Description("Launching an open app brings it to the front").
				Options(opts...).
				Value(&f.app),

			huh.NewInput().
				Key("title").
				Title("Title").
				Description("Leave empty for the app's title").
				Value(&f.title),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	return f
}

// submit opens the chosen app. A title override opens the app's window
// directly with the catalog size; otherwise the daemon's launch path applies
// the full catalog entry.
func (f *openForm) submit(ctl Controller) (wm.Result, error) {
	if f.app == "" {
		return wm.Result{}, fmt.Errorf("no app selected")
	}
	title := strings.TrimSpace(f.title)
	if title == "" {
		return ctl.Launch(f.app)
	}

	spec := wm.OpenSpec{ID: f.app, Title: title}
	for _, app := range f.apps {
		if app.ID == f.app && app.Width > 0 && app.Height > 0 {
			spec.Size = &wm.Size{Width: app.Width, Height: app.Height}
		}
	}
	return ctl.Apply(wm.OpenIntent(spec))
}
