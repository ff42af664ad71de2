// Package gui shows the interactive capture dialog.
package gui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/lang"
	"fyne.io/fyne/v2/widget"

	"screenshot-grim/src/session"
)

const appID = "screenshot-grim"

var modeLabels = []string{
	string(session.ModeRegion),
	string(session.ModeOutput),
	string(session.ModeRectangle),
}

// captureForm holds the widgets of the dialog, one per request field.
type captureForm struct {
	mode           *widget.Select
	output         *widget.Entry
	x1, y1, x2, y2 *widget.Entry
	includePointer *widget.Check
	delay          *widget.Slider
	delayLabel     *widget.Label
	form           *widget.Form

	base session.Request
}

func newCaptureForm(req session.Request) *captureForm {
	f := &captureForm{base: req}

	f.output = widget.NewEntry()
	f.output.SetPlaceHolder(lang.L("Wayland output name, e.g. DP-1"))
	f.output.SetText(req.Output)

	f.x1 = intEntry(req.Rect.X1)
	f.y1 = intEntry(req.Rect.Y1)
	f.x2 = intEntry(req.Rect.X2)
	f.y2 = intEntry(req.Rect.Y2)

	f.mode = widget.NewSelect(modeLabels, func(string) { f.updateEnabled() })

	f.includePointer = widget.NewCheck(lang.L("Include mouse pointer"), nil)
	f.includePointer.SetChecked(req.IncludePointer)

	f.delayLabel = widget.NewLabel("")
	f.delay = widget.NewSlider(0, session.MaxDelay.Seconds())
	f.delay.Step = 1
	f.delay.OnChanged = func(v float64) {
		f.delayLabel.SetText(lang.L("{{.Seconds}} s", map[string]any{"Seconds": int(v)}))
	}
	f.delay.SetValue(req.Delay.Seconds())
	f.delay.OnChanged(f.delay.Value)

	mode := req.Mode
	if mode == "" {
		mode = session.ModeRegion
	}
	f.mode.SetSelected(string(mode))

	f.form = &widget.Form{
		Items: []*widget.FormItem{
			widget.NewFormItem(lang.L("Shoot area"), f.mode),
			widget.NewFormItem(lang.L("Wayland output"), f.output),
			widget.NewFormItem(lang.L("Left coordinate x1"), f.x1),
			widget.NewFormItem(lang.L("Top coordinate y1"), f.y1),
			widget.NewFormItem(lang.L("Right coordinate x2"), f.x2),
			widget.NewFormItem(lang.L("Bottom coordinate y2"), f.y2),
			widget.NewFormItem("", f.includePointer),
			widget.NewFormItem(lang.L("Screenshot delay"), container.NewBorder(nil, nil, nil, f.delayLabel, f.delay)),
		},
		SubmitText: lang.L("Snap"),
	}
	return f
}

func intEntry(v int) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(strconv.Itoa(v))
	e.Validator = func(s string) error {
		_, err := strconv.Atoi(strings.TrimSpace(s))
		return err
	}
	return e
}

// updateEnabled greys out the fields the selected mode ignores.
func (f *captureForm) updateEnabled() {
	mode := session.Mode(f.mode.Selected)
	setEnabled(f.output, mode == session.ModeOutput)
	for _, e := range []*widget.Entry{f.x1, f.y1, f.x2, f.y2} {
		setEnabled(e, mode == session.ModeRectangle)
	}
}

func setEnabled(w fyne.Disableable, enabled bool) {
	if enabled {
		w.Enable()
	} else {
		w.Disable()
	}
}

// request reads the widgets back into a Request. Fields the dialog does not
// show are taken from the request the form was created with.
func (f *captureForm) request() (session.Request, error) {
	req := f.base
	req.Mode = session.ParseMode(f.mode.Selected)
	req.Output = strings.TrimSpace(f.output.Text)
	req.IncludePointer = f.includePointer.Checked
	req.Delay = time.Duration(f.delay.Value) * time.Second

	coords := []struct {
		name  string
		entry *widget.Entry
		dst   *int
	}{
		{"x1", f.x1, &req.Rect.X1},
		{"y1", f.y1, &req.Rect.Y1},
		{"x2", f.x2, &req.Rect.X2},
		{"y2", f.y2, &req.Rect.Y2},
	}
	for _, c := range coords {
		v, err := strconv.Atoi(strings.TrimSpace(c.entry.Text))
		if err != nil {
			return session.Request{}, fmt.Errorf("%s: %w", lang.L("{{.Name}} must be an integer", map[string]any{"Name": c.name}), err)
		}
		*c.dst = v
	}
	return req, nil
}

// ShowCaptureDialog lets the user edit req. It blocks until the dialog is
// submitted or closed and must be called from the main goroutine. ok is
// false when the user closed the dialog.
func ShowCaptureDialog(req session.Request) (session.Request, bool) {
	a := app.NewWithID(appID)
	w := a.NewWindow(lang.L("Screenshot"))

	result, ok := bindDialog(a, w, newCaptureForm(req))
	w.ShowAndRun()
	return *result, *ok
}

func bindDialog(a fyne.App, w fyne.Window, f *captureForm) (*session.Request, *bool) {
	result := &session.Request{}
	*result = f.base
	ok := new(bool)

	f.form.OnSubmit = func() {
		edited, err := f.request()
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		*result = edited
		*ok = true
		w.Close()
	}
	f.form.OnCancel = func() {
		w.Close()
	}
	w.SetOnClosed(func() {
		a.Quit()
	})

	w.SetContent(container.NewPadded(f.form))
	w.Resize(fyne.NewSize(420, 0))
	return result, ok
}
