package notification

import (
	"context"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/lang"
	"github.com/facebookincubator/go-belt/tool/logger"
)

const (
	appID      = "screenshot-grim"
	maxBodyLen = 200
)

var enabled atomic.Bool

// SetEnabled turns desktop notifications on or off. When off, messages are only logged.
func SetEnabled(v bool) { enabled.Store(v) }

// Enabled reports whether desktop notifications are on.
func Enabled() bool { return enabled.Load() }

// ShowResult tells the user where the screenshot went.
func ShowResult(ctx context.Context, text string) {
	logger.Infof(ctx, "Screenshot: %s", text)
	show(ctx, lang.L("Screenshot"), text)
}

// ShowError reports a failed screenshot. Callers must not use it for a
// cancelled selection.
func ShowError(ctx context.Context, title, message string) {
	logger.Errorf(ctx, "%s: %s", title, message)
	show(ctx, title, message)
}

func show(ctx context.Context, title, body string) {
	if !Enabled() {
		return
	}
	logger.Debugf(ctx, "SendNotification")
	defer logger.Debugf(ctx, "/SendNotification")
	send(fyne.NewNotification(title, truncate(body, maxBodyLen)))
}

// truncate cuts s to at most n bytes without splitting a character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

var (
	appOnce sync.Once
	fyneApp fyne.App
)

// currentApp returns the running fyne app, or starts one that is only used
// to reach the notification service.
func currentApp() fyne.App {
	appOnce.Do(func() {
		fyneApp = fyne.CurrentApp()
		if fyneApp == nil {
			fyneApp = app.NewWithID(appID)
		}
	})
	return fyneApp
}

// send is replaced in tests.
var send = func(n *fyne.Notification) {
	currentApp().SendNotification(n)
}
