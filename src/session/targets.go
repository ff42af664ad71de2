package session

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2/lang"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spakin/netpbm"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"screenshot-grim/src/clipboard"
	"screenshot-grim/src/loader"
	"screenshot-grim/src/notification"
)

// Target receives the outcome of a session.
type Target interface {
	OnSuccess(ctx context.Context, img *loader.Image) error
	OnFailure(ctx context.Context, err error) error
}

// FileTarget saves the screenshot. The encoding follows the file extension;
// an unknown extension is saved as PNG.
type FileTarget struct {
	Path string
	// Saved is set to the written path after a successful save.
	Saved string
}

func (t *FileTarget) OnSuccess(ctx context.Context, img *loader.Image) error {
	path := t.Path
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, defaultFileName())
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := encode(f, img, filepath.Ext(path)); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	t.Saved = path
	logger.Infof(ctx, "saved screenshot to %s", path)
	return nil
}

func (t *FileTarget) OnFailure(ctx context.Context, err error) error {
	return nil
}

func encode(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case ".ppm", ".pnm":
		return netpbm.Encode(w, img, &netpbm.EncodeOptions{Format: netpbm.PPM, MaxValue: 255})
	default:
		return png.Encode(w, img)
	}
}

// ClipboardTarget copies the screenshot to the clipboard as PNG.
type ClipboardTarget struct{}

func (ClipboardTarget) OnSuccess(ctx context.Context, img *loader.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	if err := clipboard.WriteImage(buf.Bytes()); err != nil {
		return fmt.Errorf("clipboard error: %w", err)
	}
	logger.Debugf(ctx, "copied %d bytes of PNG to the clipboard", buf.Len())
	return nil
}

func (ClipboardTarget) OnFailure(ctx context.Context, err error) error {
	return nil
}

// StdoutTarget writes the screenshot as PNG to Writer.
type StdoutTarget struct {
	Writer io.Writer
}

func (t StdoutTarget) OnSuccess(ctx context.Context, img *loader.Image) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	return png.Encode(w, img)
}

func (t StdoutTarget) OnFailure(ctx context.Context, err error) error {
	return nil
}

// NotifyTarget shows a desktop notification for the outcome. Cancellation
// is not reported.
type NotifyTarget struct {
	// Describe renders the success message; nil uses the image size.
	Describe func(img *loader.Image) string
}

func (t NotifyTarget) OnSuccess(ctx context.Context, img *loader.Image) error {
	msg := lang.L("Captured {{.Width}}x{{.Height}}", map[string]any{"Width": img.Bounds().Dx(), "Height": img.Bounds().Dy()})
	if t.Describe != nil {
		msg = t.Describe(img)
	}
	notification.ShowResult(ctx, msg)
	return nil
}

func (t NotifyTarget) OnFailure(ctx context.Context, err error) error {
	if StatusOf(err) == StatusCancel {
		return nil
	}
	notification.ShowError(ctx, lang.L("Screenshot failed"), err.Error())
	return nil
}

func defaultFileName() string {
	return "screenshot-" + nowFunc().Format("20060102-150405") + ".png"
}
