package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2/lang"
	"github.com/facebookincubator/go-belt/tool/logger"

	"screenshot-grim/src/grim"
	"screenshot-grim/src/loader"
	"screenshot-grim/src/screenshot"
)

// ErrCancelled is returned when the user dismissed the region selection.
// It is not a failure.
var ErrCancelled = errors.New("selection cancelled")

// nowFunc is replaced in tests.
var nowFunc = time.Now

// MaxDelay is the longest pre-capture delay a Request may ask for.
const MaxDelay = 20 * time.Second

type Mode string

const (
	ModeRegion    Mode = "region"
	ModeOutput    Mode = "output"
	ModeRectangle Mode = "rectangle"
)

// ParseMode normalises a user supplied mode name. Unknown names are kept
// as-is so that dispatch can reject them.
func ParseMode(s string) Mode {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "":
		return ModeRegion
	case "rect":
		return ModeRectangle
	default:
		return Mode(v)
	}
}

// ValidationError is a mistake in the request itself. It is detected before
// any subprocess runs.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Request describes one screenshot.
type Request struct {
	Mode Mode
	// Output is the Wayland output captured in ModeOutput.
	Output string
	// Rect holds inclusive corner coordinates for ModeRectangle.
	Rect           screenshot.Rectangle
	IncludePointer bool
	Delay          time.Duration

	// Type is grim's encoding; empty means PPM.
	Type    string
	Level   *int
	Quality *int
	Scale   *float64
}

// Validate checks the parts of the request that do not depend on the mode.
func (r Request) Validate() error {
	if r.Delay < 0 || r.Delay > MaxDelay {
		return &ValidationError{Reason: lang.L("screenshot delay must be between 0 and {{.Max}} seconds", map[string]any{"Max": int(MaxDelay/time.Second)})}
	}
	if err := r.encoding().Validate(); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	return nil
}

func (r Request) encoding() grim.Options {
	typ := r.Type
	if typ == "" {
		typ = grim.TypePPM
	}
	return grim.Options{
		IncludePointer: r.IncludePointer,
		Level:          r.Level,
		Quality:        r.Quality,
		Scale:          r.Scale,
		Type:           typ,
	}
}

// Selector lets the user pick a region and returns its geometry, or "" if
// the selection was dismissed.
type Selector interface {
	Select(ctx context.Context) (string, error)
}

// Capturer writes a screenshot described by opts to sink.
type Capturer interface {
	Capture(ctx context.Context, sink io.Writer, opts grim.Options) error
}

// Resolve turns a request into grim options. Only region mode runs the
// selector; the other modes are resolved without starting any process.
func Resolve(ctx context.Context, req Request, sel Selector) (grim.Options, error) {
	opts := req.encoding()

	switch req.Mode {
	case ModeRegion:
		if sel == nil {
			return grim.Options{}, errors.New("selector is required for region mode")
		}
		geometry, err := sel.Select(ctx)
		if err != nil {
			return grim.Options{}, err
		}
		if geometry == "" {
			return grim.Options{}, ErrCancelled
		}
		// grim gets slurp's geometry verbatim; parsing is only for the log.
		if r, err := screenshot.ParseGeometry(geometry); err == nil {
			logger.Debugf(ctx, "selected %dx%d at %d,%d", r.Width, r.Height, r.X, r.Y)
		} else {
			logger.Warnf(ctx, "unexpected selection %q: %v", geometry, err)
		}
		opts.Region = geometry

	case ModeOutput:
		if req.Output == "" {
			return grim.Options{}, &ValidationError{Reason: lang.L("missing output name")}
		}
		opts.Output = req.Output

	case ModeRectangle:
		if err := req.Rect.Validate(); err != nil {
			return grim.Options{}, &ValidationError{Reason: lang.L("invalid rectangle: {{.Reason}}", map[string]any{"Reason": err.Error()})}
		}
		opts.Region = req.Rect.Region().Geometry()

	default:
		return grim.Options{}, &ValidationError{Reason: lang.L("unknown mode: {{.Mode}}", map[string]any{"Mode": strconv.Quote(string(req.Mode))})}
	}

	logger.Debugf(ctx, "resolved %s request to grim %v", req.Mode, opts.Args())
	return opts, nil
}

// Options wires the collaborators of a session.
type Options struct {
	Selector Selector
	Capturer Capturer
	Targets  []Target

	// TempDir is where the capture is written; empty means os.TempDir().
	TempDir string

	// Sleep waits before dispatch. It defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
	// Load decodes the captured file. It defaults to loader.Load.
	Load func(path string) (*loader.Image, error)
}

type Result struct {
	Mode     Mode
	Geometry string
	Output   string
	Width    int
	Height   int
	Format   string
	Duration time.Duration
}

// Execute takes one screenshot and hands it to every target. The captured
// file is always removed before Execute returns.
func Execute(ctx context.Context, req Request, opts Options) (Result, error) {
	started := nowFunc()

	shot, err := Shoot(ctx, req, opts)
	if err != nil {
		notifyFailure(ctx, opts.Targets, err)
		return Result{}, err
	}
	defer func() {
		if err := shot.Dispose(); err != nil {
			logger.Warnf(ctx, "failed to remove %s: %v", shot.Path, err)
		}
	}()

	load := opts.Load
	if load == nil {
		load = loader.Load
	}
	img, err := load(shot.Path)
	if err != nil {
		notifyFailure(ctx, opts.Targets, err)
		return Result{}, err
	}

	for _, target := range opts.Targets {
		if err := target.OnSuccess(ctx, img); err != nil {
			err = fmt.Errorf("delivery failed: %w", err)
			notifyFailure(ctx, opts.Targets, err)
			return Result{}, err
		}
	}

	bounds := img.Bounds()
	res := Result{
		Mode:     shot.Mode,
		Geometry: shot.Geometry,
		Output:   shot.Output,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Format:   img.Format,
		Duration: nowFunc().Sub(started),
	}
	logger.Infof(ctx, "captured %dx%d %s image in %v", res.Width, res.Height, res.Format, res.Duration)
	return res, nil
}

func notifyFailure(ctx context.Context, targets []Target, err error) {
	for _, target := range targets {
		if ferr := target.OnFailure(ctx, err); ferr != nil {
			logger.Warnf(ctx, "target failure handler: %v", ferr)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
