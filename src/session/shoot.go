package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"

	"screenshot-grim/src/grim"
)

// Shot is a captured image file. The caller owns it and must call Dispose.
type Shot struct {
	Path     string
	Mode     Mode
	Geometry string
	Output   string

	dir string
}

// Dispose removes the captured file and its directory.
func (s *Shot) Dispose() error {
	if s == nil || s.dir == "" {
		return nil
	}
	return os.RemoveAll(s.dir)
}

// Shoot waits for the requested delay, resolves the request and captures
// it into a fresh temporary file. Nothing is left on disk when it fails.
func Shoot(ctx context.Context, req Request, opts Options) (*Shot, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if opts.Capturer == nil {
		return nil, errors.New("capturer is required")
	}

	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	if req.Delay > 0 {
		logger.Debugf(ctx, "waiting %v before the screenshot", req.Delay)
		if err := sleep(ctx, req.Delay); err != nil {
			return nil, err
		}
	}

	grimOpts, err := Resolve(ctx, req, opts.Selector)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(opts.TempDir, "screenshot-grim-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary directory: %w", err)
	}
	path := filepath.Join(dir, "screenshot"+suffix(grimOpts.Type))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, cleanup(dir, fmt.Errorf("failed to create %s: %w", path, err))
	}

	captureErr := opts.Capturer.Capture(ctx, f, grimOpts)
	closeErr := f.Close()
	if captureErr != nil {
		return nil, cleanup(dir, captureErr, closeErr)
	}
	if closeErr != nil {
		return nil, cleanup(dir, fmt.Errorf("failed to write %s: %w", path, closeErr))
	}

	return &Shot{
		Path:     path,
		Mode:     req.Mode,
		Geometry: grimOpts.Region,
		Output:   grimOpts.Output,
		dir:      dir,
	}, nil
}

// cleanup removes dir and returns cause. The first error keeps its type so
// callers can still match it with errors.As.
func cleanup(dir string, cause error, more ...error) error {
	var extra *multierror.Error
	for _, err := range more {
		if err != nil {
			extra = multierror.Append(extra, err)
		}
	}
	if err := os.RemoveAll(dir); err != nil {
		extra = multierror.Append(extra, fmt.Errorf("failed to remove %s: %w", dir, err))
	}
	if extra.ErrorOrNil() == nil {
		return cause
	}
	return multierror.Append(cause, extra.Errors...)
}

func suffix(typ string) string {
	switch typ {
	case grim.TypePNG:
		return ".png"
	case grim.TypeJPEG:
		return ".jpg"
	default:
		return ".ppm"
	}
}
