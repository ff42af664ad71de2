// Package grim runs the grim screenshot utility and streams its output to a sink.
package grim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
)

const (
	// DefaultPath is the grim binary looked up in PATH.
	DefaultPath = "grim"

	// DefaultTimeout bounds how long grim may run before it is killed. grim hangs
	// when the compositor never answers the screencopy request.
	DefaultTimeout = 15 * time.Second
)

// Image encodings grim can write.
const (
	TypePPM  = "ppm"
	TypePNG  = "png"
	TypeJPEG = "jpeg"
)

// Options select what grim captures and how it encodes it. Zero values leave
// the corresponding flag out.
type Options struct {
	IncludePointer bool
	// Level is the PNG compression level (0-9).
	Level *int
	// Output is the name of a Wayland output, e.g. "DP-1".
	Output string
	// Quality is the JPEG quality (0-100).
	Quality *int
	// Region is a "x,y WxH" geometry.
	Region string
	Scale  *float64
	Type   string
}

// Args returns grim's command line (without the program name). Output always goes to stdout.
func (o Options) Args() []string {
	var args []string
	if o.IncludePointer {
		args = append(args, "-c")
	}
	if o.Level != nil {
		args = append(args, "-l", strconv.Itoa(*o.Level))
	}
	if o.Output != "" {
		args = append(args, "-o", o.Output)
	}
	if o.Quality != nil {
		args = append(args, "-q", strconv.Itoa(*o.Quality))
	}
	if o.Region != "" {
		args = append(args, "-g", o.Region)
	}
	if o.Scale != nil {
		args = append(args, "-s", strconv.FormatFloat(*o.Scale, 'g', -1, 64))
	}
	if o.Type != "" {
		args = append(args, "-t", o.Type)
	}
	return append(args, "-")
}

// Validate checks the encoding parameters against the ranges grim accepts.
func (o Options) Validate() error {
	switch o.Type {
	case "", TypePPM, TypePNG, TypeJPEG:
	default:
		return fmt.Errorf("unsupported image type %q", o.Type)
	}
	if o.Level != nil && (*o.Level < 0 || *o.Level > 9) {
		return fmt.Errorf("compression level %d out of range 0-9", *o.Level)
	}
	if o.Quality != nil && (*o.Quality < 0 || *o.Quality > 100) {
		return fmt.Errorf("quality %d out of range 0-100", *o.Quality)
	}
	if o.Scale != nil && *o.Scale <= 0 {
		return fmt.Errorf("scale factor must be positive, got %g", *o.Scale)
	}
	return nil
}

// CaptureError reports a grim failure. Stderr holds whatever grim printed,
// including output produced before it was killed.
type CaptureError struct {
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *CaptureError) Error() string {
	var sb strings.Builder
	sb.WriteString("capture failed")
	if e.TimedOut {
		sb.WriteString(" (timed out)")
	}
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg != "" {
		sb.WriteString(": ")
		sb.WriteString(msg)
	}
	return sb.String()
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Grim runs the capture tool.
type Grim struct {
	Path    string
	Timeout time.Duration
}

// New returns a Grim using the given binary, or grim from PATH when empty.
func New(path string) *Grim {
	if path == "" {
		path = DefaultPath
	}
	return &Grim{Path: path, Timeout: DefaultTimeout}
}

// Capture runs grim with opts and writes the image to sink.
//
// grim gets Timeout to finish. After that it is killed and then waited for
// without a bound, so the diagnostics written so far can be collected and
// the process is fully reaped before Capture returns. A timeout always fails
// the capture, even if grim was about to finish.
func (g *Grim) Capture(ctx context.Context, sink io.Writer, opts Options) error {
	path := g.Path
	if path == "" {
		path = DefaultPath
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	args := opts.Args()
	cmd := exec.Command(path, args...)
	var stderr bytes.Buffer
	cmd.Stdout = sink
	cmd.Stderr = &stderr
	setProcessGroup(cmd)

	logger.Debugf(ctx, "running %s %s", path, strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return &CaptureError{Err: fmt.Errorf("unable to start %s: %w", path, err)}
	}

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- cmd.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var err error
	timedOut := false
	select {
	case err = <-waitCh:
	case <-timer.C:
		timedOut = true
		logger.Warnf(ctx, "%s did not finish within %v, killing it", path, timeout)
		if killErr := kill(cmd); killErr != nil {
			logger.Errorf(ctx, "unable to kill %s: %v", path, killErr)
		}
		err = <-waitCh
	}

	diag := decode(stderr.Bytes())
	if err == nil && !timedOut {
		if diag != "" {
			logger.Debugf(ctx, "%s stderr: %q", path, diag)
		}
		return nil
	}
	if err == nil {
		// grim exited cleanly in the window between the deadline and the kill.
		err = errors.New("deadline exceeded")
	}
	return &CaptureError{Stderr: diag, TimedOut: timedOut, Err: err}
}

func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
