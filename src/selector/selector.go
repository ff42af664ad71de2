// Package selector asks the user to draw a screen region with slurp.
package selector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// DefaultPath is the slurp binary looked up in PATH.
const DefaultPath = "slurp"

// SelectionError reports a slurp failure together with its diagnostics.
type SelectionError struct {
	Stderr string
	Err    error
}

func (e *SelectionError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "unknown error"
	}
	return "region selection failed: " + msg
}

func (e *SelectionError) Unwrap() error { return e.Err }

// Slurp runs the interactive selection tool.
type Slurp struct {
	Path string
}

// New returns a selector using the given binary, or slurp from PATH when empty.
func New(path string) *Slurp {
	if path == "" {
		path = DefaultPath
	}
	return &Slurp{Path: path}
}

// Select blocks until the user has drawn a region (or pressed Esc) and returns
// its "x,y WxH" geometry. An empty string means the user cancelled.
//
// There is no timeout: the selection is paced by the user.
func (s *Slurp) Select(ctx context.Context) (string, error) {
	path := s.Path
	if path == "" {
		path = DefaultPath
	}

	cmd := exec.Command(path, "-d")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debugf(ctx, "running %s -d", path)
	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			err = fmt.Errorf("unable to run %s: %w", path, err)
		}
		return "", &SelectionError{Stderr: decode(stderr.Bytes()), Err: err}
	}

	geometry := strings.TrimRight(decode(stdout.Bytes()), " \t\r\n")
	logger.Debugf(ctx, "%s returned %q", path, geometry)
	return geometry, nil
}

func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
