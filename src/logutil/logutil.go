package logutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/sirupsen/logrus"
)

const (
	logFileName  = "screenshot_grim.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

type Options struct {
	Level string
	// EnableFileLogging additionally writes to a size-rotated file in LogDir.
	EnableFileLogging bool
	LogDir            string
	Output            io.Writer
}

// ParseLevel accepts the go-belt level names (trace, debug, info, warning, error, ...).
func ParseLevel(s string) (logger.Level, error) {
	var lvl logger.Level
	if s == "" {
		return logger.LevelWarning, nil
	}
	if err := lvl.Set(s); err != nil {
		return logger.LevelUndefined, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// Setup builds the process logger, installs it as the default and attaches it to ctx.
func Setup(ctx context.Context, opts Options) (context.Context, logger.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return ctx, nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	ll := xlogrus.DefaultLogrusLogger()
	ll.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ll.SetOutput(out)

	if opts.EnableFileLogging {
		w, err := newRotatingWriter(filepath.Join(opts.LogDir, logFileName))
		if err != nil {
			fmt.Fprintf(out, "Failed to open log file: %v\n", err)
		} else {
			ll.SetOutput(io.MultiWriter(out, w))
		}
	}

	l := xlogrus.New(ll).WithLevel(lvl)
	logrus.SetLevel(xlogrus.LevelToLogrus(lvl))
	logger.Default = func() logger.Logger {
		return l
	}
	return logger.CtxWithLogger(ctx, l), l, nil
}

type rotatingWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func newRotatingWriter(path string) (*rotatingWriter, error) {
	rotateIfNeeded(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	return &rotatingWriter{path: path, f: f}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		rotate(w.path)
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func rotateIfNeeded(path string) {
	if st, err := os.Stat(path); err == nil && st.Size() > maxSizeBytes {
		rotate(path)
	}
}

// rotate shifts path -> .1 -> .2 -> .3; the oldest archive is discarded.
func rotate(path string) {
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string { return fmt.Sprintf("%s.%d", path, n) }
