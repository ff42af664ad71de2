package grim

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grim")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "Defaults",
			opts: Options{},
			want: []string{"-"},
		},
		{
			name: "Pointer",
			opts: Options{IncludePointer: true},
			want: []string{"-c", "-"},
		},
		{
			name: "Output",
			opts: Options{Output: "DP-1", Type: TypePPM},
			want: []string{"-o", "DP-1", "-t", "ppm", "-"},
		},
		{
			name: "Region",
			opts: Options{Region: "100,100 50x50", Type: TypePPM},
			want: []string{"-g", "100,100 50x50", "-t", "ppm", "-"},
		},
		{
			name: "Everything",
			opts: Options{
				IncludePointer: true,
				Level:          intPtr(0),
				Output:         "HDMI-A-1",
				Quality:        intPtr(90),
				Region:         "0,0 10x10",
				Scale:          floatPtr(1.5),
				Type:           TypeJPEG,
			},
			want: []string{"-c", "-l", "0", "-o", "HDMI-A-1", "-q", "90", "-g", "0,0 10x10", "-s", "1.5", "-t", "jpeg", "-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.Args())
		})
	}
}

// Enabling one option adds exactly its own flag and leaves the others in place.
func TestArgsMonotonic(t *testing.T) {
	base := Options{Output: "DP-1", Region: "1,2 3x4"}
	baseArgs := base.Args()

	variants := []struct {
		name  string
		apply func(*Options)
		added []string
	}{
		{"Pointer", func(o *Options) { o.IncludePointer = true }, []string{"-c"}},
		{"Level", func(o *Options) { o.Level = intPtr(6) }, []string{"-l", "6"}},
		{"Quality", func(o *Options) { o.Quality = intPtr(80) }, []string{"-q", "80"}},
		{"Scale", func(o *Options) { o.Scale = floatPtr(2) }, []string{"-s", "2"}},
		{"Type", func(o *Options) { o.Type = TypePNG }, []string{"-t", "png"}},
	}

	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			opts := base
			v.apply(&opts)
			args := opts.Args()
			require.Len(t, args, len(baseArgs)+len(v.added))

			joined := strings.Join(args, "\x00")
			assert.Contains(t, joined, strings.Join(v.added, "\x00"))
			assert.Contains(t, joined, "-o\x00DP-1")
			assert.Contains(t, joined, "-g\x001,2 3x4")
			assert.Equal(t, "-", args[len(args)-1])
		})
	}
}

func TestValidate(t *testing.T) {
	valid := []Options{
		{},
		{Type: TypePPM},
		{Type: TypePNG, Level: intPtr(9)},
		{Type: TypeJPEG, Quality: intPtr(0)},
		{Scale: floatPtr(0.5)},
	}
	for _, o := range valid {
		assert.NoError(t, o.Validate(), "%+v", o)
	}

	invalid := []Options{
		{Type: "gif"},
		{Level: intPtr(10)},
		{Level: intPtr(-1)},
		{Quality: intPtr(101)},
		{Scale: floatPtr(0)},
	}
	for _, o := range invalid {
		assert.Error(t, o.Validate(), "%+v", o)
	}
}

func TestCaptureStreamsToSink(t *testing.T) {
	g := New(writeScript(t, `printf '%s\n' "$@"`))

	var sink bytes.Buffer
	err := g.Capture(context.Background(), &sink, Options{Output: "DP-1", Type: TypePPM})
	require.NoError(t, err)
	assert.Equal(t, "-o\nDP-1\n-t\nppm\n-\n", sink.String())
}

func TestCaptureWritesFile(t *testing.T) {
	g := New(writeScript(t, `printf 'P6\n1 1\n255\n\377\000\000'`))

	f, err := os.CreateTemp(t.TempDir(), "*.ppm")
	require.NoError(t, err)
	require.NoError(t, g.Capture(context.Background(), f, Options{Type: TypePPM}))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, []byte("P6\n1 1\n255\n\xff\x00\x00"), data)
}

func TestCaptureNonZeroExit(t *testing.T) {
	g := New(writeScript(t, `echo "compositor doesn't support wlr-screencopy-unstable-v1" >&2
exit 1`))

	err := g.Capture(context.Background(), &bytes.Buffer{}, Options{})
	var capErr *CaptureError
	require.True(t, errors.As(err, &capErr), "expected *CaptureError, got %T", err)
	assert.False(t, capErr.TimedOut)
	assert.Contains(t, capErr.Stderr, "wlr-screencopy")
	assert.Contains(t, err.Error(), "wlr-screencopy")
}

func TestCaptureInvalidUTF8Stderr(t *testing.T) {
	g := New(writeScript(t, `printf 'bad \377\376 bytes' >&2
exit 2`))

	err := g.Capture(context.Background(), &bytes.Buffer{}, Options{})
	var capErr *CaptureError
	require.True(t, errors.As(err, &capErr), "expected *CaptureError, got %T", err)
	if !utf8.ValidString(capErr.Stderr) {
		t.Fatalf("Expected valid UTF-8 stderr, got %q", capErr.Stderr)
	}
	assert.Contains(t, capErr.Stderr, "\uFFFD")
	assert.True(t, strings.HasPrefix(capErr.Stderr, "bad "), capErr.Stderr)
	assert.True(t, utf8.ValidString(err.Error()))
}

func TestCaptureTimeoutKills(t *testing.T) {
	g := New(writeScript(t, `echo "waiting for compositor" >&2
exec sleep 30`))
	g.Timeout = 200 * time.Millisecond

	start := time.Now()
	err := g.Capture(context.Background(), &bytes.Buffer{}, Options{})
	elapsed := time.Since(start)

	var capErr *CaptureError
	require.True(t, errors.As(err, &capErr), "expected *CaptureError, got %T", err)
	assert.True(t, capErr.TimedOut)
	assert.Contains(t, capErr.Stderr, "waiting for compositor")
	assert.Less(t, elapsed, 10*time.Second)
}

// A child that inherited stderr must not keep the reap waiting.
func TestCaptureTimeoutKillsChildren(t *testing.T) {
	g := New(writeScript(t, `sleep 30 &
wait`))
	g.Timeout = 200 * time.Millisecond

	start := time.Now()
	err := g.Capture(context.Background(), &bytes.Buffer{}, Options{})

	var capErr *CaptureError
	require.True(t, errors.As(err, &capErr), "expected *CaptureError, got %T", err)
	assert.True(t, capErr.TimedOut)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestCaptureMissingBinary(t *testing.T) {
	g := New(filepath.Join(t.TempDir(), "does-not-exist"))

	err := g.Capture(context.Background(), &bytes.Buffer{}, Options{})
	var capErr *CaptureError
	require.True(t, errors.As(err, &capErr), "expected *CaptureError, got %T", err)
	assert.Contains(t, err.Error(), "unable to start")
}

func TestCaptureErrorMessage(t *testing.T) {
	assert.Equal(t, "capture failed (timed out)", (&CaptureError{TimedOut: true}).Error())
	assert.Equal(t, "capture failed: boom", (&CaptureError{Stderr: "boom\n"}).Error())
}
