package loader

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPPM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.ppm")
	data := []byte("P6\n2 1\n255\n\xff\x00\x00\x00\x00\xff")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Format == "" {
		t.Error("Expected format to be detected")
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 2, 1) {
		t.Errorf("Expected bounds 2x1, got %v", got)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 != 0xff || g != 0 || b != 0 {
		t.Errorf("Expected red first pixel, got %v", img.At(0, 0))
	}
}

func TestLoadPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(1, 1, color.RGBA{G: 255, A: 255})
	if err := png.Encode(f, src); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	f.Close()

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Format != "png" || img.Path != path {
		t.Errorf("Unexpected image metadata: format=%q path=%q", img.Format, img.Path)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.ppm")
	garbage := filepath.Join(dir, "garbage.ppm")
	os.WriteFile(empty, nil, 0o600)
	os.WriteFile(garbage, []byte("not an image"), 0o600)

	for _, path := range []string{empty, garbage, filepath.Join(dir, "missing.ppm")} {
		_, err := Load(path)
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("Expected *LoadError for %s, got %T (%v)", path, err, err)
		}
		if loadErr.Path != path {
			t.Errorf("Expected path %s, got %s", path, loadErr.Path)
		}
	}
}
