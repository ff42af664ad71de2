// Package loader turns a captured file into an in-memory image.
package loader

import (
	"bufio"
	"fmt"
	"image"
	"os"

	// Formats grim can write, plus the ones a screenshot may be saved as.
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/spakin/netpbm"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadError means the captured file could not be interpreted as an image.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load screenshot %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Image is a decoded screenshot.
type Image struct {
	image.Image
	Format string
	Path   string
}

// Load decodes the image at path, detecting the format from its contents.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	img, format, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("empty %s image", format)}
	}
	return &Image{Image: img, Format: format, Path: path}, nil
}
