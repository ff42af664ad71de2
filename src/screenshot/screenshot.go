package screenshot

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/kbinani/screenshot"
)

// Region represents a screen region in the "x,y WxH" geometry understood by grim and slurp.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Geometry renders the region as "x,y WxH".
func (r Region) Geometry() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}

// Rectangle is a region given by two inclusive corners.
type Rectangle struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// Validate rejects rectangles whose second corner lies left of or above the first.
func (r Rectangle) Validate() error {
	if r.X2 < r.X1 || r.Y2 < r.Y1 {
		return fmt.Errorf("invalid rectangle coordinates (%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
	}
	return nil
}

// Region converts the corners to origin and size. Both corners are part of the region.
func (r Rectangle) Region() Region {
	return Region{
		X:      r.X1,
		Y:      r.Y1,
		Width:  r.X2 - r.X1 + 1,
		Height: r.Y2 - r.Y1 + 1,
	}
}

// ParseGeometry parses "x,y WxH" as printed by slurp.
func ParseGeometry(s string) (Region, error) {
	pos, size, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return Region{}, fmt.Errorf("invalid geometry %q: missing size", s)
	}
	xs, ys, ok := strings.Cut(pos, ",")
	if !ok {
		return Region{}, fmt.Errorf("invalid geometry %q: missing comma", s)
	}
	ws, hs, ok := strings.Cut(strings.TrimSpace(size), "x")
	if !ok {
		return Region{}, fmt.Errorf("invalid geometry %q: missing 'x'", s)
	}

	var r Region
	var err error
	for _, f := range []struct {
		dst *int
		src string
	}{{&r.X, xs}, {&r.Y, ys}, {&r.Width, ws}, {&r.Height, hs}} {
		if *f.dst, err = strconv.Atoi(f.src); err != nil {
			return Region{}, fmt.Errorf("invalid geometry %q: %w", s, err)
		}
	}
	if r.Width < 0 || r.Height < 0 {
		return Region{}, fmt.Errorf("invalid geometry %q: negative size", s)
	}
	return r, nil
}

// Display describes one active display as reported by the X server.
type Display struct {
	Index  int
	Bounds image.Rectangle
}

// Rectangle returns the display bounds as inclusive corners.
func (d Display) Rectangle() Rectangle {
	return Rectangle{
		X1: d.Bounds.Min.X,
		Y1: d.Bounds.Min.Y,
		X2: d.Bounds.Max.X - 1,
		Y2: d.Bounds.Max.Y - 1,
	}
}

// Displays lists the bounds of all active displays. It only works where an X
// server (or XWayland) is reachable; wlroots outputs are addressed by name instead.
func Displays() ([]Display, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	displays := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, Display{Index: i, Bounds: screenshot.GetDisplayBounds(i)})
	}
	return displays, nil
}
