package sprite

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Rasterize draws an SVG icon at scale times its view box. Near-white pixels
// become transparent so icons drawn on white backgrounds blend into the map.
func Rasterize(r io.Reader, scale int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	if scale < 1 {
		scale = 1
	}

	w := int(icon.ViewBox.W) * scale
	h := int(icon.ViewBox.H) * scale
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("svg has an empty view box")
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1)

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// RGBA() is premultiplied in [0, 65535]
			r, g, b, a := img.At(x, y).RGBA()
			if r > 65000 && g > 65000 && b > 65000 && a > 65000 {
				img.Set(x, y, image.Transparent)
			}
		}
	}
	return img, nil
}

// LoadIcon reads an .svg or .png icon.
func LoadIcon(path string, scale int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return Rasterize(f, scale)
	case ".png":
		img, err := png.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported icon format: %s", path)
	}
}
