// Package sprite packs overlay icons into a Mapbox sprite sheet so symbol
// overlays can reference them by overlay id.
package sprite

import (
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/khankhulgun/maplayers/models"
)

// Sheet is a packed sprite: one row of icons and its index.
type Sheet struct {
	Image *image.RGBA
	Index map[string]models.SpriteMeta
}

// Pack lays icons out left to right, in name order.
func Pack(icons map[string]image.Image, pixelRatio int) Sheet {
	names := make([]string, 0, len(icons))
	for name := range icons {
		names = append(names, name)
	}
	sort.Strings(names)

	index := make(map[string]models.SpriteMeta, len(icons))
	var width, height int
	for _, name := range names {
		b := icons[name].Bounds()
		index[name] = models.SpriteMeta{
			X:          width,
			Y:          0,
			Width:      b.Dx(),
			Height:     b.Dy(),
			PixelRatio: pixelRatio,
		}
		width += b.Dx()
		if b.Dy() > height {
			height = b.Dy()
		}
	}

	sheet := image.NewRGBA(image.Rect(0, 0, width, height))
	for _, name := range names {
		m := index[name]
		img := icons[name]
		draw.Draw(sheet, image.Rect(m.X, 0, m.X+m.Width, m.Height), img, img.Bounds().Min, draw.Over)
	}
	return Sheet{Image: sheet, Index: index}
}

// Write saves base.png/base.json and base@2x.png/base@2x.json.
func (s Sheet) Write(base string) error {
	if err := os.MkdirAll(filepath.Dir(base), os.ModePerm); err != nil {
		return fmt.Errorf("create sprite directory: %w", err)
	}
	for _, suffix := range []string{"", "@2x"} {
		if err := writePNG(s.Image, base+suffix+".png"); err != nil {
			return err
		}
		if err := writeJSON(s.Index, base+suffix+".json"); err != nil {
			return err
		}
	}
	return nil
}

// BuildForOverlays packs the icon of every overlay that has one. Icons are
// resolved against iconDir and keyed by overlay id. It returns the number of
// icons written; with none, nothing is written.
func BuildForOverlays(overlays []models.OverlayLayer, iconDir, base string) (int, error) {
	icons := map[string]image.Image{}
	for _, o := range overlays {
		if o.Icon == nil || *o.Icon == "" {
			continue
		}
		img, err := LoadIcon(filepath.Join(iconDir, filepath.Clean("/"+*o.Icon)), 2)
		if err != nil {
			return 0, fmt.Errorf("icon for overlay %s: %w", o.ID, err)
		}
		icons[o.ID] = img
	}
	if len(icons) == 0 {
		return 0, nil
	}

	if err := Pack(icons, 1).Write(base); err != nil {
		return 0, err
	}
	return len(icons), nil
}

func writePNG(img image.Image, filename string) error {
	out, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create sprite image: %w", err)
	}
	defer out.Close()
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("encode sprite image: %w", err)
	}
	return nil
}

func writeJSON(index map[string]models.SpriteMeta, filename string) error {
	out, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create sprite index: %w", err)
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(index); err != nil {
		return fmt.Errorf("encode sprite index: %w", err)
	}
	return nil
}
