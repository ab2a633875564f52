package tray

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"sync"
)

const defaultIconSize = 32

var (
	defaultIconOnce sync.Once
	defaultIconData []byte
)

// defaultIcon draws the stock tray icon: a rounded square with a pointer
// mark, encoded as PNG.
func defaultIcon() []byte {
	defaultIconOnce.Do(func() {
		img := image.NewNRGBA(image.Rect(0, 0, defaultIconSize, defaultIconSize))
		body := color.NRGBA{R: 0x1f, G: 0x6f, B: 0xd0, A: 0xff}
		mark := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
		const radius = 6
		for y := 0; y < defaultIconSize; y++ {
			for x := 0; x < defaultIconSize; x++ {
				if !insideRounded(x, y, defaultIconSize, radius) {
					continue
				}
				img.SetNRGBA(x, y, body)
			}
		}
		// Arrow head pointing to the upper left corner.
		for y := 8; y < 24; y++ {
			for x := 8; x < 8+(y-8)/2+2 && x < 24; x++ {
				img.SetNRGBA(x, y, mark)
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err == nil {
			defaultIconData = buf.Bytes()
		}
	})
	return cloneIcon(defaultIconData)
}

func insideRounded(x, y, size, r int) bool {
	cx, cy := x, y
	switch {
	case x < r:
		cx = r
	case x >= size-r:
		cx = size - r - 1
	}
	switch {
	case y < r:
		cy = r
	case y >= size-r:
		cy = size - r - 1
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= r*r
}

func cloneIcon(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp
}

func normalizedIcon(data []byte) []byte {
	if len(data) == 0 {
		return platformNormalizeIcon(defaultIcon())
	}
	normalized := platformNormalizeIcon(data)
	if len(normalized) == 0 {
		return platformNormalizeIcon(defaultIcon())
	}
	return cloneIcon(normalized)
}

// LoadIcon reads the icon at path and converts it for the platform tray.
// An empty path yields the stock icon.
func LoadIcon(path string) ([]byte, error) {
	if path == "" {
		return normalizedIcon(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return normalizedIcon(nil), fmt.Errorf("read tray icon: %w", err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil && !isICO(data) {
		return normalizedIcon(nil), fmt.Errorf("decode tray icon %s: %w", path, err)
	}
	return normalizedIcon(data), nil
}

func isICO(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	return data[0] == 0x00 && data[1] == 0x00 && data[2] == 0x01 && data[3] == 0x00
}
