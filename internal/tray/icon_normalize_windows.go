//go:build windows
// +build windows

package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"

	"github.com/example/quickcliq/internal/logging"
)

func platformNormalizeIcon(data []byte) []byte {
	if len(data) < 4 {
		return nil
	}

	if isICO(data) {
		return data
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logging.Debugf("tray: decode icon image: %v", err)
		return nil
	}

	pngData := data
	if format != "png" {
		buf := new(bytes.Buffer)
		if err := png.Encode(buf, img); err != nil {
			logging.Debugf("tray: convert icon to png: %v", err)
			return nil
		}
		pngData = buf.Bytes()
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		logging.Debugf("tray: icon has invalid bounds %dx%d", width, height)
		return nil
	}

	icoData, err := wrapPNGAsICO(pngData, width, height)
	if err != nil {
		logging.Debugf("tray: wrap png as ico: %v", err)
		return nil
	}

	logging.Debugf("tray: icon %dx%d converted from %s to ico", width, height, format)
	return icoData
}

// icoHeader is ICONDIR followed by a single ICONDIRENTRY.
type icoHeader struct {
	Reserved   uint16
	Type       uint16
	Count      uint16
	Width      uint8
	Height     uint8
	Colors     uint8
	Reserved2  uint8
	Planes     uint16
	BitCount   uint16
	BytesInRes uint32
	Offset     uint32
}

func wrapPNGAsICO(pngData []byte, width, height int) ([]byte, error) {
	dim := func(v int) uint8 {
		if v <= 0 || v >= 256 {
			return 0
		}
		return uint8(v)
	}
	hdr := icoHeader{
		Type:       1,
		Count:      1,
		Width:      dim(width),
		Height:     dim(height),
		Planes:     1,
		BitCount:   32,
		BytesInRes: uint32(len(pngData)),
		Offset:     6 + 16,
	}
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, hdr); err != nil {
		return nil, err
	}
	if _, err := buf.Write(pngData); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
