// image.go - Dekodieren und Skalieren von Testbildern
//
// Bilder kommen als JPEG-, PNG- oder WebP-Bytes herein und werden fuer
// die Bild-Benchmarks immer nach RGBA konvertiert. Das Format wird an
// den Magic-Bytes erkannt, nicht an Dateiendungen.

package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	// Standard-Decoder registrieren
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrUnknownFormat meldet Bytes, die keinem unterstuetzten Bildformat
// entsprechen.
var ErrUnknownFormat = errors.New("unbekanntes Bildformat")

// Image ist ein dekodiertes Bild im RGBA-Layout.
type Image struct {
	RGBA   *image.RGBA
	Width  int
	Height int
}

// sniff erkennt JPEG, PNG und WebP an den ersten Bytes.
func sniff(data []byte) bool {
	switch {
	case len(data) >= 3 && data[0] == 0xff && data[1] == 0xd8 && data[2] == 0xff:
		// JPEG SOI-Marker
		return true
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x89, 'P', 'N', 'G'}):
		return true
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return true
	}
	return false
}

// Decode dekodiert Bild-Bytes und konvertiert das Ergebnis nach RGBA.
func Decode(data []byte) (*Image, error) {
	if !sniff(data) {
		return nil, ErrUnknownFormat
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("bild dekodieren: %w", err)
	}

	rgba := toRGBA(src)
	b := rgba.Bounds()
	return &Image{RGBA: rgba, Width: b.Dx(), Height: b.Dy()}, nil
}

// DecodeReader puffert den Reader vollstaendig und dekodiert wie Decode.
func DecodeReader(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bilddaten lesen: %w", err)
	}
	return Decode(data)
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}

	b := src.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, src, b.Min, draw.Src)
	return rgba
}

// Resize skaliert das Bild bilinear auf die angegebene Groesse.
func (m *Image) Resize(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ungueltige Zielgroesse %dx%d", width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), m.RGBA, m.RGBA.Bounds(), draw.Src, nil)

	return &Image{RGBA: dst, Width: width, Height: height}, nil
}

// CenterCrop schneidet einen zentrierten Ausschnitt aus.
func (m *Image) CenterCrop(width, height int) (*Image, error) {
	if width > m.Width || height > m.Height {
		return nil, fmt.Errorf("ausschnitt %dx%d groesser als bild %dx%d", width, height, m.Width, m.Height)
	}

	x0 := (m.Width - width) / 2
	y0 := (m.Height - height) / 2

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	min := m.RGBA.Bounds().Min
	draw.Draw(dst, dst.Bounds(), m.RGBA, min.Add(image.Pt(x0, y0)), draw.Src)

	return &Image{RGBA: dst, Width: width, Height: height}, nil
}
