// testimage.go - Synthetische Testbilder
//
// TestImage erzeugt ein JPEG-kodiertes Gradientenbild mit leichtem
// Rauschen. Der Seed macht die Pixel reproduzierbar, damit Benchmarks
// ueber Laeufe hinweg identische Eingaben sehen.

package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
)

// TestImage erzeugt ein width x height Gradientenbild als JPEG.
func TestImage(width, height int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, gradientPixel(x, y, width, height, rng))
		}
	}

	var buf bytes.Buffer
	// Qualitaet 85 haelt Artefakte klein, komprimiert aber realistisch
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	return buf.Bytes()
}

func gradientPixel(x, y, width, height int, rng *rand.Rand) color.RGBA {
	nx := float64(x) / float64(width)
	ny := float64(y) / float64(height)

	noise := int(rng.Float64()*20 - 10)
	return color.RGBA{
		R: clamp8(int(nx*255) + noise),
		G: clamp8(int(ny*255) + noise),
		B: clamp8(int((nx+ny)/2*255) + noise),
		A: 255,
	}
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
