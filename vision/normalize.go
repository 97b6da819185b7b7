// normalize.go - Farbkanal-Normalisierung fuer Bild-Benchmarks
//
// Planes liefert die drei Farbkanaele als float32-Ebenen im CHW-Layout,
// wie die Bild-Modelle des Harnesses sie erwarten. Die Presets decken
// die ueblichen (mean, std)-Paare ab; NoNorm skaliert nur auf [0,1].

package vision

// Gebräuchliche Normalisierungs-Presets.
var (
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float32{0.229, 0.224, 0.225}

	ClipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	ClipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}

	NoNormMean = [3]float32{0, 0, 0}
	NoNormStd  = [3]float32{1, 1, 1}
)

// Planes normalisiert jeden Pixel mit (v - mean[c]) / std[c] und legt
// die Kanaele hintereinander ab: erst alle R-Werte, dann G, dann B.
func (m *Image) Planes(mean, std [3]float32) []float32 {
	plane := m.Width * m.Height
	out := make([]float32, 3*plane)

	b := m.RGBA.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// RGBA liefert 16-Bit-Werte, auf 8 Bit zurueckschieben
			r, g, bl, _ := m.RGBA.At(x, y).RGBA()
			out[i] = (float32(r>>8)/255 - mean[0]) / std[0]
			out[plane+i] = (float32(g>>8)/255 - mean[1]) / std[1]
			out[2*plane+i] = (float32(bl>>8)/255 - mean[2]) / std[2]
			i++
		}
	}
	return out
}

// Shape liefert die CHW-Tensorform des Bilds.
func (m *Image) Shape() []int {
	return []int{3, m.Height, m.Width}
}
