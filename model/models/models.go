// Package models - Eingebauter Benchmark-Katalog
//
// Dieses Paket registriert beim Import die eingebauten Benchmarks:
// die elementweisen Bausteine HardSwish und DivAddMul ueber ein festes
// Shape-Raster, die Bild-Normalisierung ImageNorm und den trainierbaren
// Regressions-Schritt SGDStep.
//
// Der Harness importiert das Paket blank und liest den Katalog ueber
// model.Catalog().

package models

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/model"
)

// benchDims ist das Shape-Raster der elementweisen Benchmarks
var benchDims = [][]int{
	{1, 1, 1, 1},
	{32, 16, 128, 128},
	{128, 16, 128, 128},
	{256, 16, 128, 128},
}

// dimsName baut den Katalog-Namen, z.B. "HardSwish[32,16,128,128]"
func dimsName(base string, dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return base + "[" + strings.Join(parts, ",") + "]"
}

// randFloats generiert n normalverteilte Werte aus dem Generator
func randFloats(rng *rand.Rand, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(rng.NormFloat64())
	}
	return out
}

func evalOnly(_ ml.Device, mode model.Mode) bool {
	return mode == model.ModeEval
}

func anyMode(_ ml.Device, mode model.Mode) bool {
	return mode.Valid()
}
