// kernels.go - Elementweise float32-Kernel
//
// Die Kernel sind bewusst als freie Funktionen exportiert: das
// Lazy-Backend ruft sie aus kompilierten Programmen und auf dem
// Fallback-Pfad auf. Alle Kernel allozieren ihr Ergebnis neu und
// lassen die Eingaben unveraendert.
package eager

import "math"

func Add(a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func Sub(a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func Mul(a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

func Div(a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] / b[i]
	}
	return out
}

// TruncDiv divides elementwise and truncates toward zero.
func TruncDiv(a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = float32(math.Trunc(float64(a[i] / b[i])))
	}
	return out
}

func AddScalar(a []float32, s float64) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] + float32(s)
	}
	return out
}

func Scale(a []float32, s float64) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] * float32(s)
	}
	return out
}

func Clamp(a []float32, min, max float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		v := a[i]
		if v < min {
			v = min
		}
		if v > max {
			v = max
		}
		out[i] = v
	}
	return out
}
