// context.go - Context und Tensor des Eager-Backends
// Enthält: Context (FromFloats/FromInts/Zeros), Tensor mit sofortiger Ausfuehrung
package eager

import (
	"fmt"
	"slices"

	"github.com/larch-ml/larch/ml"
)

// Context creates tensors owned by an eager backend.
type Context struct {
	backend *Backend
}

func (c *Context) FromFloats(s []float32, shape ...int) ml.Tensor {
	if len(s) != ml.Elems(shape...) {
		panic(fmt.Sprintf("eager: data length %d does not match shape %v", len(s), shape))
	}

	return &Tensor{shape: slices.Clone(shape), dtype: ml.DTypeF32, data: slices.Clone(s)}
}

func (c *Context) FromInts(s []int32, shape ...int) ml.Tensor {
	if len(s) != ml.Elems(shape...) {
		panic(fmt.Sprintf("eager: data length %d does not match shape %v", len(s), shape))
	}

	data := make([]float32, len(s))
	for i, v := range s {
		data[i] = float32(v)
	}
	return &Tensor{shape: slices.Clone(shape), dtype: ml.DTypeI32, data: data}
}

func (c *Context) Zeros(shape ...int) ml.Tensor {
	return &Tensor{shape: slices.Clone(shape), dtype: ml.DTypeF32, data: make([]float32, ml.Elems(shape...))}
}

func (c *Context) Close() {}

// Tensor holds host data and computes every operation immediately.
type Tensor struct {
	shape []int
	dtype ml.DType
	data  []float32
}

func (t *Tensor) Shape() []int {
	return slices.Clone(t.shape)
}

func (t *Tensor) DType() ml.DType {
	return t.dtype
}

func (t *Tensor) Floats() []float32 {
	return slices.Clone(t.data)
}

func (t *Tensor) binary(t2 ml.Tensor, f func(a, b []float32) []float32) ml.Tensor {
	o := t2.(*Tensor)
	if !slices.Equal(t.shape, o.shape) {
		panic(fmt.Sprintf("eager: shape mismatch %v vs %v", t.shape, o.shape))
	}

	dtype := t.dtype
	if o.dtype != dtype {
		dtype = ml.DTypeF32
	}
	return &Tensor{shape: slices.Clone(t.shape), dtype: dtype, data: f(t.data, o.data)}
}

func (t *Tensor) Add(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.binary(t2, Add)
}

func (t *Tensor) Sub(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.binary(t2, Sub)
}

func (t *Tensor) Mul(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.binary(t2, Mul)
}

func (t *Tensor) Div(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	out := t.binary(t2, Div)
	// dividing integral tensors leaves the integral domain
	out.(*Tensor).dtype = ml.DTypeF32
	return out
}

func (t *Tensor) TruncDiv(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.binary(t2, TruncDiv)
}

func (t *Tensor) AddScalar(ctx ml.Context, s float64) ml.Tensor {
	return &Tensor{shape: slices.Clone(t.shape), dtype: t.dtype, data: AddScalar(t.data, s)}
}

func (t *Tensor) Scale(ctx ml.Context, s float64) ml.Tensor {
	return &Tensor{shape: slices.Clone(t.shape), dtype: t.dtype, data: Scale(t.data, s)}
}

func (t *Tensor) Clamp(ctx ml.Context, min, max float32) ml.Tensor {
	return &Tensor{shape: slices.Clone(t.shape), dtype: t.dtype, data: Clamp(t.data, min, max)}
}
