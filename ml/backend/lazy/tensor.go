// tensor.go - Context und Tensor des Lazy-Backends
//
// Dieses Modul enthaelt:
// - Context: Erzeugt Leaf-Werte (Host-Upload)
// - Tensor: Zeichnet Operationen auf statt sie auszufuehren
// - Fallback-Pfad: Operationen ohne Lazy-Unterstuetzung laufen sofort
//   ueber die Eager-Kernel und zaehlen unter "eager::<op>"
package lazy

import (
	"fmt"
	"slices"

	"github.com/larch-ml/larch/metrics"
	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/ml/backend/eager"
)

// Context creates leaf tensors on a lazy backend.
type Context struct {
	backend *Backend
}

func (c *Context) FromFloats(s []float32, shape ...int) ml.Tensor {
	if len(s) != ml.Elems(shape...) {
		panic(fmt.Sprintf("lazy: data length %d does not match shape %v", len(s), shape))
	}

	return &Tensor{
		backend: c.backend,
		shape:   slices.Clone(shape),
		dtype:   ml.DTypeF32,
		value:   newLeaf(slices.Clone(s)),
	}
}

func (c *Context) FromInts(s []int32, shape ...int) ml.Tensor {
	if len(s) != ml.Elems(shape...) {
		panic(fmt.Sprintf("lazy: data length %d does not match shape %v", len(s), shape))
	}

	data := make([]float32, len(s))
	for i, v := range s {
		data[i] = float32(v)
	}
	return &Tensor{
		backend: c.backend,
		shape:   slices.Clone(shape),
		dtype:   ml.DTypeI32,
		value:   newLeaf(data),
	}
}

func (c *Context) Zeros(shape ...int) ml.Tensor {
	return &Tensor{
		backend: c.backend,
		shape:   slices.Clone(shape),
		dtype:   ml.DTypeF32,
		value:   newLeaf(make([]float32, ml.Elems(shape...))),
	}
}

func (c *Context) Close() {}

// Tensor defers its computation into the backend's trace window.
type Tensor struct {
	backend *Backend
	shape   []int
	dtype   ml.DType
	value   *value
}

func (t *Tensor) Shape() []int {
	return slices.Clone(t.shape)
}

func (t *Tensor) DType() ml.DType {
	return t.dtype
}

// Floats materializes the tensor: flushes the pending window, waits
// for the device stream and copies the result to the host. In
// trace-only mode the result reads back as zeros.
func (t *Tensor) Floats() []float32 {
	if err := t.backend.flush(); err != nil {
		panic(fmt.Sprintf("lazy: flush: %v", err))
	}
	return slices.Clone(t.value.wait())
}

func (t *Tensor) record(kind opKind, t2 *Tensor, scalar float64, min, max float32, dtype ml.DType) ml.Tensor {
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	var second *value
	if t2 != nil {
		second = t2.value
	}
	out := b.window.record(kind, t.value, second, scalar, min, max, ml.Elems(t.shape...))

	return &Tensor{
		backend: b,
		shape:   slices.Clone(t.shape),
		dtype:   dtype,
		value:   out,
	}
}

func (t *Tensor) binary(kind opKind, t2 ml.Tensor) ml.Tensor {
	o := t2.(*Tensor)
	if !slices.Equal(t.shape, o.shape) {
		panic(fmt.Sprintf("lazy: shape mismatch %v vs %v", t.shape, o.shape))
	}

	dtype := t.dtype
	if o.dtype != dtype {
		dtype = ml.DTypeF32
	}
	return t.record(kind, o, 0, 0, 0, dtype)
}

func (t *Tensor) Add(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.binary(opAdd, t2)
}

func (t *Tensor) Sub(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.binary(opSub, t2)
}

func (t *Tensor) Mul(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.binary(opMul, t2)
}

func (t *Tensor) Div(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	out := t.binary(opDiv, t2)
	out.(*Tensor).dtype = ml.DTypeF32
	return out
}

// TruncDiv has no lazy lowering and falls back to the eager kernels.
func (t *Tensor) TruncDiv(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	o := t2.(*Tensor)
	if !slices.Equal(t.shape, o.shape) {
		panic(fmt.Sprintf("lazy: shape mismatch %v vs %v", t.shape, o.shape))
	}

	dtype := t.dtype
	if o.dtype != dtype {
		dtype = ml.DTypeF32
	}
	return t.fallbackBinary("div_trunc", o, dtype, eager.TruncDiv)
}

func (t *Tensor) AddScalar(ctx ml.Context, s float64) ml.Tensor {
	return t.record(opAddScalar, nil, s, 0, 0, t.dtype)
}

func (t *Tensor) Scale(ctx ml.Context, s float64) ml.Tensor {
	return t.record(opScale, nil, s, 0, 0, t.dtype)
}

func (t *Tensor) Clamp(ctx ml.Context, min, max float32) ml.Tensor {
	return t.record(opClamp, nil, 0, min, max, t.dtype)
}

// fallbackBinary materializes both operands, runs the eager kernel on
// the host and wraps the result as a leaf. Counts under the eager
// fallback namespace, which the compute experiment warns about.
func (t *Tensor) fallbackBinary(name string, t2 *Tensor, dtype ml.DType, kernel func(a, b []float32) []float32) ml.Tensor {
	metrics.Default.Counter(FallbackPrefix + name).Inc()

	if err := t.backend.flush(); err != nil {
		panic(fmt.Sprintf("lazy: flush: %v", err))
	}

	out := kernel(t.value.wait(), t2.value.wait())
	return &Tensor{
		backend: t.backend,
		shape:   slices.Clone(t.shape),
		dtype:   dtype,
		value:   newLeaf(out),
	}
}
