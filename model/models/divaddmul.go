// divaddmul.go - Elementweise Div/Add/Mul-Kette
//
// Enthält: (inputs / sqrt(dims[1]) + mask) * 5 ueber zwei
// Eingabetensoren. Die skalare Division laeuft als Multiplikation mit
// dem Kehrwert.

package models

import (
	"math"
	"math/rand"

	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/model"
)

type divAddMul struct {
	ctx    ml.Context
	inputs ml.Tensor
	mask   ml.Tensor

	// invSqrt is 1 / sqrt(dims[1]).
	invSqrt float64
}

func newDivAddMul(backend ml.Backend, dims []int, seed int64) (model.Instance, error) {
	ctx := backend.NewContext()
	rng := rand.New(rand.NewSource(seed))

	n := ml.Elems(dims...)
	return &divAddMul{
		ctx:     ctx,
		inputs:  ctx.FromFloats(randFloats(rng, n), dims...),
		mask:    ctx.FromFloats(randFloats(rng, n), dims...),
		invSqrt: 1 / math.Sqrt(float64(dims[1])),
	}, nil
}

func (m *divAddMul) Context() ml.Context { return m.ctx }

func (m *divAddMul) Module() (model.Forwarder, model.CallArgs) {
	return m, model.Positional(m.inputs, m.mask)
}

func (m *divAddMul) Close() {
	m.ctx.Close()
}

func (m *divAddMul) Forward(ctx ml.Context, inputs ...ml.Tensor) (ml.Tensor, error) {
	x, mask := inputs[0], inputs[1]
	return x.Scale(ctx, m.invSqrt).Add(ctx, mask).Scale(ctx, 5.0), nil
}

func init() {
	for _, dims := range benchDims {
		model.Register(model.Descriptor{
			Name:     dimsName("DivAddMul", dims),
			Supports: evalOnly,
			New: func(backend ml.Backend, seed int64) (model.Instance, error) {
				return newDivAddMul(backend, dims, seed)
			},
		})
	}
}
