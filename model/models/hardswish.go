// hardswish.go - Elementweise HardSwish-Aktivierung
//
// Enthält: x * clamp(x+3, 0, 6) / 6 ueber einen Eingabetensor.

package models

import (
	"math/rand"

	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/model"
)

type hardSwish struct {
	ctx  ml.Context
	dims []int
	x    ml.Tensor
}

func newHardSwish(backend ml.Backend, dims []int, seed int64) (model.Instance, error) {
	m := &hardSwish{ctx: backend.NewContext(), dims: dims}
	m.Reseed(seed)
	return m, nil
}

func (m *hardSwish) Context() ml.Context { return m.ctx }

func (m *hardSwish) Module() (model.Forwarder, model.CallArgs) {
	return m, model.Single(m.x)
}

// Reseed rebuilds the example input from the seed, so repeated timed
// runs start from identical data.
func (m *hardSwish) Reseed(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	m.x = m.ctx.FromFloats(randFloats(rng, ml.Elems(m.dims...)), m.dims...)
}

func (m *hardSwish) Close() {
	m.ctx.Close()
}

func (m *hardSwish) Forward(ctx ml.Context, inputs ...ml.Tensor) (ml.Tensor, error) {
	x := inputs[0]
	gate := x.AddScalar(ctx, 3).Clamp(ctx, 0, 6)
	return x.Mul(ctx, gate).Scale(ctx, 1.0/6.0), nil
}

func init() {
	for _, dims := range benchDims {
		model.Register(model.Descriptor{
			Name:     dimsName("HardSwish", dims),
			Supports: evalOnly,
			New: func(backend ml.Backend, seed int64) (model.Instance, error) {
				return newHardSwish(backend, dims, seed)
			},
		})
	}
}
