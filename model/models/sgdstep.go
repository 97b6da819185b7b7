// sgdstep.go - Trainierbarer Regressions-Schritt
//
// Enthält: elementweise lineare Regression y ~ w*x mit analytischem
// Gradienten. Train fuehrt pro Aufruf einen SGD-Schritt aus und haelt
// die Gewichte als Tensor im Graphen.

package models

import (
	"math/rand"

	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/model"
)

const sgdStepSize = 4096

type sgdStep struct {
	ctx ml.Context

	x ml.Tensor
	y ml.Tensor
	w ml.Tensor

	lr float64
}

func newSGDStep(backend ml.Backend, seed int64) (model.Instance, error) {
	ctx := backend.NewContext()
	rng := rand.New(rand.NewSource(seed))

	return &sgdStep{
		ctx: ctx,
		x:   ctx.FromFloats(randFloats(rng, sgdStepSize), sgdStepSize),
		y:   ctx.FromFloats(randFloats(rng, sgdStepSize), sgdStepSize),
		w:   ctx.Zeros(sgdStepSize),
		lr:  0.01,
	}, nil
}

func (m *sgdStep) Context() ml.Context { return m.ctx }

func (m *sgdStep) Module() (model.Forwarder, model.CallArgs) {
	return m, model.Single(m.x)
}

func (m *sgdStep) Close() {
	m.ctx.Close()
}

// Forward predicts with the current weights.
func (m *sgdStep) Forward(ctx ml.Context, inputs ...ml.Tensor) (ml.Tensor, error) {
	return inputs[0].Mul(ctx, m.w), nil
}

// Train runs niter SGD steps on the squared error summed over
// elements. The weights of step i feed step i+1, so accelerated
// backends see a dependency chain across steps.
func (m *sgdStep) Train(niter int) error {
	for range niter {
		pred := m.x.Mul(m.ctx, m.w)
		diff := pred.Sub(m.ctx, m.y)
		grad := diff.Mul(m.ctx, m.x).Scale(m.ctx, 2)
		m.w = m.w.Sub(m.ctx, grad.Scale(m.ctx, m.lr))
	}
	return nil
}

func init() {
	model.Register(model.Descriptor{
		Name:     dimsName("SGDStep", []int{sgdStepSize}),
		Supports: anyMode,
		New:      newSGDStep,
	})
}
