// imagenorm.go - Bild-Normalisierung als Benchmark
//
// Enthält: (pixels - mean) / std ueber CHW-Ebenen eines synthetischen
// Testbilds. Die Eingaben laufen als benannte Argumente, damit der
// Named-Pfad des Dispatchers abgedeckt ist.

package models

import (
	"fmt"

	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/model"
	"github.com/larch-ml/larch/vision"
)

const (
	// Quellbild vor dem Downscaling
	imageNormSrcSize = 256
	// Kantenlaenge des normalisierten Bilds
	imageNormSize = 64
)

type imageNorm struct {
	ctx    ml.Context
	pixels ml.Tensor
	mean   ml.Tensor
	std    ml.Tensor
}

func newImageNorm(b ml.Backend, seed int64) (model.Instance, error) {
	img, err := vision.Decode(vision.TestImage(imageNormSrcSize, imageNormSrcSize, seed))
	if err != nil {
		return nil, fmt.Errorf("generated test image: %w", err)
	}

	img, err = img.Resize(imageNormSize, imageNormSize)
	if err != nil {
		return nil, err
	}

	// NoNorm liefert die rohen [0,1]-Ebenen im CHW-Layout
	planes := img.Planes(vision.NoNormMean, vision.NoNormStd)

	ctx := b.NewContext()
	return &imageNorm{
		ctx:    ctx,
		pixels: ctx.FromFloats(planes, 3, imageNormSize, imageNormSize),
		mean:   channelTensor(ctx, vision.ImageNetMean, imageNormSize, imageNormSize),
		std:    channelTensor(ctx, vision.ImageNetStd, imageNormSize, imageNormSize),
	}, nil
}

// channelTensor fuellt einen CHW-Tensor kanalweise mit Konstanten
func channelTensor(ctx ml.Context, vals [3]float32, h, w int) ml.Tensor {
	plane := h * w
	data := make([]float32, 3*plane)
	for c, v := range vals {
		for i := 0; i < plane; i++ {
			data[c*plane+i] = v
		}
	}
	return ctx.FromFloats(data, 3, h, w)
}

func (m *imageNorm) Context() ml.Context { return m.ctx }

func (m *imageNorm) Module() (model.Forwarder, model.CallArgs) {
	return m, model.Named(map[string]ml.Tensor{
		"pixels": m.pixels,
		"mean":   m.mean,
		"std":    m.std,
	})
}

func (m *imageNorm) Close() {
	m.ctx.Close()
}

func (m *imageNorm) Forward(ctx ml.Context, inputs ...ml.Tensor) (ml.Tensor, error) {
	pixels, mean, std := inputs[0], inputs[1], inputs[2]
	return pixels.Sub(ctx, mean).Div(ctx, std), nil
}

func (m *imageNorm) ForwardNamed(ctx ml.Context, inputs map[string]ml.Tensor) (ml.Tensor, error) {
	return m.Forward(ctx, inputs["pixels"], inputs["mean"], inputs["std"])
}

func init() {
	model.Register(model.Descriptor{
		Name:     dimsName("ImageNorm", []int{3, imageNormSize, imageNormSize}),
		Supports: evalOnly,
		New:      newImageNorm,
	})
}
