// backend.go - Eager-Backend: synchrone Referenz-Ausfuehrung
//
// Dieses Modul enthaelt:
// - Backend: Fuehrt jede Operation sofort auf dem Host aus
// - New: Factory, registriert unter dem Namen "eager"
//
// Das Eager-Backend ist der Korrektheits- und Timing-Massstab fuer das
// Lazy-Backend. Es haelt keine Queue: MarkStep und Wait sind trivial.
package eager

import (
	"context"
	"fmt"

	"github.com/larch-ml/larch/ml"
)

func init() {
	ml.RegisterBackend("eager", New)
}

// Backend executes tensor operations immediately on the host.
type Backend struct {
	device ml.Device
}

// New erzeugt ein Eager-Backend fuer das angegebene Geraet
func New(params ml.BackendParams) (ml.Backend, error) {
	if !params.Device.Valid() {
		return nil, fmt.Errorf("eager: unknown device %q", params.Device)
	}

	return &Backend{device: params.Device}, nil
}

func (b *Backend) Name() string {
	return "eager"
}

func (b *Backend) Device() ml.Device {
	return b.device
}

func (b *Backend) NewContext() ml.Context {
	return &Context{backend: b}
}

// MarkStep is a no-op: nothing is ever pending.
func (b *Backend) MarkStep() error {
	return nil
}

// Wait is a no-op barrier: eager execution never queues device work.
func (b *Backend) Wait(ctx context.Context) error {
	return ctx.Err()
}

func (b *Backend) Close() {}
