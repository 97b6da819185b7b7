// sync.go - Synchronisations-Strategien fuer getimte Laeufe
//
// Dieses Modul enthaelt:
// - Sync: Hook-Paar (pro Iteration / final) des Timed-Runners
// - NoSync: Keine Synchronisation (Referenz auf der CPU)
// - BarrierSync: Geraetebarriere nach Iterationen bzw. am Ende
// - DeferredSync: MarkStep pro Iteration, Barriere optional
// - ToHostSync: Materialisiert Ergebnisse auf dem Host
//
// Der finale Hook erzwingt bei jeder Strategie die Fertigstellung der
// Geraetearbeit. Einzige Ausnahme ist DeferredSync mit SkipFinal: dort
// wartet der Aufrufer selbst, ausserhalb der Zeitmessung.
package bench

import (
	"context"

	"github.com/larch-ml/larch/ml"
)

// Sync hooks into a timed run. IterSync runs after every iteration but
// the last, FinalSync once before the clock starts and once after the
// last iteration.
type Sync interface {
	IterSync(ctx context.Context, results []ml.Tensor) error
	FinalSync(ctx context.Context, results []ml.Tensor) error
}

// NoSync does nothing. The reference backend on the cpu device has no
// asynchronous work to flush.
type NoSync struct{}

func (NoSync) IterSync(ctx context.Context, results []ml.Tensor) error {
	return nil
}

func (NoSync) FinalSync(ctx context.Context, results []ml.Tensor) error {
	return nil
}

// BarrierSync drains the device queue of the backend. With EveryIter
// the barrier runs after each iteration, otherwise only at the end.
type BarrierSync struct {
	Backend   ml.Backend
	EveryIter bool
}

func (s BarrierSync) IterSync(ctx context.Context, results []ml.Tensor) error {
	if !s.EveryIter {
		return nil
	}
	return s.Backend.Wait(ctx)
}

func (s BarrierSync) FinalSync(ctx context.Context, results []ml.Tensor) error {
	return s.Backend.Wait(ctx)
}

// DeferredSync ends the recording window of an accelerated backend
// after each iteration. The window is compiled and queued without
// blocking; with EveryIter a barrier follows each step. SkipFinal
// leaves the queued work running past the final hook, which isolates
// dispatch overhead from execution time.
type DeferredSync struct {
	Backend   ml.Backend
	EveryIter bool
	SkipFinal bool
}

func (s DeferredSync) IterSync(ctx context.Context, results []ml.Tensor) error {
	if err := s.Backend.MarkStep(); err != nil {
		return err
	}
	if !s.EveryIter {
		return nil
	}
	return s.Backend.Wait(ctx)
}

func (s DeferredSync) FinalSync(ctx context.Context, results []ml.Tensor) error {
	if err := s.Backend.MarkStep(); err != nil {
		return err
	}
	if s.SkipFinal {
		return nil
	}
	return s.Backend.Wait(ctx)
}

// ToHostSync forces results onto the host. Reading a deferred tensor
// flushes its window and waits for it, so the copy doubles as a
// synchronization point. The final hook moves every retained result
// unless EveryIter already moved them one by one.
type ToHostSync struct {
	Backend   ml.Backend
	EveryIter bool
}

func (s ToHostSync) IterSync(ctx context.Context, results []ml.Tensor) error {
	if !s.EveryIter || len(results) == 0 {
		return nil
	}
	results[len(results)-1].Floats()
	return s.Backend.Wait(ctx)
}

func (s ToHostSync) FinalSync(ctx context.Context, results []ml.Tensor) error {
	if len(results) > 0 {
		if s.EveryIter {
			results[len(results)-1].Floats()
		} else {
			for _, r := range results {
				r.Floats()
			}
		}
	}
	return s.Backend.Wait(ctx)
}
