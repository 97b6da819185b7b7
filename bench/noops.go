// noops.go - Trace-Only-Profiling ohne Kompilieren und Ausfuehren
//
// Das Lazy-Backend zeichnet 300 Iterationen nur auf und verwirft jedes
// Fenster wieder. Uebrig bleibt die reine Tracing-Rate, fuer Profiler
// unter dem Aufzeichnungspfad.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/model"
)

const tracingNoopIters = 300

func (rc *RunContext) runTracingNoops(ctx context.Context, p *Pair) error {
	ne, ok := rc.Lazy.(ml.NoopExecutor)
	if !ok {
		return fmt.Errorf("backend %s cannot disable execution", rc.Lazy.Name())
	}
	ne.SetNoopExecution(true)
	defer ne.SetNoopExecution(false)

	fmt.Fprintf(rc.out, "Profiling %s\n", p.Name)

	var fw model.Forwarder
	var args model.CallArgs
	var tr model.Trainable
	switch rc.Opts.Test {
	case model.ModeEval:
		fw, args = p.Lazy.Module()
	case model.ModeTrain:
		tr, _ = p.Lazy.(model.Trainable)
		if tr == nil {
			return fmt.Errorf("instance %T does not support training", p.Lazy)
		}
	}

	start := time.Now()
	for i := 0; i < tracingNoopIters; i++ {
		switch rc.Opts.Test {
		case model.ModeEval:
			if _, err := model.Call(p.Lazy.Context(), fw, args); err != nil {
				return err
			}
		case model.ModeTrain:
			if err := tr.Train(1); err != nil {
				return err
			}
		}
		if err := rc.Lazy.MarkStep(); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	fmt.Fprintf(rc.out, "Traced %d iterations in %.3f sec (%.1f iters/sec)\n",
		tracingNoopIters, elapsed.Seconds(), float64(tracingNoopIters)/elapsed.Seconds())
	return nil
}
