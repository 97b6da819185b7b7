// timed.go - Getimte Ausfuehrung eines Benchmarks
//
// Ablauf einer Messung: finaler Sync vor dem Start (haengende Arbeit
// gehoert nicht in diese Probe), Seed zuruecksetzen, Uhr starten, n
// Iterationen mit Iterations-Sync dazwischen, finaler Sync, Uhr lesen.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/model"
)

// timed runs one measured pass over an instance and returns the last
// retained result (nil in train mode) and the elapsed wall time. The
// clock covers the iterations and the final sync, never the pre-sync.
func (rc *RunContext) timed(ctx context.Context, inst model.Instance, sync Sync, times int) (ml.Tensor, time.Duration, error) {
	var results []ml.Tensor

	if err := sync.FinalSync(ctx, nil); err != nil {
		return nil, 0, fmt.Errorf("pre-sync: %w", err)
	}

	if s, ok := inst.(model.Seeder); ok {
		s.Reseed(benchSeed)
	}

	var fw model.Forwarder
	var args model.CallArgs
	var tr model.Trainable
	switch rc.Opts.Test {
	case model.ModeEval:
		fw, args = inst.Module()
	case model.ModeTrain:
		tr, _ = inst.(model.Trainable)
		if tr == nil {
			return nil, 0, fmt.Errorf("instance %T does not support training", inst)
		}
	}

	start := time.Now()
	for i := 0; i < times; i++ {
		switch rc.Opts.Test {
		case model.ModeEval:
			out, err := model.Call(inst.Context(), fw, args)
			if err != nil {
				return nil, 0, err
			}
			results = append(results, out)
		case model.ModeTrain:
			if err := tr.Train(1); err != nil {
				return nil, 0, err
			}
		}

		if i < times-1 {
			if err := sync.IterSync(ctx, results); err != nil {
				return nil, 0, err
			}
		}
	}
	if err := sync.FinalSync(ctx, results); err != nil {
		return nil, 0, err
	}
	elapsed := time.Since(start)

	var last ml.Tensor
	if len(results) > 0 {
		last = results[len(results)-1]
	}
	return last, elapsed, nil
}
