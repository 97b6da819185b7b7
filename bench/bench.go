// Package bench - Harness fuer Eager-vs-Lazy-Benchmarks
//
// Dieses Paket enthaelt:
// - RunContext: Zustand eines Laufs (Backends, Katalog, Filter, Senken)
// - Models: Iteration ueber den gefilterten Katalog
// - Korrektheits-Gate vor den Experimenten (nur eval)
// - Overhead-Experiment: Kosten des reinen Tracings
// - Compute-Experimente: Speedup amortisiert und unamortisiert, unter
//   dem gewaehlten Fuser-Profil
// - CSV-Ausgabe und Ergebnis-Zeilen fuer die History
//
// Der Ablauf pro Benchmark folgt immer derselben Reihenfolge: Gate,
// Overhead, dann beide Compute-Experimente. Ein Gate-Fehlschlag
// ueberspringt die Experimente des Benchmarks, bricht den Lauf aber
// nicht ab.
package bench

import (
	"context"
	"fmt"

	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/model"
)

// Run executes the full harness over the filtered catalog. Experiment
// errors abort the run; per-model gate failures only skip that model.
func (rc *RunContext) Run(ctx context.Context) error {
	matched := 0
	for p := range rc.Models() {
		matched++

		if rc.Opts.TracingNoops {
			err := rc.runTracingNoops(ctx, p)
			p.Close()
			// profiling wants exactly one model, then a clean exit
			return err
		}

		if err := rc.runPair(ctx, p); err != nil {
			p.Close()
			return fmt.Errorf("%s: %w", p.Desc.Name, err)
		}
		p.Close()
	}

	if matched == 0 && len(rc.Opts.Filter) > 0 {
		names := make([]string, 0, len(rc.catalog))
		for _, d := range rc.catalog {
			names = append(names, d.Name)
		}
		if s := closestName(names, rc.Opts.Filter); s != "" {
			fmt.Fprintf(rc.out, "no models matched; closest catalog name is %q\n", s)
		}
	}
	return nil
}

// runPair runs the gate and all experiments for one benchmark pair.
func (rc *RunContext) runPair(ctx context.Context, p *Pair) error {
	if rc.Opts.Test == model.ModeEval && !rc.checkResults(p) {
		return nil
	}

	if err := rc.overheadExperiment(ctx, p); err != nil {
		return err
	}

	restore := func() {}
	if fus, ok := rc.Lazy.(ml.Fusable); ok {
		restore = fus.SetFuser(rc.Opts.Fuser)
	}
	defer restore()

	amortized := fmt.Sprintf("amortized %dx", rc.Opts.InnerLoopRepeat)
	if err := rc.computeExperiment(ctx, amortized, p, false); err != nil {
		return err
	}
	if err := rc.computeExperiment(ctx, "unamortized", p, true); err != nil {
		return err
	}

	// Leerzeile zwischen den Benchmarks
	fmt.Fprintln(rc.out)
	return nil
}
