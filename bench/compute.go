// compute.go - Experiment: Rechen-Speedup unter einem Fuser-Profil
//
// Dieses Modul enthaelt:
// - computeExperiment: inner_loop_repeat Aufrufe pro Messprobe, einmal
//   amortisiert (Sync nur am Ende) und einmal unamortisiert (Sync pro
//   Iteration)
// - Counter-Validierung: Jede Iteration muss genau einen Cache-Treffer
//   kompilieren; Abweichungen und Eager-Fallbacks werden gemeldet
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/larch-ml/larch/metrics"
	"github.com/larch-ml/larch/ml/backend/lazy"
)

func (rc *RunContext) computeExperiment(ctx context.Context, experiment string, p *Pair, everyIter bool) error {
	refSync := rc.refSync(everyIter)
	lazySync := DeferredSync{Backend: rc.Lazy, EveryIter: everyIter}
	inner := rc.Opts.InnerLoopRepeat

	// Warmup abwechselnd und mit einer Iteration pro Probe; fuer den
	// Compile-Cache zaehlt nur, dass die Struktur einmal gesehen wurde
	warmup0 := time.Now()
	for i := 0; i < rc.Opts.Warmup; i++ {
		if _, _, err := rc.timed(ctx, p.Ref, refSync, 1); err != nil {
			return fmt.Errorf("warmup reference: %w", err)
		}
		if _, _, err := rc.timed(ctx, p.Lazy, lazySync, 1); err != nil {
			return fmt.Errorf("warmup accelerated: %w", err)
		}
	}
	warmupTime := time.Since(warmup0)

	// ab hier zaehlen nur die Messproben
	metrics.Default.Reset()

	timings := NewTimings(rc.Opts.Repeat)
	bench0 := time.Now()
	for i := 0; i < rc.Opts.Repeat; i++ {
		_, dref, err := rc.timed(ctx, p.Ref, refSync, inner)
		if err != nil {
			return fmt.Errorf("reference: %w", err)
		}
		_, dlazy, err := rc.timed(ctx, p.Lazy, lazySync, inner)
		if err != nil {
			return fmt.Errorf("accelerated: %w", err)
		}
		timings.Append(dref.Seconds(), dlazy.Seconds())
	}
	benchTime := time.Since(bench0)

	slog.Debug("compute experiment finished", "name", p.Desc.Name,
		"experiment", experiment, "warmup", warmupTime, "bench", benchTime)

	snap := metrics.Default.Snapshot()

	want := int64(rc.Opts.Repeat * inner)
	if cached := snap[lazy.CounterCachedCompile]; cached != want {
		slog.Warn("cached compile count indicates fallbacks, or something else",
			"name", p.Desc.Name, "cached", cached, "expected", want)
	}
	if fallbacks := metrics.Fallbacks(snap); len(fallbacks) > 0 {
		names := make([]string, 0, len(fallbacks))
		for name := range fallbacks {
			names = append(names, name)
		}
		slices.Sort(names)
		slog.Warn("eager fallbacks detected", "name", p.Desc.Name, "counters", names)
	}
	if rc.Opts.DumpCounters {
		dumpCounters(rc.out, snap)
	}

	medRef, medLazy := timings.Medians()
	speedup := medRef / medLazy
	pvalue := timings.PValue()

	rc.appendRow(Row{
		Name:       p.Name,
		Device:     p.Device,
		Experiment: experiment,
		Metric:     "speedup",
		Value:      speedup,
		PValue:     pvalue,
	})

	err := rc.csv.writeRow(
		fmt.Sprintf("lazy_compute_%s.csv", rc.Opts.Test),
		[]string{"name", "dev", "experiment", "speedup", "pvalue"},
		[]string{
			p.Name,
			string(p.Device),
			experiment,
			fmt.Sprintf("%.4f", speedup),
			fmt.Sprintf("%.2e", pvalue),
		},
	)
	if err != nil {
		return fmt.Errorf("writing compute row: %w", err)
	}

	fmt.Fprintf(rc.out, "%s %-4s %-5s %-20s speedup:  %.3f pvalue: %.2e\n",
		padName(p.Name, 30), p.Device, rc.Opts.Test, experiment, speedup, pvalue)
	return nil
}
