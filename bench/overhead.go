// overhead.go - Experiment: Dispatch-Overhead des Lazy-Tracings
//
// Misst, was die reine Aufzeichnung kostet: die Referenz laeuft mit
// Barriere, die beschleunigte Seite beendet nur ihr Fenster und laesst
// die Ausfuehrung weiterlaufen. Gewartet wird danach, ausserhalb der
// Uhr. Overhead ist der Median-Quotient beschleunigt / Referenz.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const overheadLabel = "trace overheads"

func (rc *RunContext) overheadExperiment(ctx context.Context, p *Pair) error {
	refSync := rc.refSync(true)
	warmSync := DeferredSync{Backend: rc.Lazy, EveryIter: true}

	// Warmup abwechselnd, damit Frequenz-Drift beide Seiten trifft
	warmup0 := time.Now()
	for i := 0; i < rc.Opts.Warmup; i++ {
		if _, _, err := rc.timed(ctx, p.Ref, refSync, 1); err != nil {
			return fmt.Errorf("warmup reference: %w", err)
		}
		if _, _, err := rc.timed(ctx, p.Lazy, warmSync, 1); err != nil {
			return fmt.Errorf("warmup accelerated: %w", err)
		}
	}
	warmupTime := time.Since(warmup0)

	measSync := DeferredSync{Backend: rc.Lazy, SkipFinal: true}
	timings := NewTimings(rc.Opts.Repeat)

	bench0 := time.Now()
	for i := 0; i < rc.Opts.Repeat; i++ {
		_, dref, err := rc.timed(ctx, p.Ref, refSync, 1)
		if err != nil {
			return fmt.Errorf("reference: %w", err)
		}
		_, dlazy, err := rc.timed(ctx, p.Lazy, measSync, 1)
		if err != nil {
			return fmt.Errorf("accelerated: %w", err)
		}

		// SkipFinal liess die Arbeit laufen; hier abraeumen,
		// ausserhalb der Messung
		if err := rc.Lazy.Wait(ctx); err != nil {
			return err
		}
		if err := rc.Ref.Wait(ctx); err != nil {
			return err
		}

		timings.Append(dref.Seconds(), dlazy.Seconds())
	}
	benchTime := time.Since(bench0)

	slog.Debug("overhead experiment finished", "name", p.Desc.Name,
		"warmup", warmupTime, "bench", benchTime)

	medRef, medLazy := timings.Medians()
	overhead := medLazy / medRef
	pvalue := timings.PValue()

	rc.appendRow(Row{
		Name:       p.Name,
		Device:     p.Device,
		Experiment: overheadLabel,
		Metric:     "overhead",
		Value:      overhead,
		PValue:     pvalue,
	})

	err := rc.csv.writeRow(
		fmt.Sprintf("lazy_overheads_%s.csv", rc.Opts.Test),
		[]string{"dev", "name", "overhead", "pvalue"},
		[]string{
			string(p.Device),
			p.Name,
			fmt.Sprintf("%.4f", overhead),
			fmt.Sprintf("%.4e", pvalue),
		},
	)
	if err != nil {
		return fmt.Errorf("writing overhead row: %w", err)
	}

	fmt.Fprintf(rc.out, "%s %-4s %-5s %-20s overhead: %.3f pvalue: %.2e\n",
		padName(p.Name, 30), p.Device, rc.Opts.Test, overheadLabel, overhead, pvalue)
	return nil
}
