// check.go - Korrektheits-Gate vor den Experimenten
//
// Dieses Modul enthaelt:
// - checkResults: Fuehrt beide Instanzen mit fixem Seed aus und
//   vergleicht die Ergebnisse auf dem Host
// - allClose: Naeherungsvergleich mit relativer und absoluter Toleranz
package bench

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/model"
)

// Toleranzen des Gates (float32-Ausgaben)
const (
	checkRTol = 1e-4
	checkATol = 1e-5
)

// checkResults reruns both instances of a pair from the bench seed and
// compares the outputs elementwise on the host. A mismatch prints
// INCORRECT, an execution error prints ERROR; both report false and
// the caller skips the experiments for this pair.
func (rc *RunContext) checkResults(p *Pair) bool {
	ok, err := rc.compareOutputs(p)
	if err != nil {
		slog.Error("correctness check failed to run", "name", p.Desc.Name, "error", err)
		fmt.Fprintf(rc.out, "ERROR (%s)\n", p.Name)
		return false
	}
	if !ok {
		fmt.Fprintf(rc.out, "INCORRECT (%s)\n", p.Name)
		return false
	}
	return true
}

func (rc *RunContext) compareOutputs(p *Pair) (bool, error) {
	refOut, err := runOnce(p.Ref)
	if err != nil {
		return false, fmt.Errorf("reference: %w", err)
	}
	lazyOut, err := runOnce(p.Lazy)
	if err != nil {
		return false, fmt.Errorf("accelerated: %w", err)
	}

	if !slices.Equal(refOut.Shape(), lazyOut.Shape()) {
		return false, nil
	}

	// Floats moves both outputs to the host; for the deferred output
	// this flushes and waits.
	ok := allClose(refOut.Floats(), lazyOut.Floats(), checkRTol, checkATol)
	if !ok {
		slog.Debug("output mismatch",
			"name", p.Desc.Name,
			"reference", ml.Dump(refOut, ml.DumpWithThreshold(64)),
			"accelerated", ml.Dump(lazyOut, ml.DumpWithThreshold(64)))
	}
	return ok, nil
}

// runOnce reseeds an instance and runs a single forward pass.
func runOnce(inst model.Instance) (ml.Tensor, error) {
	if s, ok := inst.(model.Seeder); ok {
		s.Reseed(benchSeed)
	}
	fw, args := inst.Module()
	return model.Call(inst.Context(), fw, args)
}

// allClose reports elementwise |a-b| <= atol + rtol*|b|.
func allClose(a, b []float32, rtol, atol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		diff := math.Abs(float64(a[i]) - float64(b[i]))
		if diff > atol+rtol*math.Abs(float64(b[i])) {
			return false
		}
	}
	return true
}
