// iter.go - Katalog-Iteration mit Filtern und Skip-Listen
//
// Dieses Modul enthaelt:
// - skip / skipTrainOnly: Namens-Tabellen fuer bekannte Problemfaelle
// - Pair: Referenz- und beschleunigte Instanz eines Benchmarks
// - Models: Lazy-Sequenz ueber den gefilterten Katalog
// - closestName: Namensvorschlag bei leerem Filterergebnis
package bench

import (
	"iter"
	"log/slog"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/model"
)

// benchSeed pins weights and example inputs, so the reference and the
// accelerated instance of a pair start out identical.
const benchSeed = 1337

// skip lists benchmarks that are excluded on every device and in every
// mode. External catalogs may carry these names.
var skip = map[string]bool{
	"fastNLP_Bert":           true,
	"vision_maskrcnn":        true,
	"speech_trasformer":      true,
	"nvidia_deeprecommender": true,
	"pytorch_struct":         true,
	"dlrm":                   true,
	"LearningToPaint":        true,
	"drq":                    true,
	"moco":                   true,
}

// skipTrainOnly lists benchmarks that only run in eval mode.
var skipTrainOnly = map[string]bool{
	"squeezenet1_1":              true,
	"mobilenet_v2_quantized_qat": true,
	"hf_Reformer":                true,
	"hf_GPT2":                    true,
	"hf_BigBird":                 true,
	"pyhpc_equation_of_state":    true,
	"pyhpc_isoneutral_mixing":    true,
}

// Pair holds one benchmark constructed on both backends from the same
// seed. Name is already shortened for reports; Desc keeps the full
// catalog entry.
type Pair struct {
	Device ml.Device
	Name   string
	Desc   model.Descriptor

	Ref  model.Instance
	Lazy model.Instance
}

// Close gibt beide Instanzen frei
func (p *Pair) Close() {
	p.Ref.Close()
	p.Lazy.Close()
}

// Models yields one Pair per catalog entry that passes the skip
// tables, the include/exclude filters and the capability query. The
// sequence constructs instances on demand; the consumer owns closing
// every pair it receives. Constructor errors skip the entry.
func (rc *RunContext) Models() iter.Seq[*Pair] {
	return func(yield func(*Pair) bool) {
		for _, desc := range rc.catalog {
			if skip[desc.Name] {
				continue
			}
			if rc.Opts.Test == model.ModeTrain && skipTrainOnly[desc.Name] {
				continue
			}
			if !rc.matches(desc.Name) {
				continue
			}
			if desc.Supports != nil && !desc.Supports(rc.Opts.Device, rc.Opts.Test) {
				slog.Debug("benchmark not supported, skipping",
					"name", desc.Name, "device", rc.Opts.Device, "test", rc.Opts.Test)
				continue
			}

			ref, err := desc.New(rc.Ref, benchSeed)
			if err != nil {
				slog.Error("constructing reference instance", "name", desc.Name, "error", err)
				continue
			}
			lazy, err := desc.New(rc.Lazy, benchSeed)
			if err != nil {
				ref.Close()
				slog.Error("constructing accelerated instance", "name", desc.Name, "error", err)
				continue
			}

			p := &Pair{
				Device: rc.Opts.Device,
				Name:   shortName(desc.Name, 20),
				Desc:   desc,
				Ref:    ref,
				Lazy:   lazy,
			}
			if !yield(p) {
				return
			}
		}
	}
}

// matches applies the include filters (any may match) and then the
// exclude filters (none may match).
func (rc *RunContext) matches(name string) bool {
	if len(rc.filters) > 0 {
		ok := false
		for _, re := range rc.filters {
			if re.MatchString(name) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	for _, re := range rc.excludes {
		if re.MatchString(name) {
			return false
		}
	}
	return true
}

// closestName returns the catalog name with the smallest edit distance
// to any of the given patterns, for the "did you mean" hint when a
// filter matches nothing.
func closestName(names, patterns []string) string {
	best := ""
	bestDist := -1
	for _, p := range patterns {
		lp := strings.ToLower(p)
		for _, n := range names {
			d := levenshtein.ComputeDistance(lp, strings.ToLower(n))
			if bestDist < 0 || d < bestDist {
				bestDist, best = d, n
			}
		}
	}
	return best
}
