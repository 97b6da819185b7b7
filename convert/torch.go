// torch.go - Laden von PyTorch-Checkpoints
// Hauptfunktionen: Load, stateDict, materialize
//
// Gelesen wird das Pickle-Format von torch.save, sowohl nackte
// state_dicts als auch Checkpoints, die das state_dict unter einem
// Wrapper-Schluessel tragen. Nur zusammenhaengende Float-Tensoren
// werden uebernommen.
package convert

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"

	"github.com/larch-ml/larch/ml"
)

// Tensor ist ein konvertierter Tensor mit Host-Daten in float32.
// DType ist der Element-Typ des Checkpoints und bestimmt, wie die
// Daten in der Gewichtsdatei wieder kodiert werden.
type Tensor struct {
	Name  string
	DType ml.DType
	Shape []int
	Data  []float32
}

// Elements gibt die Anzahl der Elemente zurueck
func (t Tensor) Elements() int {
	return ml.Elems(t.Shape...)
}

// Wrapper-Schluessel, unter denen Trainings-Checkpoints ihr
// state_dict ablegen.
var stateDictKeys = []string{"state_dict", "model_state_dict", "model"}

// Load - Liest einen Checkpoint und gibt die Tensoren namenssortiert zurueck
func Load(path string) ([]Tensor, error) {
	root, err := pytorch.Load(path)
	if err != nil {
		return nil, fmt.Errorf("convert: load %s: %w", path, err)
	}

	entries, err := stateDict(root)
	if err != nil {
		return nil, fmt.Errorf("convert: %s: %w", path, err)
	}

	var ts []Tensor
	for _, e := range entries {
		pt, ok := e.value.(*pytorch.Tensor)
		if !ok {
			slog.Debug("skipping non-tensor entry", "name", e.name, "type", fmt.Sprintf("%T", e.value))
			continue
		}

		t, ok, err := materialize(e.name, pt)
		if err != nil {
			return nil, fmt.Errorf("convert: tensor %q: %w", e.name, err)
		}
		if !ok {
			continue
		}
		ts = append(ts, t)
	}

	if len(ts) == 0 {
		return nil, fmt.Errorf("convert: %s holds no float tensors", path)
	}

	sort.Slice(ts, func(i, j int) bool { return ts[i].Name < ts[j].Name })
	return ts, nil
}

type entry struct {
	name  string
	value any
}

// stateDict - Extrahiert die benannten Eintraege aus dem Pickle-Objekt
//
// Ein Checkpoint ist entweder direkt das state_dict oder ein Dict mit
// einem der bekannten Wrapper-Schluessel. Genau eine Wrapper-Ebene
// wird aufgeloest.
func stateDict(root any) ([]entry, error) {
	entries, err := dictEntries(root)
	if err != nil {
		return nil, err
	}

	for _, key := range stateDictKeys {
		for _, e := range entries {
			if e.name != key {
				continue
			}
			if inner, err := dictEntries(e.value); err == nil {
				slog.Debug("unwrapping checkpoint", "key", key)
				return inner, nil
			}
		}
	}
	return entries, nil
}

// dictEntries - Zaehlt ein Pickle-Dict in stabiler Reihenfolge auf
func dictEntries(obj any) ([]entry, error) {
	var entries []entry

	switch d := obj.(type) {
	case *types.Dict:
		for _, e := range *d {
			name, ok := e.Key.(string)
			if !ok {
				slog.Debug("skipping non-string key", "key", fmt.Sprintf("%v", e.Key))
				continue
			}
			entries = append(entries, entry{name: name, value: e.Value})
		}
	case *types.OrderedDict:
		for key, e := range d.Map {
			name, ok := key.(string)
			if !ok {
				slog.Debug("skipping non-string key", "key", fmt.Sprintf("%v", key))
				continue
			}
			entries = append(entries, entry{name: name, value: e.Value})
		}
	default:
		return nil, fmt.Errorf("unexpected checkpoint root %T", obj)
	}

	// Map-Iteration ist nicht deterministisch, also nach Namen sortieren.
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}

// materialize - Kopiert die Tensor-Daten aus dem Storage
//
// Nicht-Float-Storages werden uebersprungen (ok=false), nicht
// zusammenhaengende Tensoren sind ein Fehler. Double wird auf float32
// verengt.
func materialize(name string, pt *pytorch.Tensor) (Tensor, bool, error) {
	elems := 1
	for _, d := range pt.Size {
		elems *= d
	}

	if err := checkContiguous(pt.Size, pt.Stride); err != nil {
		return Tensor{}, false, err
	}

	t := Tensor{Name: name, Shape: append([]int(nil), pt.Size...)}

	var data []float32
	switch src := pt.Source.(type) {
	case *pytorch.FloatStorage:
		t.DType, data = ml.DTypeF32, src.Data
	case *pytorch.HalfStorage:
		t.DType, data = ml.DTypeF16, src.Data
	case *pytorch.BFloat16Storage:
		t.DType, data = ml.DTypeBF16, src.Data
	case *pytorch.DoubleStorage:
		slog.Debug("narrowing float64 tensor to float32", "name", name)
		t.DType = ml.DTypeF32
		data = make([]float32, len(src.Data))
		for i, v := range src.Data {
			data[i] = float32(v)
		}
	default:
		slog.Debug("skipping tensor with unsupported storage", "name", name, "type", fmt.Sprintf("%T", pt.Source))
		return Tensor{}, false, nil
	}

	if pt.StorageOffset+elems > len(data) {
		return Tensor{}, false, fmt.Errorf("storage holds %d values, tensor wants %d at offset %d",
			len(data), elems, pt.StorageOffset)
	}

	t.Data = make([]float32, elems)
	copy(t.Data, data[pt.StorageOffset:pt.StorageOffset+elems])
	return t, true, nil
}

// checkContiguous - Prueft die Strides gegen das natuerliche Row-Major-Layout
func checkContiguous(size, stride []int) error {
	if len(stride) != len(size) {
		return fmt.Errorf("%d strides for %d dimensions", len(stride), len(size))
	}

	expect := 1
	for i := len(size) - 1; i >= 0; i-- {
		if size[i] > 1 && stride[i] != expect {
			return fmt.Errorf("non-contiguous layout: size %v stride %v", size, stride)
		}
		expect *= size[i]
	}
	return nil
}
