// callargs.go - Beispiel-Eingaben als getaggte Variante
//
// Enthält: CallArgs mit den Varianten Single, Positional und Named
// sowie den Call-Dispatcher des Harness.

package model

import (
	"fmt"
	"slices"

	"github.com/larch-ml/larch/ml"
)

// CallKind tags the shape of a module's example inputs.
type CallKind int

const (
	// CallInvalid is the zero value. Dispatching it panics.
	CallInvalid CallKind = iota
	CallSingle
	CallPositional
	CallNamed
)

// String gibt den Namen der Variante zurück
func (k CallKind) String() string {
	switch k {
	case CallSingle:
		return "single"
	case CallPositional:
		return "positional"
	case CallNamed:
		return "named"
	default:
		return fmt.Sprintf("invalid(%d)", int(k))
	}
}

// CallArgs carries a module's example inputs. Exactly the field for
// Kind is set; the rest stay nil.
type CallArgs struct {
	Kind CallKind

	Tensor  ml.Tensor
	Tensors []ml.Tensor
	Named   map[string]ml.Tensor
}

// Single wraps one input tensor.
func Single(t ml.Tensor) CallArgs {
	return CallArgs{Kind: CallSingle, Tensor: t}
}

// Positional wraps an ordered input list.
func Positional(ts ...ml.Tensor) CallArgs {
	return CallArgs{Kind: CallPositional, Tensors: ts}
}

// Named wraps keyword-style inputs.
func Named(m map[string]ml.Tensor) CallArgs {
	return CallArgs{Kind: CallNamed, Named: m}
}

// Inputs returns the input tensors in a stable order regardless of
// variant. The correctness gate uses it to move inputs across devices.
func (a CallArgs) Inputs() []ml.Tensor {
	switch a.Kind {
	case CallSingle:
		return []ml.Tensor{a.Tensor}
	case CallPositional:
		return a.Tensors
	case CallNamed:
		keys := make([]string, 0, len(a.Named))
		for k := range a.Named {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		out := make([]ml.Tensor, 0, len(keys))
		for _, k := range keys {
			out = append(out, a.Named[k])
		}
		return out
	default:
		panic(fmt.Sprintf("model: cannot list inputs of %s call arguments", a.Kind))
	}
}

// Call dispatches one forward pass. A CallArgs value with an unknown
// kind is a construction bug, not a runtime condition, and panics.
func Call(ctx ml.Context, fw Forwarder, args CallArgs) (ml.Tensor, error) {
	switch args.Kind {
	case CallSingle:
		return fw.Forward(ctx, args.Tensor)
	case CallPositional:
		return fw.Forward(ctx, args.Tensors...)
	case CallNamed:
		nf, ok := fw.(NamedForwarder)
		if !ok {
			panic(fmt.Sprintf("model: %T does not accept named call arguments", fw))
		}
		return nf.ForwardNamed(ctx, args.Named)
	default:
		panic(fmt.Sprintf("model: invalid call arguments kind %s", args.Kind))
	}
}
