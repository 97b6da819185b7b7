// compile.go - Kompilierung eines Trace-Fensters zu einem Programm
//
// Dieses Modul enthaelt:
// - compile: Fenster -> Instruktionsliste, mit Fusion je nach Profil
// - Fusionsregeln: noopt keine Fusion, fuser0 nur Skalar-Ketten,
//   fuser1 Skalar- und Clamp-Ketten, fuser2 zusaetzlich binaere
//   Operationen mit Fenster-Eingaben als zweitem Operanden
//
// Fusion aendert das Ergebnis nicht: jede Stufe schreibt weiterhin
// ihren Slot, verschmolzen wird nur der Schleifendurchlauf.
package lazy

import "github.com/larch-ml/larch/ml"

// stage is one elementwise step of a (possibly fused) instruction.
type stage struct {
	kind     opKind
	b        int // slot of the second operand, -1 for unary
	scalar   float64
	min, max float32
	out      int
}

// instr executes one or more stages in a single pass over the data.
type instr struct {
	a      int // slot of the chain input
	elems  int
	stages []stage
}

// compiled is an executable program over a window-shaped register file.
type compiled struct {
	inputs int
	slots  int
	instrs []instr
}

func (p *compiled) fusedKernels() int {
	var n int
	for _, in := range p.instrs {
		if len(in.stages) > 1 {
			n++
		}
	}
	return n
}

// scalarOp reports whether a node is a unary elementwise operation
// that any fusing profile may merge into a chain.
func scalarOp(k opKind) bool {
	switch k {
	case opAddScalar, opScale, opClamp:
		return true
	}
	return false
}

// fusableInto reports whether node n may extend a chain ending in slot
// prevOut under the given profile. Binary extensions require the
// second operand to be a window input, so the fused loop can stream it.
func fusableInto(n node, prevOut int, fuser ml.Fuser, inputs int) bool {
	if n.a != prevOut {
		return false
	}

	switch fuser {
	case ml.FuserNoopt:
		return false
	case ml.FuserLegacy:
		return n.kind == opAddScalar || n.kind == opScale
	case ml.FuserNNC:
		return scalarOp(n.kind)
	case ml.FuserNVFuser:
		if scalarOp(n.kind) {
			return true
		}
		// binary stage: second operand must be a materialized input
		return n.b >= 0 && n.b < inputs
	default:
		return false
	}
}

// compile lowers a closed window into an instruction list, fusing
// consecutive nodes according to the profile.
func compile(w *window, fuser ml.Fuser) *compiled {
	inputs := len(w.inputs)
	prog := &compiled{
		inputs: inputs,
		slots:  inputs + len(w.nodes),
	}

	for i := 0; i < len(w.nodes); i++ {
		n := w.nodes[i]
		in := instr{
			a:     w.finalSlot(n.a),
			elems: n.elems,
			stages: []stage{{
				kind:   n.kind,
				b:      w.finalSlot(n.b),
				scalar: n.scalar,
				min:    n.min,
				max:    n.max,
				out:    w.finalSlot(n.out),
			}},
		}

		// greedily extend the chain
		for i+1 < len(w.nodes) {
			next := w.nodes[i+1]
			if !fusableInto(next, n.out, fuser, inputs) {
				break
			}
			in.stages = append(in.stages, stage{
				kind:   next.kind,
				b:      w.finalSlot(next.b),
				scalar: next.scalar,
				min:    next.min,
				max:    next.max,
				out:    w.finalSlot(next.out),
			})
			n = next
			i++
		}

		prog.instrs = append(prog.instrs, in)
	}

	return prog
}
