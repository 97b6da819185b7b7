// apply.go - Einsetzen der Upgrader-Ruempfe
//
// Dieses Modul enthaelt:
// - Apply: tiefensuchender Rewrite-Pass ueber alle Operatoren
// - inline: setzt einen Rumpf an einer Aufrufstelle ein
//
// Formale Slots des Rumpfs werden positionsweise auf die Operanden der
// Aufrufstelle abgebildet, innere Slots bekommen frische Nummern
// oberhalb des bisherigen Maximums, und der Ausgabe-Slot des Rumpfs
// uebernimmt den Ergebnis-Slot der ersetzten Operation.

package upgrade

import (
	"fmt"

	"github.com/larch-ml/larch/program"
)

// Apply rewrites calls of operators with old semantics and bumps the
// program version. Programs at the current version pass through
// unchanged.
func Apply(p *program.Program) error {
	Populate()

	loaded := p.Version
	next := p.MaxSlot() + 1
	maxBump := -1

	var walk func(ops []program.Op) ([]program.Op, error)
	walk = func(ops []program.Op) ([]program.Op, error) {
		out := make([]program.Op, 0, len(ops))
		for _, op := range ops {
			// depth-first, nested blocks first
			for _, blk := range op.Blocks {
				rewritten, err := walk(blk.Ops)
				if err != nil {
					return nil, err
				}
				blk.Ops = rewritten
			}

			e, ok := findEntry(op.Name, loaded)
			if !ok {
				out = append(out, op)
				continue
			}

			body, err := upgraderBody(e.Name)
			if err != nil {
				return nil, err
			}

			inlined, err := inline(body, op, &next)
			if err != nil {
				return nil, fmt.Errorf("upgrade: %s: %w", e.Name, err)
			}

			out = append(out, inlined...)
			if e.BumpedAt > maxBump {
				maxBump = e.BumpedAt
			}
		}
		return out, nil
	}

	ops, err := walk(p.Ops)
	if err != nil {
		return err
	}
	p.Ops = ops

	if maxBump >= 0 && maxBump+1 > p.Version {
		p.Version = maxBump + 1
	}
	return nil
}

// inline klont den Rumpf mit umgeschriebenen Slots an die Aufrufstelle.
func inline(body *program.Program, call program.Op, next *int) ([]program.Op, error) {
	if len(body.Decls) != len(call.Args) {
		return nil, fmt.Errorf("body expects %d operands, call has %d", len(body.Decls), len(call.Args))
	}

	// repl maps body slots to call-site operands and fresh slots
	repl := make(map[int]program.Arg, len(body.Decls))
	for i, d := range body.Decls {
		a := call.Args[i]
		switch d.Kind {
		case program.DeclInput:
			if a.Kind != program.ArgSlot {
				return nil, fmt.Errorf("operand %d must be a slot", i+1)
			}
		case program.DeclScalar:
			if a.Kind != program.ArgScalar {
				return nil, fmt.Errorf("operand %d must be a scalar", i+1)
			}
		default:
			return nil, fmt.Errorf("unsupported %s declaration in body", d.Kind)
		}
		repl[d.Slot] = a
	}

	// the body's output takes over the result slot of the call
	repl[body.Outputs[0]] = program.SlotArg(call.Result)

	resultSlot := func(s int) (int, error) {
		if a, ok := repl[s]; ok {
			if a.Kind != program.ArgSlot {
				return 0, fmt.Errorf("slot %%%d redefined as scalar", s)
			}
			return a.Slot, nil
		}
		a := program.SlotArg(*next)
		*next++
		repl[s] = a
		return a.Slot, nil
	}

	var cloneOps func(ops []program.Op) ([]program.Op, error)
	cloneOps = func(ops []program.Op) ([]program.Op, error) {
		out := make([]program.Op, 0, len(ops))
		for _, op := range ops {
			c := program.Op{Name: op.Name}

			var err error
			if c.Result, err = resultSlot(op.Result); err != nil {
				return nil, err
			}

			for _, a := range op.Args {
				if a.Kind != program.ArgSlot {
					c.Args = append(c.Args, a)
					continue
				}
				ra, ok := repl[a.Slot]
				if !ok {
					return nil, fmt.Errorf("body references undefined slot %%%d", a.Slot)
				}
				c.Args = append(c.Args, ra)
			}

			for _, blk := range op.Blocks {
				clonedOps, err := cloneOps(blk.Ops)
				if err != nil {
					return nil, err
				}
				y, ok := repl[blk.Yield]
				if !ok || y.Kind != program.ArgSlot {
					return nil, fmt.Errorf("body yield %%%d is unmapped", blk.Yield)
				}
				c.Blocks = append(c.Blocks, &program.Block{Ops: clonedOps, Yield: y.Slot})
			}

			out = append(out, c)
		}
		return out, nil
	}

	return cloneOps(body.Ops)
}
