// eval.go - Replay eines Programms auf einem Tensor-Kontext
//
// Dieses Modul enthaelt:
// - Eval: fuehrt ein Programm ueber gebundene Eingabe-Slots aus
// - if_float: Verzweigung nach Element-Typ der Operanden
//
// Skalare Divisionen materialisieren den Divisor als konstanten Tensor,
// damit beide Divisionspfade durch dieselben Tensor-Operationen laufen.

package program

import (
	"fmt"

	"github.com/larch-ml/larch/ml"
)

// Eval replays p on ctx. bind provides tensors for input and weight
// slots; const slots materialize from their payload. The returned
// slice follows the program's output order.
func Eval(ctx ml.Context, p *Program, bind map[int]ml.Tensor) ([]ml.Tensor, error) {
	env := make(map[int]ml.Tensor, len(p.Decls)+len(p.Ops))

	for _, d := range p.Decls {
		switch d.Kind {
		case DeclInput, DeclWeight:
			t, ok := bind[d.Slot]
			if !ok {
				return nil, fmt.Errorf("program: %s slot %%%d is not bound", d.Kind, d.Slot)
			}
			env[d.Slot] = t
		case DeclConst:
			env[d.Slot] = ctx.FromFloats(d.Values, d.Shape...)
		case DeclScalar:
			return nil, fmt.Errorf("program: scalar formal %%%d outside an upgrader body", d.Slot)
		}
	}

	if err := evalOps(ctx, p.Ops, env); err != nil {
		return nil, err
	}

	outs := make([]ml.Tensor, len(p.Outputs))
	for i, s := range p.Outputs {
		t, ok := env[s]
		if !ok {
			return nil, fmt.Errorf("program: output slot %%%d is never defined", s)
		}
		outs[i] = t
	}
	return outs, nil
}

func evalOps(ctx ml.Context, ops []Op, env map[int]ml.Tensor) error {
	for i := range ops {
		if err := evalOp(ctx, &ops[i], env); err != nil {
			return err
		}
	}
	return nil
}

func evalOp(ctx ml.Context, op *Op, env map[int]ml.Tensor) error {
	switch op.Name {
	case OpIfFloat:
		return evalIfFloat(ctx, op, env)

	case OpAdd, OpSub, OpMul, OpDiv, OpDivTrunc:
		a, err := tensorArg(env, op.Args[0])
		if err != nil {
			return opErr(op, err)
		}
		b, err := tensorArg(env, op.Args[1])
		if err != nil {
			return opErr(op, err)
		}

		switch op.Name {
		case OpAdd:
			env[op.Result] = a.Add(ctx, b)
		case OpSub:
			env[op.Result] = a.Sub(ctx, b)
		case OpMul:
			env[op.Result] = a.Mul(ctx, b)
		case OpDiv:
			env[op.Result] = a.Div(ctx, b)
		case OpDivTrunc:
			env[op.Result] = a.TruncDiv(ctx, b)
		}
		return nil

	case OpDivScalar, OpDivScalarTrunc, OpAddScalar, OpScale:
		a, err := tensorArg(env, op.Args[0])
		if err != nil {
			return opErr(op, err)
		}
		s, err := scalarArg(op.Args[1])
		if err != nil {
			return opErr(op, err)
		}

		switch op.Name {
		case OpDivScalar:
			env[op.Result] = a.Div(ctx, fullLike(ctx, a, float32(s)))
		case OpDivScalarTrunc:
			env[op.Result] = a.TruncDiv(ctx, fullLike(ctx, a, float32(s)))
		case OpAddScalar:
			env[op.Result] = a.AddScalar(ctx, s)
		case OpScale:
			env[op.Result] = a.Scale(ctx, s)
		}
		return nil

	case OpClamp:
		a, err := tensorArg(env, op.Args[0])
		if err != nil {
			return opErr(op, err)
		}
		lo, err := scalarArg(op.Args[1])
		if err != nil {
			return opErr(op, err)
		}
		hi, err := scalarArg(op.Args[2])
		if err != nil {
			return opErr(op, err)
		}

		env[op.Result] = a.Clamp(ctx, float32(lo), float32(hi))
		return nil

	default:
		return fmt.Errorf("program: unknown operator %q", op.Name)
	}
}

// evalIfFloat nimmt den then-Block, wenn irgendein Operand einen
// Gleitkomma-Typ traegt, sonst den else-Block.
func evalIfFloat(ctx ml.Context, op *Op, env map[int]ml.Tensor) error {
	cond := false
	for _, a := range op.Args {
		switch a.Kind {
		case ArgSlot:
			t, err := tensorArg(env, a)
			if err != nil {
				return opErr(op, err)
			}
			if t.DType().IsFloat() {
				cond = true
			}
		case ArgScalar:
			if !a.IsInt {
				cond = true
			}
		}
	}

	blk := op.Blocks[0]
	if !cond {
		blk = op.Blocks[1]
	}

	if err := evalOps(ctx, blk.Ops, env); err != nil {
		return err
	}

	y, ok := env[blk.Yield]
	if !ok {
		return fmt.Errorf("program: yield slot %%%d is never defined", blk.Yield)
	}
	env[op.Result] = y
	return nil
}

func tensorArg(env map[int]ml.Tensor, a Arg) (ml.Tensor, error) {
	if a.Kind != ArgSlot {
		return nil, fmt.Errorf("tensor operand expected")
	}
	t, ok := env[a.Slot]
	if !ok {
		return nil, fmt.Errorf("slot %%%d referenced before definition", a.Slot)
	}
	return t, nil
}

func scalarArg(a Arg) (float64, error) {
	if a.Kind != ArgScalar {
		return 0, fmt.Errorf("scalar operand expected, got %%%d", a.Slot)
	}
	return a.Scalar, nil
}

func opErr(op *Op, err error) error {
	return fmt.Errorf("program: %s: %w", op.Name, err)
}

// fullLike materialisiert einen Tensor in der Shape von t, gefuellt
// mit v. Fuer integrale Tensoren mit ganzzahligem v bleibt der
// Element-Typ integral, damit div_scalar_trunc int/int -> int ergibt.
func fullLike(ctx ml.Context, t ml.Tensor, v float32) ml.Tensor {
	shape := t.Shape()
	n := ml.Elems(shape...)

	if t.DType() == ml.DTypeI32 && v == float32(int32(v)) {
		data := make([]int32, n)
		for i := range data {
			data[i] = int32(v)
		}
		return ctx.FromInts(data, shape...)
	}

	data := make([]float32, n)
	for i := range data {
		data[i] = v
	}
	return ctx.FromFloats(data, shape...)
}
