// Package program - Versionierte Operator-Programme
//
// Dieses Paket definiert das textuelle Programm-Format des Harness:
// eine versionierte Liste von Operator-Aufrufen ueber Slot-Referenzen,
// mit verschachtelten Bloecken fuer Verzweigungen. Programme aelterer
// Versionen hebt das upgrade-Paket beim Laden auf die aktuelle Version.
//
// Hauptkomponenten:
// - Program/Decl/Op/Arg/Block: geparste Repraesentation
// - Parse/ParseFile: Text -> Program
// - Save/SaveFile: Program -> Text
// - Eval: Replay auf einem ml.Context

package program

// CurrentVersion is the format version new programs are saved at.
// Version 4 changed div and div_scalar from truncating to true
// division.
const CurrentVersion = 4

// Operator-Namen des Formats
const (
	OpAdd            = "add"
	OpSub            = "sub"
	OpMul            = "mul"
	OpDiv            = "div"
	OpDivTrunc       = "div_trunc"
	OpDivScalar      = "div_scalar"
	OpDivScalarTrunc = "div_scalar_trunc"
	OpAddScalar      = "add_scalar"
	OpScale          = "scale"
	OpClamp          = "clamp"
	OpIfFloat        = "if_float"
)

// signature beschreibt Stelligkeit und Blockzahl eines Operators.
// Operanden: 't' Tensor-Slot, 'v' Slot oder Skalar.
type signature struct {
	args     string
	variadic bool
	blocks   int
}

var signatures = map[string]signature{
	OpAdd:            {args: "tt"},
	OpSub:            {args: "tt"},
	OpMul:            {args: "tt"},
	OpDiv:            {args: "tt"},
	OpDivTrunc:       {args: "tt"},
	OpDivScalar:      {args: "tv"},
	OpDivScalarTrunc: {args: "tv"},
	OpAddScalar:      {args: "tv"},
	OpScale:          {args: "tv"},
	OpClamp:          {args: "tvv"},
	OpIfFloat:        {args: "v", variadic: true, blocks: 2},
}

// DeclKind unterscheidet die Deklarationen am Programmanfang.
type DeclKind int

const (
	// DeclInput declares a runtime-bound input slot.
	DeclInput DeclKind = iota
	// DeclWeight declares a slot bound from an attached weights file.
	DeclWeight
	// DeclConst declares a slot with an inline payload.
	DeclConst
	// DeclScalar declares a scalar formal. Only upgrader bodies carry
	// scalar formals; evaluating a program with one is an error.
	DeclScalar
)

func (k DeclKind) String() string {
	switch k {
	case DeclInput:
		return "input"
	case DeclWeight:
		return "weight"
	case DeclConst:
		return "const"
	case DeclScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// Decl ist eine Slot-Deklaration vor dem ersten Operator.
type Decl struct {
	Kind  DeclKind
	Slot  int
	Shape []int

	// Name is the weights-file key, weight declarations only.
	Name string

	// Values is the inline payload, const declarations only.
	Values []float32
}

// ArgKind unterscheidet Operanden-Formen.
type ArgKind int

const (
	ArgSlot ArgKind = iota
	ArgScalar
)

// Arg ist ein Operand: eine Slot-Referenz oder ein Skalar-Literal.
type Arg struct {
	Kind   ArgKind
	Slot   int
	Scalar float64

	// IsInt records whether a scalar literal was written without a
	// fractional form. if_float treats such operands as integral.
	IsInt bool
}

// SlotArg returns a slot-reference operand.
func SlotArg(slot int) Arg {
	return Arg{Kind: ArgSlot, Slot: slot}
}

// Block ist ein verschachtelter Operator-Block mit einem Ergebnis.
type Block struct {
	Ops []Op

	// Yield is the slot the block produces.
	Yield int
}

// Op ist ein Operator-Aufruf. Blocks ist nur fuer if_float belegt.
type Op struct {
	Result int
	Name   string
	Args   []Arg
	Blocks []*Block
}

// Program ist ein geparstes Programm.
type Program struct {
	Version int
	Decls   []Decl
	Ops     []Op
	Outputs []int
}

// MaxSlot returns the highest slot number referenced anywhere in the
// program, or -1 for an empty program. Upgraders allocate fresh slots
// above it.
func (p *Program) MaxSlot() int {
	maxSlot := -1
	note := func(s int) {
		if s > maxSlot {
			maxSlot = s
		}
	}

	for _, d := range p.Decls {
		note(d.Slot)
	}
	for _, s := range p.Outputs {
		note(s)
	}

	var walk func(ops []Op)
	walk = func(ops []Op) {
		for _, op := range ops {
			note(op.Result)
			for _, a := range op.Args {
				if a.Kind == ArgSlot {
					note(a.Slot)
				}
			}
			for _, b := range op.Blocks {
				note(b.Yield)
				walk(b.Ops)
			}
		}
	}
	walk(p.Ops)

	return maxSlot
}

// NumOps counts operators including those in nested blocks.
func (p *Program) NumOps() int {
	var count func(ops []Op) int
	count = func(ops []Op) int {
		n := len(ops)
		for _, op := range ops {
			for _, b := range op.Blocks {
				n += count(b.Ops)
			}
		}
		return n
	}
	return count(p.Ops)
}
