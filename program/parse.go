// parse.go - Zeilenorientierter Parser des Programm-Formats
//
// Dieses Modul enthaelt:
// - Parse/ParseFile: liest ein Programm aus Text
// - ParserError: Fehler mit Zeilennummer
//
// Eine Zeile ist ein Kommentar (#), die Versionszeile, eine
// Deklaration, ein Operator, eine Blockgrenze oder ein yield/output.

package program

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/larch-ml/larch/ml"
)

var (
	errMissingVersion = errors.New("missing version header")
	errDeclAfterOp    = errors.New("declarations must precede operators")
)

// ParserError traegt die Zeilennummer der fehlerhaften Zeile.
type ParserError struct {
	LineNumber int
	Msg        string
}

func (e *ParserError) Error() string {
	if e.LineNumber > 0 {
		return fmt.Sprintf("(line %d): %s", e.LineNumber, e.Msg)
	}
	return e.Msg
}

// parser haelt den Block-Stack waehrend des Einlesens.
type parser struct {
	prog *Program

	// open if_float ops, innermost last; blocks mirrors the stack with
	// the block currently being filled.
	ops    []*Op
	blocks []*Block

	sawVersion bool
	sawOp      bool
	line       int
}

// ParseFile liest ein Programm von der Festplatte.
func ParseFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Parse liest ein Programm aus r.
func Parse(r io.Reader) (*Program, error) {
	p := &parser{prog: &Program{}}

	tr := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	sc := bufio.NewScanner(transform.NewReader(r, tr))

	for sc.Scan() {
		p.line++
		if err := p.parseLine(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(p.blocks) > 0 {
		return nil, fmt.Errorf("%w: unclosed block", io.ErrUnexpectedEOF)
	}
	if !p.sawVersion {
		return nil, p.errorf("%s", errMissingVersion.Error())
	}

	return p.prog, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParserError{LineNumber: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseLine(raw string) error {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	if !p.sawVersion {
		n, ok := strings.CutPrefix(line, "version:")
		if !ok {
			return p.errorf("first line must be the version header")
		}
		v, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || v < 0 {
			return p.errorf("invalid version %q", strings.TrimSpace(n))
		}
		p.prog.Version = v
		p.sawVersion = true
		return nil
	}

	switch {
	case line == "}":
		return p.closeBlock()
	case line == "} else {":
		return p.elseBlock()
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "input", "weight", "const", "scalar":
		return p.parseDecl(fields)
	case "yield":
		return p.parseYield(fields)
	case "output":
		return p.parseOutput(fields)
	default:
		return p.parseOp(fields)
	}
}

// parseDecl liest input/weight/const/scalar-Zeilen.
func (p *parser) parseDecl(fields []string) error {
	if p.sawOp || len(p.blocks) > 0 {
		return p.errorf("%s", errDeclAfterOp.Error())
	}
	if len(fields) < 2 {
		return p.errorf("%s declaration needs a slot", fields[0])
	}

	slot, err := parseSlot(fields[1])
	if err != nil {
		return p.errorf("%s declaration: %v", fields[0], err)
	}

	d := Decl{Slot: slot}
	switch fields[0] {
	case "input":
		d.Kind = DeclInput
		// the shape is optional, upgrader formals carry none
		if len(fields) > 2 {
			if d.Shape, err = parseShape(fields[2]); err != nil {
				return p.errorf("input %%%d: %v", slot, err)
			}
		}
	case "scalar":
		d.Kind = DeclScalar
	case "weight":
		d.Kind = DeclWeight
		if len(fields) != 4 || !strings.HasPrefix(fields[3], "@") {
			return p.errorf("weight declaration needs a shape and an @name")
		}
		if d.Shape, err = parseShape(fields[2]); err != nil {
			return p.errorf("weight %%%d: %v", slot, err)
		}
		d.Name = strings.TrimPrefix(fields[3], "@")
		if d.Name == "" {
			return p.errorf("weight %%%d: empty name", slot)
		}
	case "const":
		d.Kind = DeclConst
		if len(fields) < 4 || fields[3] != "=" {
			return p.errorf("const declaration needs a shape and = values")
		}
		if d.Shape, err = parseShape(fields[2]); err != nil {
			return p.errorf("const %%%d: %v", slot, err)
		}
		for _, tok := range fields[4:] {
			v, err := strconv.ParseFloat(tok, 32)
			if err != nil {
				return p.errorf("const %%%d: invalid value %q", slot, tok)
			}
			d.Values = append(d.Values, float32(v))
		}
		if want := ml.Elems(d.Shape...); len(d.Values) != want {
			return p.errorf("const %%%d: %d values for shape with %d elements", slot, len(d.Values), want)
		}
	}

	p.prog.Decls = append(p.prog.Decls, d)
	return nil
}

func (p *parser) parseYield(fields []string) error {
	if len(p.blocks) == 0 {
		return p.errorf("yield outside a block")
	}
	if len(fields) != 2 {
		return p.errorf("yield needs exactly one slot")
	}

	slot, err := parseSlot(fields[1])
	if err != nil {
		return p.errorf("yield: %v", err)
	}

	blk := p.blocks[len(p.blocks)-1]
	if blk.Yield >= 0 {
		return p.errorf("duplicate yield")
	}
	blk.Yield = slot
	return nil
}

func (p *parser) parseOutput(fields []string) error {
	if len(p.blocks) > 0 {
		return p.errorf("output inside a block")
	}
	if len(fields) != 2 {
		return p.errorf("output needs exactly one slot")
	}

	slot, err := parseSlot(fields[1])
	if err != nil {
		return p.errorf("output: %v", err)
	}

	p.prog.Outputs = append(p.prog.Outputs, slot)
	return nil
}

// parseOp liest "%N = op operanden..." mit optionaler Block-Klammer.
func (p *parser) parseOp(fields []string) error {
	if len(fields) < 3 || fields[1] != "=" {
		return p.errorf("expected %%slot = operator")
	}

	result, err := parseSlot(fields[0])
	if err != nil {
		return p.errorf("result: %v", err)
	}

	name := fields[2]
	sig, ok := signatures[name]
	if !ok {
		return p.errorf("unknown operator %q", name)
	}

	operands := fields[3:]
	opensBlock := false
	if len(operands) > 0 && operands[len(operands)-1] == "{" {
		opensBlock = true
		operands = operands[:len(operands)-1]
	}

	op := Op{Result: result, Name: name}
	for _, tok := range operands {
		a, err := parseArg(tok)
		if err != nil {
			return p.errorf("%s: %v", name, err)
		}
		op.Args = append(op.Args, a)
	}

	if err := checkArity(op, sig); err != nil {
		return p.errorf("%v", err)
	}

	if sig.blocks > 0 {
		if !opensBlock {
			return p.errorf("%s requires a block", name)
		}
		blk := &Block{Yield: -1}
		op.Blocks = []*Block{blk}
		p.ops = append(p.ops, &op)
		p.blocks = append(p.blocks, blk)
		p.sawOp = true
		return nil
	}
	if opensBlock {
		return p.errorf("%s does not take a block", name)
	}

	p.appendOp(op)
	p.sawOp = true
	return nil
}

// appendOp haengt einen fertigen Operator an den aktuellen Container.
func (p *parser) appendOp(op Op) {
	if len(p.blocks) > 0 {
		blk := p.blocks[len(p.blocks)-1]
		blk.Ops = append(blk.Ops, op)
		return
	}
	p.prog.Ops = append(p.prog.Ops, op)
}

func (p *parser) elseBlock() error {
	if len(p.ops) == 0 {
		return p.errorf("else without an open block")
	}

	owner := p.ops[len(p.ops)-1]
	if len(owner.Blocks) != 1 {
		return p.errorf("unexpected else")
	}
	if owner.Blocks[0].Yield < 0 {
		return p.errorf("block is missing a yield")
	}

	blk := &Block{Yield: -1}
	owner.Blocks = append(owner.Blocks, blk)
	p.blocks[len(p.blocks)-1] = blk
	return nil
}

func (p *parser) closeBlock() error {
	if len(p.ops) == 0 {
		return p.errorf("unmatched }")
	}

	owner := p.ops[len(p.ops)-1]
	if len(owner.Blocks) != signatures[owner.Name].blocks {
		return p.errorf("%s is missing its else block", owner.Name)
	}
	if blk := owner.Blocks[len(owner.Blocks)-1]; blk.Yield < 0 {
		return p.errorf("block is missing a yield")
	}

	p.ops = p.ops[:len(p.ops)-1]
	p.blocks = p.blocks[:len(p.blocks)-1]
	p.appendOp(*owner)
	return nil
}

func checkArity(op Op, sig signature) error {
	if sig.variadic {
		if len(op.Args) < len(sig.args) {
			return fmt.Errorf("%s needs at least %d operands", op.Name, len(sig.args))
		}
		return nil
	}
	if len(op.Args) != len(sig.args) {
		return fmt.Errorf("%s needs %d operands, got %d", op.Name, len(sig.args), len(op.Args))
	}
	for i, kind := range sig.args {
		if kind == 't' && op.Args[i].Kind != ArgSlot {
			return fmt.Errorf("%s operand %d must be a slot", op.Name, i+1)
		}
	}
	return nil
}

func parseSlot(tok string) (int, error) {
	num, ok := strings.CutPrefix(tok, "%")
	if !ok {
		return 0, fmt.Errorf("expected a %%slot, got %q", tok)
	}
	slot, err := strconv.Atoi(num)
	if err != nil || slot < 0 {
		return 0, fmt.Errorf("invalid slot %q", tok)
	}
	return slot, nil
}

func parseArg(tok string) (Arg, error) {
	if strings.HasPrefix(tok, "%") {
		slot, err := parseSlot(tok)
		if err != nil {
			return Arg{}, err
		}
		return SlotArg(slot), nil
	}

	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return Arg{}, fmt.Errorf("invalid operand %q", tok)
	}

	_, intErr := strconv.ParseInt(tok, 10, 64)
	return Arg{Kind: ArgScalar, Scalar: v, IsInt: intErr == nil}, nil
}

func parseShape(tok string) ([]int, error) {
	body, ok := strings.CutPrefix(tok, "[")
	if !ok {
		return nil, fmt.Errorf("expected a [shape], got %q", tok)
	}
	body, ok = strings.CutSuffix(body, "]")
	if !ok {
		return nil, fmt.Errorf("unterminated shape %q", tok)
	}

	var shape []int
	for _, part := range strings.Split(body, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid dimension %q", part)
		}
		shape = append(shape, d)
	}
	return shape, nil
}
