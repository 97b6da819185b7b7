// save.go - Serialisierung eines Programms in das Textformat
//
// Enthaelt: String/Save/SaveFile. Die Ausgabe parst verlustfrei zurueck,
// insbesondere bleibt die Integral-Form von Skalar-Literalen erhalten.

package program

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

func (p *Program) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "version: %d\n", p.Version)

	for _, d := range p.Decls {
		switch d.Kind {
		case DeclInput:
			if len(d.Shape) == 0 {
				fmt.Fprintf(&sb, "input %%%d\n", d.Slot)
			} else {
				fmt.Fprintf(&sb, "input %%%d %s\n", d.Slot, formatShape(d.Shape))
			}
		case DeclScalar:
			fmt.Fprintf(&sb, "scalar %%%d\n", d.Slot)
		case DeclWeight:
			fmt.Fprintf(&sb, "weight %%%d %s @%s\n", d.Slot, formatShape(d.Shape), d.Name)
		case DeclConst:
			fmt.Fprintf(&sb, "const %%%d %s =", d.Slot, formatShape(d.Shape))
			for _, v := range d.Values {
				fmt.Fprintf(&sb, " %s", strconv.FormatFloat(float64(v), 'g', -1, 32))
			}
			sb.WriteByte('\n')
		}
	}

	writeOps(&sb, p.Ops, 0)

	for _, s := range p.Outputs {
		fmt.Fprintf(&sb, "output %%%d\n", s)
	}

	return sb.String()
}

func writeOps(sb *strings.Builder, ops []Op, depth int) {
	indent := strings.Repeat("  ", depth)

	for _, op := range ops {
		fmt.Fprintf(sb, "%s%%%d = %s", indent, op.Result, op.Name)
		for _, a := range op.Args {
			sb.WriteByte(' ')
			sb.WriteString(formatArg(a))
		}

		if len(op.Blocks) == 0 {
			sb.WriteByte('\n')
			continue
		}

		sb.WriteString(" {\n")
		for i, blk := range op.Blocks {
			if i > 0 {
				fmt.Fprintf(sb, "%s} else {\n", indent)
			}
			writeOps(sb, blk.Ops, depth+1)
			fmt.Fprintf(sb, "%s  yield %%%d\n", indent, blk.Yield)
		}
		fmt.Fprintf(sb, "%s}\n", indent)
	}
}

func formatArg(a Arg) string {
	if a.Kind == ArgSlot {
		return fmt.Sprintf("%%%d", a.Slot)
	}
	if a.IsInt {
		return strconv.FormatInt(int64(a.Scalar), 10)
	}

	s := strconv.FormatFloat(a.Scalar, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		// keep float literals parseable as floats
		s += ".0"
	}
	return s
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Save schreibt das Programm als Text nach w.
func Save(w io.Writer, p *Program) error {
	_, err := io.WriteString(w, p.String())
	return err
}

// SaveFile schreibt das Programm auf die Festplatte.
func SaveFile(path string, p *Program) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Save(f, p); err != nil {
		return err
	}
	return f.Sync()
}
