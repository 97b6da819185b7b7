// parse_test.go - Tests fuer Parser und Serialisierung

package program

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleText = `version: 4
input %0 [2,3]
weight %1 [2,3] @w.0
const %2 [2] = 1 -2.5
%3 = add %0 %1
%4 = if_float %3 2.0 {
  %5 = div %3 %1
  yield %5
} else {
  %6 = div_trunc %3 %1
  yield %6
}
%7 = clamp %4 0 6
output %7
`

func TestParseSample(t *testing.T) {
	p, err := Parse(strings.NewReader(sampleText))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Version != 4 {
		t.Errorf("Version = %d, erwartet 4", p.Version)
	}
	if len(p.Decls) != 3 {
		t.Fatalf("Decls = %d, erwartet 3", len(p.Decls))
	}
	if d := p.Decls[1]; d.Kind != DeclWeight || d.Name != "w.0" {
		t.Errorf("Weight-Deklaration = %+v, erwartet Kind weight und Name w.0", d)
	}
	if d := p.Decls[2]; len(d.Values) != 2 || d.Values[1] != -2.5 {
		t.Errorf("Const-Werte = %v, erwartet [1 -2.5]", d.Values)
	}

	if got := p.NumOps(); got != 5 {
		t.Errorf("NumOps = %d, erwartet 5", got)
	}
	if got := p.MaxSlot(); got != 7 {
		t.Errorf("MaxSlot = %d, erwartet 7", got)
	}

	guard := p.Ops[1]
	if guard.Name != OpIfFloat || len(guard.Blocks) != 2 {
		t.Fatalf("zweiter Operator = %+v, erwartet if_float mit zwei Bloecken", guard)
	}
	if a := guard.Args[1]; a.Kind != ArgScalar || a.IsInt {
		t.Errorf("if_float Operand 2 = %+v, erwartet Gleitkomma-Skalar", a)
	}
	if blk := guard.Blocks[1]; blk.Yield != 6 {
		t.Errorf("else-Yield = %%%d, erwartet %%6", blk.Yield)
	}

	// klamp-Operanden bleiben integral markiert
	if a := p.Ops[2].Args[1]; !a.IsInt {
		t.Errorf("clamp-Untergrenze = %+v, erwartet integrales Literal", a)
	}
}

func TestStringRoundTrip(t *testing.T) {
	p, err := Parse(strings.NewReader(sampleText))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	reparsed, err := Parse(strings.NewReader(p.String()))
	if err != nil {
		t.Fatalf("Parse(String()): %v", err)
	}
	if diff := cmp.Diff(p, reparsed); diff != "" {
		t.Errorf("Roundtrip weicht ab (-vorher +nachher):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"fehlender Header", "input %0 [2]\n", "version header"},
		{"leeres Programm", "", "missing version header"},
		{"unbekannter Operator", "version: 4\n%1 = pow %0 %0\n", "unknown operator"},
		{"falsche Stelligkeit", "version: 4\n%1 = add %0\n", "needs 2 operands"},
		{"Skalar statt Slot", "version: 4\n%1 = add 3 %0\n", "must be a slot"},
		{"Deklaration nach Operator", "version: 4\n%1 = scale %0 2\ninput %0 [2]\n", "precede"},
		{"offener Block", "version: 4\n%1 = if_float %0 {\n%2 = div %0 %0\nyield %2\n", "unclosed block"},
		{"fehlendes else", "version: 4\n%1 = if_float %0 {\n%2 = div %0 %0\nyield %2\n}\n", "else"},
		{"fehlendes yield", "version: 4\n%1 = if_float %0 {\n%2 = div %0 %0\n} else {\nyield %2\n}\n", "yield"},
		{"kaputte Shape", "version: 4\ninput %0 [2,x]\n", "invalid dimension"},
		{"Const-Laenge", "version: 4\nconst %0 [3] = 1 2\n", "3 elements"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.text))
			if err == nil {
				t.Fatalf("Parse akzeptiert %q, erwartet Fehler", tc.text)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Fehler = %q, erwartet Teiltext %q", err, tc.want)
			}
		})
	}
}

func TestParserErrorLineNumbers(t *testing.T) {
	_, err := Parse(strings.NewReader("version: 4\n\n%1 = pow %0 %0\n"))
	if err == nil {
		t.Fatal("Parse akzeptiert unbekannten Operator")
	}
	if !strings.HasPrefix(err.Error(), "(line 3)") {
		t.Errorf("Fehler = %q, erwartet Zeilenangabe (line 3)", err)
	}
}
