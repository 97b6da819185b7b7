// builtin.go - Eingebaute Upgrader
//
// Enthaelt: die Versionseintraege und textuellen Ruempfe der
// Divisions-Umstellung. Bis Version 3 rundete die Division immer zur
// Null; ab Version 4 dividieren div und div_scalar echt und nur der
// integrale Fall rundet weiter.

package upgrade

import (
	"fmt"
	"strings"
	"sync"

	"github.com/larch-ml/larch/program"
)

var builtinVersionMap = map[string][]Entry{
	program.OpDiv:       {{BumpedAt: 3, Name: "div_0_3"}},
	program.OpDivScalar: {{BumpedAt: 3, Name: "div_scalar_0_3"}},
}

// Die Ruempfe sind selbst Programme der aktuellen Version. Formale
// Eingaben stehen fuer die Operanden der ersetzten Aufrufstelle.
var upgraderBodies = map[string]string{
	"div_0_3": `version: 4
input %0
input %1
%2 = if_float %0 %1 {
  %3 = div %0 %1
  yield %3
} else {
  %4 = div_trunc %0 %1
  yield %4
}
output %2
`,

	"div_scalar_0_3": `version: 4
input %0
scalar %1
%2 = if_float %0 %1 {
  %3 = div_scalar %0 %1
  yield %3
} else {
  %4 = div_scalar_trunc %0 %1
  yield %4
}
output %2
`,
}

var (
	bodyMu    sync.Mutex
	bodyCache = make(map[string]*program.Program)
)

// upgraderBody parses the named body once and caches it.
func upgraderBody(name string) (*program.Program, error) {
	bodyMu.Lock()
	defer bodyMu.Unlock()

	if p, ok := bodyCache[name]; ok {
		return p, nil
	}

	text, ok := upgraderBodies[name]
	if !ok {
		return nil, fmt.Errorf("upgrade: no upgrader named %q", name)
	}

	p, err := program.Parse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("upgrade: body %s: %w", name, err)
	}
	if len(p.Outputs) != 1 {
		return nil, fmt.Errorf("upgrade: body %s must yield exactly one output", name)
	}

	bodyCache[name] = p
	return p, nil
}
