// Package upgrade - Operator-Versionskarte und Programm-Hebung
//
// Aeltere Programme referenzieren Operatoren mit alten Semantiken.
// Die Versionskarte ordnet jedem Operator seine Umbrueche zu; Apply
// hebt ein geladenes Programm auf die aktuelle Version, indem es die
// Upgrader-Ruempfe an den Aufrufstellen einsetzt.
//
// Hauptkomponenten:
// - Entry/Populate/MapSize/Entries: Versionskarte
// - AddTestOnly/RemoveTestOnly: Karten-Pflege fuer Tests
// - Load: Parsen plus Apply in einem Schritt

package upgrade

import (
	"slices"
	"sync"

	"github.com/larch-ml/larch/program"
)

// Entry describes one semantics change of an operator.
type Entry struct {
	// BumpedAt is the last program version with the old semantics.
	// Programs at or below it get rewritten.
	BumpedAt int

	// Name identifies the upgrader body, e.g. "div_0_3".
	Name string
}

var (
	mu         sync.Mutex
	versionMap = make(map[string][]Entry)
	populated  bool
)

// Populate fills the version map with the built-in upgrades. Later
// calls are no-ops, so repeated loading stays idempotent.
func Populate() {
	mu.Lock()
	defer mu.Unlock()

	if populated {
		return
	}
	populated = true

	for schema, entries := range builtinVersionMap {
		es := slices.Clone(entries)
		sortEntries(es)
		versionMap[schema] = es
	}
}

func sortEntries(es []Entry) {
	slices.SortFunc(es, func(a, b Entry) int { return a.BumpedAt - b.BumpedAt })
}

// MapSize returns the number of operators with upgrade entries.
func MapSize() int {
	mu.Lock()
	defer mu.Unlock()
	return len(versionMap)
}

// Entries returns the entries for schema, sorted by BumpedAt.
func Entries(schema string) []Entry {
	mu.Lock()
	defer mu.Unlock()
	return slices.Clone(versionMap[schema])
}

// AddTestOnly registers an entry outside the built-in set. Tests use
// it to probe map maintenance; applying it fails unless a body of the
// same name exists.
func AddTestOnly(schema string, e Entry) {
	mu.Lock()
	defer mu.Unlock()

	es := append(versionMap[schema], e)
	sortEntries(es)
	versionMap[schema] = es
}

// RemoveTestOnly drops the named entry again. The schema disappears
// from the map when its last entry goes.
func RemoveTestOnly(schema, name string) {
	mu.Lock()
	defer mu.Unlock()

	es := versionMap[schema]
	es = slices.DeleteFunc(es, func(e Entry) bool { return e.Name == name })
	if len(es) == 0 {
		delete(versionMap, schema)
		return
	}
	versionMap[schema] = es
}

// findEntry returns the first entry still covering version.
func findEntry(schema string, version int) (Entry, bool) {
	mu.Lock()
	defer mu.Unlock()

	for _, e := range versionMap[schema] {
		if version <= e.BumpedAt {
			return e, true
		}
	}
	return Entry{}, false
}

// Load reads a program from disk and lifts it to the current version.
func Load(path string) (*program.Program, error) {
	p, err := program.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if err := Apply(p); err != nil {
		return nil, err
	}
	return p, nil
}
