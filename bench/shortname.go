// shortname.go - Anzeige-Kuerzung von Benchmark-Namen
// Enthält: shortName, padName
package bench

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// shortName truncates a benchmark name to at most limit display cells.
// Truncated names lose trailing underscores before the ellipsis so the
// cut does not read like a word boundary.
func shortName(name string, limit int) string {
	if runewidth.StringWidth(name) <= limit {
		return name
	}

	cut := runewidth.Truncate(name, limit-3, "")
	return strings.TrimRight(cut, "_") + "..."
}

// padName shortens and right-pads a name to exactly width display
// cells for aligned report lines.
func padName(name string, width int) string {
	return runewidth.FillRight(shortName(name, width), width)
}
