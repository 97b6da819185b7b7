// fallback.go - Erkennung von Eager-Fallback-Countern
// Enthält: IsFallback, Fallbacks
package metrics

import "github.com/dlclark/regexp2"

// Op counters outside the lazy namespace indicate that an operation
// fell back to eager execution. Needs a negative lookahead, which the
// stdlib regexp engine does not support.
var fallbackPattern = regexp2.MustCompile(`^(?!lazy::)\w+::`, regexp2.None)

// IsFallback reports whether a counter name records an eager fallback.
func IsFallback(name string) bool {
	ok, err := fallbackPattern.MatchString(name)
	if err != nil {
		return false
	}
	return ok
}

// Fallbacks filters a snapshot down to fallback counters.
func Fallbacks(snapshot map[string]int64) map[string]int64 {
	out := make(map[string]int64)
	for name, v := range snapshot {
		if IsFallback(name) {
			out[name] = v
		}
	}
	return out
}
