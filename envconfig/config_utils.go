// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String: String-Getter
// - Uint: Integer-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// =============================================================================
// Boolean-Getter
// =============================================================================

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// =============================================================================
// String-Getter
// =============================================================================

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// =============================================================================
// Integer-Getter
// =============================================================================

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// =============================================================================
// Export-Strukturen und -Funktionen
// =============================================================================

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"LARCH_DEBUG":         {"LARCH_DEBUG", LogLevel(), "Show additional debug information (e.g. LARCH_DEBUG=1)"},
		"LARCH_HOST":          {"LARCH_HOST", Host(), "IP address for the debug server (default 127.0.0.1:7134)"},
		"LARCH_ORIGINS":       {"LARCH_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"LARCH_MODELS":        {"LARCH_MODELS", Models(), "Directory with serialized external catalog programs"},
		"LARCH_HISTORY":       {"LARCH_HISTORY", HistoryFile(), "Path to the run history database"},
		"LARCH_NOHISTORY":     {"LARCH_NOHISTORY", NoHistory(), "Do not persist benchmark runs to the history database"},
		"LARCH_TS_CUDA":       {"LARCH_TS_CUDA", TSCuda(), "Enable the lazy backend on the cuda device (required for -d cuda)"},
		"LARCH_NOOP_EXECUTE":  {"LARCH_NOOP_EXECUTE", NoopExecute(), "Trace without compiling or executing (profiling only)"},
		"LARCH_DUMP_COUNTERS": {"LARCH_DUMP_COUNTERS", DumpCounters(), "Dump all backend counters after each experiment"},
		"LARCH_OUTPUT":        {"LARCH_OUTPUT", OutputDir(), "Default directory for CSV result files"},
		"LARCH_QUEUE_DEPTH":   {"LARCH_QUEUE_DEPTH", QueueDepth(), "Depth of the lazy backend device queue (default 64)"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
