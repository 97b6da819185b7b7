// config_features.go - Feature-Flags fuer Backend und Harness
//
// Dieses Modul enthaelt:
// - Backend-Flags (TSCuda, NoopExecute)
// - Harness-Flags (NoHistory, DumpCounters)
// - Queue-Einstellungen des Lazy-Backends
package envconfig

// =============================================================================
// Backend-Flags
// =============================================================================

var (
	// TSCuda muss gesetzt sein, wenn das Lazy-Backend auf dem
	// CUDA-Geraet laufen soll. Wird beim Bench-Start geprueft.
	TSCuda = Bool("LARCH_TS_CUDA")

	// NoopExecute schaltet das Lazy-Backend in den Trace-Only-Modus
	// (aufzeichnen ohne Kompilieren und Ausfuehren)
	NoopExecute = Bool("LARCH_NOOP_EXECUTE")
)

// =============================================================================
// Harness-Flags
// =============================================================================

var (
	// NoHistory deaktiviert das Persistieren von Laeufen in der History
	NoHistory = Bool("LARCH_NOHISTORY")

	// DumpCounters gibt nach jedem Experiment alle Counter aus
	DumpCounters = Bool("LARCH_DUMP_COUNTERS")

	// OutputDir ist das Standard-Verzeichnis fuer CSV-Ausgaben
	OutputDir = String("LARCH_OUTPUT")
)

// =============================================================================
// Queue-Einstellungen
// =============================================================================

var (
	// QueueDepth setzt die Tiefe der Device-Queue des Lazy-Backends
	// Konfigurierbar via LARCH_QUEUE_DEPTH
	QueueDepth = Uint("LARCH_QUEUE_DEPTH", 64)
)
