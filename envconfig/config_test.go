// config_test.go - Tests fuer die LARCH_-Konfiguration

package envconfig

import (
	"log/slog"
	"testing"
)

func TestHost(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", "http://127.0.0.1:7134"},
		{"1.2.3.4", "http://1.2.3.4:7134"},
		{"1.2.3.4:8080", "http://1.2.3.4:8080"},
		{"example.com", "http://example.com:7134"},
		{"http://example.com", "http://example.com:80"},
		{"https://example.com", "https://example.com:443"},
		{"0.0.0.0:99999", "http://0.0.0.0:7134"},
		{"[::1]:1234", "http://[::1]:1234"},
	}

	for _, tt := range tests {
		t.Setenv("LARCH_HOST", tt.value)
		if got := Host(); got.Scheme+"://"+got.Host != tt.want {
			t.Errorf("LARCH_HOST=%q: %s://%s, erwartet %s", tt.value, got.Scheme, got.Host, tt.want)
		}
	}
}

func TestBoolFlags(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"1", true},
		{"true", true},
		{"TRUE", true},
		// unparsebare Werte gelten als gesetzt
		{"kaputt", true},
	}
	for _, tt := range tests {
		t.Setenv("LARCH_TS_CUDA", tt.value)
		if got := TSCuda(); got != tt.want {
			t.Errorf("LARCH_TS_CUDA=%q: %v, erwartet %v", tt.value, got, tt.want)
		}
	}
}

func TestQueueDepth(t *testing.T) {
	tests := []struct {
		value string
		want  uint
	}{
		{"", 64},
		{"16", 16},
		{"kaputt", 64},
		{"-3", 64},
	}
	for _, tt := range tests {
		t.Setenv("LARCH_QUEUE_DEPTH", tt.value)
		if got := QueueDepth(); got != tt.want {
			t.Errorf("LARCH_QUEUE_DEPTH=%q: %d, erwartet %d", tt.value, got, tt.want)
		}
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"0", slog.LevelInfo},
		{"false", slog.LevelInfo},
		{"1", slog.LevelDebug},
		{"true", slog.LevelDebug},
		{"2", slog.Level(-8)},
	}
	for _, tt := range tests {
		t.Setenv("LARCH_DEBUG", tt.value)
		if got := LogLevel(); got != tt.want {
			t.Errorf("LARCH_DEBUG=%q: %v, erwartet %v", tt.value, got, tt.want)
		}
	}
}

func TestVarStripsQuotesAndSpace(t *testing.T) {
	t.Setenv("LARCH_MODELS", `  "/pfad/zu/modellen"  `)
	if got := Models(); got != "/pfad/zu/modellen" {
		t.Errorf("Models = %q", got)
	}
}

func TestHistoryFileOverride(t *testing.T) {
	t.Setenv("LARCH_HISTORY", "/tmp/larch-test.db")
	if got := HistoryFile(); got != "/tmp/larch-test.db" {
		t.Errorf("HistoryFile = %q", got)
	}
}

func TestAsMapListsEveryVariable(t *testing.T) {
	want := []string{
		"LARCH_DEBUG", "LARCH_HOST", "LARCH_ORIGINS", "LARCH_MODELS",
		"LARCH_HISTORY", "LARCH_NOHISTORY", "LARCH_TS_CUDA",
		"LARCH_NOOP_EXECUTE", "LARCH_DUMP_COUNTERS", "LARCH_OUTPUT",
		"LARCH_QUEUE_DEPTH",
	}

	m := AsMap()
	if len(m) != len(want) {
		t.Errorf("AsMap enthaelt %d Variablen, erwartet %d", len(m), len(want))
	}
	for _, k := range want {
		v, ok := m[k]
		if !ok {
			t.Errorf("%s fehlt in AsMap", k)
			continue
		}
		if v.Name != k || v.Description == "" {
			t.Errorf("%s: unvollstaendiger Eintrag %+v", k, v)
		}
	}
}

func TestAllowedOriginsIncludesLocalhost(t *testing.T) {
	t.Setenv("LARCH_ORIGINS", "http://hub.example.com")

	origins := AllowedOrigins()
	if origins[0] != "http://hub.example.com" {
		t.Errorf("konfigurierte Origin fehlt: %v", origins[0])
	}

	found := false
	for _, o := range origins {
		if o == "http://localhost" {
			found = true
		}
	}
	if !found {
		t.Error("Standard-Origin http://localhost fehlt")
	}
}
