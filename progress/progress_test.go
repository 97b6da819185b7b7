// progress_test.go - Tests fuer Spinner, Bar und Progress-Renderer

package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestSpinnerAdvancesFrames(t *testing.T) {
	s := NewSpinner("lade modell")

	first := s.String()
	second := s.String()

	if !strings.HasPrefix(first, "lade modell ") {
		t.Errorf("String() = %q, erwartet Prefix %q", first, "lade modell ")
	}
	if first == second {
		t.Errorf("Frame rueckt nicht weiter: %q == %q", first, second)
	}

	s.Stop()
	stopped := s.String()
	if stopped != "lade modell " {
		t.Errorf("nach Stop: String() = %q, erwartet nur die Nachricht", stopped)
	}
}

func TestSpinnerSetMessage(t *testing.T) {
	s := NewSpinner("eins")
	s.SetMessage("zwei")

	if got := s.String(); !strings.HasPrefix(got, "zwei ") {
		t.Errorf("String() = %q, erwartet Prefix %q", got, "zwei ")
	}
}

func TestBarString(t *testing.T) {
	b := NewBar("konvertiere tensoren", 10, 5)

	got := b.String()
	if !strings.Contains(got, " 50%") {
		t.Errorf("String() = %q, erwartet Prozentanzeige 50%%", got)
	}
	if !strings.Contains(got, "5/10") {
		t.Errorf("String() = %q, erwartet Zaehler 5/10", got)
	}
}

func TestBarSetClamps(t *testing.T) {
	b := NewBar("x", 10, 0)
	b.Set(20)

	got := b.String()
	if !strings.Contains(got, "100%") || !strings.Contains(got, "10/10") {
		t.Errorf("String() = %q, erwartet 100%% und 10/10", got)
	}
}

func TestBarZeroTotal(t *testing.T) {
	b := NewBar("leer", 0, 0)

	got := b.String()
	if !strings.Contains(got, "  0%") {
		t.Errorf("String() = %q, erwartet 0%%", got)
	}
}

func TestProgressStop(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)
	p.Add("status", NewSpinner("verarbeite"))

	if !p.Stop() {
		t.Fatal("Stop() = false, erwartet true")
	}
	if p.Stop() {
		t.Error("zweites Stop() = true, erwartet false")
	}

	out := buf.String()
	if !strings.Contains(out, "verarbeite") {
		t.Errorf("Ausgabe enthaelt die Nachricht nicht:\n%q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("Ausgabe endet nicht mit Newline:\n%q", out)
	}
}

func TestProgressAddReplacesKey(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	p.Add("status", NewSpinner("alt"))
	p.Add("status", NewSpinner("neu"))
	p.StopAndClear()

	if got := len(p.entries); got != 1 {
		t.Fatalf("len(entries) = %d, erwartet 1", got)
	}
	if out := buf.String(); !strings.Contains(out, "neu") {
		t.Errorf("ersetzende Zeile wurde nicht gerendert:\n%q", out)
	}
}
