// format_test.go - Tests fuer die Formatierungs-Helfer
package format

import (
	"testing"
	"time"
)

func TestHumanNumber(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1K"},
		{1200, "1.2K"},
		{1000000, "1M"},
		{2500000, "2.5M"},
		{1000000000, "1B"},
		{7420000000, "7.4B"},
	}

	for _, tc := range cases {
		if got := HumanNumber(tc.in); got != tc.want {
			t.Errorf("HumanNumber(%d): erwartet %q, bekommen %q", tc.in, tc.want, got)
		}
	}
}

func TestGroupDigits(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345678, "12,345,678"},
		{-4200, "-4,200"},
	}

	for _, tc := range cases {
		if got := GroupDigits(tc.in); got != tc.want {
			t.Errorf("GroupDigits(%d): erwartet %q, bekommen %q", tc.in, tc.want, got)
		}
	}
}

func TestHumanBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000, "1 KB"},
		{1024, "1.0 KB"},
		{2500000, "2.5 MB"},
		// ab zwei Vorkommastellen wird ganzzahlig gekuerzt
		{55000000, "55 MB"},
		{203500000, "203 MB"},
		{1000000000, "1 GB"},
		{1500000000000, "1.5 TB"},
	}

	for _, tc := range cases {
		if got := HumanBytes(tc.in); got != tc.want {
			t.Errorf("HumanBytes(%d): erwartet %q, bekommen %q", tc.in, tc.want, got)
		}
	}
}

func TestHumanBytes2(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{16777216, "16.0 MiB"},
		{1073741824, "1.0 GiB"},
		{1610612736, "1.5 GiB"},
	}

	for _, tc := range cases {
		if got := HumanBytes2(tc.in); got != tc.want {
			t.Errorf("HumanBytes2(%d): erwartet %q, bekommen %q", tc.in, tc.want, got)
		}
	}
}

func TestHumanDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Microsecond, "500 µs"},
		{250 * time.Millisecond, "250 ms"},
		{1500 * time.Millisecond, "1.5s"},
		{2 * time.Second, "2s"},
		// Einheiten stehen immer im Plural
		{90 * time.Second, "1 minutes"},
		{2 * time.Hour, "2 hours"},
		{72 * time.Hour, "3 days"},
	}

	for _, tc := range cases {
		if got := HumanDuration(tc.in); got != tc.want {
			t.Errorf("HumanDuration(%v): erwartet %q, bekommen %q", tc.in, tc.want, got)
		}
	}
}

func TestHumanTime(t *testing.T) {
	if got := HumanTime(time.Time{}, "niemals"); got != "niemals" {
		t.Errorf("Nullzeit: erwartet %q, bekommen %q", "niemals", got)
	}

	past := time.Now().Add(-3 * time.Minute)
	if got := HumanTime(past, ""); got != "3 minutes ago" {
		t.Errorf("Vergangenheit: erwartet %q, bekommen %q", "3 minutes ago", got)
	}

	// eine Minute Puffer, damit die verstrichene Testlaufzeit die
	// Stundengrenze nicht unterschreitet
	future := time.Now().Add(2*time.Hour + time.Minute)
	if got := HumanTime(future, ""); got != "2 hours from now" {
		t.Errorf("Zukunft: erwartet %q, bekommen %q", "2 hours from now", got)
	}

	if got := HumanTime(time.Now(), ""); got != "less than a second ago" {
		t.Errorf("gerade eben: erwartet %q, bekommen %q", "less than a second ago", got)
	}
}
