// shortname_test.go - Tests fuer die Namens-Kuerzung

package bench

import "testing"

func TestShortName(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  string
	}{
		{"HardSwish[1,1,1,1]", 20, "HardSwish[1,1,1,1]"},
		{"HardSwish[256,16,128,128]", 20, "HardSwish[256,16,..."},
		{"HardSwish[256,16,128,128]", 30, "HardSwish[256,16,128,128]"},
		{"toy_with_padding____end", 20, "toy_with_padding..."},
		{"exactly_twenty_chars", 20, "exactly_twenty_chars"},
		{"", 20, ""},
	}

	for _, tt := range tests {
		if got := shortName(tt.name, tt.limit); got != tt.want {
			t.Errorf("shortName(%q, %d) = %q, erwartet %q", tt.name, tt.limit, got, tt.want)
		}
	}
}

func TestPadName(t *testing.T) {
	got := padName("HardSwish[1,1,1,1]", 30)
	if len(got) != 30 {
		t.Fatalf("len(padName) = %d, erwartet 30", len(got))
	}
	if got[:18] != "HardSwish[1,1,1,1]" {
		t.Errorf("padName veraendert den Namen: %q", got)
	}

	long := padName("HardSwish[256,16,128,128]xxxxx", 20)
	if len(long) != 20 {
		t.Errorf("len(padName) bei Kuerzung = %d, erwartet 20", len(long))
	}
}
