// program_test.go - Tests fuer programm-gestuetzte Katalog-Eintraege

package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/larch-ml/larch/fs/ltf"
	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/ml/backend/eager"
)

const affineProg = `version: 4
input %0 [2,2]
weight %1 [2,2] @scale
%2 = mul %0 %1
%3 = add_scalar %2 1.0
output %3
`

// writeBenchmark legt name.prog und die zugehoerige Gewichts-Datei an
func writeBenchmark(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name+".prog")
	if err := os.WriteFile(path, []byte(affineProg), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(filepath.Join(dir, name+".ltf"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	err = ltf.Write(f, map[string]string{"general.name": name}, []*ltf.Tensor{
		{Name: "scale", DType: ml.DTypeF32, Shape: []int{2, 2}, Data: []float32{2, 3, 4, 5}},
	})
	if err != nil {
		t.Fatal(err)
	}

	return path
}

func TestFromProgramFile(t *testing.T) {
	path := writeBenchmark(t, t.TempDir(), "affine")

	desc, err := FromProgramFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if desc.Name != "affine" {
		t.Errorf("Name = %q, erwartet affine", desc.Name)
	}
	if !desc.Supports(ml.DeviceCPU, ModeEval) || !desc.Supports(ml.DeviceCUDA, ModeEval) {
		t.Error("Programm-Benchmarks muessen eval auf beiden Geraeten unterstuetzen")
	}
	if desc.Supports(ml.DeviceCPU, ModeTrain) {
		t.Error("Programm-Benchmarks duerfen train nicht unterstuetzen")
	}

	b, err := eager.New(ml.BackendParams{Device: ml.DeviceCPU})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(b.Close)

	inst, err := desc.New(b, 11)
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Close()

	fw, args := inst.Module()
	if args.Kind != CallSingle {
		t.Fatalf("Kind = %s, erwartet single", args.Kind)
	}

	out, err := Call(inst.Context(), fw, args)
	if err != nil {
		t.Fatal(err)
	}

	xs := args.Tensor.Floats()
	ws := []float32{2, 3, 4, 5}
	got := out.Floats()
	for i := range xs {
		// float32-Konvertierung erzwingt die Einzelrundung der Kernel
		m := float32(xs[i] * ws[i])
		if want := m + 1; got[i] != want {
			t.Errorf("[%d] = %v, erwartet %v", i, got[i], want)
		}
	}
}

func TestProgramInstanceReseed(t *testing.T) {
	path := writeBenchmark(t, t.TempDir(), "affine")

	desc, err := FromProgramFile(path)
	if err != nil {
		t.Fatal(err)
	}

	b, err := eager.New(ml.BackendParams{Device: ml.DeviceCPU})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(b.Close)

	inst, err := desc.New(b, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Close()

	sd, ok := inst.(Seeder)
	if !ok {
		t.Fatal("Programm-Instanzen muessen Seeder implementieren")
	}

	_, args := inst.Module()
	first := args.Tensor.Floats()

	sd.Reseed(3)
	_, args = inst.Module()
	same := args.Tensor.Floats()
	for i := range first {
		if first[i] != same[i] {
			t.Fatalf("gleicher Seed, verschiedene Eingaben an [%d]: %v vs %v", i, first[i], same[i])
		}
	}

	sd.Reseed(4)
	_, args = inst.Module()
	if other := args.Tensor.Floats(); other[0] == first[0] {
		t.Errorf("Reseed ohne Wirkung: %v", other[0])
	}
}

func TestFromProgramFileErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "ohne-shape",
			text: "version: 4\ninput %0\n%1 = scale %0 2.0\noutput %1\n",
			want: "needs a shape",
		},
		{
			name: "skalar-formal",
			text: "version: 4\ninput %0 [2]\nscalar %1\n%2 = scale %0 %1\noutput %2\n",
			want: "upgrader-internal",
		},
		{
			name: "ohne-output",
			text: "version: 4\ninput %0 [2]\n%1 = scale %0 2.0\n",
			want: "no output",
		},
	}

	for _, tt := range tests {
		path := filepath.Join(dir, tt.name+".prog")
		if err := os.WriteFile(path, []byte(tt.text), 0o644); err != nil {
			t.Fatal(err)
		}

		_, err := FromProgramFile(path)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: Fehler %v, erwartet %q", tt.name, err, tt.want)
		}
	}
}

func TestFromProgramFileMissingWeights(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verwaist.prog")
	if err := os.WriteFile(path, []byte(affineProg), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := FromProgramFile(path); err == nil {
		t.Error("fehlende Gewichts-Datei akzeptiert")
	}
}

func TestProgramWeightShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schief.prog")
	text := "version: 4\ninput %0 [4]\nweight %1 [4] @w\n%2 = mul %0 %1\noutput %2\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(filepath.Join(dir, "schief.ltf"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	err = ltf.Write(f, map[string]string{}, []*ltf.Tensor{
		{Name: "w", DType: ml.DTypeF32, Shape: []int{2}, Data: []float32{1, 2}},
	})
	if err != nil {
		t.Fatal(err)
	}

	desc, err := FromProgramFile(path)
	if err != nil {
		t.Fatal(err)
	}

	b, err := eager.New(ml.BackendParams{Device: ml.DeviceCPU})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(b.Close)

	if _, err := desc.New(b, 1); err == nil {
		t.Error("Gewicht mit falscher Shape akzeptiert")
	}
}

func TestScanDir(t *testing.T) {
	empty, err := ScanDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("leeres Verzeichnis liefert %d Eintraege", len(empty))
	}

	dir := t.TempDir()
	writeBenchmark(t, dir, "zweites")
	writeBenchmark(t, dir, "erstes")

	descs, err := ScanDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	want := []string{"erstes", "zweites"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Namen %v, erwartet %v", names, want)
		}
	}
}

func TestScanDirPropagatesErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "kaputt.prog"), []byte("version: 4\nkaputt\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ScanDir(dir); err == nil {
		t.Error("fehlerhafte Datei ohne Fehler")
	}
}
