// ltf_test.go - Roundtrip- und Fehlerfall-Tests des Containers

package ltf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/larch-ml/larch/ml"
)

func writeTestFile(t *testing.T, kv map[string]string, tensors []*Tensor) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "weights.ltf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	if err := Write(f, kv, tensors); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return path
}

func TestRoundTrip(t *testing.T) {
	// Werte sind in f16 und bf16 exakt darstellbar
	tensors := []*Tensor{
		{Name: "w.0", DType: ml.DTypeF32, Shape: []int{2, 3}, Data: []float32{1, -2, 3.25, 0, 7, -0.5}},
		{Name: "w.1", DType: ml.DTypeF16, Shape: []int{4}, Data: []float32{1.5, -0.25, 2048, 0}},
		{Name: "bias", DType: ml.DTypeBF16, Shape: []int{2}, Data: []float32{1.5, -2}},
	}
	kv := map[string]string{
		"general.source": "unit-test",
		"general.name":   "roundtrip",
	}

	path := writeTestFile(t, kv, tensors)

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if got := f.KeyValue("general.source"); got != "unit-test" {
		t.Errorf("KeyValue(general.source) = %q, erwartet unit-test", got)
	}
	if got := f.KeyValue("missing"); got != "" {
		t.Errorf("KeyValue(missing) = %q, erwartet leer", got)
	}

	infos := f.Tensors()
	if len(infos) != 3 {
		t.Fatalf("Tensors = %d, erwartet 3", len(infos))
	}
	for i, want := range []string{"w.0", "w.1", "bias"} {
		if infos[i].Name != want {
			t.Errorf("Tensor %d = %q, erwartet %q (Dateireihenfolge)", i, infos[i].Name, want)
		}
	}

	for _, want := range tensors {
		data, shape, err := f.Float32s(want.Name)
		if err != nil {
			t.Fatalf("Float32s(%s): %v", want.Name, err)
		}
		if diff := cmp.Diff(want.Shape, shape); diff != "" {
			t.Errorf("%s Shape (-erwartet +gelesen):\n%s", want.Name, diff)
		}
		if diff := cmp.Diff(want.Data, data); diff != "" {
			t.Errorf("%s Daten (-erwartet +gelesen):\n%s", want.Name, diff)
		}
	}
}

func TestOpenRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-ltf.bin")
	if err := os.WriteFile(path, []byte("GGUF\x03\x00\x00\x00rest"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Open(path)
	if err == nil {
		t.Fatal("Open akzeptiert fremdes Format")
	}
}

func TestFloat32sUnknownTensor(t *testing.T) {
	path := writeTestFile(t, nil, []*Tensor{
		{Name: "w", DType: ml.DTypeF32, Shape: []int{1}, Data: []float32{1}},
	})

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if _, _, err := f.Float32s("nope"); err == nil {
		t.Error("Float32s akzeptiert unbekannten Namen")
	}
}

func TestWriteRejectsShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ltf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	err = Write(f, nil, []*Tensor{
		{Name: "w", DType: ml.DTypeF32, Shape: []int{4}, Data: []float32{1, 2}},
	})
	if err == nil {
		t.Error("Write akzeptiert Daten mit falscher Laenge")
	}
}
