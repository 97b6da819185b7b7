// convert_test.go - Tests fuer Checkpoint-Import, Repacking und Geruest

package convert

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"

	"github.com/larch-ml/larch/fs/ltf"
	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/ml/backend/eager"
	"github.com/larch-ml/larch/model"
	"github.com/larch-ml/larch/program"
)

func TestMaterializeCopiesFromOffset(t *testing.T) {
	storage := &pytorch.FloatStorage{Data: []float32{9, 9, 1, 2, 3, 4, 5, 6}}
	pt := &pytorch.Tensor{Source: storage, StorageOffset: 2, Size: []int{2, 3}, Stride: []int{3, 1}}

	got, ok, err := materialize("w", pt)
	if err != nil || !ok {
		t.Fatalf("materialize: ok=%v err=%v", ok, err)
	}
	if got.DType != ml.DTypeF32 {
		t.Errorf("DType = %s, erwartet f32", got.DType)
	}
	if diff := cmp.Diff([]int{2, 3}, got.Shape); diff != "" {
		t.Errorf("Shape (-erwartet +bekommen):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{1, 2, 3, 4, 5, 6}, got.Data); diff != "" {
		t.Errorf("Daten (-erwartet +bekommen):\n%s", diff)
	}

	// Die Daten muessen eine Kopie sein, nicht ein Fenster in den Storage.
	storage.Data[2] = 100
	if got.Data[0] != 1 {
		t.Errorf("Daten teilen sich den Storage: got[0] = %v", got.Data[0])
	}
}

func TestMaterializeKeepsHalfTypes(t *testing.T) {
	half := &pytorch.Tensor{
		Source: &pytorch.HalfStorage{Data: []float32{1.5, -2}},
		Size:   []int{2}, Stride: []int{1},
	}
	got, ok, err := materialize("h", half)
	if err != nil || !ok {
		t.Fatalf("materialize half: ok=%v err=%v", ok, err)
	}
	if got.DType != ml.DTypeF16 {
		t.Errorf("half DType = %s, erwartet f16", got.DType)
	}

	bf := &pytorch.Tensor{
		Source: &pytorch.BFloat16Storage{Data: []float32{0.5, 4}},
		Size:   []int{2}, Stride: []int{1},
	}
	got, ok, err = materialize("b", bf)
	if err != nil || !ok {
		t.Fatalf("materialize bfloat16: ok=%v err=%v", ok, err)
	}
	if got.DType != ml.DTypeBF16 {
		t.Errorf("bfloat16 DType = %s, erwartet bf16", got.DType)
	}
}

func TestMaterializeNarrowsDouble(t *testing.T) {
	pt := &pytorch.Tensor{
		Source: &pytorch.DoubleStorage{Data: []float64{1.5, -2.25, 3}},
		Size:   []int{3}, Stride: []int{1},
	}

	got, ok, err := materialize("d", pt)
	if err != nil || !ok {
		t.Fatalf("materialize: ok=%v err=%v", ok, err)
	}
	if got.DType != ml.DTypeF32 {
		t.Errorf("DType = %s, erwartet f32", got.DType)
	}
	if diff := cmp.Diff([]float32{1.5, -2.25, 3}, got.Data); diff != "" {
		t.Errorf("Daten (-erwartet +bekommen):\n%s", diff)
	}
}

func TestMaterializeSkipsIntegerStorage(t *testing.T) {
	pt := &pytorch.Tensor{
		Source: &pytorch.LongStorage{Data: []int64{1, 2}},
		Size:   []int{2}, Stride: []int{1},
	}

	_, ok, err := materialize("steps", pt)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if ok {
		t.Error("Integer-Storage wurde nicht uebersprungen")
	}
}

func TestMaterializeRejectsNonContiguous(t *testing.T) {
	// Stride einer transponierten Sicht
	pt := &pytorch.Tensor{
		Source: &pytorch.FloatStorage{Data: []float32{1, 2, 3, 4, 5, 6}},
		Size:   []int{3, 2}, Stride: []int{1, 3},
	}

	if _, _, err := materialize("w", pt); err == nil {
		t.Error("materialize akzeptiert nicht zusammenhaengendes Layout")
	}
}

func TestMaterializeRejectsShortStorage(t *testing.T) {
	pt := &pytorch.Tensor{
		Source: &pytorch.FloatStorage{Data: []float32{1, 2}},
		Size:   []int{2, 3}, Stride: []int{3, 1},
	}

	if _, _, err := materialize("w", pt); err == nil {
		t.Error("materialize akzeptiert zu kurzen Storage")
	}
}

func TestCheckContiguous(t *testing.T) {
	cases := []struct {
		size, stride []int
		ok           bool
	}{
		{[]int{2, 3}, []int{3, 1}, true},
		{[]int{4}, []int{1}, true},
		{nil, nil, true},
		// Dimensionen der Groesse 1 duerfen beliebige Strides tragen.
		{[]int{1, 3}, []int{0, 1}, true},
		{[]int{2, 3}, []int{1, 2}, false},
		{[]int{2, 3}, []int{3}, false},
	}

	for _, tc := range cases {
		err := checkContiguous(tc.size, tc.stride)
		if tc.ok && err != nil {
			t.Errorf("checkContiguous(%v, %v) = %v, erwartet nil", tc.size, tc.stride, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("checkContiguous(%v, %v) akzeptiert das Layout", tc.size, tc.stride)
		}
	}
}

func testPickleTensor(vals ...float32) *pytorch.Tensor {
	return &pytorch.Tensor{
		Source: &pytorch.FloatStorage{Data: vals},
		Size:   []int{len(vals)}, Stride: []int{1},
	}
}

func TestStateDictSortsByName(t *testing.T) {
	d := types.NewDict()
	d.Set("b.weight", testPickleTensor(1))
	d.Set("a.bias", testPickleTensor(2))

	entries, err := stateDict(d)
	if err != nil {
		t.Fatalf("stateDict: %v", err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.name)
	}
	if diff := cmp.Diff([]string{"a.bias", "b.weight"}, names); diff != "" {
		t.Errorf("Namen (-erwartet +bekommen):\n%s", diff)
	}
}

func TestStateDictUnwrapsCheckpoint(t *testing.T) {
	inner := types.NewDict()
	inner.Set("layer.weight", testPickleTensor(1, 2))

	root := types.NewDict()
	root.Set("epoch", 3)
	root.Set("state_dict", inner)

	entries, err := stateDict(root)
	if err != nil {
		t.Fatalf("stateDict: %v", err)
	}
	if len(entries) != 1 || entries[0].name != "layer.weight" {
		t.Fatalf("entries = %+v, erwartet genau layer.weight", entries)
	}
}

func TestStateDictOrderedDict(t *testing.T) {
	od := types.NewOrderedDict()
	od.Set("z.weight", testPickleTensor(1))
	od.Set("a.weight", testPickleTensor(2))

	entries, err := stateDict(od)
	if err != nil {
		t.Fatalf("stateDict: %v", err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.name)
	}
	if diff := cmp.Diff([]string{"a.weight", "z.weight"}, names); diff != "" {
		t.Errorf("Namen (-erwartet +bekommen):\n%s", diff)
	}
}

func TestStateDictRejectsForeignRoot(t *testing.T) {
	if _, err := stateDict("kein dict"); err == nil {
		t.Error("stateDict akzeptiert fremde Wurzel")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "fehlt.pt")); err == nil {
		t.Error("Load akzeptiert fehlende Datei")
	}
}

func TestRepackTransposes(t *testing.T) {
	tn := Tensor{Name: "fc.weight", DType: ml.DTypeF32, Shape: []int{2, 3}, Data: []float32{1, 2, 3, 4, 5, 6}}

	if err := repack(&tn); err != nil {
		t.Fatalf("repack: %v", err)
	}
	if diff := cmp.Diff([]int{3, 2}, tn.Shape); diff != "" {
		t.Errorf("Shape (-erwartet +bekommen):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{1, 4, 2, 5, 3, 6}, tn.Data); diff != "" {
		t.Errorf("Daten (-erwartet +bekommen):\n%s", diff)
	}
}

func TestNeedsRepack(t *testing.T) {
	cases := []struct {
		name  string
		shape []int
		want  bool
	}{
		{"fc.weight", []int{2, 3}, true},
		{"fc.bias", []int{3}, false},
		{"conv.weight", []int{2, 2, 2, 2}, false},
		{"running_mean", []int{2, 3}, false},
		{"empty.weight", []int{0, 3}, false},
	}

	for _, tc := range cases {
		tn := Tensor{Name: tc.name, Shape: tc.shape, Data: make([]float32, ml.Elems(tc.shape...))}
		if got := needsRepack(tn); got != tc.want {
			t.Errorf("needsRepack(%s %v) = %v, erwartet %v", tc.name, tc.shape, got, tc.want)
		}
	}
}

func TestSkeletonProgramBindsLargestTensor(t *testing.T) {
	ts := []Tensor{
		{Name: "small", DType: ml.DTypeF32, Shape: []int{2}, Data: []float32{1, 2}},
		{Name: "big", DType: ml.DTypeF32, Shape: []int{2, 4}, Data: make([]float32, 8)},
	}

	p := skeletonProgram(ts)
	if p.Version != program.CurrentVersion {
		t.Errorf("Version = %d, erwartet %d", p.Version, program.CurrentVersion)
	}
	if len(p.Decls) != 2 || p.Decls[1].Kind != program.DeclWeight {
		t.Fatalf("Decls = %+v, erwartet input und weight", p.Decls)
	}
	if p.Decls[1].Name != "big" {
		t.Errorf("weight = %q, erwartet big", p.Decls[1].Name)
	}
	if diff := cmp.Diff([]int{2, 4}, p.Decls[0].Shape); diff != "" {
		t.Errorf("Eingabe-Shape (-erwartet +bekommen):\n%s", diff)
	}

	// Das Geruest muss verlustfrei durch den Parser gehen.
	if _, err := program.Parse(strings.NewReader(p.String())); err != nil {
		t.Errorf("Parse des Geruests: %v", err)
	}
}

func TestSkeletonProgramLiftsScalarShape(t *testing.T) {
	p := skeletonProgram([]Tensor{{Name: "s", DType: ml.DTypeF32, Data: []float32{2}}})

	if diff := cmp.Diff([]int{1}, p.Decls[0].Shape); diff != "" {
		t.Errorf("Eingabe-Shape (-erwartet +bekommen):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, p.Decls[1].Shape); diff != "" {
		t.Errorf("Gewichts-Shape (-erwartet +bekommen):\n%s", diff)
	}
}

func TestWriteModelRoundTrip(t *testing.T) {
	ts := []Tensor{
		{Name: "fc.bias", DType: ml.DTypeF32, Shape: []int{3}, Data: []float32{0.5, -1, 2}},
		{Name: "fc.weight", DType: ml.DTypeF32, Shape: []int{2, 3}, Data: []float32{1, 2, 3, 4, 5, 6}},
	}

	var calls [][2]int
	fn := func(converted, total int) { calls = append(calls, [2]int{converted, total}) }

	dir := t.TempDir()
	res, err := writeModel("linear", "linear.pt", dir, ts, fn)
	if err != nil {
		t.Fatalf("writeModel: %v", err)
	}

	want := [][2]int{{0, 2}, {1, 2}, {2, 2}}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("Fortschritt (-erwartet +bekommen):\n%s", diff)
	}

	for _, path := range []string{res.ProgPath, res.WeightsPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("Ausgabedatei: %v", err)
		}
	}

	wf, err := ltf.Open(res.WeightsPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer wf.Close()

	if got := wf.KeyValue("general.name"); got != "linear" {
		t.Errorf("general.name = %q, erwartet linear", got)
	}
	if got := wf.KeyValue("larch.repacked"); got != "fc.weight" {
		t.Errorf("larch.repacked = %q, erwartet fc.weight", got)
	}

	data, shape, err := wf.Float32s("fc.weight")
	if err != nil {
		t.Fatalf("Float32s: %v", err)
	}
	if diff := cmp.Diff([]int{3, 2}, shape); diff != "" {
		t.Errorf("Shape (-erwartet +gelesen):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{1, 4, 2, 5, 3, 6}, data); diff != "" {
		t.Errorf("Daten (-erwartet +gelesen):\n%s", diff)
	}

	data, _, err = wf.Float32s("fc.bias")
	if err != nil {
		t.Fatalf("Float32s: %v", err)
	}
	if diff := cmp.Diff([]float32{0.5, -1, 2}, data); diff != "" {
		t.Errorf("Bias (-erwartet +gelesen):\n%s", diff)
	}
}

// TestImportedProgramEvaluates prueft die gesamte Kette: writeModel,
// Katalog-Descriptor aus der .prog-Datei, Replay auf dem
// Referenz-Backend.
func TestImportedProgramEvaluates(t *testing.T) {
	ts := []Tensor{
		{Name: "fc.bias", DType: ml.DTypeF32, Shape: []int{3}, Data: []float32{0.5, -1, 2}},
		{Name: "fc.weight", DType: ml.DTypeF32, Shape: []int{2, 3}, Data: []float32{1, 2, 3, 4, 5, 6}},
	}

	res, err := writeModel("linear", "linear.pt", t.TempDir(), ts, nil)
	if err != nil {
		t.Fatalf("writeModel: %v", err)
	}

	desc, err := model.FromProgramFile(res.ProgPath)
	if err != nil {
		t.Fatalf("FromProgramFile: %v", err)
	}

	backend, err := eager.New(ml.BackendParams{Device: ml.DeviceCPU})
	if err != nil {
		t.Fatalf("eager.New: %v", err)
	}
	defer backend.Close()

	const seed = 7
	inst, err := desc.New(backend, seed)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer inst.Close()

	fw, args := inst.Module()
	out, err := model.Call(inst.Context(), fw, args)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	if diff := cmp.Diff([]int{3, 2}, out.Shape()); diff != "" {
		t.Errorf("Ausgabe-Shape (-erwartet +bekommen):\n%s", diff)
	}

	// Das Geruest rechnet x*w + w, x kommt deterministisch aus dem Seed.
	w := []float32{1, 4, 2, 5, 3, 6}
	rng := rand.New(rand.NewSource(seed))
	want := make([]float32, len(w))
	for i := range want {
		x := float32(rng.NormFloat64())
		m := x * w[i]
		want[i] = m + w[i]
	}
	if diff := cmp.Diff(want, out.Floats()); diff != "" {
		t.Errorf("Ausgabe (-erwartet +bekommen):\n%s", diff)
	}
}
