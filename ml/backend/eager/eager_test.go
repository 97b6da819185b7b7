// eager_test.go - Tests fuer das Eager-Backend und die Kernel

package eager

import (
	"context"
	"testing"

	"github.com/larch-ml/larch/ml"
)

func newEagerContext(t *testing.T) ml.Context {
	t.Helper()

	b, err := New(ml.BackendParams{Device: ml.DeviceCPU})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(b.Close)

	return b.NewContext()
}

func TestKernels(t *testing.T) {
	a := []float32{6, -7, 1, 0}
	b := []float32{2, 2, -4, 5}

	tests := []struct {
		name string
		got  []float32
		want []float32
	}{
		{"add", Add(a, b), []float32{8, -5, -3, 5}},
		{"sub", Sub(a, b), []float32{4, -9, 5, -5}},
		{"mul", Mul(a, b), []float32{12, -14, -4, 0}},
		{"div", Div(a, b), []float32{3, -3.5, -0.25, 0}},
		{"div_trunc", TruncDiv(a, b), []float32{3, -3, 0, 0}},
		{"add_scalar", AddScalar(a, 1.5), []float32{7.5, -5.5, 2.5, 1.5}},
		{"scale", Scale(a, -2), []float32{-12, 14, -2, 0}},
		{"clamp", Clamp(a, -1, 3), []float32{3, -1, 1, 0}},
	}

	for _, tt := range tests {
		for i := range tt.want {
			if tt.got[i] != tt.want[i] {
				t.Errorf("%s[%d] = %v, erwartet %v", tt.name, i, tt.got[i], tt.want[i])
			}
		}
	}
}

func TestKernelsLeaveInputsUntouched(t *testing.T) {
	a := []float32{1, 2}
	b := []float32{3, 4}

	Add(a, b)
	Scale(a, 10)
	Clamp(b, 0, 1)

	if a[0] != 1 || a[1] != 2 || b[0] != 3 || b[1] != 4 {
		t.Errorf("Eingaben veraendert: a=%v b=%v", a, b)
	}
}

func TestFromFloatsCopies(t *testing.T) {
	ctx := newEagerContext(t)

	src := []float32{1, 2, 3}
	x := ctx.FromFloats(src, 3)
	src[0] = 99

	if got := x.Floats(); got[0] != 1 {
		t.Errorf("Tensor teilt Speicher mit der Eingabe: %v", got)
	}

	out := x.Floats()
	out[1] = 77
	if got := x.Floats(); got[1] != 2 {
		t.Errorf("Floats teilt internen Speicher: %v", got)
	}
}

func TestFromFloatsShapeMismatchPanics(t *testing.T) {
	ctx := newEagerContext(t)

	defer func() {
		if recover() == nil {
			t.Error("FromFloats mit falscher Shape ohne Panic")
		}
	}()
	ctx.FromFloats([]float32{1, 2, 3}, 2, 2)
}

func TestFromInts(t *testing.T) {
	ctx := newEagerContext(t)

	x := ctx.FromInts([]int32{-3, 0, 7}, 3)
	if x.DType() != ml.DTypeI32 {
		t.Errorf("DType = %s, erwartet i32", x.DType())
	}

	want := []float32{-3, 0, 7}
	for i, v := range x.Floats() {
		if v != want[i] {
			t.Errorf("Floats[%d] = %v, erwartet %v", i, v, want[i])
		}
	}
}

func TestZeros(t *testing.T) {
	ctx := newEagerContext(t)

	x := ctx.Zeros(2, 3)
	if x.DType() != ml.DTypeF32 {
		t.Errorf("DType = %s, erwartet f32", x.DType())
	}

	fs := x.Floats()
	if len(fs) != 6 {
		t.Fatalf("len = %d, erwartet 6", len(fs))
	}
	for i, v := range fs {
		if v != 0 {
			t.Errorf("Zeros[%d] = %v", i, v)
		}
	}
}

func TestDTypePropagation(t *testing.T) {
	ctx := newEagerContext(t)

	i := ctx.FromInts([]int32{8, 9}, 2)
	j := ctx.FromInts([]int32{2, 3}, 2)
	f := ctx.FromFloats([]float32{1, 2}, 2)

	tests := []struct {
		name string
		out  ml.Tensor
		want ml.DType
	}{
		{"i trunc_div i", i.TruncDiv(ctx, j), ml.DTypeI32},
		{"i div i", i.Div(ctx, j), ml.DTypeF32},
		{"i add f", i.Add(ctx, f), ml.DTypeF32},
		{"i add_scalar", i.AddScalar(ctx, 1), ml.DTypeI32},
		{"f mul f", f.Mul(ctx, f), ml.DTypeF32},
	}

	for _, tt := range tests {
		if got := tt.out.DType(); got != tt.want {
			t.Errorf("%s: DType = %s, erwartet %s", tt.name, got, tt.want)
		}
	}
}

func TestBinaryShapeMismatchPanics(t *testing.T) {
	ctx := newEagerContext(t)

	x := ctx.FromFloats([]float32{1, 2}, 2)
	y := ctx.FromFloats([]float32{1, 2, 3}, 3)

	defer func() {
		if recover() == nil {
			t.Error("Add mit ungleicher Shape ohne Panic")
		}
	}()
	x.Add(ctx, y)
}

func TestShapeIsCloned(t *testing.T) {
	ctx := newEagerContext(t)

	x := ctx.FromFloats([]float32{1, 2, 3, 4}, 2, 2)
	s := x.Shape()
	s[0] = 99

	if got := x.Shape(); got[0] != 2 {
		t.Errorf("Shape teilt internen Speicher: %v", got)
	}
}

func TestNewRejectsUnknownDevice(t *testing.T) {
	if _, err := New(ml.BackendParams{Device: "tpu"}); err == nil {
		t.Error("unbekanntes Geraet akzeptiert")
	}
}

func TestBackendIdentity(t *testing.T) {
	b, err := New(ml.BackendParams{Device: ml.DeviceCUDA})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if b.Name() != "eager" {
		t.Errorf("Name = %q, erwartet eager", b.Name())
	}
	if b.Device() != ml.DeviceCUDA {
		t.Errorf("Device = %q, erwartet cuda", b.Device())
	}
	if err := b.MarkStep(); err != nil {
		t.Errorf("MarkStep: %v", err)
	}
	if err := b.Wait(context.Background()); err != nil {
		t.Errorf("Wait: %v", err)
	}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Wait(canceled); err == nil {
		t.Error("Wait mit abgebrochenem Context ohne Fehler")
	}
}

func TestRegisteredFactory(t *testing.T) {
	b, err := ml.NewBackend("eager", ml.BackendParams{Device: ml.DeviceCPU})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if b.Name() != "eager" {
		t.Errorf("Name = %q, erwartet eager", b.Name())
	}

	if _, err := ml.NewBackend("tensorrt", ml.BackendParams{Device: ml.DeviceCPU}); err == nil {
		t.Error("unbekannter Backend-Name akzeptiert")
	}
}
