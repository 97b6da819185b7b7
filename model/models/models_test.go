// models_test.go - Tests fuer den eingebauten Benchmark-Katalog

package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/ml/backend/eager"
	"github.com/larch-ml/larch/model"
)

func findDescriptor(t *testing.T, name string) model.Descriptor {
	t.Helper()

	for _, d := range model.Catalog() {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("%s nicht im Katalog", name)
	return model.Descriptor{}
}

func evalBackend(t *testing.T) ml.Backend {
	t.Helper()

	b, err := eager.New(ml.BackendParams{Device: ml.DeviceCPU})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(b.Close)

	return b
}

func TestCatalogContents(t *testing.T) {
	for _, name := range []string{
		"DivAddMul[1,1,1,1]",
		"DivAddMul[32,16,128,128]",
		"HardSwish[1,1,1,1]",
		"ImageNorm[3,64,64]",
		"SGDStep[4096]",
	} {
		findDescriptor(t, name)
	}
}

func TestDimsName(t *testing.T) {
	if got := dimsName("HardSwish", []int{32, 16, 128, 128}); got != "HardSwish[32,16,128,128]" {
		t.Errorf("dimsName = %q", got)
	}
	if got := dimsName("SGDStep", []int{4096}); got != "SGDStep[4096]" {
		t.Errorf("dimsName = %q", got)
	}
}

func TestSupportsMatrix(t *testing.T) {
	hs := findDescriptor(t, "HardSwish[1,1,1,1]")
	if !hs.Supports(ml.DeviceCPU, model.ModeEval) || !hs.Supports(ml.DeviceCUDA, model.ModeEval) {
		t.Error("HardSwish muss eval auf beiden Geraeten unterstuetzen")
	}
	if hs.Supports(ml.DeviceCPU, model.ModeTrain) {
		t.Error("HardSwish darf train nicht unterstuetzen")
	}

	sgd := findDescriptor(t, "SGDStep[4096]")
	if !sgd.Supports(ml.DeviceCPU, model.ModeEval) || !sgd.Supports(ml.DeviceCPU, model.ModeTrain) {
		t.Error("SGDStep muss eval und train unterstuetzen")
	}
	if sgd.Supports(ml.DeviceCPU, model.Mode("predict")) {
		t.Error("unbekannter Modus akzeptiert")
	}
}

func TestHardSwishForward(t *testing.T) {
	b := evalBackend(t)
	desc := findDescriptor(t, "HardSwish[1,1,1,1]")

	inst, err := desc.New(b, 1337)
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Close()

	fw, args := inst.Module()
	if args.Kind != model.CallSingle {
		t.Fatalf("Kind = %s, erwartet single", args.Kind)
	}

	out, err := model.Call(inst.Context(), fw, args)
	if err != nil {
		t.Fatal(err)
	}

	xs := inst.(*hardSwish).x.Floats()
	got := out.Floats()
	inv := float64(1) / 6
	for i, v := range xs {
		g := v + 3
		if g < 0 {
			g = 0
		}
		if g > 6 {
			g = 6
		}
		p := v * g
		if want := p * float32(inv); got[i] != want {
			t.Errorf("[%d] = %v, erwartet %v", i, got[i], want)
		}
	}
}

func TestDivAddMulForward(t *testing.T) {
	b := evalBackend(t)
	desc := findDescriptor(t, "DivAddMul[1,1,1,1]")

	inst, err := desc.New(b, 7)
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Close()

	fw, args := inst.Module()
	if args.Kind != model.CallPositional {
		t.Fatalf("Kind = %s, erwartet positional", args.Kind)
	}

	out, err := model.Call(inst.Context(), fw, args)
	if err != nil {
		t.Fatal(err)
	}

	da := inst.(*divAddMul)
	xs, ms := da.inputs.Floats(), da.mask.Floats()
	got := out.Floats()
	for i := range xs {
		// float32-Konvertierung erzwingt die Einzelrundung der Kernel
		d := float32(xs[i] * 1)
		s := d + ms[i]
		if want := s * 5; got[i] != want {
			t.Errorf("[%d] = %v, erwartet %v", i, got[i], want)
		}
	}
}

func TestImageNormForward(t *testing.T) {
	b := evalBackend(t)
	desc := findDescriptor(t, "ImageNorm[3,64,64]")

	inst, err := desc.New(b, 1337)
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Close()

	fw, args := inst.Module()
	if args.Kind != model.CallNamed {
		t.Fatalf("Kind = %s, erwartet named", args.Kind)
	}

	out, err := model.Call(inst.Context(), fw, args)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]int{3, 64, 64}, out.Shape()); diff != "" {
		t.Errorf("Shape (-erwartet +bekommen):\n%s", diff)
	}

	in := inst.(*imageNorm)
	ps, means, stds := in.pixels.Floats(), in.mean.Floats(), in.std.Floats()
	got := out.Floats()
	for i := range ps {
		d := ps[i] - means[i]
		if want := d / stds[i]; got[i] != want {
			t.Fatalf("[%d] = %v, erwartet %v", i, got[i], want)
		}
	}
}

func TestSGDStepTraining(t *testing.T) {
	b := evalBackend(t)
	desc := findDescriptor(t, "SGDStep[4096]")

	inst, err := desc.New(b, 99)
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Close()

	m := inst.(*sgdStep)
	xs, ys := m.x.Floats(), m.y.Floats()

	tr, ok := inst.(model.Trainable)
	if !ok {
		t.Fatal("SGDStep implementiert Trainable nicht")
	}
	if err := tr.Train(1); err != nil {
		t.Fatal(err)
	}

	// Gewichte starten bei null; ein Schritt ist analytisch
	// nachrechenbar, solange jede Operation einzeln rundet
	lr := 0.01
	ws := m.w.Floats()
	for i := range xs {
		pred := float32(xs[i] * 0)
		diff := pred - ys[i]
		mulx := diff * xs[i]
		grad := mulx * 2
		step := float32(grad * float32(lr))
		if want := 0 - step; ws[i] != want {
			t.Fatalf("w[%d] = %v, erwartet %v", i, ws[i], want)
		}
	}

	fw, args := inst.Module()
	out, err := model.Call(inst.Context(), fw, args)
	if err != nil {
		t.Fatal(err)
	}
	got := out.Floats()
	for i := range xs {
		if want := xs[i] * ws[i]; got[i] != want {
			t.Fatalf("Forward[%d] = %v, erwartet %v", i, got[i], want)
		}
	}
}

func TestHardSwishReseedDeterministic(t *testing.T) {
	b := evalBackend(t)
	desc := findDescriptor(t, "HardSwish[1,1,1,1]")

	a, err := desc.New(b, 42)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	c, err := desc.New(b, 42)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	av := a.(*hardSwish).x.Floats()
	cv := c.(*hardSwish).x.Floats()
	if av[0] != cv[0] {
		t.Errorf("gleicher Seed, verschiedene Eingaben: %v vs %v", av[0], cv[0])
	}

	sd, ok := a.(model.Seeder)
	if !ok {
		t.Fatal("HardSwish implementiert Seeder nicht")
	}
	sd.Reseed(43)
	if nv := a.(*hardSwish).x.Floats(); nv[0] == av[0] {
		t.Errorf("Reseed ohne Wirkung: %v", nv[0])
	}
}
