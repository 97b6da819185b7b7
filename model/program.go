// program.go - Programm-gestuetzte Katalog-Eintraege
//
// Dieses Modul enthaelt:
// - FromProgramFile: baut einen Descriptor aus einer .prog-Datei
// - ScanDir: laedt ein Verzeichnis externer Benchmarks
//
// Eingabe-Slots werden pro Instanz aus dem Seed synthetisiert,
// weight-Slots kommen aus der gleichnamigen .ltf-Datei daneben.

package model

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/larch-ml/larch/fs/ltf"
	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/program"
	"github.com/larch-ml/larch/program/upgrade"
)

// FromProgramFile builds a Descriptor from a program file. The
// program is lifted to the current version once; instances replay it
// per backend. A sibling .ltf file provides weight declarations.
func FromProgramFile(path string) (Descriptor, error) {
	prog, err := upgrade.Load(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("load %s: %w", path, err)
	}

	if len(prog.Outputs) == 0 {
		return Descriptor{}, fmt.Errorf("%s: program has no output", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	weightsPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".ltf"

	needsWeights := false
	for _, d := range prog.Decls {
		switch d.Kind {
		case program.DeclInput:
			if len(d.Shape) == 0 {
				return Descriptor{}, fmt.Errorf("%s: input %%%d needs a shape", path, d.Slot)
			}
		case program.DeclWeight:
			needsWeights = true
		case program.DeclScalar:
			return Descriptor{}, fmt.Errorf("%s: scalar formals are upgrader-internal", path)
		}
	}

	if needsWeights {
		if _, err := os.Stat(weightsPath); err != nil {
			return Descriptor{}, fmt.Errorf("%s: weights: %w", path, err)
		}
	}

	return Descriptor{
		Name:     name,
		Supports: func(_ ml.Device, mode Mode) bool { return mode == ModeEval },
		New: func(backend ml.Backend, seed int64) (Instance, error) {
			return newProgramInstance(prog, weightsPath, needsWeights, backend, seed)
		},
	}, nil
}

// ScanDir builds descriptors for every .prog file in dir, sorted by
// file name. An empty directory yields an empty catalog.
func ScanDir(dir string) ([]Descriptor, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.prog"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	descs := make([]Descriptor, 0, len(matches))
	for _, path := range matches {
		d, err := FromProgramFile(path)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return descs, nil
}

type programInstance struct {
	ctx  ml.Context
	prog *program.Program

	// weights stays fixed for the instance lifetime; inputs rebuild
	// on Reseed.
	weights    map[int]ml.Tensor
	inputSlots []int
	inputShape [][]int
	inputs     []ml.Tensor
}

func newProgramInstance(prog *program.Program, weightsPath string, needsWeights bool, backend ml.Backend, seed int64) (Instance, error) {
	ctx := backend.NewContext()

	inst := &programInstance{
		ctx:     ctx,
		prog:    prog,
		weights: make(map[int]ml.Tensor),
	}

	var wf *ltf.File
	if needsWeights {
		var err error
		if wf, err = ltf.Open(weightsPath); err != nil {
			ctx.Close()
			return nil, err
		}
		defer wf.Close()
	}

	for _, d := range prog.Decls {
		switch d.Kind {
		case program.DeclInput:
			inst.inputSlots = append(inst.inputSlots, d.Slot)
			inst.inputShape = append(inst.inputShape, d.Shape)
		case program.DeclWeight:
			data, shape, err := wf.Float32s(d.Name)
			if err != nil {
				ctx.Close()
				return nil, err
			}
			if ml.Elems(shape...) != ml.Elems(d.Shape...) {
				ctx.Close()
				return nil, fmt.Errorf("weight %q: file shape %v, program expects %v", d.Name, shape, d.Shape)
			}
			inst.weights[d.Slot] = ctx.FromFloats(data, d.Shape...)
		}
	}

	inst.Reseed(seed)
	return inst, nil
}

func (m *programInstance) Context() ml.Context { return m.ctx }

func (m *programInstance) Module() (Forwarder, CallArgs) {
	if len(m.inputs) == 1 {
		return m, Single(m.inputs[0])
	}
	return m, Positional(m.inputs...)
}

// Reseed regenerates the synthesized example inputs.
func (m *programInstance) Reseed(seed int64) {
	rng := rand.New(rand.NewSource(seed))

	m.inputs = m.inputs[:0]
	for _, shape := range m.inputShape {
		data := make([]float32, ml.Elems(shape...))
		for j := range data {
			data[j] = float32(rng.NormFloat64())
		}
		m.inputs = append(m.inputs, m.ctx.FromFloats(data, shape...))
	}
}

func (m *programInstance) Close() {
	m.ctx.Close()
}

func (m *programInstance) Forward(ctx ml.Context, inputs ...ml.Tensor) (ml.Tensor, error) {
	if len(inputs) != len(m.inputSlots) {
		return nil, fmt.Errorf("program expects %d inputs, got %d", len(m.inputSlots), len(inputs))
	}

	bind := make(map[int]ml.Tensor, len(m.weights)+len(inputs))
	for slot, t := range m.weights {
		bind[slot] = t
	}
	for i, slot := range m.inputSlots {
		bind[slot] = inputs[i]
	}

	outs, err := program.Eval(ctx, m.prog, bind)
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}
