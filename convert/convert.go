// convert.go - Checkpoint-Konvertierung in das Katalog-Layout
// Hauptfunktionen: Import, writeModel, repack, skeletonProgram
//
// Aus einem Checkpoint entstehen zwei Dateien im Zielverzeichnis:
// <name>.ltf mit den Gewichten und ein <name>.prog-Geruest, das den
// groessten Tensor als weight-Slot bindet. Das Geruest ist als
// Startpunkt gedacht und wird von Hand weiter ausgebaut.
package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdevine/tensor"
	"github.com/pdevine/tensor/native"

	"github.com/larch-ml/larch/fs/ltf"
	"github.com/larch-ml/larch/program"
)

// Result beschreibt die geschriebenen Dateien eines Imports.
type Result struct {
	Name        string
	ProgPath    string
	WeightsPath string

	// Tensors ist die konvertierte Tensor-Tabelle in Schreibreihenfolge.
	Tensors []Tensor
}

// Import - Konvertiert einen Checkpoint zu <name>.prog plus <name>.ltf
//
// fn meldet den Fortschritt nach jedem Tensor, der erste Aufruf mit
// converted=0 traegt die Gesamtzahl. fn darf nil sein.
func Import(path, outDir string, fn func(converted, total int)) (*Result, error) {
	ts, err := Load(path)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name == "" {
		name = "model"
	}

	return writeModel(name, filepath.Base(path), outDir, ts, fn)
}

// writeModel - Schreibt Gewichtsdatei und Programm-Geruest
func writeModel(name, source, outDir string, ts []Tensor, fn func(converted, total int)) (*Result, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("convert: %s: no tensors to write", name)
	}
	if fn == nil {
		fn = func(int, int) {}
	}
	fn(0, len(ts))

	var repacked []string
	lts := make([]*ltf.Tensor, 0, len(ts))
	for i := range ts {
		if needsRepack(ts[i]) {
			if err := repack(&ts[i]); err != nil {
				return nil, fmt.Errorf("convert: repack %q: %w", ts[i].Name, err)
			}
			repacked = append(repacked, ts[i].Name)
		}

		lts = append(lts, &ltf.Tensor{
			Name:  ts[i].Name,
			DType: ts[i].DType,
			Shape: ts[i].Shape,
			Data:  ts[i].Data,
		})
		fn(i+1, len(ts))
	}

	kv := map[string]string{
		"general.architecture": "larch",
		"general.name":         name,
		"general.source":       source,
	}
	if len(repacked) > 0 {
		kv["larch.repacked"] = strings.Join(repacked, ",")
	}

	res := &Result{
		Name:        name,
		ProgPath:    filepath.Join(outDir, name+".prog"),
		WeightsPath: filepath.Join(outDir, name+".ltf"),
		Tensors:     ts,
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	wf, err := os.Create(res.WeightsPath)
	if err != nil {
		return nil, err
	}
	defer wf.Close()

	if err := ltf.Write(wf, kv, lts); err != nil {
		return nil, fmt.Errorf("convert: write %s: %w", res.WeightsPath, err)
	}

	if err := program.SaveFile(res.ProgPath, skeletonProgram(ts)); err != nil {
		return nil, fmt.Errorf("convert: write %s: %w", res.ProgPath, err)
	}

	return res, nil
}

// needsRepack - Matrix-Gewichte werden in das Spalten-zuerst-Layout gedreht
func needsRepack(t Tensor) bool {
	return len(t.Shape) == 2 && t.Elements() > 0 && strings.HasSuffix(t.Name, ".weight")
}

// repack - Transponiert einen 2D-Tensor samt Daten
func repack(t *Tensor) error {
	n := tensor.New(tensor.WithShape(t.Shape...), tensor.WithBacking(t.Data))
	if err := n.T(1, 0); err != nil {
		return err
	}
	if err := n.Transpose(); err != nil {
		return err
	}

	rows, err := native.SelectF32(n, 0)
	if err != nil {
		return err
	}

	out := make([]float32, 0, len(t.Data))
	for _, row := range rows {
		out = append(out, row...)
	}

	t.Shape = []int{t.Shape[1], t.Shape[0]}
	t.Data = out
	return nil
}

// skeletonProgram - Baut das Programm-Geruest x*w + w
//
// Gebunden wird der groesste Tensor des Checkpoints, der Eingabe-Slot
// bekommt dieselbe Form. Skalare Tensoren werden auf [1] angehoben,
// weil Eingabe-Deklarationen eine Form brauchen.
func skeletonProgram(ts []Tensor) *program.Program {
	w := ts[0]
	for _, t := range ts[1:] {
		if t.Elements() > w.Elements() {
			w = t
		}
	}

	shape := w.Shape
	if len(shape) == 0 {
		shape = []int{1}
	}

	return &program.Program{
		Version: program.CurrentVersion,
		Decls: []program.Decl{
			{Kind: program.DeclInput, Slot: 0, Shape: shape},
			{Kind: program.DeclWeight, Slot: 1, Shape: shape, Name: w.Name},
		},
		Ops: []program.Op{
			{Result: 2, Name: program.OpMul, Args: []program.Arg{program.SlotArg(0), program.SlotArg(1)}},
			{Result: 3, Name: program.OpAdd, Args: []program.Arg{program.SlotArg(2), program.SlotArg(1)}},
		},
		Outputs: []int{3},
	}
}
