// write.go - Schreiben von LTF-Dateien
//
// Enthaelt: Write fuer den Checkpoint-Import und die Tests. Die
// Tensoren werden in Aufrufreihenfolge abgelegt, die Metadaten
// alphabetisch.

package ltf

import (
	"encoding/binary"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/larch-ml/larch/ml"
)

// Tensor ist ein zu schreibender Tensor mit Host-Daten.
type Tensor struct {
	Name  string
	DType ml.DType
	Shape []int
	Data  []float32
}

// Write schreibt eine LTF-Datei mit Metadaten und Tensoren.
func Write(f *os.File, kv map[string]string, tensors []*Tensor) error {
	encoded := make([][]byte, len(tensors))
	infos := make([]TensorInfo, len(tensors))

	var offset uint64
	for i, t := range tensors {
		if want := ml.Elems(t.Shape...); len(t.Data) != want {
			return fmt.Errorf("ltf: %q has %d values for shape with %d elements", t.Name, len(t.Data), want)
		}

		buf, err := ml.EncodeFloats(t.DType, t.Data)
		if err != nil {
			return fmt.Errorf("ltf: %q: %w", t.Name, err)
		}

		encoded[i] = buf
		infos[i] = TensorInfo{Name: t.Name, DType: t.DType, Shape: t.Shape, Offset: offset}
		offset += uint64(len(buf)) + uint64(padding(int64(len(buf)), alignment))
	}

	w := &countingWriter{w: f}

	if err := binary.Write(w, binary.LittleEndian, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(currentVersion)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(kv))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(tensors))); err != nil {
		return err
	}

	for _, key := range slices.Sorted(maps.Keys(kv)) {
		if err := writeString(w, key); err != nil {
			return err
		}
		if err := writeString(w, kv[key]); err != nil {
			return err
		}
	}

	for _, ti := range infos {
		if err := writeTensorInfo(w, ti); err != nil {
			return err
		}
	}

	if err := pad(w); err != nil {
		return err
	}

	for _, buf := range encoded {
		if _, err := w.Write(buf); err != nil {
			return err
		}
		if err := pad(w); err != nil {
			return err
		}
	}

	return f.Sync()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, []byte(s))
}

func writeTensorInfo(w io.Writer, ti TensorInfo) error {
	if err := writeString(w, ti.Name); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(ti.DType)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(ti.Shape))); err != nil {
		return err
	}
	for _, d := range ti.Shape {
		if err := binary.Write(w, binary.LittleEndian, uint64(d)); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, ti.Offset)
}

// pad fuellt bis zur naechsten Ausrichtungsgrenze mit Nullen auf.
func pad(w *countingWriter) error {
	fill := padding(w.n, alignment)
	if fill == 0 {
		return nil
	}
	_, err := w.Write(make([]byte, fill))
	return err
}
