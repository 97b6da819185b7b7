// Package ltf - Gewichts-Container fuer Katalog-Programme
//
// Dieses Modul enthaelt das LTF-Dateiformat (larch tensor file):
// flache, benannte Tensoren mit Element-Typ und Shape plus ein paar
// String-Metadaten. Programme mit weight-Deklarationen binden ihre
// Slots gegen die hier abgelegten Tensoren.
//
// Aufbau (alles Little-Endian):
// - Magic "LTF1", Version
// - Anzahl KV-Paare, Anzahl Tensoren
// - KV-Paare (Key/Value als laengenpraefixierte Strings)
// - Tensor-Tabelle (Name, DType, Shape, Offset in den Datenblock)
// - auf 32 Byte ausgerichteter Datenblock

package ltf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/larch-ml/larch/ml"
)

// ErrUnsupported wird bei fremden Formaten oder Versionen zurueckgegeben
var ErrUnsupported = errors.New("unsupported")

var magic = [4]byte{'L', 'T', 'F', '1'}

const (
	currentVersion = 1
	alignment      = 32
)

// TensorInfo beschreibt einen abgelegten Tensor.
type TensorInfo struct {
	Name  string
	DType ml.DType
	Shape []int

	// Offset is relative to the start of the data block.
	Offset uint64
}

// Elements gibt die Anzahl der Elemente zurueck
func (ti TensorInfo) Elements() int {
	return ml.Elems(ti.Shape...)
}

// byteSize ist die Groesse des kodierten Tensors in Bytes.
func (ti TensorInfo) byteSize() (int64, error) {
	switch ti.DType {
	case ml.DTypeF32:
		return int64(4 * ti.Elements()), nil
	case ml.DTypeF16, ml.DTypeBF16:
		return int64(2 * ti.Elements()), nil
	default:
		return 0, fmt.Errorf("%w dtype %s", ErrUnsupported, ti.DType)
	}
}

// File repraesentiert eine geoeffnete LTF-Datei.
type File struct {
	Version uint32

	kvs    map[string]string
	infos  []TensorInfo
	byName map[string]int

	file    *os.File
	dataOff int64
}

// Open oeffnet eine LTF-Datei und liest Metadaten und Tensor-Tabelle.
func Open(path string) (f *File, err error) {
	f = &File{
		kvs:    make(map[string]string),
		byName: make(map[string]int),
	}

	f.file, err = os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			f.file.Close()
		}
	}()

	r := &countingReader{r: f.file}

	var m [4]byte
	if err := binary.Read(r, binary.LittleEndian, &m); err != nil {
		return nil, err
	}
	if !bytes.Equal(m[:], magic[:]) {
		return nil, fmt.Errorf("%w file type %q", ErrUnsupported, m)
	}

	if err := binary.Read(r, binary.LittleEndian, &f.Version); err != nil {
		return nil, err
	}
	if f.Version != currentVersion {
		return nil, fmt.Errorf("%w version %d", ErrUnsupported, f.Version)
	}

	var kvCount, tensorCount uint64
	if err := binary.Read(r, binary.LittleEndian, &kvCount); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &tensorCount); err != nil {
		return nil, err
	}

	for range kvCount {
		key, err := readString(r)
		if err != nil {
			return nil, err
		}
		value, err := readString(r)
		if err != nil {
			return nil, err
		}
		f.kvs[key] = value
	}

	for range tensorCount {
		ti, err := readTensorInfo(r)
		if err != nil {
			return nil, err
		}
		if _, dup := f.byName[ti.Name]; dup {
			return nil, fmt.Errorf("ltf: duplicate tensor %q", ti.Name)
		}
		f.byName[ti.Name] = len(f.infos)
		f.infos = append(f.infos, ti)
	}

	f.dataOff = r.n + padding(r.n, alignment)
	return f, nil
}

// Close schliesst die Datei.
func (f *File) Close() error {
	return f.file.Close()
}

// KeyValue gibt den Metadaten-Wert fuer key zurueck, leer wenn absent.
func (f *File) KeyValue(key string) string {
	return f.kvs[key]
}

// Tensors gibt die Tensor-Tabelle in Dateireihenfolge zurueck.
func (f *File) Tensors() []TensorInfo {
	out := make([]TensorInfo, len(f.infos))
	copy(out, f.infos)
	return out
}

// Float32s liest den benannten Tensor und dekodiert ihn zu float32.
func (f *File) Float32s(name string) ([]float32, []int, error) {
	idx, ok := f.byName[name]
	if !ok {
		return nil, nil, fmt.Errorf("ltf: no tensor %q", name)
	}
	ti := f.infos[idx]

	size, err := ti.byteSize()
	if err != nil {
		return nil, nil, err
	}

	buf := make([]byte, size)
	if _, err := f.file.ReadAt(buf, f.dataOff+int64(ti.Offset)); err != nil {
		return nil, nil, fmt.Errorf("ltf: read %q: %w", name, err)
	}

	s, err := ml.DecodeFloats(ti.DType, buf)
	if err != nil {
		return nil, nil, err
	}
	return s, ti.Shape, nil
}

// countingReader zaehlt gelesene Bytes fuer die Ausrichtung.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func readString(r io.Reader) (string, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > 1<<20 {
		return "", fmt.Errorf("ltf: string length %d out of range", n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readTensorInfo(r io.Reader) (TensorInfo, error) {
	var ti TensorInfo

	name, err := readString(r)
	if err != nil {
		return ti, err
	}
	ti.Name = name

	var dtype, ndims uint32
	if err := binary.Read(r, binary.LittleEndian, &dtype); err != nil {
		return ti, err
	}
	ti.DType = ml.DType(dtype)

	if err := binary.Read(r, binary.LittleEndian, &ndims); err != nil {
		return ti, err
	}
	if ndims > 8 {
		return ti, fmt.Errorf("ltf: %q has %d dimensions", ti.Name, ndims)
	}

	ti.Shape = make([]int, ndims)
	for i := range ti.Shape {
		var d uint64
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			return ti, err
		}
		ti.Shape[i] = int(d)
	}

	if err := binary.Read(r, binary.LittleEndian, &ti.Offset); err != nil {
		return ti, err
	}
	return ti, nil
}

// padding gibt die Fuellbytes bis zur naechsten Ausrichtung zurueck.
func padding(offset int64, align int64) int64 {
	return (align - offset%align) % align
}
