// trace.go - Trace-Fenster und Werte des Lazy-Backends
//
// Ein Fenster sammelt die seit dem letzten MarkStep aufgezeichneten
// Operationen. Operanden werden auf fensterlokale Slots abgebildet:
// erst die Eingaben (Leaf-Werte oder Ausgaben frueherer Fenster),
// dann die Ausgaben der Knoten in Aufzeichnungsreihenfolge.
package lazy

import (
	"encoding/binary"
	"math"

	"golang.org/x/crypto/blake2b"

	"github.com/larch-ml/larch/ml"
)

type opKind uint8

const (
	opAdd opKind = iota
	opSub
	opMul
	opDiv
	opAddScalar
	opScale
	opClamp
)

func (k opKind) String() string {
	switch k {
	case opAdd:
		return "add"
	case opSub:
		return "sub"
	case opMul:
		return "mul"
	case opDiv:
		return "div"
	case opAddScalar:
		return "add_scalar"
	case opScale:
		return "scale"
	case opClamp:
		return "clamp"
	default:
		return "unknown"
	}
}

// node is one recorded operation. a and b are window-local slots;
// b is negative for unary operations.
type node struct {
	kind     opKind
	a, b     int
	scalar   float64
	min, max float32
	out      int
	elems    int
}

// value is the device-side result of a recorded operation or a leaf
// upload. done is closed once buf is valid.
type value struct {
	buf   []float32
	elems int
	done  chan struct{}
}

func newLeaf(buf []float32) *value {
	v := &value{buf: buf, elems: len(buf), done: make(chan struct{})}
	close(v.done)
	return v
}

func newPending(elems int) *value {
	return &value{elems: elems, done: make(chan struct{})}
}

// markNoop resolves a pending value in trace-only mode. The buffer
// stays nil; readers get zeros.
func (v *value) markNoop() {
	select {
	case <-v.done:
	default:
		close(v.done)
	}
}

// wait blocks until the value is materialized and returns its buffer.
// A nil buffer means the value was recorded in trace-only mode.
func (v *value) wait() []float32 {
	<-v.done
	if v.buf == nil {
		return make([]float32, v.elems)
	}
	return v.buf
}

// window is the current recording window.
type window struct {
	inputs  []*value    // slot-ordered leaf operands
	slots   map[*value]int
	nodes   []node
	outputs []*value // one per node, same order
}

func newWindow() *window {
	return &window{slots: make(map[*value]int)}
}

// slotOf returns the window-local slot of v, registering it as an
// input on first use. Values produced inside the window already have
// their node-output slot registered.
func (w *window) slotOf(v *value) int {
	if s, ok := w.slots[v]; ok {
		return s
	}

	s := len(w.inputs)
	w.inputs = append(w.inputs, v)
	w.slots[v] = s
	return s
}

// record appends a node and returns the value carrying its result.
func (w *window) record(kind opKind, a, b *value, scalar float64, min, max float32, elems int) *value {
	n := node{
		kind:   kind,
		a:      w.slotOf(a),
		b:      -1,
		scalar: scalar,
		min:    min,
		max:    max,
		elems:  elems,
	}
	if b != nil {
		n.b = w.slotOf(b)
	}

	out := newPending(elems)
	n.out = nodeSlotBase + len(w.nodes)
	w.nodes = append(w.nodes, n)
	w.outputs = append(w.outputs, out)
	w.slots[out] = n.out
	return out
}

// nodeSlotBase leaves input slots and node slots in one address space.
// Node i lives at slot len(inputs)+i once recording is finished; while
// recording, input slots still grow, so node slots are provisional and
// rebased during compilation.
const nodeSlotBase = 1 << 20

type cacheKey [32]byte

// cacheKey canonically encodes the window structure plus the fuser
// profile. Two windows with identical structure share a compiled
// program even when their operand values differ.
func (w *window) cacheKey(fuser ml.Fuser) cacheKey {
	buf := make([]byte, 0, 16+len(w.nodes)*44)
	buf = append(buf, []byte(fuser)...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(w.inputs)))
	for _, in := range w.inputs {
		buf = binary.BigEndian.AppendUint32(buf, uint32(in.elems))
	}
	for _, n := range w.nodes {
		buf = append(buf, byte(n.kind))
		buf = binary.BigEndian.AppendUint32(buf, uint32(w.finalSlot(n.a)))
		buf = binary.BigEndian.AppendUint32(buf, uint32(w.finalSlot(n.b)+1))
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(n.scalar))
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(n.min))
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(n.max))
		buf = binary.BigEndian.AppendUint32(buf, uint32(n.elems))
	}

	return blake2b.Sum256(buf)
}

// finalSlot rebases a provisional node slot now that the input count
// is fixed. Input slots pass through unchanged.
func (w *window) finalSlot(s int) int {
	if s >= nodeSlotBase {
		return s - nodeSlotBase + len(w.inputs)
	}
	return s
}
