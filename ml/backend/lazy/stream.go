// stream.go - Asynchrone Device-Queue des Lazy-Backends
//
// Dieses Modul enthaelt:
// - stream: FIFO-Queue mit einem Executor-Goroutine (Device-Stream)
// - submit: Nicht-blockierendes Einreihen, begrenzt durch eine Semaphore
// - wait: Fence-basierte Barriere
//
// Die FIFO-Ordnung stellt sicher, dass Werte aus frueheren Fenstern
// materialisiert sind, bevor ein spaeteres Fenster sie liest.
package lazy

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/larch-ml/larch/metrics"
)

// submission is either a compiled window or a fence marker.
type submission struct {
	prog   *compiled
	inputs []*value
	outs   []*value

	fence chan struct{}
}

type stream struct {
	ch  chan *submission
	sem *semaphore.Weighted
	g   errgroup.Group
}

func newStream(depth int) *stream {
	s := &stream{
		ch:  make(chan *submission, depth),
		sem: semaphore.NewWeighted(int64(depth)),
	}
	s.g.Go(func() error {
		s.run()
		return nil
	})
	return s
}

// submit queues compiled work, blocking only when the queue depth is
// exhausted.
func (s *stream) submit(sub *submission) error {
	if err := s.sem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	s.ch <- sub
	return nil
}

// wait enqueues a fence and blocks until the stream reaches it.
func (s *stream) wait(ctx context.Context) error {
	fence := &submission{fence: make(chan struct{})}
	s.ch <- fence

	select {
	case <-fence.fence:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stream) close() {
	close(s.ch)
	_ = s.g.Wait()
}

func (s *stream) run() {
	for sub := range s.ch {
		if sub.fence != nil {
			close(sub.fence)
			continue
		}

		s.execute(sub)
		s.sem.Release(1)
		metrics.Default.Counter(CounterExecute).Inc()
	}
}

// execute runs a compiled program over a fresh register file and
// resolves the window's output values.
func (s *stream) execute(sub *submission) {
	regs := make([][]float32, sub.prog.slots)
	for i, v := range sub.inputs {
		// FIFO-Ordnung garantiert, dass done hier bereits geschlossen
		// ist; wait liefert Nullen fuer Werte aus Trace-only-Fenstern.
		regs[i] = v.wait()
	}

	for _, in := range sub.prog.instrs {
		runInstr(regs, in)
	}

	for i, v := range sub.outs {
		v.buf = regs[sub.prog.inputs+i]
		close(v.done)
	}
}

// runInstr applies all stages of one instruction in a single pass.
func runInstr(regs [][]float32, in instr) {
	a := regs[in.a]

	// allocate every stage output up front
	for _, st := range in.stages {
		regs[st.out] = make([]float32, in.elems)
	}

	for idx := 0; idx < in.elems; idx++ {
		v := a[idx]
		for _, st := range in.stages {
			switch st.kind {
			case opAdd:
				v += regs[st.b][idx]
			case opSub:
				v -= regs[st.b][idx]
			case opMul:
				v *= regs[st.b][idx]
			case opDiv:
				v /= regs[st.b][idx]
			case opAddScalar:
				v += float32(st.scalar)
			case opScale:
				v *= float32(st.scalar)
			case opClamp:
				if v < st.min {
					v = st.min
				}
				if v > st.max {
					v = st.max
				}
			}
			regs[st.out][idx] = v
		}
	}
}
