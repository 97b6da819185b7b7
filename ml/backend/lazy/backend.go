// backend.go - Lazy-Backend: aufgezeichnete, verzoegerte Ausfuehrung
//
// Dieses Modul enthaelt:
// - Backend: Zeichnet Operationen in ein Trace-Fenster auf
// - MarkStep: Schliesst das Fenster, kompiliert (mit Cache) und reiht
//   das Programm in die Device-Queue ein, ohne zu blockieren
// - Wait: Barriere, wartet bis die Queue leer ist
// - SetFuser/SetNoopExecution: optionale Backend-Faehigkeiten
//
// Counter-Namen liegen im Namensraum "lazy::". Operationen, die das
// Lazy-Backend nicht kompilieren kann, laufen sofort ueber die
// Eager-Kernel und zaehlen unter "eager::<op>".
package lazy

import (
	"context"
	"fmt"
	"sync"

	"github.com/larch-ml/larch/envconfig"
	"github.com/larch-ml/larch/metrics"
	"github.com/larch-ml/larch/ml"
)

// Counter names recorded by this backend.
const (
	CounterMarkStep        = "lazy::MarkStep"
	CounterCachedCompile   = "lazy::CachedCompile"
	CounterUncachedCompile = "lazy::UncachedCompile"
	CounterFusedKernel     = "lazy::FusedKernel"
	CounterExecute         = "lazy::ExecuteComputation"
	CounterWaitDeviceOps   = "lazy::WaitDeviceOps"

	// FallbackPrefix prefixes counters of operations that fell back
	// to eager execution.
	FallbackPrefix = "eager::"
)

func init() {
	ml.RegisterBackend("lazy", New)
}

// Backend records operations into a trace window and executes compiled
// windows asynchronously on a device stream.
type Backend struct {
	device ml.Device

	mu     sync.Mutex
	window *window
	cache  map[cacheKey]*compiled
	fuser  ml.Fuser
	noop   bool

	stream *stream
}

// New erzeugt ein Lazy-Backend fuer das angegebene Geraet
func New(params ml.BackendParams) (ml.Backend, error) {
	if !params.Device.Valid() {
		return nil, fmt.Errorf("lazy: unknown device %q", params.Device)
	}

	depth := params.QueueDepth
	if depth <= 0 {
		depth = int(envconfig.QueueDepth())
	}

	b := &Backend{
		device: params.Device,
		window: newWindow(),
		cache:  make(map[cacheKey]*compiled),
		fuser:  defaultFuser(params.Device),
		stream: newStream(depth),
	}
	return b, nil
}

// defaultFuser matches the per-device default of the CLI: nnc on cpu,
// nvfuser on cuda.
func defaultFuser(device ml.Device) ml.Fuser {
	if device == ml.DeviceCUDA {
		return ml.FuserNVFuser
	}
	return ml.FuserNNC
}

func (b *Backend) Name() string {
	return "lazy"
}

func (b *Backend) Device() ml.Device {
	return b.device
}

func (b *Backend) NewContext() ml.Context {
	return &Context{backend: b}
}

// SetFuser installs a fusion profile and returns a restore function.
func (b *Backend) SetFuser(f ml.Fuser) (restore func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.fuser
	b.fuser = f
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.fuser = prev
	}
}

// SetNoopExecution toggles trace-only mode: windows are recorded and
// discarded without compiling or executing. Tensors recorded in this
// mode never materialize and read back as zeros.
func (b *Backend) SetNoopExecution(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.noop = enabled
}

// MarkStep ends the current recording window. An empty window only
// counts the step. A non-empty window is compiled (or served from the
// compile cache) and queued on the device stream without blocking.
func (b *Backend) MarkStep() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.markStepLocked()
}

func (b *Backend) markStepLocked() error {
	metrics.Default.Counter(CounterMarkStep).Inc()

	w := b.window
	if len(w.nodes) == 0 {
		return nil
	}
	b.window = newWindow()

	if b.noop {
		// trace-only: keep the record/reset rhythm, skip the rest
		for _, v := range w.outputs {
			v.markNoop()
		}
		return nil
	}

	key := w.cacheKey(b.fuser)
	prog, ok := b.cache[key]
	if ok {
		metrics.Default.Counter(CounterCachedCompile).Inc()
	} else {
		prog = compile(w, b.fuser)
		b.cache[key] = prog
		metrics.Default.Counter(CounterUncachedCompile).Inc()
		if n := prog.fusedKernels(); n > 0 {
			metrics.Default.Counter(CounterFusedKernel).Add(int64(n))
		}
	}

	return b.stream.submit(&submission{
		prog:   prog,
		inputs: w.inputs,
		outs:   w.outputs,
	})
}

// Wait blocks until all queued device work has completed.
func (b *Backend) Wait(ctx context.Context) error {
	metrics.Default.Counter(CounterWaitDeviceOps).Inc()
	return b.stream.wait(ctx)
}

func (b *Backend) Close() {
	b.stream.close()
}

// flush ends the window and waits; used when a recorded value must
// materialize immediately (Floats, eager fallbacks).
func (b *Backend) flush() error {
	if err := b.MarkStep(); err != nil {
		return err
	}
	return b.Wait(context.Background())
}

var _ ml.Fusable = (*Backend)(nil)
var _ ml.NoopExecutor = (*Backend)(nil)
