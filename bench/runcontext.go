// runcontext.go - Zustand eines Bench-Laufs
//
// Dieses Modul enthaelt:
// - Options: Validierte Lauf-Parameter der CLI
// - RunContext: Backends, Katalog, Filter, Ausgabe-Senken und die
//   gesammelten Ergebnis-Zeilen eines Laufs
// - ResolveFuser: Geraeteabhaengige Fuser-Auswahl und -Pruefung
//
// Frueher steckten Name und Geraet des laufenden Benchmarks in
// Paket-Globals; der RunContext ersetzt das und wird explizit
// durchgereicht.
package bench

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/larch-ml/larch/envconfig"
	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/model"
)

// Options sind die Parameter eines Bench-Laufs
type Options struct {
	// Filter and Exclude are unanchored, case-insensitive patterns.
	// A name runs when any Filter matches (or none is given) and no
	// Exclude matches.
	Filter  []string
	Exclude []string

	Device          ml.Device
	Test            model.Mode
	Warmup          int
	Repeat          int
	InnerLoopRepeat int

	// Fuser is the requested profile; empty selects the device default.
	Fuser ml.Fuser

	// ModelsDir points at an external catalog of serialized programs.
	ModelsDir string

	// OutputDir receives the CSV files.
	OutputDir string

	DumpCounters bool
	TracingNoops bool

	// Save persists the run into the history store.
	Save bool
}

// Row ist eine Ergebnis-Zeile eines Experiments
type Row struct {
	Name       string
	Device     ml.Device
	Experiment string

	// Metric is "overhead" or "speedup"; Value the median ratio.
	Metric string
	Value  float64
	PValue float64
}

// RunContext carries everything one bench run needs. It is not safe
// for concurrent use; the harness is single-threaded by design.
type RunContext struct {
	ID      uuid.UUID
	Started time.Time
	Opts    Options

	// Ref is the eager reference backend, Lazy the accelerated one.
	Ref  ml.Backend
	Lazy ml.Backend

	catalog  []model.Descriptor
	filters  []*regexp.Regexp
	excludes []*regexp.Regexp

	out  io.Writer
	csv  *csvSink
	rows []Row
}

// NewRunContext validates the options, creates both backends and loads
// the catalog. The caller owns Close.
func NewRunContext(opts Options) (*RunContext, error) {
	if !opts.Device.Valid() {
		return nil, fmt.Errorf("unknown device %q", opts.Device)
	}
	if !opts.Test.Valid() {
		return nil, fmt.Errorf("unknown test %q", opts.Test)
	}
	if opts.Device == ml.DeviceCUDA && !envconfig.TSCuda() {
		return nil, fmt.Errorf("device %s needs LARCH_TS_CUDA=1", opts.Device)
	}

	fuser, err := ResolveFuser(opts.Device, opts.Fuser)
	if err != nil {
		return nil, err
	}
	opts.Fuser = fuser

	if opts.OutputDir == "" {
		opts.OutputDir = envconfig.OutputDir()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	filters, err := compilePatterns(opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	excludes, err := compilePatterns(opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude: %w", err)
	}

	catalog, err := loadCatalog(opts.ModelsDir)
	if err != nil {
		return nil, err
	}

	ref, err := ml.NewBackend("eager", ml.BackendParams{Device: opts.Device})
	if err != nil {
		return nil, err
	}
	lazy, err := ml.NewBackend("lazy", ml.BackendParams{Device: opts.Device})
	if err != nil {
		ref.Close()
		return nil, err
	}

	return &RunContext{
		ID:       uuid.New(),
		Started:  time.Now(),
		Opts:     opts,
		Ref:      ref,
		Lazy:     lazy,
		catalog:  catalog,
		filters:  filters,
		excludes: excludes,
		out:      os.Stdout,
		csv:      newCSVSink(opts.OutputDir),
	}, nil
}

// Close schliesst Backends und CSV-Dateien
func (rc *RunContext) Close() error {
	err := rc.csv.Close()
	rc.Lazy.Close()
	rc.Ref.Close()
	return err
}

// SetOutput redirects the report lines, which default to stdout.
func (rc *RunContext) SetOutput(w io.Writer) {
	rc.out = w
}

// Rows returns the result rows collected so far, in append order.
func (rc *RunContext) Rows() []Row {
	out := make([]Row, len(rc.rows))
	copy(out, rc.rows)
	return out
}

func (rc *RunContext) appendRow(r Row) {
	rc.rows = append(rc.rows, r)
}

// refSync picks the reference-side strategy: a device barrier on an
// accelerator, nothing on the cpu (eager cpu work is synchronous).
func (rc *RunContext) refSync(everyIter bool) Sync {
	if rc.Opts.Device == ml.DeviceCUDA {
		return BarrierSync{Backend: rc.Ref, EveryIter: everyIter}
	}
	return NoSync{}
}

// ResolveFuser maps an empty fuser to the device default and rejects
// profiles the device cannot run. FuserNoopt bypasses the check.
func ResolveFuser(device ml.Device, f ml.Fuser) (ml.Fuser, error) {
	if f == ml.FuserNoopt {
		return f, nil
	}
	if f == "" {
		if device == ml.DeviceCUDA {
			return ml.FuserNVFuser, nil
		}
		return ml.FuserNNC, nil
	}
	if !f.Valid() {
		return "", fmt.Errorf("unknown fuser %q", f)
	}

	switch device {
	case ml.DeviceCPU:
		if f != ml.FuserLegacy && f != ml.FuserNNC {
			return "", fmt.Errorf("fuser %s not supported on %s", f, device)
		}
	case ml.DeviceCUDA:
		if f != ml.FuserLegacy && f != ml.FuserNVFuser {
			return "", fmt.Errorf("fuser %s not supported on %s", f, device)
		}
	}
	return f, nil
}

// compilePatterns builds unanchored case-insensitive matchers.
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// loadCatalog merges the built-in catalog with an external program
// directory. Unlike Register, a name collision with user files is a
// runtime condition and reported as an error.
func loadCatalog(dir string) ([]model.Descriptor, error) {
	catalog := model.Catalog()

	if dir == "" {
		dir = envconfig.Models()
	}
	if dir == "" {
		return catalog, nil
	}

	external, err := model.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading models from %s: %w", dir, err)
	}

	seen := make(map[string]bool, len(catalog))
	for _, d := range catalog {
		seen[d.Name] = true
	}
	for _, d := range external {
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate model name %q in %s", d.Name, dir)
		}
		seen[d.Name] = true
		catalog = append(catalog, d)
	}
	return catalog, nil
}
