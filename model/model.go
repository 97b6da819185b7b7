// Package model - Benchmark-Katalog und Instanz-Interfaces
//
// Dieses Paket definiert die Deskriptoren des Benchmark-Katalogs und
// die Schnittstellen, ueber die der Harness Instanzen ausfuehrt.
//
// Hauptkomponenten:
// - Descriptor: Name, Faehigkeits-Abfrage und Konstruktor
// - Instance: Kontext, Modul und Beispiel-Eingaben einer Instanz
// - Forwarder/Trainable/Seeder: Ausfuehrungs-Schnittstellen
// - Register/Catalog: Registrierung in Registrierungsreihenfolge

package model

import (
	"errors"

	"github.com/larch-ml/larch/ml"
)

// Fehler-Definitionen
var (
	ErrUnsupportedModel = errors.New("model not supported")
)

// Mode selects between a forward pass and a training step.
type Mode string

const (
	ModeEval  Mode = "eval"
	ModeTrain Mode = "train"
)

// Valid reports whether m names a known mode.
func (m Mode) Valid() bool {
	return m == ModeEval || m == ModeTrain
}

// Descriptor beschreibt einen Katalog-Eintrag. Deskriptoren sind
// billig; Instanzen werden pro Backend und Modus konstruiert.
type Descriptor struct {
	// Name uniquely identifies the benchmark,
	// e.g. "HardSwish[32,16,128,128]".
	Name string

	// Supports reports whether the benchmark can run on the device in
	// the given mode. The iterator checks this before construction and
	// skips unsupported combinations without error.
	Supports func(device ml.Device, mode Mode) bool

	// New constructs an instance on the backend. The seed fixes the
	// initial weights and example inputs, so reference and accelerated
	// instances start out identical.
	New func(backend ml.Backend, seed int64) (Instance, error)
}

// Instance ist ein konstruiertes Benchmark auf einem Backend.
type Instance interface {
	// Context returns the tensor context the instance allocated its
	// inputs in.
	Context() ml.Context

	// Module returns the runnable module together with its example
	// inputs.
	Module() (Forwarder, CallArgs)

	Close()
}

// Forwarder runs one forward pass over positional inputs.
type Forwarder interface {
	Forward(ctx ml.Context, inputs ...ml.Tensor) (ml.Tensor, error)
}

// NamedForwarder runs a forward pass over keyword-style inputs. Only
// modules whose example inputs use CallNamed implement it.
type NamedForwarder interface {
	ForwardNamed(ctx ml.Context, inputs map[string]ml.Tensor) (ml.Tensor, error)
}

// Trainable wird von Instanzen implementiert, die Trainingsschritte
// unterstuetzen.
type Trainable interface {
	// Train runs niter training steps.
	Train(niter int) error
}

// Seeder is implemented by instances with stochastic state the timed
// runner must pin before measuring.
type Seeder interface {
	Reseed(seed int64)
}

// catalog speichert registrierte Deskriptoren in Reihenfolge
var catalog []Descriptor

var registered = make(map[string]struct{})

// Register registriert einen Deskriptor im Katalog
func Register(d Descriptor) {
	if _, ok := registered[d.Name]; ok {
		panic("model: model already registered")
	}

	registered[d.Name] = struct{}{}
	catalog = append(catalog, d)
}

// Catalog returns all registered descriptors in registration order.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}
