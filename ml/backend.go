// backend.go - Backend-Interface und Registrierung fuer Tensor-Ausfuehrung
// Dieses Modul definiert das Backend-Interface und die Backend-Factory-Funktionen.
package ml

import (
	"context"
	"fmt"
)

// Backend executes tensor operations either immediately (the eager
// reference backend) or deferred via a recorded trace (the lazy backend).
type Backend interface {
	Name() string
	Device() Device

	NewContext() Context

	// MarkStep ends the current recording window. The lazy backend
	// compiles the pending trace and submits it to the device queue
	// without blocking; the eager backend has nothing pending.
	MarkStep() error

	// Wait blocks until all submitted device work has completed.
	Wait(ctx context.Context) error

	// Close frees all resources associated with this backend
	Close()
}

// Fusable is implemented by backends whose compiler can fuse
// elementwise chains. SetFuser installs a profile and returns a
// function restoring the previous one, for scoped use.
type Fusable interface {
	SetFuser(f Fuser) (restore func())
}

// NoopExecutor is implemented by backends that can record traces
// without compiling or executing them (profiling only).
type NoopExecutor interface {
	SetNoopExecution(enabled bool)
}

// BackendParams controls how a backend is created.
type BackendParams struct {
	// Device is the logical device the backend executes on.
	Device Device

	// QueueDepth bounds the device submission queue of asynchronous
	// backends. Zero selects the backend default.
	QueueDepth int
}

var backends = make(map[string]func(BackendParams) (Backend, error))

// RegisterBackend registers a backend factory function.
func RegisterBackend(name string, f func(BackendParams) (Backend, error)) {
	if _, ok := backends[name]; ok {
		panic("backend: backend already registered")
	}

	backends[name] = f
}

// NewBackend creates a new backend instance by registered name.
func NewBackend(name string, params BackendParams) (Backend, error) {
	if backend, ok := backends[name]; ok {
		return backend(params)
	}

	return nil, fmt.Errorf("unsupported backend %q", name)
}
