// context.go - Context und Tensor Interfaces fuer Tensor-Operationen
// Dieses Modul definiert die Schnittstellen fuer Tensor-Operationen und Compute-Kontexte.
package ml

// Context represents an execution context for tensor operations.
// Contexts are not safe for concurrent use.
type Context interface {
	// FromFloats creates a tensor from host data. The data is copied.
	FromFloats(s []float32, shape ...int) Tensor

	// FromInts creates an integer-typed tensor. Integer tensors take
	// the truncating path of TruncDiv and report an integral DType.
	FromInts(s []int32, shape ...int) Tensor

	// Zeros creates a zero-initialized tensor.
	Zeros(shape ...int) Tensor

	Close()
}

// Tensor represents a multi-dimensional array with elementwise operations.
// On the lazy backend, operations record trace nodes and results are not
// materialized until Floats is called or the backend synchronizes.
type Tensor interface {
	Shape() []int
	DType() DType

	// Floats materializes the tensor on the host. For deferred tensors
	// this flushes the pending trace and blocks until the value is ready.
	Floats() []float32

	// Elementwise binary operations. Both operands must have the same
	// shape; a mismatch is a programming error and panics.
	Add(ctx Context, t2 Tensor) Tensor
	Sub(ctx Context, t2 Tensor) Tensor
	Mul(ctx Context, t2 Tensor) Tensor
	Div(ctx Context, t2 Tensor) Tensor

	// TruncDiv divides and truncates toward zero (C-style integer
	// division semantics, regardless of element type).
	TruncDiv(ctx Context, t2 Tensor) Tensor

	// Scalar operations.
	AddScalar(ctx Context, s float64) Tensor
	Scale(ctx Context, s float64) Tensor
	Clamp(ctx Context, min, max float32) Tensor
}
