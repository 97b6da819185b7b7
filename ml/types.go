// types.go - Datentypen und Konstanten fuer Tensor-Operationen
// Dieses Modul definiert grundlegende Typen wie Device, DType und Fuser.
package ml

// Device identifies the logical execution device.
type Device string

const (
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// Valid reports whether d names a known device.
func (d Device) Valid() bool {
	return d == DeviceCPU || d == DeviceCUDA
}

// DType represents the data type of tensor elements.
type DType int

const (
	DTypeOther DType = iota
	DTypeF32
	DTypeF16
	DTypeBF16
	DTypeI32
)

func (dt DType) String() string {
	switch dt {
	case DTypeF32:
		return "f32"
	case DTypeF16:
		return "f16"
	case DTypeBF16:
		return "bf16"
	case DTypeI32:
		return "i32"
	default:
		return "other"
	}
}

// IsFloat reports whether dt is a floating-point element type.
func (dt DType) IsFloat() bool {
	switch dt {
	case DTypeF32, DTypeF16, DTypeBF16:
		return true
	}
	return false
}

// Fuser selects the kernel fusion profile of the deferred compiler.
// The names match the CLI values.
type Fuser string

const (
	// FuserNoopt disables fusion and trace optimization entirely.
	FuserNoopt Fuser = "noopt"

	// FuserLegacy fuses only scalar chains (the oldest profile).
	FuserLegacy Fuser = "fuser0"

	// FuserNNC fuses scalar and unary chains, available on all devices.
	FuserNNC Fuser = "fuser1"

	// FuserNVFuser additionally fuses binary elementwise chains,
	// only available on the cuda device.
	FuserNVFuser Fuser = "fuser2"
)

// Valid reports whether f names a known fuser profile.
func (f Fuser) Valid() bool {
	switch f {
	case FuserNoopt, FuserLegacy, FuserNNC, FuserNVFuser:
		return true
	}
	return false
}
