// dtype.go - Konvertierung zwischen Host-Floats und gepackten Datentypen
//
// Dieses Modul enthaelt:
// - EncodeFloats: Packt float32-Werte in das Binaerformat eines DType
// - DecodeFloats: Entpackt Binaerdaten zurueck zu float32
// Verwendet fuer Gewichts-Dateien des Katalogs und den Checkpoint-Import.
package ml

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// EncodeFloats packs host float32 values into the binary layout of dt.
func EncodeFloats(dt DType, s []float32) ([]byte, error) {
	switch dt {
	case DTypeF32:
		buf := make([]byte, 4*len(s))
		for i, v := range s {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
		}
		return buf, nil
	case DTypeF16:
		buf := make([]byte, 2*len(s))
		for i, v := range s {
			binary.LittleEndian.PutUint16(buf[2*i:], float16.Fromfloat32(v).Bits())
		}
		return buf, nil
	case DTypeBF16:
		return bfloat16.EncodeFloat32(s), nil
	default:
		return nil, fmt.Errorf("encode: unsupported dtype %s", dt)
	}
}

// DecodeFloats unpacks binary data in the layout of dt into float32 values.
func DecodeFloats(dt DType, b []byte) ([]float32, error) {
	switch dt {
	case DTypeF32:
		if len(b)%4 != 0 {
			return nil, fmt.Errorf("decode: f32 data length %d not a multiple of 4", len(b))
		}
		s := make([]float32, len(b)/4)
		for i := range s {
			s[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
		}
		return s, nil
	case DTypeF16:
		if len(b)%2 != 0 {
			return nil, fmt.Errorf("decode: f16 data length %d not a multiple of 2", len(b))
		}
		s := make([]float32, len(b)/2)
		for i := range s {
			s[i] = float16.Frombits(binary.LittleEndian.Uint16(b[2*i:])).Float32()
		}
		return s, nil
	case DTypeBF16:
		if len(b)%2 != 0 {
			return nil, fmt.Errorf("decode: bf16 data length %d not a multiple of 2", len(b))
		}
		return bfloat16.DecodeFloat32(b), nil
	default:
		return nil, fmt.Errorf("decode: unsupported dtype %s", dt)
	}
}
