// Package tensor provides the core tensor types for the resampler ops.
package tensor

import "github.com/x448/float16"

// DType is a constraint for supported tensor element types.
// The resampler ops operate on IEEE floating point only; half precision
// is carried as float16.Float16 and computed through float32.
type DType interface {
	float16.Float16 | ~float32 | ~float64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported element types.
const (
	Float16 DataType = iota
	Float32
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float16:
		return 2
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float16.Float16:
		return Float16
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		panic("unsupported type")
	}
}
