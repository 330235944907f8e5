// Package vector implements typed column vectors: a buffer of primitive
// values plus an optional not-null bitmap, the unit the code generator
// reads from and writes into.
package vector

import (
	"errors"
	"fmt"

	"github.com/vortexdb/colexec/bitmap"
	"github.com/vortexdb/colexec/slab"
)

// Dtype enumerates the primitive element types a column vector may hold.
type Dtype uint8

const (
	DtypeInvalid Dtype = iota
	DtypeInt32
	DtypeInt64
	DtypeFloat32
	DtypeFloat64
	DtypeBool
	DtypeString
	DtypeBinary
)

func (d Dtype) String() string {
	switch d {
	case DtypeInt32:
		return "Int32"
	case DtypeInt64:
		return "Int64"
	case DtypeFloat32:
		return "Float32"
	case DtypeFloat64:
		return "Float64"
	case DtypeBool:
		return "Bool"
	case DtypeString:
		return "String"
	case DtypeBinary:
		return "Binary"
	default:
		return "Invalid"
	}
}

// IsNumeric reports whether d supports the arithmetic and ordered-comparison
// kernels.
func (d Dtype) IsNumeric() bool {
	switch d {
	case DtypeInt32, DtypeInt64, DtypeFloat32, DtypeFloat64:
		return true
	}
	return false
}

// IsFloat reports whether d is one of the floating-point dtypes.
func (d Dtype) IsFloat() bool {
	return d == DtypeFloat32 || d == DtypeFloat64
}

// IsInteger reports whether d is one of the integer dtypes.
func (d Dtype) IsInteger() bool {
	return d == DtypeInt32 || d == DtypeInt64
}

// ErrUnsupportedDtype is returned whenever an operation is asked to act on
// the Binary dtype, which carries no storage in this core.
var ErrUnsupportedDtype = errors.New("vector: dtype carries no storage")

// Vector is a typed column of values, optionally masked by a not-null
// bitmap. A nil Nullability means "all values valid".
type Vector interface {
	Dtype() Dtype
	Len() int
	Nullability() *bitmap.Bitmap
	IsLiteral() bool
}

// Int32Vector is a dense or literal vector of int32 values.
type Int32Vector struct {
	data        []int32
	nullability *bitmap.Bitmap
	isLiteral   bool
	literal     int32
	slab        *slab.Slab
}

// NewInt32Vector allocates a dense int32 vector backed by a pool-borrowed
// slab sized for rowNum rows.
func NewInt32Vector(pool *slab.Pool, rowNum int) (*Int32Vector, error) {
	s, err := pool.Borrow(slab.Width4)
	if err != nil {
		return nil, err
	}
	return &Int32Vector{data: slab.AsInt32(s)[:rowNum], slab: s}, nil
}

// NewInt32Literal builds a literal vector answering every Get with v.
func NewInt32Literal(v int32) *Int32Vector {
	return &Int32Vector{isLiteral: true, literal: v}
}

func (v *Int32Vector) Dtype() Dtype               { return DtypeInt32 }
func (v *Int32Vector) IsLiteral() bool             { return v.isLiteral }
func (v *Int32Vector) Nullability() *bitmap.Bitmap { return v.nullability }
func (v *Int32Vector) SetNullability(nb *bitmap.Bitmap) {
	v.nullability = nb
}
func (v *Int32Vector) Len() int {
	if v.isLiteral {
		return 1
	}
	return len(v.data)
}

// Get returns the value at row i, ignoring nullability - callers must check
// Nullability() themselves before trusting the result.
func (v *Int32Vector) Get(i int) int32 {
	if v.isLiteral {
		return v.literal
	}
	return v.data[i]
}

// Set writes the value at row i. Invalid on literal vectors.
func (v *Int32Vector) Set(i int, val int32) {
	v.data[i] = val
}

// Slab returns the backing slab, or nil for a literal vector.
func (v *Int32Vector) Slab() *slab.Slab { return v.slab }

// Int64Vector is a dense or literal vector of int64 values.
type Int64Vector struct {
	data        []int64
	nullability *bitmap.Bitmap
	isLiteral   bool
	literal     int64
	slab        *slab.Slab
}

func NewInt64Vector(pool *slab.Pool, rowNum int) (*Int64Vector, error) {
	s, err := pool.Borrow(slab.Width8)
	if err != nil {
		return nil, err
	}
	return &Int64Vector{data: slab.AsInt64(s)[:rowNum], slab: s}, nil
}

func NewInt64Literal(v int64) *Int64Vector {
	return &Int64Vector{isLiteral: true, literal: v}
}

func (v *Int64Vector) Dtype() Dtype               { return DtypeInt64 }
func (v *Int64Vector) IsLiteral() bool             { return v.isLiteral }
func (v *Int64Vector) Nullability() *bitmap.Bitmap { return v.nullability }
func (v *Int64Vector) SetNullability(nb *bitmap.Bitmap) {
	v.nullability = nb
}
func (v *Int64Vector) Len() int {
	if v.isLiteral {
		return 1
	}
	return len(v.data)
}
func (v *Int64Vector) Get(i int) int64 {
	if v.isLiteral {
		return v.literal
	}
	return v.data[i]
}
func (v *Int64Vector) Set(i int, val int64) {
	v.data[i] = val
}
func (v *Int64Vector) Slab() *slab.Slab { return v.slab }

// Float32Vector is a dense or literal vector of float32 values.
type Float32Vector struct {
	data        []float32
	nullability *bitmap.Bitmap
	isLiteral   bool
	literal     float32
	slab        *slab.Slab
}

func NewFloat32Vector(pool *slab.Pool, rowNum int) (*Float32Vector, error) {
	s, err := pool.Borrow(slab.Width4)
	if err != nil {
		return nil, err
	}
	return &Float32Vector{data: slab.AsFloat32(s)[:rowNum], slab: s}, nil
}

func NewFloat32Literal(v float32) *Float32Vector {
	return &Float32Vector{isLiteral: true, literal: v}
}

func (v *Float32Vector) Dtype() Dtype               { return DtypeFloat32 }
func (v *Float32Vector) IsLiteral() bool             { return v.isLiteral }
func (v *Float32Vector) Nullability() *bitmap.Bitmap { return v.nullability }
func (v *Float32Vector) SetNullability(nb *bitmap.Bitmap) {
	v.nullability = nb
}
func (v *Float32Vector) Len() int {
	if v.isLiteral {
		return 1
	}
	return len(v.data)
}
func (v *Float32Vector) Get(i int) float32 {
	if v.isLiteral {
		return v.literal
	}
	return v.data[i]
}
func (v *Float32Vector) Set(i int, val float32) {
	v.data[i] = val
}
func (v *Float32Vector) Slab() *slab.Slab { return v.slab }

// Float64Vector is a dense or literal vector of float64 values.
type Float64Vector struct {
	data        []float64
	nullability *bitmap.Bitmap
	isLiteral   bool
	literal     float64
	slab        *slab.Slab
}

func NewFloat64Vector(pool *slab.Pool, rowNum int) (*Float64Vector, error) {
	s, err := pool.Borrow(slab.Width8)
	if err != nil {
		return nil, err
	}
	return &Float64Vector{data: slab.AsFloat64(s)[:rowNum], slab: s}, nil
}

func NewFloat64Literal(v float64) *Float64Vector {
	return &Float64Vector{isLiteral: true, literal: v}
}

func (v *Float64Vector) Dtype() Dtype               { return DtypeFloat64 }
func (v *Float64Vector) IsLiteral() bool             { return v.isLiteral }
func (v *Float64Vector) Nullability() *bitmap.Bitmap { return v.nullability }
func (v *Float64Vector) SetNullability(nb *bitmap.Bitmap) {
	v.nullability = nb
}
func (v *Float64Vector) Len() int {
	if v.isLiteral {
		return 1
	}
	return len(v.data)
}
func (v *Float64Vector) Get(i int) float64 {
	if v.isLiteral {
		return v.literal
	}
	return v.data[i]
}
func (v *Float64Vector) Set(i int, val float64) {
	v.data[i] = val
}
func (v *Float64Vector) Slab() *slab.Slab { return v.slab }

// BoolVector's storage IS a bitmap, per the data model - Boolean is not
// pooled through slab.Pool.
type BoolVector struct {
	data        *bitmap.Bitmap
	rowNum      int
	nullability *bitmap.Bitmap
	isLiteral   bool
	literal     bool
}

func NewBoolVector(rowNum int) *BoolVector {
	return &BoolVector{data: bitmap.NewBitmap(rowNum), rowNum: rowNum}
}

// NewBoolVectorFromBitmap wraps a pre-built bitmap as a BoolVector's
// storage, per Template B/And/Or's "wrap (rowNum, result bits)" step.
func NewBoolVectorFromBitmap(rowNum int, bits *bitmap.Bitmap) *BoolVector {
	return &BoolVector{data: bits, rowNum: rowNum}
}

func NewBoolLiteral(v bool) *BoolVector {
	return &BoolVector{isLiteral: true, literal: v}
}

func (v *BoolVector) Dtype() Dtype               { return DtypeBool }
func (v *BoolVector) IsLiteral() bool             { return v.isLiteral }
func (v *BoolVector) Nullability() *bitmap.Bitmap { return v.nullability }
func (v *BoolVector) SetNullability(nb *bitmap.Bitmap) {
	v.nullability = nb
}
func (v *BoolVector) Len() int {
	if v.isLiteral {
		return 1
	}
	return v.rowNum
}
func (v *BoolVector) Get(i int) bool {
	if v.isLiteral {
		return v.literal
	}
	return v.data.Get(i)
}
func (v *BoolVector) Set(i int, val bool) {
	v.data.Set(i, val)
}

// Bits exposes the backing bitmap directly - And/Or/Not lowerings operate
// on it without going through Get/Set.
func (v *BoolVector) Bits() *bitmap.Bitmap { return v.data }

// StringVector holds references, not pooled (per the data model: "String"
// is an array of references, not backed by a slab).
type StringVector struct {
	data        []string
	nullability *bitmap.Bitmap
	isLiteral   bool
	literal     string
}

func NewStringVector(rowNum int) *StringVector {
	return &StringVector{data: make([]string, rowNum)}
}

func NewStringLiteral(v string) *StringVector {
	return &StringVector{isLiteral: true, literal: v}
}

func (v *StringVector) Dtype() Dtype               { return DtypeString }
func (v *StringVector) IsLiteral() bool             { return v.isLiteral }
func (v *StringVector) Nullability() *bitmap.Bitmap { return v.nullability }
func (v *StringVector) SetNullability(nb *bitmap.Bitmap) {
	v.nullability = nb
}
func (v *StringVector) Len() int {
	if v.isLiteral {
		return 1
	}
	return len(v.data)
}
func (v *StringVector) Get(i int) string {
	if v.isLiteral {
		return v.literal
	}
	return v.data[i]
}
func (v *StringVector) Set(i int, val string) {
	v.data[i] = val
}

// BinaryVector is constructible but carries no storage: Get always returns
// ErrUnsupportedDtype, while Dtype, Len (the row count) and Nullability
// (always nil) still answer.
type BinaryVector struct {
	rowNum int
}

func NewBinaryVector(rowNum int) *BinaryVector {
	return &BinaryVector{rowNum: rowNum}
}

func (v *BinaryVector) Dtype() Dtype               { return DtypeBinary }
func (v *BinaryVector) IsLiteral() bool             { return false }
func (v *BinaryVector) Nullability() *bitmap.Bitmap { return nil }
func (v *BinaryVector) Len() int                    { return v.rowNum }

// Get always fails: Binary has no storage in this core.
func (v *BinaryVector) Get(i int) ([]byte, error) {
	return nil, fmt.Errorf("binary vector access at row %d: %w", i, ErrUnsupportedDtype)
}
