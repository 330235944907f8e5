// Package batch implements the row batch: a set of named column vectors
// sharing a row count, a current selector, and an owning memory pool.
package batch

import (
	"fmt"

	"github.com/vortexdb/colexec/bitmap"
	"github.com/vortexdb/colexec/slab"
	"github.com/vortexdb/colexec/vector"
)

// Schema describes one attribute a batch is built from.
type Schema struct {
	Name     string
	Dtype    vector.Dtype
	Nullable bool
}

// Batch is a container of named column vectors, a current selector bitmap
// (nil meaning "all rows selected"), and the pool its vectors borrow from.
type Batch struct {
	RowNum      int
	vectors     map[string]vector.Vector
	order       []string
	curSelector *bitmap.Bitmap
	pool        *slab.Pool
}

// Build allocates one column vector per attribute, each backed by a
// pool-borrowed slab (or type-specific storage for String/Bool; a Binary
// column gets a storage-less vector).
func Build(attrs []Schema, rowNum int, pool *slab.Pool) (*Batch, error) {
	if pool == nil {
		pool = slab.NewPool(rowNum)
	}
	b := &Batch{
		RowNum:  rowNum,
		vectors: make(map[string]vector.Vector, len(attrs)),
		order:   make([]string, 0, len(attrs)),
		pool:    pool,
	}
	for _, attr := range attrs {
		if _, ok := b.vectors[attr.Name]; ok {
			return nil, fmt.Errorf("batch: duplicate attribute name %q", attr.Name)
		}
		v, err := newVector(attr.Dtype, pool, rowNum)
		if err != nil {
			return nil, fmt.Errorf("batch: building column %q: %w", attr.Name, err)
		}
		b.vectors[attr.Name] = v
		b.order = append(b.order, attr.Name)
	}
	return b, nil
}

func newVector(dt vector.Dtype, pool *slab.Pool, rowNum int) (vector.Vector, error) {
	switch dt {
	case vector.DtypeInt32:
		return vector.NewInt32Vector(pool, rowNum)
	case vector.DtypeInt64:
		return vector.NewInt64Vector(pool, rowNum)
	case vector.DtypeFloat32:
		return vector.NewFloat32Vector(pool, rowNum)
	case vector.DtypeFloat64:
		return vector.NewFloat64Vector(pool, rowNum)
	case vector.DtypeBool:
		return vector.NewBoolVector(rowNum), nil
	case vector.DtypeString:
		return vector.NewStringVector(rowNum), nil
	case vector.DtypeBinary:
		return vector.NewBinaryVector(rowNum), nil
	default:
		return nil, fmt.Errorf("batch: unsupported dtype %v", dt)
	}
}

// Column returns the vector bound to name, and whether it exists.
func (b *Batch) Column(name string) (vector.Vector, bool) {
	v, ok := b.vectors[name]
	return v, ok
}

// ColumnAt returns the vector at ordinal position i, in the order attrs
// were passed to Build - this is what BoundRef resolves against.
func (b *Batch) ColumnAt(i int) (vector.Vector, error) {
	if i < 0 || i >= len(b.order) {
		return nil, fmt.Errorf("batch: ordinal %d out of range [0,%d)", i, len(b.order))
	}
	return b.vectors[b.order[i]], nil
}

// Names returns the attribute names in ordinal order, for binding a named
// reference to an ordinal position.
func (b *Batch) Names() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Selector returns the batch's current selector; nil means all rows live.
func (b *Batch) Selector() *bitmap.Bitmap {
	return b.curSelector
}

// SetSelector installs a new selector; its AvailableBits must equal RowNum.
func (b *Batch) SetSelector(sel *bitmap.Bitmap) error {
	if sel != nil && sel.AvailableBits() != b.RowNum {
		return fmt.Errorf("batch: selector availableBits %d does not match rowNum %d", sel.AvailableBits(), b.RowNum)
	}
	b.curSelector = sel
	return nil
}

// Pool returns the batch's owning memory pool.
func (b *Batch) Pool() *slab.Pool {
	return b.pool
}

// Free returns all slabs to the pool and drops references. Must be called
// exactly once, when the batch is retired.
func (b *Batch) Free() {
	for _, v := range b.vectors {
		if s, ok := slabOf(v); ok && s != nil {
			b.pool.Return(s)
		}
	}
	b.pool.Free()
	b.vectors = nil
	b.order = nil
}

func slabOf(v vector.Vector) (*slab.Slab, bool) {
	switch t := v.(type) {
	case *vector.Int32Vector:
		return t.Slab(), true
	case *vector.Int64Vector:
		return t.Slab(), true
	case *vector.Float32Vector:
		return t.Slab(), true
	case *vector.Float64Vector:
		return t.Slab(), true
	default:
		return nil, false
	}
}
