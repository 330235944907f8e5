// Package slab implements a fixed-width memory pool for column vector
// storage, free-listed by element width and owned by exactly one row batch.
package slab

import (
	"fmt"
	"unsafe"
)

// Width is the byte size of one element a slab holds. Only the primitive
// numeric widths are ever borrowed through a Pool - String and Boolean
// backing storage is allocated outside the pool (see the vector package).
type Width int

const (
	Width1 Width = 1
	Width2 Width = 2
	Width4 Width = 4
	Width8 Width = 8
)

func validWidth(w Width) bool {
	switch w {
	case Width1, Width2, Width4, Width8:
		return true
	}
	return false
}

// Slab is a byte buffer sized rowNum*width, typed by width so it can only be
// returned to the free list it was borrowed from.
type Slab struct {
	data  []byte
	width Width
}

// Bytes exposes the raw backing storage.
func (s *Slab) Bytes() []byte {
	return s.data
}

// Width reports the element width this slab was borrowed for.
func (s *Slab) Width() Width {
	return s.width
}

// Pool is a per-row-batch allocator of fixed-width slabs, keyed by width.
// It is not safe for concurrent use - callers must hold it the same way they
// hold the row batch that owns it.
type Pool struct {
	rowNum int
	free   map[Width][]*Slab
	live   int
}

// NewPool creates a pool sized for rowNum rows.
func NewPool(rowNum int) *Pool {
	return &Pool{
		rowNum: rowNum,
		free:   make(map[Width][]*Slab),
	}
}

// Borrow returns a slab of width w sized for the pool's row count, reusing a
// freed one if available, allocating a fresh one otherwise.
func (p *Pool) Borrow(w Width) (*Slab, error) {
	if !validWidth(w) {
		return nil, fmt.Errorf("slab: unsupported width %d", w)
	}
	if list := p.free[w]; len(list) > 0 {
		s := list[len(list)-1]
		p.free[w] = list[:len(list)-1]
		p.live++
		return s, nil
	}
	p.live++
	return &Slab{data: make([]byte, int(w)*p.rowNum), width: w}, nil
}

// Return pushes a slab back onto its width's free list. The slab must have
// come from this pool; returning a foreign slab is a programmer error.
func (p *Pool) Return(s *Slab) {
	if s == nil {
		return
	}
	p.free[s.width] = append(p.free[s.width], s)
	p.live--
}

// Free releases every slab this pool has ever produced, free or not. It
// must be called exactly once, when the owning row batch is retired.
func (p *Pool) Free() {
	p.free = nil
	p.live = 0
}

// RowNum reports the row count this pool's slabs are sized for.
func (p *Pool) RowNum() int {
	return p.rowNum
}

// AsInt32 reinterprets a width-4 slab's bytes as an int32 slice without
// copying. The caller must have borrowed s with Width4.
func AsInt32(s *Slab) []int32 {
	n := len(s.data) / 4
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&s.data[0])), n)
}

// AsInt64 reinterprets a width-8 slab's bytes as an int64 slice without
// copying. The caller must have borrowed s with Width8.
func AsInt64(s *Slab) []int64 {
	n := len(s.data) / 8
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(&s.data[0])), n)
}

// AsFloat32 reinterprets a width-4 slab's bytes as a float32 slice without
// copying. The caller must have borrowed s with Width4.
func AsFloat32(s *Slab) []float32 {
	n := len(s.data) / 4
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&s.data[0])), n)
}

// AsFloat64 reinterprets a width-8 slab's bytes as a float64 slice without
// copying. The caller must have borrowed s with Width8.
func AsFloat64(s *Slab) []float64 {
	n := len(s.data) / 8
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&s.data[0])), n)
}
