package codegen

import (
	"strings"

	"github.com/vortexdb/colexec/batch"
	"github.com/vortexdb/colexec/bitmap"
	"github.com/vortexdb/colexec/vector"
)

// evaluated is the compiler-internal "evaluated expression" triple: a
// computed result vector and the symbolic not-null bitmap that masks it.
// The emitted statement sequence half of the triple lives in lowerCtx's
// source buffer instead, since this generator's steps are closures rather
// than text - see Projection.Source for the rendered pseudo-source.
type evaluated struct {
	notNull *bitmap.Bitmap
	vec     vector.Vector
}

// stepFunc is one compiled, specialized evaluation step: applying it to a
// batch walks exactly the fragment this step was lowered from.
type stepFunc func(b *batch.Batch) (evaluated, error)

// lowerCtx threads the fresh-name counter's prefix bookkeeping and the
// pseudo-source buffer through one compilation.
type lowerCtx struct {
	src []string
}

func (c *lowerCtx) emit(prefix, rhs string) string {
	name := freshName(prefix)
	c.src = append(c.src, name+" := "+rhs)
	return name
}

func (c *lowerCtx) source() string {
	return strings.Join(c.src, "\n")
}

// iterationBitmap resolves Template U/B step 3/4: AND of a not-null mask
// with the batch's current selector, no copy (read-only). The result's
// availableBits is whatever AndWithNull produces from its inputs - not-null
// masks and selectors are always built against the same rowNum already, so
// no separate normalization step is needed here.
func iterationBitmap(notNull *bitmap.Bitmap, b *batch.Batch) *bitmap.Bitmap {
	sel := b.Selector()
	iter := bitmap.AndWithNull(notNull, sel, false)
	return iter
}

// nullabilitySetter is implemented by every concrete vector type that can
// serve as a projection's result, letting lowerings attach a freshly
// computed not-null bitmap without a type switch at every call site.
type nullabilitySetter interface {
	SetNullability(*bitmap.Bitmap)
}

func attachNullability(v vector.Vector, nb *bitmap.Bitmap) {
	if s, ok := v.(nullabilitySetter); ok {
		s.SetNullability(nb)
	}
}

// forEachRow iterates the set bits of iter if non-nil, else a dense
// [0, rowNum) loop - Template U/B step 4.
func forEachRow(iter *bitmap.Bitmap, rowNum int, fn func(i int)) {
	if iter != nil {
		iter.SetBits(fn)
		return
	}
	for i := 0; i < rowNum; i++ {
		fn(i)
	}
}
