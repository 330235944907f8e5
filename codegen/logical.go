package codegen

import (
	"fmt"

	"github.com/vortexdb/colexec/batch"
	"github.com/vortexdb/colexec/bitmap"
	"github.com/vortexdb/colexec/expr"
	"github.com/vortexdb/colexec/vector"
)

// boolBits returns v's backing bitmap, broadcasting a literal BoolVector
// (Bits() == nil) to a freshly materialized bitmap of rowNum positions all
// set to the literal's value - the same broadcast the teacher's
// compFactory* functions apply via their `if c1.isLiteral` branches before
// reading chunk data positionally.
func boolBits(v vector.Vector, rowNum int) *bitmap.Bitmap {
	bv := v.(*vector.BoolVector)
	if !bv.IsLiteral() {
		return bv.Bits()
	}
	bm := bitmap.NewBitmap(rowNum)
	if bv.Get(0) {
		for i := 0; i < rowNum; i++ {
			bm.Set(i, true)
		}
	}
	return bm
}

// lowerAndOr special-cases And/Or: the result vector's storage IS a
// bitmap, so Template B's per-index compute loop is replaced by whole-
// bitmap AND/OR. This lowering reads the left and right operand exactly
// once each - the source this design is modeled on reads the left child's
// storage twice instead of once from each side; this generator always
// evaluates both sides.
func lowerAndOr(n *expr.Node, ctx *lowerCtx) (stepFunc, error) {
	lStep, err := lower(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	rStep, err := lower(n.Right, ctx)
	if err != nil {
		return nil, err
	}
	if n.Left.Dtype != vector.DtypeBool || n.Right.Dtype != vector.DtypeBool {
		return nil, fmt.Errorf("%w: %v requires Bool children, got %v and %v", ErrUnsupportedExpression, n.Kind, n.Left.Dtype, n.Right.Dtype)
	}
	isAnd := n.Kind == expr.KindAnd
	name := ctx.emit("logical", fmt.Sprintf("%v(Bool, Bool)", n.Kind))
	_ = name

	return func(b *batch.Batch) (evaluated, error) {
		left, err := lStep(b)
		if err != nil {
			return evaluated{}, err
		}
		right, err := rStep(b)
		if err != nil {
			return evaluated{}, err
		}

		// 1. result not-null = AND-with-null of the two children's
		// not-nulls (copy: the result owns it).
		resultNotNull := bitmap.AndWithNull(left.notNull, right.notNull, true)

		// 2. useful positions = AND-with-null of result not-null with the
		// selector (no copy) - unused beyond metadata, computed for parity.
		_ = iterationBitmap(resultNotNull, b)

		// 3. result bits = bitwise AND (resp. OR) of the two children's
		// boolean bitmaps - left read once, right read once.
		leftBits := boolBits(left.vec, b.RowNum)
		rightBits := boolBits(right.vec, b.RowNum)
		var resultBits *bitmap.Bitmap
		if isAnd {
			resultBits = bitmap.And(leftBits, rightBits)
		} else {
			resultBits = bitmap.Or(leftBits, rightBits)
		}

		// 4. result vector = Boolean column vector wrapping (rowNum,
		// result bits); attach not-null.
		out := vector.NewBoolVectorFromBitmap(b.RowNum, resultBits)
		out.SetNullability(resultNotNull)
		return evaluated{notNull: resultNotNull, vec: out}, nil
	}, nil
}

// lowerNot lowers Not(x): result bits = complement of the child's bitmap,
// masked to clear bits at positions invalid under the selector or the
// child's not-null; not-null = the child's not-null, carried through. The
// source this design is modeled on attaches a not-null bitmap name that
// was never assigned in this branch; this generator always forwards the
// child's not-null.
func lowerNot(n *expr.Node, ctx *lowerCtx) (stepFunc, error) {
	childStep, err := lower(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	if n.Left.Dtype != vector.DtypeBool {
		return nil, fmt.Errorf("%w: Not requires a Bool child, got %v", ErrUnsupportedExpression, n.Left.Dtype)
	}
	name := ctx.emit("not", "Not(Bool)")
	_ = name

	return func(b *batch.Batch) (evaluated, error) {
		child, err := childStep(b)
		if err != nil {
			return evaluated{}, err
		}
		childBits := boolBits(child.vec, b.RowNum)
		resultBits := childBits.Clone()
		resultBits.Invert()

		// AND with (selector AND child not-null) to clear bits at invalid
		// positions.
		mask := bitmap.AndWithNull(b.Selector(), child.notNull, false)
		if mask != nil {
			resultBits = bitmap.And(resultBits, mask)
		}

		out := vector.NewBoolVectorFromBitmap(b.RowNum, resultBits)
		// not-null carries the child's not-null through, per spec - this
		// is the branch the source this is modeled on leaves unassigned.
		out.SetNullability(child.notNull)
		return evaluated{notNull: child.notNull, vec: out}, nil
	}, nil
}
