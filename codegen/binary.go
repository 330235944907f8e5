package codegen

import (
	"fmt"

	"github.com/vortexdb/colexec/batch"
	"github.com/vortexdb/colexec/bitmap"
	"github.com/vortexdb/colexec/expr"
	"github.com/vortexdb/colexec/slab"
	"github.com/vortexdb/colexec/vector"
)

// numericAccessor is satisfied by every pooled numeric vector type; it lets
// the arithmetic/comparison kernels below be written once per primitive
// type T instead of once per (operator, vector type) pair.
type numericAccessor[T Numeric] interface {
	Get(int) T
	Set(int, T)
}

// templateB implements the binary map lowering shared by arithmetic and
// comparisons: not-null = AND of both children's not-nulls (copied, the
// result owns it), iteration bitmap = AND of that with the selector (no
// copy), compute at every surviving index.
func templateB(lStep, rStep stepFunc, compute func(b *batch.Batch, l, r evaluated, notNull *bitmap.Bitmap) (vector.Vector, error)) stepFunc {
	return func(b *batch.Batch) (evaluated, error) {
		l, err := lStep(b)
		if err != nil {
			return evaluated{}, err
		}
		r, err := rStep(b)
		if err != nil {
			return evaluated{}, err
		}
		resultNotNull := bitmap.AndWithNull(l.notNull, r.notNull, true)
		out, err := compute(b, l, r, resultNotNull)
		if err != nil {
			return evaluated{}, err
		}
		attachNullability(out, resultNotNull)
		return evaluated{notNull: resultNotNull, vec: out}, nil
	}
}

func binaryArith[T Numeric, V numericAccessor[T]](
	b *batch.Batch, lv, rv V, notNull *bitmap.Bitmap, rowNum int,
	newVec func(*slab.Pool, int) (V, error), kernel func(a, b T) T,
) (V, error) {
	iter := iterationBitmap(notNull, b)
	out, err := newVec(b.Pool(), rowNum)
	if err != nil {
		var zero V
		return zero, err
	}
	forEachRow(iter, rowNum, func(i int) {
		out.Set(i, kernel(lv.Get(i), rv.Get(i)))
	})
	return out, nil
}

func binaryArithErr[T Numeric, V numericAccessor[T]](
	b *batch.Batch, lv, rv V, notNull *bitmap.Bitmap, rowNum int,
	newVec func(*slab.Pool, int) (V, error), kernel func(a, b T) (T, error),
) (V, error) {
	iter := iterationBitmap(notNull, b)
	out, err := newVec(b.Pool(), rowNum)
	if err != nil {
		var zero V
		return zero, err
	}
	var kerr error
	forEachRow(iter, rowNum, func(i int) {
		if kerr != nil {
			return
		}
		v, err := kernel(lv.Get(i), rv.Get(i))
		if err != nil {
			kerr = err
			return
		}
		out.Set(i, v)
	})
	if kerr != nil {
		var zero V
		return zero, kerr
	}
	return out, nil
}

func binaryCompare[T Numeric, V numericAccessor[T]](
	b *batch.Batch, lv, rv V, notNull *bitmap.Bitmap, rowNum int, kernel func(a, b T) bool,
) *vector.BoolVector {
	iter := iterationBitmap(notNull, b)
	out := vector.NewBoolVector(rowNum)
	forEachRow(iter, rowNum, func(i int) {
		out.Set(i, kernel(lv.Get(i), rv.Get(i)))
	})
	return out
}

func lowerArith(n *expr.Node, ctx *lowerCtx) (stepFunc, error) {
	lStep, err := lower(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	rStep, err := lower(n.Right, ctx)
	if err != nil {
		return nil, err
	}
	if n.Left.Dtype != n.Right.Dtype {
		return nil, fmt.Errorf("%w: %v children are %v and %v", ErrTypeMismatch, n.Kind, n.Left.Dtype, n.Right.Dtype)
	}
	if !n.Left.Dtype.IsNumeric() {
		return nil, fmt.Errorf("%w: %v on non-numeric dtype %v", ErrUnsupportedExpression, n.Kind, n.Left.Dtype)
	}
	dt := n.Left.Dtype
	name := ctx.emit("arith", fmt.Sprintf("%v(%v, %v)", n.Kind, dt, dt))
	_ = name

	isDiv := n.Kind == expr.KindDiv
	return templateB(lStep, rStep, func(b *batch.Batch, l, r evaluated, notNull *bitmap.Bitmap) (vector.Vector, error) {
		switch dt {
		case vector.DtypeInt32:
			lv, rv := l.vec.(*vector.Int32Vector), r.vec.(*vector.Int32Vector)
			if isDiv {
				return binaryArithErr[int32](b, lv, rv, notNull, b.RowNum, vector.NewInt32Vector, divKernel[int32])
			}
			return binaryArith[int32](b, lv, rv, notNull, b.RowNum, vector.NewInt32Vector, arithKernel(n.Kind))
		case vector.DtypeInt64:
			lv, rv := l.vec.(*vector.Int64Vector), r.vec.(*vector.Int64Vector)
			if isDiv {
				return binaryArithErr[int64](b, lv, rv, notNull, b.RowNum, vector.NewInt64Vector, divKernel[int64])
			}
			return binaryArith[int64](b, lv, rv, notNull, b.RowNum, vector.NewInt64Vector, arithKernel(n.Kind))
		case vector.DtypeFloat32:
			lv, rv := l.vec.(*vector.Float32Vector), r.vec.(*vector.Float32Vector)
			if isDiv {
				return binaryArithErr[float32](b, lv, rv, notNull, b.RowNum, vector.NewFloat32Vector, divKernel[float32])
			}
			return binaryArith[float32](b, lv, rv, notNull, b.RowNum, vector.NewFloat32Vector, arithKernel(n.Kind))
		case vector.DtypeFloat64:
			lv, rv := l.vec.(*vector.Float64Vector), r.vec.(*vector.Float64Vector)
			if isDiv {
				return binaryArithErr[float64](b, lv, rv, notNull, b.RowNum, vector.NewFloat64Vector, divKernel[float64])
			}
			return binaryArith[float64](b, lv, rv, notNull, b.RowNum, vector.NewFloat64Vector, arithKernel(n.Kind))
		default:
			return nil, fmt.Errorf("%w: arithmetic on %v", ErrUnsupportedExpression, dt)
		}
	}), nil
}

func arithKernel[T Numeric](k expr.Kind) func(a, b T) T {
	switch k {
	case expr.KindAdd:
		return addKernel[T]
	case expr.KindSub:
		return subKernel[T]
	case expr.KindMul:
		return mulKernel[T]
	default:
		panic("codegen: arithKernel called for non-add/sub/mul kind")
	}
}

func lowerRem(n *expr.Node, ctx *lowerCtx) (stepFunc, error) {
	lStep, err := lower(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	rStep, err := lower(n.Right, ctx)
	if err != nil {
		return nil, err
	}
	if n.Left.Dtype != n.Right.Dtype {
		return nil, fmt.Errorf("%w: Rem children are %v and %v", ErrTypeMismatch, n.Left.Dtype, n.Right.Dtype)
	}
	if !n.Left.Dtype.IsInteger() {
		return nil, fmt.Errorf("%w: Rem requires integer children, got %v", ErrUnsupportedExpression, n.Left.Dtype)
	}
	dt := n.Left.Dtype
	name := ctx.emit("rem", fmt.Sprintf("Rem(%v, %v)", dt, dt))
	_ = name

	return templateB(lStep, rStep, func(b *batch.Batch, l, r evaluated, notNull *bitmap.Bitmap) (vector.Vector, error) {
		switch dt {
		case vector.DtypeInt32:
			lv, rv := l.vec.(*vector.Int32Vector), r.vec.(*vector.Int32Vector)
			return binaryArithErr[int32](b, lv, rv, notNull, b.RowNum, vector.NewInt32Vector, remKernel[int32])
		case vector.DtypeInt64:
			lv, rv := l.vec.(*vector.Int64Vector), r.vec.(*vector.Int64Vector)
			return binaryArithErr[int64](b, lv, rv, notNull, b.RowNum, vector.NewInt64Vector, remKernel[int64])
		default:
			return nil, fmt.Errorf("%w: Rem on %v", ErrUnsupportedExpression, dt)
		}
	}), nil
}

func lowerCompare(n *expr.Node, ctx *lowerCtx) (stepFunc, error) {
	lStep, err := lower(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	rStep, err := lower(n.Right, ctx)
	if err != nil {
		return nil, err
	}
	if n.Left.Dtype != n.Right.Dtype {
		return nil, fmt.Errorf("%w: %v children are %v and %v", ErrTypeMismatch, n.Kind, n.Left.Dtype, n.Right.Dtype)
	}
	dt := n.Left.Dtype
	if n.Kind != expr.KindEq && !dt.IsNumeric() {
		return nil, fmt.Errorf("%w: ordered comparison %v requires numeric children, got %v", ErrUnsupportedExpression, n.Kind, dt)
	}
	name := ctx.emit("cmp", fmt.Sprintf("%v(%v, %v)", n.Kind, dt, dt))
	_ = name
	kind := n.Kind

	return templateB(lStep, rStep, func(b *batch.Batch, l, r evaluated, notNull *bitmap.Bitmap) (vector.Vector, error) {
		switch dt {
		case vector.DtypeInt32:
			return binaryCompare[int32](b, l.vec.(*vector.Int32Vector), r.vec.(*vector.Int32Vector), notNull, b.RowNum, compareKernel[int32](kind)), nil
		case vector.DtypeInt64:
			return binaryCompare[int64](b, l.vec.(*vector.Int64Vector), r.vec.(*vector.Int64Vector), notNull, b.RowNum, compareKernel[int64](kind)), nil
		case vector.DtypeFloat32:
			return binaryCompare[float32](b, l.vec.(*vector.Float32Vector), r.vec.(*vector.Float32Vector), notNull, b.RowNum, compareKernel[float32](kind)), nil
		case vector.DtypeFloat64:
			return binaryCompare[float64](b, l.vec.(*vector.Float64Vector), r.vec.(*vector.Float64Vector), notNull, b.RowNum, compareKernel[float64](kind)), nil
		case vector.DtypeString:
			if kind != expr.KindEq {
				return nil, fmt.Errorf("%w: ordered comparison on String", ErrUnsupportedExpression)
			}
			return compareStrings(b, l.vec.(*vector.StringVector), r.vec.(*vector.StringVector), notNull, b.RowNum), nil
		case vector.DtypeBool:
			if kind != expr.KindEq {
				return nil, fmt.Errorf("%w: ordered comparison on Bool", ErrUnsupportedExpression)
			}
			return compareBools(b, l.vec.(*vector.BoolVector), r.vec.(*vector.BoolVector), notNull, b.RowNum), nil
		default:
			return nil, fmt.Errorf("%w: comparison on %v", ErrUnsupportedExpression, dt)
		}
	}), nil
}

func compareKernel[T Numeric](k expr.Kind) func(a, b T) bool {
	switch k {
	case expr.KindEq:
		return eqKernel[T]
	case expr.KindGt:
		return gtKernel[T]
	case expr.KindGe:
		return geKernel[T]
	case expr.KindLt:
		return ltKernel[T]
	case expr.KindLe:
		return leKernel[T]
	default:
		panic("codegen: compareKernel called for a non-comparison kind")
	}
}

func compareStrings(b *batch.Batch, lv, rv *vector.StringVector, notNull *bitmap.Bitmap, rowNum int) *vector.BoolVector {
	iter := iterationBitmap(notNull, b)
	out := vector.NewBoolVector(rowNum)
	forEachRow(iter, rowNum, func(i int) {
		out.Set(i, lv.Get(i) == rv.Get(i))
	})
	return out
}

func compareBools(b *batch.Batch, lv, rv *vector.BoolVector, notNull *bitmap.Bitmap, rowNum int) *vector.BoolVector {
	iter := iterationBitmap(notNull, b)
	out := vector.NewBoolVector(rowNum)
	forEachRow(iter, rowNum, func(i int) {
		out.Set(i, lv.Get(i) == rv.Get(i))
	})
	return out
}
