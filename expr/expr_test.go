package expr

import (
	"testing"

	"github.com/vortexdb/colexec/vector"
)

func TestCastRecordsRequestedType(t *testing.T) {
	ref := BoundRef(0, vector.DtypeInt64, false)
	c := Cast(ref, vector.DtypeFloat64)
	if c.Dtype != vector.DtypeFloat64 {
		t.Errorf("expecting Cast to Float64 to record result type Float64, got %v", c.Dtype)
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	tree := Add(BoundRef(0, vector.DtypeInt32, true), Literal(int32(10), vector.DtypeInt32))
	once := Canonicalize(tree)
	twice := Canonicalize(once)
	if Key(once) != Key(twice) {
		t.Errorf("expecting canonicalize to be idempotent: %q != %q", Key(once), Key(twice))
	}
}

func TestCanonicalizePreservesSourceOrdering(t *testing.T) {
	left := BoundRef(0, vector.DtypeInt32, false)
	right := BoundRef(1, vector.DtypeInt32, false)
	tree := Add(left, right)
	reordered := Add(right, left)
	if Key(Canonicalize(tree)) == Key(Canonicalize(reordered)) {
		t.Errorf("expecting canonicalize not to reorder commutative operands")
	}
}

func TestKeyStableAcrossEquivalentTrees(t *testing.T) {
	a := Add(BoundRef(0, vector.DtypeInt32, false), Literal(int32(5), vector.DtypeInt32))
	b := Add(BoundRef(0, vector.DtypeInt32, false), Literal(int32(5), vector.DtypeInt32))
	if Key(Canonicalize(a)) != Key(Canonicalize(b)) {
		t.Errorf("expecting structurally identical trees to canonicalize to the same key")
	}
}

func TestKeyDiffersOnLiteralValue(t *testing.T) {
	a := Literal(int32(5), vector.DtypeInt32)
	b := Literal(int32(6), vector.DtypeInt32)
	if Key(a) == Key(b) {
		t.Errorf("expecting distinct literal values to produce distinct keys")
	}
}
