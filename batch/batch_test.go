package batch

import (
	"testing"

	"github.com/vortexdb/colexec/bitmap"
	"github.com/vortexdb/colexec/vector"
)

func TestBuildAllocatesOneVectorPerAttribute(t *testing.T) {
	attrs := []Schema{
		{Name: "a", Dtype: vector.DtypeInt32},
		{Name: "b", Dtype: vector.DtypeFloat64},
		{Name: "c", Dtype: vector.DtypeBool},
		{Name: "d", Dtype: vector.DtypeString},
	}
	b, err := Build(attrs, 8, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.RowNum != 8 {
		t.Fatalf("expecting rowNum 8, got %d", b.RowNum)
	}
	for _, a := range attrs {
		v, ok := b.Column(a.Name)
		if !ok {
			t.Fatalf("expecting column %q to exist", a.Name)
		}
		if v.Dtype() != a.Dtype {
			t.Errorf("column %q: expecting dtype %v, got %v", a.Name, a.Dtype, v.Dtype())
		}
		if v.Len() != 8 {
			t.Errorf("column %q: expecting capacity >= rowNum, got len %d", a.Name, v.Len())
		}
	}
}

func TestBuildRejectsDuplicateNames(t *testing.T) {
	attrs := []Schema{
		{Name: "a", Dtype: vector.DtypeInt32},
		{Name: "a", Dtype: vector.DtypeInt32},
	}
	if _, err := Build(attrs, 4, nil); err == nil {
		t.Error("expecting duplicate attribute names to be rejected")
	}
}

func TestColumnAtOrdinalOrder(t *testing.T) {
	attrs := []Schema{
		{Name: "first", Dtype: vector.DtypeInt32},
		{Name: "second", Dtype: vector.DtypeInt64},
	}
	b, err := Build(attrs, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	v0, err := b.ColumnAt(0)
	if err != nil {
		t.Fatal(err)
	}
	if v0.Dtype() != vector.DtypeInt32 {
		t.Errorf("expecting ordinal 0 to be the first declared attribute")
	}
	if _, err := b.ColumnAt(2); err == nil {
		t.Error("expecting an out-of-range ordinal to error")
	}
}

func TestSetSelectorValidatesAvailableBits(t *testing.T) {
	b, err := Build([]Schema{{Name: "a", Dtype: vector.DtypeInt32}}, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetSelector(bitmap.NewBitmap(4)); err != nil {
		t.Errorf("expecting a 4-bit selector on a 4-row batch to be accepted: %v", err)
	}
	if err := b.SetSelector(bitmap.NewBitmap(5)); err == nil {
		t.Error("expecting a mismatched selector length to be rejected")
	}
}

func TestFreeDropsVectorReferences(t *testing.T) {
	b, err := Build([]Schema{{Name: "a", Dtype: vector.DtypeInt32}}, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Free must not panic, and must be safe to treat the batch as retired
	// afterwards.
	b.Free()
	if b.vectors != nil {
		t.Errorf("expecting Free to drop vector references")
	}
}
