package vector

import (
	"errors"
	"testing"

	"github.com/vortexdb/colexec/bitmap"
	"github.com/vortexdb/colexec/slab"
)

func TestInt32VectorDenseRoundtrip(t *testing.T) {
	pool := slab.NewPool(4)
	v, err := NewInt32Vector(pool, 4)
	if err != nil {
		t.Fatal(err)
	}
	for j := 0; j < 4; j++ {
		v.Set(j, int32(j*10))
	}
	for j := 0; j < 4; j++ {
		if v.Get(j) != int32(j*10) {
			t.Errorf("position %d: expected %d, got %d", j, j*10, v.Get(j))
		}
	}
	if v.Len() != 4 || v.Dtype() != DtypeInt32 || v.IsLiteral() {
		t.Errorf("unexpected vector metadata: len=%d dtype=%v literal=%v", v.Len(), v.Dtype(), v.IsLiteral())
	}
}

func TestInt32LiteralAnswersEveryIndex(t *testing.T) {
	v := NewInt32Literal(42)
	if !v.IsLiteral() || v.Len() != 1 {
		t.Fatalf("expecting a literal vector to report length 1, got %d", v.Len())
	}
	for _, i := range []int{0, 1, 1000} {
		if v.Get(i) != 42 {
			t.Errorf("expecting literal vector to answer %d with 42, got %d", i, v.Get(i))
		}
	}
}

func TestBoolVectorBitsBacked(t *testing.T) {
	v := NewBoolVector(5)
	v.Set(2, true)
	v.Set(4, true)
	if v.Bits().Count() != 2 {
		t.Errorf("expecting 2 set bits, got %d", v.Bits().Count())
	}
	if !v.Get(2) || v.Get(0) {
		t.Errorf("Get did not reflect the underlying bitmap")
	}
}

func TestStringVectorUnpooled(t *testing.T) {
	v := NewStringVector(3)
	v.Set(0, "a")
	v.Set(1, "bb")
	if v.Get(1) != "bb" {
		t.Errorf("expected 'bb', got %q", v.Get(1))
	}
}

func TestBinaryVectorHasNoStorage(t *testing.T) {
	v := NewBinaryVector(10)
	if v.Len() != 10 {
		t.Fatalf("expecting reported length to track rowNum even without storage")
	}
	if _, err := v.Get(0); !errors.Is(err, ErrUnsupportedDtype) {
		t.Errorf("expecting ErrUnsupportedDtype, got %v", err)
	}
}

func TestVectorNullabilityDefaultsToAllValid(t *testing.T) {
	pool := slab.NewPool(3)
	v, _ := NewFloat64Vector(pool, 3)
	if v.Nullability() != nil {
		t.Errorf("expecting a freshly built vector to have nil nullability (all valid)")
	}
	nb := bitmap.NewBitmapFromBools([]bool{true, false, true})
	v.SetNullability(nb)
	if v.Nullability().Count() != 2 {
		t.Errorf("expecting nullability to be assignable after construction")
	}
}
