package bitmap

import (
	"math/bits"
	"math/rand"
	"reflect"
	"testing"
)

func TestBitmapSetsGets(t *testing.T) {
	vals := []bool{true, false, false, false, true, true, false}
	bm := NewBitmap(0)
	for j, v := range vals {
		bm.Set(j, v)
	}
	for j, v := range vals {
		if bm.Get(j) != v {
			t.Fatalf("position %v: expected %v, got %v", j, v, bm.Get(j))
		}
	}
}

func TestBitmapData(t *testing.T) {
	tests := []struct {
		length int
		set    []int
	}{
		{0, nil},
		{1, nil},
		{1, []int{0}},
		{32, []int{12, 14, 16}},
		{64, []int{12, 14, 16}},
		{65, []int{12, 14, 64}},
		{300, []int{12, 14, 200, 245, 244, 299}},
	}
	ones := func(data []uint64) int {
		sum := 0
		for _, el := range data {
			sum += bits.OnesCount64(el)
		}
		return sum
	}
	for _, test := range tests {
		bm := NewBitmap(test.length)
		for _, pos := range test.set {
			bm.Set(pos, true)
		}
		exp := len(test.set)
		got := ones(bm.Data())
		if exp != got {
			t.Errorf("expecting a bitmap of %v to result in %d ones, got %d", test.set, exp, got)
		}
	}
}

func TestBitmapAvailableBits(t *testing.T) {
	tests := []struct {
		bm     *Bitmap
		expAvb int
	}{
		{NewBitmap(0), 0},
		{NewBitmap(10), 10},
		{NewBitmap(1000), 1000},
	}

	for j, test := range tests {
		if test.bm.AvailableBits() != test.expAvb {
			t.Errorf("expecting bitmap %d to have %d available bits, got %d instead", j, test.expAvb, test.bm.AvailableBits())
		}
	}
}

func TestBitmapAvailableBitsGrows(t *testing.T) {
	bm := NewBitmap(0)

	for _, newpos := range []int{10, 64, 65, 100, 128, 1000, 10000} {
		bm.Set(newpos, true)
		if bm.AvailableBits() != newpos+1 {
			t.Errorf("after setting position %d, expected %d available bits, got %d instead", newpos, newpos+1, bm.AvailableBits())
		}
	}
}

func TestBitmapAndOrAlignment(t *testing.T) {
	tests := []struct{ a, b int }{
		{1, 0},
		{0, 1},
		{1000, 0},
		{1000, 1},
		{1, 1000},
		{64, 63},
	}
	for _, test := range tests {
		bm1, bm2 := NewBitmap(test.a), NewBitmap(test.b)
		for _, fnc := range []struct {
			fnc  func(*Bitmap)
			errt string
		}{
			{bm1.AndNot, "bitmap: cannot ANDNOT bitmaps with differing availableBits"},
		} {
			func(bm2 *Bitmap) {
				defer func() {
					if err := recover(); err != fnc.errt {
						t.Fatal(err)
					}
				}()
				fnc.fnc(bm2)
			}(bm2)
		}
		func() {
			defer func() {
				if err := recover(); err != "bitmap: cannot OR bitmaps with differing availableBits" {
					t.Fatal(err)
				}
			}()
			Or(bm1, bm2)
		}()
	}
}

func TestBitmapAndNot(t *testing.T) {
	bm1, bm2 := NewBitmap(100), NewBitmap(100)
	bm1.Set(12, true)
	bm1.AndNot(bm2) // noop
	if !bm1.Get(12) || bm1.Count() != 1 {
		t.Error("AndNot of a single-bit bitmap with an empty bitmap should do nothing")
	}

	bm2.Set(12, true)
	bm1.AndNot(bm2)
	if bm1.Get(12) || bm1.Count() != 0 {
		t.Error("AndNot of two equivalent bitmaps should reset the first one")
	}
}

func TestBitmapCloning(t *testing.T) {
	var bm1, bm2 *Bitmap
	bm1 = NewBitmap(1000)
	rnd := rand.New(rand.NewSource(0))

	for j := 0; j < 100; j++ {
		bm1.Set(rnd.Intn(bm1.AvailableBits()), true)
	}
	bm2 = bm1.Clone()
	c2 := bm2.Count()
	for j := 0; j < 100; j++ {
		bm1.Set(rnd.Intn(bm1.AvailableBits()), true)
	}
	if bm2.Count() != c2 {
		t.Errorf("expecting a cloned bitmap not to be affected by changes to the original bitmap")
	}
}

func TestAnd(t *testing.T) {
	tests := []struct {
		a, b, exp []bool
	}{
		{[]bool{true, false}, []bool{true, false}, []bool{true, false}},
		{[]bool{true, true}, []bool{true, false}, []bool{true, false}},
		{[]bool{false, false}, []bool{false, false}, []bool{false, false}},
		{[]bool{true, true}, []bool{true, true}, []bool{true, true}},
	}
	for _, test := range tests {
		a, b, exp := NewBitmapFromBools(test.a), NewBitmapFromBools(test.b), NewBitmapFromBools(test.exp)
		got := And(a, b)
		if !reflect.DeepEqual(got, exp) {
			t.Errorf("expecting %v & %v to result in %v, got %v instead", test.a, test.b, test.exp, got)
		}
	}
}

func TestOr(t *testing.T) {
	tests := []struct {
		a, b, exp []bool
	}{
		{[]bool{true}, []bool{true}, []bool{true}},
		{[]bool{true}, []bool{false}, []bool{true}},
		{[]bool{false}, []bool{true}, []bool{true}},
		{[]bool{false}, []bool{false}, []bool{false}},
		{[]bool{true, false}, []bool{true, false}, []bool{true, false}},
		{[]bool{true, true}, []bool{true, false}, []bool{true, true}},
		{[]bool{false, false}, []bool{false, false}, []bool{false, false}},
		{[]bool{false, false}, []bool{false, true}, []bool{false, true}},
	}

	for _, test := range tests {
		a, b, exp := NewBitmapFromBools(test.a), NewBitmapFromBools(test.b), NewBitmapFromBools(test.exp)
		ored := Or(a, b)
		if !reflect.DeepEqual(ored, exp) {
			t.Errorf("expecting %v | %v to result in %v, got %v instead", test.a, test.b, test.exp, ored)
		}
	}
}

func TestAndWithNull(t *testing.T) {
	a := NewBitmapFromBools([]bool{true, false, true})
	b := NewBitmapFromBools([]bool{true, true, false})

	if got := AndWithNull(nil, nil, false); got != nil {
		t.Errorf("expecting andWithNull(null, null, _) = null, got %v", got)
	}

	for _, cp := range []bool{true, false} {
		got := AndWithNull(a, nil, cp)
		if !reflect.DeepEqual(got, a) {
			t.Errorf("expecting andWithNull(a, null, %v) = a, got %v", cp, got)
		}
		if cp && got == a {
			t.Errorf("expecting andWithNull(a, null, true) to return a copy, got the same pointer")
		}

		got = AndWithNull(nil, b, cp)
		if !reflect.DeepEqual(got, b) {
			t.Errorf("expecting andWithNull(null, b, %v) = b, got %v", cp, got)
		}
		if cp && got == b {
			t.Errorf("expecting andWithNull(null, b, true) to return a copy, got the same pointer")
		}
	}

	got := AndWithNull(a, b, false)
	exp := And(a, b)
	if !reflect.DeepEqual(got, exp) {
		t.Errorf("expecting andWithNull(a, b, _) = bitwise-and(a, b), got %v, expected %v", got, exp)
	}
}

func TestInvert(t *testing.T) {
	bm := NewBitmapFromBools([]bool{true, false, true, false, true})
	bm.Invert()
	exp := NewBitmapFromBools([]bool{false, true, false, true, false})
	if !reflect.DeepEqual(bm, exp) {
		t.Errorf("expecting inverted bitmap to be %v, got %v", exp, bm)
	}
}

func TestSetBits(t *testing.T) {
	bm := NewBitmapFromBools([]bool{true, false, true, false, true, true, false})
	var got []int
	bm.SetBits(func(idx int) { got = append(got, idx) })
	exp := []int{0, 2, 4, 5}
	if !reflect.DeepEqual(got, exp) {
		t.Errorf("expecting set bit positions %v, got %v", exp, got)
	}
}
