package ingest

import (
	"testing"

	"github.com/vortexdb/colexec/vector"
)

func TestTypeGuesserBasic(t *testing.T) {
	tt := []struct {
		vals  []string
		dtype vector.Dtype
	}{
		{[]string{"123", "456"}, vector.DtypeInt32},
		{[]string{"123.3", "1"}, vector.DtypeFloat64},
		{[]string{"true", "false"}, vector.DtypeBool},
		{[]string{"foo", "bar"}, vector.DtypeString},
		{[]string{"123", "foo"}, vector.DtypeString},
		{[]string{"true", "123"}, vector.DtypeString},
		{[]string{"", ""}, vector.DtypeString},
	}
	for _, test := range tt {
		tg := newTypeGuesser()
		for _, v := range test.vals {
			tg.addValue(v)
		}
		if got := tg.inferredDtype(); got != test.dtype {
			t.Errorf("%v: expected %v, got %v", test.vals, test.dtype, got)
		}
	}
}

func TestTypeGuesserNullable(t *testing.T) {
	tg := newTypeGuesser()
	tg.addValue("1")
	tg.addValue("")
	tg.addValue("2")
	if !tg.nullable {
		t.Error("expected nullable to be true once an empty field is seen")
	}
	if tg.inferredDtype() != vector.DtypeInt32 {
		t.Errorf("expected Int32, got %v", tg.inferredDtype())
	}
}

func TestTypeGuesserInt64Narrowing(t *testing.T) {
	tg := newTypeGuesser()
	tg.addValue("123")
	tg.addValue("4294967296") // beyond int32 range
	if got := tg.inferredDtype(); got != vector.DtypeInt64 {
		t.Errorf("expected Int64 once a value overflows int32, got %v", got)
	}

	tg32 := newTypeGuesser()
	tg32.addValue("123")
	tg32.addValue("-456")
	if got := tg32.inferredDtype(); got != vector.DtypeInt32 {
		t.Errorf("expected Int32 for small values, got %v", got)
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"t", "T", "true", "TRUE", "f", "F", "false", "FALSE"} {
		if _, err := parseBool(s); err != nil {
			t.Errorf("%q: unexpected error: %v", s, err)
		}
	}
	if _, err := parseBool("yes"); err == nil {
		t.Error("expected an error for a non-bool string")
	}
}
