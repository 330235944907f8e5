package ingest

import (
	"strings"
	"testing"

	"github.com/vortexdb/colexec/vector"
)

func TestLoadCSVInfersTypes(t *testing.T) {
	src := "id,score,active,name\n1,1.5,true,foo\n2,2.5,false,bar\n3,3.5,true,baz\n"
	b, schema, err := LoadCSV(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if b.RowNum != 3 {
		t.Fatalf("expected 3 rows, got %d", b.RowNum)
	}

	want := map[string]vector.Dtype{
		"id":     vector.DtypeInt32,
		"score":  vector.DtypeFloat64,
		"active": vector.DtypeBool,
		"name":   vector.DtypeString,
	}
	for _, attr := range schema {
		if attr.Dtype != want[attr.Name] {
			t.Errorf("column %q: expected %v, got %v", attr.Name, want[attr.Name], attr.Dtype)
		}
	}

	idCol, ok := b.Column("id")
	if !ok {
		t.Fatal("expected an id column")
	}
	iv := idCol.(*vector.Int32Vector)
	if iv.Get(0) != 1 || iv.Get(1) != 2 || iv.Get(2) != 3 {
		t.Errorf("unexpected id values: %d %d %d", iv.Get(0), iv.Get(1), iv.Get(2))
	}

	nameCol, _ := b.Column("name")
	sv := nameCol.(*vector.StringVector)
	if sv.Get(0) != "foo" || sv.Get(1) != "bar" || sv.Get(2) != "baz" {
		t.Errorf("unexpected name values: %q %q %q", sv.Get(0), sv.Get(1), sv.Get(2))
	}
}

func TestLoadCSVHandlesNulls(t *testing.T) {
	// a quoted empty field: encoding/csv skips a bare blank line entirely
	src := "a\n1\n\"\"\n3\n"
	b, schema, err := LoadCSV(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if !schema[0].Nullable {
		t.Error("expected column a to be inferred nullable")
	}
	col, _ := b.Column("a")
	iv := col.(*vector.Int32Vector)
	nb := iv.Nullability()
	if nb == nil {
		t.Fatal("expected a not-null bitmap once a NULL field was seen")
	}
	if !nb.Get(0) || nb.Get(1) || !nb.Get(2) {
		t.Errorf("unexpected nullability pattern: row0=%v row1=%v row2=%v", nb.Get(0), nb.Get(1), nb.Get(2))
	}
}

func TestLoadCSVRejectsRaggedRows(t *testing.T) {
	src := "a,b\n1,2\n3\n"
	if _, _, err := LoadCSV(strings.NewReader(src)); err == nil {
		t.Error("expected an error for a row with the wrong number of fields")
	}
}

func TestLoadCSVInt64Narrowing(t *testing.T) {
	src := "big\n4294967296\n5000000000\n"
	_, schema, err := LoadCSV(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if schema[0].Dtype != vector.DtypeInt64 {
		t.Errorf("expected Int64 for values beyond int32 range, got %v", schema[0].Dtype)
	}
}
