// Package ingest builds a batch.Batch directly off a CSV file - the natural
// on-ramp a reader expects from this codebase, without reintroducing the
// dataset/stripe registration smda's loader.go builds around.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/vortexdb/colexec/batch"
	"github.com/vortexdb/colexec/bitmap"
	"github.com/vortexdb/colexec/vector"
)

// LoadCSV reads every record from r, infers one dtype per column the way
// smda's typeGuesser does (bool, then int, then float, else string; a
// column that is entirely NULL settles on a nullable string), and returns
// a batch holding the parsed values plus the schema it inferred. The first
// record is always treated as a header naming the columns.
func LoadCSV(r io.Reader) (*batch.Batch, []batch.Schema, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: reading header: %w", err)
	}

	raw := make([][]string, len(header))
	rowNum := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("ingest: reading record %d: %w", rowNum, err)
		}
		if len(row) != len(header) {
			return nil, nil, fmt.Errorf("ingest: row %d has %d fields, header has %d", rowNum, len(row), len(header))
		}
		for j, val := range row {
			raw[j] = append(raw[j], val)
		}
		rowNum++
	}

	schema := make([]batch.Schema, len(header))
	for j, name := range header {
		tg := newTypeGuesser()
		for _, val := range raw[j] {
			tg.addValue(val)
		}
		schema[j] = batch.Schema{Name: name, Dtype: tg.inferredDtype(), Nullable: tg.nullable}
	}

	b, err := batch.Build(schema, rowNum, nil)
	if err != nil {
		return nil, nil, err
	}
	for j, attr := range schema {
		col, ok := b.Column(attr.Name)
		if !ok {
			return nil, nil, fmt.Errorf("ingest: column %q missing from built batch", attr.Name)
		}
		if err := fillColumn(col, raw[j]); err != nil {
			return nil, nil, fmt.Errorf("ingest: column %q: %w", attr.Name, err)
		}
	}
	return b, schema, nil
}

// fillColumn parses vals into col's native representation, building a
// not-null bitmap lazily - only allocated the first time a NULL is seen, so
// a fully-dense column pays nothing for nullability tracking.
func fillColumn(col vector.Vector, vals []string) error {
	var nb *bitmap.Bitmap
	markNull := func(i int) {
		if nb == nil {
			nb = bitmap.NewBitmap(len(vals))
			for k := range vals {
				nb.Set(k, true)
			}
		}
		nb.Set(i, false)
	}

	switch v := col.(type) {
	case *vector.Int32Vector:
		for i, s := range vals {
			if isNull(s) {
				markNull(i)
				continue
			}
			n, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return err
			}
			v.Set(i, int32(n))
		}
		if nb != nil {
			v.SetNullability(nb)
		}
	case *vector.Int64Vector:
		for i, s := range vals {
			if isNull(s) {
				markNull(i)
				continue
			}
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return err
			}
			v.Set(i, n)
		}
		if nb != nil {
			v.SetNullability(nb)
		}
	case *vector.Float64Vector:
		for i, s := range vals {
			if isNull(s) {
				markNull(i)
				continue
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			v.Set(i, f)
		}
		if nb != nil {
			v.SetNullability(nb)
		}
	case *vector.BoolVector:
		for i, s := range vals {
			if isNull(s) {
				markNull(i)
				continue
			}
			bv, err := parseBool(s)
			if err != nil {
				return err
			}
			v.Set(i, bv)
		}
		if nb != nil {
			v.SetNullability(nb)
		}
	case *vector.StringVector:
		for i, s := range vals {
			if isNull(s) {
				markNull(i)
				continue
			}
			v.Set(i, s)
		}
		if nb != nil {
			v.SetNullability(nb)
		}
	default:
		return fmt.Errorf("ingest: unsupported column dtype %v", col.Dtype())
	}
	return nil
}
