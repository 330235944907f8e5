package ingest

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/snappy"

	"github.com/vortexdb/colexec/batch"
	"github.com/vortexdb/colexec/bitmap"
	"github.com/vortexdb/colexec/vector"
)

// SpillCache persists already-loaded batches to disk, snappy-compressed,
// keyed by an opaque string - the same length-prefixed binary.Write/Read
// shape smda's column/chunk.go Serialize/Deserialize uses, just one section
// per column instead of per chunk.
type SpillCache struct {
	dir string
	mu  sync.Mutex
}

// NewSpillCache opens (creating if needed) dir as a spill directory.
func NewSpillCache(dir string) (*SpillCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ingest: creating spill dir: %w", err)
	}
	return &SpillCache{dir: dir}, nil
}

func (c *SpillCache) pathFor(key string) string {
	return filepath.Join(c.dir, key+".spill")
}

// Put snappy-compresses and writes b (and its schema) to disk under key,
// overwriting any prior entry.
func (c *SpillCache) Put(key string, b *batch.Batch, schema []batch.Schema) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Create(c.pathFor(key))
	if err != nil {
		return fmt.Errorf("ingest: creating spill file: %w", err)
	}
	defer f.Close()

	sw := snappy.NewBufferedWriter(f)
	if err := writeBatch(sw, b, schema); err != nil {
		return err
	}
	return sw.Close()
}

// Get reads back the batch stored under key. The second return value
// reports whether an entry existed at all.
func (c *SpillCache) Get(key string) (*batch.Batch, []batch.Schema, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.pathFor(key))
	if os.IsNotExist(err) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("ingest: opening spill file: %w", err)
	}
	defer f.Close()

	b, schema, err := readBatch(snappy.NewReader(f))
	if err != nil {
		return nil, nil, false, err
	}
	return b, schema, true, nil
}

func writeBatch(w io.Writer, b *batch.Batch, schema []batch.Schema) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint32(b.RowNum)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(schema))); err != nil {
		return err
	}
	for _, attr := range schema {
		if err := writeString(bw, attr.Name); err != nil {
			return err
		}
		if err := bw.WriteByte(byte(attr.Dtype)); err != nil {
			return err
		}
		nullable := byte(0)
		if attr.Nullable {
			nullable = 1
		}
		if err := bw.WriteByte(nullable); err != nil {
			return err
		}
		col, ok := b.Column(attr.Name)
		if !ok {
			return fmt.Errorf("ingest: spilling column %q: not found in batch", attr.Name)
		}
		if err := writeColumn(bw, col); err != nil {
			return fmt.Errorf("ingest: spilling column %q: %w", attr.Name, err)
		}
	}
	return bw.Flush()
}

func readBatch(r io.Reader) (*batch.Batch, []batch.Schema, error) {
	br := bufio.NewReader(r)
	var rowNum, ncols uint32
	if err := binary.Read(br, binary.LittleEndian, &rowNum); err != nil {
		return nil, nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &ncols); err != nil {
		return nil, nil, err
	}

	schema := make([]batch.Schema, ncols)
	for i := range schema {
		name, err := readString(br)
		if err != nil {
			return nil, nil, err
		}
		dt, err := br.ReadByte()
		if err != nil {
			return nil, nil, err
		}
		nullable, err := br.ReadByte()
		if err != nil {
			return nil, nil, err
		}
		schema[i] = batch.Schema{Name: name, Dtype: vector.Dtype(dt), Nullable: nullable != 0}
	}

	b, err := batch.Build(schema, int(rowNum), nil)
	if err != nil {
		return nil, nil, err
	}
	for _, attr := range schema {
		col, _ := b.Column(attr.Name)
		if err := readColumn(br, col); err != nil {
			return nil, nil, fmt.Errorf("ingest: restoring column %q: %w", attr.Name, err)
		}
	}
	return b, schema, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// writeNullability writes the bitmap's availableBits as a uint32 followed by
// the packed words - a nil Nullability() (all rows valid) is written as a
// single zero uint32 with no words after it.
func writeNullability(w io.Writer, nb *bitmap.Bitmap) error {
	if nb == nil {
		return binary.Write(w, binary.LittleEndian, uint32(0))
	}
	words := nb.Data()
	if err := binary.Write(w, binary.LittleEndian, uint32(nb.AvailableBits())); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, words)
}

func readNullability(r io.Reader) (*bitmap.Bitmap, error) {
	var availableBits uint32
	if err := binary.Read(r, binary.LittleEndian, &availableBits); err != nil {
		return nil, err
	}
	if availableBits == 0 {
		return nil, nil
	}
	nwords := (int(availableBits) + 63) / 64
	words := make([]uint64, nwords)
	if err := binary.Read(r, binary.LittleEndian, &words); err != nil {
		return nil, err
	}
	return bitmap.NewBitmapFromBits(words, int(availableBits)), nil
}

func writeColumn(w io.Writer, col vector.Vector) error {
	if err := writeNullability(w, col.Nullability()); err != nil {
		return err
	}
	n := col.Len()
	switch v := col.(type) {
	case *vector.Int32Vector:
		data := make([]int32, n)
		for i := range data {
			data[i] = v.Get(i)
		}
		return binary.Write(w, binary.LittleEndian, data)
	case *vector.Int64Vector:
		data := make([]int64, n)
		for i := range data {
			data[i] = v.Get(i)
		}
		return binary.Write(w, binary.LittleEndian, data)
	case *vector.Float64Vector:
		data := make([]float64, n)
		for i := range data {
			data[i] = v.Get(i)
		}
		return binary.Write(w, binary.LittleEndian, data)
	case *vector.BoolVector:
		for i := 0; i < n; i++ {
			b := byte(0)
			if v.Get(i) {
				b = 1
			}
			if _, err := w.Write([]byte{b}); err != nil {
				return err
			}
		}
		return nil
	case *vector.StringVector:
		for i := 0; i < n; i++ {
			if err := writeString(w, v.Get(i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("ingest: unsupported spill dtype %v", col.Dtype())
	}
}

func readColumn(r io.Reader, col vector.Vector) error {
	nb, err := readNullability(r)
	if err != nil {
		return err
	}
	n := col.Len()
	switch v := col.(type) {
	case *vector.Int32Vector:
		data := make([]int32, n)
		if err := binary.Read(r, binary.LittleEndian, &data); err != nil {
			return err
		}
		for i, val := range data {
			v.Set(i, val)
		}
		v.SetNullability(nb)
	case *vector.Int64Vector:
		data := make([]int64, n)
		if err := binary.Read(r, binary.LittleEndian, &data); err != nil {
			return err
		}
		for i, val := range data {
			v.Set(i, val)
		}
		v.SetNullability(nb)
	case *vector.Float64Vector:
		data := make([]float64, n)
		if err := binary.Read(r, binary.LittleEndian, &data); err != nil {
			return err
		}
		for i, val := range data {
			v.Set(i, val)
		}
		v.SetNullability(nb)
	case *vector.BoolVector:
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		for i, b := range buf {
			v.Set(i, b != 0)
		}
		v.SetNullability(nb)
	case *vector.StringVector:
		for i := 0; i < n; i++ {
			s, err := readString(r)
			if err != nil {
				return err
			}
			v.Set(i, s)
		}
		v.SetNullability(nb)
	default:
		return fmt.Errorf("ingest: unsupported spill dtype %v", col.Dtype())
	}
	return nil
}
