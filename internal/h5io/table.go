package h5io

import (
	"fmt"
	"math"
	"strings"
)

// Field describes one member of a compound table row.
type Field struct {
	Name   string
	Class  uint8 // ClassFixed, ClassFloat or ClassString
	Size   uint32
	Offset uint32
}

// Table is a 1-D compound dataset held as packed little-endian rows. Rows
// read from a file keep their original byte layout, so a table can be
// copied into another file without interpreting fields it does not know
// about.
type Table struct {
	Fields  []Field
	RowSize int
	Raw     []byte
}

// NewTable builds an empty table from field definitions, assigning packed
// offsets in declaration order.
func NewTable(fields []Field) *Table {
	off := uint32(0)
	for i := range fields {
		fields[i].Offset = off
		off += fields[i].Size
	}
	return &Table{Fields: fields, RowSize: int(off)}
}

// Rows returns the number of rows.
func (t *Table) Rows() int {
	if t.RowSize == 0 {
		return 0
	}
	return len(t.Raw) / t.RowSize
}

// FieldIndex returns the index of the named field, or -1.
func (t *Table) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// AppendRow encodes one row. Values are matched to fields positionally and
// must be int64, float64 or string depending on the field class. Strings
// longer than the field are truncated, shorter ones null-padded.
func (t *Table) AppendRow(values ...interface{}) error {
	if len(values) != len(t.Fields) {
		return fmt.Errorf("row has %d values, table has %d fields", len(values), len(t.Fields))
	}
	row := make([]byte, t.RowSize)
	for i, f := range t.Fields {
		dst := row[f.Offset : f.Offset+f.Size]
		switch f.Class {
		case ClassFixed:
			v, ok := values[i].(int64)
			if !ok {
				return fmt.Errorf("field %q: expected int64, got %T", f.Name, values[i])
			}
			putInt(dst, v)
		case ClassFloat:
			v, ok := values[i].(float64)
			if !ok {
				return fmt.Errorf("field %q: expected float64, got %T", f.Name, values[i])
			}
			le.PutUint64(dst, math.Float64bits(v))
		default:
			v, ok := values[i].(string)
			if !ok {
				return fmt.Errorf("field %q: expected string, got %T", f.Name, values[i])
			}
			copy(dst, v)
		}
	}
	t.Raw = append(t.Raw, row...)
	return nil
}

// Int64At returns the integer value of a fixed-point field.
func (t *Table) Int64At(row, field int) (int64, bool) {
	b, ok := t.cell(row, field)
	if !ok || t.Fields[field].Class != ClassFixed {
		return 0, false
	}
	return getInt(b), true
}

// Float64At returns the value of a float field.
func (t *Table) Float64At(row, field int) (float64, bool) {
	b, ok := t.cell(row, field)
	if !ok || t.Fields[field].Class != ClassFloat || len(b) != 8 {
		return 0, false
	}
	return math.Float64frombits(le.Uint64(b)), true
}

// StringAt returns the value of a string field with trailing NULs removed.
func (t *Table) StringAt(row, field int) (string, bool) {
	b, ok := t.cell(row, field)
	if !ok || t.Fields[field].Class != ClassString {
		return "", false
	}
	return strings.TrimRight(string(b), "\x00"), true
}

func (t *Table) cell(row, field int) ([]byte, bool) {
	if field < 0 || field >= len(t.Fields) || row < 0 || row >= t.Rows() {
		return nil, false
	}
	f := t.Fields[field]
	start := row*t.RowSize + int(f.Offset)
	return t.Raw[start : start+int(f.Size)], true
}

func putInt(dst []byte, v int64) {
	switch len(dst) {
	case 1:
		dst[0] = byte(v)
	case 2:
		le.PutUint16(dst, uint16(v))
	case 4:
		le.PutUint32(dst, uint32(v))
	default:
		le.PutUint64(dst, uint64(v))
	}
}

func getInt(b []byte) int64 {
	switch len(b) {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(le.Uint16(b)))
	case 4:
		return int64(int32(le.Uint32(b)))
	default:
		return int64(le.Uint64(b))
	}
}
