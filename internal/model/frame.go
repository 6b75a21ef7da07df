// Package model defines the logical tables, their typed records and the
// generic frame representation shared by the sync layer.
package model

import (
	"slices"

	"github.com/Veraticus/sheetbooks/internal/codec"
)

// Record is one row keyed by column name, in wire (string) form.
type Record map[string]string

// Values is one row of typed input values keyed by column name, as supplied
// by a form or a typed record before serialization.
type Values map[string]any

// Values converts the record into serializer input.
func (r Record) Values() Values {
	v := make(Values, len(r))
	for k, s := range r {
		v[k] = s
	}
	return v
}

// Record serializes the values into wire form.
func (v Values) Record() Record {
	rec := make(Record, len(v))
	for k, val := range v {
		rec[k] = codec.FormatValue(val)
	}
	return rec
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Frame is an ordered set of columns plus the rows read under them.
type Frame struct {
	Columns []string
	Records []Record
}

// NewFrame returns an empty frame with the given columns.
func NewFrame(columns []string) Frame {
	return Frame{Columns: slices.Clone(columns)}
}

// Len returns the number of rows.
func (f Frame) Len() int {
	return len(f.Records)
}

// Empty reports whether the frame holds no rows.
func (f Frame) Empty() bool {
	return len(f.Records) == 0
}

// HasColumn reports whether name is one of the frame's columns.
func (f Frame) HasColumn(name string) bool {
	return slices.Contains(f.Columns, name)
}

// Column returns every row's value for name, in row order.
func (f Frame) Column(name string) []string {
	out := make([]string, len(f.Records))
	for i, rec := range f.Records {
		out[i] = rec[name]
	}
	return out
}

// Values converts every row into serializer input.
func (f Frame) Values() []Values {
	out := make([]Values, len(f.Records))
	for i, rec := range f.Records {
		out[i] = rec.Values()
	}
	return out
}

// Filter returns a frame with the rows for which keep returns true.
func (f Frame) Filter(keep func(Record) bool) Frame {
	out := Frame{Columns: f.Columns}
	for _, rec := range f.Records {
		if keep(rec) {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}

// Clone returns a deep copy so callers can mutate it without touching a
// cached frame.
func (f Frame) Clone() Frame {
	out := Frame{
		Columns: slices.Clone(f.Columns),
		Records: make([]Record, len(f.Records)),
	}
	for i, rec := range f.Records {
		out.Records[i] = rec.Clone()
	}
	return out
}
