// =============================================================================
// CSV to XML Converter - Records
// =============================================================================
//
// This package contains the record types shared by the record sources
// (csvparser, xlsxsource), the statement stage and the tree converter. Keeping
// them here avoids import cycles between those packages.
//
// A Record is one row of tabular data: an ordered mapping of column name to
// cell value. The order is the header order of the source.
//
// A Sequence is a lazy stream of (offset, record) pairs, where offset is the
// record's position in the original, unfiltered source.
//
// =============================================================================

package record

import (
	"iter"
	"slices"
)

// =============================================================================
// RECORD
// =============================================================================

// Record is an immutable, ordered column -> value mapping.
// The zero value is an empty record.
type Record struct {
	columns []string
	values  map[string]string
}

// New builds a record from parallel column and value slices.
//
// PARAMETERS:
//   - columns: The column names, in order.
//   - values: The cell values. Missing trailing values become "",
//     extra values are ignored.
//
// A column that repeats an earlier one keeps the first position and takes
// the later value.
func New(columns, values []string) Record {
	r := Record{
		columns: make([]string, 0, len(columns)),
		values:  make(map[string]string, len(columns)),
	}
	for i, col := range columns {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		if _, exists := r.values[col]; !exists {
			r.columns = append(r.columns, col)
		}
		r.values[col] = value
	}
	return r
}

// FromPairs builds a record from alternating column, value arguments.
// A trailing column without a value gets "".
func FromPairs(pairs ...string) Record {
	columns := make([]string, 0, (len(pairs)+1)/2)
	values := make([]string, 0, (len(pairs)+1)/2)
	for i := 0; i < len(pairs); i += 2 {
		columns = append(columns, pairs[i])
		if i+1 < len(pairs) {
			values = append(values, pairs[i+1])
		}
	}
	return New(columns, values)
}

// Columns returns a copy of the column names in order.
func (r Record) Columns() []string {
	return slices.Clone(r.columns)
}

// Get returns the value stored under column.
func (r Record) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Value returns the value stored under column, or "" when absent.
func (r Record) Value(column string) string {
	return r.values[column]
}

// Len returns the number of columns.
func (r Record) Len() int {
	return len(r.columns)
}

// All iterates the record's column/value pairs in column order.
func (r Record) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, col := range r.columns {
			if !yield(col, r.values[col]) {
				return
			}
		}
	}
}

// Map returns an unordered copy of the record.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// =============================================================================
// SEQUENCE
// =============================================================================

// Sequence is a lazy stream of records keyed by their original offset.
// Sequences produced by file-backed sources are single-pass.
type Sequence = iter.Seq2[int, Record]

// Source is implemented by anything that can hand out a record sequence,
// such as the CSV and XLSX readers.
type Source interface {
	Records() Sequence
}

// FromSlice returns a restartable sequence over records, numbering them
// from 0 in slice order.
func FromSlice(records []Record) Sequence {
	return func(yield func(int, Record) bool) {
		for i, r := range records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Entry pairs a record with its original offset.
type Entry struct {
	Offset int
	Record Record
}

// Collect drains seq into a slice of entries.
func Collect(seq Sequence) []Entry {
	var entries []Entry
	for offset, r := range seq {
		entries = append(entries, Entry{Offset: offset, Record: r})
	}
	return entries
}

// Offsets drains seq and returns only the offsets, in yield order.
func Offsets(seq Sequence) []int {
	var offsets []int
	for offset := range seq {
		offsets = append(offsets, offset)
	}
	return offsets
}
