// =============================================================================
// CSV to XML Converter - Statement
// =============================================================================
//
// A Statement selects which records reach the tree converter. It is applied
// to a raw record sequence in a fixed order:
//
//   1. FILTER   : keep records for which every predicate returns true
//                 (predicates are ANDed in registration order)
//   2. SORT     : stable sort with the registered comparators composed in
//                 registration order (the first comparator decides, ties go
//                 to the next one)
//   3. PAGINATE : skip the first Offset survivors, then yield up to Limit
//                 records (-1 means no limit)
//
// Offsets travel with each record unchanged: the offset of a record is always
// its position in the original source, whatever the filter or sort did.
//
// The processed sequence is lazy. Nothing is read from the source until the
// result is ranged over, and only sorting materializes the filtered records.
//
// Statement is a value type. Every setter returns a new Statement, so one
// Statement can be reused for many sequences, from many goroutines.
//
// =============================================================================

package statement

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ginjaninja78/csvxml/internal/record"
)

// =============================================================================
// TYPES
// =============================================================================

// Predicate decides whether a record is kept.
type Predicate func(r record.Record, offset int) bool

// Comparator orders two records. It returns a negative number when a sorts
// before b, a positive number when a sorts after b and 0 when they tie.
type Comparator func(a record.Record, aOffset int, b record.Record, bOffset int) int

// Unlimited is the Limit value that disables the cap.
const Unlimited = -1

// ErrInvalidPagination is matched by every *InvalidPaginationError.
var ErrInvalidPagination = errors.New("invalid pagination")

// InvalidPaginationError reports a rejected Offset or Limit argument.
type InvalidPaginationError struct {
	// Field is "offset" or "limit".
	Field string

	// Value is the rejected argument.
	Value int
}

// Error implements the error interface.
func (e *InvalidPaginationError) Error() string {
	switch e.Field {
	case "limit":
		return fmt.Sprintf("invalid pagination: limit must be %d or greater, got %d", Unlimited, e.Value)
	default:
		return fmt.Sprintf("invalid pagination: %s must be 0 or greater, got %d", e.Field, e.Value)
	}
}

// Is reports whether target is ErrInvalidPagination.
func (e *InvalidPaginationError) Is(target error) bool {
	return target == ErrInvalidPagination
}

// =============================================================================
// STATEMENT
// =============================================================================

// Statement holds filter, sort and pagination settings.
type Statement struct {
	where   []Predicate
	orderBy []Comparator
	offset  int
	limit   int
}

// New returns a Statement that yields every record in source order.
func New() Statement {
	return Statement{limit: Unlimited}
}

// Where returns a copy of s with p added to the filters.
func (s Statement) Where(p Predicate) Statement {
	s.where = append(slices.Clip(s.where), p)
	return s
}

// OrderBy returns a copy of s with c added to the sort keys.
func (s Statement) OrderBy(c Comparator) Statement {
	s.orderBy = append(slices.Clip(s.orderBy), c)
	return s
}

// Offset returns a copy of s that skips the first n selected records.
// A negative n is rejected and s is returned unchanged.
func (s Statement) Offset(n int) (Statement, error) {
	if n < 0 {
		return s, &InvalidPaginationError{Field: "offset", Value: n}
	}
	s.offset = n
	return s, nil
}

// Limit returns a copy of s that yields at most n records.
// Unlimited (-1) removes the cap. Anything below -1 is rejected and s is
// returned unchanged.
func (s Statement) Limit(n int) (Statement, error) {
	if n < Unlimited {
		return s, &InvalidPaginationError{Field: "limit", Value: n}
	}
	s.limit = n
	return s, nil
}

// OffsetValue returns the configured offset.
func (s Statement) OffsetValue() int { return s.offset }

// LimitValue returns the configured limit.
func (s Statement) LimitValue() int { return s.limit }

// =============================================================================
// PROCESSING
// =============================================================================

// Process applies the statement to seq and returns the selected records.
func (s Statement) Process(seq record.Sequence) record.Sequence {
	filtered := s.filter(seq)
	if len(s.orderBy) > 0 {
		filtered = s.sort(filtered)
	}
	return s.paginate(filtered)
}

// filter drops records rejected by any predicate.
func (s Statement) filter(seq record.Sequence) record.Sequence {
	if len(s.where) == 0 {
		return seq
	}
	return func(yield func(int, record.Record) bool) {
		for offset, r := range seq {
			if !s.keep(r, offset) {
				continue
			}
			if !yield(offset, r) {
				return
			}
		}
	}
}

func (s Statement) keep(r record.Record, offset int) bool {
	for _, p := range s.where {
		if !p(r, offset) {
			return false
		}
	}
	return true
}

// sort materializes seq and yields it in comparator order.
func (s Statement) sort(seq record.Sequence) record.Sequence {
	return func(yield func(int, record.Record) bool) {
		entries := record.Collect(seq)
		slices.SortStableFunc(entries, func(a, b record.Entry) int {
			for _, cmp := range s.orderBy {
				if c := cmp(a.Record, a.Offset, b.Record, b.Offset); c != 0 {
					return c
				}
			}
			return 0
		})
		for _, e := range entries {
			if !yield(e.Offset, e.Record) {
				return
			}
		}
	}
}

// paginate skips s.offset records and stops after s.limit.
func (s Statement) paginate(seq record.Sequence) record.Sequence {
	if s.offset == 0 && s.limit == Unlimited {
		return seq
	}
	return func(yield func(int, record.Record) bool) {
		if s.limit == 0 {
			return
		}
		skipped, emitted := 0, 0
		for offset, r := range seq {
			if skipped < s.offset {
				skipped++
				continue
			}
			if !yield(offset, r) {
				return
			}
			emitted++
			if s.limit != Unlimited && emitted >= s.limit {
				return
			}
		}
	}
}
