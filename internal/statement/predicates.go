package statement

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/csvxml/internal/record"
)

// =============================================================================
// COLUMN PREDICATES
// =============================================================================
// These build the filters declared in profile files. A record that lacks the
// column is treated as holding "".

// ColumnEquals keeps records whose column equals value.
func ColumnEquals(column, value string) Predicate {
	return func(r record.Record, _ int) bool {
		return r.Value(column) == value
	}
}

// ColumnNotEquals keeps records whose column differs from value.
func ColumnNotEquals(column, value string) Predicate {
	return func(r record.Record, _ int) bool {
		return r.Value(column) != value
	}
}

// ColumnContains keeps records whose column contains substr.
func ColumnContains(column, substr string) Predicate {
	return func(r record.Record, _ int) bool {
		return strings.Contains(r.Value(column), substr)
	}
}

// ColumnHasPrefix keeps records whose column starts with prefix.
func ColumnHasPrefix(column, prefix string) Predicate {
	return func(r record.Record, _ int) bool {
		return strings.HasPrefix(r.Value(column), prefix)
	}
}

// ColumnHasSuffix keeps records whose column ends with suffix.
func ColumnHasSuffix(column, suffix string) Predicate {
	return func(r record.Record, _ int) bool {
		return strings.HasSuffix(r.Value(column), suffix)
	}
}

// ColumnNotEmpty keeps records whose column is not blank.
func ColumnNotEmpty(column string) Predicate {
	return func(r record.Record, _ int) bool {
		return strings.TrimSpace(r.Value(column)) != ""
	}
}

// ColumnMatches keeps records whose column matches the regular expression.
func ColumnMatches(column, pattern string) (Predicate, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern for column %q: %w", column, err)
	}
	return func(r record.Record, _ int) bool {
		return re.MatchString(r.Value(column))
	}, nil
}

// =============================================================================
// COMPARATORS
// =============================================================================

// ByColumn orders records by the string value of column.
func ByColumn(column string, desc bool) Comparator {
	c := func(a record.Record, _ int, b record.Record, _ int) int {
		return strings.Compare(a.Value(column), b.Value(column))
	}
	if desc {
		return Reverse(c)
	}
	return c
}

// ByColumnNumeric orders records by the numeric value of column.
// Values that do not parse as numbers sort after every number, in string
// order among themselves.
func ByColumnNumeric(column string, desc bool) Comparator {
	c := func(a record.Record, _ int, b record.Record, _ int) int {
		av, bv := a.Value(column), b.Value(column)
		an, aErr := strconv.ParseFloat(strings.TrimSpace(av), 64)
		bn, bErr := strconv.ParseFloat(strings.TrimSpace(bv), 64)
		switch {
		case aErr == nil && bErr == nil:
			return cmp.Compare(an, bn)
		case aErr == nil:
			return -1
		case bErr == nil:
			return 1
		default:
			return strings.Compare(av, bv)
		}
	}
	if desc {
		return Reverse(c)
	}
	return c
}

// ByOffset orders records by their original offset.
func ByOffset(desc bool) Comparator {
	c := func(_ record.Record, a int, _ record.Record, b int) int {
		return cmp.Compare(a, b)
	}
	if desc {
		return Reverse(c)
	}
	return c
}

// Reverse inverts c.
func Reverse(c Comparator) Comparator {
	return func(a record.Record, aOffset int, b record.Record, bOffset int) int {
		return c(b, bOffset, a, aOffset)
	}
}
