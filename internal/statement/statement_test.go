package statement

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/csvxml/internal/record"
)

// numbered returns n records with a single "n" column holding the index.
func numbered(n int) []record.Record {
	records := make([]record.Record, n)
	for i := range records {
		records[i] = record.FromPairs("n", strconv.Itoa(i))
	}
	return records
}

func evenOffsets(_ record.Record, offset int) bool { return offset%2 == 0 }

func TestProcessWithoutSettingsYieldsEverything(t *testing.T) {
	got := record.Offsets(New().Process(record.FromSlice(numbered(5))))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestEndToEndFilterAndPaginate(t *testing.T) {
	stmt := New().Where(evenOffsets)
	stmt, err := stmt.Offset(1)
	require.NoError(t, err)
	stmt, err = stmt.Limit(2)
	require.NoError(t, err)

	got := record.Collect(stmt.Process(record.FromSlice(numbered(8))))
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Offset)
	assert.Equal(t, 4, got[1].Offset)
	assert.Equal(t, "2", got[0].Record.Value("n"))
}

func TestWherePredicatesAreANDed(t *testing.T) {
	var calls []string
	first := func(_ record.Record, offset int) bool {
		calls = append(calls, fmt.Sprintf("first:%d", offset))
		return offset > 0
	}
	second := func(_ record.Record, offset int) bool {
		calls = append(calls, fmt.Sprintf("second:%d", offset))
		return offset < 2
	}

	got := record.Offsets(New().Where(first).Where(second).Process(record.FromSlice(numbered(3))))

	assert.Equal(t, []int{1}, got)
	// registration order, short-circuit on the first false
	assert.Equal(t, []string{"first:0", "first:1", "second:1", "first:2", "second:2"}, calls)
}

func TestOrderByIsStableAndComposite(t *testing.T) {
	records := []record.Record{
		record.FromPairs("group", "b", "name", "x"),
		record.FromPairs("group", "a", "name", "y"),
		record.FromPairs("group", "b", "name", "a"),
		record.FromPairs("group", "a", "name", "y"),
		record.FromPairs("group", "a", "name", "b"),
	}

	t.Run("single key keeps original order among ties", func(t *testing.T) {
		got := record.Offsets(New().OrderBy(ByColumn("group", false)).Process(record.FromSlice(records)))
		assert.Equal(t, []int{1, 3, 4, 0, 2}, got)
	})

	t.Run("second key breaks ties", func(t *testing.T) {
		stmt := New().OrderBy(ByColumn("group", false)).OrderBy(ByColumn("name", false))
		got := record.Offsets(stmt.Process(record.FromSlice(records)))
		assert.Equal(t, []int{4, 1, 3, 2, 0}, got)
	})

	t.Run("descending", func(t *testing.T) {
		got := record.Offsets(New().OrderBy(ByColumn("group", true)).Process(record.FromSlice(records)))
		assert.Equal(t, []int{0, 2, 1, 3, 4}, got)
	})
}

func TestOffsetsSurviveSorting(t *testing.T) {
	stmt := New().OrderBy(ByOffset(true))
	stmt, err := stmt.Limit(3)
	require.NoError(t, err)

	got := record.Collect(stmt.Process(record.FromSlice(numbered(6))))
	require.Len(t, got, 3)
	for _, e := range got {
		assert.Equal(t, strconv.Itoa(e.Offset), e.Record.Value("n"))
	}
	assert.Equal(t, []int{5, 4, 3}, []int{got[0].Offset, got[1].Offset, got[2].Offset})
}

func TestPaginationProperty(t *testing.T) {
	const total = 7
	for offset := 0; offset <= total+2; offset++ {
		for limit := Unlimited; limit <= total+2; limit++ {
			t.Run(fmt.Sprintf("offset=%d,limit=%d", offset, limit), func(t *testing.T) {
				stmt, err := New().Offset(offset)
				require.NoError(t, err)
				stmt, err = stmt.Limit(limit)
				require.NoError(t, err)

				got := record.Offsets(stmt.Process(record.FromSlice(numbered(total))))

				want := []int{}
				end := total
				if limit != Unlimited {
					end = min(total, offset+limit)
				}
				for i := offset; i < end; i++ {
					want = append(want, i)
				}
				assert.Len(t, got, max(0, len(want)))
				if len(want) == 0 {
					assert.Empty(t, got)
				} else {
					assert.Equal(t, want, got)
				}
			})
		}
	}
}

func TestInvalidPaginationIsRejectedEagerly(t *testing.T) {
	t.Run("negative offset", func(t *testing.T) {
		stmt, err := New().Offset(3)
		require.NoError(t, err)
		got, err := stmt.Offset(-1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPagination)
		assert.Contains(t, err.Error(), "offset")
		assert.Equal(t, 3, got.OffsetValue())
	})

	t.Run("limit below -1", func(t *testing.T) {
		_, err := New().Limit(-2)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPagination)
		var pErr *InvalidPaginationError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, "limit", pErr.Field)
		assert.Equal(t, -2, pErr.Value)
	})

	t.Run("limit -1 and 0 are valid", func(t *testing.T) {
		_, err := New().Limit(-1)
		assert.NoError(t, err)
		stmt, err := New().Limit(0)
		require.NoError(t, err)
		assert.Empty(t, record.Offsets(stmt.Process(record.FromSlice(numbered(3)))))
	})
}

func TestProcessIsLazy(t *testing.T) {
	pulled := 0
	source := func(yield func(int, record.Record) bool) {
		for i := 0; i < 100; i++ {
			pulled++
			if !yield(i, record.FromPairs("n", strconv.Itoa(i))) {
				return
			}
		}
	}

	stmt, err := New().Offset(2)
	require.NoError(t, err)
	stmt, err = stmt.Limit(3)
	require.NoError(t, err)

	seq := stmt.Process(source)
	assert.Equal(t, 0, pulled, "nothing is read before iteration")

	assert.Equal(t, []int{2, 3, 4}, record.Offsets(seq))
	assert.Equal(t, 5, pulled, "iteration stops at the limit")
}

func TestStatementValueSemantics(t *testing.T) {
	base := New().Where(evenOffsets)
	a := base.Where(func(_ record.Record, offset int) bool { return offset > 2 })
	b := base.Where(func(_ record.Record, offset int) bool { return offset < 2 })

	src := record.FromSlice(numbered(8))
	assert.Equal(t, []int{0, 2, 4, 6}, record.Offsets(base.Process(src)))
	assert.Equal(t, []int{4, 6}, record.Offsets(a.Process(src)))
	assert.Equal(t, []int{0}, record.Offsets(b.Process(src)))
}
