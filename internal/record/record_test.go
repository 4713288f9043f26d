package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("keeps header order", func(t *testing.T) {
		r := New([]string{"b", "a", "c"}, []string{"2", "1", "3"})
		assert.Equal(t, []string{"b", "a", "c"}, r.Columns())
		assert.Equal(t, 3, r.Len())
		assert.Equal(t, "1", r.Value("a"))
	})

	t.Run("pads missing values", func(t *testing.T) {
		r := New([]string{"a", "b"}, []string{"1"})
		v, ok := r.Get("b")
		require.True(t, ok)
		assert.Equal(t, "", v)
	})

	t.Run("ignores extra values", func(t *testing.T) {
		r := New([]string{"a"}, []string{"1", "2"})
		assert.Equal(t, 1, r.Len())
	})

	t.Run("duplicate column keeps first position and last value", func(t *testing.T) {
		r := New([]string{"a", "b", "a"}, []string{"1", "2", "3"})
		assert.Equal(t, []string{"a", "b"}, r.Columns())
		assert.Equal(t, "3", r.Value("a"))
	})
}

func TestRecordIsImmutable(t *testing.T) {
	r := FromPairs("a", "1", "b", "2")

	cols := r.Columns()
	cols[0] = "changed"
	m := r.Map()
	m["a"] = "changed"

	assert.Equal(t, []string{"a", "b"}, r.Columns())
	assert.Equal(t, "1", r.Value("a"))
}

func TestAllOrder(t *testing.T) {
	r := FromPairs("z", "26", "a", "1", "m", "13")

	var got []string
	for col, value := range r.All() {
		got = append(got, col+"="+value)
	}
	assert.Equal(t, []string{"z=26", "a=1", "m=13"}, got)

	// early break
	n := 0
	for range r.All() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestFromPairsOddLength(t *testing.T) {
	r := FromPairs("a", "1", "b")
	assert.Equal(t, []string{"a", "b"}, r.Columns())
	assert.Equal(t, "", r.Value("b"))
}

func TestZeroRecord(t *testing.T) {
	var r Record
	assert.Equal(t, 0, r.Len())
	_, ok := r.Get("x")
	assert.False(t, ok)
	assert.Empty(t, r.Columns())
}

func TestSequenceHelpers(t *testing.T) {
	records := []Record{FromPairs("a", "x"), FromPairs("a", "y"), FromPairs("a", "z")}
	seq := FromSlice(records)

	assert.Equal(t, []int{0, 1, 2}, Offsets(seq))
	// restartable
	entries := Collect(seq)
	require.Len(t, entries, 3)
	assert.Equal(t, 2, entries[2].Offset)
	assert.Equal(t, "z", entries[2].Record.Value("a"))
}
