package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/csvxml/internal/config"
	"github.com/ginjaninja78/csvxml/internal/record"
)

func defaultSettings() config.CSVSettings {
	return config.DefaultProfile().CSVSettings
}

func TestReader_Basic(t *testing.T) {
	input := "prenoms,nombre,sexe,annee\nAbdoulaye,2,M,2004\nAdèle,31,F,2004\n"

	r, err := NewReader(strings.NewReader(input), defaultSettings())
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"prenoms", "nombre", "sexe", "annee"}, r.Headers())

	entries := record.Collect(r.Records())
	require.NoError(t, r.Err())
	require.Len(t, entries, 2)

	assert.Equal(t, 0, entries[0].Offset)
	assert.Equal(t, "Abdoulaye", entries[0].Record.Value("prenoms"))
	assert.Equal(t, 1, entries[1].Offset)
	assert.Equal(t, "Adèle", entries[1].Record.Value("prenoms"))
	assert.Equal(t, []string{"prenoms", "nombre", "sexe", "annee"}, entries[1].Record.Columns())
	assert.Equal(t, 2, r.RowsRead())
}

func TestReader_SecondPassIsConsumed(t *testing.T) {
	r, err := NewReader(strings.NewReader("a\n1\n2\n"), defaultSettings())
	require.NoError(t, err)

	assert.Len(t, record.Collect(r.Records()), 2)
	assert.Empty(t, record.Collect(r.Records()))
	assert.ErrorIs(t, r.Err(), ErrSourceConsumed)
}

func TestReader_StopsEarly(t *testing.T) {
	r, err := NewReader(strings.NewReader("a\n1\n2\n3\n4\n"), defaultSettings())
	require.NoError(t, err)

	for offset := range r.Records() {
		if offset == 1 {
			break
		}
	}
	assert.Equal(t, 2, r.RowsRead())
	assert.NoError(t, r.Err())
}

func TestReader_Delimiters(t *testing.T) {
	tests := map[string]string{
		";":    "a;b\n1;2\n",
		"tab":  "a\tb\n1\t2\n",
		"\\t":  "a\tb\n1\t2\n",
		"pipe": "a|b\n1|2\n",
		"|":    "a|b\n1|2\n",
	}
	for delimiter, input := range tests {
		t.Run(delimiter, func(t *testing.T) {
			settings := defaultSettings()
			settings.Delimiter = delimiter

			r, err := NewReader(strings.NewReader(input), settings)
			require.NoError(t, err)
			entries := record.Collect(r.Records())
			require.Len(t, entries, 1)
			assert.Equal(t, "2", entries[0].Record.Value("b"))
		})
	}
}

func TestParseDelimiter_Invalid(t *testing.T) {
	for _, delimiter := range []string{"ab", "\"", "\n"} {
		_, err := ParseDelimiter(delimiter)
		assert.Error(t, err, "delimiter %q", delimiter)
	}
}

func TestReader_HeaderOffset(t *testing.T) {
	settings := defaultSettings()
	settings.HeaderOffset = 2

	input := "Report generated 2024-01-01\n\"\"\nname,qty\nbolt,3\nnut,5\n"
	r, err := NewReader(strings.NewReader(input), settings)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "qty"}, r.Headers())
	entries := record.Collect(r.Records())
	require.Len(t, entries, 2)
	assert.Equal(t, "nut", entries[1].Record.Value("name"))
}

func TestReader_NoHeader(t *testing.T) {
	settings := defaultSettings()
	settings.HeaderOffset = -1

	r, err := NewReader(strings.NewReader("x,y\nz\n"), settings)
	require.NoError(t, err)
	assert.Nil(t, r.Headers())

	entries := record.Collect(r.Records())
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"0", "1"}, entries[0].Record.Columns())
	assert.Equal(t, "y", entries[0].Record.Value("1"))
	assert.Equal(t, []string{"0"}, entries[1].Record.Columns())
}

func TestReader_RaggedRows(t *testing.T) {
	r, err := NewReader(strings.NewReader("a,b,c\n1\n1,2,3,4\n"), defaultSettings())
	require.NoError(t, err)

	entries := record.Collect(r.Records())
	require.Len(t, entries, 2)
	assert.Equal(t, "", entries[0].Record.Value("c"))
	assert.Equal(t, 3, entries[0].Record.Len())
	assert.Equal(t, 3, entries[1].Record.Len())
}

func TestReader_EmptyRows(t *testing.T) {
	input := "a,b\n1,2\n,\n3,4\n"

	r, err := NewReader(strings.NewReader(input), defaultSettings())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, record.Offsets(r.Records()))

	settings := defaultSettings()
	settings.KeepEmptyRows = true
	r, err = NewReader(strings.NewReader(input), settings)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, record.Offsets(r.Records()))
}

func TestReader_Headers(t *testing.T) {
	t.Run("blank names", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("a,,c\n"), defaultSettings())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "Column_2", "c"}, r.Headers())
	})

	t.Run("kept blank names", func(t *testing.T) {
		settings := defaultSettings()
		settings.KeepBlankHeaders = true
		r, err := NewReader(strings.NewReader("a,,c\n1,2,3\n"), settings)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "", "c"}, r.Headers())
		entries := record.Collect(r.Records())
		require.Len(t, entries, 1)
		assert.Equal(t, "2", entries[0].Record.Value(""))
	})

	t.Run("trimmed", func(t *testing.T) {
		settings := defaultSettings()
		settings.TrimValues = true
		r, err := NewReader(strings.NewReader(" a , b \n 1 , 2 \n"), settings)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, r.Headers())
		entries := record.Collect(r.Records())
		require.Len(t, entries, 1)
		assert.Equal(t, "1", entries[0].Record.Value("a"))
	})

	t.Run("duplicates", func(t *testing.T) {
		_, err := NewReader(strings.NewReader("a,b,a\n"), defaultSettings())
		assert.ErrorContains(t, err, "duplicate column")
	})

	t.Run("empty input", func(t *testing.T) {
		r, err := NewReader(strings.NewReader(""), defaultSettings())
		require.NoError(t, err)
		assert.Empty(t, record.Collect(r.Records()))
		assert.NoError(t, r.Err())
	})
}

func TestReader_Encoding(t *testing.T) {
	t.Run("byte order mark", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("\ufeffname\nx\n"), defaultSettings())
		require.NoError(t, err)
		assert.Equal(t, []string{"name"}, r.Headers())
	})

	t.Run("latin1", func(t *testing.T) {
		settings := defaultSettings()
		settings.Encoding = "ISO-8859-1"

		// "Adèle" with è as the single byte 0xE8.
		r, err := NewReader(strings.NewReader("name\nAd\xe8le\n"), settings)
		require.NoError(t, err)
		entries := record.Collect(r.Records())
		require.Len(t, entries, 1)
		assert.Equal(t, "Adèle", entries[0].Record.Value("name"))
	})

	t.Run("unknown", func(t *testing.T) {
		settings := defaultSettings()
		settings.Encoding = "no-such-charset"
		_, err := NewReader(strings.NewReader("a\n"), settings)
		assert.Error(t, err)
	})
}

func TestReader_StrayQuote(t *testing.T) {
	settings := defaultSettings()
	r, err := NewReader(strings.NewReader("a,b\n1,2\n3,4\"x\n"), settings)
	require.NoError(t, err)

	entries := record.Collect(r.Records())
	assert.Len(t, entries, 2)
	assert.NoError(t, r.Err())
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))

	r, err := Open(path, defaultSettings())
	require.NoError(t, err)
	assert.Len(t, record.Collect(r.Records()), 1)
	assert.NoError(t, r.Close())

	_, err = Open(filepath.Join(t.TempDir(), "missing.csv"), defaultSettings())
	assert.Error(t, err)
}
