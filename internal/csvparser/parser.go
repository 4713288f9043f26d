// =============================================================================
// CSV to XML Converter - CSV Parser Module
// =============================================================================
//
// This module reads CSV files as a lazy record source. Rows are decoded one
// at a time while the consumer ranges over Records, so arbitrarily large
// files are converted without being loaded into memory.
//
// FEATURES:
//   - Configurable delimiter, with aliases for tab, pipe and semicolon
//   - Header row at any offset, or no header at all
//   - Explicit character set decoding via the IANA registry
//   - Byte order marks are removed before the header is read
//   - Ragged rows: missing cells become "", extra cells are dropped
//
// A Reader is single-pass. Ranging over Records a second time yields nothing
// and sets Err to ErrSourceConsumed.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/csvxml/internal/config"
	"github.com/ginjaninja78/csvxml/internal/record"
)

// ErrSourceConsumed is reported by Err when Records is ranged over more
// than once.
var ErrSourceConsumed = errors.New("record source already consumed")

// =============================================================================
// READER
// =============================================================================

// Reader streams the records of one CSV input.
type Reader struct {
	closer   io.Closer
	reader   *csv.Reader
	settings config.CSVSettings

	headers  []string
	rows     int
	consumed bool
	err      error
}

// Open opens a CSV file and reads its header.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV settings from the profile.
//
// RETURNS:
//   - A Reader positioned on the first data row. The caller must Close it.
//   - An error if the file cannot be opened or the header is invalid.
func Open(filePath string, settings config.CSVSettings) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r, err := NewReader(file, settings)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// NewReader reads CSV data from src. Close does not close src.
func NewReader(src io.Reader, settings config.CSVSettings) (*Reader, error) {
	comma, err := ParseDelimiter(settings.Delimiter)
	if err != nil {
		return nil, err
	}

	decoded, err := decode(src, settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bufio.NewReader(decoded))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	r := &Reader{
		reader:   reader,
		settings: settings,
	}

	if err := r.readHeader(); err != nil {
		return nil, err
	}

	return r, nil
}

// ParseDelimiter converts a delimiter setting to the rune used by the CSV
// reader. Empty means comma.
func ParseDelimiter(delimiter string) (rune, error) {
	switch strings.ToLower(delimiter) {
	case "", ",", "comma":
		return ',', nil
	case "\t", "\\t", "tab":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	}

	if utf8.RuneCountInString(delimiter) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
	}
	comma, _ := utf8.DecodeRuneInString(delimiter)
	if comma == '"' || comma == '\r' || comma == '\n' || comma == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q", delimiter)
	}
	return comma, nil
}

// decode wraps src in a decoder for the named character set. A byte order
// mark, if present, wins over the configured name.
func decode(src io.Reader, name string) (io.Reader, error) {
	if name == "" {
		name = "UTF-8"
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}

	return transform.NewReader(src, unicode.BOMOverride(enc.NewDecoder())), nil
}

// readHeader skips to the header row and reads the column names.
func (r *Reader) readHeader() error {
	offset := r.settings.HeaderOffset
	if offset < 0 {
		return nil
	}

	for i := 0; i <= offset; i++ {
		row, err := r.reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading header: %w", err)
		}
		if i == offset {
			return r.setHeaders(row)
		}
	}
	return nil
}

// setHeaders cleans the header row. Blank names become Column_N unless
// KeepBlankHeaders is set.
func (r *Reader) setHeaders(row []string) error {
	headers := make([]string, len(row))
	seen := make(map[string]bool, len(row))

	for i, header := range row {
		if r.settings.TrimValues {
			header = strings.TrimSpace(header)
		}
		if strings.TrimSpace(header) == "" && !r.settings.KeepBlankHeaders {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		if seen[header] {
			return fmt.Errorf("duplicate column %q in header", header)
		}
		seen[header] = true
		headers[i] = header
	}

	r.headers = headers
	return nil
}

// Headers returns the column names, or nil when the file has no header.
func (r *Reader) Headers() []string {
	if r.headers == nil {
		return nil
	}
	return append([]string(nil), r.headers...)
}

// Records returns the data rows as a lazy sequence. Offsets are 0-based
// data row positions; skipped empty rows still consume one.
func (r *Reader) Records() record.Sequence {
	return func(yield func(int, record.Record) bool) {
		if r.consumed {
			if r.err == nil {
				r.err = ErrSourceConsumed
			}
			return
		}
		r.consumed = true

		for offset := 0; ; offset++ {
			row, err := r.reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				r.err = fmt.Errorf("error reading data row %d: %w", offset, err)
				return
			}
			r.rows++

			if r.settings.TrimValues {
				for i := range row {
					row[i] = strings.TrimSpace(row[i])
				}
			}
			if !r.settings.KeepEmptyRows && isRowEmpty(row) {
				continue
			}

			if !yield(offset, record.New(r.columns(len(row)), row)) {
				return
			}
		}
	}
}

// columns returns the header, or index names for a headerless file.
func (r *Reader) columns(width int) []string {
	if r.settings.HeaderOffset >= 0 {
		return r.headers
	}
	cols := make([]string, width)
	for i := range cols {
		cols[i] = strconv.Itoa(i)
	}
	return cols
}

// RowsRead returns the number of data rows read so far, including skipped
// empty rows.
func (r *Reader) RowsRead() int {
	return r.rows
}

// Err returns the error that stopped the last iteration, if any.
func (r *Reader) Err() error {
	return r.err
}

// Close closes the underlying file when the Reader was created by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// isRowEmpty checks if all values in a row are empty.
func isRowEmpty(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
