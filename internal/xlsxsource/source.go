// =============================================================================
// CSV to XML Converter - XLSX Source Module
// =============================================================================
//
// This module reads one worksheet of an XLSX workbook as a lazy record
// source. It mirrors csvparser: a header row at a configurable position,
// data rows yielded one at a time with 0-based offsets, single-pass.
//
// Rows are streamed with excelize's row iterator, so only the current row is
// held in memory. Cell values are the formatted strings excelize returns.
//
// =============================================================================

package xlsxsource

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/csvxml/internal/config"
	"github.com/ginjaninja78/csvxml/internal/record"
)

// ErrSourceConsumed is reported by Err when Records is ranged over more
// than once.
var ErrSourceConsumed = errors.New("record source already consumed")

// Source streams the records of one worksheet.
type Source struct {
	file     *excelize.File
	rows     *excelize.Rows
	sheet    string
	settings config.XLSXSettings

	headers  []string
	read     int
	consumed bool
	err      error
}

// Open opens a workbook and reads the header of the configured sheet.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//   - settings: The XLSX settings from the profile.
//
// RETURNS:
//   - A Source positioned on the first data row. The caller must Close it.
//   - An error if the workbook or sheet cannot be read.
func Open(path string, settings config.XLSXSettings) (*Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return newSource(f, settings)
}

// NewSource reads a workbook from r.
func NewSource(r io.Reader, settings config.XLSXSettings) (*Source, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return newSource(f, settings)
}

func newSource(f *excelize.File, settings config.XLSXSettings) (*Source, error) {
	sheet := settings.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			f.Close()
			return nil, fmt.Errorf("workbook has no sheets")
		}
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		f.Close()
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}

	s := &Source{
		file:     f,
		rows:     rows,
		sheet:    sheet,
		settings: settings,
	}

	if err := s.readHeader(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// readHeader advances to the header row and reads the column names.
func (s *Source) readHeader() error {
	for i := 0; i <= s.settings.HeaderRow; i++ {
		if !s.rows.Next() {
			if err := s.rows.Error(); err != nil {
				return fmt.Errorf("error reading header: %w", err)
			}
			return nil
		}
		if i < s.settings.HeaderRow {
			continue
		}

		cells, err := s.rows.Columns()
		if err != nil {
			return fmt.Errorf("error reading header: %w", err)
		}
		headers := make([]string, len(cells))
		seen := make(map[string]bool, len(cells))
		for j, cell := range cells {
			name := strings.TrimSpace(cell)
			if name == "" && !s.settings.KeepBlankHeaders {
				name = fmt.Sprintf("Column_%d", j+1)
			}
			if seen[name] {
				return fmt.Errorf("duplicate column %q in header", name)
			}
			seen[name] = true
			headers[j] = name
		}
		s.headers = headers
	}
	return nil
}

// Sheet returns the name of the sheet being read.
func (s *Source) Sheet() string {
	return s.sheet
}

// Headers returns the column names.
func (s *Source) Headers() []string {
	return append([]string(nil), s.headers...)
}

// Records returns the data rows as a lazy sequence.
func (s *Source) Records() record.Sequence {
	return func(yield func(int, record.Record) bool) {
		if s.consumed {
			if s.err == nil {
				s.err = ErrSourceConsumed
			}
			return
		}
		s.consumed = true

		for offset := 0; s.rows.Next(); offset++ {
			cells, err := s.rows.Columns()
			if err != nil {
				s.err = fmt.Errorf("error reading data row %d: %w", offset, err)
				return
			}
			s.read++

			if !s.settings.KeepEmptyRows && isRowEmpty(cells) {
				continue
			}
			if !yield(offset, record.New(s.headers, cells)) {
				return
			}
		}
		if err := s.rows.Error(); err != nil {
			s.err = fmt.Errorf("error reading sheet %q: %w", s.sheet, err)
		}
	}
}

// RowsRead returns the number of data rows read so far.
func (s *Source) RowsRead() int {
	return s.read
}

// Err returns the error that stopped the last iteration, if any.
func (s *Source) Err() error {
	return s.err
}

// Close releases the row iterator and the workbook.
func (s *Source) Close() error {
	return errors.Join(s.rows.Close(), s.file.Close())
}

func isRowEmpty(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
