package converter

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/csvxml/internal/config"
	"github.com/ginjaninja78/csvxml/internal/csvparser"
	"github.com/ginjaninja78/csvxml/internal/record"
	"github.com/ginjaninja78/csvxml/internal/xlsxsource"
)

// Source is an open, single-pass record source.
// Both *csvparser.Reader and *xlsxsource.Source implement it.
type Source interface {
	record.Source
	Headers() []string
	RowsRead() int
	Err() error
	Close() error
}

// OpenSource opens path with the reader matching the profile's input format.
func OpenSource(path string, profile *config.Profile) (Source, error) {
	switch format := profile.Format(path); format {
	case "csv":
		r, err := csvparser.Open(path, profile.CSVSettings)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "xlsx":
		s, err := xlsxsource.Open(path, profile.XLSXSettings)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported input format %q", format)
	}
}

// withContext stops seq once ctx is done.
func withContext(ctx context.Context, seq record.Sequence) record.Sequence {
	return func(yield func(int, record.Record) bool) {
		for offset, r := range seq {
			if ctx.Err() != nil {
				return
			}
			if !yield(offset, r) {
				return
			}
		}
	}
}
