// =============================================================================
// CSV to XML Converter - Tree Converter
// =============================================================================
//
// This package turns a record sequence into an element tree. It is the core
// of the application; everything else reads files, selects records or writes
// the resulting tree as text.
//
// TREE SHAPE (default naming, record attribute "offset", field attribute "name"):
//
//   <csv>                                   <- root element
//     <row offset="3">                      <- one per record, offset = original position
//       <field name="firstname">Anna</field>  <- one per column, in column order
//       <field name="sex">F</field>
//     </row>
//   </csv>
//
// The record attribute and the field attribute are independent; each one is
// either present or absent, giving four shapes.
//
// ENTRY POINTS:
//   - Convert : builds a new standalone document
//   - Import  : builds the record elements inside a fragment owned by an
//               existing document, leaving the document itself untouched
//
// =============================================================================

package xmlconv

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strconv"

	"github.com/ginjaninja78/csvxml/internal/dom"
	"github.com/ginjaninja78/csvxml/internal/record"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrInvalidInputType is matched by every *InvalidInputTypeError.
var ErrInvalidInputType = errors.New("invalid input type")

// InvalidInputTypeError is returned when Convert or Import receive something
// that is not a record sequence.
type InvalidInputTypeError struct {
	// Got is the Go type of the rejected value.
	Got string
}

// Error implements the error interface.
func (e *InvalidInputTypeError) Error() string {
	return fmt.Sprintf("invalid input type: expected a record sequence, got %s", e.Got)
}

// Is reports whether target is ErrInvalidInputType.
func (e *InvalidInputTypeError) Is(target error) bool {
	return target == ErrInvalidInputType
}

// ErrNilDocument is returned by Import when no target document is given.
var ErrNilDocument = errors.New("import target document is nil")

// =============================================================================
// CONVERTER
// =============================================================================

// Converter builds element trees from records. It keeps no state between
// calls and is safe for concurrent use.
type Converter struct {
	naming NamingConfig
	logger *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Converter. Names left unset in naming fall back to the
// defaults.
func New(naming NamingConfig, opts ...Option) *Converter {
	c := &Converter{
		naming: naming.withDefaults(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Naming returns the converter's naming configuration.
func (c *Converter) Naming() NamingConfig {
	return c.naming
}

// Convert builds a standalone document from records.
//
// PARAMETERS:
//   - records: A record.Sequence, a []record.Record or a record.Source.
//
// RETURNS:
//   - The document, its document element named after the root name.
//   - An *InvalidInputTypeError when records is not a record sequence, or the
//     first naming error met while building. No document is returned on error.
func (c *Converter) Convert(records any) (*dom.Document, error) {
	seq, err := toSequence(records)
	if err != nil {
		return nil, err
	}
	return c.ConvertSequence(seq)
}

// ConvertSequence is Convert for an already typed sequence.
func (c *Converter) ConvertSequence(seq record.Sequence) (*dom.Document, error) {
	doc := dom.NewDocument()

	root, err := doc.CreateElement(c.naming.root)
	if err != nil {
		return nil, fmt.Errorf("failed to create root element: %w", err)
	}

	count, err := c.appendRecords(doc, root, seq)
	if err != nil {
		return nil, err
	}

	if err := doc.AppendChild(root); err != nil {
		return nil, fmt.Errorf("failed to attach root element: %w", err)
	}

	c.logger.Debug("converted records to document", "root", c.naming.root, "records", count)
	return doc, nil
}

// Import builds the record elements for records inside a fragment owned by
// doc. The fragment is not attached: doc gains no children, and the caller
// decides where the fragment goes. On error the fragment is discarded and doc
// is left as it was.
func (c *Converter) Import(records any, doc *dom.Document) (*dom.Node, error) {
	seq, err := toSequence(records)
	if err != nil {
		return nil, err
	}
	return c.ImportSequence(seq, doc)
}

// ImportSequence is Import for an already typed sequence.
func (c *Converter) ImportSequence(seq record.Sequence, doc *dom.Document) (*dom.Node, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	fragment := doc.CreateDocumentFragment()
	count, err := c.appendRecords(doc, fragment, seq)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("imported records as fragment", "records", count)
	return fragment, nil
}

// =============================================================================
// RECORD AND FIELD CONVERSION
// =============================================================================

// appendRecords converts every record of seq and appends it to parent.
func (c *Converter) appendRecords(doc *dom.Document, parent *dom.Node, seq record.Sequence) (int, error) {
	count := 0
	for offset, r := range seq {
		el, err := c.recordToElement(doc, r, offset)
		if err != nil {
			return count, fmt.Errorf("record at offset %d: %w", offset, err)
		}
		if err := parent.AppendChild(el); err != nil {
			return count, fmt.Errorf("record at offset %d: %w", offset, err)
		}
		count++
	}
	return count, nil
}

// recordToElement creates one record element, with the offset attribute when
// configured and one field element per column.
func (c *Converter) recordToElement(doc *dom.Document, r record.Record, offset int) (*dom.Node, error) {
	el, err := doc.CreateElement(c.naming.record)
	if err != nil {
		return nil, err
	}

	if c.naming.recordAttr != "" {
		if err := el.SetAttribute(c.naming.recordAttr, strconv.Itoa(offset)); err != nil {
			return nil, err
		}
	}

	for column, value := range r.All() {
		field, err := c.fieldToElement(doc, column, value)
		if err != nil {
			return nil, err
		}
		if err := el.AppendChild(field); err != nil {
			return nil, err
		}
	}

	return el, nil
}

// fieldToElement creates one field element holding value, with the column
// attribute when configured.
func (c *Converter) fieldToElement(doc *dom.Document, column, value string) (*dom.Node, error) {
	name := c.naming.field
	if c.naming.columnElement {
		name = column
	}

	item, err := doc.CreateElement(name)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", column, err)
	}
	item.SetTextContent(value)

	if c.naming.fieldAttr != "" {
		if err := item.SetAttribute(c.naming.fieldAttr, column); err != nil {
			return nil, err
		}
	}

	return item, nil
}

// =============================================================================
// INPUT NORMALIZATION
// =============================================================================

// toSequence accepts the supported record containers and rejects everything
// else before any node is built.
func toSequence(records any) (record.Sequence, error) {
	switch v := records.(type) {
	case iter.Seq2[int, record.Record]:
		if v != nil {
			return v, nil
		}
	case func(yield func(int, record.Record) bool):
		if v != nil {
			return v, nil
		}
	case []record.Record:
		return record.FromSlice(v), nil
	case record.Source:
		if seq := v.Records(); seq != nil {
			return seq, nil
		}
	}
	return nil, &InvalidInputTypeError{Got: fmt.Sprintf("%T", records)}
}
