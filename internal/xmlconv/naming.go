package xmlconv

import (
	"fmt"

	"github.com/ginjaninja78/csvxml/internal/xmlname"
)

// =============================================================================
// NAMING CONFIGURATION
// =============================================================================

// Default element names.
const (
	DefaultRootName   = "csv"
	DefaultRecordName = "row"
	DefaultFieldName  = "field"
)

// NamingConfig holds the element and attribute names used to build the tree.
//
// It is a value type: every setter returns an updated copy and leaves the
// receiver untouched, so one configuration can be shared between converters
// and goroutines. Every name is validated when it is set; an invalid name
// returns an *xmlname.InvalidNameError and the unchanged receiver.
type NamingConfig struct {
	root          string
	record        string
	recordAttr    string
	field         string
	fieldAttr     string
	columnElement bool
}

// DefaultNaming returns the default naming: <csv><row><field>.
func DefaultNaming() NamingConfig {
	return NamingConfig{
		root:   DefaultRootName,
		record: DefaultRecordName,
		field:  DefaultFieldName,
	}
}

// RootElement sets the document element name.
func (c NamingConfig) RootElement(name string) (NamingConfig, error) {
	if _, err := xmlname.Validate(name); err != nil {
		return c, fmt.Errorf("root element: %w", err)
	}
	c.root = name
	return c, nil
}

// RecordElement sets the record element name and the optional attribute that
// carries the record offset. An empty attr disables the attribute.
func (c NamingConfig) RecordElement(name, attr string) (NamingConfig, error) {
	if _, err := xmlname.Validate(name); err != nil {
		return c, fmt.Errorf("record element: %w", err)
	}
	if attr != "" {
		if _, err := xmlname.Validate(attr); err != nil {
			return c, fmt.Errorf("record attribute: %w", err)
		}
	}
	c.record = name
	c.recordAttr = attr
	return c, nil
}

// FieldElement sets the field element name and the optional attribute that
// carries the column name. An empty attr disables the attribute.
func (c NamingConfig) FieldElement(name, attr string) (NamingConfig, error) {
	if _, err := xmlname.Validate(name); err != nil {
		return c, fmt.Errorf("field element: %w", err)
	}
	if attr != "" {
		if _, err := xmlname.Validate(attr); err != nil {
			return c, fmt.Errorf("field attribute: %w", err)
		}
	}
	c.field = name
	c.fieldAttr = attr
	return c, nil
}

// ColumnElements makes every field element take its column's name instead of
// the configured field name. Column names are then checked per record during
// conversion, so an empty or illegal header fails the conversion.
func (c NamingConfig) ColumnElements(enabled bool) NamingConfig {
	c.columnElement = enabled
	return c
}

// Root returns the document element name.
func (c NamingConfig) Root() string { return c.root }

// Record returns the record element name and its optional offset attribute.
func (c NamingConfig) Record() (name, attr string) { return c.record, c.recordAttr }

// Field returns the field element name and its optional column attribute.
func (c NamingConfig) Field() (name, attr string) { return c.field, c.fieldAttr }

// UsesColumnElements reports whether fields are named after their columns.
func (c NamingConfig) UsesColumnElements() bool { return c.columnElement }

// withDefaults fills names left empty by a zero-value NamingConfig.
func (c NamingConfig) withDefaults() NamingConfig {
	if c.root == "" {
		c.root = DefaultRootName
	}
	if c.record == "" {
		c.record = DefaultRecordName
	}
	if c.field == "" {
		c.field = DefaultFieldName
	}
	return c
}
