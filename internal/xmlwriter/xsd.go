package xmlwriter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ginjaninja78/csvxml/internal/xmlconv"
	"github.com/ginjaninja78/csvxml/internal/xmlname"
)

// =============================================================================
// XSD GENERATION
// =============================================================================

// GenerateXSD creates an XSD schema describing the documents a converter
// with the given naming produces for a source with the given columns.
//
// PARAMETERS:
//   - naming: The converter naming.
//   - columns: The source header. Only used in column-element mode, where
//     every column must be a valid element name.
//
// RETURNS:
//   - The XSD document as a byte slice.
//   - An error if a column is not a valid element name.
func GenerateXSD(naming xmlconv.NamingConfig, columns []string) ([]byte, error) {
	var buffer bytes.Buffer

	recordName, recordAttr := naming.Record()
	fieldName, fieldAttr := naming.Field()

	buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
`)

	// Root element: any number of records.
	fmt.Fprintf(&buffer, `  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
        <xs:element ref="%s" minOccurs="0" maxOccurs="unbounded"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>

`, naming.Root(), recordName)

	fmt.Fprintf(&buffer, `  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
`, recordName)

	if naming.UsesColumnElements() {
		for _, column := range columns {
			if _, err := xmlname.Validate(column); err != nil {
				return nil, fmt.Errorf("column %q: %w", column, err)
			}
			writeXSDField(&buffer, column, fieldAttr, "", 4)
		}
	} else {
		writeXSDField(&buffer, fieldName, fieldAttr, ` minOccurs="0" maxOccurs="unbounded"`, 4)
	}

	buffer.WriteString("      </xs:sequence>\n")
	if recordAttr != "" {
		fmt.Fprintf(&buffer, "      <xs:attribute name=\"%s\" type=\"xs:nonNegativeInteger\" use=\"required\"/>\n", recordAttr)
	}
	buffer.WriteString(`    </xs:complexType>
  </xs:element>

</xs:schema>
`)

	return buffer.Bytes(), nil
}

// writeXSDField writes a field element definition.
func writeXSDField(buffer *bytes.Buffer, name, attr, occurs string, indentLevel int) {
	indent := strings.Repeat("  ", indentLevel)

	if attr == "" {
		fmt.Fprintf(buffer, "%s<xs:element name=\"%s\" type=\"xs:string\"%s/>\n", indent, name, occurs)
		return
	}

	fmt.Fprintf(buffer, `%s<xs:element name="%s"%s>
%s  <xs:complexType>
%s    <xs:simpleContent>
%s      <xs:extension base="xs:string">
%s        <xs:attribute name="%s" type="xs:string" use="required"/>
%s      </xs:extension>
%s    </xs:simpleContent>
%s  </xs:complexType>
%s</xs:element>
`, indent, name, occurs,
		indent, indent, indent,
		indent, attr,
		indent, indent, indent, indent)
}
