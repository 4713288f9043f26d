// =============================================================================
// CSV to XML Converter - XML Writer Module
// =============================================================================
//
// This module serializes the document trees built by xmlconv to XML text.
// With the default options a converted file looks like:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <csv>
//     <row offset="0">
//       <field name="prenoms">Abdoulaye</field>
//       <field name="nombre">2</field>
//     </row>
//   </csv>
//
// The tree is copied into an etree document for serialization: elements
// without children are written self-closing and an element holding only
// text stays on one line. Output in a charset other than UTF-8 is encoded
// with golang.org/x/text; characters the charset lacks become numeric
// character references.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/csvxml/internal/dom"
)

// =============================================================================
// OUTPUT OPTIONS
// =============================================================================

// Options control XML serialization.
type Options struct {
	// Indent is the string used for indentation: spaces or a single tab.
	// Empty writes the whole document without line breaks.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the IANA name of the output charset. It is written in the
	// declaration and the text is encoded with it.
	// Default: "UTF-8"
	Encoding string
}

// DefaultOptions returns the default output options.
func DefaultOptions() Options {
	return Options{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
	}
}

// Validate reports options that Write would reject.
func (o Options) Validate() error {
	if _, err := indentSettings(o.Indent); err != nil {
		return err
	}
	if _, err := lookupEncoding(o.Encoding); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// WRITING FUNCTIONS
// =============================================================================

// Marshal serializes a document to a byte slice.
func Marshal(doc *dom.Document, options Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc, options); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes a document to w.
//
// PARAMETERS:
//   - w: The destination.
//   - doc: The document. It must have a document element.
//   - options: The output options.
//
// RETURNS:
//   - An error if the document is empty, the options are invalid or w fails.
func Write(w io.Writer, doc *dom.Document, options Options) error {
	if doc == nil || doc.DocumentElement() == nil {
		return fmt.Errorf("document has no root element")
	}

	out := etree.NewDocument()
	if options.IncludeXMLDeclaration {
		out.CreateProcInst("xml", declaration(options))
	}
	appendNode(&out.Element, doc.DocumentElement())

	return write(w, out, options)
}

// WriteNode serializes a single node, without a declaration. A fragment
// writes each of its children in turn.
func WriteNode(w io.Writer, node *dom.Node, options Options) error {
	if node == nil {
		return fmt.Errorf("nil node")
	}

	out := etree.NewDocument()
	appendNode(&out.Element, node)

	return write(w, out, options)
}

func write(w io.Writer, out *etree.Document, options Options) error {
	settings, err := indentSettings(options.Indent)
	if err != nil {
		return err
	}
	enc, err := lookupEncoding(options.Encoding)
	if err != nil {
		return err
	}

	if settings != nil {
		out.IndentWithSettings(settings)
	}

	if enc == nil {
		_, err = out.WriteTo(w)
		return err
	}

	tw := transform.NewWriter(w, encoding.HTMLEscapeUnsupported(enc.NewEncoder()))
	if _, err := out.WriteTo(tw); err != nil {
		return fmt.Errorf("failed to encode output as %s: %w", options.Encoding, err)
	}
	return tw.Close()
}

// appendNode copies n and its subtree under parent.
func appendNode(parent *etree.Element, n *dom.Node) {
	switch n.Kind() {
	case dom.ElementNode:
		el := parent.CreateElement(n.Name())
		for _, attr := range n.Attributes() {
			el.CreateAttr(attr.Name(), attr.Value())
		}
		for _, child := range n.ChildNodes() {
			appendNode(el, child)
		}
	case dom.TextNode:
		parent.CreateText(n.Value())
	case dom.FragmentNode:
		for _, child := range n.ChildNodes() {
			appendNode(parent, child)
		}
	}
}

func declaration(options Options) string {
	version := options.XMLVersion
	if version == "" {
		version = "1.0"
	}
	charset := options.Encoding
	if charset == "" {
		charset = "UTF-8"
	}
	return fmt.Sprintf(`version="%s" encoding="%s"`, version, charset)
}

// indentSettings returns nil for compact output.
func indentSettings(indent string) (*etree.IndentSettings, error) {
	if indent == "" {
		return nil, nil
	}

	settings := etree.NewIndentSettings()
	settings.PreserveLeafWhitespace = true
	switch {
	case strings.Trim(indent, " ") == "":
		settings.Spaces = len(indent)
	case indent == "\t":
		settings.UseTabs = true
	default:
		return nil, fmt.Errorf("unsupported indent %q: use spaces or a single tab", indent)
	}
	return settings, nil
}

// lookupEncoding returns nil for UTF-8, which needs no transcoding.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported output encoding %q", name)
	}
	if canonical, _ := ianaindex.IANA.Name(enc); canonical == "UTF-8" {
		return nil, nil
	}
	return enc, nil
}
