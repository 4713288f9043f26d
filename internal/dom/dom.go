// =============================================================================
// CSV to XML Converter - Document Tree
// =============================================================================
//
// This package is the generic tree the converter builds. It has no notion of
// records or CSV; it only knows documents and nodes:
//
//   Document                     <- owns every node it creates
//   └── Element (document element / root)
//       ├── Attribute ...        <- name/value, unique per element
//       ├── Element ...          <- ordered children
//       └── Text                 <- character data
//
//   Fragment                     <- owned by a Document, never attached
//                                   itself; appending it moves its children
//
// Every node name goes through xmlname.Validate before the node exists, so an
// illegal name can never reach the tree.
//
// A Document is not safe for concurrent mutation.
//
// =============================================================================

package dom

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ginjaninja78/csvxml/internal/xmlname"
)

// =============================================================================
// NODE KINDS AND ERRORS
// =============================================================================

// Kind identifies the variant of a Node.
type Kind int

const (
	ElementNode Kind = iota + 1
	AttributeNode
	TextNode
	FragmentNode
)

// String returns a readable kind name.
func (k Kind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case AttributeNode:
		return "attribute"
	case TextNode:
		return "text"
	case FragmentNode:
		return "fragment"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	// ErrWrongDocument is returned when a node from another document is
	// appended.
	ErrWrongDocument = errors.New("node belongs to a different document")

	// ErrHierarchy is returned when an append would produce an invalid tree.
	ErrHierarchy = errors.New("hierarchy request error")
)

// =============================================================================
// DOCUMENT
// =============================================================================

// Document owns a node tree. Its only child, once set, is the document
// element.
type Document struct {
	root *Node
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// CreateElement returns a detached element named name.
func (d *Document) CreateElement(name string) (*Node, error) {
	if _, err := xmlname.Validate(name); err != nil {
		return nil, err
	}
	return &Node{kind: ElementNode, name: name, owner: d}, nil
}

// CreateAttribute returns a detached attribute node.
func (d *Document) CreateAttribute(name, value string) (*Node, error) {
	if _, err := xmlname.Validate(name); err != nil {
		return nil, err
	}
	return &Node{kind: AttributeNode, name: name, value: value, owner: d}, nil
}

// CreateTextNode returns a detached text node.
func (d *Document) CreateTextNode(text string) *Node {
	return &Node{kind: TextNode, value: text, owner: d}
}

// CreateDocumentFragment returns an empty fragment owned by d.
func (d *Document) CreateDocumentFragment() *Node {
	return &Node{kind: FragmentNode, owner: d}
}

// AppendChild sets n as the document element. A fragment holding exactly one
// element may be appended too.
func (d *Document) AppendChild(n *Node) error {
	if n.owner != d {
		return ErrWrongDocument
	}
	if d.root != nil {
		return fmt.Errorf("%w: document already has a document element", ErrHierarchy)
	}

	switch n.kind {
	case ElementNode:
		if n.parent != nil {
			n.parent.removeChild(n)
		}
		d.root = n
		return nil
	case FragmentNode:
		if len(n.children) != 1 || n.children[0].kind != ElementNode {
			return fmt.Errorf("%w: document accepts a single element", ErrHierarchy)
		}
		child := n.children[0]
		n.children = nil
		child.parent = nil
		d.root = child
		return nil
	default:
		return fmt.Errorf("%w: cannot append %s to a document", ErrHierarchy, n.kind)
	}
}

// DocumentElement returns the root element, or nil.
func (d *Document) DocumentElement() *Node {
	return d.root
}

// ChildNodes returns the document's children: the document element or
// nothing.
func (d *Document) ChildNodes() []*Node {
	if d.root == nil {
		return nil
	}
	return []*Node{d.root}
}

// GetElementsByTagName returns every element named name in document order.
// "*" matches all elements.
func (d *Document) GetElementsByTagName(name string) []*Node {
	if d.root == nil {
		return nil
	}
	var found []*Node
	d.root.collect(name, &found, true)
	return found
}

// =============================================================================
// NODE
// =============================================================================

// Node is an element, attribute, text or fragment.
type Node struct {
	kind     Kind
	name     string
	value    string
	owner    *Document
	parent   *Node
	children []*Node
	attrs    []*Node
}

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Name returns the tag or attribute name ("" for text and fragments).
func (n *Node) Name() string { return n.name }

// Value returns the attribute value or text data ("" otherwise).
func (n *Node) Value() string { return n.value }

// OwnerDocument returns the document that created n.
func (n *Node) OwnerDocument() *Document { return n.owner }

// Parent returns the parent element or fragment, or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// ChildNodes returns a copy of n's children.
func (n *Node) ChildNodes() []*Node { return slices.Clone(n.children) }

// Attributes returns a copy of n's attributes in insertion order.
func (n *Node) Attributes() []*Node { return slices.Clone(n.attrs) }

// AppendChild appends child to n. Appending a fragment moves the fragment's
// children and leaves it empty. A child that already has a parent is moved.
func (n *Node) AppendChild(child *Node) error {
	if child.owner != n.owner {
		return ErrWrongDocument
	}
	if n.kind != ElementNode && n.kind != FragmentNode {
		return fmt.Errorf("%w: %s nodes cannot have children", ErrHierarchy, n.kind)
	}

	switch child.kind {
	case AttributeNode:
		return fmt.Errorf("%w: use SetAttributeNode for attributes", ErrHierarchy)
	case FragmentNode:
		if child == n {
			return fmt.Errorf("%w: cannot append a fragment to itself", ErrHierarchy)
		}
		for _, c := range child.children {
			if c == n || c.contains(n) {
				return fmt.Errorf("%w: cannot append a fragment to its own descendant", ErrHierarchy)
			}
		}
		moved := child.children
		child.children = nil
		for _, c := range moved {
			c.parent = n
		}
		n.children = append(n.children, moved...)
		return nil
	}

	if child == n || child.contains(n) {
		return fmt.Errorf("%w: cannot append a node to its own descendant", ErrHierarchy)
	}
	if child.owner.root == child {
		child.owner.root = nil
	}
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// SetAttribute sets or replaces an attribute on an element.
func (n *Node) SetAttribute(name, value string) error {
	attr, err := n.owner.CreateAttribute(name, value)
	if err != nil {
		return err
	}
	return n.SetAttributeNode(attr)
}

// SetAttributeNode attaches attr to the element, replacing any attribute of
// the same name.
func (n *Node) SetAttributeNode(attr *Node) error {
	if attr.owner != n.owner {
		return ErrWrongDocument
	}
	if n.kind != ElementNode || attr.kind != AttributeNode {
		return fmt.Errorf("%w: attributes attach only to elements", ErrHierarchy)
	}
	attr.parent = n
	for i, existing := range n.attrs {
		if existing.name == attr.name {
			existing.parent = nil
			n.attrs[i] = attr
			return nil
		}
	}
	n.attrs = append(n.attrs, attr)
	return nil
}

// GetAttribute returns the value of the named attribute.
func (n *Node) GetAttribute(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

// HasAttribute reports whether the element carries the named attribute.
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.GetAttribute(name)
	return ok
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	switch n.kind {
	case TextNode, AttributeNode:
		return n.value
	}
	var b strings.Builder
	for _, c := range n.children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// SetTextContent replaces every child of an element with a single text node.
// An empty string leaves the element without children.
func (n *Node) SetTextContent(text string) {
	switch n.kind {
	case TextNode, AttributeNode:
		n.value = text
		return
	}
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
	if text != "" {
		t := n.owner.CreateTextNode(text)
		t.parent = n
		n.children = []*Node{t}
	}
}

// GetElementsByTagName returns the descendant elements named name in
// document order. "*" matches every element.
func (n *Node) GetElementsByTagName(name string) []*Node {
	var found []*Node
	n.collect(name, &found, false)
	return found
}

func (n *Node) collect(name string, found *[]*Node, includeSelf bool) {
	if includeSelf && n.kind == ElementNode && (name == "*" || n.name == name) {
		*found = append(*found, n)
	}
	for _, c := range n.children {
		c.collect(name, found, true)
	}
}

func (n *Node) removeChild(child *Node) {
	n.children = slices.DeleteFunc(n.children, func(c *Node) bool { return c == child })
	child.parent = nil
}

// contains reports whether other is a descendant of n.
func (n *Node) contains(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}
