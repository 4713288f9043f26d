// =============================================================================
// CSV to XML Converter - Element Name Validator
// =============================================================================
//
// This package checks candidate element and attribute names against the XML
// naming rules before any node is created with them. It is used in two places:
//   - when a naming rule is configured (root, record, field names)
//   - when the tree builder creates a node from a dynamic name, such as a
//     CSV header column
//
// RULES:
//   - The name must not be empty. Whitespace is NOT trimmed.
//   - The first character must be a letter or '_'.
//   - The remaining characters must be letters, digits, '-', '.', '_', ':'
//     or the combining/extender characters allowed by XML 1.0.
//   - At most one ':' separating a non-empty prefix and local part, so the
//     name stays well-formed under XML namespaces.
//   - The name must not start with "xml" (case-insensitive).
//
// =============================================================================

package xmlname

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidName is matched by every *InvalidNameError via errors.Is.
var ErrInvalidName = errors.New("invalid XML name")

// InvalidNameError describes a name rejected by Validate.
type InvalidNameError struct {
	// Name is the rejected candidate, verbatim.
	Name string

	// Reason is a short human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid XML name %q: %s", e.Name, e.Reason)
}

// Is reports whether target is ErrInvalidName.
func (e *InvalidNameError) Is(target error) bool {
	return target == ErrInvalidName
}

// reservedPrefix is reserved by the XML specification.
const reservedPrefix = "xml"

// Validate returns name unchanged if it is a legal XML element or attribute
// name, or an *InvalidNameError otherwise.
func Validate(name string) (string, error) {
	if name == "" {
		return "", &InvalidNameError{Name: name, Reason: "name is empty"}
	}

	if !utf8.ValidString(name) {
		return "", &InvalidNameError{Name: name, Reason: "name is not valid UTF-8"}
	}

	for i, r := range name {
		if i == 0 {
			if !isNameStartChar(r) {
				return "", &InvalidNameError{
					Name:   name,
					Reason: fmt.Sprintf("name cannot start with %q", r),
				}
			}
			continue
		}
		if !isNameChar(r) {
			return "", &InvalidNameError{
				Name:   name,
				Reason: fmt.Sprintf("name cannot contain %q", r),
			}
		}
	}

	if prefix, local, found := strings.Cut(name, ":"); found {
		if prefix == "" || local == "" || strings.Contains(local, ":") {
			return "", &InvalidNameError{
				Name:   name,
				Reason: `a ':' must separate a non-empty prefix and local name`,
			}
		}
	}

	if len(name) >= len(reservedPrefix) && strings.EqualFold(name[:len(reservedPrefix)], reservedPrefix) {
		return "", &InvalidNameError{Name: name, Reason: `names starting with "xml" are reserved`}
	}

	return name, nil
}

// IsValid reports whether Validate would accept name.
func IsValid(name string) bool {
	_, err := Validate(name)
	return err == nil
}

// isNameStartChar implements the XML 1.0 NameStartChar production.
func isNameStartChar(r rune) bool {
	if r == '_' || r == ':' {
		return true
	}
	return unicode.IsLetter(r) || unicode.Is(unicode.Nl, r)
}

// isNameChar implements the XML 1.0 NameChar production.
func isNameChar(r rune) bool {
	if isNameStartChar(r) {
		return true
	}
	switch r {
	case '-', '.', '·':
		return true
	}
	return unicode.IsDigit(r) ||
		unicode.Is(unicode.Mn, r) ||
		unicode.Is(unicode.Mc, r) ||
		unicode.Is(unicode.Lm, r) ||
		unicode.Is(unicode.Pc, r)
}
