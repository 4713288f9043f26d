package xmlconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/csvxml/internal/xmlname"
)

func TestDefaultNamingValues(t *testing.T) {
	n := DefaultNaming()
	assert.Equal(t, "csv", n.Root())

	rec, recAttr := n.Record()
	assert.Equal(t, "row", rec)
	assert.Empty(t, recAttr)

	field, fieldAttr := n.Field()
	assert.Equal(t, "field", field)
	assert.Empty(t, fieldAttr)
	assert.False(t, n.UsesColumnElements())
}

func TestNamingSettersValidateEagerly(t *testing.T) {
	tests := []struct {
		name string
		set  func(NamingConfig) (NamingConfig, error)
	}{
		{"empty root", func(n NamingConfig) (NamingConfig, error) { return n.RootElement("") }},
		{"whitespace root", func(n NamingConfig) (NamingConfig, error) { return n.RootElement("   ") }},
		{"empty record", func(n NamingConfig) (NamingConfig, error) { return n.RecordElement("", "") }},
		{"whitespace record", func(n NamingConfig) (NamingConfig, error) { return n.RecordElement(" \t", "") }},
		{"bad record attribute", func(n NamingConfig) (NamingConfig, error) { return n.RecordElement("row", "1st") }},
		{"whitespace record attribute", func(n NamingConfig) (NamingConfig, error) { return n.RecordElement("row", "  ") }},
		{"empty field", func(n NamingConfig) (NamingConfig, error) { return n.FieldElement("", "name") }},
		{"whitespace field", func(n NamingConfig) (NamingConfig, error) { return n.FieldElement("  ", "") }},
		{"bad field attribute", func(n NamingConfig) (NamingConfig, error) { return n.FieldElement("field", "a b") }},
		{"reserved root", func(n NamingConfig) (NamingConfig, error) { return n.RootElement("XMLroot") }},
		{"markup in field", func(n NamingConfig) (NamingConfig, error) { return n.FieldElement("<field>", "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := DefaultNaming()
			after, err := tt.set(before)
			require.Error(t, err)
			assert.ErrorIs(t, err, xmlname.ErrInvalidName)
			assert.Equal(t, before, after, "a rejected name leaves the configuration unchanged")
		})
	}
}

func TestChainedSettersWithInvalidRoot(t *testing.T) {
	n, err := DefaultNaming().RecordElement("record", "")
	require.NoError(t, err)
	_, err = n.RootElement("   ")
	assert.ErrorIs(t, err, xmlname.ErrInvalidName)
}

func TestNamingSettersReturnCopies(t *testing.T) {
	base := DefaultNaming()

	changed, err := base.RecordElement("record", "offset")
	require.NoError(t, err)

	rec, attr := changed.Record()
	assert.Equal(t, "record", rec)
	assert.Equal(t, "offset", attr)

	rec, attr = base.Record()
	assert.Equal(t, "row", rec)
	assert.Empty(t, attr)

	cleared, err := changed.RecordElement("record", "")
	require.NoError(t, err)
	_, attr = cleared.Record()
	assert.Empty(t, attr, "an empty attribute name disables the attribute")
}
