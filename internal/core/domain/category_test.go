package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTaxonomy(t *testing.T) {
	tax := DefaultTaxonomy()

	require.NoError(t, tax.Validate())
	assert.Equal(t, []string{
		"Invoice", "Resume", "Contract", "Medical Document", "Legal Document",
	}, tax.Names())

	for _, c := range tax {
		assert.NotEmpty(t, c.Tags, "category %s should carry smart tags", c.Name)
	}
}

func TestTaxonomy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tax     Taxonomy
		wantErr bool
	}{
		{name: "single category", tax: Taxonomy{{Name: "Receipt"}}},
		{name: "empty", tax: Taxonomy{}, wantErr: true},
		{name: "nil", tax: nil, wantErr: true},
		{name: "blank name", tax: Taxonomy{{Name: ""}}, wantErr: true},
		{name: "padded name", tax: Taxonomy{{Name: " Invoice"}}, wantErr: true},
		{name: "duplicate", tax: Taxonomy{{Name: "A"}, {Name: "B"}, {Name: "A"}}, wantErr: true},
		{name: "case differs is not duplicate", tax: Taxonomy{{Name: "a"}, {Name: "A"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tax.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfiguration))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTaxonomy_Lookup(t *testing.T) {
	tax := DefaultTaxonomy()

	c, ok := tax.Lookup("Contract")
	require.True(t, ok)
	assert.Contains(t, c.Tags, "Parties")

	_, ok = tax.Lookup("contract")
	assert.False(t, ok, "lookup is case-sensitive")

	_, ok = tax.Lookup("Receipt")
	assert.False(t, ok)
}
