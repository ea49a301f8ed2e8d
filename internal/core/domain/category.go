package domain

import (
	"fmt"
	"strings"
)

// Category is one label of a classification taxonomy.
type Category struct {
	// Name is the exact label the model must respond with.
	Name string `json:"name" toml:"name" yaml:"name"`

	// Tags are descriptive smart tags that help the model recognise the category.
	Tags []string `json:"tags" toml:"tags" yaml:"tags"`
}

// Default category names.
const (
	CategoryInvoice         = "Invoice"
	CategoryResume          = "Resume"
	CategoryContract        = "Contract"
	CategoryMedicalDocument = "Medical Document"
	CategoryLegalDocument   = "Legal Document"
)

// Taxonomy is an ordered, closed set of categories.
type Taxonomy []Category

// DefaultTaxonomy returns the built-in five-category taxonomy.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		{Name: CategoryInvoice, Tags: []string{"Payment Due", "Amount", "Vendor", "Date"}},
		{Name: CategoryResume, Tags: []string{"Skills", "Education", "Experience", "Certifications"}},
		{Name: CategoryContract, Tags: []string{"Parties", "Effective Date", "Term", "Confidentiality"}},
		{Name: CategoryMedicalDocument, Tags: []string{"Patient Name", "Diagnosis", "Treatment", "Date of Visit"}},
		{Name: CategoryLegalDocument, Tags: []string{"Case Number", "Jurisdiction", "Signatories", "Date of Execution"}},
	}
}

// Validate checks the taxonomy is usable for classification.
// Names must be non-empty, free of surrounding whitespace and unique.
func (t Taxonomy) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: taxonomy has no categories", ErrConfiguration)
	}
	seen := make(map[string]bool, len(t))
	for i, c := range t {
		if c.Name == "" || strings.TrimSpace(c.Name) != c.Name {
			return fmt.Errorf("%w: category %d has an empty or padded name %q", ErrConfiguration, i, c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate category %q", ErrConfiguration, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// Lookup returns the category whose name matches exactly.
func (t Taxonomy) Lookup(name string) (Category, bool) {
	for _, c := range t {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Names returns the category names in taxonomy order.
func (t Taxonomy) Names() []string {
	names := make([]string, len(t))
	for i, c := range t {
		names[i] = c.Name
	}
	return names
}
