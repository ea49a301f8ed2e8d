package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

// taxonomyFile is the on-disk layout shared by the TOML and YAML formats.
type taxonomyFile struct {
	Categories []domain.Category `toml:"categories" yaml:"categories"`
}

// LoadTaxonomy reads a taxonomy definition from path.
// The format is chosen by extension: .toml, .yaml or .yml.
// The result is validated; an invalid taxonomy returns domain.ErrConfiguration.
func LoadTaxonomy(path string) (domain.Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read taxonomy file: %w", domain.ErrConfiguration, err)
	}

	var parsed taxonomyFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &parsed)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &parsed)
	default:
		return nil, fmt.Errorf("%w: taxonomy file must be .toml, .yaml or .yml, got %q", domain.ErrConfiguration, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse taxonomy file %s: %w", domain.ErrConfiguration, path, err)
	}

	tax := domain.Taxonomy(parsed.Categories)
	if err := tax.Validate(); err != nil {
		return nil, err
	}
	return tax, nil
}
