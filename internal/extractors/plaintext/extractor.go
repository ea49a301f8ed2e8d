// Package plaintext extracts text from .txt documents.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Format returns the document format this extractor handles.
func (e *Extractor) Format() domain.Format {
	return domain.FormatTXT
}

// Extract returns content as text. A leading byte order mark is dropped and
// Windows line endings are normalised. Content that is not valid UTF-8 fails
// with domain.ErrExtraction.
func (e *Extractor) Extract(_ context.Context, content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: text document is not valid UTF-8", domain.ErrExtraction)
	}

	return string(bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))), nil
}
