package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

func TestExtractorRegistry_Dispatch(t *testing.T) {
	txt := &mockExtractor{format: domain.FormatTXT}
	pdf := &mockExtractor{format: domain.FormatPDF, text: "pdf text"}
	registry := NewExtractorRegistry(txt, pdf)

	got, err := registry.Extract(context.Background(), domain.FormatPDF, []byte("%PDF"))

	require.NoError(t, err)
	assert.Equal(t, "pdf text", got)
	assert.Equal(t, 1, pdf.calls)
	assert.Equal(t, 0, txt.calls)
	assert.True(t, registry.Supports(domain.FormatPDF))
}

func TestExtractorRegistry_UnsupportedFormat(t *testing.T) {
	txt := &mockExtractor{format: domain.FormatTXT}
	registry := NewExtractorRegistry(txt)

	_, err := registry.Extract(context.Background(), domain.FormatDOCX, []byte("PK"))

	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "docx")
	assert.Equal(t, 0, txt.calls)
	assert.False(t, registry.Supports(domain.FormatDOCX))
}

func TestExtractorRegistry_ErrorsAreExtractionErrors(t *testing.T) {
	registry := NewExtractorRegistry(&mockExtractor{format: domain.FormatTXT, err: errors.New("boom")})

	_, err := registry.Extract(context.Background(), domain.FormatTXT, nil)

	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtractorRegistry_RegisterReplaces(t *testing.T) {
	registry := NewExtractorRegistry(&mockExtractor{format: domain.FormatTXT, text: "old"})
	registry.Register(&mockExtractor{format: domain.FormatTXT, text: "new"})

	got, err := registry.Extract(context.Background(), domain.FormatTXT, nil)

	require.NoError(t, err)
	assert.Equal(t, "new", got)
}
