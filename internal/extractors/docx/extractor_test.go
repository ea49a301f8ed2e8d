package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
)

// createTestDOCX creates a minimal DOCX file in memory.
func createTestDOCX(documentXML string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, _ := w.Create("[Content_Types].xml")
	contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))

	if documentXML != "" {
		doc, _ := w.Create("word/document.xml")
		doc.Write([]byte(documentXML))
	}

	w.Close()
	return buf.Bytes()
}

func wrapBody(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body + `</w:body>
</w:document>`
}

func TestNew(t *testing.T) {
	extractor := New()
	require.NotNil(t, extractor)
	assert.Equal(t, domain.FormatDOCX, extractor.Format())
}

func TestExtract_Success(t *testing.T) {
	content := createTestDOCX(wrapBody(`<w:p><w:r><w:t>Hello World</w:t></w:r></w:p>`))

	text, err := New().Extract(context.Background(), content)

	require.NoError(t, err)
	assert.Equal(t, "Hello World", text)
}

func TestExtract_MultipleParagraphs(t *testing.T) {
	content := createTestDOCX(wrapBody(`
<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Third paragraph</w:t></w:r></w:p>`))

	text, err := New().Extract(context.Background(), content)

	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nSecond paragraph\nThird paragraph", text)
}

func TestExtract_MultipleRuns(t *testing.T) {
	content := createTestDOCX(wrapBody(`
<w:p>
<w:r><w:t xml:space="preserve">Hello </w:t></w:r>
<w:r><w:t>World</w:t></w:r>
</w:p>`))

	text, err := New().Extract(context.Background(), content)

	require.NoError(t, err)
	assert.Equal(t, "Hello World", text)
}

func TestExtract_EmptyDocument(t *testing.T) {
	content := createTestDOCX(wrapBody(""))

	text, err := New().Extract(context.Background(), content)

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{name: "not a zip", content: []byte("not a zip file")},
		{name: "missing document part", content: createTestDOCX("")},
		{name: "malformed xml", content: createTestDOCX("<w:document><w:body><w:p>")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := New().Extract(context.Background(), tt.content)
			assert.ErrorIs(t, err, domain.ErrExtraction)
			assert.Empty(t, text)
		})
	}
}

func TestExtract_PartSizeLimit(t *testing.T) {
	old := maxPartSize
	maxPartSize = 4 << 10
	defer func() { maxPartSize = old }()

	// Padding compresses to a few bytes but decompresses past the cap.
	bomb := createTestDOCX(wrapBody(`<w:p><w:r><w:t>` + strings.Repeat(" ", 1<<20) + `</w:t></w:r></w:p>`))
	require.Less(t, len(bomb), 8<<10)

	text, err := New().Extract(context.Background(), bomb)

	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Contains(t, err.Error(), "exceeds")
	assert.Empty(t, text)

	fits := createTestDOCX(wrapBody(`<w:p><w:r><w:t>Hello</w:t></w:r></w:p>`))
	text, err = New().Extract(context.Background(), fits)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.TextExtractor = (*Extractor)(nil)
}

func BenchmarkExtract(b *testing.B) {
	extractor := New()
	ctx := context.Background()
	content := createTestDOCX(wrapBody(`<w:p><w:r><w:t>Hello World</w:t></w:r></w:p>`))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = extractor.Extract(ctx, content)
	}
}
