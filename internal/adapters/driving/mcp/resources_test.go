package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "doctag://documents/doc-456",
			expected: "doc-456",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/doc-456",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "doctag://documents/doc-456/extra",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractDocumentID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns documents successfully", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{records: testRecords()}})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("doctag://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "doc-1")
		assert.Contains(t, result.Contents[0].Text, "/docs/cv.docx")
		assert.Contains(t, result.Contents[0].Text, `"category": "Resume"`)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("handles empty document list", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("doctag://documents"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{err: errors.New("storage error")}})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("doctag://documents"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleDocumentTextResource(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &Ports{Documents: &mockDocumentService{records: testRecords()}})

	t.Run("returns text successfully", func(t *testing.T) {
		result, err := server.handleDocumentTextResource(ctx, makeReadResourceRequest("doctag://documents/doc-1"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "Invoice #42", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		_, err := server.handleDocumentTextResource(ctx, makeReadResourceRequest("doctag://invalid/uri"))
		require.Error(t, err)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := server.handleDocumentTextResource(ctx, makeReadResourceRequest("doctag://documents/nope"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting document")
	})
}
