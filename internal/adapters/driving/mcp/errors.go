// Package mcp provides an MCP (Model Context Protocol) server adapter for doctag.
// It lets AI assistants classify documents and ask questions about stored ones.
package mcp

import "errors"

// ErrMissingDocumentService is returned when the document service is not provided.
var ErrMissingDocumentService = errors.New("mcp: document service is required")
