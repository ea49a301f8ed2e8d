package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
)

// ClassifyInput is the input schema for the classify_document tool.
type ClassifyInput struct {
	URL  string `json:"url,omitempty" jsonschema:"http(s) URL of a PDF, DOCX or text document"`
	Text string `json:"text,omitempty" jsonschema:"raw document text, used instead of url"`
}

// ClassifyOutput is the output schema for the classify_document tool.
type ClassifyOutput struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// AskInput is the input schema for the ask_documents tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from stored documents"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"restrict the answer to this document ID"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"number of passages to retrieve (default from settings)"`
}

// SearchInput is the input schema for the search_documents tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"text to find similar stored documents for"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"search this document ID only"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of documents (default 5)"`
}

// SearchOutput is the output schema for the search_documents tool.
type SearchOutput struct {
	Results []driving.SearchResult `json:"results"`
	Count   int                    `json:"count"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	Category string `json:"category,omitempty" jsonschema:"only list documents in this category"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput represents a single stored document.
type DocumentOutput struct {
	ID        string `json:"id"`
	SourceURI string `json:"source_uri"`
	Format    string `json:"format"`
	Category  string `json:"category"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_document",
		Description: "Classify a document into exactly one category of the configured taxonomy",
	}, s.handleClassify)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_documents",
		Description: "Answer a question from the passages of stored documents most similar to it",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Find stored documents similar to a query, with category and excerpt, without generating an answer",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List stored documents with their categories",
	}, s.handleListDocuments)
}

// handleClassify handles the classify_document tool invocation.
func (s *Server) handleClassify(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyInput,
) (*mcp.CallToolResult, ClassifyOutput, error) {
	hasURL := strings.TrimSpace(input.URL) != ""
	hasText := input.Text != ""
	if hasURL == hasText {
		return nil, ClassifyOutput{}, fmt.Errorf("%w: exactly one of url or text is required", domain.ErrValidation)
	}

	var (
		category domain.Category
		err      error
	)
	switch {
	case hasText && s.ports.Classifier != nil:
		category, err = s.ports.Classifier.Classify(ctx, input.Text, nil)
	case hasURL && s.ports.Ingest != nil:
		category, err = s.ports.Ingest.ClassifyURI(ctx, input.URL)
	default:
		return nil, ClassifyOutput{}, unavailable("classifier", s.ports.ClassifierErr)
	}
	if err != nil {
		return nil, ClassifyOutput{}, err
	}

	return nil, ClassifyOutput{Category: category.Name, Tags: category.Tags}, nil
}

// handleAsk handles the ask_documents tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, driving.AskResult, error) {
	if s.ports.Corpus == nil {
		return nil, driving.AskResult{}, unavailable("question answering", s.ports.CorpusErr)
	}

	result, err := s.ports.Corpus.Ask(ctx, input.Question, driving.AskOptions{
		DocumentID: input.DocumentID,
		TopK:       input.TopK,
	})
	if err != nil {
		return nil, driving.AskResult{}, err
	}
	if result.Sources == nil {
		result.Sources = []driving.Source{}
	}
	return nil, *result, nil
}

// handleSearch handles the search_documents tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if s.ports.Corpus == nil {
		return nil, SearchOutput{}, unavailable("search", s.ports.CorpusErr)
	}

	results, err := s.ports.Corpus.Search(ctx, input.Query, driving.SearchOptions{
		DocumentID: input.DocumentID,
		Limit:      input.Limit,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}
	if results == nil {
		results = []driving.SearchResult{}
	}
	return nil, SearchOutput{Results: results, Count: len(results)}, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	records, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{Documents: []DocumentOutput{}}
	for i := range records {
		if input.Category != "" && records[i].Category != input.Category {
			continue
		}
		output.Documents = append(output.Documents, DocumentOutput{
			ID:        records[i].ID,
			SourceURI: records[i].SourceURI,
			Format:    records[i].Format.String(),
			Category:  records[i].Category,
		})
	}
	output.Count = len(output.Documents)

	return nil, output, nil
}

func unavailable(name string, reason error) error {
	if reason != nil {
		return fmt.Errorf("%s not available: %w", name, reason)
	}
	return errors.New(name + " not configured")
}
