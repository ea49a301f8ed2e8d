package domain

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

// Format is the declared or inferred file format of an ingested document.
type Format string

// Supported document formats.
const (
	FormatPDF  Format = "pdf"
	FormatTXT  Format = "txt"
	FormatDOCX Format = "docx"
)

// Formats lists every supported format in a stable order.
func Formats() []Format {
	return []Format{FormatPDF, FormatTXT, FormatDOCX}
}

// IsValid returns true if the format is supported.
func (f Format) IsValid() bool {
	switch f {
	case FormatPDF, FormatTXT, FormatDOCX:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}

// ParseFormat converts a format tag (with or without a leading dot) into a Format.
// Returns ErrUnsupportedFormat naming the offending value otherwise.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return f, nil
}

// FormatFromURI infers the format from the extension of a path or URL.
// Query strings and fragments are ignored.
func FormatFromURI(uri string) (Format, error) {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(p, "\\", "/")))
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no file extension", ErrUnsupportedFormat, uri)
	}
	f := Format(strings.TrimPrefix(ext, "."))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// FallbackAnswer is returned verbatim when the retrieved context cannot answer a question.
// The answer prompt instructs the model to emit exactly this sentence.
const FallbackAnswer = "The provided context does not contain sufficient information to answer the question."

// RawDocument represents opaque bytes fetched for ingestion, before extraction.
type RawDocument struct {
	// SourceURI is the original location (file path, URL, etc).
	SourceURI string

	// Format is the declared format. Empty means infer from SourceURI.
	Format Format

	// MIMEType is the content type reported by the fetcher, if any.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// Document is the extracted text of one ingested file.
// It is immutable after extraction and never mutated by the core.
type Document struct {
	// ID is the opaque identifier for the document.
	ID string

	// SourceURI is the original location of the file.
	SourceURI string

	// Format is the format the text was extracted from.
	Format Format

	// Text is the UTF-8 text after extraction.
	Text string
}

// Chunk is a contiguous span of a document's text.
// Offsets are measured in Unicode code points and satisfy
// 0 <= StartOffset < EndOffset <= len([]rune(text)).
type Chunk struct {
	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the ordinal position of the chunk within the document.
	Index int

	// Text is the chunk content.
	Text string

	// StartOffset is the first code point covered by the chunk.
	StartOffset int

	// EndOffset is one past the last code point covered by the chunk.
	EndOffset int
}

// ID returns a stable identifier for the chunk, unique within a corpus.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s#%d", c.DocumentID, c.Index)
}

// IndexEntry is a chunk stored in a vector index together with its embedding.
type IndexEntry struct {
	Chunk  Chunk
	Vector []float64
}

// ScoredEntry is a vector index hit.
type ScoredEntry struct {
	Entry IndexEntry

	// Score is the cosine similarity to the query vector.
	Score float64
}

// RetrievedChunk is a chunk used as context for an answer, with its relevance score.
type RetrievedChunk struct {
	Chunk Chunk
	Score float64
}

// QueryResult is the outcome of a retrieval-augmented query.
type QueryResult struct {
	// AnswerText is the model response, returned verbatim.
	AnswerText string

	// RetrievedChunks is the context the answer was grounded on, relevance descending.
	RetrievedChunks []RetrievedChunk
}

// DocumentDetails holds key entities extracted from a document.
type DocumentDetails struct {
	Dates   []string `json:"dates"`
	Amounts []string `json:"amounts"`
	Names   []string `json:"names"`
}

// IsEmpty returns true if no entity was extracted.
func (d DocumentDetails) IsEmpty() bool {
	return len(d.Dates) == 0 && len(d.Amounts) == 0 && len(d.Names) == 0
}

// Sentiment values a semantic analysis may report.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
)

// DocumentSemantics is a semantic analysis of a document.
type DocumentSemantics struct {
	Topics        []string `json:"topics"`
	Entities      []string `json:"entities"`
	Sentiment     string   `json:"sentiment"`
	Relationships []string `json:"relationships"`
}

// DocumentRecord is the persisted metadata of an ingested document.
type DocumentRecord struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceURI is where the document was ingested from.
	SourceURI string

	// Format is the format the text was extracted from.
	Format Format

	// Category is the taxonomy label assigned at ingestion. Empty if not classified.
	Category string

	// Details holds extracted entities. Nil if extraction was not requested.
	Details *DocumentDetails

	// Semantics holds the semantic analysis. Nil if analysis was not requested.
	Semantics *DocumentSemantics

	// Text is the extracted document text.
	Text string

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Document returns the extracted document this record describes.
func (r DocumentRecord) Document() Document {
	return Document{
		ID:        r.ID,
		SourceURI: r.SourceURI,
		Format:    r.Format,
		Text:      r.Text,
	}
}
