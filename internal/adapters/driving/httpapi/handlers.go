package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
)

type classifyRequest struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

type classifyResponse struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

type deepSearchRequest struct {
	Question   string `json:"question"`
	DocumentID string `json:"document_id,omitempty"`
	TopK       int    `json:"top_k,omitempty"`
}

type searchRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

type searchResponse struct {
	Results []driving.SearchResult `json:"results"`
	Count   int                    `json:"count"`
}

type createDocumentRequest struct {
	URL       string `json:"url"`
	Details   bool   `json:"details,omitempty"`
	Semantics bool   `json:"semantics,omitempty"`
}

type documentResponse struct {
	ID        string                    `json:"id"`
	SourceURI string                    `json:"source_uri"`
	Format    string                    `json:"format"`
	Category  string                    `json:"category"`
	Details   *domain.DocumentDetails   `json:"details,omitempty"`
	Semantics *domain.DocumentSemantics `json:"semantics,omitempty"`
	Text      string                    `json:"text,omitempty"`
	CreatedAt time.Time                 `json:"created_at"`
}

type listDocumentsResponse struct {
	Documents []documentResponse `json:"documents"`
	Count     int                `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	hasURL := strings.TrimSpace(req.URL) != ""
	hasText := req.Text != ""
	if hasURL == hasText {
		writeError(w, fmt.Errorf("%w: exactly one of url or text is required", domain.ErrValidation))
		return
	}

	var (
		category domain.Category
		err      error
	)
	if hasText {
		if s.ports.Classifier == nil {
			writeError(w, unavailable(s.ports.ClassifierErr, domain.ErrLLMUnavailable))
			return
		}
		category, err = s.ports.Classifier.Classify(r.Context(), req.Text, nil)
	} else {
		if s.ports.Ingest == nil {
			writeError(w, unavailable(s.ports.ClassifierErr, domain.ErrLLMUnavailable))
			return
		}
		category, err = s.ports.Ingest.ClassifyURI(r.Context(), req.URL)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, classifyResponse{Category: category.Name, Tags: category.Tags})
}

func (s *Server) handleDeepSearch(w http.ResponseWriter, r *http.Request) {
	if s.ports.Corpus == nil {
		writeError(w, unavailable(s.ports.CorpusErr, domain.ErrEmbeddingUnavailable))
		return
	}

	var req deepSearchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.ports.Corpus.Ask(r.Context(), req.Question, driving.AskOptions{
		DocumentID: req.DocumentID,
		TopK:       req.TopK,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if result.Sources == nil {
		result.Sources = []driving.Source{}
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSearch serves GET /search?q=&document_id=&limit= and POST /search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.ports.Corpus == nil {
		writeError(w, unavailable(s.ports.CorpusErr, domain.ErrEmbeddingUnavailable))
		return
	}

	var req searchRequest
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req.Query = q.Get("q")
		req.DocumentID = q.Get("document_id")
		if v := q.Get("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, fmt.Errorf("%w: limit must be an integer, got %q", domain.ErrValidation, v))
				return
			}
			req.Limit = limit
		}
	} else if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	results, err := s.ports.Corpus.Search(r.Context(), req.Query, driving.SearchOptions{
		DocumentID: req.DocumentID,
		Limit:      req.Limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []driving.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results, Count: len(results)})
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	if s.ports.Ingest == nil {
		writeError(w, unavailable(s.ports.ClassifierErr, domain.ErrLLMUnavailable))
		return
	}

	var req createDocumentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	record, err := s.ports.Ingest.IngestURI(r.Context(), req.URL, driving.IngestOptions{
		Details:   req.Details,
		Semantics: req.Semantics,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentResponse(record, false))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	records, err := s.ports.Documents.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := listDocumentsResponse{
		Documents: make([]documentResponse, len(records)),
		Count:     len(records),
	}
	for i := range records {
		resp.Documents[i] = toDocumentResponse(&records[i], false)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	record, err := s.ports.Documents.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(record, true))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Documents.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into dst. Bodies must be sent as application/json;
// malformed bodies are validation errors.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errUnsupportedMediaType
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrValidation, maxBodyBytes)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err)
	}
	return nil
}

func unavailable(reason, kind error) error {
	if reason != nil {
		return reason
	}
	return fmt.Errorf("%w: service not configured", kind)
}

func toDocumentResponse(record *domain.DocumentRecord, withText bool) documentResponse {
	resp := documentResponse{
		ID:        record.ID,
		SourceURI: record.SourceURI,
		Format:    record.Format.String(),
		Category:  record.Category,
		Details:   record.Details,
		Semantics: record.Semantics,
		CreatedAt: record.CreatedAt,
	}
	if withText {
		resp.Text = record.Text
	}
	return resp
}
