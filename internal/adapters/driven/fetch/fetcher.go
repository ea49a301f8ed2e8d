// Package fetch retrieves raw document bytes from local paths and http(s) URLs.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/custodia-labs/doctag/internal/adapters/driven/ai/aierr"
	"github.com/custodia-labs/doctag/internal/connectors/filesystem"
	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
	"github.com/custodia-labs/doctag/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Default limits.
const (
	DefaultTimeout  = 60 * time.Second
	DefaultMaxBytes = 64 << 20
)

// Fetcher reads documents from disk or over HTTP.
type Fetcher struct {
	client     *http.Client
	maxBytes   int64
	remoteOnly bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithMaxBytes limits the size of a fetched document.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// WithRemoteOnly rejects local paths and file:// URIs, leaving only http(s).
// Fetchers reachable from the network use it.
func WithRemoteOnly() Option {
	return func(f *Fetcher) {
		f.remoteOnly = true
	}
}

// New creates a fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: DefaultTimeout},
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch reads the document at uri. Local paths may use the file:// scheme.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (*domain.RawDocument, error) {
	if filesystem.IsLocal(uri) {
		if f.remoteOnly {
			return nil, fmt.Errorf("%w: only http(s) URLs are accepted, got %q", domain.ErrValidation, uri)
		}
		return f.fetchFile(uri)
	}
	return f.fetchHTTP(ctx, uri)
}

func (f *Fetcher) fetchFile(uri string) (*domain.RawDocument, error) {
	path := filesystem.ResolvePath(uri)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrValidation, path)
	}
	if info.Size() > f.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrValidation, path, info.Size(), f.maxBytes)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	logger.Debug("Read %d bytes from %s", len(content), path)
	return &domain.RawDocument{SourceURI: path, Content: content}, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, uri string) (*domain.RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL %q: %w", domain.ErrValidation, uri, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if aierr.IsTimeout(err) {
			return nil, fmt.Errorf("fetch %s: %w: %w", uri, domain.ErrTimeout, err)
		}
		return nil, fmt.Errorf("fetch %s: %w", uri, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s returned 404", domain.ErrNotFound, uri)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", uri, resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	if int64(len(content)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrValidation, uri, f.maxBytes)
	}

	logger.Debug("Downloaded %d bytes from %s (%s)", len(content), uri, resp.Header.Get("Content-Type"))
	return &domain.RawDocument{
		SourceURI: uri,
		MIMEType:  resp.Header.Get("Content-Type"),
		Content:   content,
	}, nil
}
