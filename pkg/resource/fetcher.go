// Package resource loads documents and stylesheets over HTTP, from local
// files, and from data: URLs.
package resource

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"ember/pkg/html"
	stdnet "ember/std/net"
)

var (
	// ErrStatus is returned for HTTP responses outside the 2xx range.
	ErrStatus = errors.New("unexpected HTTP status")
	// ErrUnsupported is returned for URL schemes the fetcher cannot load.
	ErrUnsupported = errors.New("unsupported URL scheme")
)

// Response is a loaded resource.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the media type of the response without parameters.
func (r *Response) ContentType() string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// Fetcher retrieves resources by URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (*Response, error)
}

// Options configures a DefaultFetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// DefaultFetcher fetches http(s), file and data URLs, resolving relative
// URIs against a base URL.
type DefaultFetcher struct {
	client  *stdnet.Client
	baseURL string
	logger  *zap.Logger
}

// NewFetcher creates a DefaultFetcher with the given base URL.
func NewFetcher(baseURL string, opts Options) *DefaultFetcher {
	return &DefaultFetcher{
		client:  stdnet.NewClient(opts.Timeout, opts.UserAgent),
		baseURL: baseURL,
		logger:  zap.NewNop(),
	}
}

func (f *DefaultFetcher) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f.logger = logger.Named("resource")
}

// WithBase returns a fetcher sharing f's client that resolves against base.
func (f *DefaultFetcher) WithBase(base string) *DefaultFetcher {
	return &DefaultFetcher{client: f.client, baseURL: base, logger: f.logger}
}

// Resolve resolves uri against the base URL. A bare local path becomes a
// file URL.
func (f *DefaultFetcher) Resolve(uri string) string {
	if f.baseURL != "" {
		uri = stdnet.ResolveURL(f.baseURL, uri)
	}
	if u, err := url.Parse(uri); err == nil && u.Scheme == "" {
		if abs, err := filepath.Abs(uri); err == nil {
			return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
		}
	}
	return uri
}

// Fetch retrieves the resource at uri.
func (f *DefaultFetcher) Fetch(ctx context.Context, uri string) (*Response, error) {
	resolved := f.Resolve(uri)
	f.logger.Debug("fetch", zap.String("url", resolved))

	switch {
	case stdnet.IsNetworkURL(resolved):
		status, header, body, err := f.client.Get(ctx, resolved)
		if err != nil {
			return nil, err
		}
		resp := &Response{URL: resolved, StatusCode: status, Header: header, Body: body}
		if status < 200 || status >= 300 {
			return resp, fmt.Errorf("%w %d fetching %s", ErrStatus, status, resolved)
		}
		return resp, nil
	case strings.HasPrefix(resolved, "file:"):
		return fetchFile(ctx, resolved)
	case strings.HasPrefix(resolved, "data:"):
		return fetchData(resolved)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, resolved)
}

func fetchFile(ctx context.Context, uri string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", uri, err)
	}
	path := filepath.FromSlash(u.Path)
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	header := http.Header{}
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		header.Set("Content-Type", ct)
	}
	return &Response{URL: uri, StatusCode: http.StatusOK, Header: header, Body: body}, nil
}

// fetchData decodes a data: URL such as data:text/css;base64,cD17fQ==.
func fetchData(uri string) (*Response, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL")
	}
	isBase64 := strings.HasSuffix(meta, ";base64")
	meta = strings.TrimSuffix(meta, ";base64")
	if meta == "" {
		meta = "text/plain;charset=US-ASCII"
	}

	var body []byte
	if isBase64 {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding data URL: %w", err)
		}
		body = b
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding data URL: %w", err)
		}
		body = []byte(s)
	}
	header := http.Header{}
	header.Set("Content-Type", meta)
	return &Response{URL: uri, StatusCode: http.StatusOK, Header: header, Body: body}, nil
}

// FetchCSS fetches a stylesheet URI and returns its text content.
// Returns an error if the content type does not look like CSS or text.
func (f *DefaultFetcher) FetchCSS(ctx context.Context, uri string) (string, error) {
	resp, err := f.Fetch(ctx, uri)
	if err != nil {
		return "", err
	}
	ct := resp.ContentType()
	if ct != "" && !strings.HasPrefix(ct, "text/") && !strings.Contains(ct, "css") {
		return "", fmt.Errorf("unexpected content type for CSS: %s", ct)
	}
	return string(resp.Body), nil
}

// StyleFetcher adapts FetchCSS for the document parser.
func (f *DefaultFetcher) StyleFetcher(ctx context.Context) html.StyleFetcher {
	return func(href string) (string, error) {
		return f.FetchCSS(ctx, href)
	}
}
