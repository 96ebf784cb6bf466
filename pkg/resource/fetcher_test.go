package resource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<p>" + r.UserAgent() + "</p>"))
	})
	mux.HandleFunc("/style.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		w.Write([]byte("p { color: red }"))
	})
	mux.HandleFunc("/image.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_HTTP(t *testing.T) {
	srv := newServer(t)
	f := NewFetcher(srv.URL+"/dir/", Options{UserAgent: "ember-test"})

	resp, err := f.Fetch(context.Background(), "/page.html")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html", resp.ContentType())
	assert.Equal(t, "<p>ember-test</p>", string(resp.Body))
	assert.Equal(t, srv.URL+"/page.html", resp.URL)
}

func TestFetch_Status(t *testing.T) {
	srv := newServer(t)
	f := NewFetcher("", Options{})

	resp, err := f.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFetch_ContextCancel(t *testing.T) {
	srv := newServer(t)
	f := NewFetcher("", Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, srv.URL+"/slow")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestFetch_File(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>local</p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.css"), []byte("p{}"), 0o644))

	f := NewFetcher("", Options{})
	resp, err := f.Fetch(context.Background(), filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>local</p>", string(resp.Body))
	assert.Equal(t, "text/html", resp.ContentType())

	// relative to the page
	css, err := f.WithBase(resp.URL).FetchCSS(context.Background(), "site.css")
	require.NoError(t, err)
	assert.Equal(t, "p{}", css)

	_, err = f.Fetch(context.Background(), filepath.Join(dir, "nope.html"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFetch_Data(t *testing.T) {
	f := NewFetcher("", Options{})
	tests := []struct {
		uri  string
		body string
		ct   string
	}{
		{"data:text/css;base64,cHsgY29sb3I6IHJlZCB9", "p { color: red }", "text/css"},
		{"data:text/css,p%20%7B%7D", "p {}", "text/css"},
		{"data:,hello", "hello", "text/plain"},
	}
	for _, tt := range tests {
		resp, err := f.Fetch(context.Background(), tt.uri)
		require.NoError(t, err, tt.uri)
		assert.Equal(t, tt.body, string(resp.Body), tt.uri)
		assert.Equal(t, tt.ct, resp.ContentType(), tt.uri)
	}

	_, err := f.Fetch(context.Background(), "data:text/css;base64,%%%")
	assert.Error(t, err)
}

func TestFetch_Unsupported(t *testing.T) {
	_, err := NewFetcher("", Options{}).Fetch(context.Background(), "ftp://example.com/x")
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestFetchCSS_ContentType(t *testing.T) {
	srv := newServer(t)
	f := NewFetcher(srv.URL, Options{})

	css, err := f.StyleFetcher(context.Background())("/style.css")
	require.NoError(t, err)
	assert.Equal(t, "p { color: red }", css)

	_, err = f.FetchCSS(context.Background(), "/image.png")
	assert.Error(t, err)
}
