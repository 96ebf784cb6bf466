package page

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"

	"ember/pkg/resource"
)

// decodeBody converts the response body to UTF-8. The charset comes from
// the Content-Type header, then a BOM or meta tag in the first bytes, and
// defaults to windows-1252 as browsers do.
func decodeBody(resp *resource.Response) ([]byte, error) {
	if len(resp.Body) == 0 {
		return nil, nil
	}
	contentType := ""
	if resp.Header != nil {
		contentType = resp.Header.Get("Content-Type")
	}
	if contentType == "" {
		contentType = "text/html"
	}
	r, err := charset.NewReader(bytes.NewReader(resp.Body), contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	return body, nil
}
