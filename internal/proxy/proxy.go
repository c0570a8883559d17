// Package proxy builds backend requests from inbound gateway requests.
//
// Only headers carrying the load balancer's vendor prefix cross into the
// backend call. Cookies, authorization and everything else are dropped.
package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultPrefix is the header prefix set by the AWS application load balancer,
// which carries the OIDC identity the backend authenticates with.
const DefaultPrefix = "x-amzn"

// FilterHeaders returns a copy of h holding only the entries whose name starts
// with prefix, compared case-insensitively. A nil or empty h yields an empty header.
func FilterHeaders(h http.Header, prefix string) http.Header {
	out := make(http.Header)
	if prefix == "" {
		return out
	}
	p := strings.ToLower(prefix)
	for k, vs := range h {
		if !strings.HasPrefix(strings.ToLower(k), p) {
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Forwarder sends requests to the backend origin.
type Forwarder struct {
	// Origin returns the backend base URL. It is called for every request so
	// configuration changes apply without a restart.
	Origin func() string
	Client *http.Client
	Prefix string
}

// NewForwarder creates a Forwarder using http.DefaultClient and DefaultPrefix.
func NewForwarder(origin func() string) *Forwarder {
	return &Forwarder{Origin: origin, Client: http.DefaultClient, Prefix: DefaultPrefix}
}

// URL joins the backend origin, path and query.
func (f *Forwarder) URL(path string, query url.Values) (string, error) {
	origin := strings.TrimRight(f.Origin(), "/")
	if origin == "" {
		return "", fmt.Errorf("backend host not configured")
	}
	u := origin + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}

// NewRequest builds the outbound request for in. A non-nil body is sent as JSON.
func (f *Forwarder) NewRequest(ctx context.Context, in *http.Request, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target, err := f.URL(path, query)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}

	var inbound http.Header
	if in != nil {
		inbound = in.Header
	}
	prefix := f.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	req.Header = FilterHeaders(inbound, prefix)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Do performs a single call. There is no retry and no timeout beyond the client's.
func (f *Forwarder) Do(req *http.Request) (*http.Response, error) {
	c := f.Client
	if c == nil {
		c = http.DefaultClient
	}
	return c.Do(req)
}
