package proxy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterHeaders_KeepsOnlyPrefixed(t *testing.T) {
	h := http.Header{}
	h.Set("X-Amzn-Oidc-Data", "jwt")
	h.Set("X-Amzn-Trace-Id", "Root=1")
	h.Set("Cookie", "session=1")
	h.Set("Authorization", "Bearer x")
	h.Set("X-Forwarded-For", "10.0.0.1")
	h["x-amzn-raw"] = []string{"lower"}

	out := FilterHeaders(h, DefaultPrefix)

	assert.Len(t, out, 3)
	assert.Equal(t, "jwt", out.Get("X-Amzn-Oidc-Data"))
	assert.Equal(t, []string{"lower"}, out["x-amzn-raw"])
	assert.Empty(t, out.Get("Cookie"))
	assert.Empty(t, out.Get("Authorization"))
}

func TestFilterHeaders_SubsetProperty(t *testing.T) {
	sets := []http.Header{
		nil,
		{},
		{"Accept": {"*/*"}},
		{"X-Amzn-A": {"1", "2"}, "X-Amz-Date": {"d"}, "Xamzn": {"no"}},
	}
	for _, h := range sets {
		out := FilterHeaders(h, DefaultPrefix)
		require.NotNil(t, out)
		for k, vs := range out {
			assert.True(t, strings.HasPrefix(strings.ToLower(k), DefaultPrefix), "key %q leaked", k)
			assert.Equal(t, h[k], vs)
		}
	}
}

func TestFilterHeaders_DoesNotAlias(t *testing.T) {
	h := http.Header{"X-Amzn-A": {"1"}}
	out := FilterHeaders(h, DefaultPrefix)
	out["X-Amzn-A"][0] = "changed"
	assert.Equal(t, "1", h.Get("X-Amzn-A"))
}

func TestFilterHeaders_EmptyPrefixPassesNothing(t *testing.T) {
	out := FilterHeaders(http.Header{"X-Amzn-A": {"1"}}, "")
	assert.Empty(t, out)
}

func TestForwarder_URL(t *testing.T) {
	f := NewForwarder(func() string { return "http://backend:8080/" })

	u, err := f.URL("/api/item/result", url.Values{"uuid": {"abc"}})
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8080/api/item/result?uuid=abc", u)

	u, err = f.URL("api/rate", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8080/api/rate", u)
}

func TestForwarder_URL_NoOrigin(t *testing.T) {
	f := NewForwarder(func() string { return "" })
	_, err := f.URL("/api/rate", nil)
	assert.Error(t, err)
}

func TestForwarder_OriginReadPerRequest(t *testing.T) {
	origin := "http://one"
	f := NewForwarder(func() string { return origin })

	u1, _ := f.URL("/x", nil)
	origin = "http://two"
	u2, _ := f.URL("/x", nil)
	assert.Equal(t, "http://one/x", u1)
	assert.Equal(t, "http://two/x", u2)
}

func TestForwarder_NewRequest_HeadersAndBody(t *testing.T) {
	var gotHeaders http.Header
	var gotBody []byte
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	f := NewForwarder(func() string { return backend.URL })

	in := httptest.NewRequest(http.MethodPost, "/api/rate", nil)
	in.Header.Set("X-Amzn-Oidc-Data", "jwt")
	in.Header.Set("Cookie", "secret")

	req, err := f.NewRequest(context.Background(), in, http.MethodPost, "/api/rate", nil, bytes.NewBufferString(`{"a":1}`))
	require.NoError(t, err)
	resp, err := f.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "jwt", gotHeaders.Get("X-Amzn-Oidc-Data"))
	assert.Empty(t, gotHeaders.Get("Cookie"))
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.JSONEq(t, `{"a":1}`, string(gotBody))
}

func TestForwarder_NewRequest_GetHasNoContentType(t *testing.T) {
	f := NewForwarder(func() string { return "http://backend" })
	req, err := f.NewRequest(context.Background(), nil, http.MethodGet, "/api/item", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Content-Type"))
	assert.Empty(t, req.Header)
}
