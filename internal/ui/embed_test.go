package ui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	h, err := Handler()
	require.NoError(t, err)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHandler_GateURLs(t *testing.T) {
	w := serve(t, "/gate_urls.json")
	require.Equal(t, http.StatusOK, w.Code)

	var urls map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &urls))
	assert.Contains(t, urls, "GATE_0")
	assert.Contains(t, urls, "GATE_5")
}

func TestHandler_SPAFallback(t *testing.T) {
	w := serve(t, "/results")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Scout</title>")
}

func TestHandler_MissingAsset(t *testing.T) {
	w := serve(t, "/static/app.js")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGateURLs(t *testing.T) {
	urls, err := GateURLs()
	require.NoError(t, err)
	assert.Len(t, urls, 6)
}

func TestHandler_RejectsPost(t *testing.T) {
	h, err := Handler()
	require.NoError(t, err)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/gate_urls.json", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
}
