package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/joescharf/scout/internal/logging"
)

// Error messages returned to the browser. Backend detail is only logged.
const (
	msgFetchItems        = "Failed to fetch items"
	msgGetFile           = "Failed to get item by uuid"
	msgReadByAttribute   = "Failed to read items by attribute"
	msgFetchRelated      = "Failed to fetch related items"
	msgSubmitRating      = "Failed to submit rating"
	maxLoggedBody        = 2 << 10
	maxForwardedBodySize = 10 << 20
)

// relayedFileHeaders are copied from the backend file response.
var relayedFileHeaders = []string{"Content-Type", "Content-Disposition", "X-File-Type"}

// upstreamError describes a failed backend call.
type upstreamError struct {
	status int
	body   string
	err    error
}

func (e *upstreamError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("backend returned %d", e.status)
}

func (e *upstreamError) Unwrap() error { return e.err }

// --- Routes ---

func (s *Server) getItems(w http.ResponseWriter, r *http.Request) {
	s.forwardJSON(w, r, "item", http.MethodGet, "/api/item", r.URL.Query(), nil, msgFetchItems)
}

func (s *Server) getModelItems(w http.ResponseWriter, r *http.Request) {
	path := "/api/item/" + url.PathEscape(r.PathValue("model"))
	s.forwardJSON(w, r, "item", http.MethodGet, path, r.URL.Query(), nil, msgFetchItems)
}

func (s *Server) readItemsByAttribute(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.fail(w, r, "read_items_by_attribute", msgReadByAttribute, err)
		return
	}
	s.forwardJSON(w, r, "read_items_by_attribute", http.MethodPost, "/api/read_items_by_attribute", nil, body, msgReadByAttribute)
}

func (s *Server) getRelated(w http.ResponseWriter, r *http.Request) {
	path := fmt.Sprintf("/api/related/%s/%s/%s",
		url.PathEscape(r.PathValue("id")),
		url.PathEscape(r.PathValue("modelA")),
		url.PathEscape(r.PathValue("modelB")),
	)
	limit := r.URL.Query().Get("limit_to_user")
	if limit == "" {
		limit = "false"
	}
	s.forwardJSON(w, r, "related", http.MethodGet, path, url.Values{"limit_to_user": {limit}}, nil, msgFetchRelated)
}

func (s *Server) rate(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.fail(w, r, "rate", msgSubmitRating, err)
		return
	}
	s.forwardJSON(w, r, "rate", http.MethodPost, "/api/rate", nil, body, msgSubmitRating)
}

// getFile relays the backend file bytes along with its content headers.
func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	const route = "get_items"
	path := "/api/get_file/" + url.PathEscape(r.PathValue("id"))

	resp, err := s.call(r, route, http.MethodGet, path, nil, nil)
	if err != nil {
		s.fail(w, r, route, msgGetFile, err)
		return
	}
	defer resp.Body.Close()

	for _, h := range relayedFileHeaders {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(http.StatusOK)
	if n, err := io.Copy(w, resp.Body); err != nil {
		// Headers are already sent; all that is left is to record it.
		s.log.Error("file relay interrupted",
			"request_id", RequestIDFrom(r.Context()),
			"route", route,
			"bytes", n,
			"error", err,
		)
	}
}

// --- Forwarding ---

// forwardJSON performs one backend call and relays its JSON body verbatim.
func (s *Server) forwardJSON(w http.ResponseWriter, r *http.Request, route, method, path string, query url.Values, body []byte, msg string) {
	resp, err := s.call(r, route, method, path, query, body)
	if err != nil {
		s.fail(w, r, route, msg, err)
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.fail(w, r, route, msg, fmt.Errorf("read backend response: %w", err))
		return
	}
	if !json.Valid(data) {
		s.fail(w, r, route, msg, &upstreamError{status: resp.StatusCode, body: string(data), err: errors.New("backend returned invalid JSON")})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// call sends the backend request. A non-success status is returned as an
// *upstreamError after the body has been drained for logging. On success the
// upstream metric is recorded when the caller closes the body.
func (s *Server) call(r *http.Request, route, method, path string, query url.Values, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := s.fwd.NewRequest(r.Context(), r, method, path, query, reader)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := s.fwd.Do(req)
	if err != nil {
		s.metrics.ObserveUpstream(route, time.Since(start), true)
		return nil, &upstreamError{err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
		resp.Body.Close()
		s.metrics.ObserveUpstream(route, time.Since(start), true)
		return nil, &upstreamError{status: resp.StatusCode, body: string(data)}
	}
	resp.Body = &observedBody{ReadCloser: resp.Body, observe: func(failed bool) {
		s.metrics.ObserveUpstream(route, time.Since(start), failed)
	}}
	return resp, nil
}

// observedBody reports the backend call once its body has been consumed and
// closed, so the duration covers the full transfer.
type observedBody struct {
	io.ReadCloser
	observe func(failed bool)
	failed  bool
	closed  bool
}

func (b *observedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		b.failed = true
	}
	return n, err
}

func (b *observedBody) Close() error {
	err := b.ReadCloser.Close()
	if !b.closed {
		b.closed = true
		b.observe(b.failed)
	}
	return err
}

// fail logs the failure with any backend detail and answers 500 {"error": msg}.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, route, msg string, err error) {
	attrs := []slog.Attr{
		slog.String("request_id", RequestIDFrom(r.Context())),
		slog.String("route", route),
		slog.String("error", err.Error()),
	}
	var ue *upstreamError
	if errors.As(err, &ue) {
		if ue.status != 0 {
			attrs = append(attrs, slog.Int("backend_status", ue.status))
		}
		if ue.body != "" {
			attrs = append(attrs, slog.String("backend_body", logging.Truncate(ue.body, maxLoggedBody)))
		}
	}
	s.log.LogAttrs(r.Context(), slog.LevelError, msg, attrs...)
	writeError(w, http.StatusInternalServerError, msg)
}

// readBody reads the inbound request body for passthrough.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte{}, nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxForwardedBodySize))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return data, nil
}
