// Package client calls the gateway routes and normalises their responses
// into typed records and local blobs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/joescharf/scout/internal/blob"
	"github.com/joescharf/scout/internal/models"
)

// Operation errors. Each failed call wraps exactly one of them.
var (
	ErrFetchItems           = errors.New("failed to fetch items")
	ErrReadItemsByAttribute = errors.New("failed to read items by attribute")
	ErrFetchRelated         = errors.New("failed to fetch related items")
	ErrFetchFile            = errors.New("failed to fetch file")
	ErrSubmitRating         = errors.New("failed to submit rating")
	ErrInvalidID            = errors.New("invalid id")
)

// HTTPError reports a non-success gateway status for an operation.
type HTTPError struct {
	Op     error
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

func (e *HTTPError) Unwrap() error { return e.Op }

// PDFContentType tags every assembled file blob. The viewer only renders PDFs.
const PDFContentType = "application/pdf"

// DefaultMaxFileBytes caps a single file download.
const DefaultMaxFileBytes = 64 << 20

// Client talks to the scout gateway.
type Client struct {
	BaseURL      string
	HTTP         *http.Client
	Blobs        *blob.Store
	MaxFileBytes int64
	// Header is sent with every request, e.g. X-Amzn-Oidc-Data when the
	// client runs outside the load balancer.
	Header http.Header
	Log    *slog.Logger
}

// New creates a Client for the gateway at baseURL. A nil store gets a private one.
func New(baseURL string, blobs *blob.Store) *Client {
	if blobs == nil {
		blobs = blob.NewStore()
	}
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		HTTP:         http.DefaultClient,
		Blobs:        blobs,
		MaxFileBytes: DefaultMaxFileBytes,
		Header:       make(http.Header),
		Log:          slog.Default(),
	}
}

// Filters is the body of a read_items_by_attribute call.
type Filters struct {
	Model   models.Model   `json:"model"`
	Filters map[string]any `json:"filters"`
}

// RatingRequest is the body of a rate call.
type RatingRequest struct {
	ResultID     string `json:"result_id"`
	GoodResponse bool   `json:"good_response"`
}

// RatingConfirmation is the backend's answer to a rate call.
type RatingConfirmation struct {
	Message string `json:"message"`
}

// FetchItems returns every item of model.
func (c *Client) FetchItems(ctx context.Context, model models.Model) ([]models.Item, error) {
	var items []models.Item
	if err := c.getJSON(ctx, "/api/item/"+url.PathEscape(string(model)), nil, ErrFetchItems, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchItem returns the single item of model with the given id.
func (c *Client) FetchItem(ctx context.Context, model models.Model, id string) (models.Item, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchItems, err)
	}
	var item models.Item
	q := url.Values{"uuid": {id}}
	if err := c.getJSON(ctx, "/api/item/"+url.PathEscape(string(model)), q, ErrFetchItems, &item); err != nil {
		return nil, err
	}
	return item, nil
}

// FetchReadItemsByAttribute returns the items of f.Model matching f.Filters.
func (c *Client) FetchReadItemsByAttribute(ctx context.Context, f Filters) ([]models.Item, error) {
	if f.Filters == nil {
		f.Filters = map[string]any{}
	}
	var items []models.Item
	if err := c.postJSON(ctx, "/api/read_items_by_attribute", f, ErrReadItemsByAttribute, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchRelatedItems returns the modelB items attached to the modelA item id.
// limitToUser restricts the result to items owned by the calling user.
func (c *Client) FetchRelatedItems(ctx context.Context, id string, modelA, modelB models.Model, limitToUser bool) ([]models.Item, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchRelated, err)
	}
	path := fmt.Sprintf("/api/related/%s/%s/%s", url.PathEscape(id), url.PathEscape(string(modelA)), url.PathEscape(string(modelB)))
	q := url.Values{"limit_to_user": {strconv.FormatBool(limitToUser)}}
	var items []models.Item
	if err := c.getJSON(ctx, path, q, ErrFetchRelated, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// RateResponse records a thumbs up or down for a result.
func (c *Client) RateResponse(ctx context.Context, req RatingRequest) (RatingConfirmation, error) {
	var out RatingConfirmation
	if err := c.postJSON(ctx, "/api/rate", req, ErrSubmitRating, &out); err != nil {
		return RatingConfirmation{}, err
	}
	return out, nil
}

// FetchGateURL looks up the reference link for a gate in /gate_urls.json.
// Failures are logged and reported as "".
func (c *Client) FetchGateURL(ctx context.Context, gate models.Gate) string {
	var urls map[string]string
	if err := c.getJSON(ctx, "/gate_urls.json", nil, errors.New("failed to fetch gate urls"), &urls); err != nil {
		c.logger().Warn("gate url lookup failed", "gate", gate, "error", err)
		return ""
	}
	return urls[string(gate)]
}

// --- transport ---

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, op error, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, q, nil, op, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in any, op error, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode request: %w", op, err)
	}
	return c.doJSON(ctx, http.MethodPost, path, nil, body, op, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, body []byte, op error, out any) error {
	resp, err := c.send(ctx, method, path, q, body, op)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", op, err)
	}
	return nil
}

// send issues one request and converts transport failures and non-2xx
// statuses into errors wrapping op. On success the caller owns resp.Body.
func (c *Client) send(ctx context.Context, method, path string, q url.Values, body []byte, op error) (*http.Response, error) {
	target := c.BaseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", op, err)
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &HTTPError{Op: op, Status: resp.StatusCode}
	}
	return resp, nil
}

func (c *Client) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

// validateID rejects ids that are not UUIDs before they are placed in a URL path.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return nil
}
