package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/joescharf/scout/internal/blob"
)

// FileObject is a downloaded file held in the client's blob store.
// It is a scoped resource: call Revoke once it is no longer displayed.
type FileObject struct {
	// URL is the revocable blob reference.
	URL string
	// ContentType is the type the gateway reported, not the blob tag.
	ContentType string
	Disposition string
	Size        int

	store *blob.Store
	once  sync.Once
}

// Revoke releases the blob. It is safe to call more than once.
func (f *FileObject) Revoke() {
	if f == nil || f.store == nil {
		return
	}
	f.once.Do(func() { f.store.Revoke(f.URL) })
}

// FetchFile downloads a file's bytes through the gateway and stores them as a
// PDF blob. The body is reassembled incrementally, capped at MaxFileBytes.
func (c *Client) FetchFile(ctx context.Context, id string) (*FileObject, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFile, err)
	}
	resp, err := c.send(ctx, http.MethodGet, "/api/get_items/"+url.PathEscape(id), nil, nil, ErrFetchFile)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	data, err := blob.Assemble(ctx, resp.Body, blob.DefaultChunkSize, blob.DefaultDepth, c.MaxFileBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFile, err)
	}

	return &FileObject{
		URL:         c.Blobs.Create(data, PDFContentType),
		ContentType: contentType,
		Disposition: resp.Header.Get("Content-Disposition"),
		Size:        len(data),
		store:       c.Blobs,
	}, nil
}
