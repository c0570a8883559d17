// Package blob holds in-memory binary objects behind revocable references,
// the server-side analogue of browser object URLs.
package blob

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Scheme prefixes every reference handed out by a Store.
const Scheme = "blob:"

// ErrNotFound is returned for unknown or revoked references.
var ErrNotFound = errors.New("blob not found")

// Blob is an immutable byte payload with its content type.
type Blob struct {
	Data        []byte
	ContentType string
}

// Size returns the payload length.
func (b *Blob) Size() int { return len(b.Data) }

// Store maps references to blobs. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]*Blob
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{blobs: make(map[string]*Blob)}
}

// Create stores data and returns a new reference for it. The caller owns the
// reference and must Revoke it when it is no longer displayed.
func (s *Store) Create(data []byte, contentType string) string {
	id := ulid.Make().String()
	s.mu.Lock()
	s.blobs[id] = &Blob{Data: data, ContentType: contentType}
	s.mu.Unlock()
	return Scheme + id
}

// Get returns the blob for ref.
func (s *Store) Get(ref string) (*Blob, error) {
	id, ok := strings.CutPrefix(ref, Scheme)
	if !ok {
		id = ref
	}
	s.mu.RLock()
	b, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// Revoke releases ref. Revoking an unknown or already revoked reference is a no-op.
func (s *Store) Revoke(ref string) {
	id, ok := strings.CutPrefix(ref, Scheme)
	if !ok {
		id = ref
	}
	s.mu.Lock()
	delete(s.blobs, id)
	s.mu.Unlock()
}

// Len reports the number of live blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Handler serves blobs at /blob/{id}.
func (s *Store) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := s.Get(r.PathValue("id"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", b.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(b.Size()))
		_, _ = w.Write(b.Data)
	})
}
