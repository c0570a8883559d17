package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedReader returns data in pieces whose sizes follow sizes, cycling.
type chunkedReader struct {
	data  []byte
	sizes []int
	i     int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.sizes[c.i%len(c.sizes)]
	c.i++
	if n > len(p) {
		n = len(p)
	}
	if n > len(c.data) {
		n = len(c.data)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func TestStore_CreateGetRevoke(t *testing.T) {
	s := NewStore()
	ref := s.Create([]byte("%PDF-1.7"), "application/pdf")

	assert.True(t, strings.HasPrefix(ref, Scheme))
	assert.Equal(t, 1, s.Len())

	b, err := s.Get(ref)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", b.ContentType)
	assert.Equal(t, 8, b.Size())

	s.Revoke(ref)
	assert.Equal(t, 0, s.Len())
	_, err = s.Get(ref)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NotPanics(t, func() { s.Revoke(ref) })
	assert.NotPanics(t, func() { s.Revoke("blob:unknown") })
}

func TestStore_UniqueRefs(t *testing.T) {
	s := NewStore()
	a := s.Create(nil, "x")
	b := s.Create(nil, "x")
	assert.NotEqual(t, a, b)
}

func TestStore_Handler(t *testing.T) {
	s := NewStore()
	ref := s.Create([]byte("hello"), "application/pdf")
	id := strings.TrimPrefix(ref, Scheme)

	mux := http.NewServeMux()
	mux.Handle("GET /blob/{id}", s.Handler())

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/blob/"+id, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "hello", w.Body.String())

	s.Revoke(ref)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/blob/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssemble_ArbitraryBoundaries(t *testing.T) {
	data := make([]byte, 100_003)
	rand.New(rand.NewSource(1)).Read(data)

	splits := [][]int{{1}, {7, 3, 1000}, {4096}, {100_003}, {13, 65536}}
	for _, sizes := range splits {
		r := &chunkedReader{data: data, sizes: sizes}
		got, err := Assemble(context.Background(), r, 512, 2, 0)
		require.NoError(t, err)
		assert.Len(t, got, len(data))
		assert.True(t, bytes.Equal(data, got))
	}
}

func TestAssemble_Empty(t *testing.T) {
	got, err := Assemble(context.Background(), bytes.NewReader(nil), 0, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAssemble_TooLarge(t *testing.T) {
	r := bytes.NewReader(make([]byte, 10_000))
	_, err := Assemble(context.Background(), r, 100, 1, 1000)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestAssemble_ExactlyAtLimit(t *testing.T) {
	r := bytes.NewReader(make([]byte, 1000))
	got, err := Assemble(context.Background(), r, 100, 1, 1000)
	require.NoError(t, err)
	assert.Len(t, got, 1000)
}

func TestAssemble_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(bytes.NewReader([]byte("abc")), iotest.ErrReader(boom))
	_, err := Assemble(context.Background(), r, 2, 1, 0)
	assert.ErrorIs(t, err, boom)
}

func TestAssemble_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := iotest.OneByteReader(bytes.NewReader(bytes.Repeat([]byte("x"), 1<<20)))
	_, err := Assemble(ctx, r, 1, 1, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
