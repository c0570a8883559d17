package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrTooLarge is returned when a stream exceeds the assembly limit.
var ErrTooLarge = errors.New("payload exceeds size limit")

// Defaults for Assemble.
const (
	DefaultChunkSize = 32 << 10
	DefaultDepth     = 8
)

// Assemble reads r to completion and returns its bytes.
//
// A producer goroutine reads fixed-size chunks from r and sends them over a
// channel holding at most depth chunks, so a slow consumer stalls the reader
// instead of buffering the whole stream twice. A max of 0 means no limit.
func Assemble(ctx context.Context, r io.Reader, chunkSize, depth int, max int64) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if depth <= 0 {
		depth = DefaultDepth
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks := make(chan []byte, depth)
	errc := make(chan error, 1)

	go func() {
		defer close(chunks)
		for {
			if err := ctx.Err(); err != nil {
				errc <- err
				return
			}
			buf := make([]byte, chunkSize)
			n, err := r.Read(buf)
			if n > 0 {
				select {
				case chunks <- buf[:n]:
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				}
			}
			if err == io.EOF {
				errc <- nil
				return
			}
			if err != nil {
				errc <- fmt.Errorf("read stream: %w", err)
				return
			}
		}
	}()

	var out bytes.Buffer
	for chunk := range chunks {
		if max > 0 && int64(out.Len()+len(chunk)) > max {
			cancel()
			for range chunks {
			}
			<-errc
			return nil, ErrTooLarge
		}
		out.Write(chunk)
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
