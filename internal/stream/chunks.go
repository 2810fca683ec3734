package stream

import (
	"errors"
	"io"
	"iter"
)

// DefaultChunkSize is the read size used when Chunks is given a size <= 0.
const DefaultChunkSize = 32 * 1024

// Chunks returns a lazy sequence of the chunks read from r, one Read per pull.
// r is closed when the sequence ends, fails or the consumer stops.
// A read error other than io.EOF is yielded once and ends the sequence.
func Chunks(r io.ReadCloser, size int) iter.Seq2[[]byte, error] {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return func(yield func([]byte, error) bool) {
		defer r.Close()

		buf := make([]byte, size)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				if !yield(chunk, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
		}
	}
}
