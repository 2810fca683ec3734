package stream

import (
	"bytes"
	"encoding/json"
	"iter"
	"log/slog"

	"github.com/melih/lighthouse-build/internal/core/domain"
)

// Delimiter terminates every record in the engine's output.
var Delimiter = []byte("\r\n")

// Reassemble decodes the records carried by chunks.
//
// The accumulation buffer belongs to the returned sequence and is discarded
// with it. Records are yielded in stream order as soon as their delimiter is
// seen; bytes after the last delimiter are never emitted. An error from
// chunks is yielded and ends the sequence.
func Reassemble(chunks iter.Seq2[[]byte, error]) iter.Seq2[domain.Event, error] {
	return func(yield func(domain.Event, error) bool) {
		var buf []byte
		for chunk, err := range chunks {
			if err != nil {
				yield(nil, err)
				return
			}
			buf = append(buf, chunk...)

			for {
				i := bytes.Index(buf, Delimiter)
				if i < 0 {
					break
				}
				line := buf[:i]
				buf = buf[i+len(Delimiter):]

				evt, ok := decode(line)
				if !ok {
					continue
				}
				if !yield(evt, nil) {
					return
				}
			}
			if len(buf) == 0 {
				buf = nil
			}
		}
		if len(buf) > 0 {
			slog.Debug("discarding unterminated record", "bytes", len(buf))
		}
	}
}

// decode parses a single record. Empty and malformed records are rejected.
func decode(line []byte) (domain.Event, bool) {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil, false
	}
	var evt domain.Event
	if err := json.Unmarshal(line, &evt); err != nil {
		slog.Debug("dropping malformed record", "error", err, "bytes", len(line))
		return nil, false
	}
	if evt == nil {
		// "null" decodes without error but is not a record.
		return nil, false
	}
	return evt, true
}
