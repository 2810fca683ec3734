package stream

import (
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/melih/lighthouse-build/internal/core/domain"
)

// chunkReader returns one queued chunk per Read call.
type chunkReader struct {
	chunks [][]byte
	reads  int
	closed bool
}

func newChunkReader(chunks ...string) *chunkReader {
	r := &chunkReader{}
	for _, c := range chunks {
		r.chunks = append(r.chunks, []byte(c))
	}
	return r
}

func (r *chunkReader) Read(p []byte) (int, error) {
	r.reads++
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if len(r.chunks[0]) == 0 {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closed = true
	return nil
}

func collect(t *testing.T, chunks ...string) []domain.Event {
	t.Helper()
	var out []domain.Event
	for evt, err := range Reassemble(Chunks(newChunkReader(chunks...), 0)) {
		assert.NilError(t, err)
		out = append(out, evt)
	}
	return out
}

func TestReassembleSingleChunk(t *testing.T) {
	got := collect(t, "{\"stream\":\"Step 1/3\\n\"}\r\n{\"stream\":\"Step 2/3\\n\"}\r\n")
	assert.DeepEqual(t, got, []domain.Event{
		{"stream": "Step 1/3\n"},
		{"stream": "Step 2/3\n"},
	})
}

func TestReassembleAcrossChunks(t *testing.T) {
	got := collect(t, `{"stre`, `am":"he`, "llo\"}\r", "\n{\"status\":\"x\"}\r\n")
	assert.DeepEqual(t, got, []domain.Event{
		{"stream": "hello"},
		{"status": "x"},
	})
}

func TestReassembleTrailingPartialRecordNotEmitted(t *testing.T) {
	cases := [][]string{
		{"{\"a\":1}\r\n{\"b\":"},
		{"{\"a\"", ":1}\r", "\n{\"b\":2}"},
		{"{", "\"a\":1", "}", "\r\n", "{\"b\":2}\r"},
	}
	for _, chunks := range cases {
		got := collect(t, chunks...)
		assert.DeepEqual(t, got, []domain.Event{{"a": float64(1)}})
	}
}

func TestReassembleDropsEmptyAndMalformed(t *testing.T) {
	got := collect(t,
		"\r\n",
		"   \r\n",
		"not json\r\n",
		"[1,2,3]\r\n",
		"null\r\n",
		"\"text\"\r\n",
		"{\"ok\":true}\r\n",
		"{broken\r\n",
	)
	assert.DeepEqual(t, got, []domain.Event{{"ok": true}})
}

func TestReassemblePreservesOrder(t *testing.T) {
	got := collect(t, "{\"n\":1}\r\n{\"n\":2}", "\r\n{\"n\":3}\r\n")
	assert.Assert(t, is.Len(got, 3))
	for i, evt := range got {
		assert.Equal(t, evt["n"], float64(i+1))
	}
}

func TestReassembleIsLazy(t *testing.T) {
	r := newChunkReader("{\"n\":1}\r\n", "{\"n\":2}\r\n", "{\"n\":3}\r\n")
	seq := Reassemble(Chunks(r, 0))
	assert.Equal(t, r.reads, 0)

	for evt, err := range seq {
		assert.NilError(t, err)
		assert.Equal(t, evt["n"], float64(1))
		break
	}
	assert.Equal(t, r.reads, 1)
	assert.Assert(t, r.closed)
}

func TestReassembleYieldsReadError(t *testing.T) {
	boom := errors.New("connection reset")
	body := io.NopCloser(io.MultiReader(
		iotest.OneByteReader(newChunkReader("{\"n\":1}\r\n")),
		iotest.ErrReader(boom),
	))

	var events []domain.Event
	var errs []error
	for evt, err := range Reassemble(Chunks(body, 4)) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, evt)
	}
	assert.DeepEqual(t, events, []domain.Event{{"n": float64(1)}})
	assert.Assert(t, is.Len(errs, 1))
	assert.Assert(t, errors.Is(errs[0], boom))
}
