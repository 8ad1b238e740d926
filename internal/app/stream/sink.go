package stream

import (
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/gin-contrib/sse"
)

var errStreamNotFlushable = errors.New("stream: response writer does not support flushing")

// WriterSink frames events onto an HTTP response held open as a
// text/event-stream. Every write is flushed immediately so intermediaries
// cannot buffer the stream.
type WriterSink struct {
	mu      sync.Mutex
	writer  io.Writer
	flusher http.Flusher
}

// NewWriterSink wraps an HTTP response writer. The writer must support
// http.Flusher, which every chunked HTTP/1.1 and HTTP/2 response does.
func NewWriterSink(w http.ResponseWriter) (*WriterSink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamNotFlushable
	}
	return &WriterSink{writer: w, flusher: flusher}, nil
}

// Send writes one named event with a JSON payload.
func (s *WriterSink) Send(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := sse.Encode(s.writer, sse.Event{Event: event, Data: payload}); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Ping writes an SSE comment line. Clients ignore it; proxies see traffic
// and keep the idle connection open.
func (s *WriterSink) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.writer, ": ping\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

var _ Sink = (*WriterSink)(nil)
