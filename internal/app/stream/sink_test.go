package stream_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarvagya80/SarvTribe/internal/app/stream"
)

type plainResponseWriter struct {
	http.ResponseWriter
}

func TestNewWriterSinkRequiresFlusher(t *testing.T) {
	// Wrapping strips the Flusher implementation.
	_, err := stream.NewWriterSink(plainResponseWriter{httptest.NewRecorder()})
	assert.Error(t, err)

	_, err = stream.NewWriterSink(httptest.NewRecorder())
	assert.NoError(t, err)
}

func TestWriterSinkSend(t *testing.T) {
	recorder := httptest.NewRecorder()
	sink, err := stream.NewWriterSink(recorder)
	require.NoError(t, err)

	require.NoError(t, sink.Send(stream.EventNewMessage, map[string]string{"text": "hi"}))

	body := recorder.Body.String()
	assert.Contains(t, body, "event:"+stream.EventNewMessage)
	assert.Contains(t, body, `"text":"hi"`)
	assert.True(t, strings.HasSuffix(body, "\n\n"), "frame must end with a blank line, got %q", body)
	assert.True(t, recorder.Flushed)
}

func TestWriterSinkPing(t *testing.T) {
	recorder := httptest.NewRecorder()
	sink, err := stream.NewWriterSink(recorder)
	require.NoError(t, err)

	require.NoError(t, sink.Ping())

	assert.Equal(t, ": ping\n\n", recorder.Body.String())
	assert.True(t, recorder.Flushed)
}
