package streamclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarvagya80/SarvTribe/pkg/streamclient"
)

// sseHandler writes a fixed script of raw stream lines and then blocks
// until the client goes away.
func sseHandler(t *testing.T, lines []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "/api/message/stream", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for _, line := range lines {
			_, err := w.Write([]byte(line + "\n"))
			require.NoError(t, err)
			flusher.Flush()
		}
		<-r.Context().Done()
	}
}

func collect(t *testing.T, events <-chan streamclient.Event, n int) []streamclient.Event {
	t.Helper()
	out := make([]streamclient.Event, 0, n)
	for len(out) < n {
		select {
		case event, open := <-events:
			require.True(t, open, "stream closed after %d events", len(out))
			out = append(out, event)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d events", len(out))
		}
	}
	return out
}

func TestSubscribeParsesFrames(t *testing.T) {
	ts := httptest.NewServer(sseHandler(t, []string{
		": ping",
		"event:newMessage",
		`data:{"text":"hello"}`,
		"",
		": ping",
		"event:newConnectionRequest",
		`data: {"message":"Alice sent you a connection request."}`,
		"",
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := &streamclient.Client{BaseURL: ts.URL, Token: "secret"}
	events, err := client.Subscribe(ctx)
	require.NoError(t, err)

	got := collect(t, events, 2)
	assert.Equal(t, "newMessage", got[0].Name)
	assert.JSONEq(t, `{"text":"hello"}`, string(got[0].Data))
	assert.Equal(t, "newConnectionRequest", got[1].Name)
	assert.JSONEq(t, `{"message":"Alice sent you a connection request."}`, string(got[1].Data))
}

func TestSubscribeJoinsMultiLineData(t *testing.T) {
	ts := httptest.NewServer(sseHandler(t, []string{
		"event:newMessage",
		"data:first",
		"data:second",
		"",
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := (&streamclient.Client{BaseURL: ts.URL, Token: "secret"}).Subscribe(ctx)
	require.NoError(t, err)

	got := collect(t, events, 1)
	assert.Equal(t, "first\nsecond", string(got[0].Data))
}

func TestSubscribeUnauthorized(t *testing.T) {
	ts := httptest.NewServer(sseHandler(t, nil))
	defer ts.Close()

	_, err := (&streamclient.Client{BaseURL: ts.URL}).Subscribe(context.Background())
	assert.ErrorIs(t, err, streamclient.ErrUnauthorized)
}

func TestSubscribeClosesOnServerEnd(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("event:newMessage\ndata:{}\n\n"))
	}))
	defer ts.Close()

	events, err := (&streamclient.Client{BaseURL: ts.URL, Token: "secret"}).Subscribe(context.Background())
	require.NoError(t, err)

	got := collect(t, events, 1)
	assert.Equal(t, "newMessage", got[0].Name)

	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close when the server ended the stream")
	}
}

func TestSubscribeRejectsInvalidBaseURL(t *testing.T) {
	_, err := (&streamclient.Client{BaseURL: "://missing-scheme"}).Subscribe(context.Background())
	assert.Error(t, err)
}
