// Package streamclient consumes the server's event stream from Go code:
// it opens the long-lived subscription, parses the named-event frames and
// hands them to the caller over a channel.
package streamclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var ErrUnauthorized = errors.New("streamclient: credential rejected")

// Event is one server-pushed item, e.g. newMessage or newConnectionRequest.
type Event struct {
	Name string
	Data json.RawMessage
}

type Client struct {
	// BaseURL is the server root, e.g. "http://localhost:8080".
	BaseURL string
	// Token is the bearer credential; it is sent as a query parameter the
	// same way a browser EventSource would.
	Token string
	// HTTPClient must not impose a client-side timeout: the subscription
	// is expected to stay open indefinitely. Defaults to a timeout-free
	// client when nil.
	HTTPClient *http.Client
}

// Subscribe opens the stream and returns a channel of events. The channel
// closes when ctx is cancelled or the server ends the stream; comment
// keep-alives are consumed silently and never surface as events.
func (c *Client) Subscribe(ctx context.Context) (<-chan Event, error) {
	endpoint, err := c.streamURL()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("streamclient: unexpected status %d", resp.StatusCode)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

		var current Event
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				// Blank line terminates a frame.
				if current.Name != "" || len(current.Data) > 0 {
					select {
					case events <- current:
					case <-ctx.Done():
						return
					}
				}
				current = Event{}
			case strings.HasPrefix(line, ":"):
				// Keep-alive comment.
			case strings.HasPrefix(line, "event:"):
				current.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data := strings.TrimPrefix(line, "data:")
				data = strings.TrimPrefix(data, " ")
				// Multi-line data frames concatenate with newlines.
				if len(current.Data) > 0 {
					current.Data = append(current.Data, '\n')
				}
				current.Data = append(current.Data, data...)
			}
		}
	}()
	return events, nil
}

func (c *Client) streamURL() (string, error) {
	base, err := url.Parse(strings.TrimRight(c.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("streamclient: invalid base url: %w", err)
	}
	base.Path = base.Path + "/api/message/stream"
	query := base.Query()
	query.Set("token", c.Token)
	base.RawQuery = query.Encode()
	return base.String(), nil
}
