package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"github.com/sarvagya80/SarvTribe/internal/app/stream"
)

// StreamHandler owns the long-lived event stream endpoint. A connection is
// authenticated, registered, held open with periodic pings, and
// deregistered exactly once when the transport closes.
type StreamHandler struct {
	Registry  *stream.Registry
	KeepAlive time.Duration
	Logger    *slog.Logger
}

func (h StreamHandler) Subscribe(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		// Unauthorized requests never reach the registry.
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	// Tells nginx-style proxies not to buffer the stream.
	header.Set("X-Accel-Buffering", "no")

	sink, err := stream.NewWriterSink(c.Writer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "streaming unsupported"})
		return
	}
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	h.Registry.Register(p.ID, sink)
	defer h.Registry.Deregister(p.ID, sink)

	interval := h.KeepAlive
	if interval <= 0 {
		interval = 25 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	done := c.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := sink.Ping(); err != nil {
				if h.Logger != nil {
					h.Logger.Debug("keep-alive write failed, closing stream", "user_id", p.ID, "error", err)
				}
				return
			}
		}
	}
}

var _ StreamHTTP = (*StreamHandler)(nil)
