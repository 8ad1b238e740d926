package ginserver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"github.com/sarvagya80/SarvTribe/internal/app/services/messaging"
	domainmessage "github.com/sarvagya80/SarvTribe/internal/domain/message"
)

// maxMediaBytes caps a single message attachment.
const maxMediaBytes = 16 << 20

type MessageHandler struct {
	Service *messaging.Service
	Logger  *slog.Logger
}

// Send accepts a multipart form with to_user_id, optional text and an
// optional single image file.
func (h MessageHandler) Send(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	toUserID := strings.TrimSpace(c.PostForm("to_user_id"))
	text := c.PostForm("text")

	media, err := h.mediaFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid image upload"})
		return
	}

	message, err := h.Service.Send(c.Request.Context(), messaging.SendParams{
		FromUserID: p.ID,
		ToUserID:   toUserID,
		Text:       text,
		Media:      media,
	})
	if err != nil {
		h.respondSendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": message})
}

// ChatHistory returns the full exchange with one user, oldest first, and
// marks their messages as seen.
func (h MessageHandler) ChatHistory(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	otherUserID := strings.TrimSpace(c.Param("otherUserId"))
	if otherUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "other user id is required"})
		return
	}
	messages, err := h.Service.ChatHistory(c.Request.Context(), p.ID, otherUserID)
	if err != nil {
		h.logError("chat history failed", err, "user_id", p.ID, "other_user_id", otherUserID)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "cannot load chat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}

// Conversations returns one entry per counterpart, newest first.
func (h MessageHandler) Conversations(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	conversations, err := h.Service.Conversations(c.Request.Context(), p.ID)
	if err != nil {
		h.logError("conversations failed", err, "user_id", p.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "cannot load conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "conversations": conversations})
}

func (h MessageHandler) mediaFromForm(c *gin.Context) (*messaging.MediaFile, error) {
	header, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	if header.Size > maxMediaBytes {
		return nil, errors.New("image too large")
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxMediaBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxMediaBytes {
		return nil, errors.New("image too large")
	}
	return &messaging.MediaFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h MessageHandler) respondSendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, messaging.ErrEmptyMessage), errors.Is(err, domainmessage.ErrEmptyBody):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Message cannot be empty."})
	case errors.Is(err, messaging.ErrRecipientRequired):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "to_user_id is required"})
	case errors.Is(err, messaging.ErrUploadFailed):
		h.logError("media upload failed", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "media upload failed"})
	default:
		h.logError("send message failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "cannot send message"})
	}
}

func (h MessageHandler) logError(msg string, err error, attrs ...any) {
	if h.Logger != nil {
		h.Logger.Error(msg, append([]any{"error", err}, attrs...)...)
	}
}

var _ MessageHTTP = (*MessageHandler)(nil)
