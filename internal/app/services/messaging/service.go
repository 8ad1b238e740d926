package messaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sarvagya80/SarvTribe/internal/app/dto"
	"github.com/sarvagya80/SarvTribe/internal/app/stream"
	domainmessage "github.com/sarvagya80/SarvTribe/internal/domain/message"
	domainuser "github.com/sarvagya80/SarvTribe/internal/domain/user"
	"github.com/sarvagya80/SarvTribe/internal/infra/storage/s3"
)

var (
	ErrEmptyMessage      = errors.New("messaging: message cannot be empty")
	ErrRecipientRequired = errors.New("messaging: recipient is required")
	ErrUploadFailed      = errors.New("messaging: media upload failed")
)

// MediaFile is an in-memory attachment taken from a multipart form.
type MediaFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Service orchestrates the send path (validate, upload, persist, dispatch)
// and the read paths (chat history, conversation list).
type Service struct {
	Messages   domainmessage.Repository
	Users      domainuser.Repository
	Uploader   s3.Uploader
	Dispatcher stream.Dispatcher
	Logger     *slog.Logger
}

type SendParams struct {
	FromUserID string
	ToUserID   string
	Text       string
	Media      *MediaFile
}

// Send validates and persists a message, then pushes it to the recipient's
// live stream. The push is best-effort: its outcome never affects whether
// the send succeeds, because the authoritative copy is already stored and
// shows up on the recipient's next history fetch.
func (s *Service) Send(ctx context.Context, params SendParams) (dto.Message, error) {
	to := strings.TrimSpace(params.ToUserID)
	if to == "" {
		return dto.Message{}, ErrRecipientRequired
	}
	text := strings.TrimSpace(params.Text)
	if text == "" && params.Media == nil {
		return dto.Message{}, ErrEmptyMessage
	}

	kind := domainmessage.KindText
	mediaURL := ""
	if params.Media != nil {
		url, err := s.uploadMedia(ctx, params.FromUserID, params.Media)
		if err != nil {
			return dto.Message{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		mediaURL = url
		kind = domainmessage.KindImage
	}

	msg, err := domainmessage.New(domainmessage.CreateParams{
		ID:         uuid.NewString(),
		FromUserID: domainuser.ID(params.FromUserID),
		ToUserID:   domainuser.ID(to),
		Text:       text,
		MediaURL:   mediaURL,
		Kind:       kind,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return dto.Message{}, err
	}
	if err := s.Messages.Save(ctx, msg); err != nil {
		return dto.Message{}, err
	}

	populated := s.populate(ctx, msg)
	if s.Dispatcher != nil {
		s.Dispatcher.Dispatch(to, stream.EventNewMessage, populated)
	}
	if s.Logger != nil {
		s.Logger.Info("message sent", "message_id", msg.ID, "from", msg.FromUserID, "to", msg.ToUserID, "type", msg.Kind)
	}
	return populated, nil
}

// ChatHistory returns every message between the two users, oldest first,
// and marks the counterpart's unseen messages as seen. Read receipts ride
// on the fetch so the client does not need a separate mark-as-read call.
func (s *Service) ChatHistory(ctx context.Context, userID, otherUserID string) ([]dto.Message, error) {
	uid := domainuser.ID(userID)
	other := domainuser.ID(strings.TrimSpace(otherUserID))
	if other == "" {
		return nil, ErrRecipientRequired
	}

	messages, err := s.Messages.Between(ctx, uid, other)
	if err != nil {
		return nil, err
	}
	if _, err := s.Messages.MarkSeen(ctx, other, uid); err != nil {
		return nil, err
	}
	for _, msg := range messages {
		if msg.FromUserID == other {
			msg.Seen = true
		}
	}
	return s.populateAll(ctx, messages), nil
}

// Conversations returns the most recent message exchanged with each
// distinct counterpart, newest conversation first.
func (s *Service) Conversations(ctx context.Context, userID string) ([]dto.Message, error) {
	latest, err := s.Messages.LatestPerCounterpart(ctx, domainuser.ID(userID))
	if err != nil {
		return nil, err
	}
	return s.populateAll(ctx, latest), nil
}

func (s *Service) uploadMedia(ctx context.Context, senderID string, media *MediaFile) (string, error) {
	if s.Uploader == nil {
		return "", errors.New("messaging: uploader is not configured")
	}
	key := fmt.Sprintf("messages/message_%s_%d%s", senderID, time.Now().UnixMilli(), mediaExtension(media))
	return s.Uploader.Upload(ctx, key, bytes.NewReader(media.Data), media.ContentType)
}

func (s *Service) populate(ctx context.Context, msg *domainmessage.Message) dto.Message {
	return s.populateAll(ctx, []*domainmessage.Message{msg})[0]
}

func (s *Service) populateAll(ctx context.Context, messages []*domainmessage.Message) []dto.Message {
	ids := make([]domainuser.ID, 0, len(messages)*2)
	seen := make(map[domainuser.ID]struct{}, len(messages)*2)
	for _, msg := range messages {
		for _, id := range []domainuser.ID{msg.FromUserID, msg.ToUserID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	participants, err := s.Users.ByIDs(ctx, ids)
	if err != nil {
		// Display fields are cosmetic; fall back to bare identifiers.
		if s.Logger != nil {
			s.Logger.Warn("participant lookup failed", "error", err)
		}
		participants = nil
	}
	out := make([]dto.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, dto.MapMessage(msg, participants))
	}
	return out
}

func mediaExtension(media *MediaFile) string {
	if ext := path.Ext(media.Name); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(media.ContentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
