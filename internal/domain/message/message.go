package message

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sarvagya80/SarvTribe/internal/domain/user"
)

var (
	ErrIDRequired        = errors.New("message: id is required")
	ErrSenderRequired    = errors.New("message: sender is required")
	ErrRecipientRequired = errors.New("message: recipient is required")
	ErrEmptyBody         = errors.New("message: text or media url is required")
	ErrTextRequired      = errors.New("message: text message requires text")
	ErrMediaURLRequired  = errors.New("message: image message requires a media url")
	ErrInvalidKind       = errors.New("message: invalid message type")
	ErrNotFound          = errors.New("message: not found")
)

// Kind discriminates text-only messages from media-carrying ones.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

type Message struct {
	ID         string
	FromUserID user.ID
	ToUserID   user.ID
	Text       string
	MediaURL   string
	Kind       Kind
	Seen       bool
	CreatedAt  time.Time
}

// Counterpart returns the other participant of the message relative to id.
func (m *Message) Counterpart(id user.ID) user.ID {
	if m.FromUserID == id {
		return m.ToUserID
	}
	return m.FromUserID
}

type Repository interface {
	Save(ctx context.Context, msg *Message) error
	// Between returns every message exchanged by the two users, oldest first.
	Between(ctx context.Context, userID, otherUserID user.ID) ([]*Message, error)
	// MarkSeen flips seen on all unseen messages from one user to another
	// and reports how many documents changed.
	MarkSeen(ctx context.Context, fromUserID, toUserID user.ID) (int64, error)
	// LatestPerCounterpart returns, for each distinct counterpart of userID,
	// the single most recent message, newest conversation first. Ties on the
	// timestamp break deterministically so repeated calls never reorder.
	LatestPerCounterpart(ctx context.Context, userID user.ID) ([]*Message, error)
}

type CreateParams struct {
	ID         string
	FromUserID user.ID
	ToUserID   user.ID
	Text       string
	MediaURL   string
	Kind       Kind
	CreatedAt  time.Time
}

func New(params CreateParams) (*Message, error) {
	id := strings.TrimSpace(params.ID)
	if id == "" {
		return nil, ErrIDRequired
	}
	from := user.ID(strings.TrimSpace(string(params.FromUserID)))
	if from == "" {
		return nil, ErrSenderRequired
	}
	to := user.ID(strings.TrimSpace(string(params.ToUserID)))
	if to == "" {
		return nil, ErrRecipientRequired
	}
	text := strings.TrimSpace(params.Text)
	mediaURL := strings.TrimSpace(params.MediaURL)
	if text == "" && mediaURL == "" {
		return nil, ErrEmptyBody
	}
	switch params.Kind {
	case KindText:
		if text == "" {
			return nil, ErrTextRequired
		}
	case KindImage:
		if mediaURL == "" {
			return nil, ErrMediaURLRequired
		}
	default:
		return nil, ErrInvalidKind
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}

	return &Message{
		ID:         id,
		FromUserID: from,
		ToUserID:   to,
		Text:       text,
		MediaURL:   mediaURL,
		Kind:       params.Kind,
		Seen:       false,
		CreatedAt:  now.UTC(),
	}, nil
}
