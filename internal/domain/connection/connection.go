package connection

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sarvagya80/SarvTribe/internal/domain/user"
)

var (
	ErrIDRequired        = errors.New("connection: id is required")
	ErrRequesterRequired = errors.New("connection: requester is required")
	ErrTargetRequired    = errors.New("connection: target is required")
	ErrSelfConnection    = errors.New("connection: cannot connect with yourself")
	ErrAlreadyExists     = errors.New("connection: request already exists")
	ErrNotFound          = errors.New("connection: not found")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
)

// Connection is a directed friend/connection request between two users.
type Connection struct {
	ID         string
	FromUserID user.ID
	ToUserID   user.ID
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Repository interface {
	Save(ctx context.Context, conn *Connection) error
	// Between finds a connection in either direction, pending or accepted.
	Between(ctx context.Context, a, b user.ID) (*Connection, error)
	// AcceptPending flips the pending request from→to to accepted.
	AcceptPending(ctx context.Context, fromUserID, toUserID user.ID) (*Connection, error)
}

type CreateParams struct {
	ID         string
	FromUserID user.ID
	ToUserID   user.ID
	CreatedAt  time.Time
}

func New(params CreateParams) (*Connection, error) {
	id := strings.TrimSpace(params.ID)
	if id == "" {
		return nil, ErrIDRequired
	}
	from := user.ID(strings.TrimSpace(string(params.FromUserID)))
	if from == "" {
		return nil, ErrRequesterRequired
	}
	to := user.ID(strings.TrimSpace(string(params.ToUserID)))
	if to == "" {
		return nil, ErrTargetRequired
	}
	if from == to {
		return nil, ErrSelfConnection
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Connection{
		ID:         id,
		FromUserID: from,
		ToUserID:   to,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
