package dto

import (
	"time"

	domainconnection "github.com/sarvagya80/SarvTribe/internal/domain/connection"
)

type Connection struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ConnectionRequestEvent is the payload pushed as a newConnectionRequest
// stream event: a short human-readable line plus enough identity for the
// client to refresh its network view.
type ConnectionRequestEvent struct {
	Message  string      `json:"message"`
	FromUser UserSummary `json:"from_user"`
}

func MapConnection(conn *domainconnection.Connection) Connection {
	if conn == nil {
		return Connection{}
	}
	return Connection{
		ID:         conn.ID,
		FromUserID: string(conn.FromUserID),
		ToUserID:   string(conn.ToUserID),
		Status:     string(conn.Status),
		CreatedAt:  conn.CreatedAt,
		UpdatedAt:  conn.UpdatedAt,
	}
}
