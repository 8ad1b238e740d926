package memory

import (
	"context"
	"sync"
	"time"

	domainconnection "github.com/sarvagya80/SarvTribe/internal/domain/connection"
	domainuser "github.com/sarvagya80/SarvTribe/internal/domain/user"
)

// ConnectionRepository stores connection requests in memory.
type ConnectionRepository struct {
	mu          sync.RWMutex
	connections map[string]*domainconnection.Connection
}

func NewConnectionRepository() *ConnectionRepository {
	return &ConnectionRepository{connections: make(map[string]*domainconnection.Connection)}
}

func (r *ConnectionRepository) Save(ctx context.Context, conn *domainconnection.Connection) error {
	if conn == nil {
		return domainconnection.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.connections {
		if existing.ID != conn.ID && samePair(existing, conn.FromUserID, conn.ToUserID) {
			return domainconnection.ErrAlreadyExists
		}
	}
	r.connections[conn.ID] = cloneConnection(conn)
	return nil
}

func (r *ConnectionRepository) Between(ctx context.Context, a, b domainuser.ID) (*domainconnection.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, conn := range r.connections {
		if samePair(conn, a, b) {
			return cloneConnection(conn), nil
		}
	}
	return nil, domainconnection.ErrNotFound
}

func (r *ConnectionRepository) AcceptPending(ctx context.Context, fromUserID, toUserID domainuser.ID) (*domainconnection.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conn := range r.connections {
		if conn.FromUserID == fromUserID && conn.ToUserID == toUserID && conn.Status == domainconnection.StatusPending {
			conn.Status = domainconnection.StatusAccepted
			conn.UpdatedAt = time.Now().UTC()
			return cloneConnection(conn), nil
		}
	}
	return nil, domainconnection.ErrNotFound
}

func samePair(conn *domainconnection.Connection, a, b domainuser.ID) bool {
	return (conn.FromUserID == a && conn.ToUserID == b) ||
		(conn.FromUserID == b && conn.ToUserID == a)
}

func cloneConnection(c *domainconnection.Connection) *domainconnection.Connection {
	if c == nil {
		return nil
	}
	copyConnection := *c
	return &copyConnection
}

var _ domainconnection.Repository = (*ConnectionRepository)(nil)
