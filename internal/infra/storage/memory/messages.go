package memory

import (
	"context"
	"sort"
	"sync"

	domainmessage "github.com/sarvagya80/SarvTribe/internal/domain/message"
	domainuser "github.com/sarvagya80/SarvTribe/internal/domain/user"
)

// MessageRepository stores messages in memory with the same query semantics
// as the Mongo implementation. Used by tests and no-database local runs.
type MessageRepository struct {
	mu       sync.RWMutex
	messages []*domainmessage.Message
	byID     map[string]int
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{byID: make(map[string]int)}
}

func (r *MessageRepository) Save(ctx context.Context, msg *domainmessage.Message) error {
	if msg == nil {
		return domainmessage.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.byID[msg.ID]; ok {
		r.messages[idx] = cloneMessage(msg)
		return nil
	}
	r.byID[msg.ID] = len(r.messages)
	r.messages = append(r.messages, cloneMessage(msg))
	return nil
}

func (r *MessageRepository) Between(ctx context.Context, userID, otherUserID domainuser.ID) ([]*domainmessage.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainmessage.Message
	for _, msg := range r.messages {
		if (msg.FromUserID == userID && msg.ToUserID == otherUserID) ||
			(msg.FromUserID == otherUserID && msg.ToUserID == userID) {
			out = append(out, cloneMessage(msg))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MessageRepository) MarkSeen(ctx context.Context, fromUserID, toUserID domainuser.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changed int64
	for _, msg := range r.messages {
		if msg.FromUserID == fromUserID && msg.ToUserID == toUserID && !msg.Seen {
			msg.Seen = true
			changed++
		}
	}
	return changed, nil
}

func (r *MessageRepository) LatestPerCounterpart(ctx context.Context, userID domainuser.ID) ([]*domainmessage.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	latest := make(map[domainuser.ID]*domainmessage.Message)
	for _, msg := range r.messages {
		if msg.FromUserID != userID && msg.ToUserID != userID {
			continue
		}
		counterpart := msg.Counterpart(userID)
		current, ok := latest[counterpart]
		if !ok || newerThan(msg, current) {
			latest[counterpart] = msg
		}
	}
	out := make([]*domainmessage.Message, 0, len(latest))
	for _, msg := range latest {
		out = append(out, cloneMessage(msg))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func newerThan(a, b *domainmessage.Message) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func cloneMessage(m *domainmessage.Message) *domainmessage.Message {
	if m == nil {
		return nil
	}
	copyMessage := *m
	return &copyMessage
}

var _ domainmessage.Repository = (*MessageRepository)(nil)
