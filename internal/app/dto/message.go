package dto

import (
	"time"

	domainmessage "github.com/sarvagya80/SarvTribe/internal/domain/message"
	domainuser "github.com/sarvagya80/SarvTribe/internal/domain/user"
)

// Message is a chat message joined with both participants' display fields.
// The same shape is returned to the sender and pushed to the recipient's
// live stream.
type Message struct {
	ID          string      `json:"id"`
	FromUser    UserSummary `json:"from_user_id"`
	ToUser      UserSummary `json:"to_user_id"`
	Text        string      `json:"text"`
	MessageType string      `json:"message_type"`
	MediaURL    string      `json:"media_url,omitempty"`
	Seen        bool        `json:"seen"`
	CreatedAt   time.Time   `json:"created_at"`
}

func MapMessage(msg *domainmessage.Message, participants map[domainuser.ID]*domainuser.User) Message {
	if msg == nil {
		return Message{}
	}
	out := Message{
		ID:          msg.ID,
		Text:        msg.Text,
		MessageType: string(msg.Kind),
		MediaURL:    msg.MediaURL,
		Seen:        msg.Seen,
		CreatedAt:   msg.CreatedAt,
	}
	out.FromUser = summaryFor(msg.FromUserID, participants)
	out.ToUser = summaryFor(msg.ToUserID, participants)
	return out
}

func summaryFor(id domainuser.ID, participants map[domainuser.ID]*domainuser.User) UserSummary {
	if u, ok := participants[id]; ok {
		return MapUserSummary(u)
	}
	return UserSummary{ID: string(id)}
}
