package connections

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sarvagya80/SarvTribe/internal/app/dto"
	"github.com/sarvagya80/SarvTribe/internal/app/stream"
	domainconnection "github.com/sarvagya80/SarvTribe/internal/domain/connection"
	domainuser "github.com/sarvagya80/SarvTribe/internal/domain/user"
)

// Service handles connection requests between users. It reuses the same
// dispatch path as messaging: any backend action that needs to notify a
// specific online user goes through the Dispatcher.
type Service struct {
	Connections domainconnection.Repository
	Users       domainuser.Repository
	Dispatcher  stream.Dispatcher
	Logger      *slog.Logger
}

// Request records a pending connection request and notifies the target if
// they hold a live stream.
func (s *Service) Request(ctx context.Context, fromUserID, toUserID string) (dto.Connection, error) {
	from := domainuser.ID(strings.TrimSpace(fromUserID))
	to := domainuser.ID(strings.TrimSpace(toUserID))
	if from == to {
		return dto.Connection{}, domainconnection.ErrSelfConnection
	}

	existing, err := s.Connections.Between(ctx, from, to)
	if err != nil && err != domainconnection.ErrNotFound {
		return dto.Connection{}, err
	}
	if existing != nil {
		return dto.Connection{}, domainconnection.ErrAlreadyExists
	}

	conn, err := domainconnection.New(domainconnection.CreateParams{
		ID:         uuid.NewString(),
		FromUserID: from,
		ToUserID:   to,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return dto.Connection{}, err
	}
	if err := s.Connections.Save(ctx, conn); err != nil {
		return dto.Connection{}, err
	}

	if s.Dispatcher != nil {
		s.Dispatcher.Dispatch(string(to), stream.EventNewConnectionRequest, s.requestEvent(ctx, from))
	}
	if s.Logger != nil {
		s.Logger.Info("connection request sent", "from", from, "to", to)
	}
	return dto.MapConnection(conn), nil
}

// Accept flips a pending request addressed to userID to accepted.
func (s *Service) Accept(ctx context.Context, userID, requesterID string) (dto.Connection, error) {
	conn, err := s.Connections.AcceptPending(ctx, domainuser.ID(strings.TrimSpace(requesterID)), domainuser.ID(userID))
	if err != nil {
		return dto.Connection{}, err
	}
	if s.Logger != nil {
		s.Logger.Info("connection request accepted", "from", conn.FromUserID, "to", conn.ToUserID)
	}
	return dto.MapConnection(conn), nil
}

func (s *Service) requestEvent(ctx context.Context, from domainuser.ID) dto.ConnectionRequestEvent {
	event := dto.ConnectionRequestEvent{
		Message:  "You have a new connection request.",
		FromUser: dto.UserSummary{ID: string(from)},
	}
	requester, err := s.Users.ByID(ctx, from)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("requester lookup failed", "user_id", from, "error", err)
		}
		return event
	}
	event.Message = fmt.Sprintf("%s sent you a connection request.", requester.FullName)
	event.FromUser = dto.MapUserSummary(requester)
	return event
}
