package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medcdss/cdss/internal/domain/staff"
	"github.com/medcdss/cdss/internal/platform/websocket"
)

var (
	ErrInvalidInput  = errors.New("invalid chat message")
	ErrStaffNotFound = errors.New("staff member not found")
)

// StaffDirectory resolves staff identities for message addressing.
// *staff.Service satisfies it.
type StaffDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*staff.Staff, error)
}

type Service struct {
	repo   Repository
	staff  StaffDirectory
	events websocket.Publisher
	log    zerolog.Logger
}

func NewService(repo Repository, staffDir StaffDirectory, events websocket.Publisher, log zerolog.Logger) *Service {
	return &Service{repo: repo, staff: staffDir, events: events, log: log}
}

func (s *Service) lookup(ctx context.Context, id uuid.UUID) (*staff.Staff, error) {
	member, err := s.staff.Get(ctx, id)
	if errors.Is(err, staff.ErrNotFound) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

// Send persists a message from the authenticated sender and pushes it to the
// receiver's inbox topic. A failed push is logged and swallowed: the receiver
// still sees the message through the thread endpoint.
func (s *Service) Send(ctx context.Context, senderID uuid.UUID, in SendInput) (*Message, error) {
	if in.Content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	receiverID, err := uuid.Parse(in.ReceiverUUID)
	if err != nil {
		return nil, fmt.Errorf("%w: receiver_uuid is not a valid uuid", ErrInvalidInput)
	}

	sender, err := s.lookup(ctx, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.lookup(ctx, receiverID)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		SenderID:        senderID,
		ReceiverID:      receiverID,
		SenderDisplay:   sender.DisplayName,
		ReceiverDisplay: receiver.DisplayName,
		Content:         in.Content,
		SentAt:          time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	event := websocket.NewEvent(websocket.EventChatMessage, websocket.StaffTopic(receiverID), msg)
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("receiver_id", receiverID.String()).
			Msg("could not push chat message event")
	}
	return msg, nil
}

// Thread returns the full conversation with the peer, oldest first. Opening
// the thread marks the peer's unread messages to the caller as read.
func (s *Service) Thread(ctx context.Context, callerID uuid.UUID, peerUUID string) ([]*Message, error) {
	peerID, err := uuid.Parse(peerUUID)
	if err != nil {
		return nil, fmt.Errorf("%w: peer uuid is not a valid uuid", ErrInvalidInput)
	}
	if _, err := s.lookup(ctx, peerID); err != nil {
		return nil, err
	}

	if err := s.repo.MarkRead(ctx, peerID, callerID); err != nil {
		s.log.Warn().Err(err).Str("peer_id", peerID.String()).
			Msg("could not mark thread as read")
	}

	messages, err := s.repo.Thread(ctx, callerID, peerID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*Message{}
	}
	return messages, nil
}
