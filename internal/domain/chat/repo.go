package chat

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Message) error
	// Thread returns all messages between the two staff members in both
	// directions, ascending by sent_at.
	Thread(ctx context.Context, a, b uuid.UUID) ([]*Message, error)
	// MarkRead flags every unread message from sender to receiver as read.
	MarkRead(ctx context.Context, senderID, receiverID uuid.UUID) error
}
