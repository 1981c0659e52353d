// Package chat implements direct messages between staff members. Delivery is
// poll-first: the thread endpoint is authoritative and the websocket push is
// a latency optimization on top of it.
package chat

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID              uuid.UUID `json:"id"`
	SenderID        uuid.UUID `json:"sender_uuid"`
	ReceiverID      uuid.UUID `json:"receiver_uuid"`
	SenderDisplay   string    `json:"sender_display"`
	ReceiverDisplay string    `json:"receiver_display"`
	Content         string    `json:"content"`
	IsRead          bool      `json:"is_read"`
	SentAt          time.Time `json:"sent_at"`
}

// SendInput is a new message request. The sender comes from the
// authenticated identity, never from the body.
type SendInput struct {
	ReceiverUUID string `json:"receiver_uuid"`
	Content      string `json:"content"`
}
