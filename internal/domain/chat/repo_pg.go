package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, m *Message) error {
	m.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat_message (id, sender_id, receiver_id, content, is_read, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.SenderID, m.ReceiverID, m.Content, m.IsRead, m.SentAt)
	return err
}

func (r *repoPG) Thread(ctx context.Context, a, b uuid.UUID) ([]*Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.sender_id, m.receiver_id,
			snd.display_name, rcv.display_name,
			m.content, m.is_read, m.sent_at
		FROM chat_message m
		JOIN staff snd ON snd.id = m.sender_id
		JOIN staff rcv ON rcv.id = m.receiver_id
		WHERE (m.sender_id = $1 AND m.receiver_id = $2)
		   OR (m.sender_id = $2 AND m.receiver_id = $1)
		ORDER BY m.sent_at ASC`, a, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID,
			&m.SenderDisplay, &m.ReceiverDisplay,
			&m.Content, &m.IsRead, &m.SentAt); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}

func (r *repoPG) MarkRead(ctx context.Context, senderID, receiverID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE chat_message SET is_read = TRUE
		WHERE sender_id = $1 AND receiver_id = $2 AND NOT is_read`,
		senderID, receiverID)
	return err
}
