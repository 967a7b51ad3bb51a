package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
)

type messageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *messageRepository {
	return &messageRepository{db: db}
}

// SaveMessage appends one message row. Content is stored as an opaque JSON
// document and only ever interpreted after deserializing back into parts.
func (r *messageRepository) SaveMessage(ctx context.Context, threadID string, message domain.Message) error {
	const query = `
		INSERT INTO messages (thread_id, role, content)
		VALUES ($1, $2, $3)
	`

	content, err := json.Marshal(message.Content)
	if err != nil {
		return fmt.Errorf("serializing message content: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, threadID, string(message.Role), content); err != nil {
		return &domain.PersistenceError{Op: "saving message", Err: err}
	}

	return nil
}

// LoadMessages returns the full history of a thread ordered by creation
// time, with insertion order as tiebreak.
func (r *messageRepository) LoadMessages(ctx context.Context, threadID string) ([]domain.Message, error) {
	const query = `
		SELECT role, content, created_at
		FROM messages
		WHERE thread_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "loading messages", Err: err}
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		var role string
		var content []byte
		if err := rows.Scan(&role, &content, &m.CreatedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "scanning message", Err: err}
		}
		if err := json.Unmarshal(content, &m.Content); err != nil {
			return nil, fmt.Errorf("deserializing message content: %w", err)
		}
		m.Role = domain.Role(role)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "loading messages", Err: err}
	}

	return messages, nil
}
