package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
)

const listThreadsLimit = 30

type threadRepository struct {
	db *sql.DB
}

func NewThreadRepository(db *sql.DB) *threadRepository {
	return &threadRepository{db: db}
}

// EnsureThread creates a thread with a store-assigned id. ownerID is empty
// for anonymous callers and stored as NULL.
func (r *threadRepository) EnsureThread(ctx context.Context, titleHint, ownerID string) (string, error) {
	const query = `
		INSERT INTO threads (title, user_id)
		VALUES ($1, $2)
		RETURNING id
	`

	title, _ := lo.Coalesce(truncateTitle(titleHint), "New chat")

	var id string
	err := r.db.QueryRowContext(ctx, query, title, nullable(ownerID)).Scan(&id)
	if err != nil {
		return "", &domain.PersistenceError{Op: "creating thread", Err: err}
	}

	return id, nil
}

// ListThreads returns the most recent threads scoped to the resolved owner.
// Anonymous callers only ever see ownerless threads and authenticated
// callers only their own.
func (r *threadRepository) ListThreads(ctx context.Context, ownerID string) ([]domain.Thread, error) {
	const anonymousQuery = `
		SELECT id, title, COALESCE(user_id, ''), created_at
		FROM threads
		WHERE user_id IS NULL
		ORDER BY created_at DESC
		LIMIT $1
	`
	const ownedQuery = `
		SELECT id, title, COALESCE(user_id, ''), created_at
		FROM threads
		WHERE user_id = $2
		ORDER BY created_at DESC
		LIMIT $1
	`

	var rows *sql.Rows
	var err error
	if ownerID == "" {
		rows, err = r.db.QueryContext(ctx, anonymousQuery, listThreadsLimit)
	} else {
		rows, err = r.db.QueryContext(ctx, ownedQuery, listThreadsLimit, ownerID)
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "listing threads", Err: err}
	}
	defer rows.Close()

	var threads []domain.Thread
	for rows.Next() {
		var t domain.Thread
		if err := rows.Scan(&t.ID, &t.Title, &t.UserID, &t.CreatedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "scanning thread", Err: err}
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "listing threads", Err: err}
	}

	return threads, nil
}

func (r *threadRepository) RenameThread(ctx context.Context, id, title string) error {
	const query = `
		UPDATE threads
		SET title = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, truncateTitle(title))
	if err != nil {
		return &domain.PersistenceError{Op: "renaming thread", Err: err}
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// DeleteThread removes a thread and all of its messages in one transaction.
func (r *threadRepository) DeleteThread(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "deleting thread", Err: err}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = $1`, id); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("deleting messages failed: %v, and rollback also failed: %v", err, rollbackErr)
		}
		return &domain.PersistenceError{Op: "deleting messages", Err: err}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM threads WHERE id = $1`, id)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("deleting thread failed: %v, and rollback also failed: %v", err, rollbackErr)
		}
		return &domain.PersistenceError{Op: "deleting thread", Err: err}
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			return rollbackErr
		}
		return domain.ErrNotFound
	}

	return tx.Commit()
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) > domain.MaxThreadTitleLength {
		return string(runes[:domain.MaxThreadTitleLength])
	}
	return title
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
