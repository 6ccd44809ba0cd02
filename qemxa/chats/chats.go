package chats

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// creates a new chat repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// finds the chat for a vehicle and its owner
func (r *Repository) FindByKey(ctx context.Context, vin, userID string) (*Chat, error) {
	var chat Chat
	var serviceHistory []byte

	err := r.db.QueryRow(ctx, queryFindByKey, vin, userID).Scan(
		&chat.VIN,
		&chat.UserID,
		&chat.Messages,
		&serviceHistory,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrChatNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	chat.ServiceHistory = serviceHistory

	return &chat, nil
}

// writes the message list, creating the chat row when missing. service
// history on an existing row is left as is.
func (r *Repository) UpsertMessages(ctx context.Context, vin, userID string, messages Messages) error {
	if _, err := r.db.Exec(ctx, queryUpsertMessages, vin, userID, messages); err != nil {
		return fmt.Errorf("failed to save chat: %w", err)
	}

	return nil
}

// removes a vehicle's chat
func (r *Repository) Delete(ctx context.Context, vin, userID string) error {
	if _, err := r.db.Exec(ctx, queryDeleteByVIN, vin, userID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	return nil
}
