package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/ledgeraudit/internal/auth"
	"github.com/mmynk/ledgeraudit/internal/models"
)

var _ auth.ClientStorage = (*Store)(nil)

// CreateClient persists a new API client.
func (s *Store) CreateClient(ctx context.Context, client *models.APIClient) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		"INSERT INTO api_clients (id, name, secret_hash, scope, created_at) VALUES (?, ?, ?, ?, ?)"),
		client.ID, client.Name, client.SecretHash, client.Scope, formatTime(client.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert api client: %w", err)
	}
	return nil
}

// GetClient retrieves an API client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (*models.APIClient, error) {
	var (
		client    models.APIClient
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT id, name, secret_hash, scope, created_at FROM api_clients WHERE id = ?"), id,
	).Scan(&client.ID, &client.Name, &client.SecretHash, &client.Scope, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", auth.ErrClientNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}
	if client.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("api client %s: %w", id, err)
	}
	return &client, nil
}
