package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/ledgeraudit/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid client id or secret")
	ErrWeakSecret         = errors.New("client secret must be at least 16 characters")
	ErrInvalidScope       = errors.New("scope must be \"read\" or \"run\"")
	ErrClientNotFound     = errors.New("api client not found")
)

// ClientStorage defines the persistence operations for API clients.
// This allows the authenticator to be independent of the storage implementation.
type ClientStorage interface {
	CreateClient(ctx context.Context, client *models.APIClient) error
	GetClient(ctx context.Context, id string) (*models.APIClient, error)
}

// SecretAuthenticator implements shared-secret client authentication using bcrypt.
type SecretAuthenticator struct {
	storage ClientStorage
}

var _ Authenticator = (*SecretAuthenticator)(nil)

// NewSecretAuthenticator creates a new shared-secret authenticator.
func NewSecretAuthenticator(storage ClientStorage) *SecretAuthenticator {
	return &SecretAuthenticator{storage: storage}
}

// GenerateSecret returns a random 32-byte secret, hex encoded.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidateCredential checks if the secret meets minimum requirements.
func (a *SecretAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 16 {
		return ErrWeakSecret
	}
	return nil
}

// Register creates a new API client with a hashed secret.
func (a *SecretAuthenticator) Register(ctx context.Context, name, scope, credential string) (*models.APIClient, error) {
	if scope != models.ScopeRead && scope != models.ScopeRun {
		return nil, ErrInvalidScope
	}
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash secret: %w", err)
	}

	client := models.NewAPIClient(name, scope, string(hash))
	if err := a.storage.CreateClient(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// Authenticate verifies the client id and secret. An unknown client and a
// wrong secret both yield ErrInvalidCredentials; storage failures are
// returned as is.
func (a *SecretAuthenticator) Authenticate(ctx context.Context, clientID, credential string) (*models.APIClient, error) {
	client, err := a.storage.GetClient(ctx, clientID)
	if errors.Is(err, ErrClientNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up client: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return client, nil
}
