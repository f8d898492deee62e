package auth

import (
	"context"

	"github.com/mmynk/ledgeraudit/internal/models"
)

// Authenticator defines how API clients are registered and verified.
// This abstraction allows swapping credential schemes (shared secrets,
// mTLS identities, OAuth) without changing the service layer code.
type Authenticator interface {
	// Register creates a new API client holding the given credential.
	Register(ctx context.Context, name, scope, credential string) (*models.APIClient, error)

	// Authenticate verifies the client's credential and returns the client.
	Authenticate(ctx context.Context, clientID, credential string) (*models.APIClient, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
