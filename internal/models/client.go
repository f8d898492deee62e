package models

import (
	"time"

	"github.com/google/uuid"
)

// Scopes an API client may hold. ScopeRun implies ScopeRead.
const (
	ScopeRead = "read"
	ScopeRun  = "run"
)

// APIClient is a machine identity allowed to call the audit API.
// Clients exchange their secret for a short-lived bearer token.
type APIClient struct {
	// ID is the unique identifier for the client (UUID format).
	ID string

	// Name is a human label, e.g. "nightly-cron".
	Name string

	// SecretHash is the bcrypt hash of the client secret.
	SecretHash string

	// Scope is ScopeRead or ScopeRun.
	Scope string

	CreatedAt time.Time
}

// NewAPIClient creates a client with a fresh id.
func NewAPIClient(name, scope, secretHash string) *APIClient {
	return &APIClient{
		ID:         uuid.New().String(),
		Name:       name,
		SecretHash: secretHash,
		Scope:      scope,
		CreatedAt:  time.Now().UTC(),
	}
}

// ScopeAllows reports whether a granted scope covers the required one.
func ScopeAllows(granted, required string) bool {
	switch required {
	case ScopeRead:
		return granted == ScopeRead || granted == ScopeRun
	case ScopeRun:
		return granted == ScopeRun
	default:
		return false
	}
}
