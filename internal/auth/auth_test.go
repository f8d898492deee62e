package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/ledgeraudit/internal/models"
)

type memoryClients struct {
	clients map[string]*models.APIClient
}

func (m *memoryClients) CreateClient(_ context.Context, c *models.APIClient) error {
	m.clients[c.ID] = c
	return nil
}

func (m *memoryClients) GetClient(_ context.Context, id string) (*models.APIClient, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	return c, nil
}

// brokenClients fails every lookup the way an unreachable database would.
type brokenClients struct{}

var errStorageDown = errors.New("connection refused")

func (brokenClients) CreateClient(context.Context, *models.APIClient) error { return errStorageDown }

func (brokenClients) GetClient(context.Context, string) (*models.APIClient, error) {
	return nil, errStorageDown
}

func TestJWTManager(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	client := &models.APIClient{ID: "client-1", Name: "cron", Scope: models.ScopeRead}

	token, err := manager.Generate(client)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	t.Run("valid token", func(t *testing.T) {
		claims, err := manager.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.Subject != "client-1" || claims.Name != "cron" {
			t.Errorf("claims = %+v", claims)
		}
		if !claims.Allows(models.ScopeRead) || claims.Allows(models.ScopeRun) {
			t.Errorf("read scope should allow read only")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other-secret", time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager("test-secret", -time.Minute)
		old, err := expired.GenerateFor("client-1", "", models.ScopeRun)
		if err != nil {
			t.Fatalf("GenerateFor failed: %v", err)
		}
		if _, err := manager.Validate(old); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("rejects none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Scope: models.ScopeRun})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("failed to build unsigned token: %v", err)
		}
		if _, err := manager.Validate(raw); err == nil {
			t.Error("expected unsigned token to be rejected")
		}
	})
}

func TestScopeAllows(t *testing.T) {
	tests := []struct {
		granted, required string
		want              bool
	}{
		{models.ScopeRun, models.ScopeRun, true},
		{models.ScopeRun, models.ScopeRead, true},
		{models.ScopeRead, models.ScopeRead, true},
		{models.ScopeRead, models.ScopeRun, false},
		{"", models.ScopeRead, false},
		{models.ScopeRun, "admin", false},
	}
	for _, tt := range tests {
		if got := models.ScopeAllows(tt.granted, tt.required); got != tt.want {
			t.Errorf("ScopeAllows(%q, %q) = %v, want %v", tt.granted, tt.required, got, tt.want)
		}
	}
}

func TestSecretAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := NewSecretAuthenticator(&memoryClients{clients: map[string]*models.APIClient{}})

	secret, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	if len(secret) != 64 {
		t.Errorf("secret length = %d, want 64", len(secret))
	}

	client, err := a.Register(ctx, "nightly", models.ScopeRun, secret)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if client.SecretHash == secret || !strings.HasPrefix(client.SecretHash, "$2") {
		t.Error("secret should be stored as a bcrypt hash")
	}

	t.Run("authenticate", func(t *testing.T) {
		got, err := a.Authenticate(ctx, client.ID, secret)
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if got.ID != client.ID {
			t.Errorf("client id = %s, want %s", got.ID, client.ID)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := a.Authenticate(ctx, client.ID, secret+"x"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown client", func(t *testing.T) {
		if _, err := a.Authenticate(ctx, "nobody", secret); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("weak secret", func(t *testing.T) {
		if _, err := a.Register(ctx, "weak", models.ScopeRead, "short"); !errors.Is(err, ErrWeakSecret) {
			t.Errorf("expected ErrWeakSecret, got %v", err)
		}
	})

	t.Run("bad scope", func(t *testing.T) {
		if _, err := a.Register(ctx, "admin", "admin", secret); !errors.Is(err, ErrInvalidScope) {
			t.Errorf("expected ErrInvalidScope, got %v", err)
		}
	})
}

func TestAuthenticateStorageFailure(t *testing.T) {
	a := NewSecretAuthenticator(brokenClients{})

	_, err := a.Authenticate(context.Background(), "client-1", "0123456789abcdef")
	if !errors.Is(err, errStorageDown) {
		t.Fatalf("expected the storage error, got %v", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("a storage failure must not look like bad credentials")
	}
}
