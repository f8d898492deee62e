package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/ledgeraudit/internal/auth"
)

// AuthService exchanges API client credentials for bearer tokens.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

var _ AuthServiceHandler = (*AuthService)(nil)

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// IssueToken authenticates a client and returns a signed token.
func (s *AuthService) IssueToken(ctx context.Context, req *connect.Request[IssueTokenRequest]) (*connect.Response[IssueTokenResponse], error) {
	if req.Msg.ClientID == "" || req.Msg.ClientSecret == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	client, err := s.authenticator.Authenticate(ctx, req.Msg.ClientID, req.Msg.ClientSecret)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Warn("Token request rejected", "client_id", req.Msg.ClientID)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}
	if err != nil {
		s.logger.Error("Failed to authenticate client", "client_id", req.Msg.ClientID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, errors.New("failed to authenticate client"))
	}

	issued := time.Now()
	token, err := s.jwtManager.Generate(client)
	if err != nil {
		s.logger.Error("Failed to generate token", "client_id", client.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Token issued", "client_id", client.ID, "scope", client.Scope)
	return connect.NewResponse(&IssueTokenResponse{
		Token:     token,
		Scope:     client.Scope,
		ExpiresAt: issued.Add(s.jwtManager.TTL()).UTC(),
	}), nil
}
