package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with the caller's identity and granted scope when auth ran earlier in the
// chain.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure
			caller := []any{
				"client_id", GetClientID(ctx),
				"scope", GetScope(ctx),
				"peer", req.Peer().Addr,
			}

			resp, err := next(ctx, req)

			attrs := append([]any{"procedure", procedure}, caller...)
			attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())

			var connectErr *connect.Error
			switch {
			case err == nil:
				logger.Info("RPC ok", attrs...)
			case errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal && connectErr.Code() != connect.CodeUnknown:
				// Caller mistakes: bad input, missing token, rate limit.
				logger.Warn("RPC rejected", append(attrs, "code", connectErr.Code().String(), "error", connectErr.Message())...)
			default:
				logger.Error("RPC failed", append(attrs, "error", err)...)
			}

			return resp, err
		}
	}
}
