package middleware

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a limited procedure is called too often.
var ErrRateLimited = errors.New("too many audit requests, retry later")

// RateLimit returns an interceptor that rejects calls to the given procedures
// once limiter runs out of tokens. Other procedures pass through.
func RateLimit(limiter *rate.Limiter, procedures ...string) connect.UnaryInterceptorFunc {
	limited := make(map[string]struct{}, len(procedures))
	for _, p := range procedures {
		limited[p] = struct{}{}
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if _, ok := limited[req.Spec().Procedure]; ok && !limiter.Allow() {
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}
