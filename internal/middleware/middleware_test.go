package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mmynk/ledgeraudit/internal/auth"
	"github.com/mmynk/ledgeraudit/internal/models"
)

const (
	whoAmIProcedure = "/test.v1.TestService/WhoAmI"
	runProcedure    = "/test.v1.TestService/Run"
	publicProcedure = "/test.v1.TestService/Ping"
	failProcedure   = "/test.v1.TestService/Fail"
)

var testScopes = map[string]string{
	whoAmIProcedure: models.ScopeRead,
	runProcedure:    models.ScopeRun,
	failProcedure:   models.ScopeRead,
}

// whoAmI echoes the identity the interceptors put on the context.
func whoAmI(ctx context.Context, _ *connect.Request[wrapperspb.StringValue]) (*connect.Response[wrapperspb.StringValue], error) {
	return connect.NewResponse(wrapperspb.String(GetClientID(ctx) + "|" + GetScope(ctx))), nil
}

func fail(context.Context, *connect.Request[wrapperspb.StringValue]) (*connect.Response[wrapperspb.StringValue], error) {
	return nil, connect.NewError(connect.CodeInternal, errors.New("database is down"))
}

func setupServer(t *testing.T, interceptors ...connect.Interceptor) string {
	t.Helper()
	opts := connect.WithInterceptors(interceptors...)
	mux := http.NewServeMux()
	for _, p := range []string{whoAmIProcedure, runProcedure, publicProcedure} {
		mux.Handle(p, connect.NewUnaryHandler(p, whoAmI, opts))
	}
	mux.Handle(failProcedure, connect.NewUnaryHandler(failProcedure, fail, opts))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func call(ctx context.Context, baseURL, procedure, authorization string) (string, error) {
	client := connect.NewClient[wrapperspb.StringValue, wrapperspb.StringValue](http.DefaultClient, baseURL+procedure)
	req := connect.NewRequest(wrapperspb.String(""))
	if authorization != "" {
		req.Header().Set("Authorization", authorization)
	}
	resp, err := client.CallUnary(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Msg.GetValue(), nil
}

func tokens(t *testing.T, manager *auth.JWTManager) (read, run string) {
	t.Helper()
	read, err := manager.GenerateFor("dashboard", "dashboard", models.ScopeRead)
	if err != nil {
		t.Fatalf("GenerateFor failed: %v", err)
	}
	run, err = manager.GenerateFor("scheduler", "scheduler", models.ScopeRun)
	if err != nil {
		t.Fatalf("GenerateFor failed: %v", err)
	}
	return read, run
}

func TestRequireAuth(t *testing.T) {
	manager := auth.NewJWTManager("middleware-secret", time.Hour)
	readToken, runToken := tokens(t, manager)
	expired, err := auth.NewJWTManager("middleware-secret", -time.Minute).GenerateFor("old", "", models.ScopeRun)
	if err != nil {
		t.Fatalf("GenerateFor failed: %v", err)
	}
	baseURL := setupServer(t, RequireAuth(manager, testScopes))

	tests := []struct {
		name          string
		procedure     string
		authorization string
		wantCode      connect.Code
		want          string
	}{
		{"missing header", whoAmIProcedure, "", connect.CodeUnauthenticated, ""},
		{"wrong scheme", whoAmIProcedure, "Basic " + readToken, connect.CodeUnauthenticated, ""},
		{"extra fields", whoAmIProcedure, "Bearer " + readToken + " trailing", connect.CodeUnauthenticated, ""},
		{"garbage token", whoAmIProcedure, "Bearer not-a-jwt", connect.CodeUnauthenticated, ""},
		{"expired token", whoAmIProcedure, "Bearer " + expired, connect.CodeUnauthenticated, ""},
		{"read token on run procedure", runProcedure, "Bearer " + readToken, connect.CodePermissionDenied, ""},
		{"read token on read procedure", whoAmIProcedure, "Bearer " + readToken, 0, "dashboard|read"},
		{"run token implies read", whoAmIProcedure, "Bearer " + runToken, 0, "scheduler|run"},
		{"run token on run procedure", runProcedure, "Bearer " + runToken, 0, "scheduler|run"},
		{"public procedure", publicProcedure, "", 0, "|"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(context.Background(), baseURL, tt.procedure, tt.authorization)
			if tt.wantCode != 0 {
				if connect.CodeOf(err) != tt.wantCode {
					t.Fatalf("code = %v, want %v (err %v)", connect.CodeOf(err), tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("identity = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireBearer(t *testing.T) {
	manager := auth.NewJWTManager("middleware-secret", time.Hour)
	readToken, runToken := tokens(t, manager)
	other, err := auth.NewJWTManager("another-secret", time.Hour).GenerateFor("x", "", models.ScopeRun)
	if err != nil {
		t.Fatalf("GenerateFor failed: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetClientID(r.Context()) + "|" + GetScope(r.Context())))
	})

	tests := []struct {
		name          string
		required      string
		authorization string
		wantStatus    int
		wantBody      string
	}{
		{"missing header", models.ScopeRead, "", http.StatusUnauthorized, ""},
		{"bare token", models.ScopeRead, readToken, http.StatusUnauthorized, ""},
		{"lowercase scheme", models.ScopeRead, "bearer " + readToken, http.StatusUnauthorized, ""},
		{"double space", models.ScopeRead, "Bearer  " + readToken, http.StatusUnauthorized, ""},
		{"foreign signature", models.ScopeRead, "Bearer " + other, http.StatusUnauthorized, ""},
		{"read token needs run", models.ScopeRun, "Bearer " + readToken, http.StatusForbidden, ""},
		{"read token", models.ScopeRead, "Bearer " + readToken, http.StatusOK, "dashboard|read"},
		{"run token", models.ScopeRun, "Bearer " + runToken, http.StatusOK, "scheduler|run"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/reports/export?id=1", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			rec := httptest.NewRecorder()

			RequireBearer(manager, tt.required, next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	baseURL := setupServer(t, RateLimit(rate.NewLimiter(0, 2), runProcedure))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := call(ctx, baseURL, runProcedure, ""); err != nil {
			t.Fatalf("call %d should pass: %v", i+1, err)
		}
	}

	_, err := call(ctx, baseURL, runProcedure, "")
	if connect.CodeOf(err) != connect.CodeResourceExhausted {
		t.Fatalf("code = %v, want resource_exhausted", connect.CodeOf(err))
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) || connectErr.Message() != ErrRateLimited.Error() {
		t.Errorf("err = %v, want %v", err, ErrRateLimited)
	}

	for i := 0; i < 3; i++ {
		if _, err := call(ctx, baseURL, whoAmIProcedure, ""); err != nil {
			t.Errorf("unlimited call %d failed: %v", i+1, err)
		}
	}
}

func TestLoggingInterceptor(t *testing.T) {
	manager := auth.NewJWTManager("middleware-secret", time.Hour)
	_, runToken := tokens(t, manager)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	baseURL := setupServer(t, RequireAuth(manager, testScopes), LoggingInterceptor(logger))
	ctx := context.Background()

	lastEntry := func(t *testing.T) map[string]any {
		t.Helper()
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		var entry map[string]any
		if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
			t.Fatalf("log line is not JSON: %v", err)
		}
		return entry
	}

	t.Run("success carries caller", func(t *testing.T) {
		if _, err := call(ctx, baseURL, whoAmIProcedure, "Bearer "+runToken); err != nil {
			t.Fatalf("call failed: %v", err)
		}
		entry := lastEntry(t)
		if entry["msg"] != "RPC ok" || entry["level"] != "INFO" {
			t.Errorf("entry = %v", entry)
		}
		if entry["procedure"] != whoAmIProcedure || entry["client_id"] != "scheduler" || entry["scope"] != models.ScopeRun {
			t.Errorf("entry = %v", entry)
		}
		if _, ok := entry["duration_ms"]; !ok {
			t.Error("duration_ms missing")
		}
	})

	t.Run("internal failure is an error", func(t *testing.T) {
		if _, err := call(ctx, baseURL, failProcedure, "Bearer "+runToken); connect.CodeOf(err) != connect.CodeInternal {
			t.Fatalf("code = %v, want internal", connect.CodeOf(err))
		}
		entry := lastEntry(t)
		if entry["msg"] != "RPC failed" || entry["level"] != "ERROR" {
			t.Errorf("entry = %v", entry)
		}
	})
}
