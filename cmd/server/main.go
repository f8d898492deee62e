package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"

	"github.com/mmynk/ledgeraudit/internal/audit"
	"github.com/mmynk/ledgeraudit/internal/auth"
	"github.com/mmynk/ledgeraudit/internal/config"
	"github.com/mmynk/ledgeraudit/internal/metrics"
	"github.com/mmynk/ledgeraudit/internal/middleware"
	"github.com/mmynk/ledgeraudit/internal/models"
	"github.com/mmynk/ledgeraudit/internal/service"
	"github.com/mmynk/ledgeraudit/internal/storage/sqlstore"
	"github.com/mmynk/ledgeraudit/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	store, err := sqlstore.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		slog.Error("Failed to initialize storage", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.DBDriver)

	logger := slog.Default()
	engine := audit.NewEngine(audit.WithPolicy(cfg.Policy), audit.WithLogger(logger))
	policy := engine.Policy()
	slog.Info("Audit policy loaded",
		"high_quantity_threshold", policy.HighQuantityThreshold,
		"low_remaining_ratio", policy.LowRemainingRatio,
		"price_deviation_ratio", policy.PriceDeviationRatio,
	)
	recorder := metrics.NewRecorder()
	jwtManager := auth.NewJWTManager(cfg.AuthSecret, cfg.AuthTokenTTL)
	authEnabled := cfg.AuthSecret != ""

	// Auth runs first so the logging interceptor sees the client id.
	var interceptors []connect.Interceptor
	if authEnabled {
		interceptors = append(interceptors, middleware.RequireAuth(jwtManager, service.ProcedureScopes))
	} else {
		slog.Warn("AUTH_SECRET is not set, API authentication is disabled")
	}
	interceptors = append(interceptors,
		middleware.LoggingInterceptor(logger),
		middleware.RateLimit(
			rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
			service.AuditServiceRunAuditProcedure,
		),
	)
	opts := connect.WithInterceptors(interceptors...)

	mux := http.NewServeMux()

	// Register Connect services
	mux.Handle(service.NewAuditServiceHandler(service.NewAuditService(engine, store, recorder, logger), opts))
	if authEnabled {
		mux.Handle(service.NewAuthServiceHandler(service.NewAuthService(auth.NewSecretAuthenticator(store), jwtManager, logger), opts))
	}

	exportHandler := service.NewExportHandler(store, logger)
	if authEnabled {
		exportHandler = middleware.RequireBearer(jwtManager, models.ScopeRead, exportHandler)
	}
	mux.Handle(service.ExportPath, exportHandler)
	mux.Handle("/metrics", recorder.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h2cHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, Content-Disposition")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
