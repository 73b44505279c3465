package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"card-manager/internal/config"
	"card-manager/internal/domain"
	"card-manager/internal/handler"
	"card-manager/internal/repository"
	"card-manager/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Server represents the HTTP server
type Server struct {
	handler http.Handler
	server  *http.Server
	db      *sql.DB
	manager *service.Manager
	logger  *slog.Logger
	port    string
}

// NewServer opens the configured database, runs migrations and wires the routes.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	dialect := repository.Dialect(cfg.DBDriver)
	db, err := repository.Open(ctx, dialect, cfg.GetDBConnectionString(), logger)
	if err != nil {
		return nil, err
	}
	store := repository.NewStore(db, dialect, logger)

	var sessions domain.SessionStore
	if cfg.SessionStore == config.SessionStoreSQL {
		sessions = store.Session()
	} else {
		sessions = repository.NewMemorySessionStore()
	}

	manager := service.NewManager(store, sessions, logger)

	return &Server{
		handler: otelhttp.NewHandler(newRouter(manager, logger), "card-manager"),
		db:      db,
		manager: manager,
		logger:  logger,
	}, nil
}

func newRouter(manager *service.Manager, logger *slog.Logger) *mux.Router {
	accountHandler := handler.NewAccountHandler(manager)
	cardHandler := handler.NewCardHandler(manager)
	transactionHandler := handler.NewTransactionHandler(manager)
	twoFactorHandler := handler.NewTwoFactorHandler(manager)
	sessionHandler := handler.NewSessionHandler(manager)
	paymentHandler := handler.NewPaymentHandler(manager)

	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))

	// Account routes
	router.HandleFunc("/accounts", accountHandler.CreateAccount).Methods("POST")
	router.HandleFunc("/accounts", accountHandler.ListAccounts).Methods("GET")
	router.HandleFunc("/accounts/{user_id}", accountHandler.GetAccount).Methods("GET")
	router.HandleFunc("/accounts/{user_id}", accountHandler.RemoveAccount).Methods("DELETE")
	router.HandleFunc("/accounts/{user_id}/balance", accountHandler.GetBalance).Methods("GET")
	router.HandleFunc("/accounts/{user_id}/password", accountHandler.SetPassword).Methods("PUT")

	// Card routes
	router.HandleFunc("/accounts/{user_id}/cards", cardHandler.AddCard).Methods("POST")
	router.HandleFunc("/accounts/{user_id}/cards/{card_id}", cardHandler.GetCard).Methods("GET")
	router.HandleFunc("/accounts/{user_id}/cards/{card_id}", cardHandler.RemoveCard).Methods("DELETE")

	// Transaction routes
	router.HandleFunc("/accounts/{user_id}/transactions", transactionHandler.AddTransaction).Methods("POST")
	router.HandleFunc("/accounts/{user_id}/transactions", transactionHandler.ListTransactions).Methods("GET")
	router.HandleFunc("/accounts/{user_id}/transactions/{transaction_id}", transactionHandler.RemoveTransaction).Methods("DELETE")

	// Two-factor routes
	router.HandleFunc("/accounts/{user_id}/two-factor", twoFactorHandler.Enable).Methods("POST")
	router.HandleFunc("/accounts/{user_id}/two-factor", twoFactorHandler.Disable).Methods("DELETE")
	router.HandleFunc("/accounts/{user_id}/two-factor/verify", twoFactorHandler.Verify).Methods("POST")

	// Session routes
	router.HandleFunc("/sessions", sessionHandler.Login).Methods("POST")
	router.HandleFunc("/sessions/{token}", sessionHandler.GetSession).Methods("GET")
	router.HandleFunc("/sessions/{token}", sessionHandler.Logout).Methods("DELETE")

	// Payment routes
	router.HandleFunc("/payments", paymentHandler.InitiatePayment).Methods("POST")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := manager.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database unavailable"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	return router
}

// loggingMiddleware logs each request and tags it with a request id,
// reusing the caller's X-Request-ID when present. It logs the route template
// rather than the raw path, since paths such as /sessions/{token} carry secrets.
func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			// Create response wrapper to capture status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				"request_id", requestID,
				"method", r.Method,
				"route", routeTemplate(r),
				"status", ww.statusCode,
				"duration", time.Since(start),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	template, err := route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return template
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	// Create listener first to get actual port
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", "port", s.port)

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed to start", "error", err)
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server, then closes the database.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if s.db != nil {
		s.db.Close()
	}
	return err
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// Handler returns the instrumented handler the server serves.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Manager exposes the account manager for tests and tooling.
func (s *Server) Manager() *service.Manager {
	return s.manager
}

// StartServer starts the server with the given configuration
func StartServer(ctx context.Context, cfg *config.Config) (*Server, string, error) {
	var logger *slog.Logger
	if cfg.ServerPort == "0" {
		// Test environment - use discard logger
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	}

	server, err := NewServer(ctx, cfg, logger)
	if err != nil {
		return nil, "", err
	}

	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		server.Stop(ctx)
		return nil, "", err
	}

	return server, port, nil
}
