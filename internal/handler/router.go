package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/papermarket/internal/service"
)

// NewRouter creates a chi router with all routes registered, request
// logging, Content-Type validation, and bearer authentication on the
// portfolio routes.
func NewRouter(marketSvc *service.MarketService, authSvc *service.AuthService, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	stockH := NewStockHandler(marketSvc)
	userH := NewUserHandler(authSvc)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public market data.
		r.Get("/stocks", stockH.List)

		// Portfolio routes require a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(bearerAuth(authSvc))
			r.Get("/stocks/portfolio", stockH.GetPortfolio)
			r.Post("/stocks/portfolio/buy", stockH.Buy)
			r.Post("/stocks/portfolio/sell", stockH.Sell)
			r.Post("/stocks/portfolio/addMoney", stockH.AddMoney)
		})

		// User routes.
		r.Post("/user/register", userH.Register)
		r.Post("/user/login", userH.Login)
		r.Get("/user/all", userH.ListAll)
		r.Get("/user/search/{name}", userH.Search)
		r.Get("/user/{id}", userH.GetByID)
	})

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT,
// and PATCH requests. If the Content-Type header doesn't start with
// "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "INVALID_REQUEST",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ctxKey is the private type for request context keys.
type ctxKey int

const userIDKey ctxKey = iota

// bearerAuth validates the Authorization bearer token and injects the
// acting user's ID into the request context.
func bearerAuth(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or missing token")
				return
			}
			userID, err := authSvc.Authenticate(token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or missing token")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userIDFrom extracts the authenticated user ID injected by bearerAuth.
func userIDFrom(r *http.Request) (uint, bool) {
	id, ok := r.Context().Value(userIDKey).(uint)
	return id, ok
}
