// Package http serves the budgeting JSON API.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"budgetai/internal/auth"
	"budgetai/internal/core"
	"budgetai/internal/log"
	"budgetai/internal/metrics"
	"budgetai/internal/middleware/ratelimit"
	"budgetai/internal/middleware/security"
	"budgetai/internal/middleware/trace"
	"budgetai/internal/services"
	"budgetai/internal/session"
)

// Accounts registers and signs in users.
type Accounts interface {
	Register(ctx context.Context, email, name, password string) (*services.SignedIn, error)
	Login(ctx context.Context, email, password string) (*services.SignedIn, error)
	User(ctx context.Context, id string) (*core.User, error)
	Authorize(ctx context.Context, claims *auth.Claims) (*core.User, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password string) error
}

// Tokens validates bearer tokens.
type Tokens interface {
	Validate(token string) (*auth.Claims, error)
}

// Sessions hands out the controller of a signed-in user.
type Sessions interface {
	Get(ctx context.Context, userID string) (*session.Controller, error)
}

// ResetNotifier delivers a password reset token to its owner.
type ResetNotifier func(ctx context.Context, email, token string)

type Options struct {
	Addr     string
	Accounts Accounts
	Tokens   Tokens
	Sessions Sessions
	// Metrics is optional. When set, /metrics is served and every request
	// is observed.
	Metrics *metrics.Metrics
	// Ready reports whether storage is reachable. Nil means always ready.
	Ready              func(ctx context.Context) error
	RateLimitPerMinute int
	ResetNotifier      ResetNotifier
	Logger             *log.Logger
}

// Server wraps http.Server with the API routes and middleware.
type Server struct {
	http.Server
	accounts     Accounts
	tokens       Tokens
	sessions     Sessions
	ready        func(ctx context.Context) error
	notifyReset  ResetNotifier
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(o Options) *Server {
	logger := o.Logger
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	s := &Server{
		accounts:    o.Accounts,
		tokens:      o.Tokens,
		sessions:    o.Sessions,
		ready:       o.Ready,
		notifyReset: o.ResetNotifier,
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: o.RateLimitPerMinute}),
		detector:    security.NewDetector(),
		logger:      logger,
	}
	if s.notifyReset == nil {
		s.notifyReset = func(ctx context.Context, email, _ string) {
			log.FromContext(ctx).InfoContext(ctx, "Password reset issued, no notifier configured")
		}
	}

	mux := http.NewServeMux()
	s.routes(mux, o.Metrics)

	var observe trace.Observer
	if o.Metrics != nil {
		observe = o.Metrics.ObserveHTTP
	}
	handler := s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.Mutating,
		func(w http.ResponseWriter, r *http.Request) {
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
		})(mux)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.flagSuspicious(handler)
	handler = trace.NewMiddleware(logger, s.detector.ExtractClientIP, observe).Middleware(handler)

	s.Server = http.Server{
		Addr:              o.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux, m *metrics.Metrics) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/password-reset/request", s.handlePasswordResetRequest)
	mux.HandleFunc("POST /api/auth/password-reset/confirm", s.handlePasswordResetConfirm)
	mux.HandleFunc("GET /api/me", s.authed(s.handleMe))

	mux.HandleFunc("GET /api/dashboard", s.authed(handleDashboard))
	mux.HandleFunc("GET /api/deals", s.authed(handleDeals))
	mux.HandleFunc("GET /api/meal-plan", s.authed(handleMealPlan))
	mux.HandleFunc("GET /api/search", s.authed(handleSearchResults))
	mux.HandleFunc("POST /api/search", s.authed(handleSearch))

	mux.HandleFunc("GET /api/config", s.authed(handleConfig))
	mux.HandleFunc("PUT /api/config/salary", s.authed(setConfigValue((*session.Controller).SetSalary)))
	mux.HandleFunc("PUT /api/config/people", s.authed(setConfigValue((*session.Controller).SetPeople)))
	mux.HandleFunc("PUT /api/config/savings-goal", s.authed(setConfigValue((*session.Controller).SetSavingsGoal)))
	mux.HandleFunc("PUT /api/config/categories/{name}", s.authed(handleUpdateCategory))
	mux.HandleFunc("PUT /api/config/food-preferences", s.authed(handleFoodPreferences))
	mux.HandleFunc("POST /api/config/usual-items", s.authed(handleAddUsualItem))
	mux.HandleFunc("PATCH /api/config/usual-items/{id}", s.authed(handleUpdateUsualItem))
	mux.HandleFunc("DELETE /api/config/usual-items/{id}", s.authed(handleRemoveUsualItem))

	mux.HandleFunc("GET /api/locations", s.authed(handleLocations))
	mux.HandleFunc("POST /api/locations", s.authed(handleAddLocation))
	mux.HandleFunc("PUT /api/locations/{id}", s.authed(handleUpdateLocation))
	mux.HandleFunc("DELETE /api/locations/{id}", s.authed(handleDeleteLocation))
	mux.HandleFunc("POST /api/locations/{id}/activate", s.authed(handleSwitchLocation))
	mux.HandleFunc("POST /api/locations/{id}/primary", s.authed(handleSetPrimaryLocation))

	mux.HandleFunc("GET /api/cart", s.authed(handleCart))
	mux.HandleFunc("POST /api/cart/items", s.authed(handleAddToCart))
	mux.HandleFunc("PATCH /api/cart/items/{id}", s.authed(handleUpdateCartItem))
	mux.HandleFunc("DELETE /api/cart/items/{id}", s.authed(handleRemoveCartItem))
	mux.HandleFunc("DELETE /api/cart", s.authed(handleClearCart))
}

// sessionHandler serves a request on behalf of a signed-in user.
type sessionHandler func(w http.ResponseWriter, r *http.Request, c *session.Controller)

// authed resolves the bearer token to the user's session controller.
func (s *Server) authed(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, auth.ErrMissingToken)
			return
		}
		claims, err := s.tokens.Validate(token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if _, err := s.accounts.Authorize(r.Context(), claims); err != nil {
			writeError(w, r, err)
			return
		}

		logger := log.FromContext(r.Context()).With(log.FieldUserID, claims.UserID)
		r = r.WithContext(log.WithContext(r.Context(), logger))
		c, err := s.sessions.Get(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		h(w, r, c)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// flagSuspicious logs requests that look like probes. They are still served.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
