// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/cors"

	"weightlog/internal/app"
	"weightlog/internal/logging"
)

// Config tunes the transport. Zero values select the defaults.
type Config struct {
	CORSOrigins    []string
	MaxUploadBytes int64
	// LoginLimit requests per LoginWindow are allowed per client address on
	// the login and signup endpoints.
	LoginLimit  int
	LoginWindow time.Duration
	// TrustedProxies are the peers allowed to name the client through
	// X-Forwarded-For or X-Real-IP. Empty means the peer address is used.
	TrustedProxies []netip.Prefix
	Logger         *slog.Logger
}

const (
	defaultMaxUploadBytes = 1 << 20
	defaultLoginLimit     = 10
	defaultLoginWindow    = time.Minute
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth     *app.AuthService
	accounts *app.AccountService
	entries  *app.EntryService
	charts   *app.ChartsService
	sso      *SSO
	cfg      Config
}

// New creates a Server wired to the given application services.
func New(auth *app.AuthService, accounts *app.AccountService, entries *app.EntryService, charts *app.ChartsService, cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.LoginLimit <= 0 {
		cfg.LoginLimit = defaultLoginLimit
	}
	if cfg.LoginWindow <= 0 {
		cfg.LoginWindow = defaultLoginWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{auth: auth, accounts: accounts, entries: entries, charts: charts, cfg: cfg}
}

// WithSSO enables the OpenID Connect login endpoints.
func (s *Server) WithSSO(sso *SSO) *Server {
	s.sso = sso
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	throttle := rateLimit(s.cfg.LoginLimit, s.cfg.LoginWindow, clientIP(s.cfg.TrustedProxies))

	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.Handle("POST /token", throttle(http.HandlerFunc(s.handleToken)))
	api.Handle("POST /users", throttle(http.HandlerFunc(s.handleSignup)))
	api.HandleFunc("GET /auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)

	api.Handle("GET /user", s.requireAuth(s.handleGetUser))
	api.Handle("PUT /user", s.requireAuth(s.handleUpdateUser))
	api.Handle("DELETE /user", s.requireAuth(s.handleDeleteUser))
	api.Handle("PUT /user/password", s.requireAuth(s.handleChangePassword))

	api.Handle("GET /entries", s.requireAuth(s.handleListEntries))
	api.Handle("POST /entries", s.requireAuth(s.handleUpsertEntry))
	api.Handle("DELETE /entries", s.requireAuth(s.handleDeleteAllEntries))
	api.Handle("PUT /entries/{id}", s.requireAuth(s.handleUpdateEntry))
	api.Handle("DELETE /entries/{date}", s.requireAuth(s.handleDeleteEntry))
	api.Handle("GET /entries/csv", s.requireAuth(s.handleExportCSV))
	api.Handle("POST /entries/csv", s.requireAuth(s.handleImportCSV))
	api.Handle("GET /entries/chart", s.requireAuth(s.handleChart))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	var h http.Handler = withNoCache(root)
	if len(s.cfg.CORSOrigins) > 0 {
		h = cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", logging.RequestIDHeader},
			ExposedHeaders: []string{logging.RequestIDHeader, chartBlankHeader, "Content-Disposition"},
			MaxAge:         300,
		})(h)
	}
	return logging.Middleware(s.cfg.Logger)(h)
}
