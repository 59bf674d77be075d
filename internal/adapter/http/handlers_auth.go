package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"weightlog/internal/app"
	"weightlog/internal/domain"
	"weightlog/internal/logging"
)

const stateCookie = "oauth_state"

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenResponse(t app.Token) tokenResponse {
	return tokenResponse{Token: t.Value, TokenType: "Bearer", ExpiresAt: t.ExpiresAt}
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if domain.IsAuthFailure(err) {
			logging.FromContext(r.Context()).Info("login failed", "username", req.Username)
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTokenResponse(token))
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username   string  `json:"username"`
		Password   string  `json:"password"`
		Metric     *bool   `json:"metric"`
		GoalWeight float64 `json:"goal_weight"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	metric := true
	if req.Metric != nil {
		metric = *req.Metric
	}

	user, err := s.accounts.Create(r.Context(), app.Settings{
		Username:   req.Username,
		Metric:     metric,
		GoalWeight: req.GoalWeight,
	}, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("user created", "username", user.Username)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil {
		writeError(w, r, fmt.Errorf("%w: single sign-on is disabled", domain.ErrNotFound))
		return
	}
	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.sso.oauth2.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil {
		writeError(w, r, fmt.Errorf("%w: single sign-on is disabled", domain.ErrNotFound))
		return
	}

	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" || r.URL.Query().Get("state") != state.Value {
		writeError(w, r, fmt.Errorf("%w: invalid state", domain.ErrValidation))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, MaxAge: -1, Path: "/"})

	username, err := s.sso.identity(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logging.FromContext(r.Context()).Warn("sso callback rejected", "err", err)
		writeError(w, r, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err))
		return
	}

	token, err := s.auth.LoginWithUser(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTokenResponse(token))
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
