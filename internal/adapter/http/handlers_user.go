package adapthttp

import (
	"fmt"
	"net/http"

	"weightlog/internal/app"
	"weightlog/internal/domain"
)

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.Get(r.Context(), userIDFromContext(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleUpdateUser stores the settings as given. The goal weight is not
// converted when the unit preference changes.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username   string  `json:"username"`
		Metric     *bool   `json:"metric"`
		GoalWeight float64 `json:"goal_weight"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Metric == nil {
		writeError(w, r, fmt.Errorf("%w: metric is required", domain.ErrValidation))
		return
	}
	user, err := s.accounts.Update(r.Context(), userIDFromContext(r), app.Settings{
		Username:   req.Username,
		Metric:     *req.Metric,
		GoalWeight: req.GoalWeight,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Delete(r.Context(), userIDFromContext(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.accounts.ChangePassword(r.Context(), userIDFromContext(r), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
