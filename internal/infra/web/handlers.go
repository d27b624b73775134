package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"telegram-group-guard/internal/domain"
	"telegram-group-guard/internal/domain/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid argument"})
	case errors.Is(err, domain.ErrBroadcastPending):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "broadcast already pending"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func groupIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request body"})
		return
	}
	if s.apiKey == "" || req.APIKey != s.apiKey {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleGlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statsUC.Global(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type groupView struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Username string `json:"username,omitempty"`
	Active   bool   `json:"active"`
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groupUC.ListGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]groupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupView{ID: g.ID, Title: g.Title, Username: g.Username, Active: g.Active})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGroupStats(w http.ResponseWriter, r *http.Request) {
	id, err := groupIDParam(r)
	if err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	stats, err := s.statsUC.Group(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, err := groupIDParam(r)
	if err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	var req struct {
		DeleteLinks     bool `json:"delete_links"`
		DeleteAds       bool `json:"delete_ads"`
		DeleteJoinLeave bool `json:"delete_join_leave"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}

	// The group must be known; settings for unregistered groups would never
	// be consulted.
	if _, err := s.groupUC.GetGroup(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	next := &model.GroupSettings{
		GroupID:         id,
		DeleteLinks:     req.DeleteLinks,
		DeleteAds:       req.DeleteAds,
		DeleteJoinLeave: req.DeleteJoinLeave,
	}
	if err := s.settingsUC.Update(r.Context(), next); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// handleBroadcast stages and confirms in one step; the two-phase flow exists
// for the chat UI, the API caller already typed out a deliberate request.
func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, domain.ErrInvalidArgument)
		return
	}

	if _, err := s.broadcastUC.Prepare(r.Context(), s.superAdminID, req.Text); err != nil {
		writeError(w, err)
		return
	}
	jobID, n, err := s.broadcastUC.Confirm(r.Context(), s.superAdminID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": jobID, "groups": n})
}
