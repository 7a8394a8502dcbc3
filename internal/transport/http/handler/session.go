package handler

import (
	"encoding/json"
	"net/http"

	"github.com/wx-callback-gateway/internal/application/auth"
	"github.com/wx-callback-gateway/internal/domain"
	"github.com/wx-callback-gateway/internal/pkg/sessioncookie"
)

// SessionHandler owns the encrypted session cookie endpoints.
type SessionHandler struct {
	svc    auth.Service
	cfg    sessioncookie.Config
	secret string
}

func NewSessionHandler(svc auth.Service, cfg sessioncookie.Config, secret string) *SessionHandler {
	return &SessionHandler{svc: svc, cfg: cfg, secret: secret}
}

// current decodes the request's session cookie; any failure means an
// anonymous session, never an error.
func (h *SessionHandler) current(r *http.Request) domain.SessionData {
	token := sessioncookie.Read(r, h.cfg.Name)
	if token == "" {
		return domain.SessionData{}
	}
	data, err := sessioncookie.Open(token, h.secret)
	if err != nil {
		return domain.SessionData{}
	}
	return data
}

// Get returns the current session payload.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.current(r))
}

// Set seals the supplied user into a fresh session cookie.
func (h *SessionHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User *domain.SessionUser `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.User == nil || req.User.OpenID == "" {
		writeError(w, http.StatusBadRequest, "missing user information")
		return
	}
	token, err := sessioncookie.Seal(domain.SessionData{Authenticated: true, User: req.User}, h.secret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	sessioncookie.Write(w, h.cfg, token)
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}

// Clear logs the user out: the server-side authentication record and any
// outstanding code go with the cookie.
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if data := h.current(r); data.User != nil {
		h.svc.Logout(data.User.OpenID)
	}
	sessioncookie.Clear(w, h.cfg)
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}
