package handler

import (
	"encoding/json"
	"net/http"

	"github.com/wx-callback-gateway/internal/application/auth"
)

// AuthHandler handles pending-code registration and the status poll.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Setup registers a pending code for a browser session.
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req auth.SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Setup(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		Code    string `json:"code"`
	}{true, res.Token, res.Code})
}

// Check answers the polling client. Lookup misses are normal outcomes and
// always come back as 200 with authenticated=false.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := h.svc.Check(auth.CheckQuery{
		OpenID:    q.Get("openid"),
		Token:     q.Get("token"),
		AuthToken: q.Get("authToken"),
	})
	writeJSON(w, http.StatusOK, res)
}

// SimulateSubscribe issues a code as if the platform had reported a
// subscribe event. Mounted only outside production.
func (h *AuthHandler) SimulateSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OpenID string `json:"openid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.SimulateSubscribe(req.OpenID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		OpenID  string `json:"openid"`
		Code    string `json:"code"`
	}{true, req.OpenID, res.Code})
}
