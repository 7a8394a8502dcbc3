// Package auth implements the web-facing side of the handshake: pending
// code registration and the polling status check.
package auth

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/wx-callback-gateway/internal/domain"
	"github.com/wx-callback-gateway/internal/pkg/id"
	"github.com/wx-callback-gateway/internal/pkg/validate"
	"github.com/wx-callback-gateway/internal/pkg/wxcrypto"
)

// CredentialStore is the slice of the store the web flows touch.
type CredentialStore interface {
	SavePendingCode(token, code string)
	GetPendingCode(token string) *domain.PendingCode
	DeletePendingCode(token string)
	SaveAuthCode(code, openid string, profile domain.Profile)
	ConsumeAuthCode(code string) *domain.AuthenticatedUser
	GetAuthenticatedUser(openid string) *domain.AuthenticatedUser
	ClearAuthentication(openid string)
}

// SetupRequest registers a pending code for a browser session. Both fields
// are optional; the server mints what the client omits.
type SetupRequest struct {
	Token string `json:"token" validate:"omitempty,max=128"`
	Code  string `json:"code" validate:"omitempty,len=6,numeric"`
}

// SetupResult echoes the registered pair back to the client.
type SetupResult struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

// CheckQuery carries the three mutually alternative lookup keys of the
// status poll.
type CheckQuery struct {
	OpenID    string // previously authenticated identity
	Token     string // pending-code browser session token
	AuthToken string // bare code, legacy flow
}

// CheckResult is the poll response. A failed lookup is a normal outcome,
// never an error: the client sees authenticated=false and retries.
type CheckResult struct {
	Authenticated bool                `json:"authenticated"`
	User          *domain.SessionUser `json:"user,omitempty"`
	PendingCode   string              `json:"pendingCode,omitempty"`
	Error         string              `json:"error,omitempty"`
}

const errInvalidOrExpired = "invalid_or_expired"

// Service exposes the web flows.
type Service interface {
	Setup(req SetupRequest) (SetupResult, error)
	Check(q CheckQuery) CheckResult
	// Logout clears the identity's server-side authentication state.
	Logout(openid string)
	// SimulateSubscribe issues a code for openid as if the platform had
	// reported a subscribe event. Development use only.
	SimulateSubscribe(openid string) (SetupResult, error)
}

type service struct {
	store CredentialStore
}

func NewService(store CredentialStore) Service {
	return &service{store: store}
}

func (s *service) Setup(req SetupRequest) (SetupResult, error) {
	if err := validate.Struct(req); err != nil {
		return SetupResult{}, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if req.Token == "" {
		req.Token = id.New()
	}
	if req.Code == "" {
		code, err := wxcrypto.GenerateCode()
		if err != nil {
			return SetupResult{}, err
		}
		req.Code = code
	}
	s.store.SavePendingCode(req.Token, req.Code)
	slog.Info("pending code registered", "token", req.Token)
	return SetupResult{Token: req.Token, Code: req.Code}, nil
}

func (s *service) Check(q CheckQuery) CheckResult {
	if q.OpenID != "" {
		if u := s.store.GetAuthenticatedUser(q.OpenID); u != nil {
			return CheckResult{Authenticated: true, User: toSessionUser(u)}
		}
	}

	if q.Token != "" {
		pending := s.store.GetPendingCode(q.Token)
		if pending == nil {
			return CheckResult{Error: errInvalidOrExpired}
		}
		// The platform callback converts the pending code into an auth
		// code once the visitor sends it through the account; consuming
		// it here completes the handshake.
		if u := s.store.ConsumeAuthCode(pending.Code); u != nil {
			s.store.DeletePendingCode(q.Token)
			return CheckResult{Authenticated: true, User: toSessionUser(u)}
		}
		return CheckResult{PendingCode: pending.Code}
	}

	if q.AuthToken != "" {
		if u := s.store.ConsumeAuthCode(q.AuthToken); u != nil {
			return CheckResult{Authenticated: true, User: toSessionUser(u)}
		}
		return CheckResult{Error: errInvalidOrExpired}
	}

	return CheckResult{}
}

func (s *service) Logout(openid string) {
	s.store.ClearAuthentication(openid)
	slog.Info("authentication cleared", "openid", openid)
}

func (s *service) SimulateSubscribe(openid string) (SetupResult, error) {
	if openid == "" {
		return SetupResult{}, fmt.Errorf("openid required: %w", domain.ErrBadRequest)
	}
	code, err := wxcrypto.GenerateCode()
	if err != nil {
		return SetupResult{}, err
	}
	s.store.SaveAuthCode(code, openid, domain.Profile{})
	slog.Info("simulated subscribe", "openid", openid)
	return SetupResult{Code: code}, nil
}

func toSessionUser(u *domain.AuthenticatedUser) *domain.SessionUser {
	return &domain.SessionUser{
		OpenID:          u.OpenID,
		UnionID:         u.Profile.UnionID,
		Nickname:        u.Profile.Nickname,
		AvatarURL:       u.Profile.AvatarURL,
		AuthenticatedAt: u.AuthenticatedAt.Format(time.RFC3339),
	}
}
