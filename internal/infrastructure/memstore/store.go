// Package memstore is the volatile credential store backing the handshake:
// pending codes keyed by client token, auth codes keyed by code, and
// authenticated identities keyed by openid. Everything lives in process
// memory and is gone on restart; the encrypted session cookie held by the
// client is the only durable artifact.
package memstore

import (
	"log/slog"
	"sync"
	"time"

	"github.com/wx-callback-gateway/internal/domain"
)

// Store owns the three credential tables. All access goes through its
// methods; each method holds the mutex for its whole check-then-act
// sequence so concurrent requests racing on one code or token cannot both
// succeed.
type Store struct {
	mu            sync.Mutex
	pending       map[string]*domain.PendingCode      // token -> pending code
	codes         map[string]*domain.AuthCode         // code -> auth code
	authenticated map[string]*domain.AuthenticatedUser // openid -> identity

	ttl           time.Duration
	sweepInterval time.Duration
	done          chan struct{}
	stopOnce      sync.Once
}

// New creates a store and starts its background sweeper. The sweeper is a
// backstop; every read also applies lazy expiry. Call Stop on shutdown.
func New(ttl, sweepInterval time.Duration) *Store {
	s := &Store{
		pending:       make(map[string]*domain.PendingCode),
		codes:         make(map[string]*domain.AuthCode),
		authenticated: make(map[string]*domain.AuthenticatedUser),
		ttl:           ttl,
		sweepInterval: sweepInterval,
		done:          make(chan struct{}),
	}
	go s.runSweeper()
	return s
}

// Stop terminates the background sweeper. Safe to call more than once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Store) runSweeper() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes expired pending and auth codes. Authenticated identities
// never expire server-side; only an explicit logout removes them.
func (s *Store) sweep() {
	now := time.Now().Unix()
	s.mu.Lock()
	var pendingRemoved, codesRemoved int
	for token, p := range s.pending {
		if p.ExpiresAt < now {
			delete(s.pending, token)
			pendingRemoved++
		}
	}
	for code, a := range s.codes {
		if a.ExpiresAt < now {
			delete(s.codes, code)
			codesRemoved++
		}
	}
	s.mu.Unlock()

	if pendingRemoved > 0 || codesRemoved > 0 {
		slog.Info("swept expired codes", "pending", pendingRemoved, "auth", codesRemoved)
	}
}

// SavePendingCode registers a code awaiting platform confirmation, keyed by
// the client token. An existing entry for the token is overwritten.
func (s *Store) SavePendingCode(token, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[token] = &domain.PendingCode{
		Token:     token,
		Code:      code,
		ExpiresAt: time.Now().Add(s.ttl).Unix(),
	}
}

// GetPendingCode returns the live pending code for a token, deleting and
// reporting nothing if it has expired.
func (s *Store) GetPendingCode(token string) *domain.PendingCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getPendingLocked(token)
}

func (s *Store) getPendingLocked(token string) *domain.PendingCode {
	p, ok := s.pending[token]
	if !ok {
		return nil
	}
	if p.ExpiresAt < time.Now().Unix() {
		delete(s.pending, token)
		return nil
	}
	cp := *p
	return &cp
}

// DeletePendingCode removes a pending entry outright, used once its code
// has been consumed.
func (s *Store) DeletePendingCode(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, token)
}

// FindTokenByCode reverse-scans the pending table for a code value. Used
// when an identity sends a bare 6-digit code through the account.
func (s *Store) FindTokenByCode(code string) (string, bool) {
	now := time.Now().Unix()
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, p := range s.pending {
		if p.Code == code && p.ExpiresAt >= now {
			return token, true
		}
	}
	return "", false
}

// ConvertPendingToAuthCode atomically promotes a pending code into an auth
// code bound to openid and removes the pending entry. Returns the code, or
// empty if the pending entry was missing or expired.
func (s *Store) ConvertPendingToAuthCode(token, openid string, profile domain.Profile) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.getPendingLocked(token)
	if p == nil {
		return "", false
	}
	s.saveAuthCodeLocked(p.Code, openid, profile)
	delete(s.pending, token)
	return p.Code, true
}

// SaveAuthCode binds a code to a confirmed identity. Any existing code
// owned by the same openid is evicted first: at most one live auth code
// per identity.
func (s *Store) SaveAuthCode(code, openid string, profile domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveAuthCodeLocked(code, openid, profile)
}

func (s *Store) saveAuthCodeLocked(code, openid string, profile domain.Profile) {
	for existing, a := range s.codes {
		if a.OpenID == openid {
			delete(s.codes, existing)
		}
	}
	s.codes[code] = &domain.AuthCode{
		Code:      code,
		OpenID:    openid,
		ExpiresAt: time.Now().Add(s.ttl).Unix(),
		Profile:   profile,
	}
}

// GetAuthCode returns the live auth code entry without consuming it.
// Expired entries are deleted and reported as absent.
func (s *Store) GetAuthCode(code string) *domain.AuthCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getAuthCodeLocked(code)
}

func (s *Store) getAuthCodeLocked(code string) *domain.AuthCode {
	a, ok := s.codes[code]
	if !ok {
		return nil
	}
	if a.ExpiresAt < time.Now().Unix() {
		delete(s.codes, code)
		return nil
	}
	cp := *a
	return &cp
}

// ConsumeAuthCode looks up a live auth code, deletes it, and marks its
// identity authenticated, all under one lock acquisition. Two concurrent
// consumers of the same code cannot both succeed.
func (s *Store) ConsumeAuthCode(code string) *domain.AuthenticatedUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.getAuthCodeLocked(code)
	if a == nil {
		return nil
	}
	delete(s.codes, code)
	u := &domain.AuthenticatedUser{
		OpenID:          a.OpenID,
		AuthenticatedAt: time.Now().UTC(),
		Profile:         a.Profile,
	}
	s.authenticated[a.OpenID] = u
	cp := *u
	return &cp
}

// DeleteAuthCode removes a code outright.
func (s *Store) DeleteAuthCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, code)
}

// MarkAuthenticated upserts an authenticated identity with the current
// timestamp.
func (s *Store) MarkAuthenticated(openid string, profile domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated[openid] = &domain.AuthenticatedUser{
		OpenID:          openid,
		AuthenticatedAt: time.Now().UTC(),
		Profile:         profile,
	}
}

// IsAuthenticated reports whether openid has completed the handshake.
func (s *Store) IsAuthenticated(openid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.authenticated[openid]
	return ok
}

// GetAuthenticatedUser returns the identity record for openid, if any.
func (s *Store) GetAuthenticatedUser(openid string) *domain.AuthenticatedUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.authenticated[openid]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

// ClearAuthentication removes the identity record and any auth code still
// owned by it (logout).
func (s *Store) ClearAuthentication(openid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.authenticated, openid)
	for code, a := range s.codes {
		if a.OpenID == openid {
			delete(s.codes, code)
		}
	}
}

// Stats reports live entry counts per table.
type Stats struct {
	PendingCodes       int `json:"pendingCodes"`
	AuthCodes          int `json:"authCodes"`
	AuthenticatedUsers int `json:"authenticatedUsers"`
}

// Snapshot returns the current table sizes.
func (s *Store) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		PendingCodes:       len(s.pending),
		AuthCodes:          len(s.codes),
		AuthenticatedUsers: len(s.authenticated),
	}
}
