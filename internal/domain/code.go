package domain

import "time"

// Profile carries the optional user info the platform attaches to an
// identity. All fields may be empty; subscription accounts without the
// user-info permission only ever report the openid.
type Profile struct {
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"headimgurl,omitempty"`
	UnionID   string `json:"unionid,omitempty"`
}

// PendingCode is a code registered by the web client before the platform
// has confirmed any identity for it. Keyed by the client-generated token.
// ExpiresAt is a Unix timestamp (seconds).
type PendingCode struct {
	Token     string `json:"token"`
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at"`
}

// AuthCode is a code bound to a confirmed platform identity, consumable
// exactly once. Keyed by the code itself; at most one live AuthCode exists
// per openid.
type AuthCode struct {
	Code      string  `json:"code"`
	OpenID    string  `json:"openid"`
	ExpiresAt int64   `json:"expires_at"`
	Profile   Profile `json:"profile"`
}

// AuthenticatedUser records a successfully completed handshake. It has no
// server-side expiry; it persists until an explicit logout clears it.
type AuthenticatedUser struct {
	OpenID          string    `json:"openid"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
	Profile         Profile   `json:"profile"`
}
