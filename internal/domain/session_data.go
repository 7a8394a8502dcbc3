package domain

// SessionUser is the user subset embedded in the client-side session
// cookie. Field names follow the platform's profile vocabulary so the
// existing web SDK keeps working.
type SessionUser struct {
	OpenID          string `json:"openid"`
	UnionID         string `json:"unionid,omitempty"`
	Nickname        string `json:"nickname,omitempty"`
	AvatarURL       string `json:"headimgurl,omitempty"`
	AuthenticatedAt string `json:"authenticatedAt"`
}

// SessionData is the full payload sealed into the session cookie. It is
// never stored server-side; the encrypted cookie is the only durable
// artifact of a completed handshake.
type SessionData struct {
	Authenticated bool         `json:"authenticated,omitempty"`
	User          *SessionUser `json:"user,omitempty"`
}
