package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes or fixed
// protocol rejection strings without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// ErrDecryptFailed covers every secure-mode envelope failure: bad
	// base64, wrong key, broken padding, or appid mismatch. Callers must
	// reject the whole message, never partially trust it.
	ErrDecryptFailed = errors.New("message decrypt failed")

	// ErrSignatureMismatch marks a callback whose signature did not verify.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrSessionInvalid marks a session cookie that failed structural
	// parsing or authentication; callers treat it as "no session".
	ErrSessionInvalid = errors.New("invalid session token")
)
