package sessioncookie

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wx-callback-gateway/internal/domain"
)

const secret = "test-session-secret"

func sample() domain.SessionData {
	return domain.SessionData{
		Authenticated: true,
		User: &domain.SessionUser{
			OpenID:          "oUser123",
			Nickname:        "alice",
			AuthenticatedAt: "2026-08-31T10:00:00Z",
		},
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	token, err := Seal(sample(), secret)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, ":"), 3)

	got, err := Open(token, secret)
	require.NoError(t, err)
	assert.True(t, got.Authenticated)
	require.NotNil(t, got.User)
	assert.Equal(t, "oUser123", got.User.OpenID)
	assert.Equal(t, "alice", got.User.Nickname)
}

func TestSealUsesFreshNonce(t *testing.T) {
	a, err := Seal(sample(), secret)
	require.NoError(t, err)
	b, err := Seal(sample(), secret)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenRejectsWrongSecret(t *testing.T) {
	token, err := Seal(sample(), secret)
	require.NoError(t, err)

	_, err = Open(token, "other-secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
}

func TestOpenRejectsTamperedToken(t *testing.T) {
	token, err := Seal(sample(), secret)
	require.NoError(t, err)

	parts := strings.Split(token, ":")
	flipped := parts[2]
	if flipped[0] == '0' {
		flipped = "1" + flipped[1:]
	} else {
		flipped = "0" + flipped[1:]
	}
	_, err = Open(parts[0]+":"+parts[1]+":"+flipped, secret)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionInvalid)
}

func TestOpenRejectsMalformedTokens(t *testing.T) {
	cases := []string{
		"",
		"onlyonepart",
		"two:parts",
		"a:b:c:d",
		"zz:zz:zz",          // not hex
		"00:00:00",          // wrong lengths
	}
	for _, tc := range cases {
		_, err := Open(tc, secret)
		assert.ErrorIs(t, err, domain.ErrSessionInvalid, "token %q", tc)
	}
}

func TestCookieWriteReadClear(t *testing.T) {
	cfg := Config{Name: "wxauth-session", MaxAge: 86400}

	rec := httptest.NewRecorder()
	Write(rec, cfg, "tokenvalue")
	res := rec.Result()
	require.Len(t, res.Cookies(), 1)
	c := res.Cookies()[0]
	assert.Equal(t, "wxauth-session", c.Name)
	assert.Equal(t, "tokenvalue", c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	assert.Equal(t, "tokenvalue", Read(req, "wxauth-session"))
	assert.Equal(t, "", Read(req, "missing"))

	rec = httptest.NewRecorder()
	Clear(rec, cfg)
	res = rec.Result()
	require.Len(t, res.Cookies(), 1)
	assert.Less(t, res.Cookies()[0].MaxAge, 0)
}
