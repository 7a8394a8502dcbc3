package callback

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wx-callback-gateway/internal/domain"
	"github.com/wx-callback-gateway/internal/pkg/wxcrypto"
	"github.com/wx-callback-gateway/internal/pkg/wxmsg"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) SaveAuthCode(code, openid string, profile domain.Profile) {
	m.Called(code, openid, profile)
}
func (m *mockStore) FindTokenByCode(code string) (string, bool) {
	args := m.Called(code)
	return args.String(0), args.Bool(1)
}
func (m *mockStore) ConvertPendingToAuthCode(token, openid string, profile domain.Profile) (string, bool) {
	args := m.Called(token, openid, profile)
	return args.String(0), args.Bool(1)
}
func (m *mockStore) IsAuthenticated(openid string) bool {
	return m.Called(openid).Bool(0)
}

// --- helpers ---

const (
	testToken  = "callbacktoken"
	testAESKey = "abcdefghijklmnopqrstuvwxyz0123456789ABCDEFA"
	testAppID  = "wx1234567890abcdef"
)

func testConfig() Config {
	return Config{
		Token:   testToken,
		AESKey:  testAESKey,
		AppID:   testAppID,
		SiteURL: "https://example.com",
	}
}

func digest(parts ...string) string {
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}

func textMessage(content string) []byte {
	return []byte(fmt.Sprintf(`<xml>
		<ToUserName><![CDATA[gh_account]]></ToUserName>
		<FromUserName><![CDATA[oUser123]]></FromUserName>
		<CreateTime>1700000000</CreateTime>
		<MsgType><![CDATA[text]]></MsgType>
		<Content><![CDATA[%s]]></Content>
	</xml>`, content))
}

func eventMessage(event string) []byte {
	return []byte(fmt.Sprintf(`<xml>
		<ToUserName><![CDATA[gh_account]]></ToUserName>
		<FromUserName><![CDATA[oUser123]]></FromUserName>
		<CreateTime>1700000000</CreateTime>
		<MsgType><![CDATA[event]]></MsgType>
		<Event><![CDATA[%s]]></Event>
	</xml>`, event))
}

// --- GET verification leg ---

func TestVerify(t *testing.T) {
	svc := NewService(&mockStore{}, testConfig())
	q := Query{Timestamp: "1700000000", Nonce: "nonce1", EchoStr: "echo-me"}
	q.Signature = digest(testToken, q.Timestamp, q.Nonce)

	assert.Equal(t, "echo-me", svc.Verify(q))

	t.Run("bad signature", func(t *testing.T) {
		bad := q
		bad.Signature = digest(testToken, q.Timestamp, "othernonce")
		assert.Equal(t, replyInvalidSignature, svc.Verify(bad))
	})

	t.Run("missing params", func(t *testing.T) {
		for _, broken := range []Query{
			{Timestamp: q.Timestamp, Nonce: q.Nonce, EchoStr: q.EchoStr},
			{Signature: q.Signature, Nonce: q.Nonce, EchoStr: q.EchoStr},
			{Signature: q.Signature, Timestamp: q.Timestamp, EchoStr: q.EchoStr},
			{Signature: q.Signature, Timestamp: q.Timestamp, Nonce: q.Nonce},
		} {
			assert.Equal(t, replyInvalidParams, svc.Verify(broken))
		}
	})

	t.Run("unconfigured token", func(t *testing.T) {
		unconfigured := NewService(&mockStore{}, Config{})
		assert.Equal(t, replyInvalidConfig, unconfigured.Verify(q))
	})
}

// --- POST leg, plaintext mode ---

func TestHandleSubscribeEventIssuesCode(t *testing.T) {
	store := &mockStore{}
	var issued string
	store.On("SaveAuthCode", mock.MatchedBy(func(code string) bool {
		issued = code
		return len(code) == 6
	}), "oUser123", domain.Profile{}).Once()

	svc := NewService(store, testConfig())
	out := svc.HandleMessage(eventMessage("subscribe"), Query{})

	store.AssertExpectations(t)
	reply, err := wxmsg.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "oUser123", reply.ToUserName)
	assert.Equal(t, "gh_account", reply.FromUserName)
	assert.Contains(t, reply.Content, issued)
	assert.Contains(t, reply.Content, "https://example.com")
}

func TestHandleUnsubscribeEventAcks(t *testing.T) {
	svc := NewService(&mockStore{}, testConfig())
	assert.Equal(t, replySuccess, svc.HandleMessage(eventMessage("unsubscribe"), Query{}))
}

func TestHandleSixDigitConfirmsPendingCode(t *testing.T) {
	store := &mockStore{}
	store.On("FindTokenByCode", "482913").Return("t1", true).Once()
	store.On("ConvertPendingToAuthCode", "t1", "oUser123", domain.Profile{}).Return("482913", true).Once()

	svc := NewService(store, testConfig())
	out := svc.HandleMessage(textMessage("482913"), Query{})

	store.AssertExpectations(t)
	reply, err := wxmsg.Parse([]byte(out))
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "认证成功")
}

func TestHandleSixDigitUnknownCode(t *testing.T) {
	store := &mockStore{}
	store.On("FindTokenByCode", "000000").Return("", false).Once()

	svc := NewService(store, testConfig())
	out := svc.HandleMessage(textMessage("000000"), Query{})

	store.AssertExpectations(t)
	reply, err := wxmsg.Parse([]byte(out))
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "无效或已过期")
}

func TestHandleStatusKeyword(t *testing.T) {
	store := &mockStore{}
	store.On("IsAuthenticated", "oUser123").Return(true).Once()

	svc := NewService(store, testConfig())
	out := svc.HandleMessage(textMessage("状态"), Query{})

	store.AssertExpectations(t)
	reply, err := wxmsg.Parse([]byte(out))
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "已完成网站认证")
}

func TestHandleHelpKeyword(t *testing.T) {
	svc := NewService(&mockStore{}, testConfig())
	out := svc.HandleMessage(textMessage("help"), Query{})
	reply, err := wxmsg.Parse([]byte(out))
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "认证流程帮助")
}

func TestHandleAuthKeywordReissuesCode(t *testing.T) {
	for _, content := range []string{"已关注", "认证", "login", "我想要一个验证码"} {
		t.Run(content, func(t *testing.T) {
			store := &mockStore{}
			store.On("SaveAuthCode", mock.Anything, "oUser123", domain.Profile{}).Once()

			svc := NewService(store, testConfig())
			out := svc.HandleMessage(textMessage(content), Query{})

			store.AssertExpectations(t)
			reply, err := wxmsg.Parse([]byte(out))
			require.NoError(t, err)
			assert.Contains(t, reply.Content, "认证码已生成")
		})
	}
}

func TestHandleFallback(t *testing.T) {
	svc := NewService(&mockStore{}, testConfig())
	out := svc.HandleMessage(textMessage("hello there"), Query{})
	reply, err := wxmsg.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, fallbackMessage(), reply.Content)
}

func TestHandleEmptyBody(t *testing.T) {
	svc := NewService(&mockStore{}, testConfig())
	assert.Equal(t, replyEmptyBody, svc.HandleMessage(nil, Query{}))
}

func TestHandleGarbageBody(t *testing.T) {
	svc := NewService(&mockStore{}, testConfig())
	assert.Equal(t, replyInvalidParams, svc.HandleMessage([]byte("not xml"), Query{}))
}

// --- POST leg, secure mode ---

func secureRequest(t *testing.T, plaintext []byte) ([]byte, Query) {
	t.Helper()
	encrypted, err := wxcrypto.Encrypt(string(plaintext), testAESKey, testAppID)
	require.NoError(t, err)

	q := Query{Timestamp: "1700000000", Nonce: "nonce1", EncryptType: "aes"}
	q.MsgSignature = wxcrypto.EnvelopeSignature(testToken, q.Timestamp, q.Nonce, encrypted)
	body := fmt.Sprintf(`<xml><Encrypt><![CDATA[%s]]></Encrypt></xml>`, encrypted)
	return []byte(body), q
}

func TestHandleSecureModeRoundTrip(t *testing.T) {
	store := &mockStore{}
	store.On("SaveAuthCode", mock.Anything, "oUser123", domain.Profile{}).Once()

	svc := NewService(store, testConfig())
	body, q := secureRequest(t, eventMessage("subscribe"))
	out := svc.HandleMessage(body, q)

	store.AssertExpectations(t)

	// The response must be a valid encrypted envelope with a matching
	// signature over the ciphertext.
	encrypted, ok := wxmsg.ExtractEncrypt([]byte(out))
	require.True(t, ok, "secure request must get an encrypted reply, got %q", out)

	var envelope struct {
		MsgSignature string `xml:"MsgSignature"`
		TimeStamp    string `xml:"TimeStamp"`
		Nonce        string `xml:"Nonce"`
	}
	require.NoError(t, xml.Unmarshal([]byte(out), &envelope))
	assert.Equal(t, q.Timestamp, envelope.TimeStamp)
	assert.Equal(t, q.Nonce, envelope.Nonce)
	assert.Equal(t, wxcrypto.EnvelopeSignature(testToken, q.Timestamp, q.Nonce, encrypted), envelope.MsgSignature)

	plain, err := wxcrypto.Decrypt(encrypted, testAESKey, testAppID)
	require.NoError(t, err)
	reply, err := wxmsg.Parse([]byte(plain))
	require.NoError(t, err)
	assert.Equal(t, "oUser123", reply.ToUserName)
	assert.Contains(t, reply.Content, "欢迎关注")
}

func TestHandleSecureModeBadEnvelopeSignature(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, testConfig())

	body, q := secureRequest(t, eventMessage("subscribe"))
	q.MsgSignature = "deadbeef"
	out := svc.HandleMessage(body, q)

	assert.Equal(t, replyInvalidSignature, out)
	store.AssertNotCalled(t, "SaveAuthCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleSecureModeTamperedCiphertext(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, testConfig())

	_, q := secureRequest(t, eventMessage("subscribe"))
	tampered := "AAAA" + "tampered-not-valid-base64-!!!!"
	q.MsgSignature = wxcrypto.EnvelopeSignature(testToken, q.Timestamp, q.Nonce, tampered)
	body := fmt.Sprintf(`<xml><Encrypt><![CDATA[%s]]></Encrypt></xml>`, tampered)

	out := svc.HandleMessage([]byte(body), q)

	assert.Equal(t, replyInvalidEncrypted, out)
	store.AssertNotCalled(t, "SaveAuthCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleSecureModeMissingEncryptBlock(t *testing.T) {
	svc := NewService(&mockStore{}, testConfig())
	out := svc.HandleMessage([]byte(`<xml><Content>plain</Content></xml>`), Query{EncryptType: "aes"})
	assert.Equal(t, replyInvalidEncrypted, out)
}
