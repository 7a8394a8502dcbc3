// Package callback implements the official-account callback protocol: the
// GET verification leg and the POST message state machine, including the
// secure-mode envelope handling.
package callback

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/wx-callback-gateway/internal/domain"
	"github.com/wx-callback-gateway/internal/pkg/wxcrypto"
	"github.com/wx-callback-gateway/internal/pkg/wxmsg"
)

// Fixed rejection strings returned to the platform. The callback contract
// requires a parsable body on every response, never an error status.
const (
	replyInvalidParams    = "Invalid parameters"
	replyInvalidSignature = "Invalid signature"
	replyInvalidEncrypted = "Invalid encrypted message"
	replyInvalidConfig    = "Invalid configuration"
	replyEmptyBody        = "Empty body"
	replySuccess          = "success"
)

// CredentialStore is the slice of the store the state machine mutates.
type CredentialStore interface {
	SaveAuthCode(code, openid string, profile domain.Profile)
	FindTokenByCode(code string) (string, bool)
	ConvertPendingToAuthCode(token, openid string, profile domain.Profile) (string, bool)
	IsAuthenticated(openid string) bool
}

// Config carries the account credentials the protocol needs.
type Config struct {
	Token   string // shared callback token
	AESKey  string // EncodingAESKey; empty disables secure mode
	AppID   string
	SiteURL string
}

// Query holds the transport-level parameters of a callback request.
type Query struct {
	Signature    string
	Timestamp    string
	Nonce        string
	EchoStr      string
	EncryptType  string
	MsgSignature string
}

// Service is the protocol state machine.
type Service interface {
	// Verify answers the GET verification leg: echostr on success, a fixed
	// rejection string otherwise. Never touches the store.
	Verify(q Query) string
	// HandleMessage answers the POST leg with a reply document, encrypted
	// when the inbound request used secure mode.
	HandleMessage(body []byte, q Query) string
}

type service struct {
	store CredentialStore
	cfg   Config
	now   func() time.Time
}

// NewService builds the state machine over the given store.
func NewService(store CredentialStore, cfg Config) Service {
	return &service{store: store, cfg: cfg, now: time.Now}
}

func (s *service) Verify(q Query) string {
	if s.cfg.Token == "" {
		return replyInvalidConfig
	}
	if q.Signature == "" || q.Timestamp == "" || q.Nonce == "" || q.EchoStr == "" {
		return replyInvalidParams
	}
	if !wxcrypto.VerifySignature(q.Signature, q.Timestamp, q.Nonce, s.cfg.Token) {
		return replyInvalidSignature
	}
	return q.EchoStr
}

func (s *service) HandleMessage(body []byte, q Query) string {
	if s.cfg.Token == "" {
		return replyInvalidConfig
	}
	if len(body) == 0 {
		return replyEmptyBody
	}

	secure := q.EncryptType == "aes" || wxmsg.IsEncrypted(body)

	var plain []byte
	if secure {
		encrypted, ok := wxmsg.ExtractEncrypt(body)
		if !ok {
			return replyInvalidEncrypted
		}
		if !wxcrypto.VerifyEnvelopeSignature(q.MsgSignature, s.cfg.Token, q.Timestamp, q.Nonce, encrypted) {
			slog.Warn("callback envelope signature mismatch")
			return replyInvalidSignature
		}
		decrypted, err := wxcrypto.Decrypt(encrypted, s.cfg.AESKey, s.cfg.AppID)
		if err != nil {
			slog.Warn("callback decrypt failed", "err", err)
			return replyInvalidEncrypted
		}
		plain = []byte(decrypted)
	} else {
		plain = body
	}

	msg, err := wxmsg.Parse(plain)
	if err != nil {
		slog.Warn("callback message parse failed", "err", err)
		if secure {
			return replyInvalidEncrypted
		}
		return replyInvalidParams
	}

	content := s.classify(msg)
	if content == replySuccess {
		// Event acknowledgements carry no reply document.
		return replySuccess
	}

	reply := wxmsg.BuildTextReply(msg.FromUserName, msg.ToUserName, s.now().Unix(), content)
	if !secure || s.cfg.AESKey == "" {
		return reply
	}

	encrypted, err := wxcrypto.Encrypt(reply, s.cfg.AESKey, s.cfg.AppID)
	if err != nil {
		slog.Error("callback reply encrypt failed", "err", err)
		return replyInvalidEncrypted
	}
	signature := wxcrypto.EnvelopeSignature(s.cfg.Token, q.Timestamp, q.Nonce, encrypted)
	return wxmsg.BuildEncryptedReply(encrypted, signature, q.Timestamp, q.Nonce)
}

var sixDigitRe = regexp.MustCompile(`^\d{6}$`)

// classify runs the keyword state machine and returns the reply text.
// First match wins; any internal fault degrades to the fallback reply so
// the platform always receives a well-formed document.
func (s *service) classify(msg *wxmsg.Message) (content string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("callback classification panicked", "recovered", r)
			content = fallbackMessage()
		}
	}()

	openid := msg.FromUserName

	if msg.MsgType == wxmsg.TypeEvent {
		switch msg.Event {
		case wxmsg.EventSubscribe:
			code, err := wxcrypto.GenerateCode()
			if err != nil {
				slog.Error("code generation failed", "err", err)
				return fallbackMessage()
			}
			s.store.SaveAuthCode(code, openid, domain.Profile{})
			slog.Info("subscribe event, issued code", "openid", openid)
			return welcomeMessage(s.cfg.SiteURL, code)
		case wxmsg.EventUnsubscribe:
			return replySuccess
		default:
			return fallbackMessage()
		}
	}

	if msg.MsgType != wxmsg.TypeText {
		return fallbackMessage()
	}

	text := strings.TrimSpace(msg.Content)
	switch {
	case sixDigitRe.MatchString(text):
		// The visitor typed the code the website showed them: bind the
		// pending entry's browser session to this identity.
		token, ok := s.store.FindTokenByCode(text)
		if !ok {
			return confirmFailureMessage()
		}
		if _, ok := s.store.ConvertPendingToAuthCode(token, openid, domain.Profile{}); !ok {
			return confirmFailureMessage()
		}
		slog.Info("pending code confirmed", "openid", openid)
		return confirmSuccessMessage()
	case isStatusKeyword(text):
		return statusMessage(s.store.IsAuthenticated(openid))
	case isHelpKeyword(text):
		return helpMessage()
	case isAuthKeyword(text):
		code, err := wxcrypto.GenerateCode()
		if err != nil {
			slog.Error("code generation failed", "err", err)
			return fallbackMessage()
		}
		s.store.SaveAuthCode(code, openid, domain.Profile{})
		slog.Info("auth keyword, reissued code", "openid", openid)
		return codeMessage(code)
	default:
		return fallbackMessage()
	}
}
