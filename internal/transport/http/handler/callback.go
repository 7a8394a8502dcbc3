package handler

import (
	"io"
	"net/http"

	"github.com/wx-callback-gateway/internal/application/callback"
)

// maxCallbackBody caps the inbound callback document size. Platform
// messages are small; anything larger is not a legitimate callback.
const maxCallbackBody = 1 << 20

// CallbackHandler handles the official-account callback endpoint.
type CallbackHandler struct {
	svc callback.Service
}

func NewCallbackHandler(svc callback.Service) *CallbackHandler {
	return &CallbackHandler{svc: svc}
}

func queryOf(r *http.Request) callback.Query {
	q := r.URL.Query()
	return callback.Query{
		Signature:    q.Get("signature"),
		Timestamp:    q.Get("timestamp"),
		Nonce:        q.Get("nonce"),
		EchoStr:      q.Get("echostr"),
		EncryptType:  q.Get("encrypt_type"),
		MsgSignature: q.Get("msg_signature"),
	}
}

// Verify answers the platform's GET verification leg.
func (h *CallbackHandler) Verify(w http.ResponseWriter, r *http.Request) {
	writeXML(w, h.svc.Verify(queryOf(r)))
}

// Message answers the platform's POST message leg.
func (h *CallbackHandler) Message(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		writeXML(w, "Empty body")
		return
	}
	writeXML(w, h.svc.HandleMessage(body, queryOf(r)))
}
