// Package wxmsg parses and builds the official-account callback XML
// documents, including the secure-mode <Encrypt> envelope.
package wxmsg

import (
	"encoding/xml"
	"fmt"
	"regexp"
)

// Message types and events used by the handshake.
const (
	TypeText  = "text"
	TypeEvent = "event"

	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
)

// Message is an inbound callback message. CDATA wrappers are handled by
// encoding/xml transparently on the way in.
type Message struct {
	XMLName      xml.Name `xml:"xml"`
	ToUserName   string   `xml:"ToUserName"`
	FromUserName string   `xml:"FromUserName"`
	CreateTime   int64    `xml:"CreateTime"`
	MsgType      string   `xml:"MsgType"`
	Content      string   `xml:"Content"`
	Event        string   `xml:"Event"`
	MsgID        int64    `xml:"MsgId"`
}

// Parse decodes an inbound message document.
func Parse(body []byte) (*Message, error) {
	var m Message
	if err := xml.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("parse message xml: %w", err)
	}
	return &m, nil
}

type cdata struct {
	Value string `xml:",cdata"`
}

type textReply struct {
	XMLName      xml.Name `xml:"xml"`
	ToUserName   cdata    `xml:"ToUserName"`
	FromUserName cdata    `xml:"FromUserName"`
	CreateTime   int64    `xml:"CreateTime"`
	MsgType      cdata    `xml:"MsgType"`
	Content      cdata    `xml:"Content"`
}

// BuildTextReply renders a plaintext text reply document.
func BuildTextReply(to, from string, createTime int64, content string) string {
	out, err := xml.Marshal(textReply{
		ToUserName:   cdata{to},
		FromUserName: cdata{from},
		CreateTime:   createTime,
		MsgType:      cdata{"text"},
		Content:      cdata{content},
	})
	if err != nil {
		// Marshalling fixed struct shapes cannot fail at runtime.
		return ""
	}
	return string(out)
}

type encryptedReply struct {
	XMLName      xml.Name `xml:"xml"`
	Encrypt      cdata    `xml:"Encrypt"`
	MsgSignature cdata    `xml:"MsgSignature"`
	TimeStamp    string   `xml:"TimeStamp"`
	Nonce        cdata    `xml:"Nonce"`
}

// BuildEncryptedReply renders the secure-mode reply envelope.
func BuildEncryptedReply(encrypted, signature, timestamp, nonce string) string {
	out, err := xml.Marshal(encryptedReply{
		Encrypt:      cdata{encrypted},
		MsgSignature: cdata{signature},
		TimeStamp:    timestamp,
		Nonce:        cdata{nonce},
	})
	if err != nil {
		return ""
	}
	return string(out)
}

var encryptRe = regexp.MustCompile(`(?s)<Encrypt><!\[CDATA\[(.*?)\]\]></Encrypt>`)

// ExtractEncrypt pulls the ciphertext out of a secure-mode request body.
// The envelope is matched textually before any XML parsing so a tampered
// document outside the <Encrypt> block cannot influence processing.
func ExtractEncrypt(body []byte) (string, bool) {
	m := encryptRe.FindSubmatch(body)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}

// IsEncrypted reports whether the request body carries an <Encrypt> block.
func IsEncrypted(body []byte) bool {
	_, ok := ExtractEncrypt(body)
	return ok
}
