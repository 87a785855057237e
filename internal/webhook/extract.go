// Package webhook normalizes inbound provider payloads into the one message
// shape the engine consumes.
//
// Providers have shipped several payload layouts over time, so text
// extraction is a single ordered list of typed rules tried in sequence. Each
// rule is total: it never fails, it either yields a value or "no match". The
// first match wins. This keeps the compatibility-shim nature explicit and
// testable in isolation from the engine.
package webhook

import (
	"encoding/json"
	"strings"
)

// Message is the normalized inbound message handed to the engine.
type Message struct {
	// Conversation is the chat identifier (remote JID) the message belongs to.
	Conversation string
	// Text is the extracted text, or a bracketed placeholder for media-only
	// messages. Empty when nothing usable was found.
	Text string
	// FromMe marks messages sent by the instance itself; the engine ignores
	// them.
	FromMe bool
}

// rule extracts text from an unwrapped message node. Rules are total.
type rule func(m map[string]any) (string, bool)

// textRules is the ordered extraction list; first match wins.
var textRules = []rule{
	stringField("conversation"),
	nestedString("extendedTextMessage", "text"),
	nestedString("imageMessage", "caption"),
	nestedString("videoMessage", "caption"),
	nestedString("documentMessage", "caption"),
	nestedString("audioMessage", "caption"),
	nestedString("stickerMessage", "caption"),
	nestedString("buttonsResponseMessage", "selectedDisplayText"),
	nestedString("listResponseMessage", "title"),
	nestedString("contactMessage", "displayName"),
}

// placeholderRules map media-only payloads to bracketed placeholders so the
// engine can tell "no text" apart from "no message".
var placeholderRules = []struct {
	field       string
	placeholder string
}{
	{"viewOnceMessage", "[vista única]"},
	{"imageMessage", "[imagen]"},
	{"videoMessage", "[video]"},
	{"documentMessage", "[documento]"},
	{"audioMessage", "[audio]"},
	{"stickerMessage", "[sticker]"},
}

// Extract parses a raw provider event payload and returns the normalized
// message. ok is false when the payload carries no message at all.
func Extract(payload []byte) (Message, bool) {
	var root map[string]any
	if err := json.Unmarshal(payload, &root); err != nil {
		return Message{}, false
	}

	// Some providers nest the message under data.
	node := root
	if d, ok := root["data"].(map[string]any); ok {
		node = d
	}

	var msg Message
	if key, ok := node["key"].(map[string]any); ok {
		if jid, ok := key["remoteJid"].(string); ok {
			msg.Conversation = jid
		}
		if fm, ok := key["fromMe"].(bool); ok {
			msg.FromMe = fm
		}
	}
	if msg.Conversation == "" {
		if jid, ok := node["remoteJid"].(string); ok {
			msg.Conversation = jid
		} else if jid, ok := node["chatId"].(string); ok {
			msg.Conversation = jid
		}
	}

	body := unwrap(node)

	for _, r := range textRules {
		if t, ok := r(body); ok {
			msg.Text = strings.TrimSpace(t)
			return msg, true
		}
	}

	// protocolMessage type 0 is a deletion marker.
	if pm, ok := body["protocolMessage"].(map[string]any); ok {
		if typ, ok := pm["type"].(float64); ok && typ == 0 {
			msg.Text = "[mensaje eliminado]"
			return msg, true
		}
	}
	for _, p := range placeholderRules {
		if _, ok := body[p.field]; ok {
			msg.Text = p.placeholder
			return msg, true
		}
	}
	return msg, true
}

// unwrap follows nested "message" wrappers down to the innermost node. A
// payload without a wrapper is treated as the body itself; the rules simply
// find nothing when the shape is foreign.
func unwrap(node map[string]any) map[string]any {
	cur := node
	for {
		inner, ok := cur["message"].(map[string]any)
		if !ok {
			return cur
		}
		cur = inner
	}
}

func stringField(name string) rule {
	return func(m map[string]any) (string, bool) {
		s, ok := m[name].(string)
		return s, ok && strings.TrimSpace(s) != ""
	}
}

func nestedString(outer, inner string) rule {
	return func(m map[string]any) (string, bool) {
		o, ok := m[outer].(map[string]any)
		if !ok {
			return "", false
		}
		s, ok := o[inner].(string)
		return s, ok && strings.TrimSpace(s) != ""
	}
}
