// Webhook ingestion handler.
//
// The messaging gateway posts every event here. The handler authenticates
// the shared token, figures out which tenant instance the delivery belongs
// to, extracts the message, and hands it to the engine on a detached
// goroutine. It answers 200 immediately in all cases except a bad token:
// slow or failing processing must never make the gateway retry deliveries.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-wa-assistant/internal/http/middleware"
	"github.com/tbourn/go-wa-assistant/internal/services"
	"github.com/tbourn/go-wa-assistant/internal/webhook"
)

// webhookEnvelope is the event metadata around the message payload.
type webhookEnvelope struct {
	Instance string `json:"instance"`
	Event    string `json:"event"`
}

// isMessageEvent reports whether an event name carries a new inbound message.
// Gateways spell it messages.upsert or MESSAGES_UPSERT depending on version.
func isMessageEvent(event string) bool {
	e := strings.ToLower(strings.ReplaceAll(event, "_", "."))
	return e == "messages.upsert"
}

// ReceiveWebhook handles POST /wa/webhook.
func (h *Handlers) ReceiveWebhook(c *gin.Context) {
	if h.webhookToken != "" && c.Query("token") != h.webhookToken {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid webhook token")
		return
	}

	lg := middleware.LoggerFrom(c)

	body, err := c.GetRawData()
	if err != nil {
		lg.Warn().Err(err).Msg("webhook body read failed")
		ok(c, http.StatusOK, gin.H{"ok": true})
		return
	}

	var env webhookEnvelope
	_ = json.Unmarshal(body, &env)

	instance := c.Query("instance")
	if instance == "" {
		instance = env.Instance
	}
	if instance == "" {
		instance = c.GetHeader("X-Evolution-Instance")
	}

	event := env.Event
	if event == "" {
		event = c.Query("event")
	}
	if event == "" {
		event = c.GetHeader("X-Evolution-Event")
	}

	if instance == "" || (event != "" && !isMessageEvent(event)) {
		ok(c, http.StatusOK, gin.H{"ok": true})
		return
	}

	msg, found := webhook.Extract(body)
	if !found {
		lg.Debug().Str("instance", instance).Str("event", event).Msg("webhook without extractable message")
		ok(c, http.StatusOK, gin.H{"ok": true})
		return
	}

	// Detach from the request lifecycle: the 200 goes out now, the engine
	// works on its own deadline, and a panic in a single turn must not take
	// down the server.
	dctx := context.WithoutCancel(c.Request.Context())
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("instance", instance).
					Msg("webhook dispatch panic")
			}
		}()
		ctx, cancel := context.WithTimeout(dctx, h.dispatchTimeout)
		defer cancel()
		h.bot.HandleIncoming(ctx, instance, services.InboundMessage{
			Conversation: msg.Conversation,
			Text:         msg.Text,
			FromMe:       msg.FromMe,
		})
	}()

	ok(c, http.StatusOK, gin.H{"ok": true})
}
