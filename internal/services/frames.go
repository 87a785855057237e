// Package services – canned reply framing.
//
// The read path wraps retrieved context in short canned texts selected by a
// couple of cosmetic heuristics (greeting / domain keywords). The texts are
// localized; the deployment default is Spanish, matched through
// golang.org/x/text so an English-configured instance gets English framing.
package services

import (
	"golang.org/x/text/language"

	"github.com/tbourn/go-wa-assistant/internal/domain"
)

// frameSet is one language/mode combination of canned texts.
type frameSet struct {
	greeting     string
	intent       string
	fallback     string
	found        string
	searchPrefix string
	notesLabel   string
	rulesLabel   string
}

var replyLanguages = []language.Tag{language.Spanish, language.English}

var replyMatcher = language.NewMatcher(replyLanguages)

var frames = map[language.Tag]map[string]frameSet{
	language.Spanish: {
		domain.ModeReservations: {
			greeting:     "¡Hola! Soy tu asistente de reservas. Decime día y hora preferidos y tu nombre.",
			intent:       "Para agendar necesito: nombre, fecha y franja horaria.",
			fallback:     "Te ayudo a tomar turnos.",
			found:        "📅 Esto encontré en la agenda:",
			searchPrefix: "Reservas: ",
			notesLabel:   "Notas",
			rulesLabel:   "Reglas",
		},
		domain.ModeSales: {
			greeting:     "¡Hola! Soy tu asistente de ventas. ¿Qué producto te interesa?",
			intent:       "Puedo ayudarte con productos, precios y stock.",
			fallback:     "Puedo ayudarte con productos, precios y stock.",
			found:        "🛍️ Esto encontré:",
			searchPrefix: "Ventas: ",
			notesLabel:   "Notas",
			rulesLabel:   "Reglas",
		},
	},
	language.English: {
		domain.ModeReservations: {
			greeting:     "Hi! I'm your booking assistant. Tell me your name and a preferred day and time.",
			intent:       "To book I need: name, date and time slot.",
			fallback:     "I can help you book appointments.",
			found:        "📅 Here's what I found in the agenda:",
			searchPrefix: "Bookings: ",
			notesLabel:   "Notes",
			rulesLabel:   "Rules",
		},
		domain.ModeSales: {
			greeting:     "Hi! I'm your sales assistant. Which product are you interested in?",
			intent:       "I can help with products, prices and stock.",
			fallback:     "I can help with products, prices and stock.",
			found:        "🛍️ Here's what I found:",
			searchPrefix: "Sales: ",
			notesLabel:   "Notes",
			rulesLabel:   "Rules",
		},
	},
}

// framesFor picks the frame set for a locale and mode. Unknown locales match
// the default (Spanish); unknown modes fall back to sales framing.
func framesFor(locale language.Tag, mode string) frameSet {
	_, idx, _ := replyMatcher.Match(locale)
	byMode := frames[replyLanguages[idx]]
	if f, ok := byMode[mode]; ok {
		return f
	}
	return byMode[domain.ModeSales]
}
