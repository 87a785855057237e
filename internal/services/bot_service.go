// Package services – BotService
//
// BotService is the conversation-turn engine. For every inbound message it
// sequences: confirmation-intent detection → plan → maybe-confirm → execute →
// audit → reply, falling back to the read path (generated SELECT, then
// retrieval) when no write intent matches.
//
// Hard invariants enforced here:
//   - free text never reaches a tenant database as raw mutation SQL; only
//     catalog templates are ever executed as writes
//   - a confirmation consumes its pending operation before execution is
//     dispatched, so duplicate confirmations cannot double-execute
//   - every executed or attempted write produces exactly one audit record
//     before the reply, and a reply goes out on success and failure alike
//
// Observability: turns are OpenTelemetry-instrumented and the write pipeline
// exposes Prometheus counters.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-wa-assistant/internal/catalog"
	"github.com/tbourn/go-wa-assistant/internal/domain"
	"github.com/tbourn/go-wa-assistant/internal/executor"
	"github.com/tbourn/go-wa-assistant/internal/opkey"
	"github.com/tbourn/go-wa-assistant/internal/pending"
	"github.com/tbourn/go-wa-assistant/internal/planner"
	"github.com/tbourn/go-wa-assistant/internal/repo"
	"github.com/tbourn/go-wa-assistant/internal/search"
	"github.com/tbourn/go-wa-assistant/internal/sqlgen"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/language"
)

// InboundMessage is the normalized message the engine consumes.
type InboundMessage struct {
	Conversation string
	Text         string
	FromMe       bool
}

// ActionPlanner maps free text onto the action catalog.
type ActionPlanner interface {
	Plan(ctx context.Context, mode, userText, schemaHint string) (planner.Plan, error)
}

// TemplateExecutor runs a catalog template against an external database.
type TemplateExecutor interface {
	Execute(ctx context.Context, dbURL string, tpl catalog.Template, params map[string]any) executor.Result
}

// QueryGenerator is the read-only NL→SELECT path.
type QueryGenerator interface {
	Query(ctx context.Context, dbURL, userText string) sqlgen.Outcome
}

// ReplySender delivers user-visible replies through the messaging gateway.
type ReplySender interface {
	SendText(ctx context.Context, instance, recipient, text string) error
}

// BotService wires the engine's collaborators together.
type BotService struct {
	DB       *gorm.DB
	Enabled  bool
	Planner  ActionPlanner
	Executor TemplateExecutor
	Queries  QueryGenerator
	Gateway  ReplySender
	Search   search.Searcher
	Pending  pending.Store

	// Locale selects the canned reply framing; the zero value matches the
	// default (Spanish).
	Locale language.Tag
}

var (
	opsPlanned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_operations_planned_total",
		Help: "Write operations proposed by the planner.",
	})
	opsExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_operations_executed_total",
		Help: "Write operations executed against external databases.",
	}, []string{"outcome"})
	repliesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_replies_sent_total",
		Help: "Replies sent through the messaging gateway.",
	}, []string{"path"})
)

func init() {
	prometheus.MustRegister(opsPlanned, opsExecuted, repliesSent)
}

// confirmPattern matches "CONFIRMAR ab12cd34" (and the English "confirm"),
// case-insensitively, with an 8-char lowercase hex token.
var confirmPattern = regexp.MustCompile(`(?i)^confirm(?:ar)?\s+([a-f0-9]{8})$`)

// ParseConfirmation extracts the short operation key from a confirmation
// message, or "" when the text is not a confirmation.
func ParseConfirmation(text string) string {
	m := confirmPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// HandleIncoming processes one conversation turn. All user-visible effects
// happen through the gateway; internal faults are logged and converted into
// safe fallbacks, never propagated to the caller.
func (s *BotService) HandleIncoming(ctx context.Context, instanceID string, msg InboundMessage) {
	tr := otel.Tracer("services/BotService")
	ctx, span := tr.Start(ctx, "HandleIncoming",
		trace.WithAttributes(
			attribute.String("tenant.id", instanceID),
			attribute.String("conversation.id", msg.Conversation),
		),
	)
	defer span.End()

	text := strings.TrimSpace(msg.Text)
	if !s.Enabled || text == "" || msg.FromMe || msg.Conversation == "" || instanceID == "" {
		return
	}

	cfg, err := repo.GetTenantConfig(ctx, s.DB, instanceID)
	if err != nil {
		log.Error().Err(err).Str("instance", instanceID).Msg("load tenant config")
		return
	}

	// 0) Confirmation of a previously proposed operation. The take is atomic
	// and ownership-checked; an unknown or foreign token falls through to
	// ordinary text handling.
	if key := ParseConfirmation(text); key != "" {
		if op, ok := s.Pending.Take(key, instanceID, msg.Conversation); ok {
			s.executeAndReply(ctx, op, key, msg.Conversation)
			return
		}
	}

	// 1) Write path: only with an external database and writes enabled.
	if cfg.ExternalDBURL != "" && cfg.WriteEnabled {
		if s.tryPlanWrite(ctx, cfg, msg.Conversation, text) {
			return
		}
	}

	// 2) Read path.
	if reply := s.readReply(ctx, cfg, text); reply != "" {
		s.send(ctx, instanceID, msg.Conversation, reply, "read")
	}
}

// tryPlanWrite plans a write for text and either asks for confirmation or
// executes immediately per tenant config. It reports whether the turn was
// fully handled (true) or should fall through to the read path (false).
func (s *BotService) tryPlanWrite(ctx context.Context, cfg *domain.TenantConfig, conversation, text string) bool {
	plan, err := s.Planner.Plan(ctx, cfg.Mode, text, "")
	if err != nil {
		// Planning failure is never surfaced to the user; the read path
		// still produces a reply for this turn.
		log.Warn().Err(err).Str("instance", cfg.InstanceID).Msg("planning failed")
		return false
	}
	if plan.None() {
		return false
	}
	tpl, ok := catalog.Find(cfg.Mode, plan.Action)
	if !ok {
		return false
	}

	key, err := opkey.New(cfg.InstanceID, tpl.ID, plan.Params)
	if err != nil {
		log.Error().Err(err).Str("action", tpl.ID).Msg("hash operation")
		return false
	}
	opsPlanned.Inc()

	summary := plan.Summary
	if summary == "" {
		summary = tpl.Description
	}

	op := pending.Operation{
		Tenant:       cfg.InstanceID,
		Conversation: conversation,
		Mode:         cfg.Mode,
		Template:     tpl,
		Params:       plan.Params,
		DBURL:        cfg.ExternalDBURL,
	}

	if cfg.ConfirmRequired {
		s.Pending.Put(key.Short, op)
		s.send(ctx, cfg.InstanceID, conversation,
			confirmationPrompt(tpl, plan.Params, summary, key.Short), "confirm_prompt")
		return true
	}

	s.executeAndReply(ctx, op, key.Short, conversation)
	return true
}

// executeAndReply runs the operation, writes exactly one audit record, and
// replies with the outcome. The audit record is written before the reply; an
// audit failure is logged but never blocks the reply.
func (s *BotService) executeAndReply(ctx context.Context, op pending.Operation, shortKey, conversation string) {
	tr := otel.Tracer("services/BotService")
	ctx, span := tr.Start(ctx, "executeAndReply",
		trace.WithAttributes(
			attribute.String("action.id", op.Template.ID),
			attribute.String("operation.key", shortKey),
		),
	)
	defer span.End()

	res := s.Executor.Execute(ctx, op.DBURL, op.Template, op.Params)

	outcome := "ok"
	if !res.OK() {
		outcome = "error"
	}
	opsExecuted.WithLabelValues(outcome).Inc()

	actionID := op.Template.ID
	rec := &domain.AuditRecord{
		InstanceID:   op.Tenant,
		Mode:         op.Mode,
		ActionID:     &actionID,
		ParamsJSON:   mustJSON(op.Params),
		ResultJSON:   mustJSON(res),
		ExternalDB:   op.DBURL,
		OperationKey: shortKey,
	}
	if err := repo.AppendAudit(ctx, s.DB, rec); err != nil {
		log.Error().Err(err).Str("operation_key", shortKey).Msg("append audit")
	}

	var reply string
	if res.OK() {
		reply = "✅ Listo. Operación ejecutada.\nResultado: " + renderRows(res.Rows)
	} else {
		reply = "❌ No se pudo ejecutar: " + res.Err
	}
	s.send(ctx, op.Tenant, conversation, reply, "write")
}

// readReply builds the non-mutating answer: generated SELECT first, then
// retrieval-grounded canned framing.
func (s *BotService) readReply(ctx context.Context, cfg *domain.TenantConfig, text string) string {
	f := framesFor(s.Locale, cfg.Mode)

	if cfg.ExternalDBURL != "" && s.Queries != nil {
		out := s.Queries.Query(ctx, cfg.ExternalDBURL, text)
		if out.OK() && len(out.Rows) > 0 {
			rows := out.Rows
			if len(rows) > 5 {
				rows = rows[:5]
			}
			return fmt.Sprintf("%s\n%s\n\n(SQL: %s)", f.found, mustJSONIndent(rows), out.SQL)
		}
		if out.Err != "" {
			log.Debug().Str("instance", cfg.InstanceID).Str("err", out.Err).Msg("read query failed")
		}
	}

	var notes string
	if cfg.RagEnabled && s.Search != nil {
		hits := s.Search.Search(cfg.InstanceID, f.searchPrefix+text, 5)
		var b strings.Builder
		for _, h := range hits {
			b.WriteString("• ")
			b.WriteString(h.Text)
			b.WriteString("\n")
		}
		notes = strings.TrimSpace(b.String())
		if len(notes) > 1500 {
			notes = notes[:1500]
		}
	}

	switch {
	case isGreeting(text):
		return withNotes(f.greeting, f.notesLabel, notes)
	case cfg.Mode == domain.ModeReservations && isReservationIntent(text):
		return withNotes(f.intent, f.rulesLabel, notes)
	case cfg.Mode == domain.ModeSales && isSalesIntent(text):
		return withNotes(f.intent, f.rulesLabel, notes)
	default:
		return withNotes(f.fallback, f.notesLabel, notes)
	}
}

func (s *BotService) send(ctx context.Context, instance, conversation, text, path string) {
	if err := s.Gateway.SendText(ctx, instance, conversation, text); err != nil {
		log.Error().Err(err).Str("instance", instance).Msg("send reply")
		return
	}
	repliesSent.WithLabelValues(path).Inc()
}

// confirmationPrompt renders the operator-facing confirmation request with
// the short token and the chosen parameters.
func confirmationPrompt(tpl catalog.Template, params map[string]any, summary, shortKey string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ Voy a ejecutar *%s* con:\n", tpl.Description)
	b.WriteString("```\n")
	b.WriteString(mustJSONIndent(params))
	b.WriteString("\n```\n")
	if summary != "" {
		fmt.Fprintf(&b, "Resumen: %s\n", summary)
	}
	fmt.Fprintf(&b, "Si estás de acuerdo respondé:\n*CONFIRMAR %s*", shortKey)
	return b.String()
}

func renderRows(rows []map[string]any) string {
	switch {
	case len(rows) == 1:
		return mustJSONIndent(rows[0])
	case len(rows) > 1:
		return mustJSONIndent(rows)
	default:
		return "{}"
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
	return string(b)
}

func mustJSONIndent(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
	return string(b)
}

// --- Cosmetic intent heuristics (framing only, not part of the invariants) ---

var (
	greetingRe    = regexp.MustCompile(`(?i)(^|\s)(hola|buenas|hello|hi)(!|,|\.|\s|$)`)
	reservationRe = regexp.MustCompile(`(?i)(turno|cita|agenda|reserv|disponibilidad)`)
	salesRe       = regexp.MustCompile(`(?i)(precio|stock|comprar|producto|cat[aá]logo)`)
)

func isGreeting(t string) bool          { return greetingRe.MatchString(t) }
func isReservationIntent(t string) bool { return reservationRe.MatchString(t) }
func isSalesIntent(t string) bool       { return salesRe.MatchString(t) }

func withNotes(base, label, notes string) string {
	if notes == "" {
		return base
	}
	return base + "\n\n" + label + ":\n" + notes
}
