// Package planner maps free-text user messages onto the action catalog.
//
// The planner owns no execution logic: it builds a closed-world prompt that
// enumerates only the templates available for the active mode and delegates
// extraction to the language-understanding service. Anything that is not a
// well-formed plan collapses to ActionNone — the caller falls back to the
// read path, never to an error shown to the user.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tbourn/go-wa-assistant/internal/catalog"
	"github.com/tbourn/go-wa-assistant/internal/llm"
)

// ActionNone is the sentinel returned when no catalog action applies.
const ActionNone = "none"

// Plan is the structured planning result.
type Plan struct {
	Action  string         `json:"action"`
	Params  map[string]any `json:"params"`
	Summary string         `json:"summary,omitempty"`
}

// None reports whether the plan selected no action.
func (p Plan) None() bool { return p.Action == "" || p.Action == ActionNone }

// Planner chooses an action template and extracts its parameters.
type Planner struct {
	LLM llm.Completer
}

const systemPrompt = `Sos un planner de acciones sobre Postgres.
- Elegí SOLO una acción de la lista.
- Extraé parámetros en JSON. Respetá nombres de params.
- Si un param termina con "?", es opcional.
- Si NO hay acción adecuada, responde {"action":"none"}.`

// Plan asks the understanding service to pick one catalog action for mode and
// extract its parameters from userText. schemaHint is optional grounding
// context (tables/columns of the external database).
//
// A transport or upstream failure is returned as an error; a syntactically
// invalid or malformed response is coerced to ActionNone. Required-parameter
// presence is NOT validated here — the executor fails fast at bind time.
func (p *Planner) Plan(ctx context.Context, mode, userText, schemaHint string) (Plan, error) {
	templates := catalog.ForMode(mode)
	if len(templates) == 0 {
		return Plan{Action: ActionNone}, nil
	}

	var desc strings.Builder
	for _, t := range templates {
		fmt.Fprintf(&desc, "- %s: %s; params: %s\n", t.ID, t.Description, strings.Join(t.Params, ", "))
	}

	sys := systemPrompt
	if schemaHint != "" {
		sys += "\nSchema:\n" + schemaHint
	}
	user := fmt.Sprintf(`Texto del usuario: """%s"""
Acciones disponibles:
%s
Devolvé un JSON con forma:
{"action":"<id>", "params":{"param1":"..."},"summary":"..."}
o {"action":"none"}`, userText, desc.String())

	out, err := p.LLM.Complete(ctx, sys, user)
	if err != nil {
		return Plan{}, err
	}

	var plan Plan
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &plan); err != nil {
		return Plan{Action: ActionNone}, nil
	}
	if plan.Action == "" {
		return Plan{Action: ActionNone}, nil
	}
	// An action id the catalog does not know is as good as no action.
	if plan.Action != ActionNone {
		if _, ok := catalog.Find(mode, plan.Action); !ok {
			return Plan{Action: ActionNone}, nil
		}
	}
	if plan.Params == nil {
		plan.Params = map[string]any{}
	}
	return plan, nil
}
