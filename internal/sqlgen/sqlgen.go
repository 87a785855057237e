// Package sqlgen is the read-only query path: it turns free text into a
// single validated SELECT statement grounded in a live schema snapshot of the
// tenant's external database, and executes it under hard timeouts.
//
// The tenant supplies the database URL, so this boundary is adversarial by
// configuration, not just by input: generated statements are validated by
// shape (single statement, SELECT only, forbidden verbs rejected, LIMIT
// enforced) before anything touches the wire.
package sqlgen

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tbourn/go-wa-assistant/internal/llm"
)

// Validation errors, distinct from execution errors so callers can message
// the difference.
var (
	ErrNotSelect      = errors.New("only SELECT statements are allowed")
	ErrMultiStatement = errors.New("only a single statement is allowed")
	ErrForbiddenVerb  = errors.New("statement contains a forbidden operation")
)

var (
	forbiddenVerbs = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|truncate|create|grant|revoke|merge)\b`)
	hasLimit       = regexp.MustCompile(`(?i)\blimit\s+\d+`)
)

// Outcome carries the generated SQL alongside rows or an error message.
// SQL is populated whenever generation succeeded, even if validation or
// execution later failed.
type Outcome struct {
	SQL  string           `json:"sql,omitempty"`
	Rows []map[string]any `json:"rows,omitempty"`
	Err  string           `json:"error,omitempty"`
}

// OK reports whether the query produced rows without error.
func (o Outcome) OK() bool { return o.Err == "" }

// Generator produces and executes read-only queries against external
// databases.
type Generator struct {
	LLM llm.Completer

	// MaxSchemaLines truncates the discovered schema synopsis to stay within
	// prompt limits. Zero means 4000.
	MaxSchemaLines int
	// DefaultLimit is appended when the generated statement lacks an explicit
	// LIMIT. Zero means 50.
	DefaultLimit int
	// StmtTimeout bounds both the statement and idle-in-transaction timeouts.
	// Zero means 5s.
	StmtTimeout time.Duration
}

func (g *Generator) maxSchemaLines() int {
	if g.MaxSchemaLines <= 0 {
		return 4000
	}
	return g.MaxSchemaLines
}

func (g *Generator) defaultLimit() int {
	if g.DefaultLimit <= 0 {
		return 50
	}
	return g.DefaultLimit
}

func (g *Generator) stmtTimeout() time.Duration {
	if g.StmtTimeout <= 0 {
		return 5 * time.Second
	}
	return g.StmtTimeout
}

// Sanitize validates a generated statement and enforces the LIMIT cap.
// It returns the statement ready for execution or one of the validation
// errors above.
func Sanitize(sql string, defaultLimit int) (string, error) {
	s := strings.TrimSpace(sql)
	lowered := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if !strings.HasPrefix(lowered, "select ") && lowered != "select" {
		return "", ErrNotSelect
	}
	// Reject a second non-empty statement after a semicolon.
	if i := strings.Index(s, ";"); i >= 0 && strings.TrimSpace(s[i+1:]) != "" {
		return "", ErrMultiStatement
	}
	// Whole-word match: a table named "updates" must not trip this.
	if forbiddenVerbs.MatchString(s) {
		return "", ErrForbiddenVerb
	}
	if !hasLimit.MatchString(lowered) {
		s = strings.TrimRight(strings.TrimSuffix(strings.TrimRight(s, " \t\n"), ";"), " \t\n")
		return fmt.Sprintf("%s LIMIT %d", s, defaultLimit), nil
	}
	return strings.TrimSuffix(s, ";"), nil
}

const generatorPrompt = `Eres un generador de SQL para PostgreSQL. Reglas:
- Usa SOLO el siguiente esquema (tablas y columnas).
- NO inventes tablas/columnas.
- Genera UNA sola sentencia SELECT válida.
- Si faltan filtros, asumí valores razonables.
- Agrega ORDER BY y LIMIT si corresponde.
Esquema:
%s`

// Query discovers the schema of dbURL, asks the generation service for one
// SELECT answering userText, validates it, and executes it with bounded
// timeouts. The connection is opened fresh and always closed.
func (g *Generator) Query(ctx context.Context, dbURL, userText string) Outcome {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return Outcome{Err: fmt.Sprintf("connect: %v", err)}
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	schema, err := snapshotSchema(ctx, conn, g.maxSchemaLines())
	if err != nil {
		return Outcome{Err: fmt.Sprintf("schema discovery: %v", err)}
	}

	raw, err := g.LLM.Complete(ctx,
		fmt.Sprintf(generatorPrompt, schema),
		fmt.Sprintf("Necesito un SELECT que responda: %q", userText),
	)
	if err != nil {
		return Outcome{Err: fmt.Sprintf("generate: %v", err)}
	}

	sql, err := Sanitize(raw, g.defaultLimit())
	if err != nil {
		return Outcome{SQL: strings.TrimSpace(raw), Err: err.Error()}
	}

	ms := g.stmtTimeout().Milliseconds()
	for _, set := range []string{
		fmt.Sprintf("SET statement_timeout = '%dms'", ms),
		fmt.Sprintf("SET idle_in_transaction_session_timeout = '%dms'", ms),
	} {
		if _, err := conn.Exec(ctx, set); err != nil {
			return Outcome{SQL: sql, Err: fmt.Sprintf("set timeout: %v", err)}
		}
	}

	rows, err := conn.Query(ctx, sql)
	if err != nil {
		return Outcome{SQL: sql, Err: err.Error()}
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return Outcome{SQL: sql, Err: err.Error()}
		}
		m := make(map[string]any, len(fields))
		for i, f := range fields {
			m[string(f.Name)] = vals[i]
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return Outcome{SQL: sql, Err: err.Error()}
	}
	return Outcome{SQL: sql, Rows: out}
}

// snapshotSchema lists all non-system columns as "schema.table.column (type)"
// lines, truncated to maxLines.
func snapshotSchema(ctx context.Context, conn *pgx.Conn, maxLines int) (string, error) {
	rows, err := conn.Query(ctx, `
SELECT table_schema, table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema NOT IN ('pg_catalog','information_schema')
ORDER BY table_schema, table_name, ordinal_position`)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var schema, table, column, typ string
		if err := rows.Scan(&schema, &table, &column, &typ); err != nil {
			return "", err
		}
		lines = append(lines, FormatColumn(schema, table, column, typ))
		if len(lines) >= maxLines {
			break
		}
	}
	if err := rows.Err(); err != nil && len(lines) < maxLines {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// FormatColumn renders one schema snapshot line.
func FormatColumn(schema, table, column, typ string) string {
	return fmt.Sprintf("%s.%s.%s (%s)", schema, table, column, typ)
}
