// Package executor runs vetted write templates against a tenant's external
// database under a short, bounded transaction.
//
// The executor trusts its caller on intent (confirmation handling lives in
// the engine) but is the last line of defense on parameter validation and
// transactional integrity: required parameters are checked before any
// connection is opened, every statement runs inside a transaction with a
// statement timeout, and any execution error is rolled back best-effort and
// returned as a structured result — callers never see a panic or an
// unhandled error from Execute.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tbourn/go-wa-assistant/internal/catalog"
)

// Result is the discriminated outcome of a template execution. Err is empty
// on success.
type Result struct {
	Rows []map[string]any `json:"rows,omitempty"`
	Err  string           `json:"error,omitempty"`
}

// OK reports whether the execution succeeded.
func (r Result) OK() bool { return r.Err == "" }

// Executor executes catalog templates on tenant-supplied Postgres databases.
// Tenants may point at arbitrary, mutually untrusted databases, so every
// operation opens a fresh connection and tears it down afterwards.
type Executor struct {
	// StmtTimeout bounds each statement server-side. Zero means 5s.
	StmtTimeout time.Duration
}

func (e *Executor) stmtTimeout() time.Duration {
	if e.StmtTimeout <= 0 {
		return 5 * time.Second
	}
	return e.StmtTimeout
}

// Bind maps the supplied parameters onto the template's declared order.
// A required parameter that is absent or nil fails the whole bind; optional
// parameters bind as NULL when absent.
func Bind(tpl catalog.Template, params map[string]any) ([]any, error) {
	values := make([]any, 0, len(tpl.Params))
	for _, declared := range tpl.Params {
		name, optional := catalog.ParamName(declared)
		v, ok := params[name]
		if (!ok || v == nil) && !optional {
			return nil, fmt.Errorf("missing required parameter: %s", name)
		}
		if !ok {
			v = nil
		}
		values = append(values, v)
	}
	return values, nil
}

// Execute binds params to tpl and runs it transactionally against dbURL.
// The returned Result always carries either rows or an error message; it
// never panics and never returns a Go error to keep the caller contract
// result-discriminated.
func (e *Executor) Execute(ctx context.Context, dbURL string, tpl catalog.Template, params map[string]any) Result {
	values, err := Bind(tpl, params)
	if err != nil {
		// Fail before opening any connection: no transaction is wasted on
		// malformed input.
		return Result{Err: err.Error()}
	}

	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return Result{Err: fmt.Sprintf("connect: %v", err)}
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	timeout := fmt.Sprintf("SET statement_timeout = '%dms'", e.stmtTimeout().Milliseconds())
	if _, err := conn.Exec(ctx, timeout); err != nil {
		return Result{Err: fmt.Sprintf("set timeout: %v", err)}
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return Result{Err: fmt.Sprintf("begin: %v", err)}
	}

	rows, err := collectRows(ctx, tx, tpl.SQL, values)
	if err != nil {
		// Best-effort rollback; its own failure is swallowed on purpose —
		// the original execution error is the one worth reporting.
		rbCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = tx.Rollback(rbCtx)
		return Result{Err: err.Error()}
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{Err: fmt.Sprintf("commit: %v", err)}
	}
	return Result{Rows: rows}
}

// collectRows executes sql within tx and materializes the RETURNING rows as
// ordered column→value maps.
func collectRows(ctx context.Context, tx pgx.Tx, sql string, values []any) ([]map[string]any, error) {
	rows, err := tx.Query(ctx, sql, values...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		m := make(map[string]any, len(fields))
		for i, f := range fields {
			m[string(f.Name)] = vals[i]
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
