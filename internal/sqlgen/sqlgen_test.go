package sqlgen

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSanitizeAppendsLimit(t *testing.T) {
	got, err := Sanitize("select 1", 50)
	if err != nil {
		t.Fatal(err)
	}
	if got != "select 1 LIMIT 50" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeKeepsExistingLimit(t *testing.T) {
	got, err := Sanitize("SELECT id FROM orders ORDER BY id LIMIT 5;", 50)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(strings.ToLower(got), "limit") != 1 {
		t.Fatalf("limit duplicated: %q", got)
	}
	if strings.HasSuffix(got, ";") {
		t.Fatalf("trailing semicolon kept: %q", got)
	}
}

func TestSanitizeRejectsNonSelect(t *testing.T) {
	for _, sql := range []string{
		"DELETE FROM orders",
		"with x as (select 1) select * from x", // CTE starts with WITH, not SELECT
		"",
		"explain select 1",
	} {
		if _, err := Sanitize(sql, 50); !errors.Is(err, ErrNotSelect) {
			t.Errorf("Sanitize(%q) err = %v, want ErrNotSelect", sql, err)
		}
	}
}

func TestSanitizeRejectsMultiStatement(t *testing.T) {
	if _, err := Sanitize("select 1; drop table x;", 50); !errors.Is(err, ErrMultiStatement) {
		t.Fatalf("err = %v, want ErrMultiStatement", err)
	}
	// A single trailing semicolon is fine.
	if _, err := Sanitize("select 1;", 50); err != nil {
		t.Fatalf("trailing semicolon rejected: %v", err)
	}
}

func TestSanitizeForbiddenVerbsWholeWord(t *testing.T) {
	// True positive: the verb appears as a word.
	if _, err := Sanitize("select * from t where x = (update)", 50); !errors.Is(err, ErrForbiddenVerb) {
		t.Fatalf("err = %v, want ErrForbiddenVerb", err)
	}
	if _, err := Sanitize("SELECT 1 UNION SELECT * FROM pg_catalog.pg_tables; DELETE FROM x", 50); err == nil {
		t.Fatal("multi-statement with delete accepted")
	}

	// A table literally named "updates" must not be falsely rejected.
	got, err := Sanitize("select * from updates", 50)
	if err != nil {
		t.Fatalf("whole-word check misfired on table name: %v", err)
	}
	if !strings.HasPrefix(got, "select * from updates") {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeCaseInsensitive(t *testing.T) {
	if _, err := Sanitize("select * from a where b in (select c from d) -- DROP", 50); !errors.Is(err, ErrForbiddenVerb) {
		t.Fatalf("uppercase DROP not caught: %v", err)
	}
	if _, err := Sanitize("SeLeCt 1", 50); err != nil {
		t.Fatalf("mixed-case select rejected: %v", err)
	}
}

func TestFormatColumn(t *testing.T) {
	got := FormatColumn("public", "appointments", "start_time", "timestamp with time zone")
	want := "public.appointments.start_time (timestamp with time zone)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

type fakeCompleter struct{ reply string }

func (f fakeCompleter) Complete(context.Context, string, string) (string, error) {
	return f.reply, nil
}

// A bad URL must surface as a structured connect error, not a panic or a Go
// error, and must never reach the LLM.
func TestQueryBadURL(t *testing.T) {
	g := &Generator{LLM: fakeCompleter{reply: "select 1"}}
	out := g.Query(context.Background(), "definitely not a dsn", "anything")
	if out.OK() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(out.Err, "connect") {
		t.Fatalf("err = %q", out.Err)
	}
}

func TestGeneratorDefaults(t *testing.T) {
	g := &Generator{}
	if g.maxSchemaLines() != 4000 || g.defaultLimit() != 50 || g.stmtTimeout().Seconds() != 5 {
		t.Fatalf("defaults = %d/%d/%v", g.maxSchemaLines(), g.defaultLimit(), g.stmtTimeout())
	}
}
