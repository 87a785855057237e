package search

import (
	"strings"
	"testing"
)

const notes = `Los turnos se agendan de lunes a viernes entre las 9 y las 18 horas.

Las cancelaciones requieren al menos 24 horas de anticipación para evitar cargos.

El envío de productos demora entre 3 y 5 días hábiles dentro del país.`

func TestSearchRanksRelevantPassageFirst(t *testing.T) {
	m := NewMemory()
	m.SetNotes("inst-1", notes)

	hits := m.Search("inst-1", "cancelaciones de turnos con anticipación", 5)
	if len(hits) == 0 {
		t.Fatal("no hits")
	}
	if !strings.Contains(hits[0].Text, "cancelaciones") && !strings.Contains(hits[0].Text, "Cancelaciones") {
		t.Fatalf("top hit = %q", hits[0].Text)
	}
	if hits[0].Score <= 0 || hits[0].Score > 1 {
		t.Fatalf("score out of range: %f", hits[0].Score)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Fatal("hits not sorted by descending score")
		}
	}
}

func TestSearchTenantIsolation(t *testing.T) {
	m := NewMemory()
	m.SetNotes("inst-1", notes)

	if hits := m.Search("inst-2", "turnos", 5); len(hits) != 0 {
		t.Fatalf("tenant isolation broken: %d hits", len(hits))
	}
}

func TestSearchKCap(t *testing.T) {
	m := NewMemory()
	m.SetNotes("inst-1", notes)

	if hits := m.Search("inst-1", "horas días productos turnos", 1); len(hits) > 1 {
		t.Fatalf("k cap ignored: %d hits", len(hits))
	}
	if hits := m.Search("inst-1", "turnos", 0); hits != nil {
		t.Fatal("k=0 should return nothing")
	}
}

func TestSetNotesReplaces(t *testing.T) {
	m := NewMemory()
	m.SetNotes("inst-1", notes)
	m.SetNotes("inst-1", "Único párrafo nuevo sobre política de reembolsos del negocio.")

	if hits := m.Search("inst-1", "turnos", 5); len(hits) != 0 {
		t.Fatal("old notes still retrievable after replacement")
	}
	if hits := m.Search("inst-1", "política de reembolsos", 5); len(hits) != 1 {
		t.Fatalf("new notes missing: %d hits", len(hits))
	}
}

func TestShortParagraphsFiltered(t *testing.T) {
	m := NewMemory()
	m.SetNotes("inst-1", "corto\n\n"+notes)

	if hits := m.Search("inst-1", "corto", 5); len(hits) != 0 {
		t.Fatal("short fragment should be filtered out")
	}
}

func TestEmptyQuery(t *testing.T) {
	m := NewMemory()
	m.SetNotes("inst-1", notes)
	if hits := m.Search("inst-1", "   !!! ", 5); len(hits) != 0 {
		t.Fatal("tokenless query should return nothing")
	}
}
