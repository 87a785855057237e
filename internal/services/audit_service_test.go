package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/tbourn/go-wa-assistant/internal/domain"
	"github.com/tbourn/go-wa-assistant/internal/repo"
)

func newAuditService(t *testing.T, rows int) *AuditService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for i := 0; i < rows; i++ {
		action := fmt.Sprintf("action-%d", i)
		rec := &domain.AuditRecord{
			InstanceID:   "inst-1",
			Mode:         domain.ModeSales,
			ActionID:     &action,
			ParamsJSON:   "{}",
			ResultJSON:   "{}",
			OperationKey: fmt.Sprintf("key-%03d", i),
		}
		if err := repo.AppendAudit(ctx, db, rec); err != nil {
			t.Fatal(err)
		}
	}
	return &AuditService{DB: db}
}

func TestAuditListPaginates(t *testing.T) {
	s := newAuditService(t, 25)

	page, err := s.List(context.Background(), "inst-1", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 25 || len(page.Records) != 10 {
		t.Fatalf("total=%d len=%d", page.Total, len(page.Records))
	}

	last, err := s.List(context.Background(), "inst-1", 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(last.Records) != 5 {
		t.Fatalf("last page len=%d, want 5", len(last.Records))
	}
}

func TestAuditListClampsInputs(t *testing.T) {
	s := newAuditService(t, 3)

	page, err := s.List(context.Background(), "inst-1", -4, 0)
	if err != nil {
		t.Fatal(err)
	}
	if page.Page != 1 || page.PerPage != defaultAuditPerPage {
		t.Fatalf("page=%d perPage=%d", page.Page, page.PerPage)
	}

	page, _ = s.List(context.Background(), "inst-1", 1, 10_000)
	if page.PerPage != maxAuditPerPage {
		t.Fatalf("perPage=%d, want cap %d", page.PerPage, maxAuditPerPage)
	}
}

func TestAuditListRejectsEmptyInstance(t *testing.T) {
	s := newAuditService(t, 0)
	if _, err := s.List(context.Background(), " ", 1, 10); !errors.Is(err, ErrEmptyInstanceID) {
		t.Fatalf("err = %v", err)
	}
}

func TestAuditListEmptyForUnknownInstance(t *testing.T) {
	s := newAuditService(t, 2)
	page, err := s.List(context.Background(), "other", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 0 || len(page.Records) != 0 {
		t.Fatalf("unexpected rows for unknown instance: %+v", page)
	}
}
