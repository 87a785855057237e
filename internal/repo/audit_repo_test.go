package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tbourn/go-wa-assistant/internal/domain"
)

func TestAppendAndListAudit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	action := "create_order"
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		rec := &domain.AuditRecord{
			InstanceID:   "inst-1",
			Mode:         domain.ModeSales,
			ActionID:     &action,
			ParamsJSON:   fmt.Sprintf(`{"n":%d}`, i),
			ResultJSON:   `{"rows":[]}`,
			ExternalDB:   "postgres://u:p@db.example/app",
			OperationKey: fmt.Sprintf("key%05d", i),
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := AppendAudit(ctx, db, rec); err != nil {
			t.Fatal(err)
		}
		if rec.ID == "" {
			t.Fatal("id not assigned")
		}
	}

	n, err := CountAudit(ctx, db, "inst-1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("count = %d, want 5", n)
	}

	page, err := ListAuditPage(ctx, db, "inst-1", 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	// Newest first.
	if page[0].OperationKey != "key00004" || page[1].OperationKey != "key00003" {
		t.Fatalf("order wrong: %s, %s", page[0].OperationKey, page[1].OperationKey)
	}

	if n, _ := CountAudit(ctx, db, "other"); n != 0 {
		t.Fatalf("audit leaked across instances: %d", n)
	}
}

func TestAppendAuditNilAction(t *testing.T) {
	db := openTestDB(t)
	rec := &domain.AuditRecord{
		InstanceID: "inst-1",
		Mode:       domain.ModeSales,
		ResultJSON: `{"error":"boom"}`,
	}
	if err := AppendAudit(context.Background(), db, rec); err != nil {
		t.Fatal(err)
	}

	page, err := ListAuditPage(context.Background(), db, "inst-1", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ActionID != nil {
		t.Fatalf("nil action id not preserved: %+v", page)
	}
}
