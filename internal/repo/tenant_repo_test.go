package repo

import (
	"context"
	"testing"

	"github.com/tbourn/go-wa-assistant/internal/domain"
)

func TestGetTenantConfigDefaultsWhenMissing(t *testing.T) {
	db := openTestDB(t)

	cfg, err := GetTenantConfig(context.Background(), db, "inst-1")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != domain.ModeSales || !cfg.RagEnabled || cfg.WriteEnabled || !cfg.ConfirmRequired {
		t.Fatalf("defaults wrong: %+v", cfg)
	}

	// A defaulted read must not have persisted anything.
	var n int64
	db.Model(&domain.TenantConfig{}).Count(&n)
	if n != 0 {
		t.Fatalf("lazy read persisted %d rows", n)
	}
}

func TestGetTenantConfigEmptyInstance(t *testing.T) {
	db := openTestDB(t)
	if _, err := GetTenantConfig(context.Background(), db, "  "); err == nil {
		t.Fatal("expected error for blank instance id")
	}
}

func TestUpsertTenantConfigInsertThenReplace(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := &domain.TenantConfig{
		InstanceID:      "inst-1",
		Mode:            domain.ModeReservations,
		ExternalDBURL:   "postgres://u:p@db.example/app",
		RagEnabled:      true,
		WriteEnabled:    true,
		ConfirmRequired: true,
	}
	if _, err := UpsertTenantConfig(ctx, db, first); err != nil {
		t.Fatal(err)
	}

	got, err := GetTenantConfig(ctx, db, "inst-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != domain.ModeReservations || !got.WriteEnabled {
		t.Fatalf("stored config wrong: %+v", got)
	}

	// Full replace: flags flip back, URL cleared.
	second := &domain.TenantConfig{
		InstanceID:      "inst-1",
		Mode:            domain.ModeSales,
		ExternalDBURL:   "",
		RagEnabled:      false,
		WriteEnabled:    false,
		ConfirmRequired: false,
	}
	if _, err := UpsertTenantConfig(ctx, db, second); err != nil {
		t.Fatal(err)
	}

	got, err = GetTenantConfig(ctx, db, "inst-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != domain.ModeSales || got.WriteEnabled || got.RagEnabled || got.ConfirmRequired || got.ExternalDBURL != "" {
		t.Fatalf("replace did not overwrite all fields: %+v", got)
	}

	var n int64
	db.Model(&domain.TenantConfig{}).Count(&n)
	if n != 1 {
		t.Fatalf("upsert created %d rows, want 1", n)
	}
}
