// Package services – TenantService
//
// TenantService owns the lifecycle of per-instance assistant configuration.
// Reads are lazy (missing rows come back as documented defaults), writes are
// full replace-on-conflict upserts. Validation happens here so handlers can
// map failures to HTTP results consistently.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-wa-assistant/internal/domain"
	"github.com/tbourn/go-wa-assistant/internal/repo"
)

// TenantService provides tenant configuration operations.
type TenantService struct {
	DB *gorm.DB
}

// Get returns the configuration for instanceID, applying the documented
// defaults when no row exists.
func (s *TenantService) Get(ctx context.Context, instanceID string) (*domain.TenantConfig, error) {
	if strings.TrimSpace(instanceID) == "" {
		return nil, ErrEmptyInstanceID
	}
	return repo.GetTenantConfig(ctx, s.DB, instanceID)
}

// Upsert validates and persists cfg as a full replacement of any previous
// configuration for the same instance.
func (s *TenantService) Upsert(ctx context.Context, cfg *domain.TenantConfig) (*domain.TenantConfig, error) {
	if strings.TrimSpace(cfg.InstanceID) == "" {
		return nil, ErrEmptyInstanceID
	}
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeSales
	}
	switch cfg.Mode {
	case domain.ModeSales, domain.ModeReservations:
	default:
		return nil, ErrInvalidMode
	}
	return repo.UpsertTenantConfig(ctx, s.DB, cfg)
}
