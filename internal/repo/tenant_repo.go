// Package repo implements the data persistence layer for the service-owned
// database. This file provides repository functions for tenant configuration.
//
// Error semantics:
//   - GetTenantConfig never fails on a missing row: the documented defaults
//     are returned instead (lazy creation; nothing is persisted on read).
//   - UpsertTenantConfig is a full replace-on-conflict: last writer wins,
//     never a partial field patch.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-wa-assistant/internal/domain"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// GetTenantConfig returns the stored configuration for instanceID, or the
// documented defaults when no row exists yet.
func GetTenantConfig(ctx context.Context, db *gorm.DB, instanceID string) (*domain.TenantConfig, error) {
	if strings.TrimSpace(instanceID) == "" {
		return nil, ErrNotFound
	}
	var cfg domain.TenantConfig
	err := db.WithContext(ctx).First(&cfg, "instance_id = ?", instanceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.DefaultTenantConfig(instanceID), nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpsertTenantConfig inserts or fully replaces the configuration row for
// cfg.InstanceID and returns the persisted value.
func UpsertTenantConfig(ctx context.Context, db *gorm.DB, cfg *domain.TenantConfig) (*domain.TenantConfig, error) {
	if strings.TrimSpace(cfg.InstanceID) == "" {
		return nil, ErrNotFound
	}
	cfg.UpdatedAt = time.Now().UTC()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "instance_id"}},
		UpdateAll: true,
	}).Create(cfg).Error
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
