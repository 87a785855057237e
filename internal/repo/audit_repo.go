// Package repo implements the data persistence layer for the service-owned
// database. This file provides the append-only audit trail of planned and
// executed write operations.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-wa-assistant/internal/domain"
)

// AppendAudit inserts one audit row. Rows are never updated or deleted.
func AppendAudit(ctx context.Context, db *gorm.DB, rec *domain.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(rec).Error
}

// CountAudit returns the number of audit rows for an instance.
func CountAudit(ctx context.Context, db *gorm.DB, instanceID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.AuditRecord{}).
		Where("instance_id = ?", instanceID).Count(&n).Error
	return n, err
}

// ListAuditPage returns a page of audit rows for an instance, newest first.
func ListAuditPage(ctx context.Context, db *gorm.DB, instanceID string, offset, limit int) ([]domain.AuditRecord, error) {
	var recs []domain.AuditRecord
	err := db.WithContext(ctx).
		Where("instance_id = ?", instanceID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&recs).Error
	return recs, err
}
