// Package services – AuditService
//
// Read-side access to the append-only audit trail, paginated for the
// operator API.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-wa-assistant/internal/domain"
	"github.com/tbourn/go-wa-assistant/internal/repo"
)

const (
	defaultAuditPerPage = 20
	maxAuditPerPage     = 100
)

// AuditPage is one page of audit records, newest first.
type AuditPage struct {
	Records []domain.AuditRecord
	Total   int64
	Page    int
	PerPage int
}

// AuditService exposes paginated reads over audit_records.
type AuditService struct {
	DB *gorm.DB
}

// List returns one page of the instance's audit trail. Page numbers start at
// 1; out-of-range pagination inputs are clamped, never rejected.
func (s *AuditService) List(ctx context.Context, instanceID string, page, perPage int) (*AuditPage, error) {
	if strings.TrimSpace(instanceID) == "" {
		return nil, ErrEmptyInstanceID
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultAuditPerPage
	}
	if perPage > maxAuditPerPage {
		perPage = maxAuditPerPage
	}

	total, err := repo.CountAudit(ctx, s.DB, instanceID)
	if err != nil {
		return nil, err
	}
	recs, err := repo.ListAuditPage(ctx, s.DB, instanceID, (page-1)*perPage, perPage)
	if err != nil {
		return nil, err
	}
	return &AuditPage{Records: recs, Total: total, Page: page, PerPage: perPage}, nil
}
