// Package domain defines the persistence models for tenant configuration and
// the write-operation audit trail. These types are mapped with GORM and form
// the service-owned data layer of the assistant backend (the tenants'
// external databases are never touched through GORM).
package domain

import "time"

// Tenant business modes. The mode selects which action-catalog subset the
// planner may choose from.
const (
	ModeSales        = "sales"
	ModeReservations = "reservations"
)

// TenantConfig is the per-instance assistant configuration.
//
// A row is created lazily: reading a missing instance yields the documented
// defaults (sales mode, retrieval on, writes off, confirmation on) without
// persisting anything. Updates are full replace-on-conflict upserts.
type TenantConfig struct {
	InstanceID      string    `json:"instance_id"       gorm:"type:varchar(64);primaryKey"`
	Mode            string    `json:"mode"              gorm:"type:varchar(16);not null;default:'sales';check:mode IN ('sales','reservations')"`
	ExternalDBURL   string    `json:"external_db_url"   gorm:"type:text"`
	RagEnabled      bool      `json:"rag_enabled"       gorm:"not null;default:true"`
	WriteEnabled    bool      `json:"write_enabled"     gorm:"not null;default:false"`
	ConfirmRequired bool      `json:"confirm_required"  gorm:"not null;default:true"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName implements the GORM tabler interface.
func (TenantConfig) TableName() string { return "tenant_configs" }

// DefaultTenantConfig returns the documented defaults for an instance that
// has no stored row yet.
func DefaultTenantConfig(instanceID string) *TenantConfig {
	return &TenantConfig{
		InstanceID:      instanceID,
		Mode:            ModeSales,
		RagEnabled:      true,
		WriteEnabled:    false,
		ConfirmRequired: true,
	}
}

// AuditRecord is one append-only row per executed (or attempted) write
// operation. Records are never mutated or deleted by this application.
//
// Fields:
//   - ActionID is nil for read-path entries.
//   - ParamsJSON / ResultJSON are JSON snapshots of the bound parameters and
//     the execution result (including the error message on failure).
//   - OperationKey is the deterministic operation fingerprint (short form),
//     linking the record back to the confirmation that approved it.
type AuditRecord struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	InstanceID   string    `json:"instance_id"   gorm:"type:varchar(64);not null;index:idx_audit_instance"`
	Mode         string    `json:"mode"          gorm:"type:varchar(16);not null"`
	ActionID     *string   `json:"action_id"     gorm:"type:varchar(64)"`
	ParamsJSON   string    `json:"params_json"   gorm:"type:text"`
	ResultJSON   string    `json:"result_json"   gorm:"type:text"`
	ExternalDB   string    `json:"external_db"   gorm:"type:text"`
	OperationKey string    `json:"operation_key" gorm:"type:varchar(64);index"`
	CreatedAt    time.Time `json:"created_at"    gorm:"index:idx_audit_instance,priority:2"`
}

// TableName implements the GORM tabler interface.
func (AuditRecord) TableName() string { return "audit_records" }
