// Tenant configuration and notes handlers.
//
// Endpoints:
//   - GET /api/v1/tenants/{id}/config  (read, with defaults for unknown ids)
//   - PUT /api/v1/tenants/{id}/config  (full replace)
//   - PUT /api/v1/tenants/{id}/notes   (plain-text notes for retrieval)
//
// Config responses mask the external database credential; the raw URL only
// travels inbound.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-wa-assistant/internal/domain"
	"github.com/tbourn/go-wa-assistant/internal/services"
	"github.com/tbourn/go-wa-assistant/internal/sysutil"
)

// maxNotesBytes caps an uploaded notes document.
const maxNotesBytes = 256 << 10

// TenantConfigResponse is the outbound view of a tenant configuration.
type TenantConfigResponse struct {
	InstanceID      string    `json:"instance_id"`
	Mode            string    `json:"mode"`
	ExternalDBURL   string    `json:"external_db_url,omitempty"`
	RagEnabled      bool      `json:"rag_enabled"`
	WriteEnabled    bool      `json:"write_enabled"`
	ConfirmRequired bool      `json:"confirm_required"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TenantConfigRequest is the inbound payload for PUT config. Omitted booleans
// default to the documented values (rag on, writes off, confirm on).
type TenantConfigRequest struct {
	Mode            string `json:"mode"`
	ExternalDBURL   string `json:"external_db_url"`
	RagEnabled      *bool  `json:"rag_enabled"`
	WriteEnabled    *bool  `json:"write_enabled"`
	ConfirmRequired *bool  `json:"confirm_required"`
}

func configView(cfg *domain.TenantConfig) TenantConfigResponse {
	return TenantConfigResponse{
		InstanceID:      cfg.InstanceID,
		Mode:            cfg.Mode,
		ExternalDBURL:   sysutil.MaskDSN(cfg.ExternalDBURL),
		RagEnabled:      cfg.RagEnabled,
		WriteEnabled:    cfg.WriteEnabled,
		ConfirmRequired: cfg.ConfirmRequired,
		UpdatedAt:       cfg.UpdatedAt,
	}
}

// GetTenantConfig handles GET /api/v1/tenants/:id/config.
func (h *Handlers) GetTenantConfig(c *gin.Context) {
	cfg, err := h.tenants.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrEmptyInstanceID) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "instance id is required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, configView(cfg))
}

// PutTenantConfig handles PUT /api/v1/tenants/:id/config as a full replace.
func (h *Handlers) PutTenantConfig(c *gin.Context) {
	var req TenantConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid configuration payload")
		return
	}

	cfg := domain.DefaultTenantConfig(c.Param("id"))
	cfg.Mode = req.Mode
	cfg.ExternalDBURL = strings.TrimSpace(req.ExternalDBURL)
	if req.RagEnabled != nil {
		cfg.RagEnabled = *req.RagEnabled
	}
	if req.WriteEnabled != nil {
		cfg.WriteEnabled = *req.WriteEnabled
	}
	if req.ConfirmRequired != nil {
		cfg.ConfirmRequired = *req.ConfirmRequired
	}

	saved, err := h.tenants.Upsert(c.Request.Context(), cfg)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyInstanceID):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "instance id is required")
		case errors.Is(err, services.ErrInvalidMode):
			fail(c, http.StatusBadRequest, ErrCodeInvalidMode, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, configView(saved))
}

// PutTenantNotes handles PUT /api/v1/tenants/:id/notes. The body is the full
// plain-text notes document; each upload replaces the previous one.
func (h *Handlers) PutTenantNotes(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "instance id is required")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotesBytes+1))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read notes body")
		return
	}
	if len(body) > maxNotesBytes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "notes document too large")
		return
	}

	h.notes.SetNotes(id, string(body))
	noContent(c)
}
