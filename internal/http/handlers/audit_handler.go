// Audit trail handler.
//
// GET /api/v1/tenants/{id}/audit returns the instance's write-operation
// audit records, newest first, with page/per_page query pagination.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-wa-assistant/internal/domain"
	"github.com/tbourn/go-wa-assistant/internal/services"
	"github.com/tbourn/go-wa-assistant/internal/sysutil"
	"github.com/tbourn/go-wa-assistant/internal/utils"
)

// AuditRecordView is one audit row as exposed over the API. The external
// database target is masked.
type AuditRecordView struct {
	ID           string    `json:"id"`
	Mode         string    `json:"mode"`
	ActionID     *string   `json:"action_id"`
	ParamsJSON   string    `json:"params_json"`
	ResultJSON   string    `json:"result_json"`
	ExternalDB   string    `json:"external_db,omitempty"`
	OperationKey string    `json:"operation_key"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditListResponse is the paginated audit listing envelope.
type AuditListResponse struct {
	Items   []AuditRecordView `json:"items"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

func auditView(rec *domain.AuditRecord) AuditRecordView {
	return AuditRecordView{
		ID:           rec.ID,
		Mode:         rec.Mode,
		ActionID:     rec.ActionID,
		ParamsJSON:   rec.ParamsJSON,
		ResultJSON:   rec.ResultJSON,
		ExternalDB:   sysutil.MaskDSN(rec.ExternalDB),
		OperationKey: rec.OperationKey,
		CreatedAt:    rec.CreatedAt,
	}
}

// ListAudit handles GET /api/v1/tenants/:id/audit.
func (h *Handlers) ListAudit(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	perPage := utils.AtoiDefault(c.Query("per_page"), 20)

	res, err := h.audit.List(c.Request.Context(), c.Param("id"), page, perPage)
	if err != nil {
		if errors.Is(err, services.ErrEmptyInstanceID) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "instance id is required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	items := make([]AuditRecordView, 0, len(res.Records))
	for i := range res.Records {
		items = append(items, auditView(&res.Records[i]))
	}
	ok(c, http.StatusOK, AuditListResponse{
		Items:   items,
		Total:   res.Total,
		Page:    res.Page,
		PerPage: res.PerPage,
	})
}
