package handler

import (
	"net/http"

	"rawvariant/internal/dto"
	"rawvariant/internal/pairing"

	"github.com/gin-gonic/gin"
)

type PairingsHandler struct{ svc *pairing.Service }

func NewPairingsHandler(svc *pairing.Service) *PairingsHandler {
	return &PairingsHandler{svc: svc}
}

// Audit godoc
// @Summary Report pairing rule violations
// @Description Read-only scan for data written around the service.
// @Tags pairings
// @Produce json
// @Success 200 {object} dto.AuditResponse
// @Router /v1/pairings/audit [get]
func (h *PairingsHandler) Audit(c *gin.Context) {
	findings, err := h.svc.Audit(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp := dto.AuditResponse{Total: len(findings), Findings: make([]dto.FindingResponse, len(findings))}
	for i, f := range findings {
		resp.Findings[i] = dto.FindingResponse{
			ProductID:  f.ProductID.String(),
			Code:       f.Code,
			TemplateID: f.TemplateID.String(),
			Invariant:  f.Invariant,
			Detail:     f.Detail,
		}
	}
	c.JSON(http.StatusOK, resp)
}
