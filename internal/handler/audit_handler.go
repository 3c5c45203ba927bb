package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audit := router.Group("/api/audit", middleware.Authenticated())
	{
		audit.GET("", h.ListAuditLogs)
	}
}

// ListAuditLogs returns the audit trail, newest first
// @Summary      List audit entries
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        entity_type  query  string  false  "Filter by entity type"
// @Param        entity_id    query  string  false  "Filter by entity id"
// @Param        action       query  string  false  "Filter by action"
// @Param        limit        query  int     false  "Page size (default 50, max 200)"
// @Param        offset       query  int     false  "Offset (default 0)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      403  {object}  response.Response
// @Router       /api/audit [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)
	params := pagination.Parse(c)

	logs, total, err := h.auditService.List(c.Request.Context(), caller, service.AuditListFilter{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Action:     c.Query("action"),
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":   logs,
		"total":  total,
		"limit":  params.Limit,
		"offset": params.Offset,
	}))
}
