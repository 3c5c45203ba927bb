package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestService service.RequestService
}

func NewRequestHandler(requestService service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests", middleware.Authenticated())
	{
		requests.POST("", h.CreateRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.PUT("/:id/decision", h.DecideRequest)
	}
}

// CreateRequest creates a new material request
// @Summary      Create material request
// @Description  Supervisor raises a material request with line items
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRequestDTO  true  "Create Request Payload"
// @Success      201      {object}  response.Response{data=model.MaterialRequest}
// @Failure      403      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	request, err := h.requestService.Create(c.Request.Context(), caller, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, request))
}

// ListRequests returns requests visible to the caller
// @Summary      List material requests
// @Description  Role-scoped listing with optional status/project filters
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        status      query  string  false  "Filter by status"
// @Param        project_id  query  string  false  "Filter by project"
// @Param        limit       query  int     false  "Page size (default 50, max 200)"
// @Param        offset      query  int     false  "Offset (default 0)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)
	params := pagination.Parse(c)

	filter := service.RequestListFilter{
		Status:       c.Query("status"),
		ProjectID:    c.Query("project_id"),
		SupervisorID: c.Query("supervisor_id"),
		EngineerID:   c.Query("engineer_id"),
		Limit:        params.Limit,
		Offset:       params.Offset,
	}

	requests, total, err := h.requestService.List(c.Request.Context(), caller, filter)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    total,
		"limit":    params.Limit,
		"offset":   params.Offset,
	}))
}

// GetRequest returns one request by id
// @Summary      Get material request
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.MaterialRequest}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	request, err := h.requestService.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// DecideRequest approves or rejects a pending request
// @Summary      Decide material request
// @Description  The assigned engineer approves or rejects a pending request
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Request ID"
// @Param        payload  body      service.DecideRequestDTO  true  "Decision Payload"
// @Success      200      {object}  response.Response{data=model.MaterialRequest}
// @Failure      403      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/requests/{id}/decision [put]
func (h *RequestHandler) DecideRequest(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	var req service.DecideRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	request, err := h.requestService.Decide(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}
