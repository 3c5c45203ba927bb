package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders", middleware.Authenticated())
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id/approve", h.ApproveOrder)
		orders.PUT("/:id/cancel", h.CancelOrder)
		orders.PUT("/:id/supplier-invoice", h.UpdateSupplierInvoice)
	}
}

// CreateOrder derives a purchase order from a request
// @Summary      Create purchase order
// @Description  Converts selected request items into a purchase order for one supplier
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderDTO  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=model.PurchaseOrder}
// @Failure      403      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	var req service.CreateOrderDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), caller, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders returns a paginated order listing
// @Summary      List purchase orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        status      query  string  false  "Filter by status"
// @Param        request_id  query  string  false  "Filter by originating request"
// @Param        limit       query  int     false  "Page size (default 50, max 200)"
// @Param        offset      query  int     false  "Offset (default 0)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)
	params := pagination.Parse(c)

	orders, total, err := h.orderService.List(c.Request.Context(), caller, service.OrderListFilter{
		Status:    c.Query("status"),
		RequestID: c.Query("request_id"),
		Limit:     params.Limit,
		Offset:    params.Offset,
	})
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"limit":  params.Limit,
		"offset": params.Offset,
	}))
}

// GetOrder returns one order by id
// @Summary      Get purchase order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.PurchaseOrder}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	order, err := h.orderService.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ApproveOrder approves an issued order
// @Summary      Approve purchase order
// @Description  Orders above the configured threshold require general manager approval
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.PurchaseOrder}
// @Failure      403  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/orders/{id}/approve [put]
func (h *OrderHandler) ApproveOrder(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	order, err := h.orderService.Approve(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CancelOrder cancels a non-terminal order
// @Summary      Cancel purchase order
// @Description  Releases the order's claim on the request's items
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.PurchaseOrder}
// @Failure      422  {object}  response.Response
// @Router       /api/orders/{id}/cancel [put]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	order, err := h.orderService.Cancel(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateSupplierInvoice records the supplier's invoice number
// @Summary      Update supplier invoice number
// @Description  Exclusively permitted for the delivery tracker role
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Order ID"
// @Param        payload  body      service.UpdateSupplierInvoiceDTO  true  "Invoice Payload"
// @Success      200      {object}  response.Response{data=model.PurchaseOrder}
// @Failure      403      {object}  response.Response
// @Router       /api/orders/{id}/supplier-invoice [put]
func (h *OrderHandler) UpdateSupplierInvoice(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	var req service.UpdateSupplierInvoiceDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateSupplierInvoice(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
