package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DeliveryHandler struct {
	deliveryService service.DeliveryService
}

func NewDeliveryHandler(deliveryService service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService}
}

func (h *DeliveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/orders", middleware.Authenticated())
	{
		api.POST("/:id/deliveries", h.ConfirmReceipt)
		api.GET("/:id/deliveries", h.ListDeliveries)
	}
}

// ConfirmReceipt records receipt of ordered items
// @Summary      Confirm receipt
// @Description  Records a delivery against an order; over-delivery is rejected
// @Tags         deliveries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Order ID"
// @Param        payload  body      service.ConfirmReceiptDTO  true  "Delivery Payload"
// @Success      201      {object}  response.Response{data=model.PurchaseOrder}
// @Failure      403      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{id}/deliveries [post]
func (h *DeliveryHandler) ConfirmReceipt(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	var req service.ConfirmReceiptDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.deliveryService.ConfirmReceipt(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListDeliveries returns the delivery records for an order
// @Summary      List deliveries
// @Tags         deliveries
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]model.DeliveryRecord}
// @Router       /api/orders/{id}/deliveries [get]
func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	records, err := h.deliveryService.ListByOrder(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}
