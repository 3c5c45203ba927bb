package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type QuotationHandler struct {
	quotationService service.QuotationService
}

func NewQuotationHandler(quotationService service.QuotationService) *QuotationHandler {
	return &QuotationHandler{quotationService: quotationService}
}

func (h *QuotationHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api", middleware.Authenticated())
	{
		api.POST("/requests/:id/offers", h.SubmitOffers)
		api.GET("/requests/:id/quotation", h.GetQuotation)
		api.PUT("/quotations/:id/selection", h.SelectOffer)
	}
}

// SubmitOffers submits supplier offers for comparison
// @Summary      Submit offers
// @Description  Normalizes multi-supplier offers against the request's items; re-submission replaces the offer set and clears any selection
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Request ID"
// @Param        payload  body      service.SubmitOffersDTO  true  "Offers Payload"
// @Success      200      {object}  response.Response{data=model.QuotationComparison}
// @Failure      422      {object}  response.Response
// @Router       /api/requests/{id}/offers [post]
func (h *QuotationHandler) SubmitOffers(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	var req service.SubmitOffersDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quotation, err := h.quotationService.SubmitOffers(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// GetQuotation returns the comparison for a request
// @Summary      Get quotation comparison
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.QuotationComparison}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id}/quotation [get]
func (h *QuotationHandler) GetQuotation(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	quotation, err := h.quotationService.GetByRequest(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// SelectOffer records the winning offer on a comparison
// @Summary      Select offer
// @Description  Marks one offer as selected; advisory input to order derivation
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Quotation ID"
// @Param        payload  body      service.SelectOfferDTO  true  "Selection Payload"
// @Success      200      {object}  response.Response{data=model.QuotationComparison}
// @Failure      422      {object}  response.Response
// @Router       /api/quotations/{id}/selection [put]
func (h *QuotationHandler) SelectOffer(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)

	var req service.SelectOfferDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quotation, err := h.quotationService.SelectOffer(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}
