package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coursepay/internal/models/request_models"
	"coursepay/internal/services"
	"coursepay/pkg/utils"
)

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// Prepare godoc
// @Summary Prepare a course purchase
// @Description Validates the purchase, writes a pending ledger entry, and returns the launch descriptor for the provider's client-side checkout
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.PrepareRequest true "Prepare Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/prepare [post]
func (p *PaymentController) Prepare(c *gin.Context) {

	var request request_models.PrepareRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	descriptor, err := p.paymentService.Prepare(c.Request.Context(), request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, descriptor, "Payment prepared successfully")
}

// Confirm godoc
// @Summary Confirm a prepared payment
// @Description Settles the payment with the gateway, transitions the ledger entry, and enrolls the user on success
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.ConfirmRequest true "Confirm Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/confirm [post]
func (p *PaymentController) Confirm(c *gin.Context) {

	var request request_models.ConfirmRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := p.paymentService.Confirm(c.Request.Context(), request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Payment confirmed successfully")
}

// Cancel godoc
// @Summary Cancel or refund a paid payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.CancelRequest true "Cancel Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/cancel [post]
func (p *PaymentController) Cancel(c *gin.Context) {

	var request request_models.CancelRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := p.paymentService.Cancel(c.Request.Context(), request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Payment cancelled successfully")
}

// GetByOrderID godoc
// @Summary Get the current state of a payment
// @Tags Payments
// @Produce json
// @Param orderId path string true "Order ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/{orderId} [get]
func (p *PaymentController) GetByOrderID(c *gin.Context) {

	orderID := c.Param("orderId")
	if orderID == "" {
		utils.RespondError(c, http.StatusBadRequest, "orderId is required")
		return
	}

	result, err := p.paymentService.GetByOrderID(c.Request.Context(), orderID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "")
}
