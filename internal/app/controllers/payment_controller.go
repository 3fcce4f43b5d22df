package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kmende/npi-registration/internal/app/metrics"
	"github.com/kmende/npi-registration/internal/app/models/dto"
	"github.com/kmende/npi-registration/internal/app/services"
	"github.com/kmende/npi-registration/internal/middleware"
)

// PaymentController handles payment verification endpoints
type PaymentController struct {
	paymentService *services.PaymentService
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(paymentService *services.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// ListPending returns the verification queue
// @Summary List pending payments
// @Description Retrieves all payments awaiting verification, with student and program context
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.PendingPaymentItem} "Pending payments"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Bursar role required"
// @Router /payments/pending [get]
func (c *PaymentController) ListPending(ctx *gin.Context) {
	items, err := c.paymentService.ListPending(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      items,
		Timestamp: time.Now(),
	})
}

// Verify applies a verification decision to one payment
// @Summary Verify or reject a payment
// @Description Applies a bursar's verification decision. A payment can be decided exactly once.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID" Format(int64) minimum(1)
// @Param request body dto.VerifyPaymentRequest true "Verification decision"
// @Success 200 {object} dto.APIResponse{data=models.Payment} "Decision applied"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Payment not found"
// @Failure 409 {object} dto.ErrorResponse "Payment already finalized"
// @Router /payments/{id}/verification [patch]
func (c *PaymentController) Verify(ctx *gin.Context) {
	idStr := ctx.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid payment ID")
		errorDetail = errorDetail.WithDetails("Payment ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.VerifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid verification data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	verifierID, ok := middleware.GetUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	payment, err := c.paymentService.Verify(ctx, id, verifierID, req.Decision)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	metrics.PaymentVerifications.WithLabelValues(string(req.Decision)).Inc()

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      payment,
		Timestamp: time.Now(),
	})
}
