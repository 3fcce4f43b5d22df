package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kmende/npi-registration/internal/app/models/dto"
	"github.com/kmende/npi-registration/internal/app/services"
	"github.com/kmende/npi-registration/internal/middleware"
)

// RegistrationController handles the registration workflow endpoints
type RegistrationController struct {
	registrationService *services.RegistrationService
	logger              zerolog.Logger
}

// NewRegistrationController creates a new RegistrationController
func NewRegistrationController(registrationService *services.RegistrationService, logger zerolog.Logger) *RegistrationController {
	return &RegistrationController{
		registrationService: registrationService,
		logger:              logger,
	}
}

// Submit runs the registration workflow for one applicant
// @Summary Submit a registration
// @Description Registers an applicant end to end: student number, record, billing, payments, accommodation and credentials. Resubmitting the same request token resumes an unfinished attempt.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubmitRegistrationRequest true "Applicant submission"
// @Success 201 {object} dto.APIResponse{data=dto.RegistrationResponse} "Registration completed"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Program not found"
// @Failure 409 {object} dto.ErrorResponse "Duplicate submission or missing fee schedule"
// @Failure 500 {object} dto.ErrorResponse "Registration failed"
// @Router /registrations [post]
func (c *RegistrationController) Submit(ctx *gin.Context) {
	var req dto.SubmitRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid registration data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	actorID, ok := middleware.GetUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	resp, err := c.registrationService.Submit(ctx, &req, actorID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// GetAttemptStatus reports the state of one registration attempt
// @Summary Get registration attempt status
// @Description Retrieves the workflow state recorded for a request token, including the failing stage of a failed attempt
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param token path string true "Request token (UUID)"
// @Success 200 {object} dto.APIResponse{data=dto.AttemptStatusResponse} "Attempt status"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /registrations/{token} [get]
func (c *RegistrationController) GetAttemptStatus(ctx *gin.Context) {
	token := ctx.Param("token")

	resp, err := c.registrationService.GetAttemptStatus(ctx, token)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}
