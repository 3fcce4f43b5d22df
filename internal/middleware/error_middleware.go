package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kmende/npi-registration/internal/app/models/dto"
	"github.com/kmende/npi-registration/internal/app/services"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
)

// HandleAPIError maps service errors onto API responses. Controllers call
// this for any error coming out of the service layer so every endpoint
// reports failures the same way.
func HandleAPIError(c *gin.Context, err error) {
	var regErr *services.RegistrationError
	if errors.As(err, &regErr) {
		handleRegistrationError(c, regErr)
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrScopeNotFound):
		c.JSON(404, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeScopeNotFound, "Program not found or inactive"),
		})
	case errors.Is(err, apperrors.ErrFeeScheduleNotFound):
		c.JSON(409, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeFeeScheduleMissing, "Program has no configured fee schedule"),
		})
	case errors.Is(err, apperrors.ErrDuplicateSubmission):
		c.JSON(409, dto.APIResponse{
			Error: withCustomDetails(err, dto.NewErrorDetail(dto.ErrorCodeDuplicateSubmission, "This submission was already completed")),
		})
	case errors.Is(err, apperrors.ErrPaymentFinalized):
		c.JSON(409, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodePaymentFinalized, "Payment verification was already finalized"),
		})
	case errors.Is(err, apperrors.ErrStudentNotFound),
		errors.Is(err, apperrors.ErrProgramNotFound),
		errors.Is(err, apperrors.ErrPaymentNotFound),
		errors.Is(err, apperrors.ErrAttemptNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrResourceNotFound):
		c.JSON(404, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found"),
		})
	case errors.Is(err, apperrors.ErrResourceAlreadyExists), errors.Is(err, apperrors.ErrConflict):
		c.JSON(409, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Resource already exists"),
		})
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		c.JSON(401, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials"),
		})
	case errors.Is(err, apperrors.ErrAccountDisabled):
		c.JSON(403, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeForbidden, "Account is disabled"),
		})
	case errors.Is(err, apperrors.ErrTokenExpired):
		c.JSON(401, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired"),
		})
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrInvalidFormat):
		c.JSON(401, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token"),
		})
	case errors.Is(err, apperrors.ErrPermissionDenied):
		c.JSON(403, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied"),
		})
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		c.JSON(400, dto.APIResponse{
			Error: withCustomDetails(err, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())),
		})
	case apperrors.IsTransient(err):
		c.JSON(503, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Service temporarily unavailable, please retry"),
		})
	default:
		c.JSON(500, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
		})
	}
}

// handleRegistrationError reports a failed registration attempt. The cause
// decides the status code; the stage and resumability ride along so the
// client knows whether resubmitting the same token can help.
func handleRegistrationError(c *gin.Context, regErr *services.RegistrationError) {
	details := map[string]interface{}{
		"stage":     regErr.Stage,
		"resumable": regErr.Resumable,
	}

	switch {
	case errors.Is(regErr.Err, apperrors.ErrScopeNotFound):
		c.JSON(404, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeScopeNotFound, "Program not found or inactive").WithDetails(details),
		})
	case errors.Is(regErr.Err, apperrors.ErrFeeScheduleNotFound):
		c.JSON(409, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeFeeScheduleMissing, "Program has no configured fee schedule").WithDetails(details),
		})
	case errors.Is(regErr.Err, apperrors.ErrBadRequest):
		c.JSON(400, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, regErr.Err.Error()).WithDetails(details),
		})
	case apperrors.IsTransient(regErr.Err):
		c.JSON(503, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeRegistrationFailed, "Registration could not complete, resubmit to resume").WithDetails(details),
		})
	default:
		c.JSON(500, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeRegistrationFailed, "Registration failed").WithDetails(details),
		})
	}
}

// withCustomDetails copies structured details off a CustomError when present
func withCustomDetails(err error, detail *dto.ErrorDetail) *dto.ErrorDetail {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Details != nil {
		detail = detail.WithDetails(custom.Details)
	}
	return detail
}
