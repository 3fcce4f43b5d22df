package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kmende/npi-registration/internal/app/models/dto"
	"github.com/kmende/npi-registration/internal/pkg/filestorage"
)

// UploadController accepts payment proof uploads ahead of a submission
type UploadController struct {
	storage *filestorage.LocalStorage
}

// NewUploadController creates a new UploadController
func NewUploadController(storage *filestorage.LocalStorage) *UploadController {
	return &UploadController{
		storage: storage,
	}
}

// UploadPaymentProof stores a receipt or deposit slip
// @Summary Upload payment proof
// @Description Stores a receipt image or deposit slip and returns the URL to reference in a registration submission
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Proof document (jpg, png or pdf)"
// @Success 201 {object} dto.APIResponse{data=map[string]string} "Proof stored"
// @Failure 400 {object} dto.ErrorResponse "Missing or unsupported file"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /uploads/payment-proof [post]
func (c *UploadController) UploadPaymentProof(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Proof file is required")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	url, err := c.storage.SavePaymentProof(fileHeader)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Could not store proof file")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      map[string]string{"url": url},
		Timestamp: time.Now(),
	})
}
