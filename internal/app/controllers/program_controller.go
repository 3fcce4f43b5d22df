package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kmende/npi-registration/internal/app/models/dto"
	"github.com/kmende/npi-registration/internal/app/services"
	"github.com/kmende/npi-registration/internal/middleware"
)

// ProgramController serves the program catalog and fee previews
type ProgramController struct {
	programService *services.ProgramService
}

// NewProgramController creates a new ProgramController
func NewProgramController(programService *services.ProgramService) *ProgramController {
	return &ProgramController{
		programService: programService,
	}
}

// ListPrograms retrieves all active programs
// @Summary List programs
// @Description Retrieves all active programs open for registration
// @Tags programs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Program} "Programs retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /programs [get]
func (c *ProgramController) ListPrograms(ctx *gin.Context) {
	programs, err := c.programService.ListPrograms(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      programs,
		Timestamp: time.Now(),
	})
}

// GetFeeSchedule retrieves the fee schedule of a program
// @Summary Get program fee schedule
// @Description Retrieves the full fee schedule of a program, mandatory items first
// @Tags programs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Program ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=[]models.FeeItem} "Fee schedule retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid program ID format"
// @Failure 404 {object} dto.ErrorResponse "Program not found"
// @Router /programs/{id}/fees [get]
func (c *ProgramController) GetFeeSchedule(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Program ID")
	if !ok {
		return
	}

	schedule, err := c.programService.GetFeeSchedule(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      schedule,
		Timestamp: time.Now(),
	})
}

// PreviewBill computes the bill a fee selection would produce
// @Summary Preview a bill
// @Description Computes the payable total for a program and optional fee selection, without side effects
// @Tags programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Program ID" Format(int64) minimum(1)
// @Param request body dto.PreviewBillRequest true "Optional fee selection"
// @Success 200 {object} dto.APIResponse{data=dto.BillPreviewResponse} "Bill preview"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Program not found"
// @Failure 409 {object} dto.ErrorResponse "Program has no configured fee schedule"
// @Router /programs/{id}/fees/preview [post]
func (c *ProgramController) PreviewBill(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Program ID")
	if !ok {
		return
	}

	var req dto.PreviewBillRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid preview data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	preview, err := c.programService.PreviewBill(ctx, id, req.SelectedFeeIDs)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      preview,
		Timestamp: time.Now(),
	})
}

// parseIDParam parses a path parameter as int64, writing the validation
// error itself when malformed.
func parseIDParam(ctx *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+label)
		errorDetail = errorDetail.WithDetails(label + " must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}
