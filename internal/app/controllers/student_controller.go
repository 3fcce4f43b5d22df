package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kmende/npi-registration/internal/app/models/dto"
	"github.com/kmende/npi-registration/internal/app/services"
	"github.com/kmende/npi-registration/internal/middleware"
)

// StudentController serves registered student records
type StudentController struct {
	studentService *services.StudentService
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService *services.StudentService) *StudentController {
	return &StudentController{
		studentService: studentService,
	}
}

// GetStudent retrieves a student with all related records
// @Summary Get student details
// @Description Retrieves a student together with program, payments, allocation and issued cards
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Student} "Student retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid student ID format"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [get]
func (c *StudentController) GetStudent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Student ID")
	if !ok {
		return
	}

	student, err := c.studentService.GetStudentWithDetails(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      student,
		Timestamp: time.Now(),
	})
}

// GetByStudentNumber resolves a student by the issued identifier
// @Summary Get student by student number
// @Description Resolves a student record by its issued identifier, e.g. NPI2024DCE001
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param number path string true "Student number"
// @Success 200 {object} dto.APIResponse{data=models.Student} "Student retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/number/{number} [get]
func (c *StudentController) GetByStudentNumber(ctx *gin.Context) {
	number := ctx.Param("number")

	student, err := c.studentService.GetByStudentNumber(ctx, number)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      student,
		Timestamp: time.Now(),
	})
}

// GetAuditTrail retrieves the audit entries recorded for a student
// @Summary Get student audit trail
// @Description Retrieves the append-only audit entries recorded during and after registration
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=[]models.AuditEntry} "Audit trail retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid student ID format"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/audit [get]
func (c *StudentController) GetAuditTrail(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Student ID")
	if !ok {
		return
	}

	entries, err := c.studentService.GetAuditTrail(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      entries,
		Timestamp: time.Now(),
	})
}
