package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kmende/npi-registration/internal/app/controllers"
	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	registrationController *controllers.RegistrationController,
	paymentController *controllers.PaymentController,
	programController *controllers.ProgramController,
	studentController *controllers.StudentController,
	uploadController *controllers.UploadController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		// Program catalog, readable by any staff member
		programs := authenticated.Group("/programs")
		{
			programs.GET("", programController.ListPrograms)
			programs.GET("/:id/fees", programController.GetFeeSchedule)
			programs.POST("/:id/fees/preview", programController.PreviewBill)
		}

		// Registration workflow, registrar only
		registrations := authenticated.Group("/registrations")
		registrations.Use(authMiddleware.RoleRequired(models.RoleRegistrar))
		{
			registrations.POST("", registrationController.Submit)
			registrations.GET("/:token", registrationController.GetAttemptStatus)
		}

		// Payment proof uploads, registrar only
		uploads := authenticated.Group("/uploads")
		uploads.Use(authMiddleware.RoleRequired(models.RoleRegistrar))
		{
			uploads.POST("/payment-proof", uploadController.UploadPaymentProof)
		}

		// Payment verification, bursar only
		payments := authenticated.Group("/payments")
		payments.Use(authMiddleware.RoleRequired(models.RoleBursar))
		{
			payments.GET("/pending", paymentController.ListPending)
			payments.PATCH("/:id/verification", paymentController.Verify)
		}

		// Student records, readable by any staff member
		students := authenticated.Group("/students")
		{
			students.GET("/:id", studentController.GetStudent)
			students.GET("/:id/audit", studentController.GetAuditTrail)
			students.GET("/number/:number", studentController.GetByStudentNumber)
		}
	}
}
