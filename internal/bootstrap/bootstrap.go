package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/kmende/npi-registration/internal/app/controllers"
	appMigrations "github.com/kmende/npi-registration/internal/app/migrations"
	appRepos "github.com/kmende/npi-registration/internal/app/repositories"
	appRoutes "github.com/kmende/npi-registration/internal/app/routes"
	appServices "github.com/kmende/npi-registration/internal/app/services"
	"github.com/kmende/npi-registration/internal/config"
	"github.com/kmende/npi-registration/internal/db"
	appMiddleware "github.com/kmende/npi-registration/internal/middleware"
	pkgAuth "github.com/kmende/npi-registration/internal/pkg/auth"
	"github.com/kmende/npi-registration/internal/pkg/filestorage"
	"github.com/kmende/npi-registration/internal/pkg/helpers"
	"github.com/kmende/npi-registration/internal/pkg/logger"
	"github.com/kmende/npi-registration/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService            *appServices.AuthService
	ProgramService         *appServices.ProgramService
	RegistrationService    *appServices.RegistrationService
	PaymentService         *appServices.PaymentService
	StudentService         *appServices.StudentService
	AuthController         *appControllers.AuthController
	RegistrationController *appControllers.RegistrationController
	PaymentController      *appControllers.PaymentController
	ProgramController      *appControllers.ProgramController
	StudentController      *appControllers.StudentController
	UploadController       *appControllers.UploadController
	AuthMiddleware         *appMiddleware.AuthMiddleware
	Repos                  *appRepos.Repositories
	JWTService             *pkgAuth.JWTService
	FileStorage            *filestorage.LocalStorage
	Logger                 zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds reference data.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		// Seed failures are logged but don't prevent startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	baseURL := "http://localhost:" + cfg.Server.Port
	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, baseURL+"/uploads")
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, deps.JWTService, lgr)

	sequenceService := appServices.NewSequenceService(deps.Repos.ProgramRepository, deps.Repos.SequenceRepository)
	feeService := appServices.NewFeeService(deps.Repos.ProgramRepository)
	deps.PaymentService = appServices.NewPaymentService(deps.Repos.PaymentRepository, deps.Repos.AuditRepository, lgr)
	roomService := appServices.NewRoomService(deps.Repos.RoomRepository, lgr)
	cardService := appServices.NewCardService(deps.Repos.CardRepository)

	deps.ProgramService = appServices.NewProgramService(deps.Repos.ProgramRepository, feeService)
	deps.StudentService = appServices.NewStudentService(
		deps.Repos.StudentRepository,
		deps.Repos.ProgramRepository,
		deps.Repos.PaymentRepository,
		deps.Repos.RoomRepository,
		deps.Repos.CardRepository,
		deps.Repos.AuditRepository,
	)

	deps.RegistrationService = appServices.NewRegistrationService(
		sequenceService,
		feeService,
		deps.PaymentService,
		roomService,
		cardService,
		deps.Repos.StudentRepository,
		deps.Repos.AttemptRepository,
		deps.Repos.AuditRepository,
		cfg.Registration.StageRetryAttempts,
		helpers.ParseDuration(cfg.Registration.StageRetryBackoff, 200*time.Millisecond),
		lgr,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.RegistrationController = appControllers.NewRegistrationController(deps.RegistrationService, lgr)
	deps.PaymentController = appControllers.NewPaymentController(deps.PaymentService)
	deps.ProgramController = appControllers.NewProgramController(deps.ProgramService)
	deps.StudentController = appControllers.NewStudentController(deps.StudentService)
	deps.UploadController = appControllers.NewUploadController(deps.FileStorage)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.Default()

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.RegistrationController,
		deps.PaymentController,
		deps.ProgramController,
		deps.StudentController,
		deps.UploadController,
		deps.AuthMiddleware,
	)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Liveness endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
