package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/kmende/npi-registration/internal/pkg/logger"
	"github.com/kmende/npi-registration/internal/server"
)

// @title NPI Registration API
// @version 1.0
// @description Student registration workflow API for the National Polytechnic Institute

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	// Local development keeps secrets in a .env file; absence is fine
	if err := godotenv.Load(); err == nil {
		logger.Debug().Msg("Loaded environment from .env file")
	}

	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
