// Package handler is the serverless entry point. Function hosts call Handler
// for every request; the echo app is built once per cold start.
package handler

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"gemini-relay/internal/server"
	"gemini-relay/internal/shared"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var app *echo.Echo

func init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed init logger")
	}
	app = server.New(configFromEnv(), logger.Sugar())
}

func configFromEnv() server.Config {
	cfg := server.DefaultConfig()
	cfg.MetricsAPIKey = os.Getenv("METRICS_API_KEY")
	cfg.GeminiBaseURL = shared.GetEnv("GEMINI_BASE_URL", cfg.GeminiBaseURL)
	cfg.CredentialName = shared.GetEnv("CREDENTIAL_ENV", cfg.CredentialName)
	if models := shared.SplitList(os.Getenv("DEFAULT_MODELS")); len(models) > 0 {
		cfg.DefaultModels = models
	}
	if d, err := time.ParseDuration(os.Getenv("UPSTREAM_TIMEOUT")); err == nil && d > 0 {
		cfg.UpstreamTimeout = d
	}
	if n, err := strconv.Atoi(os.Getenv("MAX_ERROR_CHARS")); err == nil && n > 0 {
		cfg.MaxErrorChars = n
	}
	return cfg
}

// Handler serves every route of the relay.
func Handler(w http.ResponseWriter, r *http.Request) {
	app.ServeHTTP(w, r)
}
