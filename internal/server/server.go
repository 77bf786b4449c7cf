// Package server assembles the echo application shared by the long running
// binary and the serverless entry point.
package server

import (
	"errors"
	"net/http"
	"time"

	"gemini-relay/internal/gemini"
	"gemini-relay/internal/middleware"
	"gemini-relay/internal/relay"
	"gemini-relay/internal/routers"
	"gemini-relay/internal/shared"

	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Config struct {
	MetricsAPIKey   string
	GeminiBaseURL   string
	CredentialName  string
	DefaultModels   []string
	UpstreamTimeout time.Duration
	MaxErrorChars   int
	Temperature     float64
	MaxOutputTokens int
}

func DefaultConfig() Config {
	return Config{
		GeminiBaseURL:   shared.DefaultGeminiBaseURL,
		CredentialName:  shared.DefaultCredentialName,
		DefaultModels:   shared.DefaultModels(),
		UpstreamTimeout: shared.DefaultUpstreamTimeout,
		MaxErrorChars:   shared.DefaultMaxErrorChars,
		Temperature:     shared.DefaultTemperature,
		MaxOutputTokens: shared.DefaultMaxOutputTokens,
	}
}

// New builds the echo app with the real upstream client.
func New(cfg Config, log *zap.SugaredLogger) *echo.Echo {
	client := gemini.NewClient(gemini.Config{
		BaseURL:         cfg.GeminiBaseURL,
		Timeout:         cfg.UpstreamTimeout,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}, log)
	credential := cfg.CredentialName
	if credential == "" {
		credential = shared.DefaultCredentialName
	}
	return NewWithUpstream(cfg, client, relay.EnvKey(credential), log)
}

// NewWithUpstream builds the echo app around any Generator and KeySource.
func NewWithUpstream(cfg Config, upstream gemini.Generator, keys relay.KeySource, log *zap.SugaredLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler(log)

	e.GET("/ping", func(c echo.Context) error {
		return c.String(200, "")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.NewMetricsAuthMiddleware(cfg.MetricsAPIKey))

	base := e.Group("")
	base.Use(emw.CORS())
	base.Use(middleware.NewTrackMiddleware(log))
	base.Use(middleware.NewRecoverMiddleware(log))

	rh := relay.NewRelayHandler(upstream, keys, log, relay.Config{
		DefaultModels: cfg.DefaultModels,
		MaxErrorChars: cfg.MaxErrorChars,
	})
	routers.RegisterRelayRoutes(base, rh)
	return e
}

// jsonErrorHandler keeps the {"error": ...} body for errors echo produces
// itself, such as unknown routes.
func jsonErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(he.Code)
			}
		}
		if status >= 500 {
			log.Errorw("Unhandled error", "error", err.Error())
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, shared.ErrorBody{Error: msg})
		}
		if err != nil {
			log.Warnw("Failed writing error response", "error", err.Error())
		}
	}
}
