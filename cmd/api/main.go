package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gemini-relay/internal/server"
	"gemini-relay/internal/shared"

	"github.com/joho/godotenv"
	"github.com/manifold-inc/manifold-sdk/lib/eflag"
	"go.uber.org/zap"
)

func main() {
	// Local development reads a .env file when one exists
	_ = godotenv.Load()

	defaults := server.DefaultConfig()

	// Flags / ENV Variables
	port := flag.String("port", "80", "Listen port")
	debug := flag.Bool("debug", false, "Debug enabled")
	metricsAPIKey := flag.String("metrics-api-key", "", "Metrics api key")
	geminiBaseURL := flag.String("gemini-base-url", defaults.GeminiBaseURL, "Generative language API base url")
	credentialEnv := flag.String("credential-env", defaults.CredentialName, "Environment variable holding the upstream API key")
	defaultModels := flag.String("default-models", shared.DefaultModel+","+shared.FallbackModel, "Comma separated fallback models")
	upstreamTimeout := flag.Duration("upstream-timeout", defaults.UpstreamTimeout, "Timeout for a single upstream attempt")
	maxErrorChars := flag.Int("max-error-chars", defaults.MaxErrorChars, "Upstream error characters echoed to callers")
	temperature := flag.Float64("temperature", defaults.Temperature, "Generation temperature")
	maxOutputTokens := flag.Int("max-output-tokens", defaults.MaxOutputTokens, "Generation max output tokens")

	err := eflag.SetFlagsFromEnvironment()
	if err != nil {
		panic(err)
	}
	flag.Parse()

	var logger *zap.Logger
	if !*debug {
		logger, err = zap.NewProduction()
		if err != nil {
			panic("Failed init logger")
		}
	}
	if *debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic("Failed init logger")
		}
	}
	log := logger.Sugar()
	defer func() {
		_ = log.Sync()
	}()

	if _, ok := os.LookupEnv(*credentialEnv); !ok {
		// Not fatal, requests answer 500 until the secret shows up
		log.Warnw("Upstream credential not set", "credential", *credentialEnv)
	}

	e := server.New(server.Config{
		MetricsAPIKey:   *metricsAPIKey,
		GeminiBaseURL:   *geminiBaseURL,
		CredentialName:  *credentialEnv,
		DefaultModels:   shared.SplitList(*defaultModels),
		UpstreamTimeout: *upstreamTimeout,
		MaxErrorChars:   *maxErrorChars,
		Temperature:     *temperature,
		MaxOutputTokens: *maxOutputTokens,
	}, log)

	go func() {
		log.Infow("Server starting", "port", *port)
		if err := e.Start(":" + *port); err != nil && err != http.ErrServerClosed {
			log.Fatalw("shutting down the server", "error", err)
		}
	}()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// Wait for interrupt signal to gracefully shut down the server
	<-ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shared.DefaultShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalw("failed shutting down", "error", err)
	}
}
