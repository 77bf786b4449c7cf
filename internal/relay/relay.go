// Package relay forwards ask requests to the generation API, falling back
// across candidate models, and normalizes the answer.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gemini-relay/internal/gemini"
	"gemini-relay/internal/metrics"
	"gemini-relay/internal/shared"

	"go.uber.org/zap"
)

const unknownUpstreamError = "Unknown upstream error"

type Config struct {
	// DefaultModels are tried after the requested model.
	DefaultModels []string
	// MaxErrorChars bounds upstream error text echoed to the caller.
	MaxErrorChars int
}

type RelayHandler struct {
	Upstream gemini.Generator
	Keys     KeySource
	Log      *zap.SugaredLogger
	cfg      Config
}

func NewRelayHandler(upstream gemini.Generator, keys KeySource, log *zap.SugaredLogger, cfg Config) *RelayHandler {
	if len(cfg.DefaultModels) == 0 {
		cfg.DefaultModels = shared.DefaultModels()
	}
	if cfg.MaxErrorChars <= 0 {
		cfg.MaxErrorChars = shared.DefaultMaxErrorChars
	}
	return &RelayHandler{Upstream: upstream, Keys: keys, Log: log, cfg: cfg}
}

type AskInput struct {
	Ctx  context.Context
	Body []byte
	Log  *zap.SugaredLogger
}

type AskOutput struct {
	Response shared.AskResponse
	Attempts int
}

// Ask runs one relay. Every failure that should reach the caller comes back
// as a *shared.RequestError; anything else is a local defect.
func (rh *RelayHandler) Ask(input AskInput) (*AskOutput, error) {
	log := input.Log
	if log == nil {
		log = rh.Log
	}
	ctx := input.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	payload := NormalizeBody(input.Body)

	apiKey, ok := rh.Keys.APIKey()
	if !ok {
		log.Errorw("Credential not configured", "credential", rh.Keys.Name())
		return nil, shared.NewRequestError(http.StatusInternalServerError, "Server missing %s", rh.Keys.Name())
	}

	parts := payload.Parts()
	if parts == nil {
		return nil, shared.ErrMissingParts
	}

	candidates := BuildCandidates(payload.Model(), rh.cfg.DefaultModels)

	var lastErr string
	attempts := 0
	for i, model := range candidates {
		attempts++
		start := time.Now()
		res, err := rh.Upstream.GenerateContent(ctx, gemini.Request{
			Model:  model,
			APIKey: apiKey,
			Parts:  parts,
		})
		metrics.UpstreamDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
		if err == nil && res == nil {
			err = errors.New("upstream returned no result")
		}

		if err != nil {
			log.Warnw("Upstream request failed", "model", model, "attempt", i+1, "error", err)
			metrics.UpstreamAttempts.WithLabelValues(model, "transport_error").Inc()
			lastErr = err.Error()
			if i+1 < len(candidates) {
				metrics.Fallbacks.WithLabelValues(model).Inc()
			}
			continue
		}

		if res.OK() {
			metrics.UpstreamAttempts.WithLabelValues(model, "success").Inc()
			return &AskOutput{
				Response: shared.AskResponse{
					Text:      ExtractText(res.Body),
					ModelUsed: model,
				},
				Attempts: attempts,
			}, nil
		}

		log.Errorw("Gemini upstream error", "status", res.StatusCode, "model", model, "body", res.Body)

		if res.StatusCode == http.StatusBadRequest || res.StatusCode == http.StatusNotFound {
			metrics.UpstreamAttempts.WithLabelValues(model, "rejected").Inc()
			lastErr = res.Body
			if i+1 < len(candidates) {
				metrics.Fallbacks.WithLabelValues(model).Inc()
			}
			continue
		}

		metrics.UpstreamAttempts.WithLabelValues(model, "failed").Inc()
		return nil, errors.Join(
			shared.NewRequestError(res.StatusCode, "Upstream %d: %s", res.StatusCode, rh.summarize(res.Body)),
			shared.ErrUpstreamStatus,
		)
	}

	if lastErr == "" {
		lastErr = unknownUpstreamError
	}
	return nil, errors.Join(
		&shared.RequestError{StatusCode: http.StatusBadGateway, Err: errors.New(lastErr)},
		shared.ErrUpstreamExhausted,
	)
}

// summarize shortens upstream error text for the caller and marks the cut.
func (rh *RelayHandler) summarize(body string) string {
	short, cut := shared.Truncate(body, rh.cfg.MaxErrorChars)
	if !cut {
		return short
	}
	return fmt.Sprintf("%s… (truncated)", short)
}
