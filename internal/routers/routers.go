// Package routers registers the HTTP surface and maps handler results onto
// responses.
package routers

import (
	"errors"
	"io"
	"net/http"

	"gemini-relay/internal/ctx"
	"gemini-relay/internal/metrics"
	"gemini-relay/internal/shared"
)

func readRequestBody(c *ctx.Context) []byte {
	if c.Request().Body == nil {
		return nil
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		// A body we cannot read is treated as no body at all
		c.Log.Warnw("Failed to read request body", "error", err.Error())
		return nil
	}
	return body
}

// sendError answers err as {"error": ...}. RequestErrors keep their status
// and message; anything else is an unanticipated local failure.
func sendError(c *ctx.Context, err error) error {
	c.LogValues.AddError(err)
	code := "request_error"
	var merr *shared.MetricsError
	if errors.As(err, &merr) {
		code = merr.Code
	}
	var rerr *shared.RequestError
	if errors.As(err, &rerr) {
		metrics.ErrorCount.WithLabelValues(c.Path(), code).Inc()
		return c.JSON(rerr.StatusCode, shared.ErrorBody{Error: rerr.Message()})
	}
	metrics.ErrorCount.WithLabelValues(c.Path(), "internal").Inc()
	c.Log.Errorw("Unanticipated relay failure", "error", err.Error())
	return c.JSON(http.StatusInternalServerError, shared.ErrorBody{Error: err.Error()})
}
