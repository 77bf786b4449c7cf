package middleware

import (
	"fmt"
	"net/http"
	"time"

	"gemini-relay/internal/ctx"
	"gemini-relay/internal/metrics"
	"gemini-relay/internal/shared"

	"github.com/aidarkhanov/nanoid"
	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func NewTrackMiddleware(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID, _ := nanoid.Generate(shared.RequestIDAlphabet, shared.RequestIDLength)
			reqID = "req_" + reqID
			c.Response().Header().Set(echo.HeaderXRequestID, reqID)

			start := time.Now()
			cc := &ctx.Context{
				Context: c,
				Log:     log.With("request_id", reqID),
				Reqid:   reqID,
				LogValues: &ctx.ContextLogValues{
					RequestID: reqID,
					StartTime: start,
					Path:      c.Path(),
					Method:    c.Request().Method,
				},
			}
			err := next(cc)
			if err != nil {
				// Let echo write the response so the status below is final
				cc.LogValues.AddError(err)
				c.Error(err)
			}

			duration := time.Since(start)
			status := cc.Response().Status
			cc.LogValues.StatusCode = status
			cc.LogValues.RequestDuration = duration

			switch {
			case status >= 500:
				cc.Log.Errorw("end_of_request", zap.Object("request", cc.LogValues))
			case status >= 400:
				cc.Log.Warnw("end_of_request", zap.Object("request", cc.LogValues))
			default:
				cc.Log.Infow("end_of_request", zap.Object("request", cc.LogValues))
			}
			metrics.RequestDuration.WithLabelValues(cc.Path()).Observe(duration.Seconds())
			metrics.ResponseCodes.WithLabelValues(cc.Path(), fmt.Sprintf("%d", status)).Inc()
			return nil
		}
	}
}

func NewRecoverMiddleware(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return emw.RecoverWithConfig(emw.RecoverConfig{
		StackSize: 1 << 10, // 1 KB
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			defer func() {
				_ = log.Sync()
			}()
			log.Errorw("Api Panic", "error", err.Error(), "stack", string(stack))
			if c.Response().Committed {
				return nil
			}
			return c.JSON(http.StatusInternalServerError, shared.ErrorBody{Error: err.Error()})
		},
	})
}

// NewMetricsAuthMiddleware guards /metrics with a bearer key. An empty key
// leaves the endpoint open.
func NewMetricsAuthMiddleware(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return next(c)
			}
			apiKey, err := shared.ExtractAPIKey(c)
			if err != nil {
				return c.String(401, "Missing or invalid API key")
			}
			if apiKey != key {
				return c.String(401, "Unauthorized API key")
			}
			return next(c)
		}
	}
}
