package routers

import (
	"net/http"

	"gemini-relay/internal/ctx"
	"gemini-relay/internal/relay"
	"gemini-relay/internal/shared"

	"github.com/labstack/echo/v4"
)

type RelayRouter struct {
	rh *relay.RelayHandler
}

// AskPaths are the routes served by the relay. /api/ask is the path existing
// clients call.
var AskPaths = []string{"/api/ask", "/v1/ask"}

func RegisterRelayRoutes(e *echo.Group, rh *relay.RelayHandler) {
	relayRouter := &RelayRouter{rh: rh}
	for _, path := range AskPaths {
		e.Any(path, relayRouter.Ask)
	}
}

func (rr *RelayRouter) Ask(cc echo.Context) error {
	c := cc.(*ctx.Context)

	switch c.Request().Method {
	case http.MethodOptions:
		return c.NoContent(http.StatusNoContent)
	case http.MethodPost:
	default:
		return sendError(c, shared.ErrMethodNotAllowed)
	}

	out, err := rr.rh.Ask(relay.AskInput{
		Ctx:  c.Request().Context(),
		Body: readRequestBody(c),
		Log:  c.Log,
	})
	if err != nil {
		return sendError(c, err)
	}

	c.LogValues.ModelUsed = out.Response.ModelUsed
	c.LogValues.Attempts = out.Attempts
	return c.JSON(http.StatusOK, out.Response)
}
