package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// shortDisclaimer mirrors the disclaimer the API handlers attach to every
// error body, so middleware-produced failures read like handler failures.
const shortDisclaimer = "AI-Generated - Requires Clinician Validation"

// errorEnvelope is the fixed error body shape shared with the API handlers.
func errorEnvelope(message string) map[string]string {
	return map[string]string{
		"error":      message,
		"disclaimer": shortDisclaimer,
	}
}

func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)

					logger.Error().
						Str("request_id", fmt.Sprintf("%v", c.Get("request_id"))).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", string(stack[:n])).
						Msg("panic recovered")

					if !c.Response().Committed {
						err = c.JSON(http.StatusInternalServerError, errorEnvelope("Internal server error"))
					}
				}
			}()
			return next(c)
		}
	}
}
