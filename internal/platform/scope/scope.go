// Package scope resolves which caregiver account a request acts for.
// Reminder settings are stored per caregiver scope.
package scope

import (
	"context"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
)

type contextKey string

const CaregiverIDKey contextKey = "caregiver_id"

// HeaderCaregiverID carries the caregiver scope on API requests.
const HeaderCaregiverID = "X-Caregiver-ID"

var caregiverIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Middleware stores the resolved caregiver id on the request context.
func Middleware(defaultCaregiver string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := extractCaregiverID(c, defaultCaregiver)
			if !Valid(id) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid caregiver identifier")
			}
			ctx := WithCaregiver(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(string(CaregiverIDKey), id)
			return next(c)
		}
	}
}

func extractCaregiverID(c echo.Context, defaultCaregiver string) string {
	if id := c.Request().Header.Get(HeaderCaregiverID); id != "" {
		return id
	}
	if id := c.QueryParam("caregiver_id"); id != "" {
		return id
	}
	return defaultCaregiver
}

// Valid reports whether id is an acceptable caregiver identifier.
func Valid(id string) bool {
	return caregiverIDPattern.MatchString(id)
}

// WithCaregiver returns ctx carrying the caregiver id.
func WithCaregiver(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CaregiverIDKey, id)
}

// FromContext returns the caregiver id, or fallback when none is set.
func FromContext(ctx context.Context, fallback string) string {
	if id, _ := ctx.Value(CaregiverIDKey).(string); id != "" {
		return id
	}
	return fallback
}
