package reminder

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vaxtrack/vaxtrack/internal/domain/vaccination"
	"github.com/vaxtrack/vaxtrack/internal/platform/scope"
)

type Handler struct {
	svc          *Service
	defaultScope string
}

func NewHandler(svc *Service, defaultScope string) *Handler {
	return &Handler{svc: svc, defaultScope: defaultScope}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/children/:childId/reminders", h.ListReminders)
	api.GET("/reminder-settings", h.GetSettings)
	api.PATCH("/reminder-settings", h.UpdateSettings)
	api.PUT("/reminder-settings/vaccines/:vaccineId", h.ToggleVaccine)
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *Handler) scope(c echo.Context) string {
	return scope.FromContext(c.Request().Context(), h.defaultScope)
}

func (h *Handler) ListReminders(c echo.Context) error {
	childID, err := uuid.Parse(c.Param("childId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid child id")
	}
	now, err := vaccination.AsOf(c, h.svc.Now())
	if err != nil {
		return err
	}
	items, err := h.svc.ListReminders(c.Request().Context(), h.scope(c), childID, now)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetSettings(c echo.Context) error {
	s, err := h.svc.GetSettings(c.Request().Context(), h.scope(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) UpdateSettings(c echo.Context) error {
	var p Patch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s, err := h.svc.SetSettings(c.Request().Context(), h.scope(c), p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) ToggleVaccine(c echo.Context) error {
	var req toggleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Enabled == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "enabled is required")
	}
	s, err := h.svc.ToggleVaccineReminder(c.Request().Context(), h.scope(c), c.Param("vaccineId"), *req.Enabled)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func httpError(err error) error {
	if errors.Is(err, ErrInvalidSettings) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}
