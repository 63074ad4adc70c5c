package vaccination

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vaxtrack/vaxtrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/children/:childId/schedule", h.GenerateSchedule)
	api.GET("/children/:childId/vaccines", h.ListVaccines)
	api.GET("/children/:childId/vaccines/summary", h.GetSummary)
	api.POST("/vaccines/:id/complete", h.MarkCompleted)
	api.GET("/schedule/preview", h.PreviewSchedule)
}

type generateRequest struct {
	BirthDate string `json:"birth_date"`
}

type generateResponse struct {
	ChildID uuid.UUID        `json:"child_id"`
	Created bool             `json:"created"`
	Records []*VaccineRecord `json:"records"`
}

type completeRequest struct {
	CompletedDate string  `json:"completed_date"`
	ProofURL      *string `json:"proof_url"`
}

func (h *Handler) GenerateSchedule(c echo.Context) error {
	childID, err := uuid.Parse(c.Param("childId"))
	if err != nil || childID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid child id")
	}
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	birthDate, err := time.Parse(time.DateOnly, req.BirthDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "birth_date must be YYYY-MM-DD")
	}
	records, created, err := h.svc.GenerateSchedule(c.Request().Context(), childID, birthDate)
	if err != nil {
		return httpError(err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, generateResponse{ChildID: childID, Created: created, Records: records})
}

func (h *Handler) ListVaccines(c echo.Context) error {
	childID, err := uuid.Parse(c.Param("childId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid child id")
	}
	now, err := AsOf(c, h.svc.Now())
	if err != nil {
		return err
	}
	var filter *StatusKind
	if s := c.QueryParam("status"); s != "" {
		k, err := ParseStatusKind(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		filter = &k
	}
	views, err := h.svc.ListVaccines(c.Request().Context(), childID, filter, now)
	if err != nil {
		return httpError(err)
	}
	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Page(views, pg), len(views), pg.Limit, pg.Offset))
}

func (h *Handler) GetSummary(c echo.Context) error {
	childID, err := uuid.Parse(c.Param("childId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid child id")
	}
	now, err := AsOf(c, h.svc.Now())
	if err != nil {
		return err
	}
	sum, err := h.svc.Summary(c.Request().Context(), childID, now)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *Handler) MarkCompleted(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var completed *time.Time
	if req.CompletedDate != "" {
		d, err := time.Parse(time.DateOnly, req.CompletedDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "completed_date must be YYYY-MM-DD")
		}
		completed = &d
	}
	rec, err := h.svc.MarkCompleted(c.Request().Context(), id, completed, req.ProofURL)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) PreviewSchedule(c echo.Context) error {
	birthDate, err := time.Parse(time.DateOnly, c.QueryParam("birth_date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "birth_date must be YYYY-MM-DD")
	}
	records, err := h.svc.PreviewSchedule(birthDate)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, records)
}

// AsOf reads the optional ?date=YYYY-MM-DD override for "now".
func AsOf(c echo.Context, fallback time.Time) (time.Time, error) {
	s := c.QueryParam("date")
	if s == "" {
		return fallback, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return d, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidBirthDate):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
}
