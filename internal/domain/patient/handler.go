package patient

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medcdss/cdss/internal/platform/registry"
	"github.com/medcdss/cdss/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/sync", h.SyncAndListPatients)
	api.POST("/patients", h.RegisterPatient)
	api.GET("/patients/:uuid", h.GetPatient)
}

// registryError relays the registry's status for upstream failures and 503s
// when the registry could not be reached at all.
func registryError(err error) error {
	var statusErr *registry.StatusError
	if errors.As(err, &statusErr) {
		return echo.NewHTTPError(statusErr.StatusCode, "registry error: "+statusErr.Body)
	}
	return echo.NewHTTPError(http.StatusServiceUnavailable, "registry unreachable: "+err.Error())
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	result, err := h.svc.Search(c.Request().Context(), c.QueryParam("q"), pg.Limit, pg.StartIndex)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) SyncAndListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	result, err := h.svc.SyncAndList(c.Request().Context(),
		c.QueryParam("sync_q"), c.QueryParam("q"), pg.Limit, pg.StartIndex)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient uuid")
	}

	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		var statusErr *registry.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return registryError(err)
	}
	return c.JSONBlob(http.StatusOK, p.RawRegistryData)
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		var statusErr *registry.StatusError
		switch {
		case errors.Is(err, ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.As(err, &statusErr):
			return registryError(err)
		default:
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
	}
	// The summary, not the raw document: Summary falls back to the submitted
	// identifier when the registry's answer carries no identifiers list.
	return c.JSON(http.StatusCreated, p.Summary())
}
