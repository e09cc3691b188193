package handler

import (
	"net/http"

	"tours/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ViewHandler renders the HTML pages.
type ViewHandler struct {
	tours usecase.TourUsecase
}

// NewViewHandler is the constructor for ViewHandler.
func NewViewHandler(tours usecase.TourUsecase) *ViewHandler {
	return &ViewHandler{tours: tours}
}

func (h *ViewHandler) Home(c echo.Context) error {
	return c.Render(http.StatusOK, "home.html", map[string]any{"Title": "Home"})
}

func (h *ViewHandler) ToursOverview(c echo.Context) error {
	tours, err := h.tours.ListTours(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Render(http.StatusOK, "tours.html", map[string]any{
		"Title": "All tours",
		"Tours": tours,
	})
}

func (h *ViewHandler) Tour(c echo.Context) error {
	tour, err := h.tours.GetTourBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Render(http.StatusOK, "tour.html", map[string]any{
		"Title": tour.Name,
		"Tour":  tour,
	})
}

func (h *ViewHandler) Login(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", map[string]any{"Title": "Log into your account"})
}

// Account must be routed behind Authenticate; the renderer injects the user.
func (h *ViewHandler) Account(c echo.Context) error {
	return c.Render(http.StatusOK, "account.html", map[string]any{"Title": "Your account"})
}
