package handler

import (
	"net/http"
	"time"

	"tours/internal/delivery/api/response"
	"tours/internal/domain/entity"
	domainerrors "tours/internal/domain/errors"
	"tours/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// TourResponse is the API representation of a tour.
type TourResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Duration        int       `json:"duration"`
	MaxGroupSize    int       `json:"maxGroupSize"`
	Difficulty      string    `json:"difficulty"`
	RatingsAverage  float64   `json:"ratingsAverage"`
	RatingsQuantity int       `json:"ratingsQuantity"`
	Price           float64   `json:"price"`
	Summary         string    `json:"summary"`
	Description     string    `json:"description,omitempty"`
	ImageCover      string    `json:"imageCover"`
	Images          []string  `json:"images"`
	StartDates      []string  `json:"startDates"`
}

func newTourResponse(tour *entity.Tour) *TourResponse {
	startDates := make([]string, 0, len(tour.StartDates))
	for _, date := range tour.StartDates {
		startDates = append(startDates, date.UTC().Format(time.RFC3339))
	}

	return &TourResponse{
		ID:              tour.ID,
		Name:            tour.Name,
		Slug:            tour.Slug,
		Duration:        tour.Duration,
		MaxGroupSize:    tour.MaxGroupSize,
		Difficulty:      string(tour.Difficulty),
		RatingsAverage:  tour.RatingsAverage,
		RatingsQuantity: tour.RatingsQuantity,
		Price:           tour.Price,
		Summary:         tour.Summary,
		Description:     tour.Description,
		ImageCover:      tour.ImageCover,
		Images:          tour.Images,
		StartDates:      startDates,
	}
}

// TourHandler serves the read-only tour API.
type TourHandler struct {
	tours usecase.TourUsecase
}

// NewTourHandler is the constructor for TourHandler.
func NewTourHandler(tours usecase.TourUsecase) *TourHandler {
	return &TourHandler{tours: tours}
}

// ListTours returns the whole catalogue.
func (h *TourHandler) ListTours(c echo.Context) error {
	tours, err := h.tours.ListTours(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	out := make([]*TourResponse, 0, len(tours))
	for _, tour := range tours {
		out = append(out, newTourResponse(tour))
	}

	return response.List(c, out, len(out))
}

// GetTour returns one tour by id.
func (h *TourHandler) GetTour(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domainerrors.ErrTourNotFound.WithDetails("invalid tour id")
	}

	tour, err := h.tours.GetTour(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newTourResponse(tour))
}
