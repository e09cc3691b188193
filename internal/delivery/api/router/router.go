// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"tours/internal/delivery/api/middleware"
	"tours/internal/delivery/api/router/handler"
	"tours/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	TourHandler    *handler.TourHandler
	ViewHandler    *handler.ViewHandler
	AuthMiddleware *middleware.AuthMiddleware
	Gatherer       prometheus.Gatherer `optional:"true"`
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	tourHandler    *handler.TourHandler
	viewHandler    *handler.ViewHandler
	authMiddleware *middleware.AuthMiddleware
	gatherer       prometheus.Gatherer
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		tourHandler:    params.TourHandler,
		viewHandler:    params.ViewHandler,
		authMiddleware: params.AuthMiddleware,
		gatherer:       params.Gatherer,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)
	if r.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := e.Group("/api/v1")

	usersGroup := apiV1.Group("/users")
	{
		usersGroup.POST("/signup", r.authHandler.Signup)
		usersGroup.POST("/login", r.authHandler.Login)
		usersGroup.GET("/logout", r.authHandler.Logout)
		usersGroup.POST("/forgotPassword", r.authHandler.ForgotPassword)
		usersGroup.PATCH("/resetPassword/:token", r.authHandler.ResetPassword)

		usersGroup.PATCH("/updateMyPassword", r.authHandler.UpdatePassword, r.authMiddleware.Authenticate)
		usersGroup.GET("/me", r.authHandler.Me, r.authMiddleware.Authenticate)

		usersGroup.POST("/sweepExpiredResets", r.authHandler.SweepExpiredResets,
			r.authMiddleware.Authenticate, r.authMiddleware.RequireRole(entity.RoleAdmin))
	}

	toursGroup := apiV1.Group("/tours")
	{
		toursGroup.GET("", r.tourHandler.ListTours)
		toursGroup.GET("/:id", r.tourHandler.GetTour)
	}

	// Pages
	identify := r.authMiddleware.Identify
	e.GET("/", r.viewHandler.Home, identify)
	e.GET("/tours", r.viewHandler.ToursOverview, identify)
	e.GET("/tours/:slug", r.viewHandler.Tour, identify)
	e.GET("/login", r.viewHandler.Login, identify)
	e.GET("/me", r.viewHandler.Account, r.authMiddleware.Authenticate)
}
