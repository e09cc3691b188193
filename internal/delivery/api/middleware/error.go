package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"tours/internal/delivery/api/response"
	deliverycontext "tours/internal/delivery/context"
	domainerrors "tours/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// errorPageTemplate is rendered for failed page requests.
const errorPageTemplate = "error.html"

// ErrorMiddleware is echo's HTTPErrorHandler. API requests get the JSON error
// envelope; page requests get the rendered error page.
type ErrorMiddleware struct {
	logger *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger: logger,
	}
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, code, message, details := m.classify(err, c)

	if wantsPage(c) && c.Echo().Renderer != nil {
		renderErr := c.Render(status, errorPageTemplate, map[string]any{
			"Title":   "Something went wrong!",
			"Message": message,
		})
		if renderErr == nil {
			return
		}
		m.logger.Error("Failed to render error page", slog.Any("error", renderErr))
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		_ = response.AppError(c, appErr)

		return
	}

	_ = response.Error(c, status, code, message, details)
}

func (m *ErrorMiddleware) classify(err error, c echo.Context) (status int, code, message, details string) {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPCode() >= http.StatusInternalServerError {
			m.log(c).Error("Request failed",
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
			)
		}

		return appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), appErr.Details()
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}

		return httpErr.Code, "HTTP_ERROR", message, ""
	}

	m.log(c).Error("Unhandled error",
		slog.Any("error", err),
		slog.String("path", c.Request().URL.Path),
		slog.String("method", c.Request().Method),
	)

	return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error, please try again later", ""
}

func (m *ErrorMiddleware) log(c echo.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger)
}

// wantsPage reports whether the request came from a browser page rather than the API.
func wantsPage(c echo.Context) bool {
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		return false
	}

	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
