package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"tours/internal/delivery/api/response"
	domainerrors "tours/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handleError(t *testing.T, err error) (*httptest.ResponseRecorder, response.ErrorResponse) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil), rec)

	NewErrorMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))).HandleHTTPError(err, c)

	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	require.NotNil(t, body.Error)

	return rec, body
}

func TestHandleHTTPError_AppErrorKeepsDetails(t *testing.T) {
	rec, body := handleError(t, errors.WithStack(domainerrors.ErrValidationFailed.WithDetails("passwords are not the same")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	assert.Equal(t, "passwords are not the same", body.Error.Details)
}

func TestHandleHTTPError_ServerErrorsHideDetails(t *testing.T) {
	rec, body := handleError(t, errors.Wrap(domainerrors.ErrResetDeliveryFailed.WithDetails("smtp: 421"), "send"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "RESET_DELIVERY_FAILED", body.Error.Code)
	assert.Empty(t, body.Error.Details)
}

func TestHandleHTTPError_EchoAndUnknownErrors(t *testing.T) {
	rec, body := handleError(t, echo.NewHTTPError(http.StatusMethodNotAllowed))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "HTTP_ERROR", body.Error.Code)

	rec, body = handleError(t, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
}
