package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Veraticus/flexoplate-iq/internal/common"
	"github.com/Veraticus/flexoplate-iq/internal/engine"
	"github.com/Veraticus/flexoplate-iq/internal/equivalency"
	"github.com/Veraticus/flexoplate-iq/internal/exposure"
	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/storage"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message string `json:"message"`
}

// badInput lists errors caused by the request payload rather than the
// server or the catalog configuration.
var badInput = []error{
	storage.ErrInvalidSupplier,
	storage.ErrInvalidFamily,
	storage.ErrInvalidPlate,
	storage.ErrInvalidProfile,
	storage.ErrInvalidOverride,
	storage.ErrInvalidEquipment,
	storage.ErrEmptyString,
	model.ErrSelfPairedOverride,
	model.ErrOverrideScoreRange,
	model.ErrOverrideMissingPlate,
	model.ErrUnknownEquipmentType,
	exposure.ErrNonPositiveIntensity,
	exposure.ErrInvalidFloor,
}

// statusFor maps an error to a response code and a client-safe message.
func statusFor(err error) (int, string) {
	var (
		verr    *ValidationError
		userErr *common.UserError
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.As(err, &httpErr):
		if msg, ok := httpErr.Message.(string); ok {
			return httpErr.Code, msg
		}
		return httpErr.Code, http.StatusText(httpErr.Code)
	case errors.As(err, &userErr):
		return http.StatusBadRequest, userErr.UserMessage
	case errors.Is(err, equivalency.ErrSourceNotFound), common.IsNotFound(err):
		return http.StatusNotFound, err.Error()
	case engine.IsConfigError(err):
		return http.StatusUnprocessableEntity, err.Error()
	}
	for _, target := range badInput {
		if errors.Is(err, target) {
			return http.StatusBadRequest, err.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// HTTPErrorHandler writes errors as {"message": ...} with a status derived
// from the error chain. Server errors are logged with their cause.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, message := statusFor(err)
	if code >= http.StatusInternalServerError {
		common.LogError(c.Request().Context(), err, "request failed", common.Fields{
			"method": c.Request().Method,
			"route":  c.Path(),
		})
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, ErrorResponse{Message: message})
	}
	if err != nil {
		common.LogError(c.Request().Context(), err, "failed to write error response", nil)
	}
}
