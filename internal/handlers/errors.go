package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"

	"tourvista/internal/status"
)

// apiError translates coordinator sentinel errors into API responses.
// Unknown errors stay opaque to the client.
func apiError(err error) error {
	switch {
	case errors.Is(err, status.ErrValidation):
		return apis.NewBadRequestError(err.Error(), nil)

	case errors.Is(err, status.ErrEventNotFound),
		errors.Is(err, status.ErrRegistrationNotFound),
		errors.Is(err, status.ErrPaymentNotFound):
		return apis.NewNotFoundError(err.Error(), nil)

	case errors.Is(err, status.ErrEventNotAccepting),
		errors.Is(err, status.ErrAlreadyRegistered),
		errors.Is(err, status.ErrDuplicateTransaction),
		errors.Is(err, status.ErrAlreadyProcessed),
		errors.Is(err, status.ErrCancelNotAllowed),
		errors.Is(err, status.ErrEventFull),
		errors.Is(err, status.ErrPaidRegistration):
		return apis.NewApiError(http.StatusConflict, err.Error(), nil)

	case errors.Is(err, status.ErrGatewayUnavailable):
		return apis.NewApiError(http.StatusServiceUnavailable, "payment provider is temporarily unavailable, please try again", nil)

	default:
		return apis.NewInternalServerError("internal error", err)
	}
}
