// Package httpx provides HTTP response utilities.
package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/odyssey-erp/coopfinance/internal/erp"
	"github.com/odyssey-erp/coopfinance/internal/shared"
)

// Sentinel errors for the transport layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var authErr *erp.AuthError
	var rpcErr *erp.RPCError
	switch {
	case errors.Is(err, erp.ErrNotConfigured):
		Problem(w, http.StatusNotFound, "ERP Not Configured", err.Error())
	case errors.As(err, &authErr):
		Problem(w, http.StatusUnprocessableEntity, "ERP Authentication Failed", err.Error())
	case errors.As(err, &rpcErr):
		Problem(w, http.StatusBadGateway, "ERP Unavailable", err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, shared.ErrInvalidPeriod), errors.Is(err, erp.ErrInvalidConfig):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized), errors.Is(err, shared.ErrTenantRequired):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		Problem(w, http.StatusGatewayTimeout, "Timeout", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
