package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/ledgerview-erp/ledgerview/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidParameter):
		Problem(w, http.StatusBadRequest, "Invalid Parameter", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDataSource):
		Problem(w, http.StatusBadGateway, "Data Source Unavailable", "")
	case errors.Is(err, context.DeadlineExceeded):
		Problem(w, http.StatusGatewayTimeout, "Report Timed Out", "")
	case errors.Is(err, shared.ErrDataIntegrity), errors.Is(err, shared.ErrConfiguration):
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
