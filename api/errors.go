package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errorStatuses = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
	{domain.ErrFlightNotBookable, http.StatusUnprocessableEntity, "flight_not_bookable"},
	{domain.ErrNoSeatsAvailable, http.StatusConflict, "no_seats_available"},
	{domain.ErrNotCancellable, http.StatusConflict, "not_cancellable"},
	{domain.ErrConcurrencyConflict, http.StatusConflict, "concurrency_conflict"},
	{domain.ErrIdentifierExhaustion, http.StatusServiceUnavailable, "identifier_exhaustion"},
	{domain.ErrInvariantViolation, http.StatusInternalServerError, "invariant_violation"},
}

// writeError maps the booking error taxonomy onto HTTP statuses.
// Unclassified errors are reported as 500 without their message.
func writeError(c *gin.Context, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			c.JSON(e.status, errorResponse{Error: err.Error(), Code: e.code})
			return
		}
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Code: "invalid_argument"})
}
