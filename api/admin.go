package api

import (
	"net/http"

	"github.com/Domenick1991/airreserve/internal/service/booking"
	"github.com/Domenick1991/airreserve/internal/service/flights"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves catalog management and the operations dashboard.
type AdminHandler struct {
	flights  flights.FlightUseCase
	bookings booking.BookingUseCase
}

func NewAdminHandler(flightService flights.FlightUseCase, bookingService booking.BookingUseCase) *AdminHandler {
	return &AdminHandler{flights: flightService, bookings: bookingService}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/flights", h.createFlight)
	router.GET("/dashboard/stats", h.stats)
}

func (h *AdminHandler) createFlight(c *gin.Context) {
	var req flights.CreateFlightInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	flight, err := h.flights.CreateFlight(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *AdminHandler) stats(c *gin.Context) {
	stats, err := h.bookings.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
