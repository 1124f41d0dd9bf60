package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/service/pricing"
	"github.com/gin-gonic/gin"
)

type PricingHandler struct {
	service pricing.PricingUseCase
}

func NewPricingHandler(service pricing.PricingUseCase) *PricingHandler {
	return &PricingHandler{service: service}
}

func (h *PricingHandler) Register(router *gin.RouterGroup) {
	router.GET("/flight/:id/class/:class", h.quote)
	router.GET("/trend/:id/:class", h.trend)
	router.GET("/compare/:id", h.compare)
}

func (h *PricingHandler) quote(c *gin.Context) {
	id, class, ok := flightAndClass(c)
	if !ok {
		return
	}
	quote, err := h.service.Quote(c.Request.Context(), id, class, time.Time{})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// trend accepts ?days=N; zero or missing uses the configured lookback.
func (h *PricingHandler) trend(c *gin.Context) {
	id, class, ok := flightAndClass(c)
	if !ok {
		return
	}
	days, err := queryInt(c, "days", 0)
	if err != nil || days < 0 {
		badRequest(c, "invalid days")
		return
	}
	entries, err := h.service.PriceTrend(c.Request.Context(), id, class, days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *PricingHandler) compare(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	quotes, err := h.service.CompareClasses(c.Request.Context(), id, time.Time{})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotes)
}

func flightAndClass(c *gin.Context) (int64, domain.SeatClass, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid id")
		return 0, "", false
	}
	class, err := domain.ParseSeatClass(c.Param("class"))
	if err != nil {
		writeError(c, err)
		return 0, "", false
	}
	return id, class, true
}
