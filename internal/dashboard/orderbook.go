package dashboard

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleOrderBook(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if !s.trackedSymbols.Has(symbol) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Symbol is not tracked: " + symbol})
		return
	}

	book, err := s.exchange.OrderBook(c.Request.Context(), symbol, s.cfg.Dashboard.OrderbookLimit)
	if err != nil {
		s.log.WithComponent("orderbook").WithError(err).WithField("symbol", symbol).Warn("order book probe failed")
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, book)
}
