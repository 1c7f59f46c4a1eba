package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"bybitdash/internal/exchange"
	"bybitdash/internal/metrics"
	"bybitdash/internal/summary"
)

const overviewHint = "Check BYBIT_API_KEY/BYBIT_API_SECRET and make sure the key has read-only permissions."

// generatedAtLayout renders UTC as +00:00 rather than Z.
const generatedAtLayout = "2006-01-02T15:04:05.000000-07:00"

// Overview is the composite document returned by GET /api/overview.
type Overview struct {
	GeneratedAt string                  `json:"generatedAt"`
	Wallet      summary.WalletSummary   `json:"wallet"`
	Positions   summary.PositionSummary `json:"positions"`
	Market      []summary.Ticker        `json:"market"`
}

type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func (s *Server) handleOverview(c *gin.Context) {
	overview, err := s.buildOverview(c.Request.Context())
	if err != nil {
		s.overviewFailed(c, err)
		return
	}

	metrics.IncOverview("ok")
	c.JSON(http.StatusOK, overview)
}

// buildOverview fetches the three resources concurrently. A failing call
// does not cancel the others; once all have returned, the first failure in
// wallet, positions, market order wins.
func (s *Server) buildOverview(ctx context.Context) (Overview, error) {
	var (
		g                                   errgroup.Group
		walletRaw, positionsRaw, tickersRaw json.RawMessage
		walletErr, positionsErr, tickersErr error
	)

	g.Go(func() error {
		walletRaw, walletErr = s.exchange.WalletBalance(ctx)
		return walletErr
	})
	g.Go(func() error {
		positionsRaw, positionsErr = s.exchange.PositionList(ctx)
		return positionsErr
	})
	g.Go(func() error {
		tickersRaw, tickersErr = s.exchange.Tickers(ctx)
		return tickersErr
	})
	_ = g.Wait()

	for _, err := range []error{walletErr, positionsErr, tickersErr} {
		if err != nil {
			return Overview{}, err
		}
	}

	return Overview{
		GeneratedAt: s.now().UTC().Format(generatedAtLayout),
		Wallet:      summary.Wallet(walletRaw, s.importantCoins),
		Positions:   summary.Positions(positionsRaw),
		Market:      summary.Market(tickersRaw, s.trackedSymbols),
	}, nil
}

func (s *Server) overviewFailed(c *gin.Context, err error) {
	entry := s.log.WithComponent("overview").WithError(err)
	outcome := "error"

	var exErr *exchange.Error
	if errors.As(err, &exErr) {
		outcome = exErr.Kind.String()
		entry = entry.WithField("endpoint", exErr.Endpoint)
		switch exErr.Kind {
		case exchange.KindCredentialsMissing:
			entry.Warn("overview unavailable: credentials not configured")
		case exchange.KindTransport:
			entry.Error("overview failed: exchange unreachable")
		case exchange.KindProtocol:
			entry.Error("overview failed: unexpected exchange response")
		case exchange.KindRemote:
			entry.Warn("overview failed: exchange rejected request")
		default:
			entry.Error("overview failed")
		}
	} else {
		entry.Error("overview failed")
	}

	metrics.IncOverview(outcome)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error(), Hint: overviewHint})
}
