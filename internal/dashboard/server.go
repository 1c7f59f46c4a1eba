// Package dashboard serves the Bybit dashboard: the aggregated overview, the
// signing diagnostic, a public depth probe and the static front-end.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bybitdash/config"
	"bybitdash/internal/exchange"
	"bybitdash/internal/metrics"
	"bybitdash/internal/signer"
	"bybitdash/internal/summary"
	"bybitdash/logger"
)

// Exchange is the subset of the Bybit client the dashboard depends on.
type Exchange interface {
	WalletBalance(ctx context.Context) (json.RawMessage, error)
	PositionList(ctx context.Context) (json.RawMessage, error)
	Tickers(ctx context.Context) (json.RawMessage, error)
	OrderBook(ctx context.Context, symbol string, limit int) (exchange.OrderBook, error)
}

// Server hosts the Gin-powered dashboard gateway.
type Server struct {
	cfg            *config.Config
	log            *logger.Log
	exchange       Exchange
	signer         *signer.Signer
	now            func() time.Time
	address        string
	publicDir      string
	importantCoins summary.Set
	trackedSymbols summary.Set
	events         *eventStore
	listener       metrics.ListenerID
	httpServer     *http.Server
}

// Option customises a Server.
type Option func(*Server)

// WithClock replaces the clock used for timestamps in responses and signatures.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer wires the dashboard to an exchange client and the signer used by
// the diagnostic endpoint.
func NewServer(cfg *config.Config, ex Exchange, sgn *signer.Signer, log *logger.Log, opts ...Option) *Server {
	if log == nil {
		log = logger.GetLogger()
	}

	events := newEventStore(eventHistory)

	s := &Server{
		cfg:            cfg,
		log:            log,
		exchange:       ex,
		signer:         sgn,
		now:            time.Now,
		address:        normalizeAddress(cfg.Address()),
		publicDir:      cfg.Dashboard.PublicDir,
		importantCoins: summary.NewSet(cfg.Dashboard.ImportantCoins...),
		trackedSymbols: summary.NewSet(cfg.Dashboard.TrackedSymbols...),
		events:         events,
		listener:       metrics.AddListener(events.handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the HTTP server and blocks until the provided context is
// cancelled or the underlying HTTP server exits with an error.
func (s *Server) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}

	defer s.cleanup()

	router, err := s.buildRouter()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:         s.address,
		Handler:      router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.log.WithComponent("server").WithFields(logger.Fields{
		"address":    s.address,
		"public_dir": s.publicDir,
	}).Infof("Bybit dashboard is running on http://%s", s.address)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		s.log.WithComponent("server").Info("dashboard server stopped")
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return err
	}
}

func (s *Server) cleanup() {
	metrics.RemoveListener(s.listener)
}

// Address reports the network address the server listens on.
func (s *Server) Address() string {
	if s == nil {
		return ""
	}
	return s.address
}

// Handler returns the fully wired router.
func (s *Server) Handler() (http.Handler, error) {
	return s.buildRouter()
}

func (s *Server) buildRouter() (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(requestID(), accessLog(s.log), gin.Recovery())
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	api := router.Group("/api")
	api.GET("/overview", s.handleOverview)
	api.POST("/sign-check", s.handleSignCheck)
	api.GET("/orderbook/:symbol", s.handleOrderBook)
	api.GET("/events", s.handleEvents)
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": s.now().UTC().Format(time.RFC3339Nano),
		})
	})

	if s.cfg.Metrics.Prometheus {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	router.NoRoute(s.serveStatic)

	return router, nil
}

func (s *Server) handleEvents(c *gin.Context) {
	snapshot := s.events.snapshot()
	payload := make([]eventView, 0, len(snapshot))
	for _, ev := range snapshot {
		payload = append(payload, newEventView(ev))
	}
	c.JSON(http.StatusOK, gin.H{"events": payload})
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)

	if addr == "" {
		return "0.0.0.0:" + strconv.Itoa(defaultPort)
	}

	if strings.Contains(addr, "://") {
		if parsed, err := url.Parse(addr); err == nil {
			if host := parsed.Host; host != "" {
				addr = host
			} else if parsed.Opaque != "" {
				addr = parsed.Opaque
			}
		}
	}

	if strings.HasPrefix(addr, ":") {
		if len(addr) > 1 && addr[1] >= '0' && addr[1] <= '9' {
			return "0.0.0.0" + addr
		}
	}

	port := strconv.Itoa(defaultPort)
	host, p, err := net.SplitHostPort(addr)
	if err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		if p == "" {
			p = port
		}
		return net.JoinHostPort(host, p)
	}

	if ip := net.ParseIP(addr); ip != nil {
		return net.JoinHostPort(addr, port)
	}

	if !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, port)
	}

	return addr
}

const defaultPort = 3000
