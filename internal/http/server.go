package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cuantrack/internal/advisor"
	"cuantrack/internal/log"
	"cuantrack/internal/middleware/ratelimit"
	"cuantrack/internal/middleware/security"
	"cuantrack/internal/middleware/trace"
	"cuantrack/internal/services"
)

// Config tunes the HTTP server. Zero values pick defaults.
type Config struct {
	Addr              string
	RateLimitRPS      float64
	RateLimitBurst    int
	TrustedProxyCIDRs []string
}

// Server exposes the tracker as a JSON API.
type Server struct {
	*http.Server

	tracker  *services.Tracker
	advisor  *advisor.Advisor
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	now      func() time.Time
	ready    func() bool
}

// NewServer builds the router. A nil advisor serves only the local summary.
func NewServer(cfg Config, tracker *services.Tracker, adv *advisor.Advisor, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentHTTP)
	}
	if adv == nil {
		adv = advisor.New(nil, logger)
	}

	s := &Server{
		tracker:  tracker,
		advisor:  adv,
		logger:   logger.WithComponent(log.ComponentHTTP),
		detector: security.NewDetector(),
		tracer:   trace.NewMiddleware(),
		now:      time.Now,
		ready:    func() bool { return true },
	}
	for _, cidr := range cfg.TrustedProxyCIDRs {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	limits := ratelimit.DefaultConfig()
	if cfg.RateLimitRPS > 0 {
		limits.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		limits.Burst = cfg.RateLimitBurst
	}
	s.limiter = ratelimit.NewLimiter(limits)

	s.Server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// SetReadiness replaces the readiness probe, e.g. to report snapshot store health.
func (s *Server) SetReadiness(ready func() bool) {
	s.ready = ready
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(s.logger, trace.FromRequest))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(s.logger))
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/{txID}", s.handleGetTransaction)
			r.Put("/{txID}", s.handleUpdateTransaction)
			r.Delete("/{txID}", s.handleDeleteTransaction)
		})
		r.Get("/budgets", s.handleGetBudgets)
		r.Put("/budgets", s.handleSetBudgets)
		r.Get("/budgets/usage", s.handleBudgetUsage)
		r.Get("/summary", s.handleSummary)
		r.Get("/overview", s.handleOverview)
		r.Get("/expenses/daily", s.handleDailyExpenses)

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", s.handleListLists)
			r.Post("/", s.handleCreateList)
			r.Get("/active", s.handleGetActiveList)
			r.Put("/active", s.handleSetActiveList)
			r.Route("/{listID}", func(r chi.Router) {
				r.Get("/", s.handleGetList)
				r.Patch("/", s.handleUpdateList)
				r.Delete("/", s.handleDeleteList)
				r.Get("/totals", s.handleListTotals)
				r.Put("/budget", s.handleLinkBudget)
				r.Post("/complete", s.handleCompleteList)
				r.Post("/items", s.handleAddItem)
				r.Delete("/items", s.handleClearList)
				r.Post("/items/remove", s.handleRemoveSelectedItems)
				r.Patch("/items/{itemID}", s.handleUpdateItem)
				r.Delete("/items/{itemID}", s.handleRemoveItem)
				r.Post("/items/{itemID}/toggle", s.handleTogglePurchased)
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", s.handleListInventory)
			r.Post("/", s.handleAddInventoryItem)
			r.Get("/low-stock", s.handleLowStock)
			r.Patch("/{invID}", s.handleUpdateInventoryItem)
			r.Post("/{invID}/adjust", s.handleAdjustStock)
		})

		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleAddCategory)
		r.Get("/price-history", s.handlePriceHistory)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleSaveTemplate)
			r.Post("/{templateID}/apply", s.handleApplyTemplate)
			r.Delete("/{templateID}", s.handleDeleteTemplate)
		})

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)

		r.Get("/advisor/summary", s.handleAdvisorSummary)
		r.Post("/advisor/ask", s.handleAdvisorAsk)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready() {
		writeError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r))
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// Shutdown drains connections and stops background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
