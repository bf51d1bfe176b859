package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/config"
	"github.com/edutour/sales-crm/internal/database"
	"github.com/edutour/sales-crm/internal/http/handler"
	"github.com/edutour/sales-crm/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/edutour/sales-crm/docs" // swagger docs
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	User         *handler.UserHandler
	School       *handler.SchoolHandler
	Visit        *handler.VisitHandler
	Offer        *handler.OfferHandler
	Sale         *handler.SaleHandler
	Appointment  *handler.AppointmentHandler
	Announcement *handler.AnnouncementHandler
	SalesTarget  *handler.SalesTargetHandler
	Commission   *handler.CommissionHandler
	LeaveRequest *handler.LeaveRequestHandler
	Attachment   *handler.AttachmentHandler
	Dashboard    *handler.DashboardHandler
	Audit        *handler.AuditHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)
	if rt.cfg.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(time.Duration(rt.cfg.Server.RequestTimeout) * time.Second))
	}

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database readiness with pool statistics
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("database health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  stats.Status,
			"service": "database",
			"stats":   stats,
		})
	})

	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]interface{}{}
		status := http.StatusOK
		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("database health check failed", zap.Error(err))
			checks["database"] = map[string]string{"status": "unhealthy", "error": err.Error()}
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = map[string]string{"status": "healthy"}
		}
		overall := "healthy"
		if status != http.StatusOK {
			overall = "unhealthy"
		}
		writeJSON(w, status, map[string]interface{}{"status": overall, "checks": checks})
	})

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(middleware.TagActor)
		r.Use(rt.rateLimiter.Limit)

		r.Get("/auth/me", h.User.Me)
		r.Get("/users", h.User.List)
		r.Get("/users/{id}", h.User.GetByID)
		r.Get("/teams", h.User.ListTeams)

		r.Get("/audit", h.Audit.List)

		r.Route("/schools", func(r chi.Router) {
			r.Get("/", h.School.List)
			r.Post("/", h.School.Create)
			r.Get("/{id}", h.School.GetByID)
			r.Put("/{id}", h.School.Update)
			r.Delete("/{id}", h.School.Delete)
		})

		r.Route("/visits", func(r chi.Router) {
			r.Get("/", h.Visit.List)
			r.Post("/", h.Visit.Create)
			r.Get("/{id}", h.Visit.GetByID)
			r.Put("/{id}", h.Visit.Update)
			r.Delete("/{id}", h.Visit.Delete)
		})

		r.Route("/offers", func(r chi.Router) {
			r.Get("/", h.Offer.List)
			r.Post("/", h.Offer.Create)
			r.Get("/{id}", h.Offer.GetByID)
			r.Put("/{id}", h.Offer.Update)
			r.Delete("/{id}", h.Offer.Delete)
			r.Get("/{id}/lock", h.Offer.GetEditLock)
			r.Put("/{id}/status", h.Offer.UpdateStatus)
			r.Post("/{id}/send", h.Offer.SendEmail)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.Sale.List)
			r.Post("/", h.Sale.Create)
			r.Get("/{id}", h.Sale.GetByID)
			r.Put("/{id}", h.Sale.Update)
			r.Get("/{id}/profitability", h.Sale.GetProfitability)
			r.Get("/{id}/expenses", h.Sale.ListExpenses)
			r.Post("/{id}/expenses", h.Sale.CreateExpense)
			r.Put("/{id}/expenses/{expenseId}", h.Sale.UpdateExpense)
			r.Delete("/{id}/expenses/{expenseId}", h.Sale.DeleteExpense)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", h.Appointment.List)
			r.Post("/", h.Appointment.Create)
			r.Get("/{id}", h.Appointment.GetByID)
			r.Put("/{id}", h.Appointment.Update)
			r.Delete("/{id}", h.Appointment.Delete)
			r.Post("/{id}/complete", h.Appointment.Complete)
			r.Post("/{id}/cancel", h.Appointment.Cancel)
		})

		r.Route("/announcements", func(r chi.Router) {
			r.Get("/", h.Announcement.List)
			r.Post("/", h.Announcement.Create)
			r.Get("/{id}", h.Announcement.GetByID)
			r.Put("/{id}", h.Announcement.Update)
			r.Delete("/{id}", h.Announcement.Delete)
		})

		r.Route("/targets", func(r chi.Router) {
			r.Get("/", h.SalesTarget.List)
			r.Put("/", h.SalesTarget.Upsert)
			r.Get("/{id}", h.SalesTarget.GetByID)
			r.Delete("/{id}", h.SalesTarget.Delete)
		})

		r.Route("/commissions", func(r chi.Router) {
			r.Get("/", h.Commission.List)
			r.Post("/", h.Commission.Create)
			r.Put("/{id}/status", h.Commission.UpdateStatus)
		})

		r.Route("/leave-requests", func(r chi.Router) {
			r.Get("/", h.LeaveRequest.List)
			r.Post("/", h.LeaveRequest.Create)
			r.Get("/{id}", h.LeaveRequest.GetByID)
			r.Post("/{id}/approve", h.LeaveRequest.Approve)
			r.Post("/{id}/reject", h.LeaveRequest.Reject)
			r.Post("/{id}/cancel", h.LeaveRequest.Cancel)
		})

		r.Route("/attachments", func(r chi.Router) {
			r.Get("/", h.Attachment.List)
			r.Post("/", h.Attachment.Create)
			r.Delete("/{id}", h.Attachment.Delete)
		})

		r.Get("/dashboard/summary", h.Dashboard.Summary)
		r.Get("/dashboard/performance", h.Dashboard.Performance)
	})

	return r
}
