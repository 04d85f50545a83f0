package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/config"
	"github.com/valisyam/shub/internal/database"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/http/handler"
	"github.com/valisyam/shub/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/valisyam/shub/docs" // Import generated swagger docs
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth          *handler.AuthHandler
	Company       *handler.CompanyHandler
	User          *handler.UserHandler
	Rfq           *handler.RfqHandler
	Quote         *handler.QuoteHandler
	Order         *handler.OrderHandler
	Supplier      *handler.SupplierHandler
	PurchaseOrder *handler.PurchaseOrderHandler
	File          *handler.FileHandler
	Notification  *handler.NotificationHandler
	Message       *handler.MessageHandler
	Realtime      *handler.RealtimeHandler
	Admin         *handler.AdminHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	authMiddleware *auth.Middleware
	companyScope   *middleware.CompanyScopeMiddleware
	rateLimiter    *middleware.RateLimiter
	h              Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	companyScope *middleware.CompanyScopeMiddleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		authMiddleware: authMiddleware,
		companyScope:   companyScope,
		rateLimiter:    rateLimiter,
		h:              handlers,
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
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, &rt.cfg.App, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database health check with pool stats
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(r.Context(), rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats":   stats,
		})
	})

	// Readiness probe
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]interface{}{"database": map[string]string{"status": "healthy"}}
		status, overall := http.StatusOK, "healthy"

		if err := database.HealthCheck(r.Context(), rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]string{"status": "unhealthy", "error": err.Error()}
			status, overall = http.StatusServiceUnavailable, "unhealthy"
		}

		writeJSON(w, status, map[string]interface{}{
			"status": overall,
			"checks": checks,
		})
	})

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api", func(r chi.Router) {
		// Public credential endpoints get the stricter limiter
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(rt.rateLimiter.LimitCredentials)
				r.Post("/register", rt.h.Auth.Register)
				r.Post("/verify", rt.h.Auth.Verify)
				r.Post("/resend-code", rt.h.Auth.ResendCode)
				r.Post("/login", rt.h.Auth.Login)
				r.Post("/forgot-password", rt.h.Auth.ForgotPassword)
				r.Post("/reset-password", rt.h.Auth.ResetPassword)
			})

			r.Group(func(r chi.Router) {
				r.Use(rt.authMiddleware.Authenticate)
				r.Get("/me", rt.h.Auth.Me)
				r.Post("/change-password", rt.h.Auth.ChangePassword)
			})
		})

		// The handshake authenticates itself from ?token=
		r.Get("/ws", rt.h.Realtime.Connect)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.Limit)
			r.Use(rt.companyScope.Scope)

			rt.commonRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireRole(domain.RoleCustomer))
				rt.customerRoutes(r)
			})

			r.Route("/supplier", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireRole(domain.RoleSupplier))
				rt.supplierRoutes(r)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireAdmin)
				rt.adminRoutes(r)
			})
		})
	})

	return r
}

// commonRoutes are open to every authenticated role
func (rt *Router) commonRoutes(r chi.Router) {
	r.Get("/company", rt.h.Company.Mine)

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", rt.h.Notification.List)
		r.Get("/unread-count", rt.h.Notification.GetUnreadCount)
		r.Post("/read-all", rt.h.Notification.MarkAllAsRead)
		r.Post("/{id}/read", rt.h.Notification.MarkAsRead)
		r.Delete("/{id}", rt.h.Notification.Delete)
	})

	r.Route("/messages", func(r chi.Router) {
		r.Post("/", rt.h.Message.Send)
		r.Get("/unread-count", rt.h.Message.UnreadCount)
		r.Get("/threads", rt.h.Message.ListThreads)
		r.Get("/threads/{threadId}", rt.h.Message.GetThread)
		r.Post("/threads/{threadId}/reply", rt.h.Message.Reply)
		r.Post("/{id}/attachments", rt.h.Message.AddAttachment)
		r.Get("/attachments/{id}/download", rt.h.Message.DownloadAttachment)
	})

	r.Route("/files", func(r chi.Router) {
		r.Post("/", rt.h.File.Upload)
		r.Get("/", rt.h.File.List)
		r.Get("/{id}", rt.h.File.GetByID)
		r.Get("/{id}/download", rt.h.File.Download)
	})
}

func (rt *Router) customerRoutes(r chi.Router) {
	r.Route("/rfqs", func(r chi.Router) {
		r.Post("/", rt.h.Rfq.Create)
		r.Get("/", rt.h.Rfq.List)
		r.Get("/{id}", rt.h.Rfq.GetByID)
	})

	r.Route("/quotes", func(r chi.Router) {
		r.Get("/", rt.h.Quote.List)
		r.Get("/{id}", rt.h.Quote.GetByID)
		r.Post("/{id}/respond", rt.h.Quote.Respond)
		r.Post("/{id}/purchase-order", rt.h.Quote.UploadPurchaseOrder)
		r.Get("/{id}/file", rt.h.Quote.DownloadFile)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", rt.h.Order.List)
		r.Get("/archived", rt.h.Order.ListArchived)
		r.Get("/{id}", rt.h.Order.GetByID)
		r.Get("/{id}/shipments", rt.h.Order.ListShipments)
		r.Get("/{id}/invoices", rt.h.Order.ListInvoices)
		r.Post("/{id}/reorder", rt.h.Rfq.Reorder)
	})
}

func (rt *Router) supplierRoutes(r chi.Router) {
	r.Get("/assignments", rt.h.Supplier.ListAssignments)
	r.Get("/rfqs/{id}", rt.h.Supplier.GetRfq)
	r.Post("/rfqs/{id}/quote", rt.h.Supplier.SubmitQuote)
	r.Get("/quotes", rt.h.Supplier.ListQuotes)

	r.Route("/purchase-orders", func(r chi.Router) {
		r.Get("/", rt.h.Supplier.ListPurchaseOrders)
		r.Post("/{id}/respond", rt.h.Supplier.RespondPurchaseOrder)
		r.Patch("/{id}/status", rt.h.Supplier.UpdatePurchaseOrderStatus)
		r.Post("/{id}/invoice", rt.h.Supplier.UploadInvoice)
	})
}

func (rt *Router) adminRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", rt.h.User.List)
		r.Post("/", rt.h.User.Create)
		r.Delete("/{id}", rt.h.User.Delete)
		r.Patch("/{id}/company", rt.h.User.SetCompany)
	})

	r.Route("/companies", func(r chi.Router) {
		r.Get("/", rt.h.Company.List)
		r.Post("/", rt.h.Company.Create)
		r.Post("/merge", rt.h.Company.Merge)
		r.Get("/{id}", rt.h.Company.GetByID)
		r.Put("/{id}/number", rt.h.Company.AssignNumber)
	})

	r.Route("/rfqs", func(r chi.Router) {
		r.Get("/", rt.h.Rfq.AdminList)
		r.Post("/", rt.h.Rfq.AdminCreate)
		r.Patch("/{id}/status", rt.h.Rfq.UpdateStatus)
		r.Post("/{id}/quote", rt.h.Quote.AdminCreate)
		r.Post("/{id}/assign-suppliers", rt.h.Rfq.AssignSuppliers)
		r.Get("/{id}/assignments", rt.h.Rfq.ListAssignments)
		r.Get("/{id}/supplier-quotes", rt.h.Supplier.ListRfqQuotes)
	})

	r.Post("/quotes/{id}/file", rt.h.Quote.UploadFile)
	r.Get("/quotes/{id}/purchase-order", rt.h.Quote.DownloadPurchaseOrder)

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", rt.h.Order.AdminList)
		r.Post("/", rt.h.Order.Create)
		r.Patch("/{id}/status", rt.h.Order.UpdateStatus)
		r.Patch("/{id}/payment", rt.h.Order.UpdatePayment)
		r.Post("/{id}/shipments", rt.h.Order.CreateShipment)
		r.Post("/{id}/invoices", rt.h.Order.CreateInvoice)
	})
	r.Patch("/shipments/{id}/tracking", rt.h.Order.UpdateTracking)
	r.Post("/invoices/{id}/paid", rt.h.Order.MarkInvoicePaid)

	r.Post("/supplier-quotes/{id}/accept", rt.h.Supplier.AcceptQuote)

	r.Route("/purchase-orders", func(r chi.Router) {
		r.Get("/", rt.h.PurchaseOrder.List)
		r.Get("/archived", rt.h.PurchaseOrder.ListArchived)
		r.Post("/", rt.h.PurchaseOrder.Create)
		r.Patch("/{id}/status", rt.h.PurchaseOrder.UpdateStatus)
		r.Post("/{id}/archive", rt.h.PurchaseOrder.Archive)
		r.Get("/{id}/invoice", rt.h.PurchaseOrder.DownloadInvoice)
	})

	r.Delete("/files/{id}", rt.h.File.Delete)
	r.Get("/sequences", rt.h.Admin.Sequences)
	r.Get("/export/{kind}", rt.h.Admin.Export)
}
