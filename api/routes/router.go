package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/istmo-energy/portal-backend/api/controllers"
	"github.com/istmo-energy/portal-backend/api/middleware"
	"github.com/istmo-energy/portal-backend/internal/auth"
	"github.com/istmo-energy/portal-backend/internal/documents"
	"github.com/istmo-energy/portal-backend/internal/inquiries"
	"github.com/istmo-energy/portal-backend/internal/notifications"
	"github.com/istmo-energy/portal-backend/internal/projects"
	"github.com/istmo-energy/portal-backend/internal/quotes"
	"github.com/istmo-energy/portal-backend/internal/reschedule"
	"github.com/istmo-energy/portal-backend/internal/scheduling"
	"github.com/istmo-energy/portal-backend/internal/technicians"
	"github.com/istmo-energy/portal-backend/pkg/auth/session"
	"github.com/istmo-energy/portal-backend/pkg/config"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	"github.com/istmo-energy/portal-backend/pkg/logger"
	"github.com/istmo-energy/portal-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps bundles every service the router mounts. Nil entries surface as 500s
// from the affected controllers rather than panics at wire time.
type Deps struct {
	SessionManager sessionManager
	Auth           auth.Service
	Provision      auth.ProvisionService
	Inquiries      inquiries.Service
	Projects       projects.Service
	Quotes         quotes.Service
	Technicians    technicians.Service
	Scheduling     scheduling.Service
	Reschedule     reschedule.Service
	Documents      documents.Service
	Notifications  notifications.Service
	HealthChecks   map[string]controllers.HealthPinger
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	deps Deps,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.HealthChecks))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Post("/inquiries", controllers.PublicInquirySubmit(deps.Inquiries, logg))
		r.Route("/reschedule", func(r chi.Router) {
			r.Get("/{token}", controllers.PublicRescheduleVerify(deps.Reschedule, logg))
			r.Post("/confirm", controllers.PublicRescheduleConfirm(deps.Reschedule, logg))
		})
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.SessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.SessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/inquiries", func(r chi.Router) {
			r.Get("/", controllers.InquiryList(deps.Inquiries, logg))
			r.Get("/{inquiryId}", controllers.InquiryGet(deps.Inquiries, logg))
			r.Post("/{inquiryId}/review", controllers.InquiryReview(deps.Inquiries, logg))
			r.Post("/{inquiryId}/discard", controllers.InquiryDiscard(deps.Inquiries, logg))
			r.Post("/{inquiryId}/convert", controllers.InquiryConvert(deps.Inquiries, logg))
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", controllers.ProjectCreate(deps.Projects, logg))
			r.Get("/", controllers.ProjectList(deps.Projects, logg))
			r.Get("/{projectId}", controllers.ProjectGet(deps.Projects, logg))
			r.Patch("/{projectId}/status", controllers.ProjectUpdateStatus(deps.Projects, logg))
			r.Patch("/{projectId}/notes", controllers.ProjectUpdateNotes(deps.Projects, logg))
			r.Get("/{projectId}/quotes", controllers.QuoteListByProject(deps.Quotes, logg))
			r.Get("/{projectId}/documents", controllers.DocumentList(deps.Documents, logg))
		})

		r.Route("/quotes", func(r chi.Router) {
			r.Post("/", controllers.QuoteCreate(deps.Quotes, logg))
			r.Get("/{quoteId}", controllers.QuoteGet(deps.Quotes, logg))
			r.Post("/{quoteId}/send", controllers.QuoteSend(deps.Quotes, logg))
			r.Post("/{quoteId}/decision", controllers.QuoteDecide(deps.Quotes, logg))
		})

		r.Route("/scheduling", func(r chi.Router) {
			r.Post("/assign", controllers.SchedulingAssign(deps.Scheduling, logg))
			r.Get("/availability", controllers.SchedulingAvailability(deps.Scheduling, logg))
		})

		r.Route("/technicians", func(r chi.Router) {
			r.Get("/", controllers.TechnicianList(deps.Technicians, logg))
			r.Get("/{technicianId}", controllers.TechnicianGet(deps.Technicians, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
				r.Post("/", controllers.TechnicianCreate(deps.Technicians, logg))
				r.Patch("/{technicianId}", controllers.TechnicianUpdate(deps.Technicians, logg))
				r.Post("/{technicianId}/active", controllers.TechnicianSetActive(deps.Technicians, logg))
			})
		})

		r.Route("/documents", func(r chi.Router) {
			r.Post("/presign", controllers.DocumentPresign(deps.Documents, logg))
			r.Post("/{documentId}/confirm", controllers.DocumentConfirm(deps.Documents, logg))
			r.Delete("/{documentId}", controllers.DocumentDelete(deps.Documents, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Post("/", controllers.AdminProvisionUser(deps.Provision, logg))
			r.Get("/", controllers.AdminListUsers(deps.Provision, logg))
			r.Post("/{userId}/active", controllers.AdminSetUserActive(deps.Provision, logg))
		})
	})

	return r
}
