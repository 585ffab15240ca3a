package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"gedenkseiten/internal/delivery/http/controllers"
	"gedenkseiten/internal/delivery/http/middleware"
	"gedenkseiten/internal/domain"
)

// RouterDeps carries everything the router wires together.
type RouterDeps struct {
	Logger   *slog.Logger
	Verifier domain.TokenVerifier
	JobToken string

	Auth          *controllers.AuthController
	Memorials     *controllers.MemorialController
	Candles       *controllers.CandleController
	Notifications *controllers.NotificationController
	Publishing    *controllers.PublishingController
	Admin         *controllers.AdminController
	Jobs          *controllers.JobsController
}

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(d RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()

	auth := middleware.RequireAuth(d.Verifier, d.Logger)
	admin := middleware.RequireAdmin(d.Verifier, d.Logger)
	jobs := middleware.RequireJobAccess(d.JobToken, d.Verifier)

	// Auth
	mux.HandleFunc("POST /auth/signup", d.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", d.Auth.Login)
	mux.HandleFunc("GET /users/me", auth(d.Auth.Me))

	// Public memorial pages and candles
	mux.HandleFunc("GET /m/{slug}", d.Memorials.GetPublicBySlug)
	mux.HandleFunc("GET /m/{slug}/candles", d.Candles.List)
	mux.HandleFunc("POST /m/{slug}/candles", d.Candles.Light)

	// Owner-facing memorial lifecycle
	mux.HandleFunc("POST /memorials", auth(d.Memorials.Create))
	mux.HandleFunc("GET /memorials", auth(d.Memorials.ListOwn))
	mux.HandleFunc("GET /memorials/{id}", auth(d.Memorials.GetByID))
	mux.HandleFunc("PATCH /memorials/{id}", auth(d.Memorials.Update))
	mux.HandleFunc("DELETE /memorials/{id}", auth(d.Memorials.Archive))
	mux.HandleFunc("POST /memorials/{id}/submit", auth(d.Memorials.SubmitForReview))

	// Publishing and payment
	mux.HandleFunc("GET /publishing/tiers", d.Publishing.Tiers)
	mux.HandleFunc("POST /memorials/{id}/publish", auth(d.Publishing.RequestPublish))
	mux.HandleFunc("POST /payments/success", d.Publishing.PaymentSuccess)

	// Notifications
	mux.HandleFunc("GET /notifications", auth(d.Notifications.ListOwn))
	mux.HandleFunc("POST /notifications/{id}/read", auth(d.Notifications.MarkRead))

	// Admin console
	mux.HandleFunc("GET /admin/memorials", admin(d.Admin.ListQueue))
	mux.HandleFunc("POST /admin/memorials/{id}/approve", admin(d.Admin.Approve))
	mux.HandleFunc("POST /admin/memorials/{id}/reject", admin(d.Admin.Reject))
	mux.HandleFunc("POST /admin/memorials/{id}/toggle-published", admin(d.Admin.TogglePublished))
	mux.HandleFunc("DELETE /admin/memorials/{id}", admin(d.Admin.Archive))

	// Jobs (external cron or internal scheduler)
	mux.HandleFunc("POST /jobs/process-email-queue", jobs(d.Jobs.ProcessEmailQueue))
	mux.HandleFunc("POST /jobs/check-expirations", jobs(d.Jobs.CheckExpirations))
	mux.HandleFunc("POST /jobs/flush-views", jobs(d.Jobs.FlushViews))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
