package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wayfarelab/wayfare/internal/auth"
	"github.com/wayfarelab/wayfare/internal/repository"
	"github.com/wayfarelab/wayfare/internal/service"
	"github.com/wayfarelab/wayfare/pkg/health"
	"github.com/wayfarelab/wayfare/pkg/middleware"
)

// RouterConfig carries everything the router needs beyond the services.
type RouterConfig struct {
	Production     bool
	CORS           middleware.CORSConfig
	AuthRateRPS    int
	AuthRateBurst  int
	MaxUploadBytes int64
}

// Services bundles the service layer for route registration.
type Services struct {
	Auth          *service.AuthService
	Profile       *service.ProfileService
	Vacations     *service.VacationService
	Activities    *service.ActivityService
	Memories      *service.MemoryService
	Posts         *service.PostService
	Friends       *service.FriendService
	Notifications *service.NotificationService
	Groups        *service.GroupService
	Admin         *service.AdminService
}

// NewRouter creates a chi router with all routes registered.
func NewRouter(
	svcs Services,
	tokens *auth.TokenManager,
	users repository.UserRepository,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("wayfare"))
	r.Use(middleware.PrometheusMetrics("wayfare"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authHandler := NewAuthHandler(svcs.Auth, cfg.Production, logger)
	profileHandler := NewProfileHandler(svcs.Profile, cfg.MaxUploadBytes, logger)
	vacationHandler := NewVacationHandler(svcs.Vacations, logger)
	activityHandler := NewActivityHandler(svcs.Activities, logger)
	memoryHandler := NewMemoryHandler(svcs.Memories, cfg.MaxUploadBytes, logger)
	postHandler := NewPostHandler(svcs.Posts, logger)
	friendHandler := NewFriendHandler(svcs.Friends, logger)
	notificationHandler := NewNotificationHandler(svcs.Notifications, logger)
	groupHandler := NewGroupHandler(svcs.Groups, logger)
	adminHandler := NewAdminHandler(svcs.Admin, logger)

	authn := Authenticate(tokens, logger)

	// Public auth endpoints are rate limited per IP against credential
	// stuffing.
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthRateRPS, cfg.AuthRateBurst, logger))
			r.Use(ContentTypeJSON)

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)
			r.Get("/sessions", authHandler.ListSessions)
			r.Delete("/sessions", authHandler.RevokeSession)
			r.Delete("/sessions/all", authHandler.RevokeAllSessions)
			r.Delete("/sessions/{id}", authHandler.RevokeSession)
		})
	})

	// ContentTypeJSON is not applied here because the photo and image
	// endpoints take multipart and raw uploads.
	r.Route("/api", func(r chi.Router) {
		r.Use(authn)

		r.Get("/profile", profileHandler.Me)
		r.Put("/profile", profileHandler.Update)
		r.Put("/profile/avatar", profileHandler.UploadAvatar)
		r.Put("/profile/banner", profileHandler.UploadBanner)
		r.Get("/users/{usertag}", profileHandler.GetPublic)

		r.Route("/vacations", func(r chi.Router) {
			r.Post("/", vacationHandler.Create)
			r.Get("/", vacationHandler.List)
			r.Get("/{id}", vacationHandler.Get)
			r.Put("/{id}", vacationHandler.Update)
			r.Delete("/{id}", vacationHandler.Delete)

			r.Get("/{id}/members", vacationHandler.Members)
			r.Post("/{id}/members", vacationHandler.Invite)
			r.Post("/{id}/members/accept", vacationHandler.AcceptInvite)
			r.Delete("/{id}/members/{userId}", vacationHandler.RemoveMember)

			r.Post("/{id}/activities", activityHandler.Create)
			r.Get("/{id}/activities", activityHandler.List)

			r.Get("/{id}/memories", memoryHandler.List)
			r.Post("/{id}/memories", memoryHandler.Upload)
		})

		r.Patch("/activities/{id}", activityHandler.Update)
		r.Delete("/activities/{id}", activityHandler.Delete)

		r.Delete("/memories/{id}", memoryHandler.Delete)

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", postHandler.Create)
			r.Get("/feed", postHandler.Feed)
			r.Get("/{id}", postHandler.Get)
			r.Put("/{id}", postHandler.Update)
			r.Delete("/{id}", postHandler.Delete)
		})

		r.Route("/friends", func(r chi.Router) {
			r.Get("/", friendHandler.List)
			r.Delete("/{userId}", friendHandler.Unfriend)
			r.Get("/requests", friendHandler.Pending)
			r.Post("/requests", friendHandler.Request)
			r.Post("/requests/{id}/accept", friendHandler.Accept)
			r.Delete("/requests/{id}", friendHandler.Decline)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Get("/unread-count", notificationHandler.UnreadCount)
			r.Post("/{id}/read", notificationHandler.MarkRead)
			r.Post("/read-all", notificationHandler.MarkAllRead)
			r.Delete("/{id}", notificationHandler.Delete)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", groupHandler.Create)
			r.Get("/", groupHandler.List)
			r.Get("/{id}", groupHandler.Get)
			r.Post("/{id}/join", groupHandler.Join)
			r.Delete("/{id}/leave", groupHandler.Leave)
			r.Delete("/{id}", groupHandler.Delete)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(users, logger))

			r.Get("/check", adminHandler.Check)
			r.Get("/users", adminHandler.ListUsers)
			r.Put("/users/role", adminHandler.UpdateRole)
			r.Delete("/users/{id}", adminHandler.DeleteUser)
			r.Get("/stats", adminHandler.Stats)
		})
	})

	return r
}
