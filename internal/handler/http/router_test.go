package http

import (
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarelab/wayfare/internal/auth"
	"github.com/wayfarelab/wayfare/internal/cache"
	"github.com/wayfarelab/wayfare/internal/event"
	"github.com/wayfarelab/wayfare/internal/service"
	"github.com/wayfarelab/wayfare/pkg/health"
	"github.com/wayfarelab/wayfare/pkg/middleware"
)

func newTestRouter(t *testing.T) chi.Routes {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	tokens := auth.NewTokenManager("test-access-secret", "test-refresh-secret")
	producer := event.NewProducer(nil, logger)
	unread := cache.NewUnreadCache(nil, time.Minute, logger)

	notifications := service.NewNotificationService(nil, unread, logger)
	vacations := service.NewVacationService(nil, nil, notifications, producer, logger)

	svcs := Services{
		Auth:          service.NewAuthService(nil, nil, tokens, producer, logger),
		Profile:       service.NewProfileService(nil, nil, nil, logger),
		Vacations:     vacations,
		Activities:    service.NewActivityService(nil, nil, vacations, logger),
		Memories:      service.NewMemoryService(nil, nil, vacations, nil, producer, logger),
		Posts:         service.NewPostService(nil, nil, vacations, producer, logger),
		Friends:       service.NewFriendService(nil, nil, notifications, producer, logger),
		Notifications: notifications,
		Groups:        service.NewGroupService(nil, logger),
		Admin:         service.NewAdminService(nil, nil, logger),
	}

	router := NewRouter(svcs, tokens, new(mockUserRepo), health.NewHandler(), RouterConfig{
		CORS:          middleware.CORSConfig{},
		AuthRateRPS:   10,
		AuthRateBurst: 20,
	}, logger)

	routes, ok := router.(chi.Routes)
	require.True(t, ok, "router must expose its route tree")
	return routes
}

func registeredRoutes(t *testing.T, routes chi.Routes) map[string]bool {
	t.Helper()

	set := make(map[string]bool)
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		set[method+" "+route] = true
		return nil
	})
	require.NoError(t, err)
	return set
}

func TestRouter_RegistersExpectedRoutes(t *testing.T) {
	set := registeredRoutes(t, newTestRouter(t))

	expected := []string{
		"POST /api/auth/register",
		"POST /api/auth/login",
		"POST /api/auth/refresh",
		"POST /api/auth/logout",
		"GET /api/auth/sessions",
		"DELETE /api/auth/sessions",
		"DELETE /api/auth/sessions/all",
		"DELETE /api/auth/sessions/{id}",
		"GET /api/profile",
		"PUT /api/profile",
		"GET /api/users/{usertag}",
		"PUT /api/vacations/{id}",
		"DELETE /api/vacations/{id}/members/{userId}",
		"PATCH /api/activities/{id}",
		"PUT /api/posts/{id}",
		"POST /api/friends/requests/{id}/accept",
		"DELETE /api/friends/requests/{id}",
		"GET /api/notifications/unread-count",
		"DELETE /api/notifications/{id}",
		"DELETE /api/groups/{id}/leave",
		"PUT /api/admin/users/role",
		"DELETE /api/admin/users/{id}",
		"GET /health/live",
		"GET /metrics",
	}
	for _, route := range expected {
		assert.True(t, set[route], "missing route %s", route)
	}
}

func TestRouter_RetiredRouteShapesAreGone(t *testing.T) {
	set := registeredRoutes(t, newTestRouter(t))

	retired := []string{
		"POST /api/friends/requests/{id}/decline",
		"GET /api/notifications/unread",
		"POST /api/groups/{id}/leave",
		"PATCH /api/vacations/{id}",
		"PATCH /api/admin/users/{id}/role",
	}
	for _, route := range retired {
		assert.False(t, set[route], "route %s should no longer be registered", route)
	}
}
