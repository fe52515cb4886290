package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/valmatch-sync/internal/application/icon"
	"github.com/valmatch-sync/internal/application/notification"
	"github.com/valmatch-sync/internal/config"
	"github.com/valmatch-sync/internal/transport/http/handler"
	appmiddleware "github.com/valmatch-sync/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	// Clients call from arbitrary origins, so CORS stays permissive;
	// preflight OPTIONS short-circuits with 200 here.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"},
		MaxAge:         300,
	}))

	// 5 requests/second, burst of 10 — notification writes are
	// low-frequency per user; anything past this is abuse.
	notifRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	notifSvc := notification.NewService(deps.NotificationRepo)
	iconSvc := icon.NewService(deps.IconStore)

	healthH := handler.NewHealthHandler()
	notifH := handler.NewNotificationHandler(notifSvc)
	proxyH := handler.NewProxyHandler(deps.Upstream)
	iconH := handler.NewIconHandler(iconSvc)

	r.Get("/health-check/{action}", healthH.Ping)

	r.Route("/notification", func(r chi.Router) {
		r.Use(notifRL.Limit)
		r.Get("/", notifH.Get)
		r.Post("/", notifH.Save)
		r.Delete("/", notifH.Delete)
	})

	r.Get("/proxy", proxyH.Forward)

	r.Get("/tournament-icons", iconH.List)
	r.Post("/tournament-icons", iconH.Merge)

	return r
}
