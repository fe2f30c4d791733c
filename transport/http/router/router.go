package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"tourbook/config"
	"tourbook/internal/handlers/auth"
	"tourbook/internal/handlers/booking"
	"tourbook/internal/handlers/payment"
	"tourbook/internal/handlers/promotion"
	"tourbook/internal/handlers/review"
	"tourbook/internal/handlers/tour"
	"tourbook/transport/http/middleware"
)

type DomainHandlers struct {
	Auth      auth.Handler
	Tour      tour.Handler
	Booking   booking.Handler
	Payment   payment.Handler
	Promotion promotion.Handler
	Review    review.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	AuthRole       middleware.AuthRole
	App            middleware.AppMiddleware
	Config         *config.Config
}

func (r *Router) SetupRoutes(router chi.Router) {
	if r.Config.App.CORS.Enable {
		corsCfg := r.Config.App.CORS
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsCfg.AllowedOrigins,
			AllowedMethods:   corsCfg.AllowedMethods,
			AllowedHeaders:   corsCfg.AllowedHeaders,
			AllowCredentials: corsCfg.AllowCredentials,
			MaxAge:           corsCfg.MaxAgeSeconds,
		}))
	}

	router.Use(r.App.Tracing)
	router.Use(r.App.RateLimit())

	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Use(r.AuthRole.APIKey)
		routerGroup.Use(r.AuthRole.Auth)
		routerGroup.Use(r.AuthRole.RBAC)

		r.DomainHandlers.Auth.Router(routerGroup)
		r.DomainHandlers.Tour.Router(routerGroup)
		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Payment.Router(routerGroup)
		r.DomainHandlers.Promotion.Router(routerGroup)
		r.DomainHandlers.Review.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers, authRole middleware.AuthRole, app middleware.AppMiddleware, cfg *config.Config) Router {
	return Router{
		DomainHandlers: domainHandlers,
		AuthRole:       authRole,
		App:            app,
		Config:         cfg,
	}
}
